// Package tablesort orders table rows by a single column with a tri-state
// header toggle.
package tablesort

import (
	"cmp"
	"slices"
	"strings"

	"github.com/phillip-england/cineadmin/internal/currency"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String is the aria-sort token for d.
func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// State is the active sort column and direction. The zero Key means rows
// are shown in fetch order.
type State[K ~string] struct {
	Key       K
	Direction Direction
}

func (s State[K]) Active() bool {
	var none K
	return s.Key != none
}

// Toggle returns the state after a click on the header for key. Once a key
// is chosen the table never returns to fetch order.
func (s State[K]) Toggle(key K) State[K] {
	if s.Key == key && s.Direction == Ascending {
		return State[K]{Key: key, Direction: Descending}
	}
	return State[K]{Key: key, Direction: Ascending}
}

// Indicator is the glyph shown next to the header for key.
func (s State[K]) Indicator(key K) string {
	if !s.Active() || s.Key != key {
		return "↕"
	}
	if s.Direction == Descending {
		return "▼"
	}
	return "▲"
}

// AriaSort is the aria-sort attribute value for the header of key.
func (s State[K]) AriaSort(key K) string {
	if !s.Active() || s.Key != key {
		return "none"
	}
	return s.Direction.String()
}

type kind int

const (
	kindNumber kind = iota
	kindText
)

// Value is a comparable cell value extracted from a record.
type Value struct {
	kind kind
	num  float64
	text string
}

func Number(n float64) Value { return Value{kind: kindNumber, num: n} }

func Text(s string) Value { return Value{kind: kindText, text: s} }

// Currency normalizes a formatted amount such as "1,200,000 đ" to its digits.
func Currency(s string) Value { return Number(currency.Digits(s)) }

// Compare orders numbers numerically and text byte-wise. Numbers sort before
// text when a column mixes both.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}
	if a.kind == kindNumber {
		return cmp.Compare(a.num, b.num)
	}
	return strings.Compare(a.text, b.text)
}

// Sortable is implemented by records that expose a value per sortable field.
type Sortable[K ~string] interface {
	SortValue(field K) Value
}

// Sort returns a new slice ordered by state. Equal values keep their input
// order. An inactive state returns a copy in input order.
func Sort[R Sortable[K], K ~string](rows []R, state State[K]) []R {
	out := slices.Clone(rows)
	if !state.Active() || len(out) < 2 {
		return out
	}
	slices.SortStableFunc(out, func(a, b R) int {
		c := Compare(a.SortValue(state.Key), b.SortValue(state.Key))
		if state.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}
