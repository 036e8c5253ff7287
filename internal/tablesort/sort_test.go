package tablesort

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	id    string
	spent string
	count int
}

func (r row) SortValue(field string) Value {
	switch field {
	case "id":
		return Text(r.id)
	case "spent":
		return Currency(r.spent)
	case "count":
		return Number(float64(r.count))
	}
	return Text("")
}

func ids(rows []row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.id)
	}
	return out
}

func TestToggleCycle(t *testing.T) {
	var s State[string]
	assert.False(t, s.Active())
	assert.Equal(t, "↕", s.Indicator("spent"))

	s = s.Toggle("spent")
	assert.Equal(t, State[string]{Key: "spent", Direction: Ascending}, s)
	assert.Equal(t, "▲", s.Indicator("spent"))
	assert.Equal(t, "↕", s.Indicator("id"))

	s = s.Toggle("spent")
	assert.Equal(t, Descending, s.Direction)
	assert.Equal(t, "▼", s.Indicator("spent"))

	s = s.Toggle("spent")
	assert.Equal(t, State[string]{Key: "spent", Direction: Ascending}, s)
}

func TestToggleNewKeyStartsAscending(t *testing.T) {
	s := State[string]{Key: "spent", Direction: Descending}
	s = s.Toggle("id")
	assert.Equal(t, State[string]{Key: "id", Direction: Ascending}, s)
}

func TestSortCurrencyNumerically(t *testing.T) {
	rows := []row{
		{id: "a", spent: "1,200,000 đ"},
		{id: "b", spent: "500,000 đ"},
		{id: "c", spent: "free"},
	}
	got := Sort(rows, State[string]{Key: "spent", Direction: Ascending})
	assert.Equal(t, []string{"c", "b", "a"}, ids(got))

	got = Sort(rows, State[string]{Key: "spent", Direction: Descending})
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestSortIsStableAndDoesNotMutateInput(t *testing.T) {
	rows := []row{
		{id: "x", count: 2},
		{id: "y", count: 1},
		{id: "z", count: 2},
		{id: "w", count: 1},
	}
	got := Sort(rows, State[string]{Key: "count", Direction: Ascending})
	assert.Equal(t, []string{"y", "w", "x", "z"}, ids(got))

	got = Sort(rows, State[string]{Key: "count", Direction: Descending})
	assert.Equal(t, []string{"x", "z", "y", "w"}, ids(got))

	assert.Equal(t, []string{"x", "y", "z", "w"}, ids(rows))
}

func TestSortInactiveKeepsFetchOrder(t *testing.T) {
	rows := []row{{id: "b"}, {id: "a"}, {id: "c"}}
	got := Sort(rows, State[string]{})
	assert.Equal(t, []string{"b", "a", "c"}, ids(got))
}

func TestCompareMixedKinds(t *testing.T) {
	assert.Negative(t, Compare(Number(10), Text("1")))
	assert.Positive(t, Compare(Text("a"), Number(999)))
	assert.Zero(t, Compare(Text("a"), Text("a")))
	assert.Negative(t, Compare(Text("B"), Text("a")))
}

func TestAriaSort(t *testing.T) {
	var s State[string]
	assert.Equal(t, "none", s.AriaSort("id"))

	s = s.Toggle("id")
	assert.Equal(t, "ascending", s.AriaSort("id"))
	assert.Equal(t, "none", s.AriaSort("spent"))

	s = s.Toggle("id")
	assert.Equal(t, "descending", s.AriaSort("id"))
	assert.Equal(t, "descending", Descending.String())
}
