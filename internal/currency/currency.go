package currency

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Digits strips every non-digit from s and parses the rest as base 10.
// A value with no digits is 0; one too long for a float64 is +Inf.
func Digits(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

// FormatVND renders an amount with vi-VN digit grouping, e.g. "1.068.000 VND".
func FormatVND(amount float64) string {
	return message.NewPrinter(language.Vietnamese).Sprintf("%d", int64(math.Round(amount))) + " VND"
}
