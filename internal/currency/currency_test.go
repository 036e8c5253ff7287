package currency

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigits(t *testing.T) {
	cases := map[string]float64{
		"1,200,000 đ": 1200000,
		"500.000 VND": 500000,
		"  42 ":       42,
		"":            0,
		"n/a":         0,
	}
	for in, want := range cases {
		assert.Equal(t, want, Digits(in), "input %q", in)
	}
}

func TestDigitsOverflowIsInfinite(t *testing.T) {
	huge := "1" + strings.Repeat("0", 400) + " đ"
	assert.True(t, math.IsInf(Digits(huge), 1))
	assert.Greater(t, Digits(huge), Digits("999,999,999,999 đ"))
}

func TestFormatVND(t *testing.T) {
	assert.Equal(t, "1.068.000 VND", FormatVND(1068000))
	assert.Equal(t, "0 VND", FormatVND(0))
	assert.Equal(t, "631 VND", FormatVND(630.6))
}
