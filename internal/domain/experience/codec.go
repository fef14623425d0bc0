// Package experience decodes "years.months" literals into decimal years.
//
// The fractional digits of a literal are months, not a fraction of a year:
// 2.6 is two years and six months, 2.11 is two years and eleven months.
// Months are read from the literal's text, never from float arithmetic,
// because binary floats cannot be trusted to preserve the digit the caller
// typed.
package experience

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	monthsPerYear = 12
	// decimalScale rounds decoded values to 4 decimal digits.
	decimalScale = 1e4
)

// Span is a literal split into its whole years and months.
type Span struct {
	Years  int
	Months int
}

// Decimal returns the span as decimal years rounded to 4 digits, half to even.
func (s Span) Decimal() float64 {
	return Round(float64(s.Years)+float64(s.Months)/monthsPerYear, decimalScale)
}

// Decode converts a float written as years.months into decimal years.
// The float is rendered with its shortest round-trip representation, so
// 2.6 reads as "2.6" and 2.10 reads as "2.1" (one month).
func Decode(raw float64) (float64, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, fmt.Errorf("%w: %v is not a number", ErrInvalidFormat, raw)
	}
	if raw < 0 {
		return 0, fmt.Errorf("%w: experience must not be negative, got %v", ErrInvalidFormat, raw)
	}
	return DecodeLiteral(strconv.FormatFloat(raw, 'f', -1, 64))
}

// DecodeLiteral converts the textual literal into decimal years.
func DecodeLiteral(text string) (float64, error) {
	span, err := Parse(text)
	if err != nil {
		return 0, err
	}
	return span.Decimal(), nil
}

// Parse splits a literal into years and months without converting it.
func Parse(text string) (Span, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Span{}, fmt.Errorf("%w: empty literal", ErrInvalidFormat)
	}
	if strings.HasPrefix(s, "-") {
		return Span{}, fmt.Errorf("%w: experience must not be negative, got %q", ErrInvalidFormat, s)
	}
	if strings.ContainsAny(s, "eE") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(v, 0) {
			return Span{}, fmt.Errorf("%w: %q is not a number", ErrInvalidFormat, s)
		}
		s = strconv.FormatFloat(v, 'f', -1, 64)
	}

	yearsText, monthsText, hasDot := strings.Cut(s, ".")
	if !hasDot || monthsText == "" {
		monthsText = "0"
	}
	if !digitsOnly(yearsText) || !digitsOnly(monthsText) {
		return Span{}, fmt.Errorf("%w: %q is not a years.months literal", ErrInvalidFormat, s)
	}
	if len(monthsText) > 2 {
		return Span{}, fmt.Errorf("%w: %q has more than two month digits", ErrInvalidFormat, s)
	}

	years, err := strconv.Atoi(yearsText)
	if err != nil {
		return Span{}, fmt.Errorf("%w: years in %q: %v", ErrInvalidFormat, s, err)
	}
	months, err := strconv.Atoi(monthsText)
	if err != nil || months >= monthsPerYear {
		return Span{}, fmt.Errorf("%w: %q encodes month %s, months must be 0-11 (2.6 = 6 months, 2.11 = 11 months)",
			ErrInvalidFormat, s, monthsText)
	}
	return Span{Years: years, Months: months}, nil
}

// Round rounds x to 1/scale using round-half-to-even on the scaled value.
func Round(x, scale float64) float64 {
	return math.RoundToEven(x*scale) / scale
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
