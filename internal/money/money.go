// Package money converts between major-unit decimal amounts and
// minor-unit integers per currency exponent. Callers hand providers
// decimal strings ("25.00") while Paystack wants integer cents; every
// conversion funnels through here so the factor-100 edge cases live in
// one place.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("amount must be a valid number")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
	ErrAmountTooLarge  = errors.New("amount is too large")
	ErrNotMinorInteger = errors.New("amount in minor units must be an integer")
)

const defaultExponent = 2

var currencyExponents = map[string]int32{
	"ZAR": 2,
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"NGN": 2,
}

// maxSafeMinor caps minor-unit values at 2^53-1 so they survive a trip
// through JSON consumers that read numbers as float64.
var maxSafeMinor = decimal.NewFromInt(1<<53 - 1)

// Exponent returns the minor-unit scale for currency, defaulting to 2
// when the currency is unknown.
func Exponent(currency string) int32 {
	if currency == "" {
		return defaultExponent
	}
	if exp, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return defaultExponent
}

func parseAmount(amount string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(amount)
	if raw == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// ToMinorUnits parses a major-unit decimal string and returns the
// amount as an integer in minor units. Scientific notation is rounded
// to the currency exponent before validation, matching how numeric
// callers format values.
func ToMinorUnits(amount, currency string) (int64, error) {
	exp := Exponent(currency)

	d, err := parseAmount(amount)
	if err != nil {
		return 0, err
	}
	if strings.ContainsAny(amount, "eE") {
		d = d.Round(exp)
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	if -d.Exponent() > exp {
		return 0, ErrTooManyDecimals
	}

	minor := d.Shift(exp)
	if minor.Cmp(maxSafeMinor) > 0 {
		return 0, ErrAmountTooLarge
	}
	return minor.IntPart(), nil
}

// ParseMinorUnits accepts an amount already expressed in minor units.
// A decimal point is rejected even when the fraction is zero: a caller
// writing "2500.0" for cents is more likely confused about units than
// deliberate.
func ParseMinorUnits(amount string) (int64, error) {
	d, err := parseAmount(amount)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	if d.Exponent() < 0 || !d.IsInteger() {
		return 0, ErrNotMinorInteger
	}
	if d.Cmp(maxSafeMinor) > 0 {
		return 0, ErrAmountTooLarge
	}
	return d.IntPart(), nil
}

// FromMinorUnits converts an integer minor-unit amount back to major
// units at display precision.
func FromMinorUnits(minor int64, currency string) float64 {
	f, _ := decimal.New(minor, -Exponent(currency)).Float64()
	return f
}

// FormatMajor renders an amount as a two-decimal string, the shape
// Ozow and Payfast expect in signed fields.
func FormatMajor(amount string) (string, error) {
	d, err := parseAmount(amount)
	if err != nil {
		return "", err
	}
	return d.StringFixed(2), nil
}

// FormatMinorAsMajor renders an integer minor-unit amount as a
// two-decimal major-unit string.
func FormatMinorAsMajor(minor int64, currency string) string {
	return decimal.New(minor, -Exponent(currency)).StringFixed(2)
}
