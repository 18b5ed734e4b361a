package payments

import (
	"fmt"
	"strconv"
	"strings"

	"stash/internal/money"
)

// DefaultCurrency applies when neither the request nor the service
// configuration names one.
const DefaultCurrency = "ZAR"

// NormalizeCurrency trims and uppercases a currency code, falling back
// to fallback and then to ZAR.
func NormalizeCurrency(currency, fallback string) string {
	raw := strings.TrimSpace(currency)
	if raw == "" {
		raw = strings.TrimSpace(fallback)
	}
	if raw == "" {
		return DefaultCurrency
	}
	return strings.ToUpper(raw)
}

// formatRequestAmount renders the request amount as a two-decimal
// major-unit string, converting first when the caller tagged the
// amount as minor units.
func formatRequestAmount(req PaymentRequest) (string, error) {
	if req.AmountUnit == AmountMinor {
		minor, err := money.ParseMinorUnits(req.Amount)
		if err != nil {
			return "", invalidAmount(err)
		}
		return money.FormatMinorAsMajor(minor, NormalizeCurrency(req.Currency, DefaultCurrency)), nil
	}
	formatted, err := money.FormatMajor(req.Amount)
	if err != nil {
		return "", invalidAmount(err)
	}
	return formatted, nil
}

// toStringValue renders provider-data values the way each provider
// expects form fields: booleans as "true"/"false", numbers without
// exponent formatting.
func toStringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", value)
	}
}
