package localeparse

import (
	"errors"
	"regexp"
	"strings"

	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"
)

var (
	errInvalidCurrency = errors.New("not an ISO 4217 currency code")
	currencyPattern    = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ParseCurrency reads a three-letter currency code, upper-casing it. A blank
// value is the default currency and "€" reads as EUR.
func ParseCurrency(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	switch code {
	case "":
		return models.DefaultCurrency, nil
	case "€":
		return "EUR", nil
	}
	if !currencyPattern.MatchString(code) {
		return "", &parsererror.ParseError{Value: s, Err: errInvalidCurrency}
	}
	return code, nil
}
