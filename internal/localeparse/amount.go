package localeparse

import (
	"regexp"
	"strings"

	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"

	"github.com/shopspring/decimal"
)

var currencyNoise = regexp.MustCompile(`[€$£\s\x{00a0}]|EUR`)

// ParseAmount interprets a cell as a signed decimal amount.
// Numeric cells are taken as they are. Text uses the Spanish convention: '.'
// groups thousands and ',' marks decimals, so "1.234,56" is 1234.56.
// Empty cells are zero. Unreadable text yields zero and a
// *parsererror.ParseError.
func ParseAmount(c models.Cell) (decimal.Decimal, error) {
	switch c.Kind {
	case models.CellEmpty:
		return decimal.Zero, nil
	case models.CellNumber:
		return decimal.NewFromFloat(c.Number), nil
	}

	standardized := StandardizeAmount(c.Text)
	if standardized == "" {
		return decimal.Zero, nil
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, &parsererror.ParseError{Value: c.Text, Err: err}
	}
	return amount, nil
}

// StandardizeAmount rewrites a Spanish-formatted amount into the form
// decimal.NewFromString accepts.
func StandardizeAmount(s string) string {
	s = currencyNoise.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.TrimPrefix(s, "+")

	// Some exports put the sign last: "12,50-".
	if strings.HasSuffix(s, "-") && !strings.HasPrefix(s, "-") {
		s = "-" + strings.TrimSuffix(s, "-")
	}
	return s
}
