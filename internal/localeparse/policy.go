package localeparse

import (
	"fmt"
	"strings"
	"time"

	"fjacquet/bank-movements/internal/models"

	"github.com/shopspring/decimal"
)

// Policy decides what happens to a value the parser cannot read.
type Policy string

const (
	// PolicyStrict rejects the row and reports it.
	PolicyStrict Policy = "strict"
	// PolicyLenient keeps the row, reading the value as zero or a null date.
	PolicyLenient Policy = "lenient"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyStrict, PolicyLenient:
		return p, nil
	case "":
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown parse policy %q (want strict or lenient)", s)
	}
}

// Amount parses column's cell under the policy.
func (p Policy) Amount(row models.RawRow, column string) (decimal.Decimal, error) {
	amount, err := ParseAmount(row.Get(column))
	if err != nil && p != PolicyLenient {
		return decimal.Zero, fmt.Errorf("column %q: %w", column, err)
	}
	return amount, nil
}

// OptionalAmount is Amount for columns whose absence means "no value" rather
// than zero, such as balances.
func (p Policy) OptionalAmount(row models.RawRow, column string) (decimal.NullDecimal, error) {
	if row.Get(column).IsEmpty() {
		return decimal.NullDecimal{}, nil
	}
	amount, err := ParseAmount(row.Get(column))
	if err != nil {
		if p == PolicyLenient {
			return decimal.NullDecimal{}, nil
		}
		return decimal.NullDecimal{}, fmt.Errorf("column %q: %w", column, err)
	}
	return decimal.NewNullDecimal(amount), nil
}

// Date parses column's cell under the policy.
func (p Policy) Date(row models.RawRow, column string) (*time.Time, error) {
	d, err := ParseDate(row.Get(column))
	if err != nil && p != PolicyLenient {
		return nil, fmt.Errorf("column %q: %w", column, err)
	}
	return d, nil
}

// Currency parses column's currency code under the policy. Lenient parsing
// falls back to the default currency.
func (p Policy) Currency(row models.RawRow, column string) (string, error) {
	code, err := ParseCurrency(row.Text(column))
	if err != nil {
		if p == PolicyLenient {
			return models.DefaultCurrency, nil
		}
		return "", fmt.Errorf("column %q: %w", column, err)
	}
	return code, nil
}
