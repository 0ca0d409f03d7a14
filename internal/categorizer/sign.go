package categorizer

import (
	"fjacquet/bank-movements/internal/models"

	"github.com/shopspring/decimal"
)

// SignStrategy is the fallback: income or expense by the amount's sign.
type SignStrategy struct{}

// Name returns the name of this strategy for logging and debugging.
func (SignStrategy) Name() string {
	return "Sign"
}

// Classify implements Strategy. It always decides.
func (SignStrategy) Classify(amount decimal.Decimal, _ string) (int, bool) {
	if amount.IsNegative() {
		return models.CategoryOtherExpense, true
	}
	return models.CategoryOtherIncome, true
}
