// Package categorizer seeds each movement with a category hint derived from
// its description and amount. The hint is a suggestion; the reviewer assigns
// the final category.
package categorizer

import (
	"strings"

	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"

	"github.com/shopspring/decimal"
)

// Categorizer runs its strategies in order.
type Categorizer struct {
	strategies []Strategy
	logger     logging.Logger
}

// NewCategorizer builds the keyword strategy over rules followed by the sign
// fallback. Nil rules select DefaultRules.
func NewCategorizer(rules []Rule, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if rules == nil {
		rules = DefaultRules()
	}
	logger = logger.WithField(logging.FieldComponent, "categorizer")

	return &Categorizer{
		strategies: []Strategy{NewKeywordStrategy(rules, logger), SignStrategy{}},
		logger:     logger,
	}
}

// Classify returns the category hint for one movement. A blank description
// yields CategoryUncategorized regardless of amount.
func (c *Categorizer) Classify(amount decimal.Decimal, description string) int {
	normalized := strings.ToLower(strings.TrimSpace(description))
	if normalized == "" {
		return models.CategoryUncategorized
	}

	for _, s := range c.strategies {
		if category, found := s.Classify(amount, normalized); found {
			return category
		}
	}
	return models.CategoryUncategorized
}

// ClassifyAll sets SuggestedCategory on every movement in place.
func (c *Categorizer) ClassifyAll(movements []models.Movement) {
	for i := range movements {
		movements[i].SuggestedCategory = c.Classify(movements[i].Amount, movements[i].Description)
	}
}
