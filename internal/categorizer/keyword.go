package categorizer

import (
	"strings"

	"fjacquet/bank-movements/internal/logging"

	"github.com/shopspring/decimal"
)

// KeywordStrategy matches the description against an ordered keyword list.
type KeywordStrategy struct {
	rules  []Rule
	logger logging.Logger
}

// NewKeywordStrategy creates a KeywordStrategy. Keywords are matched
// case-insensitively.
func NewKeywordStrategy(rules []Rule, logger logging.Logger) *KeywordStrategy {
	normalized := make([]Rule, len(rules))
	for i, r := range rules {
		normalized[i] = Rule{Keyword: strings.ToLower(r.Keyword), Category: r.Category}
	}
	return &KeywordStrategy{rules: normalized, logger: logger}
}

// Name returns the name of this strategy for logging and debugging.
func (s *KeywordStrategy) Name() string {
	return "Keyword"
}

// Classify implements Strategy.
func (s *KeywordStrategy) Classify(_ decimal.Decimal, description string) (int, bool) {
	for _, r := range s.rules {
		if strings.Contains(description, r.Keyword) {
			s.logger.Debug("Movement matched keyword rule",
				logging.F("strategy", s.Name()),
				logging.F(logging.FieldKeyword, r.Keyword),
				logging.F(logging.FieldCategory, r.Category))
			return r.Category, true
		}
	}
	return 0, false
}
