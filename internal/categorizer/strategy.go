package categorizer

import "github.com/shopspring/decimal"

// Strategy is one way of deriving a category hint. Strategies are tried in
// order and the first that reports found wins.
type Strategy interface {
	// Classify returns the category code and whether the strategy decided.
	// description is already trimmed and lower-cased.
	Classify(amount decimal.Decimal, description string) (int, bool)

	// Name returns the name of this strategy for logging and debugging.
	Name() string
}
