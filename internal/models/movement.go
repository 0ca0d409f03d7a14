// Package models holds the canonical records shared by ingestion, review and
// the stores.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field length limits of the canonical schema. Longer values are truncated.
const (
	MaxDescriptionLen = 255
	MaxOfficeLen      = 20
	MaxAuxLen         = 100
	DefaultCurrency   = "EUR"
)

// Category hint codes seeded by the classifier.
const (
	CategoryUncategorized = 0
	CategoryTransfer      = 1
	CategoryDirectDebit   = 2
	CategoryCard          = 3
	CategoryDeposit       = 4
	CategoryOtherIncome   = 5
	CategoryOtherExpense  = 6
)

// Movement is one normalized bank transaction line.
type Movement struct {
	ID              uint                `json:"id"`
	Bank            Bank                `json:"bank"`
	SourceFile      string              `json:"sourceFile"`
	Date            *time.Time          `json:"date"`
	ValueDate       *time.Time          `json:"valueDate"`
	Description     string              `json:"description"`
	Amount          decimal.Decimal     `json:"amount"`
	Currency        string              `json:"currency"`
	BalanceAfter    decimal.NullDecimal `json:"balanceAfter"`
	BalanceCurrency string              `json:"balanceCurrency"`
	Office          *string             `json:"office"`
	Aux1            string              `json:"aux1,omitempty"`
	Aux2            string              `json:"aux2,omitempty"`
	Aux3            string              `json:"aux3,omitempty"`
	Aux4            string              `json:"aux4,omitempty"`
	Aux5            string              `json:"aux5,omitempty"`
	Aux6            string              `json:"aux6,omitempty"`

	// SuggestedCategory is the classifier's hint. Category stays nil until a
	// reviewer confirms one.
	SuggestedCategory int       `json:"suggestedCategory"`
	Category          *int      `json:"category"`
	Reviewed          bool      `json:"reviewed"`
	Version           int       `json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
}

// IsExpense reports whether the movement debits the account.
func (m Movement) IsExpense() bool {
	return m.Amount.IsNegative()
}

// LedgerDate is the date used to bucket the movement in the expense ledger:
// the value date, or the operation date when the bank gave none.
func (m Movement) LedgerDate() *time.Time {
	if m.ValueDate != nil {
		return m.ValueDate
	}
	return m.Date
}

// Concept is an entry of the category catalog.
type Concept struct {
	ID    int    `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// ExpenseLedgerEntry is a confirmed, categorized expense. It is written once
// by the review engine and never changed.
type ExpenseLedgerEntry struct {
	ID          uint            `json:"id" csv:"id"`
	MovementID  uint            `json:"movementId" csv:"movement_id"`
	Year        int             `json:"year" csv:"year"`
	Month       int             `json:"month" csv:"month"`
	Description string          `json:"description" csv:"description"`
	Amount      decimal.Decimal `json:"amount" csv:"amount"`
	Category    int             `json:"category" csv:"category"`
	Reviewed    bool            `json:"reviewed" csv:"reviewed"`
	CreatedAt   time.Time       `json:"createdAt" csv:"-"`
}
