package store

import (
	"time"

	"fjacquet/bank-movements/internal/models"

	"github.com/shopspring/decimal"
)

type movementRow struct {
	ID                uint   `gorm:"primaryKey"`
	Bank              string `gorm:"size:20;index"`
	SourceFile        string `gorm:"size:255"`
	Date              *time.Time
	ValueDate         *time.Time          `gorm:"index"`
	Description       string              `gorm:"size:255"`
	Amount            decimal.Decimal     `gorm:"type:decimal(14,2);not null"`
	Currency          string              `gorm:"size:3;not null;default:EUR"`
	BalanceAfter      decimal.NullDecimal `gorm:"type:decimal(14,2)"`
	BalanceCurrency   string              `gorm:"size:3"`
	Office            *string             `gorm:"size:20"`
	Aux1              string              `gorm:"size:100"`
	Aux2              string              `gorm:"size:100"`
	Aux3              string              `gorm:"size:100"`
	Aux4              string              `gorm:"size:100"`
	Aux5              string              `gorm:"size:100"`
	Aux6              string              `gorm:"size:100"`
	SuggestedCategory int
	Category          *int
	Reviewed          bool `gorm:"index;not null;default:false"`
	Version           int  `gorm:"not null;default:1"`
	CreatedAt         time.Time
}

func (movementRow) TableName() string { return "movements" }

type ledgerRow struct {
	ID          uint            `gorm:"primaryKey"`
	MovementID  uint            `gorm:"uniqueIndex;not null"`
	Year        int             `gorm:"index:idx_ledger_period"`
	Month       int             `gorm:"index:idx_ledger_period"`
	Description string          `gorm:"size:255"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Category    int
	Reviewed    bool
	CreatedAt   time.Time
}

func (ledgerRow) TableName() string { return "expense_ledger" }

type conceptRow struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false"`
	Label string `gorm:"size:100;not null"`
}

func (conceptRow) TableName() string { return "concepts" }

func toMovementRow(m models.Movement) movementRow {
	return movementRow{
		ID:                m.ID,
		Bank:              string(m.Bank),
		SourceFile:        m.SourceFile,
		Date:              m.Date,
		ValueDate:         m.ValueDate,
		Description:       m.Description,
		Amount:            m.Amount,
		Currency:          m.Currency,
		BalanceAfter:      m.BalanceAfter,
		BalanceCurrency:   m.BalanceCurrency,
		Office:            m.Office,
		Aux1:              m.Aux1,
		Aux2:              m.Aux2,
		Aux3:              m.Aux3,
		Aux4:              m.Aux4,
		Aux5:              m.Aux5,
		Aux6:              m.Aux6,
		SuggestedCategory: m.SuggestedCategory,
		Category:          m.Category,
		Reviewed:          m.Reviewed,
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
	}
}

func (r movementRow) toModel() models.Movement {
	return models.Movement{
		ID:                r.ID,
		Bank:              models.Bank(r.Bank),
		SourceFile:        r.SourceFile,
		Date:              utcDate(r.Date),
		ValueDate:         utcDate(r.ValueDate),
		Description:       r.Description,
		Amount:            r.Amount,
		Currency:          r.Currency,
		BalanceAfter:      r.BalanceAfter,
		BalanceCurrency:   r.BalanceCurrency,
		Office:            r.Office,
		Aux1:              r.Aux1,
		Aux2:              r.Aux2,
		Aux3:              r.Aux3,
		Aux4:              r.Aux4,
		Aux5:              r.Aux5,
		Aux6:              r.Aux6,
		SuggestedCategory: r.SuggestedCategory,
		Category:          r.Category,
		Reviewed:          r.Reviewed,
		Version:           r.Version,
		CreatedAt:         r.CreatedAt,
	}
}

func toLedgerRow(e models.ExpenseLedgerEntry) ledgerRow {
	return ledgerRow{
		ID:          e.ID,
		MovementID:  e.MovementID,
		Year:        e.Year,
		Month:       e.Month,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Reviewed:    e.Reviewed,
		CreatedAt:   e.CreatedAt,
	}
}

func (r ledgerRow) toModel() models.ExpenseLedgerEntry {
	return models.ExpenseLedgerEntry{
		ID:          r.ID,
		MovementID:  r.MovementID,
		Year:        r.Year,
		Month:       r.Month,
		Description: r.Description,
		Amount:      r.Amount,
		Category:    r.Category,
		Reviewed:    r.Reviewed,
		CreatedAt:   r.CreatedAt,
	}
}

// utcDate drops the location drivers attach on read so dates compare equal
// to what was written.
func utcDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
