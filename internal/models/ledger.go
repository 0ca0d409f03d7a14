package models

import "fmt"

// NewLedgerEntry derives the expense ledger entry for a reviewed movement.
// Year and month come from LedgerDate; a movement with no date at all cannot
// be promoted.
func NewLedgerEntry(m Movement, category int) (ExpenseLedgerEntry, error) {
	d := m.LedgerDate()
	if d == nil {
		return ExpenseLedgerEntry{}, fmt.Errorf("movement %d has neither value date nor operation date", m.ID)
	}
	return ExpenseLedgerEntry{
		MovementID:  m.ID,
		Year:        d.Year(),
		Month:       int(d.Month()),
		Description: m.Description,
		Amount:      m.Amount,
		Category:    category,
		Reviewed:    true,
	}, nil
}
