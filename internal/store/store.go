// Package store persists movements, the expense ledger and the concept
// catalog. GormStore is the production implementation; MemoryStore backs
// tests and throwaway runs.
package store

import (
	"context"

	"fjacquet/bank-movements/internal/models"
)

// Filter narrows QueryUnreviewed.
type Filter struct {
	// ExpensesOnly keeps movements with a negative amount.
	ExpensesOnly bool
	// Bank keeps one bank's movements when set.
	Bank models.Bank
	// Limit caps the result size when positive.
	Limit int
}

// Patch is the only mutation a movement accepts after creation. It applies
// only while the stored version equals ExpectedVersion, and bumps it.
type Patch struct {
	Reviewed        bool
	Category        int
	ExpectedVersion int
}

// LedgerFilter narrows ledger listings. Zero fields match everything.
type LedgerFilter struct {
	Year  int
	Month int
}

// MovementStore holds normalized movements.
type MovementStore interface {
	// InsertMany stores all movements or none. It returns them with IDs,
	// version and creation time assigned.
	InsertMany(ctx context.Context, movements []models.Movement) ([]models.Movement, error)
	// QueryUnreviewed lists pending movements by value date, undated last.
	QueryUnreviewed(ctx context.Context, filter Filter) ([]models.Movement, error)
	GetByID(ctx context.Context, id uint) (models.Movement, error)
	// UpdateByID applies p; it returns parsererror.ErrStaleReview when the
	// version no longer matches and parsererror.ErrNotFound for unknown IDs.
	UpdateByID(ctx context.Context, id uint, p Patch) error
}

// ExpenseLedgerStore holds promoted expenses. A movement appears at most once.
type ExpenseLedgerStore interface {
	Insert(ctx context.Context, entry *models.ExpenseLedgerEntry) error
	List(ctx context.Context, filter LedgerFilter) ([]models.ExpenseLedgerEntry, error)
}

// ConceptCatalog is the category catalog.
type ConceptCatalog interface {
	ListOrderedByLabel(ctx context.Context) ([]models.Concept, error)
	// Upsert is used for seeding only.
	Upsert(ctx context.Context, concepts []models.Concept) error
}

// Store groups the three stores with transactions and lifecycle.
type Store interface {
	Movements() MovementStore
	Ledger() ExpenseLedgerStore
	Concepts() ConceptCatalog

	// Transact runs fn against a transactional view. fn's writes commit
	// together when it returns nil and are rolled back otherwise.
	Transact(ctx context.Context, fn func(tx Store) error) error
	Close() error
}
