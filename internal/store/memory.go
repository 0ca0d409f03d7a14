package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"
)

// MemoryStore is an in-process Store. Transactions are serialized and roll
// back by restoring a snapshot, so writes made outside a transaction while
// one is running are lost if it rolls back. The error fields let tests
// inject failures.
type MemoryStore struct {
	state *memoryState

	// InsertManyError, when set, is returned by Movements().InsertMany.
	InsertManyError error
	// LedgerInsertError, when set, is returned by Ledger().Insert.
	LedgerInsertError error
}

type memoryState struct {
	mu        sync.Mutex
	txMu      sync.Mutex
	movements map[uint]models.Movement
	ledger    []models.ExpenseLedgerEntry
	concepts  map[int]models.Concept
	nextID    uint
	nextEntry uint
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memoryState{
		movements: map[uint]models.Movement{},
		concepts:  map[int]models.Concept{},
	}}
}

func (m *MemoryStore) Movements() MovementStore  { return memoryMovements{m} }
func (m *MemoryStore) Ledger() ExpenseLedgerStore { return memoryLedger{m} }
func (m *MemoryStore) Concepts() ConceptCatalog   { return memoryConcepts{m} }

// Transact implements Store.
func (m *MemoryStore) Transact(ctx context.Context, fn func(tx Store) error) error {
	st := m.state
	st.txMu.Lock()
	defer st.txMu.Unlock()

	st.mu.Lock()
	snap := st.snapshot()
	st.mu.Unlock()

	if err := fn(m); err != nil {
		st.mu.Lock()
		st.restore(snap)
		st.mu.Unlock()
		return err
	}
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

type memorySnapshot struct {
	movements map[uint]models.Movement
	ledger    []models.ExpenseLedgerEntry
	concepts  map[int]models.Concept
	nextID    uint
	nextEntry uint
}

func (st *memoryState) snapshot() memorySnapshot {
	s := memorySnapshot{
		movements: make(map[uint]models.Movement, len(st.movements)),
		ledger:    append([]models.ExpenseLedgerEntry(nil), st.ledger...),
		concepts:  make(map[int]models.Concept, len(st.concepts)),
		nextID:    st.nextID,
		nextEntry: st.nextEntry,
	}
	for k, v := range st.movements {
		s.movements[k] = v
	}
	for k, v := range st.concepts {
		s.concepts[k] = v
	}
	return s
}

func (st *memoryState) restore(s memorySnapshot) {
	st.movements = s.movements
	st.ledger = s.ledger
	st.concepts = s.concepts
	st.nextID = s.nextID
	st.nextEntry = s.nextEntry
}

type memoryMovements struct{ m *MemoryStore }

func (s memoryMovements) InsertMany(ctx context.Context, movements []models.Movement) ([]models.Movement, error) {
	if s.m.InsertManyError != nil {
		return nil, &parsererror.StoreError{Op: "insert movements", Err: s.m.InsertManyError}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := s.m.state
	st.mu.Lock()
	defer st.mu.Unlock()

	now := time.Now().UTC()
	out := make([]models.Movement, len(movements))
	for i, mv := range movements {
		st.nextID++
		mv.ID = st.nextID
		mv.Version = 1
		mv.Reviewed = false
		mv.Category = nil
		mv.CreatedAt = now
		st.movements[mv.ID] = mv
		out[i] = mv
	}
	return out, nil
}

func (s memoryMovements) QueryUnreviewed(ctx context.Context, filter Filter) ([]models.Movement, error) {
	st := s.m.state
	st.mu.Lock()
	var out []models.Movement
	for _, mv := range st.movements {
		if mv.Reviewed {
			continue
		}
		if filter.ExpensesOnly && !mv.IsExpense() {
			continue
		}
		if filter.Bank != "" && mv.Bank != filter.Bank {
			continue
		}
		out = append(out, mv)
	}
	st.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ValueDate, out[j].ValueDate
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return out[i].ID < out[j].ID
		}
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s memoryMovements) GetByID(ctx context.Context, id uint) (models.Movement, error) {
	st := s.m.state
	st.mu.Lock()
	defer st.mu.Unlock()

	mv, ok := st.movements[id]
	if !ok {
		return models.Movement{}, fmt.Errorf("movement %d: %w", id, parsererror.ErrNotFound)
	}
	return mv, nil
}

func (s memoryMovements) UpdateByID(ctx context.Context, id uint, p Patch) error {
	st := s.m.state
	st.mu.Lock()
	defer st.mu.Unlock()

	mv, ok := st.movements[id]
	if !ok {
		return fmt.Errorf("movement %d: %w", id, parsererror.ErrNotFound)
	}
	if mv.Version != p.ExpectedVersion {
		return fmt.Errorf("movement %d: %w", id, parsererror.ErrStaleReview)
	}

	category := p.Category
	mv.Reviewed = p.Reviewed
	mv.Category = &category
	mv.Version++
	st.movements[id] = mv
	return nil
}

type memoryLedger struct{ m *MemoryStore }

func (s memoryLedger) Insert(ctx context.Context, entry *models.ExpenseLedgerEntry) error {
	if s.m.LedgerInsertError != nil {
		return &parsererror.StoreError{Op: "insert ledger entry", Err: s.m.LedgerInsertError}
	}

	st := s.m.state
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, e := range st.ledger {
		if e.MovementID == entry.MovementID {
			return &parsererror.StoreError{
				Op:  "insert ledger entry",
				Err: fmt.Errorf("movement %d already promoted", entry.MovementID),
			}
		}
	}

	st.nextEntry++
	entry.ID = st.nextEntry
	entry.CreatedAt = time.Now().UTC()
	st.ledger = append(st.ledger, *entry)
	return nil
}

func (s memoryLedger) List(ctx context.Context, filter LedgerFilter) ([]models.ExpenseLedgerEntry, error) {
	st := s.m.state
	st.mu.Lock()
	defer st.mu.Unlock()

	var out []models.ExpenseLedgerEntry
	for _, e := range st.ledger {
		if filter.Year != 0 && e.Year != filter.Year {
			continue
		}
		if filter.Month != 0 && e.Month != filter.Month {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memoryConcepts struct{ m *MemoryStore }

func (s memoryConcepts) ListOrderedByLabel(ctx context.Context) ([]models.Concept, error) {
	st := s.m.state
	st.mu.Lock()
	out := make([]models.Concept, 0, len(st.concepts))
	for _, c := range st.concepts {
		out = append(out, c)
	}
	st.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s memoryConcepts) Upsert(ctx context.Context, concepts []models.Concept) error {
	st := s.m.state
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, c := range concepts {
		st.concepts[c.ID] = c
	}
	return nil
}
