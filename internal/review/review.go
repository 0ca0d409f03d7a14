// Package review moves pending movements to reviewed and promotes confirmed
// expenses into the expense ledger.
package review

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"
	"fjacquet/bank-movements/internal/store"

	"golang.org/x/sync/errgroup"
)

// Decision is a reviewer's verdict on one movement. Version is the version
// the reviewer saw; zero skips the staleness check but a movement that is
// already reviewed is still refused.
type Decision struct {
	MovementID     uint `json:"movementId"`
	Category       *int `json:"category"`
	MarkedReviewed bool `json:"reviewed"`
	Version        int  `json:"version"`
}

// DecisionStatus is what happened to one decision.
type DecisionStatus string

const (
	StatusCommitted DecisionStatus = "committed"
	StatusSkipped   DecisionStatus = "skipped"
	StatusRejected  DecisionStatus = "rejected"
	StatusStale     DecisionStatus = "stale"
	StatusFailed    DecisionStatus = "failed"
)

// DecisionResult reports one decision.
type DecisionResult struct {
	MovementID    uint           `json:"movementId"`
	Status        DecisionStatus `json:"status"`
	Promoted      bool           `json:"promoted"`
	LedgerEntryID uint           `json:"ledgerEntryId,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// CommitResult reports a commit and carries the refreshed expense candidates.
type CommitResult struct {
	Committed int               `json:"committed"`
	Promoted  int               `json:"promoted"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
	Results   []DecisionResult  `json:"results"`
	Pending   []models.Movement `json:"pending"`
}

// Engine is the review/reconciliation engine.
type Engine struct {
	store       store.Store
	logger      logging.Logger
	maxParallel int
}

// NewEngine creates an Engine committing at most maxParallel movements at
// once.
func NewEngine(s store.Store, logger logging.Logger, maxParallel int) *Engine {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Engine{store: s, logger: logger.WithField(logging.FieldComponent, "review"), maxParallel: maxParallel}
}

// ListExpenseCandidates returns pending movements with a negative amount,
// ordered by value date.
func (e *Engine) ListExpenseCandidates(ctx context.Context) ([]models.Movement, error) {
	return e.store.Movements().QueryUnreviewed(ctx, store.Filter{ExpensesOnly: true})
}

// ListPending returns every pending movement, ordered by value date.
func (e *Engine) ListPending(ctx context.Context) ([]models.Movement, error) {
	return e.store.Movements().QueryUnreviewed(ctx, store.Filter{})
}

// Concepts returns the category catalog ordered by label.
func (e *Engine) Concepts(ctx context.Context) ([]models.Concept, error) {
	return e.store.Concepts().ListOrderedByLabel(ctx)
}

// Commit applies decisions. Only decisions marked reviewed with a category
// are eligible; the rest are reported as skipped. Each eligible movement is
// updated, and promoted to the ledger when it is an expense, in one store
// transaction, so a failure leaves that movement pending. Failures are
// isolated per movement. Results follow the order of decisions.
func (e *Engine) Commit(ctx context.Context, decisions []Decision) (*CommitResult, error) {
	concepts, err := e.store.Concepts().ListOrderedByLabel(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading concept catalog: %w", err)
	}
	known := make(map[int]bool, len(concepts))
	for _, c := range concepts {
		known[c.ID] = true
	}

	result := &CommitResult{Results: make([]DecisionResult, len(decisions))}
	seen := make(map[uint]bool, len(decisions))

	var g errgroup.Group
	g.SetLimit(e.maxParallel)
	for i, d := range decisions {
		res := DecisionResult{MovementID: d.MovementID}

		switch {
		case !d.MarkedReviewed || d.Category == nil:
			res.Status = StatusSkipped
		case seen[d.MovementID]:
			res.Status = StatusRejected
			res.Error = "duplicate decision for the same movement"
		case !known[*d.Category]:
			res.Status = StatusRejected
			res.Error = fmt.Sprintf("unknown category %d", *d.Category)
		default:
			seen[d.MovementID] = true
			g.Go(func() error {
				result.Results[i] = e.commitOne(ctx, d)
				return nil
			})
			continue
		}
		result.Results[i] = res
	}
	_ = g.Wait()

	for _, r := range result.Results {
		switch r.Status {
		case StatusCommitted:
			result.Committed++
			if r.Promoted {
				result.Promoted++
			}
		case StatusSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	e.logger.Info("Review committed",
		logging.F(logging.FieldCount, len(decisions)),
		logging.F("committed", result.Committed),
		logging.F("promoted", result.Promoted),
		logging.F("failed", result.Failed))

	pending, err := e.ListExpenseCandidates(ctx)
	if err != nil {
		return result, fmt.Errorf("refreshing pending movements: %w", err)
	}
	result.Pending = pending
	return result, nil
}

func (e *Engine) commitOne(ctx context.Context, d Decision) DecisionResult {
	res := DecisionResult{MovementID: d.MovementID}
	category := *d.Category
	log := e.logger.WithFields(
		logging.F(logging.FieldMovementID, d.MovementID),
		logging.F(logging.FieldCategory, category))

	err := e.store.Transact(ctx, func(tx store.Store) error {
		m, err := tx.Movements().GetByID(ctx, d.MovementID)
		if err != nil {
			return err
		}
		if m.Reviewed {
			return fmt.Errorf("movement %d already reviewed: %w", m.ID, parsererror.ErrStaleReview)
		}
		if d.Version != 0 && d.Version != m.Version {
			return fmt.Errorf("movement %d is at version %d, decision was made on %d: %w",
				m.ID, m.Version, d.Version, parsererror.ErrStaleReview)
		}

		if err := tx.Movements().UpdateByID(ctx, m.ID, store.Patch{
			Reviewed:        true,
			Category:        category,
			ExpectedVersion: m.Version,
		}); err != nil {
			return err
		}

		if !m.IsExpense() {
			return nil
		}
		entry, err := models.NewLedgerEntry(m, category)
		if err != nil {
			return err
		}
		if err := tx.Ledger().Insert(ctx, &entry); err != nil {
			return err
		}
		res.Promoted = true
		res.LedgerEntryID = entry.ID
		return nil
	})

	switch {
	case err == nil:
		res.Status = StatusCommitted
		log.Debug("Movement reviewed", logging.F("promoted", res.Promoted))
		return res
	case errors.Is(err, parsererror.ErrStaleReview):
		res.Status = StatusStale
	case errors.Is(err, parsererror.ErrNotFound):
		res.Status = StatusRejected
	default:
		res.Status = StatusFailed
	}
	res.Promoted = false
	res.LedgerEntryID = 0
	res.Error = err.Error()
	log.WithError(err).Warn("Review decision not applied")
	return res
}
