package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// GormStore implements Store on a relational database through gorm.
type GormStore struct {
	db     *gorm.DB
	logger logging.Logger
	inTx   bool
}

// Open connects to driver ("sqlite" or "postgres") and migrates the schema.
// SQLite runs on a single connection; the data directory is created when
// missing.
func Open(driver, dsn string, logger logging.Logger) (*GormStore, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access connection pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&movementRow{}, &ledgerRow{}, &conceptRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	logger.Info("Connected to movement store",
		logging.F(logging.FieldComponent, "store"),
		logging.F("driver", driver))

	return &GormStore{db: db, logger: logger}, nil
}

func ensureSQLiteDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

func (s *GormStore) Movements() MovementStore  { return gormMovements{s} }
func (s *GormStore) Ledger() ExpenseLedgerStore { return gormLedger{s} }
func (s *GormStore) Concepts() ConceptCatalog   { return gormConcepts{s} }

// Transact implements Store with a database transaction.
func (s *GormStore) Transact(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, logger: s.logger, inTx: true})
	})
}

// Close releases the connection pool. It is a no-op on a transactional view.
func (s *GormStore) Close() error {
	if s.inTx {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormMovements struct{ s *GormStore }

func (g gormMovements) InsertMany(ctx context.Context, movements []models.Movement) ([]models.Movement, error) {
	if len(movements) == 0 {
		return nil, nil
	}

	rows := make([]movementRow, len(movements))
	for i, m := range movements {
		rows[i] = toMovementRow(m)
		rows[i].ID = 0
		rows[i].Version = 1
		rows[i].Reviewed = false
		rows[i].Category = nil
	}

	// Create on a slice is a single statement batch; wrap it so batches
	// split by gorm still commit together.
	err := g.s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, 500).Error
	})
	if err != nil {
		return nil, &parsererror.StoreError{Op: "insert movements", Err: err}
	}

	out := make([]models.Movement, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (g gormMovements) QueryUnreviewed(ctx context.Context, filter Filter) ([]models.Movement, error) {
	q := g.s.db.WithContext(ctx).Model(&movementRow{}).Where("reviewed = ?", false)
	if filter.ExpensesOnly {
		q = q.Where("amount < ?", 0)
	}
	if filter.Bank != "" {
		q = q.Where("bank = ?", string(filter.Bank))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []movementRow
	if err := q.Order("value_date IS NULL, value_date ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, &parsererror.StoreError{Op: "query unreviewed", Err: err}
	}

	out := make([]models.Movement, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

func (g gormMovements) GetByID(ctx context.Context, id uint) (models.Movement, error) {
	var row movementRow
	err := g.s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Movement{}, fmt.Errorf("movement %d: %w", id, parsererror.ErrNotFound)
	}
	if err != nil {
		return models.Movement{}, &parsererror.StoreError{Op: "get movement", Err: err}
	}
	return row.toModel(), nil
}

func (g gormMovements) UpdateByID(ctx context.Context, id uint, p Patch) error {
	res := g.s.db.WithContext(ctx).Model(&movementRow{}).
		Where("id = ? AND version = ?", id, p.ExpectedVersion).
		Updates(map[string]interface{}{
			"reviewed": p.Reviewed,
			"category": p.Category,
			"version":  gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return &parsererror.StoreError{Op: "update movement", Err: res.Error}
	}
	if res.RowsAffected == 1 {
		return nil
	}

	if _, err := g.GetByID(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("movement %d: %w", id, parsererror.ErrStaleReview)
}

type gormLedger struct{ s *GormStore }

func (g gormLedger) Insert(ctx context.Context, entry *models.ExpenseLedgerEntry) error {
	row := toLedgerRow(*entry)
	row.ID = 0
	if err := g.s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return &parsererror.StoreError{Op: "insert ledger entry", Err: err}
	}
	*entry = row.toModel()
	return nil
}

func (g gormLedger) List(ctx context.Context, filter LedgerFilter) ([]models.ExpenseLedgerEntry, error) {
	q := g.s.db.WithContext(ctx).Model(&ledgerRow{})
	if filter.Year != 0 {
		q = q.Where("year = ?", filter.Year)
	}
	if filter.Month != 0 {
		q = q.Where("month = ?", filter.Month)
	}

	var rows []ledgerRow
	if err := q.Order("year ASC, month ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, &parsererror.StoreError{Op: "list ledger", Err: err}
	}

	out := make([]models.ExpenseLedgerEntry, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

type gormConcepts struct{ s *GormStore }

func (g gormConcepts) ListOrderedByLabel(ctx context.Context) ([]models.Concept, error) {
	var rows []conceptRow
	if err := g.s.db.WithContext(ctx).Order("label ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, &parsererror.StoreError{Op: "list concepts", Err: err}
	}

	out := make([]models.Concept, len(rows))
	for i, r := range rows {
		out[i] = models.Concept{ID: r.ID, Label: r.Label}
	}
	return out, nil
}

func (g gormConcepts) Upsert(ctx context.Context, concepts []models.Concept) error {
	if len(concepts) == 0 {
		return nil
	}
	rows := make([]conceptRow, len(concepts))
	for i, c := range concepts {
		rows[i] = conceptRow{ID: c.ID, Label: c.Label}
	}

	err := g.s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoUpdates: clause.AssignmentColumns([]string{"label"})}).
		Create(&rows).Error
	if err != nil {
		return &parsererror.StoreError{Op: "upsert concepts", Err: err}
	}
	return nil
}
