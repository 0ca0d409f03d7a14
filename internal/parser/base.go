package parser

import (
	"fmt"

	"fjacquet/bank-movements/internal/localeparse"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"
)

// RowMapper converts one raw row. Returning (nil, nil) discards the row
// without reporting it.
type RowMapper func(row models.RawRow) (*models.Movement, error)

// BaseParser carries what every bank adapter shares: a logger and the
// locale parse policy. Adapters embed it.
type BaseParser struct {
	logger logging.Logger
	policy localeparse.Policy
}

// NewBaseParser creates a BaseParser. A nil logger discards output and an
// empty policy means strict.
func NewBaseParser(logger logging.Logger, policy localeparse.Policy) BaseParser {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if policy == "" {
		policy = localeparse.PolicyStrict
	}
	return BaseParser{logger: logger, policy: policy}
}

// GetLogger returns the adapter's logger.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}

// Policy returns the locale parse policy in force.
func (b *BaseParser) Policy() localeparse.Policy {
	return b.policy
}

// MapRows applies mapRow to every row. A row whose mapper errors or panics
// is dropped, logged and reported; the remaining rows are still mapped.
func (b *BaseParser) MapRows(bank models.Bank, rows []models.RawRow, mapRow RowMapper) ([]models.Movement, []parsererror.RowError) {
	movements := make([]models.Movement, 0, len(rows))
	var rowErrors []parsererror.RowError

	for _, row := range rows {
		m, err := b.safeMap(row, mapRow)
		if err != nil {
			b.logger.Warn("Dropping row that could not be mapped",
				logging.F(logging.FieldBank, string(bank)),
				logging.F(logging.FieldRow, row.Index),
				logging.F(logging.FieldError, err.Error()))
			rowErrors = append(rowErrors, parsererror.NewRowError(row.Index, err))
			continue
		}
		if m == nil {
			b.logger.Debug("Discarding row without dates",
				logging.F(logging.FieldBank, string(bank)),
				logging.F(logging.FieldRow, row.Index))
			continue
		}
		movements = append(movements, *m)
	}

	return movements, rowErrors
}

func (b *BaseParser) safeMap(row models.RawRow, mapRow RowMapper) (m *models.Movement, err error) {
	defer func() {
		if r := recover(); r != nil {
			m = nil
			err = fmt.Errorf("panic while mapping row: %v", r)
		}
	}()
	return mapRow(row)
}
