// Package report renders ingestion and review results for the CLI: JSON for
// batch and commit results, CSV for the expense ledger, and CSV review
// decisions read back in.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"fjacquet/bank-movements/internal/fileutils"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/review"

	"github.com/gocarina/gocsv"
)

// LedgerRow is one CSV line of the expense ledger export.
type LedgerRow struct {
	Year          int    `csv:"year"`
	Month         int    `csv:"month"`
	MovementID    uint   `csv:"movement_id"`
	Description   string `csv:"description"`
	Amount        string `csv:"amount"`
	Category      int    `csv:"category"`
	CategoryLabel string `csv:"category_label"`
}

// DecisionRow is one CSV line of a review decisions file. An empty category
// leaves the movement pending.
type DecisionRow struct {
	MovementID uint   `csv:"movement_id"`
	Category   string `csv:"category"`
	Version    int    `csv:"version"`
}

// Generator writes reports with a fixed CSV delimiter.
type Generator struct {
	logger    logging.Logger
	delimiter rune
}

// NewGenerator creates a Generator. A zero delimiter means comma.
func NewGenerator(logger logging.Logger, delimiter rune) *Generator {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if delimiter == 0 {
		delimiter = ','
	}
	return &Generator{logger: logger.WithField(logging.FieldComponent, "report"), delimiter: delimiter}
}

// WriteJSON writes v as indented JSON.
func (g *Generator) WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return nil
}

// LedgerRows flattens entries for export, resolving category labels from
// concepts. Amounts keep two decimals.
func LedgerRows(entries []models.ExpenseLedgerEntry, concepts []models.Concept) []LedgerRow {
	labels := make(map[int]string, len(concepts))
	for _, c := range concepts {
		labels[c.ID] = c.Label
	}
	rows := make([]LedgerRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, LedgerRow{
			Year:          e.Year,
			Month:         e.Month,
			MovementID:    e.MovementID,
			Description:   e.Description,
			Amount:        e.Amount.StringFixed(2),
			Category:      e.Category,
			CategoryLabel: labels[e.Category],
		})
	}
	return rows
}

// WriteLedgerCSV writes the ledger as CSV with a header line.
func (g *Generator) WriteLedgerCSV(w io.Writer, entries []models.ExpenseLedgerEntry, concepts []models.Concept) error {
	rows := LedgerRows(entries, concepts)

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = g.delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	g.logger.Debug("Wrote ledger CSV", logging.F(logging.FieldCount, len(rows)))
	return nil
}

// WriteLedgerCSVFile writes the ledger to path, creating its directory.
func (g *Generator) WriteLedgerCSVFile(path string, entries []models.ExpenseLedgerEntry, concepts []models.Concept) (err error) {
	if err := fileutils.EnsureDirectoryExists(filepath.Dir(path)); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := g.WriteLedgerCSV(file, entries, concepts); err != nil {
		return err
	}
	g.logger.Info("Exported expense ledger",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(entries)))
	return nil
}

// ReadDecisionsCSV reads review decisions. Rows with a category are marked
// reviewed; rows without one are carried as skipped decisions.
func (g *Generator) ReadDecisionsCSV(r io.Reader) ([]review.Decision, error) {
	reader := csv.NewReader(r)
	reader.Comma = g.delimiter
	reader.TrimLeadingSpace = true

	var rows []DecisionRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing decisions CSV: %w", err)
	}

	decisions := make([]review.Decision, 0, len(rows))
	for i, row := range rows {
		if row.MovementID == 0 {
			return nil, fmt.Errorf("decision on line %d has no movement_id", i+2)
		}
		d := review.Decision{MovementID: row.MovementID, Version: row.Version}
		if row.Category != "" {
			category, err := strconv.Atoi(row.Category)
			if err != nil {
				return nil, fmt.Errorf("decision on line %d: invalid category %q", i+2, row.Category)
			}
			d.Category = &category
			d.MarkedReviewed = true
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}
