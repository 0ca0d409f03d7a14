// Package spreadsheet reads the first sheet of a legacy .xls or an .xlsx
// workbook into typed cells and turns it into header-keyed raw rows.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fjacquet/bank-movements/internal/models"

	"golang.org/x/text/unicode/norm"
)

// Format is the container format of a workbook.
type Format string

const (
	FormatXLS  Format = "xls"
	FormatXLSX Format = "xlsx"
)

var (
	xlsxMagic = []byte("PK\x03\x04")
	xlsMagic  = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	// ErrUnknownFormat is returned when the bytes are neither OOXML nor BIFF.
	ErrUnknownFormat = errors.New("not an Excel workbook")
	// ErrNoSheet is returned for a workbook without any worksheet.
	ErrNoSheet = errors.New("workbook has no worksheet")
)

// Sheet holds the cells of one worksheet, row-major, ragged.
type Sheet struct {
	Name string
	Rows [][]models.Cell
}

// DetectFormat sniffs the workbook container, falling back to the filename
// extension when the content is inconclusive.
func DetectFormat(data []byte, filename string) (Format, error) {
	switch {
	case bytes.HasPrefix(data, xlsxMagic):
		return FormatXLSX, nil
	case bytes.HasPrefix(data, xlsMagic):
		return FormatXLS, nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	}
	return "", ErrUnknownFormat
}

// ReadFirstSheet decodes the first worksheet of an xls or xlsx workbook.
func ReadFirstSheet(data []byte, filename string) (*Sheet, error) {
	format, err := DetectFormat(data, filename)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return readXLSX(data)
	default:
		return readXLS(data)
	}
}

// Records converts the sheet into raw rows for bank. The header row is the
// earliest row naming the most of columns; when no row names any of them, the
// first non-empty row is used. Every header column is present in every
// record, so blank cells read as empty rather than missing. Fully blank rows
// are skipped.
func (s *Sheet) Records(bank models.Bank, columns []string) []models.RawRow {
	headerIdx := s.findHeader(columns)
	if headerIdx < 0 {
		return nil
	}

	header := make([]string, len(s.Rows[headerIdx]))
	for i, c := range s.Rows[headerIdx] {
		header[i] = NormalizeHeader(c.String())
	}

	var records []models.RawRow
	for _, row := range s.Rows[headerIdx+1:] {
		if isBlank(row) {
			continue
		}

		cells := make(map[string]models.Cell, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if _, dup := cells[name]; dup {
				continue
			}
			if i < len(row) {
				cells[name] = row[i]
			} else {
				cells[name] = models.Cell{}
			}
		}

		records = append(records, models.RawRow{Bank: bank, Index: len(records) + 1, Cells: cells})
	}
	return records
}

func (s *Sheet) findHeader(columns []string) int {
	wanted := make(map[string]bool, len(columns))
	for _, c := range columns {
		wanted[NormalizeHeader(c)] = true
	}

	first, best, bestScore := -1, -1, 0
	for i, row := range s.Rows {
		if isBlank(row) {
			continue
		}
		if first < 0 {
			first = i
		}

		score := 0
		seen := make(map[string]bool, len(row))
		for _, c := range row {
			name := NormalizeHeader(c.String())
			if wanted[name] && !seen[name] {
				seen[name] = true
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		return first
	}
	return best
}

// NormalizeHeader trims a column title and puts it in Unicode NFC form so
// "F. Operación" matches whether the export composed the accent or not.
func NormalizeHeader(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func isBlank(row []models.Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

func wrapRead(format Format, err error) error {
	return fmt.Errorf("reading %s workbook: %w", format, err)
}
