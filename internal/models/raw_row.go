package models

// RawRow is one data row of a statement, keyed by the bank's header names.
// Rows are tagged with their bank and have been checked by the schema
// validator before any adapter reads them, so a missing key simply means the
// cell was blank.
type RawRow struct {
	Bank  Bank
	Index int // 1-based position among data rows
	Cells map[string]Cell
}

// Get returns the cell under column, or an empty cell.
func (r RawRow) Get(column string) Cell {
	return r.Cells[column]
}

// Text returns the trimmed textual form of a column.
func (r RawRow) Text(column string) string {
	return r.Cells[column].String()
}

// Has reports whether the header carried the column at all.
func (r RawRow) Has(column string) bool {
	_, ok := r.Cells[column]
	return ok
}
