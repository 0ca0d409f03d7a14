package spreadsheet

import (
	"bytes"
	"strconv"

	"fjacquet/bank-movements/internal/models"

	"github.com/xuri/excelize/v2"
)

func readXLSX(data []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, wrapRead(FormatXLSX, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, wrapRead(FormatXLSX, ErrNoSheet)
	}
	name := sheets[0]

	// Raw values keep dates as serial numbers and amounts unformatted.
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, wrapRead(FormatXLSX, err)
	}

	sheet := &Sheet{Name: name, Rows: make([][]models.Cell, len(rows))}
	for r, row := range rows {
		cells := make([]models.Cell, len(row))
		for c, value := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, wrapRead(FormatXLSX, err)
			}
			cellType, err := f.GetCellType(name, ref)
			if err != nil {
				return nil, wrapRead(FormatXLSX, err)
			}
			cells[c] = xlsxCell(cellType, value)
		}
		sheet.Rows[r] = cells
	}
	return sheet, nil
}

func xlsxCell(cellType excelize.CellType, value string) models.Cell {
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool, excelize.CellTypeError:
		return models.TextCell(value)
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return models.NumberCell(f)
	}
	return models.TextCell(value)
}
