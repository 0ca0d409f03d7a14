package spreadsheet

import (
	"bytes"
	"regexp"
	"strconv"

	"fjacquet/bank-movements/internal/models"

	"github.com/extrame/xls"
)

var (
	machineNumber   = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][-+]?\d+)?$`)
	groupedThousand = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)
)

func readXLS(data []byte) (*Sheet, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, wrapRead(FormatXLS, err)
	}

	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, wrapRead(FormatXLS, ErrNoSheet)
	}

	sheet := &Sheet{Name: ws.Name}
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			sheet.Rows = append(sheet.Rows, nil)
			continue
		}

		cells := make([]models.Cell, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = xlsCell(row.Col(c))
		}
		sheet.Rows = append(sheet.Rows, cells)
	}
	return sheet, nil
}

// xlsCell types a BIFF value. The reader only exposes rendered strings, so a
// value is numeric when it is written the way the reader renders floats.
// "1.234" stays text: BIFF numbers never carry three-digit groups, Spanish
// text amounts do.
func xlsCell(value string) models.Cell {
	if machineNumber.MatchString(value) && !groupedThousand.MatchString(value) {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return models.NumberCell(f)
		}
	}
	return models.TextCell(value)
}
