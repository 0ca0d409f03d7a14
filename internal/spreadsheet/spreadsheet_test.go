package spreadsheet

import (
	"testing"

	"fjacquet/bank-movements/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildXLSX(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", ref, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat([]byte("PK\x03\x04rest"), "whatever.bin")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = DetectFormat([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1, 0}, "x")
	require.NoError(t, err)
	assert.Equal(t, FormatXLS, f)

	f, err = DetectFormat([]byte("??"), "Movimientos_Caixabank.XLS")
	require.NoError(t, err)
	assert.Equal(t, FormatXLS, f)

	_, err = DetectFormat([]byte("hello"), "notes.txt")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReadFirstSheet_XLSXKeepsCellTypes(t *testing.T) {
	data := buildXLSX(t, [][]interface{}{
		{"Fecha Operación", "Concepto", "Importe", "Divisa"},
		{"31/01/2024", "Recibo luz", -42.5, "EUR"},
		{45322, "Nómina", 1500, "EUR"},
	})

	sheet, err := ReadFirstSheet(data, "santander.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, models.CellText, sheet.Rows[1][0].Kind)
	assert.Equal(t, models.CellNumber, sheet.Rows[1][2].Kind)
	assert.Equal(t, -42.5, sheet.Rows[1][2].Number)
	assert.Equal(t, models.CellNumber, sheet.Rows[2][0].Kind)
	assert.Equal(t, float64(45322), sheet.Rows[2][0].Number)
}

func TestReadFirstSheet_Garbage(t *testing.T) {
	_, err := ReadFirstSheet([]byte("PK\x03\x04 not really a zip"), "broken.xlsx")
	assert.Error(t, err)
}

func TestRecords_FindsHeaderBelowPreamble(t *testing.T) {
	sheet := &Sheet{Rows: [][]models.Cell{
		{models.TextCell("Extracto de cuenta")},
		{},
		{models.TextCell("F. Operación"), models.TextCell("F. Valor"), models.TextCell("Divisa")},
		{models.TextCell("01/02/2024"), models.TextCell("02/02/2024")},
		{},
		{models.TextCell("03/02/2024"), models.Cell{}, models.TextCell("EUR")},
	}}

	records := sheet.Records(models.BankCaixabank, caixaColumns)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, models.BankCaixabank, first.Bank)
	assert.Equal(t, 1, first.Index)
	assert.True(t, first.Has("Divisa"), "short rows still carry every header column")
	assert.True(t, first.Get("Divisa").IsEmpty())
	assert.Equal(t, "EUR", records[1].Text("Divisa"))
	assert.Equal(t, 2, records[1].Index)
}

var caixaColumns = []string{"F. Operación", "F. Valor", "Ingreso (+)", "Gasto (-)", "Divisa", "Oficina"}

func TestRecords_HeaderMissingFirstColumn(t *testing.T) {
	sheet := &Sheet{Rows: [][]models.Cell{
		{models.TextCell("Movimientos de la cuenta")},
		{models.TextCell("F. Valor"), models.TextCell("Ingreso (+)"), models.TextCell("Gasto (-)"), models.TextCell("Divisa")},
		{models.TextCell("02/02/2024"), models.Cell{}, models.NumberCell(12.5), models.TextCell("EUR")},
	}}

	records := sheet.Records(models.BankCaixabank, caixaColumns)
	require.Len(t, records, 1)
	assert.True(t, records[0].Has("F. Valor"))
	assert.False(t, records[0].Has("F. Operación"))
	assert.False(t, records[0].Has("Movimientos de la cuenta"))
}

func TestRecords_PrefersRowNamingMostColumns(t *testing.T) {
	sheet := &Sheet{Rows: [][]models.Cell{
		{models.TextCell("Divisa"), models.TextCell("EUR")},
		{models.TextCell("F. Operación"), models.TextCell("F. Valor"), models.TextCell("Divisa")},
		{models.TextCell("01/02/2024"), models.TextCell("02/02/2024"), models.TextCell("EUR")},
	}}

	records := sheet.Records(models.BankCaixabank, caixaColumns)
	require.Len(t, records, 1)
	assert.Equal(t, "01/02/2024", records[0].Text("F. Operación"))
}

func TestRecords_FallsBackToFirstNonEmptyRow(t *testing.T) {
	sheet := &Sheet{Rows: [][]models.Cell{
		{},
		{models.TextCell("Fecha"), models.TextCell("Importe")},
		{models.TextCell("01/01/2024"), models.NumberCell(5)},
	}}

	records := sheet.Records(models.BankSantander, []string{"Fecha Operación"})
	require.Len(t, records, 1)
	assert.True(t, records[0].Has("Importe"))
	assert.False(t, records[0].Has("Fecha Operación"))
}

func TestRecords_EmptySheet(t *testing.T) {
	assert.Empty(t, (&Sheet{}).Records(models.BankSantander, []string{"Concepto"}))

	headerOnly := &Sheet{Rows: [][]models.Cell{{models.TextCell("Concepto")}}}
	assert.Empty(t, headerOnly.Records(models.BankSantander, []string{"Concepto"}))
}

func TestNormalizeHeader_ComposesAccents(t *testing.T) {
	decomposed := "F. Operacio\u0301n"
	assert.Equal(t, "F. Operaci\u00f3n", NormalizeHeader("  "+decomposed+" "))
}

func TestXLSCell(t *testing.T) {
	assert.Equal(t, models.NumberCell(1234.56), xlsCell("1234.56"))
	assert.Equal(t, models.NumberCell(-42), xlsCell("-42"))
	assert.Equal(t, models.CellText, xlsCell("1.234").Kind)
	assert.Equal(t, models.CellText, xlsCell("1.234,56").Kind)
	assert.Equal(t, models.CellText, xlsCell("31/01/2024").Kind)
	assert.True(t, xlsCell("").IsEmpty())
}
