package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"fjacquet/bank-movements/internal/categorizer"
	"fjacquet/bank-movements/internal/factory"
	"fjacquet/bank-movements/internal/localeparse"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"
	"fjacquet/bank-movements/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type memUpload struct {
	name        string
	contentType string
	data        []byte
	declared    int64
	openErr     error
	panicOnOpen bool
	released    atomic.Int32
}

func (m *memUpload) Name() string        { return m.name }
func (m *memUpload) ContentType() string { return m.contentType }

func (m *memUpload) Size() int64 {
	if m.declared != 0 {
		return m.declared
	}
	return int64(len(m.data))
}

func (m *memUpload) Open() (io.ReadCloser, error) {
	if m.panicOnOpen {
		panic("corrupt temp file")
	}
	if m.openErr != nil {
		return nil, m.openErr
	}
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m *memUpload) Release() error {
	m.released.Add(1)
	return nil
}

func workbook(t *testing.T, rows ...[]interface{}) []byte {
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

func santanderWorkbook(t *testing.T) []byte {
	return workbook(t,
		[]interface{}{"Extracto Santander"},
		[]interface{}{"Fecha Operación", "Fecha Valor", "Concepto", "Importe", "Divisa", "Saldo"},
		[]interface{}{"14/03/2024", "15/03/2024", "Recibo gas natural", -42.5, "EUR", 957.5},
		[]interface{}{"16/03/2024", "16/03/2024", "Nómina", 1500, "EUR", 2457.5},
	)
}

func caixabankWorkbook(t *testing.T, header ...interface{}) []byte {
	if len(header) == 0 {
		header = []interface{}{"F. Operación", "F. Valor", "Ingreso (+)", "Gasto (-)", "Divisa", "Concepto común", "Concepto propio"}
	}
	return workbook(t,
		header,
		[]interface{}{"01/02/2024", "01/02/2024", "", "12,00", "EUR", "TARJETA", "CAFE CENTRAL"},
	)
}

func xlsx(name string, data []byte) *memUpload {
	return &memUpload{name: name, contentType: MIMETypeXLSX, data: data}
}

func newPipeline(t *testing.T, s store.MovementStore, opts Options) (*Pipeline, *logging.MockLogger) {
	t.Helper()
	logger := logging.NewMockLogger()
	registry, err := factory.NewRegistry(logger, localeparse.PolicyStrict)
	require.NoError(t, err)
	return NewPipeline(opts, registry, categorizer.NewCategorizer(nil, logger), s, logger), logger
}

func TestProcess_PartialBatch(t *testing.T) {
	s := store.NewMemoryStore()
	p, _ := newPipeline(t, s.Movements(), Options{})

	uploads := []*memUpload{
		xlsx("2024_03_Movimientos_Santander.xlsx", santanderWorkbook(t)),
		xlsx("statement.xlsx", santanderWorkbook(t)),
		xlsx("2024_02_Movimientos_Caixabank.xlsx", caixabankWorkbook(t)),
	}

	result := p.Process(context.Background(), []Upload{uploads[0], uploads[1], uploads[2]})

	assert.Equal(t, http.StatusMultiStatus, result.HTTPStatus())
	assert.Equal(t, StatusPartial, result.Status())
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 3, result.ProcessedFiles)
	assert.Equal(t, Summary{TotalSuccess: 2, TotalErrors: 1}, result.Summary)

	require.Len(t, result.Results, 3)
	assert.Equal(t, "2024_03_Movimientos_Santander.xlsx", result.Results[0].Filename)
	assert.True(t, result.Results[0].Success)
	assert.Equal(t, 2, result.Results[0].RecordsProcessed)
	assert.Equal(t, models.BankSantander, result.Results[0].Bank)

	assert.Equal(t, "statement.xlsx", result.Results[1].Filename)
	assert.Equal(t, parsererror.CodeUnknownBankType, result.Results[1].ErrorCode)
	assert.Equal(t, OutcomeBankUnrecognized, result.Results[1].Outcome)
	assert.Contains(t, result.Results[1].Details, "Caixabank")

	assert.True(t, result.Results[2].Success)
	assert.Equal(t, 1, result.Results[2].RecordsProcessed)

	for _, u := range uploads {
		assert.Equal(t, int32(1), u.released.Load(), u.name)
	}

	pending, err := s.Movements().QueryUnreviewed(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.Len(t, pending, 3)

	byDescription := map[string]models.Movement{}
	for _, m := range pending {
		byDescription[m.Description] = m
	}
	gas := byDescription["Recibo gas natural"]
	assert.True(t, gas.Amount.Equal(decimal.RequireFromString("-42.5")))
	assert.Equal(t, models.CategoryDirectDebit, gas.SuggestedCategory)
	assert.Equal(t, "2024_03_Movimientos_Santander.xlsx", gas.SourceFile)
	assert.Nil(t, gas.Category)

	cafe := byDescription["TARJETA - CAFE CENTRAL"]
	assert.True(t, cafe.Amount.Equal(decimal.RequireFromString("-12")))
	assert.Equal(t, models.CategoryCard, cafe.SuggestedCategory)
}

func TestProcess_AllCommitted(t *testing.T) {
	p, _ := newPipeline(t, store.NewMemoryStore().Movements(), Options{})

	result := p.Process(context.Background(), []Upload{xlsx("santander.xlsx", santanderWorkbook(t))})
	assert.Equal(t, http.StatusOK, result.HTTPStatus())
	assert.True(t, result.Success)
	assert.Equal(t, OutcomeCommitted, result.Results[0].Outcome)
}

func TestProcess_NoFiles(t *testing.T) {
	p, logger := newPipeline(t, store.NewMemoryStore().Movements(), Options{})

	result := p.Process(context.Background(), nil)
	assert.Equal(t, parsererror.CodeNoFiles, result.ErrorCode)
	assert.Equal(t, http.StatusBadRequest, result.HTTPStatus())
	assert.Empty(t, result.Results)
	assert.True(t, logger.HasEntry("WARN", "Rejected empty batch"))
}

func TestProcess_FileLevelFailures(t *testing.T) {
	tests := []struct {
		name    string
		upload  func(t *testing.T) *memUpload
		opts    Options
		outcome Outcome
		code    parsererror.Code
	}{
		{
			name: "wrong content type",
			upload: func(t *testing.T) *memUpload {
				u := xlsx("santander.xlsx", santanderWorkbook(t))
				u.contentType = "text/csv"
				return u
			},
			outcome: OutcomeTypeRejected,
			code:    parsererror.CodeInvalidFileType,
		},
		{
			name: "declared size over limit",
			upload: func(t *testing.T) *memUpload {
				u := xlsx("santander.xlsx", santanderWorkbook(t))
				u.declared = 6 * 1024 * 1024
				return u
			},
			outcome: OutcomeSizeRejected,
			code:    parsererror.CodeFileTooLarge,
		},
		{
			name: "actual size over limit",
			upload: func(t *testing.T) *memUpload {
				u := &memUpload{name: "santander.xlsx", contentType: MIMETypeOctetStream, data: bytes.Repeat([]byte("x"), 2048), declared: 10}
				return u
			},
			opts:    Options{MaxFileSize: 1024},
			outcome: OutcomeSizeRejected,
			code:    parsererror.CodeFileTooLarge,
		},
		{
			name: "not a workbook",
			upload: func(t *testing.T) *memUpload {
				return &memUpload{name: "santander.xlsx", contentType: MIMETypeXLSX, data: []byte("hello")}
			},
			outcome: OutcomeParseFailed,
			code:    parsererror.CodeProcessingError,
		},
		{
			name: "open fails",
			upload: func(t *testing.T) *memUpload {
				u := xlsx("santander.xlsx", nil)
				u.openErr = errors.New("temp file vanished")
				return u
			},
			outcome: OutcomeParseFailed,
			code:    parsererror.CodeProcessingError,
		},
		{
			name: "header only",
			upload: func(t *testing.T) *memUpload {
				return xlsx("santander.xlsx", workbook(t,
					[]interface{}{"Fecha Operación", "Fecha Valor", "Concepto", "Importe", "Divisa"}))
			},
			outcome: OutcomeParseEmpty,
			code:    parsererror.CodeEmptyFile,
		},
		{
			name: "all rows unparseable",
			upload: func(t *testing.T) *memUpload {
				return xlsx("santander.xlsx", workbook(t,
					[]interface{}{"Fecha Operación", "Fecha Valor", "Concepto", "Importe", "Divisa"},
					[]interface{}{"14/03/2024", "15/03/2024", "Compra", "doce", "EUR"}))
			},
			outcome: OutcomeTransformEmpty,
			code:    parsererror.CodeTransformError,
		},
		{
			name: "panic while processing",
			upload: func(t *testing.T) *memUpload {
				u := xlsx("santander.xlsx", santanderWorkbook(t))
				u.panicOnOpen = true
				return u
			},
			outcome: OutcomeCrashed,
			code:    parsererror.CodeProcessingError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStore()
			p, _ := newPipeline(t, s.Movements(), tt.opts)
			u := tt.upload(t)

			result := p.Process(context.Background(), []Upload{u})
			require.Len(t, result.Results, 1)
			r := result.Results[0]
			assert.False(t, r.Success)
			assert.Equal(t, tt.outcome, r.Outcome)
			assert.Equal(t, tt.code, r.ErrorCode)
			assert.NotEmpty(t, r.Details)
			assert.Equal(t, int32(1), u.released.Load(), "upload released exactly once")
			assert.Equal(t, http.StatusBadRequest, result.HTTPStatus())

			pending, err := s.Movements().QueryUnreviewed(context.Background(), store.Filter{})
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}

func TestProcess_MissingColumns(t *testing.T) {
	tests := []struct {
		name string
		data func(t *testing.T) []byte
		want []string
	}{
		{
			name: "currency column absent",
			data: func(t *testing.T) []byte {
				return caixabankWorkbook(t, "F. Operación", "F. Valor", "Ingreso (+)", "Gasto (-)", "Concepto común")
			},
			want: []string{"Divisa"},
		},
		{
			name: "operation date absent below a title row",
			data: func(t *testing.T) []byte {
				return workbook(t,
					[]interface{}{"Movimientos de la cuenta"},
					[]interface{}{"F. Valor", "Ingreso (+)", "Gasto (-)", "Divisa", "Concepto común"},
					[]interface{}{"01/02/2024", "", "12,00", "EUR", "TARJETA"},
				)
			},
			want: []string{"F. Operación"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newPipeline(t, store.NewMemoryStore().Movements(), Options{})

			result := p.Process(context.Background(), []Upload{xlsx("Caixabank.xlsx", tt.data(t))})
			r := result.Results[0]
			assert.Equal(t, OutcomeSchemaInvalid, r.Outcome)
			assert.Equal(t, parsererror.CodeMissingColumns, r.ErrorCode)
			assert.Equal(t, tt.want, r.MissingColumns)
			assert.Zero(t, r.RecordsProcessed)
		})
	}
}

func TestProcess_StoreFailureIsolated(t *testing.T) {
	s := store.NewMemoryStore()
	s.InsertManyError = errors.New("connection reset")
	p, _ := newPipeline(t, s.Movements(), Options{})

	result := p.Process(context.Background(), []Upload{
		xlsx("santander.xlsx", santanderWorkbook(t)),
		xlsx("caixabank.xlsx", caixabankWorkbook(t)),
	})
	require.Len(t, result.Results, 2)
	for _, r := range result.Results {
		assert.Equal(t, OutcomeStoreFailed, r.Outcome)
		assert.Equal(t, parsererror.CodeProcessingError, r.ErrorCode)
		assert.Contains(t, r.Details, "connection reset")
	}
	assert.Equal(t, StatusFailure, result.Status())
}

func TestProcess_ReportsDroppedRows(t *testing.T) {
	p, _ := newPipeline(t, store.NewMemoryStore().Movements(), Options{})
	data := workbook(t,
		[]interface{}{"F. Operación", "F. Valor", "Ingreso (+)", "Gasto (-)", "Divisa"},
		[]interface{}{"01/02/2024", "01/02/2024", "", "12,00", "EUR"},
		[]interface{}{"", "", "", "3,00", "EUR"},
		[]interface{}{"01/02/2024", "01/02/2024", "", "three", "EUR"},
	)

	result := p.Process(context.Background(), []Upload{xlsx("caixabank.xlsx", data)})
	r := result.Results[0]
	require.True(t, r.Success, r.Details)
	assert.Equal(t, 1, r.RecordsProcessed)
	assert.Equal(t, 1, r.SkippedRows)
	require.Len(t, r.RowErrors, 1)
	assert.Equal(t, 3, r.RowErrors[0].Row)
}

func TestProcess_PreservesOrderUnderParallelism(t *testing.T) {
	p, _ := newPipeline(t, store.NewMemoryStore().Movements(), Options{MaxParallelFiles: 8})

	var uploads []Upload
	for i := 0; i < 12; i++ {
		name := "santander-" + string(rune('a'+i)) + ".xlsx"
		if i%3 == 1 {
			name = "unknown-" + string(rune('a'+i)) + ".xlsx"
		}
		uploads = append(uploads, xlsx(name, santanderWorkbook(t)))
	}

	result := p.Process(context.Background(), uploads)
	require.Len(t, result.Results, len(uploads))
	for i, r := range result.Results {
		assert.Equal(t, uploads[i].Name(), r.Filename)
	}
	assert.Equal(t, Summary{TotalSuccess: 8, TotalErrors: 4}, result.Summary)
}

func TestFileUpload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Movimientos_Santander.xlsx")
	require.NoError(t, os.WriteFile(path, santanderWorkbook(t), 0o644))

	u, err := NewFileUpload(path)
	require.NoError(t, err)
	assert.Equal(t, "Movimientos_Santander.xlsx", u.Name())
	assert.Equal(t, MIMETypeXLSX, u.ContentType())
	assert.Positive(t, u.Size())

	p, _ := newPipeline(t, store.NewMemoryStore().Movements(), Options{})
	result := p.Process(context.Background(), []Upload{u})
	assert.True(t, result.Success)

	_, err = NewFileUpload(filepath.Join(dir, "missing.xls"))
	assert.Error(t, err)
	_, err = NewFileUpload(dir)
	assert.Error(t, err)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, MIMETypeXLS, ContentTypeFor("a.XLS"))
	assert.Equal(t, MIMETypeXLSX, ContentTypeFor("a.xlsx"))
	assert.Equal(t, MIMETypeOctetStream, ContentTypeFor("noext"))
}

func TestCheckType_IgnoresParameters(t *testing.T) {
	p, _ := newPipeline(t, store.NewMemoryStore().Movements(), Options{})
	u := &memUpload{name: "x.xls", contentType: "Application/Vnd.MS-Excel; charset=binary"}
	assert.NoError(t, p.checkType(u))
}
