package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"fjacquet/bank-movements/internal/config"
	"fjacquet/bank-movements/internal/container"
	"fjacquet/bank-movements/internal/ingest"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/report"
	"fjacquet/bank-movements/internal/review"
	"fjacquet/bank-movements/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func saveWorkbook(t *testing.T, path string, rows ...[]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", ref, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func newContainer(t *testing.T, dsn, conceptsFile string) *container.Container {
	t.Helper()
	cfg := &config.Config{
		Log:   config.LogConfig{Level: "error", Format: "text"},
		Store: config.StoreConfig{Driver: config.DriverSQLite, DSN: dsn},
		Ingest: config.IngestConfig{
			MaxFileSize:      config.DefaultMaxFileSize,
			AllowedMIMETypes: []string{ingest.MIMETypeXLS, ingest.MIMETypeXLSX, ingest.MIMETypeOctetStream},
			MaxParallelFiles: 4,
			ParsePolicy:      "strict",
		},
		Review: config.ReviewConfig{MaxParallelCommits: 2},
	}
	cfg.Concepts.File = conceptsFile

	c, err := container.NewContainerWithLogger(cfg, logging.NewMockLogger())
	require.NoError(t, err)
	return c
}

func uploads(t *testing.T, paths ...string) []ingest.Upload {
	t.Helper()
	out := make([]ingest.Upload, 0, len(paths))
	for _, p := range paths {
		u, err := ingest.NewFileUpload(p)
		require.NoError(t, err)
		out = append(out, u)
	}
	return out
}

// TestStatementToLedger drives both banks through ingestion, review and
// export against a sqlite file, then reopens the file to check persistence.
func TestStatementToLedger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "db", "movements.db")

	conceptsFile := filepath.Join(dir, "concepts.yaml")
	require.NoError(t, os.WriteFile(conceptsFile, []byte("concepts:\n  - id: 7\n    label: Hogar\n  - id: 3\n    label: Restauración\n"), 0o600))

	santander := filepath.Join(dir, "2024_03_Movimientos_Santander.xlsx")
	saveWorkbook(t, santander,
		[]interface{}{"Extracto de cuenta"},
		[]interface{}{"Fecha Operación", "Fecha Valor", "Concepto", "Importe", "Divisa", "Saldo"},
		[]interface{}{"14/03/2024", "15/03/2024", "Recibo gas natural", "-42,50", "EUR", "957,50"},
		[]interface{}{"16/03/2024", "16/03/2024", "Nómina", "1.500,00", "EUR", "2.457,50"},
	)
	caixabank := filepath.Join(dir, "2024_02_Movimientos_Caixabank.xlsx")
	saveWorkbook(t, caixabank,
		[]interface{}{"F. Operación", "F. Valor", "Ingreso (+)", "Gasto (-)", "Divisa", "Concepto común", "Concepto propio"},
		[]interface{}{"01/02/2024", "02/02/2024", "", "12,00", "EUR", "TARJETA", "CAFE CENTRAL"},
	)

	c := newContainer(t, dsn, conceptsFile)

	result := c.GetPipeline().Process(ctx, uploads(t, santander, caixabank))
	require.Equal(t, ingest.StatusSuccess, result.Status(), "%+v", result.Results)
	assert.Equal(t, 2, result.Results[0].RecordsProcessed)
	assert.Equal(t, 1, result.Results[1].RecordsProcessed)

	engine := c.GetReviewEngine()
	candidates, err := engine.ListExpenseCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// Both banks normalize into the same canonical shape.
	for _, m := range candidates {
		assert.True(t, m.Amount.IsNegative())
		assert.Equal(t, models.DefaultCurrency, m.Currency)
		require.NotNil(t, m.ValueDate)
		assert.Equal(t, time.UTC, m.ValueDate.Location())
		assert.False(t, m.Reviewed)
		assert.Nil(t, m.Category)
	}
	// Ordered by value date: the February card payment comes first.
	assert.Equal(t, models.BankCaixabank, candidates[0].Bank)
	assert.Equal(t, "TARJETA - CAFE CENTRAL", candidates[0].Description)
	assert.True(t, candidates[0].Amount.Equal(decimal.RequireFromString("-12")))
	assert.Equal(t, models.BankSantander, candidates[1].Bank)
	assert.True(t, candidates[1].Amount.Equal(decimal.RequireFromString("-42.50")))

	hogar, restauracion := 7, 3
	commit, err := engine.Commit(ctx, []review.Decision{
		{MovementID: candidates[1].ID, Category: &hogar, MarkedReviewed: true, Version: candidates[1].Version},
		{MovementID: candidates[0].ID, Category: &restauracion, MarkedReviewed: false},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, commit.Committed)
	assert.Equal(t, 1, commit.Promoted)
	assert.Equal(t, 1, commit.Skipped)
	require.Len(t, commit.Pending, 1)
	assert.Equal(t, candidates[0].ID, commit.Pending[0].ID)

	var csvOut bytes.Buffer
	entries, err := c.GetStore().Ledger().List(ctx, store.LedgerFilter{Year: 2024, Month: 3})
	require.NoError(t, err)
	concepts, err := engine.Concepts(ctx)
	require.NoError(t, err)
	require.NoError(t, report.NewGenerator(c.GetLogger(), ';').WriteLedgerCSV(&csvOut, entries, concepts))
	assert.Equal(t,
		"year;month;movement_id;description;amount;category;category_label\n"+
			"2024;3;"+strconv.FormatUint(uint64(candidates[1].ID), 10)+";Recibo gas natural;-42.50;7;Hogar\n",
		csvOut.String())

	require.NoError(t, c.Close())

	reopened := newContainer(t, dsn, "")
	defer reopened.Close()

	pending, err := reopened.GetReviewEngine().ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	ledger, err := reopened.GetStore().Ledger().List(ctx, store.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, candidates[1].ID, ledger[0].MovementID)

	// A second commit of the same movement is refused and the ledger is unchanged.
	again, err := reopened.GetReviewEngine().Commit(ctx, []review.Decision{
		{MovementID: candidates[1].ID, Category: &hogar, MarkedReviewed: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Committed)
	assert.NotEqual(t, review.StatusCommitted, again.Results[0].Status)
	ledger, err = reopened.GetStore().Ledger().List(ctx, store.LedgerFilter{})
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

