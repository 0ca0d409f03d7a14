package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/review"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLedger() ([]models.ExpenseLedgerEntry, []models.Concept) {
	entries := []models.ExpenseLedgerEntry{
		{ID: 1, MovementID: 11, Year: 2024, Month: 3, Description: "RECIBO GAS", Amount: decimal.RequireFromString("-42.5"), Category: 7, Reviewed: true},
		{ID: 2, MovementID: 12, Year: 2024, Month: 2, Description: "SUPERMERCADO, CENTRO", Amount: decimal.RequireFromString("-12.3"), Category: 99, Reviewed: true},
	}
	concepts := []models.Concept{{ID: 7, Label: "Hogar"}}
	return entries, concepts
}

func TestWriteLedgerCSV(t *testing.T) {
	entries, concepts := sampleLedger()

	tests := []struct {
		name      string
		delimiter rune
		want      string
	}{
		{
			name: "default comma",
			want: "year,month,movement_id,description,amount,category,category_label\n" +
				"2024,3,11,RECIBO GAS,-42.50,7,Hogar\n" +
				"2024,2,12,\"SUPERMERCADO, CENTRO\",-12.30,99,\n",
		},
		{
			name:      "semicolon",
			delimiter: ';',
			want: "year;month;movement_id;description;amount;category;category_label\n" +
				"2024;3;11;RECIBO GAS;-42.50;7;Hogar\n" +
				"2024;2;12;SUPERMERCADO, CENTRO;-12.30;99;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			g := NewGenerator(logging.NewMockLogger(), tt.delimiter)
			require.NoError(t, g.WriteLedgerCSV(&buf, entries, concepts))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteLedgerCSVFile(t *testing.T) {
	entries, concepts := sampleLedger()
	logger := logging.NewMockLogger()
	g := NewGenerator(logger, ',')
	path := filepath.Join(t.TempDir(), "out", "ledger.csv")

	require.NoError(t, g.WriteLedgerCSVFile(path, entries, concepts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
	assert.True(t, logger.HasEntry("INFO", "Exported expense ledger"))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(nil, 0)
	in := review.CommitResult{Committed: 1, Results: []review.DecisionResult{{MovementID: 3, Status: review.StatusCommitted}}}

	require.NoError(t, g.WriteJSON(&buf, in))

	var out review.CommitResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 1, out.Committed)
	assert.Equal(t, review.StatusCommitted, out.Results[0].Status)
	assert.Contains(t, buf.String(), "\n  \"committed\": 1")
}

func TestReadDecisionsCSV(t *testing.T) {
	seven := 7

	tests := []struct {
		name    string
		input   string
		want    []review.Decision
		wantErr string
	}{
		{
			name:  "reviewed and pending rows",
			input: "movement_id,category,version\n4,7,2\n5,,0\n",
			want: []review.Decision{
				{MovementID: 4, Category: &seven, MarkedReviewed: true, Version: 2},
				{MovementID: 5},
			},
		},
		{
			name:  "version column optional",
			input: "movement_id,category\n4, 7\n",
			want:  []review.Decision{{MovementID: 4, Category: &seven, MarkedReviewed: true}},
		},
		{
			name:    "missing movement id",
			input:   "movement_id,category\n,7\n",
			wantErr: "no movement_id",
		},
		{
			name:    "bad category",
			input:   "movement_id,category\n4,hogar\n",
			wantErr: "invalid category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewGenerator(nil, ',').ReadDecisionsCSV(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
