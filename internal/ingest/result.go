package ingest

import (
	"net/http"

	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/parsererror"
)

// Outcome is the terminal state of one file.
type Outcome string

const (
	OutcomeTypeRejected     Outcome = "TypeRejected"
	OutcomeSizeRejected     Outcome = "SizeRejected"
	OutcomeBankUnrecognized Outcome = "BankUnrecognized"
	OutcomeParseFailed      Outcome = "ParseFailed"
	OutcomeParseEmpty       Outcome = "ParseEmpty"
	OutcomeSchemaInvalid    Outcome = "SchemaInvalid"
	OutcomeTransformEmpty   Outcome = "TransformEmpty"
	OutcomeStoreFailed      Outcome = "StoreFailed"
	OutcomeCommitted        Outcome = "Committed"
	// OutcomeCrashed marks a file whose processing panicked.
	OutcomeCrashed Outcome = "Crashed"
)

// Status summarizes a batch.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailure Status = "failure"
)

// FileResult reports what happened to one uploaded file.
type FileResult struct {
	Filename         string                 `json:"filename"`
	Success          bool                   `json:"success"`
	Bank             models.Bank            `json:"bank,omitempty"`
	Outcome          Outcome                `json:"outcome"`
	RecordsProcessed int                    `json:"recordsProcessed,omitempty"`
	ErrorCode        parsererror.Code       `json:"errorCode,omitempty"`
	Details          string                 `json:"details,omitempty"`
	MissingColumns   []string               `json:"missingColumns,omitempty"`
	RowErrors        []parsererror.RowError `json:"rowErrors,omitempty"`
	SkippedRows      int                    `json:"skippedRows,omitempty"`
}

// Summary counts files by success.
type Summary struct {
	TotalSuccess int `json:"totalSuccess"`
	TotalErrors  int `json:"totalErrors"`
}

// BatchResult is the response for one upload request. Results follow the
// order of the uploads.
type BatchResult struct {
	BatchID        string           `json:"batchId"`
	Success        bool             `json:"success"`
	ProcessedFiles int              `json:"processedFiles"`
	Results        []FileResult     `json:"results"`
	Summary        Summary          `json:"summary"`
	ErrorCode      parsererror.Code `json:"errorCode,omitempty"`
	Details        string           `json:"details,omitempty"`
}

// Status is success when every file committed, failure when none did.
func (b *BatchResult) Status() Status {
	switch {
	case b.ProcessedFiles == 0 || b.Summary.TotalSuccess == 0:
		return StatusFailure
	case b.Summary.TotalErrors == 0:
		return StatusSuccess
	default:
		return StatusPartial
	}
}

// HTTPStatus maps Status to 200, 207 or 400.
func (b *BatchResult) HTTPStatus() int {
	switch b.Status() {
	case StatusSuccess:
		return http.StatusOK
	case StatusPartial:
		return http.StatusMultiStatus
	default:
		return http.StatusBadRequest
	}
}

func (b *BatchResult) tally() {
	b.Summary = Summary{}
	for _, r := range b.Results {
		if r.Success {
			b.Summary.TotalSuccess++
		} else {
			b.Summary.TotalErrors++
		}
	}
	b.Success = b.ProcessedFiles > 0 && b.Summary.TotalErrors == 0
}
