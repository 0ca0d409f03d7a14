// Package ingest runs uploaded statement files through validation, parsing,
// schema checks, bank adapters and classification, and stores the result.
// Every file gets its own result; one file failing never affects another.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"fjacquet/bank-movements/internal/categorizer"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/parser"
	"fjacquet/bank-movements/internal/parsererror"
	"fjacquet/bank-movements/internal/schema"
	"fjacquet/bank-movements/internal/spreadsheet"
	"fjacquet/bank-movements/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options bounds the pipeline.
type Options struct {
	MaxFileSize      int64
	AllowedMIMETypes []string
	MaxParallelFiles int
}

// DefaultOptions matches the production limits.
func DefaultOptions() Options {
	return Options{
		MaxFileSize:      5 * 1024 * 1024,
		AllowedMIMETypes: []string{MIMETypeXLS, MIMETypeXLSX, MIMETypeOctetStream},
		MaxParallelFiles: 4,
	}
}

// Pipeline is the batch ingestion pipeline.
type Pipeline struct {
	opts        Options
	allowed     map[string]bool
	registry    *parser.Registry
	categorizer *categorizer.Categorizer
	movements   store.MovementStore
	logger      logging.Logger
}

// NewPipeline creates a Pipeline. Zero option fields take their defaults.
func NewPipeline(opts Options, registry *parser.Registry, cat *categorizer.Categorizer, movements store.MovementStore, logger logging.Logger) *Pipeline {
	defaults := DefaultOptions()
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = defaults.MaxFileSize
	}
	if len(opts.AllowedMIMETypes) == 0 {
		opts.AllowedMIMETypes = defaults.AllowedMIMETypes
	}
	if opts.MaxParallelFiles <= 0 {
		opts.MaxParallelFiles = defaults.MaxParallelFiles
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	allowed := make(map[string]bool, len(opts.AllowedMIMETypes))
	for _, t := range opts.AllowedMIMETypes {
		allowed[strings.ToLower(t)] = true
	}

	return &Pipeline{
		opts:        opts,
		allowed:     allowed,
		registry:    registry,
		categorizer: cat,
		movements:   movements,
		logger:      logger.WithField(logging.FieldComponent, "ingest"),
	}
}

// MaxFileSize is the per-file size ceiling in bytes.
func (p *Pipeline) MaxFileSize() int64 {
	return p.opts.MaxFileSize
}

// Process ingests a batch. Files run concurrently up to MaxParallelFiles and
// results keep the order of uploads.
func (p *Pipeline) Process(ctx context.Context, uploads []Upload) *BatchResult {
	batch := &BatchResult{
		BatchID:        uuid.NewString(),
		ProcessedFiles: len(uploads),
		Results:        make([]FileResult, len(uploads)),
	}
	log := p.logger.WithField(logging.FieldBatchID, batch.BatchID)

	if len(uploads) == 0 {
		batch.Results = []FileResult{}
		batch.ErrorCode = parsererror.CodeNoFiles
		batch.Details = "no files were uploaded; select at least one Excel file"
		log.Warn("Rejected empty batch")
		return batch
	}

	start := time.Now()
	var g errgroup.Group
	g.SetLimit(p.opts.MaxParallelFiles)
	for i, u := range uploads {
		g.Go(func() error {
			batch.Results[i] = p.processFile(ctx, u, log)
			return nil
		})
	}
	_ = g.Wait()

	batch.tally()
	log.Info("Batch processed",
		logging.F(logging.FieldCount, batch.ProcessedFiles),
		logging.F("succeeded", batch.Summary.TotalSuccess),
		logging.F("failed", batch.Summary.TotalErrors),
		logging.F(logging.FieldDuration, time.Since(start).String()))
	return batch
}

func (p *Pipeline) processFile(ctx context.Context, u Upload, log logging.Logger) (res FileResult) {
	res = FileResult{Filename: u.Name()}
	log = log.WithField(logging.FieldFile, u.Name())

	defer func() {
		if err := u.Release(); err != nil {
			log.WithError(err).Warn("Failed to release upload")
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			res = fail(res, OutcomeCrashed, fmt.Errorf("unexpected failure: %v", r))
		}
		p.logResult(log, res)
	}()

	if err := p.checkType(u); err != nil {
		return fail(res, OutcomeTypeRejected, err)
	}
	if err := p.checkSize(u.Name(), u.Size()); err != nil {
		return fail(res, OutcomeSizeRejected, err)
	}

	bank, err := parser.DetectBank(u.Name())
	if err != nil {
		return fail(res, OutcomeBankUnrecognized,
			fmt.Errorf("%w: filename must contain \"Santander\" or \"Caixabank\", e.g. 2024_10_Movimientos_Caixabank.xls",
				parsererror.ErrUnknownBank))
	}
	res.Bank = bank

	adapter, err := p.registry.Get(bank)
	if err != nil {
		return fail(res, OutcomeBankUnrecognized, err)
	}
	mapping, err := schema.Lookup(bank)
	if err != nil {
		return fail(res, OutcomeBankUnrecognized, err)
	}

	data, err := p.read(u)
	if err != nil {
		var verr *parsererror.ValidationError
		if errors.As(err, &verr) {
			return fail(res, OutcomeSizeRejected, err)
		}
		return fail(res, OutcomeParseFailed, err)
	}

	sheet, err := spreadsheet.ReadFirstSheet(data, u.Name())
	if err != nil {
		return fail(res, OutcomeParseFailed, &parsererror.ParseError{Field: "workbook", Value: u.Name(), Err: err})
	}

	records := sheet.Records(bank, mapping.Columns())
	if len(records) == 0 {
		return fail(res, OutcomeParseEmpty, &parsererror.ValidationError{
			File:   u.Name(),
			Code:   parsererror.CodeEmptyFile,
			Reason: "the first sheet contains no data rows",
		})
	}

	missing, err := schema.Validate(bank, records[0])
	if err != nil {
		return fail(res, OutcomeBankUnrecognized, err)
	}
	if len(missing) > 0 {
		res.MissingColumns = missing
		return fail(res, OutcomeSchemaInvalid, &parsererror.SchemaError{Bank: bank.Label(), Missing: missing})
	}

	movements, rowErrors := adapter.Transform(records)
	res.RowErrors = rowErrors
	res.SkippedRows = len(records) - len(movements) - len(rowErrors)
	if len(movements) == 0 {
		return fail(res, OutcomeTransformEmpty, &parsererror.TransformError{Bank: bank.Label(), RowErrors: rowErrors})
	}

	for i := range movements {
		movements[i].SourceFile = u.Name()
	}
	p.categorizer.ClassifyAll(movements)

	stored, err := p.movements.InsertMany(ctx, movements)
	if err != nil {
		return fail(res, OutcomeStoreFailed, err)
	}

	res.Success = true
	res.Outcome = OutcomeCommitted
	res.RecordsProcessed = len(stored)
	return res
}

func (p *Pipeline) checkType(u Upload) error {
	contentType := strings.ToLower(strings.TrimSpace(u.ContentType()))
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if p.allowed[contentType] {
		return nil
	}
	return &parsererror.ValidationError{
		File:   u.Name(),
		Code:   parsererror.CodeInvalidFileType,
		Reason: fmt.Sprintf("detected type %q; only Excel files (.xls, .xlsx) are accepted", u.ContentType()),
	}
}

func (p *Pipeline) checkSize(name string, size int64) error {
	if size <= p.opts.MaxFileSize {
		return nil
	}
	return &parsererror.ValidationError{
		File:   name,
		Code:   parsererror.CodeFileTooLarge,
		Reason: fmt.Sprintf("size %.2fMB exceeds the %.2fMB limit", megabytes(size), megabytes(p.opts.MaxFileSize)),
	}
}

// read loads the upload, enforcing the size ceiling on the actual bytes
// rather than the declared size.
func (p *Pipeline) read(u Upload) ([]byte, error) {
	rc, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("cannot open upload: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, p.opts.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read upload: %w", err)
	}
	if err := p.checkSize(u.Name(), int64(len(data))); err != nil {
		return nil, err
	}
	return data, nil
}

func (p *Pipeline) logResult(log logging.Logger, res FileResult) {
	fields := []logging.Field{
		logging.F(logging.FieldBank, string(res.Bank)),
		logging.F(logging.FieldOutcome, string(res.Outcome)),
	}
	if res.Success {
		log.Info("File committed", append(fields, logging.F(logging.FieldCount, res.RecordsProcessed))...)
		return
	}
	log.Warn("File rejected", append(fields,
		logging.F(logging.FieldErrorCode, string(res.ErrorCode)),
		logging.F(logging.FieldError, res.Details))...)
}

func fail(res FileResult, outcome Outcome, err error) FileResult {
	res.Success = false
	res.Outcome = outcome
	res.ErrorCode = parsererror.CodeOf(err)
	res.Details = err.Error()
	return res
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
