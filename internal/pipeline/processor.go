// Package pipeline sequences the three stages of a run - normalize, extract,
// dispatch - over a batch of uploaded documents, and owns the status cell the
// presentation layer reads. A batch is all-or-nothing: the first stage
// failure aborts the run and surfaces its message verbatim.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/docupay/invoice-capture/constants"
	"github.com/docupay/invoice-capture/internal/common"
	"github.com/docupay/invoice-capture/internal/llm"
	"github.com/docupay/invoice-capture/internal/ocr"
)

var (
	// ErrEmptyBatch rejects a run before any state transition; the tracker
	// never leaves its previous state and no external call is made.
	ErrEmptyBatch = errors.New("no files selected")

	// ErrRunInProgress rejects a second run while one is active. In-flight
	// runs cannot be cancelled.
	ErrRunInProgress = errors.New("a run is already in progress")
)

// TextExtractor is stage 1: one staged file -> recognized text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// RecordDispatcher is stage 3: validated record JSON -> persistence endpoint.
type RecordDispatcher interface {
	Dispatch(ctx context.Context, record []byte) error
}

// Processor coordinates one run at a time across the three stages.
type Processor struct {
	logger     *slog.Logger
	tracker    *Tracker
	ocr        TextExtractor
	extractor  llm.FieldExtractor
	dispatcher RecordDispatcher
	self       llm.SelfEntity
}

func NewProcessor(
	logger *slog.Logger,
	tracker *Tracker,
	tx TextExtractor,
	fe llm.FieldExtractor,
	rd RecordDispatcher,
	self llm.SelfEntity,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Processor{
		logger:     logger,
		tracker:    tracker,
		ocr:        tx,
		extractor:  fe,
		dispatcher: rd,
		self:       self,
	}
}

// Tracker exposes the status cell for the presentation layer (read-only use).
func (p *Processor) Tracker() *Tracker { return p.tracker }

// Begin reserves the single run slot and returns the new run id. Callers
// that stage inputs after reserving hand the id to Resume, or release the
// slot with Abort when staging fails. Reserving synchronously is what lets
// an HTTP handler answer 409 before accepting an upload; a snapshot check
// followed by a later Run would let two uploads both see an idle cell.
func (p *Processor) Begin() (string, error) {
	runID := uuid.New().String()
	if !p.tracker.tryBegin(runID) {
		return "", ErrRunInProgress
	}
	return runID, nil
}

// Abort releases a slot reserved with Begin without executing the run; the
// status cell reports the error.
func (p *Processor) Abort(runID string, err error) {
	p.logger.Error("pipeline.run.aborted", "run_id", runID, "error", err)
	p.tracker.fail(runID, err)
}

// Run processes one batch: files -> text -> record -> persisted. The whole
// batch is treated as the pages of a single logical document, so exactly one
// record is produced regardless of file count.
func (p *Processor) Run(ctx context.Context, docs []InputDocument) (llm.Record, error) {
	if len(docs) == 0 {
		return llm.Record{}, ErrEmptyBatch
	}
	runID, err := p.Begin()
	if err != nil {
		return llm.Record{}, err
	}
	return p.Resume(ctx, runID, docs)
}

// Resume executes a run whose slot was already reserved with Begin.
func (p *Processor) Resume(ctx context.Context, runID string, docs []InputDocument) (llm.Record, error) {
	if len(docs) == 0 {
		p.Abort(runID, ErrEmptyBatch)
		return llm.Record{}, ErrEmptyBatch
	}
	ctx = common.WithRunID(ctx, runID)
	p.logger.Info("pipeline.run.start", "run_id", runID, "files", len(docs))

	// Stage 1: normalize documents to one text blob.
	p.tracker.phase(runID, constants.PhaseRecognizing)
	text, err := p.normalize(ctx, docs)
	if err != nil {
		p.logger.Error("pipeline.normalize.failed", "run_id", runID, "error", err)
		p.tracker.fail(runID, err)
		return llm.Record{}, err
	}

	// Stage 2: map text to a structured record.
	p.tracker.phase(runID, constants.PhaseExtracting)
	record, raw, err := p.extractor.ExtractFields(ctx, llm.ExtractRequest{
		Text:              text,
		Self:              p.self,
		AllowedCategories: constants.AsStringSlice(),
	})
	if err != nil {
		p.logger.Error("pipeline.extract.failed", "run_id", runID, "error", err)
		p.tracker.fail(runID, err)
		return llm.Record{}, err
	}

	// Stage 3: hand the record off; a rejected record discards the run.
	p.tracker.phase(runID, constants.PhaseSaving)
	if err := p.dispatcher.Dispatch(ctx, raw); err != nil {
		p.logger.Error("pipeline.dispatch.failed", "run_id", runID, "error", err)
		p.tracker.fail(runID, err)
		return llm.Record{}, err
	}

	p.tracker.succeed(runID, raw)
	p.logger.Info("pipeline.run.ok", "run_id", runID, "text_bytes", len(text))
	return record, nil
}

// normalize concatenates per-file OCR output in upload order. Each OCR unit
// (image file or PDF page) arrives newline-terminated from the extractor, so
// ordering is the only concern here. Any failure aborts the batch.
func (p *Processor) normalize(ctx context.Context, docs []InputDocument) (string, error) {
	var b strings.Builder
	for _, doc := range docs {
		res, err := p.ocr.Extract(ctx, doc.Path)
		if err != nil {
			return "", fmt.Errorf("recognize %s: %w", doc.Name, err)
		}
		p.logger.Debug("pipeline.normalize.file",
			"run_id", common.RunIDFromContext(ctx),
			"file", doc.Name,
			"pages", res.Pages,
			"method", res.Method,
			"bytes", len(res.Text),
		)
		b.WriteString(res.Text)
	}
	return b.String(), nil
}
