// Package pipeline coordinates one document's journey: format adaptation,
// initial extraction, the correction loop, and confidence aggregation. The
// pipeline never panics outward and never returns a Go error to its caller;
// every failure mode collapses into a Result with the failure status.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"docparse/internal/canonical"
	"docparse/internal/confidence"
	"docparse/internal/correction"
	"docparse/internal/domain"
	"docparse/internal/port"
	"docparse/internal/validator"
)

// Config bounds the pipeline's own work; the correction engine carries its
// own budget.
type Config struct {
	ExtractTimeout time.Duration // bound on the initial extraction call
}

// DefaultConfig returns the deployment defaults.
func DefaultConfig() Config {
	return Config{ExtractTimeout: 2 * time.Minute}
}

// Result is the pipeline's terminal report for one document.
type Result struct {
	Status           domain.ParseStatus
	Confidence       domain.ConfidenceLevel
	ReviewRequired   bool
	Document         *canonical.Document
	Suggestions      []correction.Suggestion
	Report           *validator.Report
	CorrectionRounds int
	SourceType       domain.SourceType
	ModelUsed        string
	Warnings         []string
	ProcessingTimeMS int64
	ErrorMessage     string
}

// Pipeline wires the stages together. Stateless between calls; safe for
// concurrent use.
type Pipeline struct {
	adapter   port.FormatAdapter
	extractor port.Extractor
	corrector *correction.Engine
	aggOpts   confidence.Options
	cfg       Config
}

// New creates a pipeline. The adapter is expected to resolve the concrete
// format itself (the adapter registry does).
func New(adapter port.FormatAdapter, extractor port.Extractor, corrector *correction.Engine, aggOpts confidence.Options, cfg Config) *Pipeline {
	return &Pipeline{
		adapter:   adapter,
		extractor: extractor,
		corrector: corrector,
		aggOpts:   aggOpts,
		cfg:       cfg,
	}
}

// Process runs one document through every stage. It always returns a Result;
// adapter failures, extraction failures, cancellation and panics all map to
// the failure status with a message, never to a crash.
func (p *Pipeline) Process(ctx context.Context, raw []byte, filename string) (result *Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("pipeline: recovered panic processing %s: %v", filename, r)
			result = p.failure(start, fmt.Sprintf("internal error: %v", r))
		}
		if result != nil {
			result.ProcessingTimeMS = time.Since(start).Milliseconds()
		}
	}()

	content, err := p.adapter.Adapt(ctx, raw, filename)
	if err != nil {
		log.Printf("pipeline: adapter failed for %s: %v", filename, err)
		return p.failure(start, "content adaptation failed: "+err.Error())
	}
	if !content.HasContent() {
		return p.failure(start, domain.ErrEmptyDocument.Error())
	}

	input := port.ExtractInput{
		Text:           content.Text,
		StructuredData: content.StructuredData,
		SourceFile:     filename,
		SourceType:     content.SourceType,
		DocumentType:   domain.DocTypeUnknown,
	}

	attempt, err := p.extractInitial(ctx, input)
	if err != nil {
		log.Printf("pipeline: initial extraction failed for %s: %v", filename, err)
		return p.failure(start, "extraction failed: "+err.Error())
	}
	if attempt.Document == nil {
		return p.failure(start, "extraction returned no document")
	}

	draft := attempt.Document
	draft.SchemaVersion = canonical.SchemaVersion
	draft.Metadata.DocumentID = uuid.New()
	draft.Metadata.SourceFile = filename
	draft.Metadata.SourceType = content.SourceType
	draft.Metadata.ProcessedAt = time.Now().UTC()
	draft.Metadata.OCRConfidence = content.OCRConfidence

	conf := attempt.Confidence
	if conf == nil {
		conf = make(canonical.ConfidenceMap)
	}

	outcome, err := p.corrector.Run(ctx, draft, conf, input)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return p.failure(start, "processing aborted: "+err.Error())
		}
		return p.failure(start, "correction failed: "+err.Error())
	}

	judgment := confidence.Aggregate(outcome.Confidence, outcome.Report, outcome.Exhausted(), p.aggOpts)
	outcome.Draft.Metadata.ValidationStatus = validationStatus(outcome.Report)

	return &Result{
		Status:           judgment.Status,
		Confidence:       judgment.Level,
		ReviewRequired:   judgment.ReviewRequired,
		Document:         outcome.Draft,
		Suggestions:      outcome.Suggestions,
		Report:           outcome.Report,
		CorrectionRounds: outcome.Rounds,
		SourceType:       content.SourceType,
		ModelUsed:        attempt.ModelUsed,
		Warnings:         content.Warnings,
	}
}

func (p *Pipeline) extractInitial(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	if p.cfg.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.ExtractTimeout)
		defer cancel()
	}
	return p.extractor.Extract(ctx, input)
}

func (p *Pipeline) failure(start time.Time, msg string) *Result {
	return &Result{
		Status:         domain.ParseStatusFailure,
		Confidence:     domain.ConfidenceLow,
		ReviewRequired: true,
		ErrorMessage:   msg,
	}
}

func validationStatus(report *validator.Report) domain.ValidationStatus {
	if report.Consistent {
		if len(report.Discrepancies) > 0 {
			return domain.ValidationStatusWarning
		}
		return domain.ValidationStatusValid
	}
	return domain.ValidationStatusInvalid
}
