// Package correction drives the bounded self-correction loop: validate a
// draft, feed discrepancies back to the extraction capability, and merge each
// attempt under a policy that never regresses a field that was already
// consistent.
package correction

import (
	"context"
	"log"
	"time"

	"docparse/internal/canonical"
	"docparse/internal/port"
	"docparse/internal/validator"
)

// State enumerates the engine's finite states.
type State string

const (
	StateInitial    State = "initial"
	StateValidating State = "validating"
	StateCorrecting State = "correcting"
	StateConverged  State = "converged"
	StateExhausted  State = "exhausted"
)

// Config bounds the loop. Read-only at request time; one Engine may serve
// concurrent requests because all per-request state lives in Run's locals.
type Config struct {
	MaxRounds      int           // correction rounds before giving up
	ExtractTimeout time.Duration // per-call bound on the extraction capability
}

// DefaultConfig returns the deployment defaults: two rounds, two minutes per call.
func DefaultConfig() Config {
	return Config{MaxRounds: 2, ExtractTimeout: 2 * time.Minute}
}

// Decision records one replace-or-keep choice made during a merge. The full
// decision history feeds the final suggestion list even when the document
// converges.
type Decision struct {
	Round     int     `json:"round"`
	FieldPath string  `json:"field_path"`
	OldValue  any     `json:"old_value"`
	NewValue  any     `json:"new_value"`
	OldScore  float64 `json:"old_score"`
	NewScore  float64 `json:"new_score"`
	Accepted  bool    `json:"accepted"`
	Reason    string  `json:"reason"`
}

// Outcome is the engine's termination report.
type Outcome struct {
	State        State
	Draft        *canonical.Document
	Confidence   canonical.ConfidenceMap
	Report       *validator.Report
	Rounds       int
	FailedRounds int
	Decisions    []Decision
	Suggestions  []Suggestion
}

// Exhausted reports whether the engine stopped on budget rather than convergence.
func (o *Outcome) Exhausted() bool {
	return o.State == StateExhausted
}

// Engine is the retry state machine. It owns no draft; each Run call operates
// exclusively on its arguments.
type Engine struct {
	extractor port.Extractor
	validator *validator.Engine
	cfg       Config
}

// NewEngine creates a correction engine.
func NewEngine(extractor port.Extractor, v *validator.Engine, cfg Config) *Engine {
	if cfg.MaxRounds < 0 {
		cfg.MaxRounds = 0
	}
	return &Engine{extractor: extractor, validator: v, cfg: cfg}
}

// Run takes a freshly extracted draft to a terminal state. The draft and
// confidence map are owned by the call and mutated only through the merge.
// Cancellation is honored between rounds only, never mid-merge.
func (e *Engine) Run(ctx context.Context, draft *canonical.Document, conf canonical.ConfidenceMap, input port.ExtractInput) (*Outcome, error) {
	state := StateInitial
	rounds := 0
	failed := 0
	var decisions []Decision

	state = StateValidating
	report := e.validator.Validate(draft)

	for !report.Consistent && rounds < e.cfg.MaxRounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		state = StateCorrecting
		rounds++

		attempt, err := e.extractOnce(ctx, input, report)
		if err != nil {
			// A failed attempt consumes budget; the draft stays as it was.
			log.Printf("correction.Engine: round %d extraction failed: %v", rounds, err)
			failed++
			state = StateValidating
			continue
		}

		merged := e.merge(draft, conf, attempt, report, rounds)
		decisions = append(decisions, merged...)

		state = StateValidating
		report = e.validator.Validate(draft)
	}

	if report.Consistent {
		state = StateConverged
	} else {
		state = StateExhausted
	}

	outcome := &Outcome{
		State:        state,
		Draft:        draft,
		Confidence:   conf,
		Report:       report,
		Rounds:       rounds,
		FailedRounds: failed,
		Decisions:    decisions,
	}
	outcome.Suggestions = buildSuggestions(outcome)
	return outcome, nil
}

// extractOnce performs one timeout-bounded re-extraction with discrepancy context.
func (e *Engine) extractOnce(ctx context.Context, input port.ExtractInput, report *validator.Report) (*port.ExtractOutput, error) {
	callCtx := ctx
	if e.cfg.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.ExtractTimeout)
		defer cancel()
	}

	retry := input
	retry.Discrepancies = discrepancyContext(report)
	retry.FocusFields = report.ErrorFields()
	return e.extractor.Extract(callCtx, retry)
}

func discrepancyContext(report *validator.Report) []port.DiscrepancyContext {
	out := make([]port.DiscrepancyContext, 0, len(report.Discrepancies))
	for _, d := range report.Discrepancies {
		out = append(out, port.DiscrepancyContext{
			FieldPath: d.FieldPath,
			Expected:  d.Expected,
			Actual:    d.Actual,
			Message:   d.Message,
		})
	}
	return out
}
