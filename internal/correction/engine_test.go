package correction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docparse/internal/canonical"
	"docparse/internal/correction"
	"docparse/internal/domain"
	"docparse/internal/port"
	"docparse/internal/validator"
	"docparse/mocks"
)

// consistentInvoice builds a draft that passes every validation rule.
func consistentInvoice() *canonical.Document {
	rate := 21.0
	doc := canonical.NewDraft("invoice.pdf", domain.SourcePDFNative)
	doc.Document.Number = "INV-300"
	doc.Supplier.Address.Country = "NL"
	doc.LineItems = []canonical.LineItem{
		{Description: "Widget", Quantity: 2, UnitPrice: 100, TaxRate: &rate, LineTotal: 242},
	}
	doc.Totals.Subtotal = 200
	doc.Totals.TotalTax = 42
	doc.Totals.TotalAmount = 242
	return doc
}

// brokenInvoice is consistentInvoice with a misread grand total.
func brokenInvoice() *canonical.Document {
	doc := consistentInvoice()
	doc.Totals.TotalAmount = 300
	return doc
}

func confidenceFor(doc *canonical.Document, score float64) canonical.ConfidenceMap {
	conf := make(canonical.ConfidenceMap)
	for path := range doc.Flatten() {
		conf.Set(path, score, 0)
	}
	return conf
}

func attemptFrom(doc *canonical.Document, score float64) *port.ExtractOutput {
	return &port.ExtractOutput{Document: doc, Confidence: confidenceFor(doc, score)}
}

func newEngine(ext port.Extractor) *correction.Engine {
	v := validator.NewDefaultEngine(validator.DefaultTolerance())
	return correction.NewEngine(ext, v, correction.DefaultConfig())
}

func TestRun_ConsistentDraftConvergesWithoutExtraction(t *testing.T) {
	ext := new(mocks.MockExtractor)
	eng := newEngine(ext)

	draft := consistentInvoice()
	out, err := eng.Run(context.Background(), draft, confidenceFor(draft, 0.9), port.ExtractInput{Text: "doc"})

	require.NoError(t, err)
	assert.Equal(t, correction.StateConverged, out.State)
	assert.Zero(t, out.Rounds)
	assert.True(t, out.Report.Consistent)
	ext.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestRun_CorrectionResolvesDiscrepancy(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.MatchedBy(func(in port.ExtractInput) bool {
		// Retry requests carry the findings and the fields to focus on.
		return len(in.Discrepancies) > 0 && len(in.FocusFields) > 0
	})).Return(attemptFrom(consistentInvoice(), 0.9), nil).Once()

	eng := newEngine(ext)
	draft := brokenInvoice()

	out, err := eng.Run(context.Background(), draft, confidenceFor(draft, 0.6), port.ExtractInput{Text: "doc"})

	require.NoError(t, err)
	assert.Equal(t, correction.StateConverged, out.State)
	assert.False(t, out.Exhausted())
	assert.Equal(t, 1, out.Rounds)
	assert.InDelta(t, 242.0, draft.Totals.TotalAmount, 1e-9)

	var applied *correction.Decision
	for i := range out.Decisions {
		if out.Decisions[i].FieldPath == "totals.total_amount" && out.Decisions[i].Accepted {
			applied = &out.Decisions[i]
		}
	}
	require.NotNil(t, applied)
	assert.Equal(t, 1, applied.Round)
	ext.AssertExpectations(t)
}

func TestRun_ExhaustsBudgetOnFailingExtractor(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("provider down")).Twice()

	eng := newEngine(ext)
	draft := brokenInvoice()

	out, err := eng.Run(context.Background(), draft, confidenceFor(draft, 0.6), port.ExtractInput{Text: "doc"})

	require.NoError(t, err)
	assert.Equal(t, correction.StateExhausted, out.State)
	assert.True(t, out.Exhausted())
	assert.Equal(t, 2, out.Rounds)
	assert.Equal(t, 2, out.FailedRounds)
	// The draft is untouched by failed attempts.
	assert.InDelta(t, 300.0, draft.Totals.TotalAmount, 1e-9)
	ext.AssertExpectations(t)
}

func TestRun_RejectsLowerConfidenceNonResolvingValue(t *testing.T) {
	worse := brokenInvoice()
	worse.Totals.TotalAmount = 999

	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(attemptFrom(worse, 0.2), nil).Twice()

	eng := newEngine(ext)
	draft := brokenInvoice()

	out, err := eng.Run(context.Background(), draft, confidenceFor(draft, 0.6), port.ExtractInput{Text: "doc"})

	require.NoError(t, err)
	assert.Equal(t, correction.StateExhausted, out.State)
	assert.InDelta(t, 300.0, draft.Totals.TotalAmount, 1e-9)
	require.NotEmpty(t, out.Decisions)
	for _, d := range out.Decisions {
		assert.False(t, d.Accepted)
	}
}

func TestRun_RejectsHigherConfidenceValueBreakingCleanField(t *testing.T) {
	// The tax rate is flagged as a warning (unknown jurisdiction), the grand
	// total as an error; the line total itself is clean.
	rate := 10.0
	draft := canonical.NewDraft("invoice.pdf", domain.SourcePDFNative)
	draft.Document.Number = "INV-500"
	draft.Supplier.Address.Country = "JP"
	draft.LineItems = []canonical.LineItem{
		{Description: "Widget", Quantity: 2, UnitPrice: 100, TaxRate: &rate, LineTotal: 220},
	}
	draft.Totals.Subtotal = 200
	draft.Totals.TotalTax = 20
	draft.Totals.TotalAmount = 999

	// The attempt is very confident about a rate that would break the clean
	// line total, and repeats the broken grand total.
	bogusRate := 50.0
	attempt := draft.Clone()
	attempt.LineItems[0].TaxRate = &bogusRate

	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(attemptFrom(attempt, 0.95), nil).Twice()

	eng := newEngine(ext)
	out, err := eng.Run(context.Background(), draft, confidenceFor(draft, 0.5), port.ExtractInput{Text: "doc"})

	require.NoError(t, err)
	assert.Equal(t, correction.StateExhausted, out.State)
	assert.Equal(t, 2, out.Rounds)
	assert.InDelta(t, 10.0, *draft.LineItems[0].TaxRate, 1e-9)
	assert.InDelta(t, 220.0, draft.LineItems[0].LineTotal, 1e-9)

	var rejections int
	for _, d := range out.Decisions {
		if d.FieldPath == "line_items[0].tax_rate" {
			assert.False(t, d.Accepted)
			assert.Equal(t, "higher confidence but introduces a new discrepancy", d.Reason)
			rejections++
		}
	}
	assert.Equal(t, 2, rejections)
}

func TestRun_AgreementBoostsConfidence(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(attemptFrom(brokenInvoice(), 0.6), nil).Twice()

	eng := newEngine(ext)
	draft := brokenInvoice()
	conf := confidenceFor(draft, 0.5)

	out, err := eng.Run(context.Background(), draft, conf, port.ExtractInput{Text: "doc"})

	require.NoError(t, err)
	assert.Equal(t, correction.StateExhausted, out.State)
	// Two rounds of agreement: 0.5 -> 0.6 -> 0.68.
	assert.InDelta(t, 0.68, conf.Score("totals.total_amount"), 1e-9)

	var agree int
	for _, d := range out.Decisions {
		if d.Reason == "attempt agrees with draft" {
			agree++
		}
	}
	assert.Equal(t, 2, agree)
}

func TestRun_LineItemSetReplacement(t *testing.T) {
	draft := canonical.NewDraft("invoice.pdf", domain.SourcePDFNative)
	draft.Document.Number = "INV-400"
	draft.LineItems = []canonical.LineItem{
		{Description: "Bundle", Quantity: 1, UnitPrice: 100, LineTotal: 100},
	}
	draft.Totals.Subtotal = 300
	draft.Totals.TotalAmount = 300

	fixed := draft.Clone()
	fixed.LineItems = []canonical.LineItem{
		{Description: "Part A", Quantity: 1, UnitPrice: 100, LineTotal: 100},
		{Description: "Part B", Quantity: 2, UnitPrice: 100, LineTotal: 200},
	}

	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(attemptFrom(fixed, 0.85), nil).Once()

	eng := newEngine(ext)
	out, err := eng.Run(context.Background(), draft, confidenceFor(draft, 0.6), port.ExtractInput{Text: "doc"})

	require.NoError(t, err)
	assert.Equal(t, correction.StateConverged, out.State)
	require.Len(t, draft.LineItems, 2)
	assert.Equal(t, "Part B", draft.LineItems[1].Description)

	var swap *correction.Decision
	for i := range out.Decisions {
		if out.Decisions[i].FieldPath == "line_items" {
			swap = &out.Decisions[i]
		}
	}
	require.NotNil(t, swap)
	assert.True(t, swap.Accepted)
}

func TestRun_CancelledContext(t *testing.T) {
	ext := new(mocks.MockExtractor)
	eng := newEngine(ext)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	draft := brokenInvoice()
	out, err := eng.Run(ctx, draft, confidenceFor(draft, 0.6), port.ExtractInput{Text: "doc"})

	assert.Nil(t, out)
	assert.ErrorIs(t, err, context.Canceled)
	ext.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestRun_SuggestionsCarryUnresolvedFindings(t *testing.T) {
	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("provider down")).Twice()

	eng := newEngine(ext)
	draft := brokenInvoice()

	out, err := eng.Run(context.Background(), draft, confidenceFor(draft, 0.6), port.ExtractInput{Text: "doc"})

	require.NoError(t, err)
	require.NotEmpty(t, out.Suggestions)
	var unresolved bool
	for _, s := range out.Suggestions {
		if s.FieldPath == "totals.total_amount" && !s.Applied {
			unresolved = true
		}
	}
	assert.True(t, unresolved)
}
