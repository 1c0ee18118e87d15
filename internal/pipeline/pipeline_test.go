package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docparse/internal/canonical"
	"docparse/internal/confidence"
	"docparse/internal/correction"
	"docparse/internal/domain"
	"docparse/internal/pipeline"
	"docparse/internal/port"
	"docparse/internal/validator"
	"docparse/mocks"
)

func goodDocument() *canonical.Document {
	rate := 21.0
	doc := canonical.NewDraft("invoice.pdf", domain.SourcePDFNative)
	doc.Document.Number = "INV-500"
	doc.Supplier.Name = "Acme BV"
	doc.Supplier.Address.Country = "NL"
	doc.LineItems = []canonical.LineItem{
		{Description: "Widget", Quantity: 2, UnitPrice: 100, TaxRate: &rate, LineTotal: 242},
	}
	doc.Totals.Subtotal = 200
	doc.Totals.TotalTax = 42
	doc.Totals.TotalAmount = 242
	return doc
}

func goodExtraction() *port.ExtractOutput {
	doc := goodDocument()
	conf := make(canonical.ConfidenceMap)
	for path := range doc.Flatten() {
		conf.Set(path, 0.92, 0)
	}
	return &port.ExtractOutput{Document: doc, Confidence: conf, ModelUsed: "gpt-4o"}
}

func textContent(text string) *port.RawContent {
	return &port.RawContent{Text: text, SourceType: domain.SourcePDFNative}
}

func newPipeline(adapter port.FormatAdapter, ext port.Extractor) *pipeline.Pipeline {
	v := validator.NewDefaultEngine(validator.DefaultTolerance())
	corrector := correction.NewEngine(ext, v, correction.DefaultConfig())
	return pipeline.New(adapter, ext, corrector, confidence.DefaultOptions(), pipeline.DefaultConfig())
}

func TestProcess_HappyPath(t *testing.T) {
	adapter := new(mocks.MockFormatAdapter)
	adapter.On("Adapt", mock.Anything, mock.Anything, "invoice.pdf").Return(textContent("INVOICE ..."), nil)

	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(goodExtraction(), nil).Once()

	p := newPipeline(adapter, ext)
	res := p.Process(context.Background(), []byte("%PDF-1.7"), "invoice.pdf")

	require.NotNil(t, res)
	assert.Equal(t, domain.ParseStatusValid, res.Status)
	assert.Equal(t, domain.ConfidenceHigh, res.Confidence)
	assert.False(t, res.ReviewRequired)
	assert.Empty(t, res.ErrorMessage)
	assert.Zero(t, res.CorrectionRounds)
	assert.Equal(t, "gpt-4o", res.ModelUsed)

	require.NotNil(t, res.Document)
	assert.Equal(t, "invoice.pdf", res.Document.Metadata.SourceFile)
	assert.Equal(t, domain.SourcePDFNative, res.Document.Metadata.SourceType)
	assert.Equal(t, domain.ValidationStatusValid, res.Document.Metadata.ValidationStatus)
	assert.False(t, res.Document.Metadata.ProcessedAt.IsZero())
	adapter.AssertExpectations(t)
	ext.AssertExpectations(t)
}

func TestProcess_AdapterFailure(t *testing.T) {
	adapter := new(mocks.MockFormatAdapter)
	adapter.On("Adapt", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrUnsupportedFileType)

	p := newPipeline(adapter, new(mocks.MockExtractor))
	res := p.Process(context.Background(), []byte("junk"), "file.bin")

	assert.Equal(t, domain.ParseStatusFailure, res.Status)
	assert.Equal(t, domain.ConfidenceLow, res.Confidence)
	assert.True(t, res.ReviewRequired)
	assert.Contains(t, res.ErrorMessage, "content adaptation failed")
	assert.Nil(t, res.Document)
}

func TestProcess_EmptyContent(t *testing.T) {
	adapter := new(mocks.MockFormatAdapter)
	adapter.On("Adapt", mock.Anything, mock.Anything, mock.Anything).
		Return(&port.RawContent{SourceType: domain.SourcePDFNative}, nil)

	p := newPipeline(adapter, new(mocks.MockExtractor))
	res := p.Process(context.Background(), []byte("%PDF-1.7"), "blank.pdf")

	assert.Equal(t, domain.ParseStatusFailure, res.Status)
	assert.Equal(t, domain.ErrEmptyDocument.Error(), res.ErrorMessage)
}

func TestProcess_ExtractionFailure(t *testing.T) {
	adapter := new(mocks.MockFormatAdapter)
	adapter.On("Adapt", mock.Anything, mock.Anything, mock.Anything).Return(textContent("INVOICE"), nil)

	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

	p := newPipeline(adapter, ext)
	res := p.Process(context.Background(), []byte("%PDF-1.7"), "invoice.pdf")

	assert.Equal(t, domain.ParseStatusFailure, res.Status)
	assert.Contains(t, res.ErrorMessage, "extraction failed")
}

func TestProcess_NilDocument(t *testing.T) {
	adapter := new(mocks.MockFormatAdapter)
	adapter.On("Adapt", mock.Anything, mock.Anything, mock.Anything).Return(textContent("INVOICE"), nil)

	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{}, nil)

	p := newPipeline(adapter, ext)
	res := p.Process(context.Background(), []byte("%PDF-1.7"), "invoice.pdf")

	assert.Equal(t, domain.ParseStatusFailure, res.Status)
	assert.Contains(t, res.ErrorMessage, "no document")
}

func TestProcess_PanicRecovers(t *testing.T) {
	adapter := new(mocks.MockFormatAdapter)
	adapter.On("Adapt", mock.Anything, mock.Anything, mock.Anything).Return(textContent("INVOICE"), nil)

	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("extractor bug")
	}).Return(nil, nil)

	p := newPipeline(adapter, ext)
	res := p.Process(context.Background(), []byte("%PDF-1.7"), "invoice.pdf")

	require.NotNil(t, res)
	assert.Equal(t, domain.ParseStatusFailure, res.Status)
	assert.Contains(t, res.ErrorMessage, "internal error")
}

func TestProcess_UncertainWhenExtractorDoubts(t *testing.T) {
	adapter := new(mocks.MockFormatAdapter)
	adapter.On("Adapt", mock.Anything, mock.Anything, mock.Anything).Return(textContent("INVOICE"), nil)

	out := goodExtraction()
	out.Confidence.Set("supplier.name", 0.4, 0)

	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Return(out, nil).Once()

	p := newPipeline(adapter, ext)
	res := p.Process(context.Background(), []byte("%PDF-1.7"), "invoice.pdf")

	assert.Equal(t, domain.ParseStatusUncertain, res.Status)
	assert.Equal(t, domain.ConfidenceMedium, res.Confidence)
	assert.True(t, res.ReviewRequired)
}

func TestProcess_CancelledDuringCorrection(t *testing.T) {
	adapter := new(mocks.MockFormatAdapter)
	adapter.On("Adapt", mock.Anything, mock.Anything, mock.Anything).Return(textContent("INVOICE"), nil)

	broken := goodExtraction()
	broken.Document.Totals.TotalAmount = 999

	ctx, cancel := context.WithCancel(context.Background())
	ext := new(mocks.MockExtractor)
	ext.On("Extract", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		// Cancel after the initial extraction so the correction loop aborts.
		cancel()
	}).Return(broken, nil).Once()

	p := newPipeline(adapter, ext)
	res := p.Process(ctx, []byte("%PDF-1.7"), "invoice.pdf")

	assert.Equal(t, domain.ParseStatusFailure, res.Status)
	assert.Contains(t, res.ErrorMessage, "processing aborted")
}
