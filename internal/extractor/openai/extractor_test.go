package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docparse/internal/config"
	"docparse/internal/extractor"
	"docparse/internal/extractor/openai"
	"docparse/internal/port"
)

const modelJSON = `{
  "data": {
    "document": {"type": "invoice", "number": "INV-900", "issue_date": "2026-01-15", "currency": "EUR"},
    "supplier": {"name": "Acme BV", "address": {"country": "NL"}},
    "customer": {"name": "Customer GmbH"},
    "line_items": [
      {"description": "Widget", "quantity": 2, "unit_price": 100, "tax_rate": 21, "line_total": 242}
    ],
    "totals": {"subtotal": 200, "total_tax": 42, "total_amount": 242}
  },
  "confidence_scores": {
    "document": {"number": 0.97},
    "totals": {"total_amount": 0.91}
  }
}`

func providerConfig() *config.ExtractorProviderConfig {
	return &config.ExtractorProviderConfig{
		Provider:     "openai",
		APIKey:       "sk-test",
		DefaultModel: "gpt-4o",
		TimeoutSecs:  5,
	}
}

func chatCompletion(content, finishReason string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]any{"content": content},
				"finish_reason": finishReason,
			},
		},
	}
}

func TestExtract_Success(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(chatCompletion(modelJSON, "stop"))
	}))
	defer srv.Close()

	e := openai.NewExtractorWithEndpoint(providerConfig(), srv.URL)
	out, err := e.Extract(context.Background(), port.ExtractInput{
		Text:           "INVOICE INV-900 ...",
		StructuredData: map[string]any{"rows": []any{"Widget"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", out.ModelUsed)
	assert.Equal(t, "INV-900", out.Document.Document.Number)
	assert.InDelta(t, 0.97, out.Confidence.Score("document.number"), 1e-9)

	assert.Equal(t, "gpt-4o", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Contains(t, captured.Messages[0].Content, "DOCUMENT TEXT:")
	assert.Contains(t, captured.Messages[0].Content, "INVOICE INV-900")
	assert.Contains(t, captured.Messages[0].Content, "STRUCTURED CONTENT")
}

func TestExtract_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := openai.NewExtractorWithEndpoint(providerConfig(), srv.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{Text: "doc"})

	var rl *extractor.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "openai", rl.Provider)
	assert.Equal(t, float64(17), rl.RetryAfter.Seconds())
}

func TestExtract_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	e := openai.NewExtractorWithEndpoint(providerConfig(), srv.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{Text: "doc"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestExtract_TruncatedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatCompletion("{", "length"))
	}))
	defer srv.Close()

	e := openai.NewExtractorWithEndpoint(providerConfig(), srv.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{Text: "doc"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "finish_reason: length")
}

func TestExtract_NonJSONModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatCompletion("sorry, I cannot do that", "stop"))
	}))
	defer srv.Close()

	e := openai.NewExtractorWithEndpoint(providerConfig(), srv.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{Text: "doc"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing LLM JSON output")
}

func TestExtract_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	e := openai.NewExtractorWithEndpoint(providerConfig(), srv.URL)
	_, err := e.Extract(context.Background(), port.ExtractInput{Text: "doc"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
