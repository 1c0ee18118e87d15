package adapter_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docparse/internal/adapter"
	"docparse/internal/domain"
)

func TestSpreadsheetAdapter_CSV(t *testing.T) {
	a := adapter.NewSpreadsheetAdapter()
	raw := []byte("Description,Qty,Price\nWidget,2,100.00\n")

	content, err := a.Adapt(context.Background(), raw, "items.csv")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceSpreadsheet, content.SourceType)
	assert.Equal(t, "Description\tQty\tPrice\nWidget\t2\t100.00", content.Text)

	rows, ok := content.StructuredData["rows"].([][]string)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Widget", "2", "100.00"}, rows[1])
}

func TestSpreadsheetAdapter_CSVWithBOM(t *testing.T) {
	a := adapter.NewSpreadsheetAdapter()
	raw := append([]byte("\xef\xbb\xbf"), []byte("a,b\n1,2\n")...)

	content, err := a.Adapt(context.Background(), raw, "items.csv")
	require.NoError(t, err)

	rows := content.StructuredData["rows"].([][]string)
	assert.Equal(t, []string{"a", "b"}, rows[0])
}

func TestSpreadsheetAdapter_TSV(t *testing.T) {
	a := adapter.NewSpreadsheetAdapter()
	raw := []byte("Description\tQty\nWidget\t2\n")

	content, err := a.Adapt(context.Background(), raw, "items.tsv")
	require.NoError(t, err)

	rows := content.StructuredData["rows"].([][]string)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Widget", "2"}, rows[1])
}

func TestSpreadsheetAdapter_RaggedRows(t *testing.T) {
	a := adapter.NewSpreadsheetAdapter()
	raw := []byte("a,b,c\nonly-one\n")

	content, err := a.Adapt(context.Background(), raw, "ragged.csv")
	require.NoError(t, err)
	rows := content.StructuredData["rows"].([][]string)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1], 1)
}

func TestSpreadsheetAdapter_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Description", "Qty"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Widget", 2}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	a := adapter.NewSpreadsheetAdapter()
	content, err := a.Adapt(context.Background(), buf.Bytes(), "book.xlsx")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceSpreadsheet, content.SourceType)
	assert.Contains(t, content.Text, "SHEET: Sheet1")
	assert.Contains(t, content.Text, "Widget\t2")

	sheets, ok := content.StructuredData["sheets"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, sheets, "Sheet1")
}
