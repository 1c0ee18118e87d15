package adapter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"docparse/internal/domain"
	"docparse/internal/port"
)

// SpreadsheetAdapter handles xlsx and delimited text files. The row grid is
// kept as structured data alongside a plain-text rendering so the extraction
// capability can use either.
type SpreadsheetAdapter struct{}

// NewSpreadsheetAdapter creates a spreadsheet adapter.
func NewSpreadsheetAdapter() *SpreadsheetAdapter {
	return &SpreadsheetAdapter{}
}

func (a *SpreadsheetAdapter) Adapt(ctx context.Context, raw []byte, filename string) (*port.RawContent, error) {
	if bytes.HasPrefix(raw, magicZIP) {
		return a.adaptXLSX(raw)
	}
	return a.adaptDelimited(raw, filename)
}

func (a *SpreadsheetAdapter) adaptXLSX(raw []byte) (*port.RawContent, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := make(map[string]any)
	var text strings.Builder
	var warnings []string

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("sheet %q could not be read", name))
			continue
		}
		if len(rows) == 0 {
			continue
		}
		sheets[name] = rows
		fmt.Fprintf(&text, "SHEET: %s\n", name)
		writeGrid(&text, rows)
		text.WriteString("\n")
	}

	return &port.RawContent{
		Text:           strings.TrimSpace(text.String()),
		StructuredData: map[string]any{"sheets": sheets},
		SourceType:     domain.SourceSpreadsheet,
		Warnings:       warnings,
	}, nil
}

func (a *SpreadsheetAdapter) adaptDelimited(raw []byte, filename string) (*port.RawContent, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	if strings.EqualFold(filepath.Ext(filename), ".tsv") {
		reader.Comma = '\t'
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading delimited file: %w", err)
	}

	var text strings.Builder
	writeGrid(&text, rows)

	return &port.RawContent{
		Text:           strings.TrimSpace(text.String()),
		StructuredData: map[string]any{"rows": rows},
		SourceType:     domain.SourceSpreadsheet,
	}, nil
}

func writeGrid(w *strings.Builder, rows [][]string) {
	for _, row := range rows {
		w.WriteString(strings.Join(row, "\t"))
		w.WriteString("\n")
	}
}
