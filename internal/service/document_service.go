package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docparse/internal/canonical"
	"docparse/internal/config"
	"docparse/internal/domain"
	"docparse/internal/export"
	"docparse/internal/pipeline"
	"docparse/internal/port"
)

// ExportOutput is the DTO for a rendered export.
type ExportOutput struct {
	Content     []byte
	ContentType string
	Filename    string
}

// DocumentService defines the document parsing contract.
type DocumentService interface {
	Parse(ctx context.Context, filename string, content []byte) (*domain.ParseRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.ParseRecord, int, error)
	Export(ctx context.Context, id uuid.UUID, format string) (*ExportOutput, error)
}

type documentService struct {
	pipe *pipeline.Pipeline
	repo port.ParseRecordRepository
	cfg  *config.UploadConfig
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(pipe *pipeline.Pipeline, repo port.ParseRecordRepository, cfg *config.UploadConfig) DocumentService {
	return &documentService{pipe: pipe, repo: repo, cfg: cfg}
}

func (s *documentService) Parse(ctx context.Context, filename string, content []byte) (*domain.ParseRecord, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	if int64(len(content)) > s.cfg.MaxFileSizeBytes() {
		return nil, domain.ErrFileTooLarge
	}
	if len(content) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	result := s.pipe.Process(ctx, content, filename)
	rec := buildRecord(filename, result)

	if err := s.repo.Create(ctx, rec); err != nil {
		// The parse itself succeeded; surface the result even if persistence
		// is down, but let the caller know via the log.
		log.Printf("service.DocumentService: persisting record %s: %v", rec.ID, err)
	}
	return rec, nil
}

func (s *documentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *documentService) List(ctx context.Context, offset, limit int) ([]domain.ParseRecord, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *documentService) Export(ctx context.Context, id uuid.UUID, formatName string) (*ExportOutput, error) {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == domain.ParseStatusFailure || len(rec.CanonicalData) == 0 {
		return nil, fmt.Errorf("%w: record %s has no document to export", domain.ErrDocumentNotFound, id)
	}

	var doc canonical.Document
	if err := json.Unmarshal(rec.CanonicalData, &doc); err != nil {
		return nil, fmt.Errorf("decoding stored document %s: %w", id, err)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, &doc, format); err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(rec.SourceFile, filepath.Ext(rec.SourceFile))
	return &ExportOutput{
		Content:     buf.Bytes(),
		ContentType: format.ContentType(),
		Filename:    fmt.Sprintf("%s.%s", base, format.Extension()),
	}, nil
}

// buildRecord maps a pipeline result onto the persisted record shape.
func buildRecord(filename string, result *pipeline.Result) *domain.ParseRecord {
	rec := &domain.ParseRecord{
		ID:               uuid.New(),
		SourceFile:       filename,
		SourceType:       result.SourceType,
		DocumentType:     domain.DocTypeUnknown,
		Status:           result.Status,
		Confidence:       result.Confidence,
		ReviewRequired:   result.ReviewRequired,
		ValidationStatus: domain.ValidationStatusPending,
		CorrectionRounds: result.CorrectionRounds,
		ProcessingTimeMS: result.ProcessingTimeMS,
		ErrorMessage:     result.ErrorMessage,
	}

	if result.Document != nil {
		rec.ID = result.Document.Metadata.DocumentID
		rec.DocumentType = domain.DocumentType(result.Document.Document.Type)
		rec.ValidationStatus = result.Document.Metadata.ValidationStatus
		if data, err := json.Marshal(result.Document); err == nil {
			rec.CanonicalData = data
		} else {
			log.Printf("service.DocumentService: marshaling document for %s: %v", filename, err)
		}
	}
	if len(result.Suggestions) > 0 {
		if data, err := json.Marshal(result.Suggestions); err == nil {
			rec.Suggestions = data
		}
	}
	return rec
}
