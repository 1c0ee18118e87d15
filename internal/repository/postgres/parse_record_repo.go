package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docparse/internal/domain"
	"docparse/internal/port"
)

type parseRecordRepo struct {
	db *sqlx.DB
}

// NewParseRecordRepo creates a new PostgreSQL-backed ParseRecordRepository.
func NewParseRecordRepo(db *sqlx.DB) port.ParseRecordRepository {
	return &parseRecordRepo{db: db}
}

func (r *parseRecordRepo) Create(ctx context.Context, rec *domain.ParseRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `INSERT INTO parse_records
		(id, source_file, source_type, document_type, status, confidence,
		 review_required, validation_status, canonical_data, suggestions,
		 correction_rounds, processing_time_ms, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.SourceFile, rec.SourceType, rec.DocumentType, rec.Status,
		rec.Confidence, rec.ReviewRequired, rec.ValidationStatus, rec.CanonicalData,
		rec.Suggestions, rec.CorrectionRounds, rec.ProcessingTimeMS, rec.ErrorMessage,
		rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("parseRecordRepo.Create: %w", err)
	}
	return nil
}

func (r *parseRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error) {
	var rec domain.ParseRecord
	err := r.db.GetContext(ctx, &rec,
		"SELECT * FROM parse_records WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("parseRecordRepo.GetByID: %w", err)
	}
	return &rec, nil
}

func (r *parseRecordRepo) List(ctx context.Context, limit, offset int) ([]domain.ParseRecord, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM parse_records"); err != nil {
		return nil, 0, fmt.Errorf("parseRecordRepo.List count: %w", err)
	}

	var recs []domain.ParseRecord
	err := r.db.SelectContext(ctx, &recs,
		`SELECT * FROM parse_records
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("parseRecordRepo.List: %w", err)
	}
	return recs, total, nil
}
