package port

import (
	"context"

	"github.com/google/uuid"

	"docparse/internal/domain"
)

// ParseRecordRepository persists parse results.
type ParseRecordRepository interface {
	Create(ctx context.Context, rec *domain.ParseRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error)
	List(ctx context.Context, limit, offset int) ([]domain.ParseRecord, int, error)
}
