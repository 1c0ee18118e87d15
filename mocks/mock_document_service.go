package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docparse/internal/domain"
	"docparse/internal/service"
)

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Parse(ctx context.Context, filename string, content []byte) (*domain.ParseRecord, error) {
	args := m.Called(ctx, filename, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseRecord), args.Error(1)
}

func (m *MockDocumentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseRecord), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, offset, limit int) ([]domain.ParseRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ParseRecord), args.Int(1), args.Error(2)
}

func (m *MockDocumentService) Export(ctx context.Context, id uuid.UUID, format string) (*service.ExportOutput, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportOutput), args.Error(1)
}
