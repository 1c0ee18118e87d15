package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docparse/internal/port"
)

// MockFormatAdapter is a mock implementation of port.FormatAdapter.
type MockFormatAdapter struct {
	mock.Mock
}

func (m *MockFormatAdapter) Adapt(ctx context.Context, raw []byte, filename string) (*port.RawContent, error) {
	args := m.Called(ctx, raw, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.RawContent), args.Error(1)
}

// MockTextRecognizer is a mock implementation of port.TextRecognizer.
type MockTextRecognizer struct {
	mock.Mock
}

func (m *MockTextRecognizer) Recognize(ctx context.Context, image []byte) (string, float64, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Get(1).(float64), args.Error(2)
}
