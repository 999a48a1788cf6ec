// test/mock/records.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Records is a mock implementation of server.Records
type Records struct {
	mock.Mock
}

func (m *Records) SearchRead(ctx context.Context, model string, domain []any, fields []string, kwargs map[string]any) ([]map[string]any, error) {
	results := m.Called(ctx, model, domain, fields, kwargs)
	if records, ok := results.Get(0).([]map[string]any); ok {
		return records, results.Error(1)
	}
	return nil, results.Error(1)
}

func (m *Records) Read(ctx context.Context, model string, ids []int, fields []string) ([]map[string]any, error) {
	results := m.Called(ctx, model, ids, fields)
	if records, ok := results.Get(0).([]map[string]any); ok {
		return records, results.Error(1)
	}
	return nil, results.Error(1)
}

func (m *Records) Create(ctx context.Context, model string, values map[string]any) (int, error) {
	results := m.Called(ctx, model, values)
	return results.Int(0), results.Error(1)
}

func (m *Records) Write(ctx context.Context, model string, ids []int, values map[string]any) error {
	results := m.Called(ctx, model, ids, values)
	return results.Error(0)
}

func (m *Records) Unlink(ctx context.Context, model string, ids []int) error {
	results := m.Called(ctx, model, ids)
	return results.Error(0)
}
