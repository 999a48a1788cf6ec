// test/mock/executor.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Executor is a mock implementation of access.Executor
type Executor struct {
	mock.Mock
}

func (m *Executor) ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error) {
	results := m.Called(ctx, model, method, args, kwargs)
	return results.Get(0), results.Error(1)
}

func (m *Executor) FieldsGet(ctx context.Context, model string) (map[string]any, error) {
	results := m.Called(ctx, model)
	if fields, ok := results.Get(0).(map[string]any); ok {
		return fields, results.Error(1)
	}
	return nil, results.Error(1)
}
