// access/executor.go
package access

import "context"

// Executor is the slice of the Odoo connection the access controller
// needs: the generic method invocation and the field introspection
// probe. *odoo.Connection satisfies it; tests substitute a mock.
type Executor interface {
	ExecuteKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error)
	FieldsGet(ctx context.Context, model string) (map[string]any, error)
}
