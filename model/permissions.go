// model/permissions.go
package model

// Operations supported by the access controller. "unlink" is Odoo's
// name for record deletion; "delete" is accepted as an alias.
const (
	OperationRead   = "read"
	OperationWrite  = "write"
	OperationCreate = "create"
	OperationUnlink = "unlink"
	OperationDelete = "delete"
)

// ModelInfo identifies an Odoo model exposed through the controller.
type ModelInfo struct {
	Model string `json:"model"`
	Name  string `json:"name"`
}

// ModelPermissions holds the per-operation permissions for one model.
// When Enabled is false the model is not exposed at all and the
// operation flags are meaningless.
type ModelPermissions struct {
	Model     string `json:"model"`
	Enabled   bool   `json:"enabled"`
	CanRead   bool   `json:"can_read"`
	CanWrite  bool   `json:"can_write"`
	CanCreate bool   `json:"can_create"`
	CanUnlink bool   `json:"can_unlink"`
}

// CanPerform reports whether a specific operation is allowed. Unknown
// operations are never allowed.
func (p ModelPermissions) CanPerform(operation string) bool {
	switch operation {
	case OperationRead:
		return p.CanRead
	case OperationWrite:
		return p.CanWrite
	case OperationCreate:
		return p.CanCreate
	case OperationUnlink, OperationDelete:
		return p.CanUnlink
	default:
		return false
	}
}
