// server/types.go
package server

import (
	"github.com/odoo-mcp/odoo-mcp-server/model"
)

// --- MCP tool types ---
// Every data tool is gated by the access controller before it touches
// the Odoo connection.

// ListModelsInput is the input for the list_models MCP tool.
type ListModelsInput struct{}

// ListModelsOutput is the result of the list_models MCP tool.
type ListModelsOutput struct {
	Models []model.ModelInfo `json:"models"`
	Tier   string            `json:"tier"` // "enhanced" or "basic"
}

// GetPermissionsInput is the input for the get_permissions MCP tool.
type GetPermissionsInput struct {
	Model string `json:"model,omitempty" jsonschema:"Odoo model name (e.g. res.partner); omit to get permissions for every enabled model"`
}

// GetPermissionsOutput is the result of the get_permissions MCP tool.
type GetPermissionsOutput struct {
	Permissions map[string]model.ModelPermissions `json:"permissions"`
}

// SearchRecordsInput is the input for the search_records MCP tool.
type SearchRecordsInput struct {
	Model  string   `json:"model" jsonschema:"Odoo model name (e.g. res.partner)"`
	Domain [][]any  `json:"domain,omitempty" jsonschema:"Odoo domain filter as [field, operator, value] triples"`
	Fields []string `json:"fields,omitempty" jsonschema:"fields to return (default: all)"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of records to return"`
}

// SearchRecordsOutput is the result of the search_records MCP tool.
type SearchRecordsOutput struct {
	Records []map[string]any `json:"records"`
	Count   int              `json:"count"`
}

// ReadRecordsInput is the input for the read_records MCP tool.
type ReadRecordsInput struct {
	Model  string   `json:"model" jsonschema:"Odoo model name"`
	IDs    []int    `json:"ids" jsonschema:"record IDs to read"`
	Fields []string `json:"fields,omitempty" jsonschema:"fields to return (default: all)"`
}

// ReadRecordsOutput is the result of the read_records MCP tool.
type ReadRecordsOutput struct {
	Records []map[string]any `json:"records"`
}

// CreateRecordInput is the input for the create_record MCP tool.
type CreateRecordInput struct {
	Model  string         `json:"model" jsonschema:"Odoo model name"`
	Values map[string]any `json:"values" jsonschema:"field values for the new record"`
}

// CreateRecordOutput is the result of the create_record MCP tool.
type CreateRecordOutput struct {
	ID int `json:"id"`
}

// UpdateRecordInput is the input for the update_record MCP tool.
type UpdateRecordInput struct {
	Model  string         `json:"model" jsonschema:"Odoo model name"`
	IDs    []int          `json:"ids" jsonschema:"record IDs to update"`
	Values map[string]any `json:"values" jsonschema:"field values to write"`
}

// UpdateRecordOutput is the result of the update_record MCP tool.
type UpdateRecordOutput struct {
	Updated int `json:"updated"`
}

// DeleteRecordInput is the input for the delete_record MCP tool.
type DeleteRecordInput struct {
	Model string `json:"model" jsonschema:"Odoo model name"`
	IDs   []int  `json:"ids" jsonschema:"record IDs to delete"`
}

// DeleteRecordOutput is the result of the delete_record MCP tool.
type DeleteRecordOutput struct {
	Deleted int `json:"deleted"`
}
