// access/resolver.go
package access

import (
	"context"

	"go.uber.org/zap"

	logger "github.com/odoo-mcp/odoo-mcp-server/logging"
	"github.com/odoo-mcp/odoo-mcp-server/model"
)

// basicModelLimit bounds the ir.model listing on vanilla installations.
const basicModelLimit = 1000

// resolver is the strategy contract shared by the two access tiers.
// Exactly two implementations exist; SetConnection picks one after
// detecting the server's capabilities.
type resolver interface {
	listEnabledModels(ctx context.Context) ([]model.ModelInfo, error)
	resolvePermissions(ctx context.Context, modelName string) (model.ModelPermissions, error)
}

// mcpResolver resolves permissions from the MCP addon's
// mcp.enabled.model records (the enhanced tier).
type mcpResolver struct {
	conn Executor
}

func (r *mcpResolver) listEnabledModels(ctx context.Context) ([]model.ModelInfo, error) {
	result, err := r.conn.ExecuteKw(ctx, "mcp.enabled.model", "search_read",
		[]any{[]any{[]any{"active", "=", true}}},
		map[string]any{"fields": []string{"model_id"}})
	if err != nil {
		return nil, err
	}

	var models []model.ModelInfo
	for _, record := range asRecords(result) {
		modelID, ok := many2oneID(record["model_id"])
		if !ok {
			continue
		}

		info, err := r.conn.ExecuteKw(ctx, "ir.model", "read",
			[]any{[]any{modelID}},
			map[string]any{"fields": []string{"model", "name"}})
		if err != nil {
			return nil, err
		}
		records := asRecords(info)
		if len(records) == 0 {
			continue
		}
		models = append(models, model.ModelInfo{
			Model: asString(records[0]["model"]),
			Name:  asString(records[0]["name"]),
		})
	}
	return models, nil
}

func (r *mcpResolver) resolvePermissions(ctx context.Context, modelName string) (model.ModelPermissions, error) {
	disabled := model.ModelPermissions{Model: modelName, Enabled: false}

	result, err := r.conn.ExecuteKw(ctx, "ir.model", "search",
		[]any{[]any{[]any{"model", "=", modelName}}},
		map[string]any{"limit": 1})
	if err != nil {
		return disabled, err
	}
	modelIDs := asInts(result)
	if len(modelIDs) == 0 {
		return disabled, nil
	}

	result, err = r.conn.ExecuteKw(ctx, "mcp.enabled.model", "search",
		[]any{[]any{[]any{"model_id", "=", modelIDs[0]}}},
		map[string]any{"limit": 1})
	if err != nil {
		return disabled, err
	}
	enabledIDs := asInts(result)
	if len(enabledIDs) == 0 {
		// Known model, but no enablement record: not exposed.
		return disabled, nil
	}

	result, err = r.conn.ExecuteKw(ctx, "mcp.enabled.model", "read",
		[]any{enabledIDs},
		map[string]any{"fields": []string{"allow_read", "allow_write", "allow_create", "allow_unlink"}})
	if err != nil {
		return disabled, err
	}
	records := asRecords(result)
	if len(records) == 0 {
		return disabled, nil
	}

	record := records[0]
	return model.ModelPermissions{
		Model:     modelName,
		Enabled:   true,
		CanRead:   asBool(record["allow_read"]),
		CanWrite:  asBool(record["allow_write"]),
		CanCreate: asBool(record["allow_create"]),
		CanUnlink: asBool(record["allow_unlink"]),
	}, nil
}

// basicResolver infers access on vanilla installations by probing. It
// has no per-operation signal: a model whose fields are introspectable
// is treated as fully accessible. This is a coarse approximation.
type basicResolver struct {
	conn Executor
}

func (r *basicResolver) listEnabledModels(ctx context.Context) ([]model.ModelInfo, error) {
	result, err := r.conn.ExecuteKw(ctx, "ir.model", "search",
		[]any{[]any{[]any{"transient", "=", false}}},
		map[string]any{"limit": basicModelLimit})
	if err != nil {
		return nil, err
	}

	var models []model.ModelInfo
	for _, modelID := range asInts(result) {
		info, err := r.conn.ExecuteKw(ctx, "ir.model", "read",
			[]any{[]any{modelID}},
			map[string]any{"fields": []string{"model", "name"}})
		if err != nil {
			logger.Debug("Could not access model",
				zap.Int("modelID", modelID), zap.Error(err))
			continue
		}
		records := asRecords(info)
		if len(records) == 0 {
			continue
		}

		modelName := asString(records[0]["model"])
		if isPrivateModel(modelName) {
			continue
		}

		displayName := asString(records[0]["name"])
		if displayName == "" {
			displayName = modelName
		}
		models = append(models, model.ModelInfo{Model: modelName, Name: displayName})
	}
	return models, nil
}

func (r *basicResolver) resolvePermissions(ctx context.Context, modelName string) (model.ModelPermissions, error) {
	// The introspection probe is the only signal available: success
	// means the model is reachable and gets full access, failure means
	// it is not exposed. Probe errors are the expected "no" answer, not
	// resolution failures.
	if _, err := r.conn.FieldsGet(ctx, modelName); err != nil {
		return model.ModelPermissions{Model: modelName, Enabled: false}, nil
	}
	return model.ModelPermissions{
		Model:     modelName,
		Enabled:   true,
		CanRead:   true,
		CanWrite:  true,
		CanCreate: true,
		CanUnlink: true,
	}, nil
}

// isPrivateModel reports whether a model is private or part of the
// system namespace and should be hidden from listings.
func isPrivateModel(name string) bool {
	if name == "" {
		return true
	}
	return name[0] == '_' || (len(name) >= 3 && name[:3] == "ir.")
}

// many2oneID extracts the record ID from an Odoo many2one value,
// which XML-RPC serializes as [id, display_name].
func many2oneID(value any) (int, bool) {
	if pair, ok := value.([]any); ok && len(pair) > 0 {
		return asIntValue(pair[0])
	}
	return asIntValue(value)
}

func asRecords(value any) []map[string]any {
	raw, ok := value.([]any)
	if !ok {
		return nil
	}
	records := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if record, ok := item.(map[string]any); ok {
			records = append(records, record)
		}
	}
	return records
}

func asInts(value any) []int {
	raw, ok := value.([]any)
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(raw))
	for _, item := range raw {
		if id, ok := asIntValue(item); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func asIntValue(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

// asBool tolerates Odoo's habit of returning false for empty fields.
func asBool(value any) bool {
	b, _ := value.(bool)
	return b
}
