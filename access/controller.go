// access/controller.go

// Package access gates CRUD operations against Odoo models. It detects
// whether the MCP addon's enhanced permission records are available,
// resolves and caches per-model permissions through one of two
// strategies, and exposes the checks the MCP tools call before every
// data operation.
package access

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/odoo-mcp/odoo-mcp-server/cache"
	odoo_errors "github.com/odoo-mcp/odoo-mcp-server/errors"
	logger "github.com/odoo-mcp/odoo-mcp-server/logging"
	"github.com/odoo-mcp/odoo-mcp-server/model"
	"github.com/odoo-mcp/odoo-mcp-server/util"
)

const (
	enabledModelsCacheKey  = "enabled_models"
	permissionsCachePrefix = "permissions_"

	// TierEnhanced means the MCP addon's permission records are used.
	TierEnhanced = "enhanced"
	// TierBasic means access is inferred by probing field introspection.
	TierBasic = "basic"

	// DecisionEvent is published on the event bus for every access check.
	DecisionEvent = "access.decision"
)

// Decision is the payload published for every access check, consumed
// by the audit service.
type Decision struct {
	Model     string    `json:"model"`
	Operation string    `json:"operation"`
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason,omitempty"`
	Tier      string    `json:"tier"`
	Timestamp time.Time `json:"timestamp"`
}

// Controller is the public face of access control. One instance owns
// the cache, the capability flag and the selected resolver for a
// single attached connection, guarded by a mutex so concurrent MCP
// tool calls can share it.
type Controller struct {
	store cache.Store
	bus   *util.EventBus

	mu           sync.Mutex
	conn         Executor
	usesMCPAddon bool
	resolver     resolver
}

// NewController creates a controller. The event bus is optional; pass
// nil to disable decision events.
func NewController(store cache.Store, bus *util.EventBus) *Controller {
	return &Controller{store: store, bus: bus}
}

// SetConnection attaches an Odoo connection and detects the access
// tier exactly once. Re-attaching re-detects; nothing else does.
func (c *Controller) SetConnection(ctx context.Context, conn Executor) error {
	if conn == nil {
		return odoo_errors.ErrNoConnection
	}
	usesMCPAddon := detectMCPAddon(ctx, conn)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn = conn
	c.usesMCPAddon = usesMCPAddon
	if usesMCPAddon {
		c.resolver = &mcpResolver{conn: conn}
	} else {
		c.resolver = &basicResolver{conn: conn}
	}
	return nil
}

// detectMCPAddon probes the addon's marker model with a bounded,
// side-effect-free search. Any failure means the addon is absent.
func detectMCPAddon(ctx context.Context, conn Executor) bool {
	if conn == nil {
		return false
	}
	_, err := conn.ExecuteKw(ctx, "mcp.enabled.model", "search",
		[]any{[]any{}}, map[string]any{"limit": 1})
	if err != nil {
		logger.Info("MCP addon not available - using basic access control")
		return false
	}
	logger.Info("MCP addon detected - using enhanced access control")
	return true
}

// Tier reports which resolution strategy is active.
func (c *Controller) Tier() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.usesMCPAddon {
		return TierEnhanced
	}
	return TierBasic
}

func (c *Controller) snapshot() (resolver, Executor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolver, c.conn
}

// ListEnabledModels returns every model the current tier exposes. A
// failing remote call degrades to an empty list rather than an error;
// the failure is logged and visible through the health endpoint.
func (c *Controller) ListEnabledModels(ctx context.Context) ([]model.ModelInfo, error) {
	if value, found := c.store.Get(ctx, enabledModelsCacheKey); found {
		return value.Models, nil
	}

	resolver, conn := c.snapshot()
	if conn == nil {
		return nil, odoo_errors.ErrNoConnection
	}

	models, err := resolver.listEnabledModels(ctx)
	if err != nil {
		logger.Error("Failed to get enabled models", zap.Error(err))
		return []model.ModelInfo{}, nil
	}

	c.store.Set(ctx, enabledModelsCacheKey, cache.Value{Models: models})
	return models, nil
}

// resolvePermissions is the error-propagating resolution path shared
// by GetModelPermissions and GetAllPermissions. Successful results are
// cached; failures are not.
func (c *Controller) resolvePermissions(ctx context.Context, modelName string) (model.ModelPermissions, error) {
	cacheKey := permissionsCachePrefix + modelName
	if value, found := c.store.Get(ctx, cacheKey); found && value.Permissions != nil {
		return *value.Permissions, nil
	}

	resolver, conn := c.snapshot()
	if conn == nil {
		return model.ModelPermissions{}, odoo_errors.ErrNoConnection
	}

	permissions, err := resolver.resolvePermissions(ctx, modelName)
	if err != nil {
		return model.ModelPermissions{}, err
	}

	c.store.Set(ctx, cacheKey, cache.Value{Permissions: &permissions})
	logger.Debug("Resolved permissions",
		zap.String("model", modelName), zap.Bool("enabled", permissions.Enabled))
	return permissions, nil
}

// GetModelPermissions returns the permissions for one model. An
// unexpected resolution failure fails closed: the model reads as
// disabled. The deny-all default is not cached, so a later call gets
// another chance once the connection recovers.
func (c *Controller) GetModelPermissions(ctx context.Context, modelName string) (model.ModelPermissions, error) {
	permissions, err := c.resolvePermissions(ctx, modelName)
	if err != nil {
		if errors.Is(err, odoo_errors.ErrNoConnection) {
			return model.ModelPermissions{}, err
		}
		logger.Error("Failed to get permissions, denying access",
			zap.String("model", modelName), zap.Error(err))
		return model.ModelPermissions{Model: modelName, Enabled: false}, nil
	}
	return permissions, nil
}

// IsModelEnabled checks whether a model is accessible. Any internal
// error reads as not enabled.
func (c *Controller) IsModelEnabled(ctx context.Context, modelName string) bool {
	c.mu.Lock()
	usesMCPAddon := c.usesMCPAddon
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return false
	}

	if usesMCPAddon {
		models, err := c.ListEnabledModels(ctx)
		if err != nil {
			logger.Error("Failed to check if model is enabled",
				zap.String("model", modelName), zap.Error(err))
			return false
		}
		for _, info := range models {
			if info.Model == modelName {
				return true
			}
		}
		return false
	}

	// Basic tier: a direct introspection probe answers the question.
	_, err := conn.FieldsGet(ctx, modelName)
	return err == nil
}

// CheckOperationAllowed checks one operation against one model and
// returns the decision with a human-readable denial reason.
func (c *Controller) CheckOperationAllowed(ctx context.Context, modelName, operation string) (bool, string) {
	allowed, reason := c.checkOperation(ctx, modelName, operation)
	c.publishDecision(ctx, modelName, operation, allowed, reason)
	return allowed, reason
}

func (c *Controller) checkOperation(ctx context.Context, modelName, operation string) (bool, string) {
	permissions, err := c.GetModelPermissions(ctx, modelName)
	if err != nil {
		logger.Error("Access control check failed", zap.Error(err))
		return false, err.Error()
	}

	if !permissions.Enabled {
		return false, fmt.Sprintf("Model '%s' is not enabled for MCP access", modelName)
	}
	if !permissions.CanPerform(operation) {
		return false, fmt.Sprintf("Operation '%s' not allowed on model '%s'", operation, modelName)
	}
	return true, ""
}

func (c *Controller) publishDecision(ctx context.Context, modelName, operation string, allowed bool, reason string) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(ctx, DecisionEvent, Decision{
		Model:     modelName,
		Operation: operation,
		Allowed:   allowed,
		Reason:    reason,
		Tier:      c.Tier(),
		Timestamp: time.Now(),
	})
}

// ValidateModelAccess is CheckOperationAllowed with an error result:
// denial becomes an AccessDeniedError carrying the same reason.
func (c *Controller) ValidateModelAccess(ctx context.Context, modelName, operation string) error {
	allowed, reason := c.CheckOperationAllowed(ctx, modelName, operation)
	if !allowed {
		return &odoo_errors.AccessDeniedError{
			Model:     modelName,
			Operation: operation,
			Reason:    reason,
		}
	}
	return nil
}

// FilterEnabledModels intersects the input with the enabled-model set.
// Resolution failure filters everything out.
func (c *Controller) FilterEnabledModels(ctx context.Context, models []string) []string {
	enabled, err := c.ListEnabledModels(ctx)
	if err != nil {
		logger.Error("Failed to filter models", zap.Error(err))
		return []string{}
	}

	enabledSet := make(map[string]struct{}, len(enabled))
	for _, info := range enabled {
		enabledSet[info.Model] = struct{}{}
	}

	filtered := make([]string, 0, len(models))
	for _, m := range models {
		if _, ok := enabledSet[m]; ok {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// GetAllPermissions resolves permissions for every enabled model. A
// model whose individual resolution fails is omitted (and logged)
// instead of aborting the whole aggregation.
func (c *Controller) GetAllPermissions(ctx context.Context) map[string]model.ModelPermissions {
	permissions := make(map[string]model.ModelPermissions)

	models, err := c.ListEnabledModels(ctx)
	if err != nil {
		logger.Error("Failed to get all permissions", zap.Error(err))
		return permissions
	}

	for _, info := range models {
		perms, err := c.resolvePermissions(ctx, info.Model)
		if err != nil {
			logger.Warn("Failed to get permissions for model",
				zap.String("model", info.Model), zap.Error(err))
			continue
		}
		permissions[info.Model] = perms
	}
	return permissions
}

// ClearCache drops every cached resolution so the next call re-issues
// the underlying remote calls. The capability tier is not re-detected.
func (c *Controller) ClearCache(ctx context.Context) {
	c.store.Clear(ctx)
}
