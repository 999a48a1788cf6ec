// cache/store.go
package cache

import (
	"context"

	"github.com/odoo-mcp/odoo-mcp-server/model"
)

// Value is the union of everything the access controller caches: the
// enabled-model listing under its fixed key, or one model's resolved
// permissions. Keeping it a concrete type lets the redis backend round
// trip entries through JSON.
type Value struct {
	Models      []model.ModelInfo       `json:"models,omitempty"`
	Permissions *model.ModelPermissions `json:"permissions,omitempty"`
}

// Store is a TTL-bounded key/value store for resolved permission data.
// Implementations never fail: a backend problem is reported as a miss.
type Store interface {
	Get(ctx context.Context, key string) (Value, bool)
	Set(ctx context.Context, key string, value Value)
	Clear(ctx context.Context)
}
