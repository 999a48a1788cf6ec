// cache/redis_test.go
package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odoo-mcp/odoo-mcp-server/model"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStore_SetGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t, time.Minute)

	perms := &model.ModelPermissions{Model: "res.partner", Enabled: true, CanRead: true, CanWrite: true}
	store.Set(ctx, "permissions_res.partner", Value{Permissions: perms})

	value, found := store.Get(ctx, "permissions_res.partner")
	require.True(t, found)
	assert.Equal(t, perms, value.Permissions)

	_, found = store.Get(ctx, "missing")
	assert.False(t, found)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, 300*time.Second)

	store.Set(ctx, "enabled_models", Value{Models: []model.ModelInfo{{Model: "res.partner", Name: "Contact"}}})

	mr.FastForward(299 * time.Second)
	_, found := store.Get(ctx, "enabled_models")
	assert.True(t, found)

	mr.FastForward(2 * time.Second)
	_, found = store.Get(ctx, "enabled_models")
	assert.False(t, found)
}

func TestRedisStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, time.Minute)

	store.Set(ctx, "a", Value{})
	store.Set(ctx, "b", Value{})
	// A foreign key outside our prefix must survive Clear.
	mr.Set("other:key", "keep")

	store.Clear(ctx)

	_, found := store.Get(ctx, "a")
	assert.False(t, found)
	_, found = store.Get(ctx, "b")
	assert.False(t, found)
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisStore_ClearManyKeys(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t, time.Minute)

	// More keys than one scan batch, so Clear has to follow the cursor.
	for i := 0; i < 250; i++ {
		store.Set(ctx, fmt.Sprintf("permissions_model.%d", i), Value{})
	}
	mr.Set("other:key", "keep")

	store.Clear(ctx)

	for i := 0; i < 250; i++ {
		_, found := store.Get(ctx, fmt.Sprintf("permissions_model.%d", i))
		assert.False(t, found)
	}
	assert.True(t, mr.Exists("other:key"))
}
