// cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logger "github.com/odoo-mcp/odoo-mcp-server/logging"
)

const redisKeyPrefix = "acl:"

// RedisStore keeps permission data in Redis so multiple server
// instances against the same Odoo share one cache. TTL enforcement is
// delegated to Redis key expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = &RedisStore{}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Value, bool) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return Value{}, false
	}
	if err != nil {
		logger.Error("Failed to read from cache", zap.Error(err), zap.String("key", key))
		return Value{}, false
	}

	var value Value
	if err := json.Unmarshal(raw, &value); err != nil {
		logger.Error("Failed to unmarshal cached value", zap.Error(err), zap.String("key", key))
		return Value{}, false
	}
	logger.Debug("Cache hit", zap.String("key", key))
	return value, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value Value) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Error("Failed to marshal value for cache", zap.Error(err), zap.String("key", key))
		return
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, raw, s.ttl).Err(); err != nil {
		logger.Error("Failed to write to cache", zap.Error(err), zap.String("key", key))
	}
}

// Clear removes every key under the store's prefix. SCAN keeps the
// traversal incremental so a shared Redis is never blocked.
func (s *RedisStore) Clear(ctx context.Context) {
	var cleared int
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Error("Failed to clear cache", zap.Error(err), zap.String("key", iter.Val()))
			return
		}
		cleared++
	}
	if err := iter.Err(); err != nil {
		logger.Error("Failed to list cache keys", zap.Error(err))
		return
	}
	if cleared > 0 {
		logger.Info("Cleared access control cache", zap.Int("entries", cleared))
	}
}
