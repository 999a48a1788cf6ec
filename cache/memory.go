// cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	logger "github.com/odoo-mcp/odoo-mcp-server/logging"
)

type memoryEntry struct {
	value     Value
	timestamp time.Time
}

// MemoryStore is an in-process Store with lazy TTL expiry: an entry
// older than the TTL is treated as absent and deleted by the lookup
// that finds it. There is no background sweep.
type MemoryStore struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Store = &MemoryStore{}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return Value{}, false
	}
	if s.now().Sub(entry.timestamp) > s.ttl {
		logger.Debug("Cache expired", zap.String("key", key))
		delete(s.entries, key)
		return Value{}, false
	}
	logger.Debug("Cache hit", zap.String("key", key))
	return entry.value, true
}

func (s *MemoryStore) Set(_ context.Context, key string, value Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{value: value, timestamp: s.now()}
}

func (s *MemoryStore) Clear(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]memoryEntry)
	logger.Info("Cleared access control cache")
}

// Len reports the number of stored entries, expired or not. Expired
// entries linger until a Get touches them.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
