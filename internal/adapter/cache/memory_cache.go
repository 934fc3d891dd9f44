package cache

import (
	"sync"

	"github.com/example/flyder-sync-service/internal/domain"
)

// MemoryMappingCache — таблица соответствий бизнес Flyder -> франшиза в памяти.
type MemoryMappingCache struct {
	mu    sync.RWMutex
	store map[int64]string
}

func NewMemoryMappingCache() *MemoryMappingCache {
	return &MemoryMappingCache{store: make(map[int64]string)}
}

// NewMappingCache — фабрика для SyncHistoricalOrders: новый пустой кэш на каждый прогон.
func NewMappingCache() domain.MappingCache { return NewMemoryMappingCache() }

func (c *MemoryMappingCache) Get(businessID int64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.store[businessID]
	return id, ok
}

func (c *MemoryMappingCache) Set(businessID int64, franchiseID string) {
	c.mu.Lock()
	c.store[businessID] = franchiseID
	c.mu.Unlock()
}

func (c *MemoryMappingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

var _ domain.MappingCache = (*MemoryMappingCache)(nil)
