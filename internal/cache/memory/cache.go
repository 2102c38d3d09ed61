package memory

import (
	"context"
	"sync"
)

// Cache keeps embeddings for the lifetime of the process.
type Cache struct {
	mu    sync.RWMutex
	items map[string][]float32
}

func New() *Cache {
	return &Cache{items: make(map[string][]float32)}
}

func (c *Cache) GetEmbedding(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	emb, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]float32(nil), emb...), true, nil
}

func (c *Cache) SetEmbedding(_ context.Context, key string, embedding []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = append([]float32(nil), embedding...)
	return nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
