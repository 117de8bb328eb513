package embedding

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/minio/highwayhash"
)

// Cache stores vectors keyed by content hash. Implementations must be safe
// for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Put(ctx context.Context, key string, vec []float32) error
	Invalidate(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

var hashKey = []byte("codeintel-embedding-cache-key-v1")

// ContentKey returns the cache key for text embedded by the named
// provider. Changing provider, model or text changes the key.
func ContentKey(provider, text string) string {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// The key is a fixed 32-byte constant.
		panic(err)
	}
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return provider + ":" + hex.EncodeToString(h.Sum(nil))
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]float32)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.entries[key]
	return vec, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]float32(nil), vec...)
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]float32)
	return nil
}

// Len returns the number of cached vectors.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
