package quiz

import (
	"context"
	"sync"
	"time"
)

// Cache is the content-addressed de-dup store for generated questions. All
// methods are safe for concurrent use from many connections and never block
// on the generation budget; a Redis-backed implementation lives in
// cache_redis.go and an in-memory one below. Failures are returned so the
// caller can treat the fingerprint as unseen and move on.
type Cache interface {
	// Exists reports whether a question with this fingerprint was served before.
	Exists(ctx context.Context, fingerprint string) (bool, error)
	// Record remembers a served question under its fingerprint.
	Record(ctx context.Context, fingerprint string, q Question) error
	// Recent returns up to n question texts, most recent first, used as
	// "avoid repeating" hints in the generation prompt.
	Recent(ctx context.Context, n int) ([]string, error)
}

// MemoryCache is the default Cache; unbounded, mutex-guarded.
type MemoryCache struct {
	mu      sync.RWMutex
	byPrint map[string]CacheRecord
	order   []string // fingerprints, oldest first
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{byPrint: make(map[string]CacheRecord)}
}

func (c *MemoryCache) Exists(_ context.Context, fingerprint string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byPrint[fingerprint]
	return ok, nil
}

func (c *MemoryCache) Record(_ context.Context, fingerprint string, q Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byPrint[fingerprint]; ok {
		return nil
	}
	c.byPrint[fingerprint] = CacheRecord{Fingerprint: fingerprint, Question: q, CreatedAt: time.Now()}
	c.order = append(c.order, fingerprint)
	return nil
}

func (c *MemoryCache) Recent(_ context.Context, n int) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, n)
	for i := len(c.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, c.byPrint[c.order[i]].Question.Text)
	}
	return out, nil
}
