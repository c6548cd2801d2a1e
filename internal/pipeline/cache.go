package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/Nikita-NA/News-sentiment-analysis/pkg/models"
)

// runCache remembers completed runs for a short window so that repeating the
// identical query and limit within a session does not recompute the batch.
// A nil *runCache is a disabled cache; every method is nil-safe.
type runCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result    *models.RunResult
	expiresAt time.Time
}

func newRunCache(ttl time.Duration) *runCache {
	return &runCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(query string, limit int) string {
	return fmt.Sprintf("%s|%d", query, limit)
}

func (c *runCache) get(key string) (*models.RunResult, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.result, true
}

func (c *runCache) set(key string, result *models.RunResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{
		result:    result,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *runCache) flush() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}
