package cache

import (
	"sync"
	"time"

	"github.com/citypulse/citypulse-ai/internal/models"
)

// Package cache holds recently computed risk verdicts so bursts of
// predictions for the same (location, incident type) pair do not recompute.
//
// Responsibilities:
//   - Serve a fresh verdict for a pair when one exists
//   - Expire entries after a configurable TTL
//   - Invalidate a pair when a new incident lands for it, since the new
//     timestamp changes the frequency factor immediately
//
// Expiry is lazy on read; Purge sweeps the whole table for hosts that want a
// periodic cleanup.

type entry struct {
	verdict models.RiskVerdict
	expires time.Time
}

// VerdictCache is a TTL cache of risk verdicts keyed by
// (location, incident type). Safe for concurrent use.
type VerdictCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a verdict cache with the given TTL. A non-positive TTL
// disables caching entirely.
func New(ttl time.Duration) *VerdictCache {
	return &VerdictCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(location, incidentType string) string {
	return location + "\x00" + incidentType
}

// Get returns the cached verdict for the pair when present and unexpired.
func (c *VerdictCache) Get(location, incidentType string) (models.RiskVerdict, bool) {
	if c.ttl <= 0 {
		return models.RiskVerdict{}, false
	}

	key := cacheKey(location, incidentType)
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return models.RiskVerdict{}, false
	}

	if c.now().After(e.expires) {
		c.mu.Lock()
		// Recheck under the write lock: a concurrent Set may have renewed it.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return models.RiskVerdict{}, false
	}
	return e.verdict, true
}

// Set stores the verdict for the pair.
func (c *VerdictCache) Set(location, incidentType string, v models.RiskVerdict) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[cacheKey(location, incidentType)] = entry{verdict: v, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Invalidate drops the pair's entry, if any.
func (c *VerdictCache) Invalidate(location, incidentType string) {
	c.mu.Lock()
	delete(c.entries, cacheKey(location, incidentType))
	c.mu.Unlock()
}

// Purge removes every expired entry and reports how many were dropped.
func (c *VerdictCache) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

// Len returns the current entry count, expired entries included.
func (c *VerdictCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
