package newbill

import (
	"time"

	"billed/internal/cache"
	"billed/internal/core"
)

// Staging keeps the receipt chosen in the file input until the form is
// submitted, keyed by session.
type Staging interface {
	Stage(sessionID string, r core.Receipt)
	Staged(sessionID string) (core.Receipt, bool)
	Clear(sessionID string)
}

// CacheStaging is a Staging over a bounded LRU cache with TTL, so abandoned
// forms do not pin uploads in memory.
type CacheStaging struct {
	cache *cache.LRUCache[core.Receipt]
}

func NewCacheStaging(maxSessions int, ttl time.Duration) *CacheStaging {
	return &CacheStaging{cache: cache.NewLRUCache[core.Receipt](maxSessions, ttl)}
}

func (s *CacheStaging) Stage(sessionID string, r core.Receipt) { s.cache.Set(sessionID, r) }

func (s *CacheStaging) Staged(sessionID string) (core.Receipt, bool) {
	return s.cache.Get(sessionID)
}

func (s *CacheStaging) Clear(sessionID string) { s.cache.Delete(sessionID) }

// Cleaner exposes the cache to a cache.Manager sweep.
func (s *CacheStaging) Cleaner() cache.Cleaner { return s.cache }

// Size is the number of sessions holding a staged receipt.
func (s *CacheStaging) Size() int { return s.cache.Size() }
