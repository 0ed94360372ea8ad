package ai

import (
	"hash/fnv"
	"sync"
	"time"
)

// DefaultFreshness is how long a stored classification stays servable.
const DefaultFreshness = 10 * time.Minute

const cacheShardCount = 16

// AnalysisCache memoizes classification results per image reference so a
// product already analyzed within the freshness window never triggers a second
// call to the analysis server.
//
// Expiry is lazy: a stale entry is removed by the lookup that finds it, there
// is no background sweeper. Keys are sharded so lookups for different images
// never contend on one lock.
type AnalysisCache struct {
	shards      [cacheShardCount]cacheShard
	freshness   time.Duration
	maxPerShard int

	// now is swapped out by tests to drive expiry.
	now func() time.Time
}

type cacheShard struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result   ColorAnalysis
	storedAt time.Time
}

// NewAnalysisCache builds a cache with the given freshness window.
// A non-positive freshness falls back to DefaultFreshness. maxPerShard bounds
// each shard's size; zero means unbounded, matching the original behavior.
func NewAnalysisCache(freshness time.Duration, maxPerShard int) *AnalysisCache {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	c := &AnalysisCache{
		freshness:   freshness,
		maxPerShard: maxPerShard,
		now:         time.Now,
	}
	for i := range c.shards {
		c.shards[i].entries = make(map[string]cacheEntry)
	}
	return c
}

// Lookup returns the cached result for key while it is still fresh. A stale
// entry is evicted and reported as a miss.
func (c *AnalysisCache) Lookup(key string) (ColorAnalysis, bool) {
	shard := c.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.entries[key]
	if !ok {
		return ColorAnalysis{}, false
	}

	if c.now().Sub(entry.storedAt) >= c.freshness {
		delete(shard.entries, key)
		return ColorAnalysis{}, false
	}

	return entry.result, true
}

// Store records result for key, overwriting any previous entry and resetting
// its timestamp.
func (c *AnalysisCache) Store(key string, result ColorAnalysis) {
	shard := c.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, exists := shard.entries[key]; !exists && c.maxPerShard > 0 && len(shard.entries) >= c.maxPerShard {
		shard.evictOneLocked(c.now(), c.freshness)
	}

	shard.entries[key] = cacheEntry{result: result, storedAt: c.now()}
}

// Len reports the number of live entries, stale ones included until a lookup
// evicts them.
func (c *AnalysisCache) Len() int {
	total := 0
	for i := range c.shards {
		c.shards[i].mu.Lock()
		total += len(c.shards[i].entries)
		c.shards[i].mu.Unlock()
	}
	return total
}

func (c *AnalysisCache) shard(key string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &c.shards[h.Sum32()%cacheShardCount]
}

// evictOneLocked drops an expired entry if one exists, otherwise the oldest.
func (s *cacheShard) evictOneLocked(now time.Time, freshness time.Duration) {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range s.entries {
		if now.Sub(entry.storedAt) >= freshness {
			delete(s.entries, key)
			return
		}
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}
