package indexer

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sgonzalezm/cam-stream/api/internal"
)

const snapshotKey = "snapshot"

// snapshot is one cached scan result: the records plus the skip accounting
// from the same traversal, so stats stay truthful on cache hits.
type snapshot struct {
	records []internal.VideoRecord
	stats   Stats
}

// snapshotCache holds at most one scan result with a TTL. Callers must treat
// the cached slice as read-only; queries copy before sorting.
type snapshotCache struct {
	lru *expirable.LRU[string, snapshot]
}

func newSnapshotCache(ttl time.Duration) *snapshotCache {
	return &snapshotCache{
		lru: expirable.NewLRU[string, snapshot](1, nil, ttl),
	}
}

func (c *snapshotCache) get() ([]internal.VideoRecord, Stats, bool) {
	snap, ok := c.lru.Get(snapshotKey)
	return snap.records, snap.stats, ok
}

func (c *snapshotCache) set(records []internal.VideoRecord, stats Stats) {
	c.lru.Add(snapshotKey, snapshot{records: records, stats: stats})
}

func (c *snapshotCache) purge() {
	c.lru.Purge()
}
