package session

import (
	"time"

	"github.com/maypok86/otter"
)

const (
	defaultTombstoneCapacity = 4096
	defaultTombstoneTTL      = 10 * time.Minute
)

// Tombstones remembers recently reaped room ids for a bounded time, so a
// client polling a reaped game gets "expired" rather than "never existed".
// Backed by an otter cache with TTL eviction.
type Tombstones struct {
	ttl   time.Duration
	cache otter.Cache[string, string]
}

// NewTombstones creates a tombstone cache bounded to capacity entries,
// each expiring after ttl.
func NewTombstones(capacity int, ttl time.Duration) *Tombstones {
	cache, err := otter.MustBuilder[string, string](capacity).
		Cost(func(_ string, _ string) uint32 { return 1 }).
		WithTTL(ttl).
		Build()
	if err != nil {
		panic("session: failed to create tombstone cache: " + err.Error())
	}
	return &Tombstones{ttl: ttl, cache: cache}
}

// Add records a reaped room id with the reason it went away.
func (t *Tombstones) Add(id, reason string) {
	t.cache.Set(id, reason)
}

// Reason returns why a room id was reaped, if it is still remembered.
func (t *Tombstones) Reason(id string) (string, bool) {
	return t.cache.Get(id)
}
