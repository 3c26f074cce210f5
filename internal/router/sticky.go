package router

import (
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zeebo/xxh3"
)

// StickyTable maps client IPs to backend indexes. An assignment, once
// made, survives for the lifetime of the table: backends that restart get
// their clients back. Overrides win over the hash unconditionally.
type StickyTable struct {
	backends  int
	overrides map[string]int
	assigned  *xsync.Map[string, int]
}

// NewStickyTable creates a sticky table over n backends.
func NewStickyTable(n int, overrides map[string]int) *StickyTable {
	return &StickyTable{
		backends:  n,
		overrides: overrides,
		assigned:  xsync.NewMap[string, int](),
	}
}

// Pick returns the backend index for clientIP. The first call for an IP
// computes hash(ip) mod N and pins it; concurrent first calls agree
// because the hash is deterministic.
func (t *StickyTable) Pick(clientIP string) int {
	if idx, ok := t.overrides[clientIP]; ok {
		return idx
	}
	idx, _ := t.assigned.LoadOrStore(clientIP, int(xxh3.HashString(clientIP)%uint64(t.backends)))
	return idx
}

// Len returns the number of pinned assignments (overrides excluded).
func (t *StickyTable) Len() int {
	return t.assigned.Size()
}
