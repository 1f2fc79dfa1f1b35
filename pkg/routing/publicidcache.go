// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"sync"
	"time"
)

// PublicIDCacheTTL is the lifetime of a cached public id (spec §5
// "10-minute public-id cache").
const PublicIDCacheTTL = 10 * time.Minute

type publicIDEntry struct {
	id     PublicID
	expiry time.Time
}

// PublicIDCache remembers public ids learned from relocation, Connect and
// Churn messages so that ingress can verify the signature of a later
// message claimed by one of those names, such as its Connect request (spec §9's
// "public_id_cache population" open question, resolved in DESIGN.md: the
// close group reported by a verified RelocatedNetworkName response is
// inserted here).
type PublicIDCache struct {
	mu      sync.Mutex
	entries map[Name]publicIDEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewPublicIDCache returns an empty PublicIDCache.
func NewPublicIDCache() *PublicIDCache {
	return &PublicIDCache{
		entries: make(map[Name]publicIDEntry),
		ttl:     PublicIDCacheTTL,
		now:     time.Now,
	}
}

// Put inserts or refreshes id's entry.
func (c *PublicIDCache) Put(id PublicID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id.Name] = publicIDEntry{id: id, expiry: c.now().Add(c.ttl)}
}

// Get returns the cached public id for name, if present and unexpired.
func (c *PublicIDCache) Get(name Name) (PublicID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[name]
	if !ok {
		return PublicID{}, false
	}
	if c.now().After(entry.expiry) {
		delete(c.entries, name)
		return PublicID{}, false
	}
	return entry.id, true
}
