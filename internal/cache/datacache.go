// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package cache implements the opportunistic data cache of spec §4.2 step
// 3, keyed per content type by SetDataCacheOptions (spec §6). It wraps
// github.com/hashicorp/golang-lru, the bounded-LRU library already present
// in the teacher's own go.mod (indirect) and used for similar caches
// elsewhere in the retrieval pack (e.g. route-beacon-ri/internal/state).
package cache

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/groupnet/routing/pkg/routing"
)

// DefaultCapacity bounds the number of cached responses per data kind.
const DefaultCapacity = 1024

func enabled(o routing.CacheOptions, kind routing.DataKind) bool {
	switch kind {
	case routing.StructuredData:
		return o.StructuredData
	case routing.PlainData:
		return o.PlainData
	case routing.ImmutableData:
		return o.ImmutableData
	default:
		return false
	}
}

// DataCache caches ExternalResponse payloads by (DataKind, Key), disabled
// for every kind by default (spec S1 "Caching disabled by default").
type DataCache struct {
	opts routing.CacheOptions
	lru  *lru.Cache
}

// New returns a DataCache with caching disabled for every kind.
func New() *DataCache {
	c, err := lru.New(DefaultCapacity)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// DefaultCapacity never is.
		panic(err)
	}
	return &DataCache{lru: c}
}

// SetOptions updates which data kinds are cached.
func (c *DataCache) SetOptions(opts routing.CacheOptions) {
	c.opts = opts
}

func cacheKey(kind routing.DataKind, key routing.Name) [65]byte {
	var k [65]byte
	k[0] = byte(kind)
	copy(k[1:], key[:])
	return k
}

// Put stores a response payload if its kind is currently cacheable.
func (c *DataCache) Put(kind routing.DataKind, key routing.Name, payload []byte) {
	if !enabled(c.opts, kind) {
		return
	}
	c.lru.Add(cacheKey(kind, key), append([]byte(nil), payload...))
}

// Get returns a cached response payload, if present and cacheable.
func (c *DataCache) Get(kind routing.DataKind, key routing.Name) ([]byte, bool) {
	if !enabled(c.opts, kind) {
		return nil, false
	}
	v, ok := c.lru.Get(cacheKey(kind, key))
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}
