// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"sync"
	"time"
)

type refreshKey struct {
	typeTag   string
	authority string
	cause     Name
}

type refreshEntry struct {
	payloads map[string][]byte // distinct sender -> payload
	expiry   time.Time
}

// RefreshAccumulator buckets opaque Refresh payloads by (type_tag,
// authority, cause) and releases the payload vector once a distinct-sender
// quorum is reached (spec §4.5).
type RefreshAccumulator struct {
	mu      sync.Mutex
	entries map[refreshKey]*refreshEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewRefreshAccumulator returns an empty RefreshAccumulator.
func NewRefreshAccumulator() *RefreshAccumulator {
	return &RefreshAccumulator{
		entries: make(map[refreshKey]*refreshEntry),
		ttl:     AccumulatorTTL,
		now:     time.Now,
	}
}

// Add records one sender's contribution. isFirst reports whether this is
// the first arrival for a previously-unseen (type_tag, authority, cause)
// bucket — the caller should fire a DoRefresh event in that case. released
// carries the full payload vector once quorum is reached for this bucket
// (and the bucket is then cleared).
func (r *RefreshAccumulator) Add(typeTag string, authority Authority, cause Name, sender Address, payload []byte, quorum int) (isFirst bool, released [][]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := refreshKey{typeTag: typeTag, authority: authority.Key(), cause: cause}
	entry, ok := r.entries[key]
	if !ok || r.now().After(entry.expiry) {
		entry = &refreshEntry{payloads: make(map[string][]byte), expiry: r.now().Add(r.ttl)}
		r.entries[key] = entry
		isFirst = true
	}

	entry.payloads[claimantKey(sender)] = payload

	if len(entry.payloads) < quorum {
		return isFirst, nil
	}

	released = make([][]byte, 0, len(entry.payloads))
	for _, p := range entry.payloads {
		released = append(released, p)
	}
	delete(r.entries, key)
	return isFirst, released
}
