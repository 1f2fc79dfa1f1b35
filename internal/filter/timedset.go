// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package filter implements the bounded-time associative containers spec
// §9 calls for: "explicit expiry checked on each insert; do not rely on
// background timers." There is deliberately no goroutine here — the core
// is single-threaded (spec §5) and every filter is only ever touched from
// its event loop.
package filter

import "time"

// TimedSet is a set of string keys, each expiring ttl after insertion.
// Expired entries are swept lazily: on every Contains/Insert call, and
// only for the key being looked at plus whatever a full Sweep touches.
type TimedSet struct {
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

// NewTimedSet returns an empty set with the given entry lifetime.
func NewTimedSet(ttl time.Duration) *TimedSet {
	return &TimedSet{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Contains reports whether key is present and not yet expired.
func (s *TimedSet) Contains(key string) bool {
	expiry, ok := s.entries[key]
	if !ok {
		return false
	}
	if s.now().After(expiry) {
		delete(s.entries, key)
		return false
	}
	return true
}

// Insert adds key, resetting its expiry to now+ttl. Returns true if the
// key was already present and unexpired (a dedup hit).
func (s *TimedSet) Insert(key string) (alreadyPresent bool) {
	alreadyPresent = s.Contains(key)
	s.entries[key] = s.now().Add(s.ttl)
	return alreadyPresent
}

// Sweep removes every expired entry. Call this periodically to bound
// memory use; correctness never depends on it since Contains/Insert both
// self-evict on access.
func (s *TimedSet) Sweep() {
	now := s.now()
	for k, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, k)
		}
	}
}

// Len returns the number of entries, expired or not (expired entries are
// reclaimed lazily, so this is an upper bound until the next Sweep).
func (s *TimedSet) Len() int { return len(s.entries) }
