// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"sync"
	"time"
)

// AccumulatorTTL bounds how long an in-progress accumulation is retained
// without reaching quorum (spec §5 "expiring ... accumulators (5 min)").
const AccumulatorTTL = 5 * time.Minute

type accumulatorEntry struct {
	message   RoutingMessage
	claimants map[string]SignedToken // distinct claimant key -> its token
	expiry    time.Time
}

// Accumulator collects distinct-claimant votes for identical group routing
// messages until a quorum is reached (spec §4.2 step 6, §8 property 3).
// Forwarding is intentionally independent of this (spec §9): a node may
// accumulate a message it never forwarded and vice versa.
type Accumulator struct {
	mu      sync.Mutex
	entries map[string]*accumulatorEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		entries: make(map[string]*accumulatorEntry),
		ttl:     AccumulatorTTL,
		now:     time.Now,
	}
}

// Add records one claimant's vote for sm and reports whether quorum has
// now been reached for the first time. Once reached, the entry is removed
// — a second vote arriving afterward (the filter should normally prevent
// this) starts a fresh accumulation rather than double-firing.
func (a *Accumulator) Add(sm SignedMessage, quorum int) (reached bool, tokens []SignedToken) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := sm.HandledKey()
	entry, ok := a.entries[key]
	if !ok || a.now().After(entry.expiry) {
		entry = &accumulatorEntry{
			message:   sm.Message,
			claimants: make(map[string]SignedToken),
			expiry:    a.now().Add(a.ttl),
		}
		a.entries[key] = entry
	}

	entry.claimants[claimantKey(sm.Claimant)] = sm.Token()

	if len(entry.claimants) < quorum {
		return false, nil
	}

	tokens = make([]SignedToken, 0, len(entry.claimants))
	for _, t := range entry.claimants {
		tokens = append(tokens, t)
	}
	delete(a.entries, key)
	return true, tokens
}

// VoteCount returns how many distinct claimants have voted for sm so far,
// for diagnostics and tests.
func (a *Accumulator) VoteCount(sm SignedMessage) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	entry, ok := a.entries[sm.HandledKey()]
	if !ok {
		return 0
	}
	return len(entry.claimants)
}
