// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestInsertReportsDuplicateWithinTTL exercises spec §3 invariant 4: the
// same key inserted twice within the window is reported as already present.
func TestInsertReportsDuplicateWithinTTL(t *testing.T) {
	s := NewTimedSet(time.Minute)

	assert.False(t, s.Insert("a"))
	assert.True(t, s.Insert("a"))
	assert.True(t, s.Contains("a"))
}

// TestEntryExpiresAfterTTL is spec §9: "explicit expiry checked on each
// insert; do not rely on background timers."
func TestEntryExpiresAfterTTL(t *testing.T) {
	s := NewTimedSet(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Insert("a")
	assert.True(t, s.Contains("a"))

	s.now = func() time.Time { return now.Add(time.Minute + time.Second) }
	assert.False(t, s.Contains("a"))

	// A fresh insert after expiry is not reported as a duplicate.
	assert.False(t, s.Insert("a"))
}

func TestSweepRemovesOnlyExpiredEntries(t *testing.T) {
	s := NewTimedSet(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	s.Insert("old")
	s.now = func() time.Time { return now.Add(30 * time.Second) }
	s.Insert("new")

	s.now = func() time.Time { return now.Add(90 * time.Second) }
	s.Sweep()

	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains("new"))
}
