// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/groupnet/routing/pkg/routing"
)

// TestCachingDisabledByDefault is spec §8 scenario S1: a freshly constructed
// cache misses even after a matching Put, since every kind starts disabled.
func TestCachingDisabledByDefault(t *testing.T) {
	c := New()
	key := routing.Name{1, 2, 3}

	c.Put(routing.ImmutableData, key, []byte("payload"))
	_, hit := c.Get(routing.ImmutableData, key)

	assert.False(t, hit)
}

// TestCachingEnabledPerKind is spec §8 scenario S2: enabling a kind makes
// its Put/Get round-trip hit, while other kinds remain independent misses.
func TestCachingEnabledPerKind(t *testing.T) {
	c := New()
	key := routing.Name{4, 5, 6}
	payload := []byte("immutable payload")

	c.SetOptions(routing.CacheOptions{StructuredData: false, PlainData: false, ImmutableData: true})
	c.Put(routing.ImmutableData, key, payload)

	got, hit := c.Get(routing.ImmutableData, key)
	assert.True(t, hit)
	assert.Equal(t, payload, got)

	_, hit = c.Get(routing.PlainData, key)
	assert.False(t, hit)

	c.SetOptions(routing.CacheOptions{StructuredData: true, PlainData: true, ImmutableData: false})
	_, hit = c.Get(routing.ImmutableData, key)
	assert.False(t, hit, "disabling a kind hides entries cached under it, even if they were put while it was enabled")
}

func TestPutIgnoredWhenKindDisabled(t *testing.T) {
	c := New()
	key := routing.Name{7, 8, 9}

	c.SetOptions(routing.CacheOptions{PlainData: true})
	c.Put(routing.StructuredData, key, []byte("nope"))
	c.SetOptions(routing.CacheOptions{StructuredData: true, PlainData: true})

	_, hit := c.Get(routing.StructuredData, key)
	assert.False(t, hit, "Put while StructuredData was disabled must not have stored anything")
}
