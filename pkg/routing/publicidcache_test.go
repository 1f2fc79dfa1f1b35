// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDCachePutGet(t *testing.T) {
	c := NewPublicIDCache()
	var name Name
	name[0] = 1
	id := PublicID{Name: name, SigningKey: []byte("sk")}

	_, ok := c.Get(name)
	assert.False(t, ok)

	c.Put(id)
	got, ok := c.Get(name)
	require.True(t, ok)
	assert.True(t, got.Equal(id))
}

func TestPublicIDCacheExpiry(t *testing.T) {
	c := NewPublicIDCache()
	now := time.Now()
	c.now = func() time.Time { return now }
	var name Name
	name[0] = 2
	c.Put(PublicID{Name: name})

	c.now = func() time.Time { return now.Add(PublicIDCacheTTL + time.Second) }
	_, ok := c.Get(name)
	assert.False(t, ok)
}
