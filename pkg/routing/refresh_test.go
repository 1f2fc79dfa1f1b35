// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshAccumulatorFirstArrivalAndQuorum(t *testing.T) {
	r := NewRefreshAccumulator()
	authority := NaeManagerAuthority(Name{})
	var cause Name
	cause[0] = 1

	isFirst, released := r.Add("sync", authority, cause, ClientAddress([]byte("s1")), []byte("p1"), 2)
	assert.True(t, isFirst)
	assert.Nil(t, released)

	isFirst, released = r.Add("sync", authority, cause, ClientAddress([]byte("s2")), []byte("p2"), 2)
	assert.False(t, isFirst)
	require.Len(t, released, 2)
}

func TestRefreshAccumulatorBucketsByTypeAuthorityCause(t *testing.T) {
	r := NewRefreshAccumulator()
	authority := NaeManagerAuthority(Name{})
	var c1, c2 Name
	c1[0], c2[0] = 1, 2

	isFirst, _ := r.Add("sync", authority, c1, ClientAddress([]byte("s1")), []byte("p1"), 5)
	assert.True(t, isFirst)
	isFirst, _ = r.Add("sync", authority, c2, ClientAddress([]byte("s1")), []byte("p1"), 5)
	assert.True(t, isFirst, "different cause starts a fresh bucket")
}
