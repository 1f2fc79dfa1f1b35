// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetDelete(t *testing.T) {
	s := New()

	_, err := s.Get(Key("missing"))
	assert.Error(t, err)

	require.NoError(t, s.Put(Key("a"), Value("1")))
	v, err := s.Get(Key("a"))
	require.NoError(t, err)
	assert.Equal(t, Value("1"), v)

	require.NoError(t, s.Delete(Key("a")))
	_, err = s.Get(Key("a"))
	assert.Error(t, err)
}

func TestKeysSortedAscending(t *testing.T) {
	s := New()
	require.NoError(t, s.Put(Key("b"), Value("2")))
	require.NoError(t, s.Put(Key("a"), Value("1")))
	require.NoError(t, s.Put(Key("c"), Value("3")))

	keys := s.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, []Key{Key("a"), Key("b"), Key("c")}, keys)
	assert.Equal(t, 3, s.Len())
}
