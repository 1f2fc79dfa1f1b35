// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressNode(t *testing.T) {
	var name Name
	name[0] = 0x42
	a := NodeAddress(name)
	assert.True(t, a.IsNode())
	assert.False(t, a.IsClient())
	got, err := a.AsNode()
	require.NoError(t, err)
	assert.Equal(t, name, got)
	assert.Equal(t, name, a.Location())

	_, err = a.AsClient()
	assert.Error(t, err)
}

func TestAddressClient(t *testing.T) {
	pub := []byte("a public key")
	a := ClientAddress(pub)
	assert.True(t, a.IsClient())
	assert.False(t, a.IsNode())
	got, err := a.AsClient()
	require.NoError(t, err)
	assert.Equal(t, pub, got)
	assert.Equal(t, NameFromPublicKey(pub), a.Location())

	_, err = a.AsNode()
	assert.Error(t, err)
}

func TestClientAddressCopiesKey(t *testing.T) {
	pub := []byte{1, 2, 3}
	a := ClientAddress(pub)
	pub[0] = 0xFF
	got, _ := a.AsClient()
	assert.Equal(t, []byte{1, 2, 3}, got)
}
