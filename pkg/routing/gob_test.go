// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip gob-encodes v as the top-level value and decodes it into out.
// The nested case (e.g. SignedToken.Claimant inside a larger struct) is
// covered by TestAddressSurvivesNesting.
func roundTrip(t *testing.T, v interface{}, out interface{}) {
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(v))
	require.NoError(t, gob.NewDecoder(&buf).Decode(out))
}

func TestAddressGobRoundTrip(t *testing.T) {
	var name Name
	name[0] = 0x11
	in := NodeAddress(name)
	var out Address
	roundTrip(t, in, &out)
	assert.True(t, out.IsNode())
	got, err := out.AsNode()
	require.NoError(t, err)
	assert.Equal(t, name, got)

	in2 := ClientAddress([]byte("a client key"))
	var out2 Address
	roundTrip(t, in2, &out2)
	assert.True(t, out2.IsClient())
	key, err := out2.AsClient()
	require.NoError(t, err)
	assert.Equal(t, []byte("a client key"), key)
}

func TestAuthorityGobRoundTrip(t *testing.T) {
	var name, proxy Name
	name[0], proxy[0] = 3, 4
	in := NaeManagerAuthority(name)
	var out Authority
	roundTrip(t, in, &out)
	assert.True(t, out.Equal(in))

	in2 := ClientAuthority(proxy, []byte("pk"))
	var out2 Authority
	roundTrip(t, in2, &out2)
	assert.True(t, out2.Equal(in2))
}

// TestAddressSurvivesNesting is the regression case this file exists for:
// an Address nested two levels deep (inside a SignedToken inside a
// RelocatedNetworkNameRequest) must keep its unexported fields through gob.
func TestAddressSurvivesNesting(t *testing.T) {
	var clientName Name
	clientName[0] = 0x22
	req := RelocatedNetworkNameRequest{
		RelocatedID: PublicID{Name: clientName, SigningKey: []byte("sk")},
		OriginalToken: SignedToken{
			Claimant:   ClientAddress([]byte("original client key")),
			Serialized: []byte("body"),
			Signature:  []byte("sig"),
		},
		OriginalAuthority: ClientAuthority(clientName, []byte("original client key")),
	}
	content := NewRelocatedNetworkNameRequest(req)

	var out Content
	roundTrip(t, content, &out)

	got, ok := out.AsRelocatedNetworkNameRequest()
	require.True(t, ok)
	assert.True(t, got.OriginalToken.Claimant.IsClient())
	key, err := got.OriginalToken.Claimant.AsClient()
	require.NoError(t, err)
	assert.Equal(t, []byte("original client key"), key)
	assert.True(t, got.OriginalAuthority.IsClientAuthority())
}
