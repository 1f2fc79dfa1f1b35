// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorityGroupVariants(t *testing.T) {
	var name Name
	name[0] = 7

	for _, tt := range []struct {
		name    string
		a       Authority
		isGroup bool
	}{
		{"managed node", ManagedNodeAuthority(name), false},
		{"nae manager", NaeManagerAuthority(name), true},
		{"client manager", ClientManagerAuthority(name), true},
		{"node manager", NodeManagerAuthority(name), true},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isGroup, tt.a.IsGroup())
			assert.Equal(t, name, tt.a.Name())
		})
	}
}

func TestClientAuthority(t *testing.T) {
	var proxy Name
	proxy[0] = 9
	pub := []byte("client public key")
	a := ClientAuthority(proxy, pub)

	assert.True(t, a.IsClientAuthority())
	assert.False(t, a.IsGroup())

	got, err := a.ProxyName()
	require.NoError(t, err)
	assert.Equal(t, proxy, got)

	gotKey, err := a.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, pub, gotKey)

	assert.Panics(t, func() { a.Name() })
}

func TestAuthorityEqual(t *testing.T) {
	var n1, n2 Name
	n1[0], n2[0] = 1, 2

	assert.True(t, NaeManagerAuthority(n1).Equal(NaeManagerAuthority(n1)))
	assert.False(t, NaeManagerAuthority(n1).Equal(NaeManagerAuthority(n2)))
	assert.False(t, NaeManagerAuthority(n1).Equal(ManagedNodeAuthority(n1)))

	c1 := ClientAuthority(n1, []byte("k"))
	c2 := ClientAuthority(n1, []byte("k"))
	c3 := ClientAuthority(n2, []byte("k"))
	assert.True(t, c1.Equal(c2))
	assert.False(t, c1.Equal(c3))
}

func TestAuthorityKeyDistinguishesVariants(t *testing.T) {
	var n Name
	n[0] = 5
	keys := map[string]bool{}
	for _, a := range []Authority{
		ManagedNodeAuthority(n),
		NaeManagerAuthority(n),
		ClientManagerAuthority(n),
		NodeManagerAuthority(n),
		ClientAuthority(n, []byte("k")),
	} {
		k := a.Key()
		assert.False(t, keys[k], "duplicate authority key %q", k)
		keys[k] = true
	}
}
