// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/groupnet/routing/pkg/routing"
	"github.com/groupnet/routing/pkg/transport"
)

// TestRelayCapRejectsOverflow is spec §8 scenario S6: filling the relay map
// to MaxRelays then attempting one more insertion is refused, and the map
// is left untouched.
func TestRelayCapRejectsOverflow(t *testing.T) {
	r := New(zap.NewNop())

	for i := 0; i < MaxRelays; i++ {
		key := []byte{byte(i), byte(i >> 8)}
		require.NoError(t, r.AddRelay(key, transport.Connection(i)))
	}
	require.Equal(t, MaxRelays, r.RelayCount())

	err := r.AddRelay([]byte("overflow"), transport.Connection(9999))
	assert.Error(t, err)
	assert.Equal(t, MaxRelays, r.RelayCount())

	_, ok := r.LookUpRelay([]byte("overflow"))
	assert.False(t, ok)
}

func TestAddRelayUpdatesExistingKeyWithoutGrowing(t *testing.T) {
	r := New(zap.NewNop())
	key := []byte("client-key")

	require.NoError(t, r.AddRelay(key, transport.Connection(1)))
	require.NoError(t, r.AddRelay(key, transport.Connection(2)))

	assert.Equal(t, 1, r.RelayCount())
	conn, ok := r.LookUpRelay(key)
	require.True(t, ok)
	assert.Equal(t, transport.Connection(2), conn)
}

func TestClearBootstrapEmptiesMap(t *testing.T) {
	r := New(zap.NewNop())
	r.AddBootstrap(transport.Connection(1), routing.Name{})
	require.True(t, r.HasBootstrap())

	r.ClearBootstrap()

	assert.False(t, r.HasBootstrap())
	assert.Empty(t, r.BootstrapConnections())
}
