// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/groupnet/routing/pkg/routing"
	"github.com/groupnet/routing/pkg/transport"
)

func selfInfo(name byte) routing.NodeInfo {
	var n routing.Name
	n[0] = name
	return routing.NodeInfo{PublicID: routing.PublicID{Name: n}}
}

func peerInfo(name byte, conn transport.Connection) routing.NodeInfo {
	var n routing.Name
	n[0] = name
	return routing.NodeInfo{PublicID: routing.PublicID{Name: n}, Connection: conn}
}

func TestAddNodeRejectsSelf(t *testing.T) {
	self := selfInfo(0xFF)
	tb := New(zap.NewNop(), self, 20, 2)

	added, evicted, err := tb.AddNode(self)
	assert.False(t, added)
	assert.Nil(t, evicted)
	assert.Error(t, err)
}

func TestAddNodeAndLookup(t *testing.T) {
	self := selfInfo(0x00)
	tb := New(zap.NewNop(), self, 20, 20)

	peer := peerInfo(0x01, transport.Connection(1))
	added, evicted, err := tb.AddNode(peer)
	require.NoError(t, err)
	assert.True(t, added)
	assert.Nil(t, evicted)
	assert.Equal(t, 1, tb.Size())

	conn, ok := tb.LookUpConnection(peer.PublicID.Name)
	require.True(t, ok)
	assert.Equal(t, transport.Connection(1), conn)

	pid, ok := tb.LookUpPublicID(peer.PublicID.Name)
	require.True(t, ok)
	assert.Equal(t, peer.PublicID.Name, pid.Name)
}

func TestWantToAddFalseWhenBucketFull(t *testing.T) {
	self := selfInfo(0x00)
	tb := New(zap.NewNop(), self, 20, 1)

	// n1 and n2 share the same common-leading-bits bucket index relative to
	// an all-zero self name: CommonLeadingBits only inspects the first
	// non-zero byte of the XOR distance, so both land in the bucket keyed
	// on byte0's leading bit and differ only in a later byte.
	var n1, n2 routing.Name
	n1[0] = 0x01
	n2[0] = 0x01
	n2[63] = 0x02

	_, _, err := tb.AddNode(routing.NodeInfo{PublicID: routing.PublicID{Name: n1}, Connection: 1})
	require.NoError(t, err)

	assert.False(t, tb.WantToAdd(n2))
}

func TestDropConnectionRemovesEntry(t *testing.T) {
	self := selfInfo(0x00)
	tb := New(zap.NewNop(), self, 20, 20)

	peer := peerInfo(0x01, transport.Connection(5))
	_, _, err := tb.AddNode(peer)
	require.NoError(t, err)

	name, ok := tb.DropConnection(transport.Connection(5))
	require.True(t, ok)
	assert.Equal(t, peer.PublicID.Name, name)
	assert.Equal(t, 0, tb.Size())

	_, ok = tb.DropConnection(transport.Connection(5))
	assert.False(t, ok)
}

func TestAddressInOurCloseGroupRangeTrueWhenFewPeers(t *testing.T) {
	self := selfInfo(0x00)
	tb := New(zap.NewNop(), self, 4, 20)

	for i := byte(1); i <= 2; i++ {
		_, _, err := tb.AddNode(peerInfo(i, transport.Connection(i)))
		require.NoError(t, err)
	}

	var target routing.Name
	target[0] = 0x10
	assert.True(t, tb.AddressInOurCloseGroupRange(target))
}

func TestOurCloseGroupOrderedByDistance(t *testing.T) {
	self := selfInfo(0x00)
	tb := New(zap.NewNop(), self, 2, 20)

	var near, far routing.Name
	near[0] = 0x01
	far[0] = 0x7F
	_, _, err := tb.AddNode(routing.NodeInfo{PublicID: routing.PublicID{Name: far}, Connection: 1})
	require.NoError(t, err)
	_, _, err = tb.AddNode(routing.NodeInfo{PublicID: routing.PublicID{Name: near}, Connection: 2})
	require.NoError(t, err)

	group := tb.OurCloseGroup()
	require.Len(t, group, 2)
	assert.Equal(t, near, group[0].PublicID.Name)
	assert.Equal(t, far, group[1].PublicID.Name)
}
