// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientSignedMessage(clientKey []byte, to Authority) SignedMessage {
	rm := RoutingMessage{
		FromAuthority: ClientAuthority(Name{}, clientKey),
		ToAuthority:   to,
		Content:       NewExternalRequest(ExternalPayload{Kind: PlainData, Op: OpGet}),
	}
	return SignedMessage{
		Message:  rm,
		Claimant: ClientAddress(clientKey),
	}.WithSerialized([]byte("body"))
}

func TestAccumulatorReachesQuorumOnDistinctClaimants(t *testing.T) {
	acc := NewAccumulator()
	to := NaeManagerAuthority(Name{})

	reached, _ := acc.Add(clientSignedMessage([]byte("k1"), to), 3)
	assert.False(t, reached)
	assert.Equal(t, 1, acc.VoteCount(clientSignedMessage([]byte("k1"), to)))

	reached, _ = acc.Add(clientSignedMessage([]byte("k2"), to), 3)
	assert.False(t, reached)

	reached, tokens := acc.Add(clientSignedMessage([]byte("k3"), to), 3)
	require.True(t, reached)
	assert.Len(t, tokens, 3)
}

func TestAccumulatorRepeatedClaimantDoesNotDoubleCount(t *testing.T) {
	acc := NewAccumulator()
	to := NaeManagerAuthority(Name{})
	sm := clientSignedMessage([]byte("k1"), to)

	acc.Add(sm, 2)
	acc.Add(sm, 2)
	assert.Equal(t, 1, acc.VoteCount(sm))
}

func TestAccumulatorExpiryStartsFreshEntry(t *testing.T) {
	acc := NewAccumulator()
	now := time.Now()
	acc.now = func() time.Time { return now }
	to := NaeManagerAuthority(Name{})

	acc.Add(clientSignedMessage([]byte("k1"), to), 2)
	acc.now = func() time.Time { return now.Add(AccumulatorTTL + time.Second) }

	reached, _ := acc.Add(clientSignedMessage([]byte("k2"), to), 2)
	assert.False(t, reached)
	assert.Equal(t, 1, acc.VoteCount(clientSignedMessage([]byte("k1"), to)))
}
