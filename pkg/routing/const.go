// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import "time"

const (
	// DefaultGroupSize is GROUP_SIZE: the number of peers in a close
	// group.
	DefaultGroupSize = 32
	// DefaultQuorumSize is QUORUM_SIZE: the nominal number of distinct
	// claimants required for group acceptance; the effective quorum is
	// min(routing-table size, QUORUM_SIZE) (spec §4.2 step 6).
	DefaultQuorumSize = 5

	// ClaimantFilterTTL and HandledFilterTTL are the 20-minute dedup
	// windows of spec §3 invariant 4 / §5.
	ClaimantFilterTTL = 20 * time.Minute
	HandledFilterTTL  = 20 * time.Minute

	// ConnectionFilterTTL is the 20-second connect-probe suppression
	// window of spec §4.7.
	ConnectionFilterTTL = 20 * time.Second
)

// Quorum returns min(routingTableSize, quorumSize). With an empty routing
// table it returns 0, and Accumulator.Add and RefreshAccumulator.Add then
// report quorum on the first vote. This happens on a seed or freshly
// relocated node: its empty table places it in the close-group range of
// every target, so group messages reach accumulation.
func Quorum(routingTableSize, quorumSize int) int {
	if routingTableSize < quorumSize {
		return routingTableSize
	}
	return quorumSize
}
