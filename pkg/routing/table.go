// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import "github.com/groupnet/routing/pkg/transport"

// NodeInfo is one routing-table entry: a node's public id and the
// transport connection it is reachable on.
type NodeInfo struct {
	PublicID   PublicID
	Connection transport.Connection
}

// RoutingTable is the narrow interface the core consumes (spec §3, §6).
// The bucket layout, proximity queries and eviction policy are owned by
// the implementation, not by the core.
type RoutingTable interface {
	// Self returns the local node's own entry.
	Self() NodeInfo

	// WantToAdd reports whether name is not yet held and its bucket has
	// room for it right now, without actually adding it.
	WantToAdd(name Name) bool

	// AddNode inserts node. If a replaced peer had to be evicted to make
	// room, it is returned as evicted (the table decides the evictee, per
	// spec §3 "Lifecycles").
	AddNode(node NodeInfo) (added bool, evicted *NodeInfo, err error)

	// DropConnection removes whatever entry is reachable on conn, if any,
	// reporting its name.
	DropConnection(conn transport.Connection) (name Name, ok bool)

	// DropNode removes the entry for name, if present.
	DropNode(name Name) (ok bool)

	// TargetNodes returns the peers to fan a message for dest out to.
	TargetNodes(dest Name) []NodeInfo

	// OurCloseGroup returns our GROUP_SIZE (or fewer) closest peers.
	OurCloseGroup() []NodeInfo

	// AddressInOurCloseGroupRange reports whether our own name is among
	// the GROUP_SIZE closest names to target, i.e. whether we are
	// authoritative for target under a group authority.
	AddressInOurCloseGroupRange(target Name) bool

	// Size returns the number of entries currently held.
	Size() int

	// LookUpConnection returns the connection a name is reachable on.
	LookUpConnection(name Name) (transport.Connection, bool)

	// LookUpPublicID returns the stored public id for name, needed to
	// verify a node claimant's signature (spec §4.2 step 2).
	LookUpPublicID(name Name) (PublicID, bool)
}
