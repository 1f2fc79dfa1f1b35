// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import "github.com/zeebo/errs"

// ErrInvalidTransition is returned by State.Next for a transition spec
// §4.1 does not list.
var ErrInvalidTransition = errs.Class("invalid state transition")

// State is a position in the lifecycle spec §4.1 describes.
type State uint8

const (
	// Disconnected is the initial state: no bootstrap, no routing table.
	Disconnected State = iota + 1
	// Bootstrapped means an outgoing bootstrap identify has succeeded.
	Bootstrapped
	// Relocated means this identity has a network name, either via the
	// relocation handshake or (for the seed node) self-promotion.
	Relocated
	// Connected means the routing table holds 0 < size < GROUP_SIZE peers.
	Connected
	// GroupConnected means the routing table holds at least GROUP_SIZE
	// peers (spec §3 invariant 1).
	GroupConnected
	// Terminated is the sink state reached via Action::Terminate.
	Terminated
)

// String renders the state for logs.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Bootstrapped:
		return "Bootstrapped"
	case Relocated:
		return "Relocated"
	case Connected:
		return "Connected"
	case GroupConnected:
		return "GroupConnected"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Transition identifies one edge of the state machine.
type Transition uint8

const (
	// TransitionSeedPromotion is Disconnected->Relocated, self-promotion
	// as the first node on the network.
	TransitionSeedPromotion Transition = iota + 1
	// TransitionBootstrapIdentify is Disconnected->Bootstrapped.
	TransitionBootstrapIdentify
	// TransitionRelocationVerified is Bootstrapped->Relocated.
	TransitionRelocationVerified
	// TransitionFirstNodeAdded is Relocated->Connected.
	TransitionFirstNodeAdded
	// TransitionGroupSizeReached is Connected->GroupConnected.
	TransitionGroupSizeReached
	// TransitionTerminate is any-state->Terminated.
	TransitionTerminate
)

// edges enumerates every transition spec §4.1 permits.
var edges = map[Transition][2]State{
	TransitionSeedPromotion:      {Disconnected, Relocated},
	TransitionBootstrapIdentify:  {Disconnected, Bootstrapped},
	TransitionRelocationVerified: {Bootstrapped, Relocated},
	TransitionFirstNodeAdded:     {Relocated, Connected},
	TransitionGroupSizeReached:   {Connected, GroupConnected},
}

// Next applies t to s, returning the resulting state. It returns
// ErrInvalidTransition if spec §4.1 does not permit t from s — the caller
// is responsible for leaving the state machine alone when this happens
// (spec §8 property 1: only listed transitions are ever taken).
func (s State) Next(t Transition) (State, error) {
	if t == TransitionTerminate {
		if s == Terminated {
			return Terminated, nil
		}
		return Terminated, nil
	}
	edge, ok := edges[t]
	if !ok || edge[0] != s {
		return s, ErrInvalidTransition.New("transition %v not permitted from %v", t, s)
	}
	return edge[1], nil
}

// IsAtLeastRelocated reports whether s is Relocated or later — the point
// at which an identity becomes node-valued (spec §3 invariant 3).
func (s State) IsAtLeastRelocated() bool {
	return s == Relocated || s == Connected || s == GroupConnected
}
