// Package routingerrs declares the error-class taxonomy used across the
// routing core. Each class corresponds to one failure family from the
// core's error handling design: callers distinguish kinds with errs.Class.Has,
// never with type assertions on a concrete error type.
package routingerrs

import "github.com/zeebo/errs"

var (
	// TransportGone means the transport service is no longer reachable.
	// No code path in this module returns it, and the core never
	// terminates itself: Terminated is reached only via ActionTerminate.
	TransportGone = errs.Class("transport gone")

	// Parse covers signed-message and direct-message decode failures.
	// Frames that fail to parse are logged and dropped, never an error to
	// the user and never a reason to close the connection.
	Parse = errs.Class("parse error")

	// Signature covers a claimant signature that fails to verify.
	Signature = errs.Class("signature error")

	// FilterHit is returned internally when a fingerprint is already
	// known; it is not surfaced to the user.
	FilterHit = errs.Class("filter hit")

	// BadAuthority means the message's to_authority does not match our
	// local authority for it.
	BadAuthority = errs.Class("bad authority")

	// Refused means the routing table declined a connect attempt.
	Refused = errs.Class("refused by routing table")

	// NotEnoughSignatures means accumulation has not yet reached quorum.
	// Transient: accumulator state is retained.
	NotEnoughSignatures = errs.Class("not enough signatures")

	// NotConnected means a user-initiated send could not leave the node
	// because the node has no usable connections for the destination.
	NotConnected = errs.Class("not connected")

	// InvalidState means an action was attempted from a state that does
	// not permit it.
	InvalidState = errs.Class("invalid state")

	// UnknownInternal covers an internal message type this node does not
	// recognize; the fingerprint is still added to the handled filter.
	UnknownInternal = errs.Class("unknown internal message")

	// RelayFull means the relay map is at its MAX_RELAYS capacity.
	RelayFull = errs.Class("relay map full")
)
