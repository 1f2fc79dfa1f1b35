// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/groupnet/routing/internal/routingerrs"
	"github.com/groupnet/routing/pkg/identity"
	"github.com/groupnet/routing/pkg/routing"
	"github.com/groupnet/routing/pkg/transport"
)

// HandleTransportEvent dispatches one event off the transport queue (spec
// §2, §5).
func (c *Core) HandleTransportEvent(ctx context.Context, ev transport.Event) {
	defer mon.Task()(&ctx)(nil)

	switch ev.Kind {
	case transport.EventNewMessage:
		c.handleFrame(ctx, ev.Connection, ev.Payload)
	case transport.EventOnConnect:
		c.handleOnConnect(ctx, ev)
	case transport.EventOnAccept:
		c.log.Debug("accepted connection", zap.Uint64("conn", uint64(ev.Connection)))
	case transport.EventLostConnection:
		c.handleLostConnection(ctx, ev.Connection)
	case transport.EventBootstrapFinished:
		c.handleBootstrapFinished(ctx)
	case transport.EventExternalEndpoints:
		c.log.Debug("external endpoints discovered", zap.Strings("endpoints", ev.Endpoints))
	case transport.EventHolePunch, transport.EventRendezvous:
		// Not handled by this core (spec §6).
	default:
		c.log.Debug("ignored unknown transport event", zap.Int("kind", int(ev.Kind)))
	}
}

func (c *Core) handleFrame(ctx context.Context, conn transport.Connection, payload []byte) {
	tag, body, err := decodeFrame(payload)
	if err != nil {
		c.log.Debug("dropped unparseable frame", zap.Error(err))
		return
	}
	switch tag {
	case frameTagSigned:
		sm, err := c.codec.DecodeSigned(body)
		if err != nil {
			c.log.Debug("dropped malformed signed message", zap.Error(err))
			return
		}
		c.processSignedMessage(ctx, conn, sm)
	case frameTagDirect:
		dm, err := c.codec.DecodeDirect(body)
		if err != nil {
			c.log.Debug("dropped malformed direct message", zap.Error(err))
			return
		}
		c.handleDirectMessage(ctx, conn, dm)
	default:
		c.log.Debug("dropped frame with unknown tag", zap.Uint8("tag", tag))
	}
}

// processSignedMessage runs the seven-step ingress pipeline of spec §4.2:
// parse, dedup, opportunistic cache, forward, authority check, accumulate,
// dispatch.
func (c *Core) processSignedMessage(ctx context.Context, from transport.Connection, sm routing.SignedMessage) {
	// Step 1: parse — already done by the caller.

	// Step 2: dedup. The claimant filter rejects a (message, claimant) pair
	// already seen; the handled filter rejects a message this node has
	// already fully processed regardless of claimant.
	if c.handledFilter.Contains(sm.HandledKey()) {
		return
	}
	if c.claimantFilter.Insert(sm.Fingerprint()) {
		return
	}
	if !c.verifyClaimant(sm) {
		c.log.Debug("dropped message with invalid claimant signature")
		return
	}

	// A verified Client claimant proves ownership of that public key over
	// this connection: the "successful identify exchange" spec §3's relay
	// map lifecycle names. Register (or refresh) the relay entry so a
	// later reply addressed to Client(_, public_key) can reach it directly
	// (spec §4.3 direct relay). A full relay map drops the connection
	// rather than the message (spec §3 "full-map insertion drops the
	// incoming connection", spec §8 scenario S6).
	if from != 0 && sm.Claimant.IsClient() {
		if pub, err := sm.Claimant.AsClient(); err == nil {
			if err := c.registry.AddRelay(pub, from); err != nil {
				c.log.Debug("relay map full, dropping client connection", zap.Error(err))
				if dropErr := c.transport.DropConnection(from); dropErr != nil {
					c.log.Debug("failed to drop connection over relay cap", zap.Error(dropErr))
				}
				return
			}
		}
	}

	msg := sm.Message

	// Step 3: opportunistic data cache. A cached ExternalResponse short
	// circuits a matching ExternalRequest without consuming routing-table
	// state; an ExternalResponse passing through is cached for later.
	if ext, ok := msg.Content.External(); ok {
		if msg.Content.IsExternalRequest() {
			if cached, hit := c.dataCache.Get(ext.Kind, ext.Key); hit {
				c.replyFromCache(msg, ext, cached, sm.Token())
				return
			}
		} else if msg.Content.IsExternalResponse() {
			c.dataCache.Put(ext.Kind, ext.Key, ext.Payload)
		}
	}

	// Step 4: forward. Messages not destined for us are relayed onward
	// regardless of whether we will also accumulate or act on them (spec
	// §9: forwarding is independent of accumulation).
	c.forwardIfNotOurs(sm)

	// Step 5: authority check. A group-addressed message is only ours to
	// accumulate if our name is within our own close-group range for its
	// target; a single-node authority must name us exactly.
	if !c.authorityMatches(msg.ToAuthority) {
		return
	}

	// Step 6: accumulate. Group authorities require a distinct-claimant
	// quorum; single-node authorities act on the very first copy.
	var tokens []routing.SignedToken
	if msg.ToAuthority.IsGroup() {
		table, err := c.requireTable()
		quorum := c.cfg.QuorumSize
		if err == nil {
			quorum = routing.Quorum(table.Size(), c.cfg.QuorumSize)
		}
		reached, toks := c.accumulator.Add(sm, quorum)
		if !reached {
			return
		}
		tokens = toks
	} else {
		tokens = []routing.SignedToken{sm.Token()}
	}

	c.handledFilter.Insert(sm.HandledKey())

	// Step 7: dispatch.
	c.dispatch(ctx, msg, tokens)
}

// verifyClaimant checks sm.Signature against sm.Serialized() using the
// claimant's public key: the client's own key for a Client claimant, or the
// stored public id for a Node claimant (spec §4.2 step 2).
func (c *Core) verifyClaimant(sm routing.SignedMessage) bool {
	claimant := sm.Claimant
	if claimant.IsClient() {
		pub, err := claimant.AsClient()
		if err != nil {
			return false
		}
		return identity.Verify(pub, sm.Serialized(), sm.Signature)
	}

	name, err := claimant.AsNode()
	if err != nil {
		return false
	}
	if pid, ok := c.publicIDCache.Get(name); ok {
		return identity.Verify(pid.SigningKey, sm.Serialized(), sm.Signature)
	}
	if c.table != nil {
		if pid, ok := c.table.LookUpPublicID(name); ok {
			return identity.Verify(pid.SigningKey, sm.Serialized(), sm.Signature)
		}
	}
	return false
}

// authorityMatches reports whether to is an authority this node currently
// holds: our exact identity for a single-node authority, or close-group
// range membership for a group authority.
func (c *Core) authorityMatches(to routing.Authority) bool {
	if to.IsClientAuthority() {
		// Only relevant when we are ourselves the client, handled by the
		// caller's own SignedMessage path, not via ingress.
		return false
	}
	if !to.IsGroup() {
		return c.identity.IsNode() && to.Name() == c.identity.Name()
	}
	if c.table == nil {
		return false
	}
	return c.table.AddressInOurCloseGroupRange(to.Name())
}

// forwardIfNotOurs relays sm towards its destination's close group when we
// are not its final authority, independent of whether we also accumulate
// it locally (spec §9). The original envelope (claimant, signature) is
// preserved verbatim; a forwarding node never re-signs.
func (c *Core) forwardIfNotOurs(sm routing.SignedMessage) {
	if c.table == nil {
		return
	}
	to := sm.Message.ToAuthority
	if to.IsClientAuthority() {
		return
	}
	// A single-node authority addressed exactly to us has nowhere further
	// to go; a group authority is always forwarded on, independent of
	// whether we also accumulate it (spec §9).
	if !to.IsGroup() && to.Name() == c.table.Self().PublicID.Name {
		return
	}
	c.routeOnward(sm)
}

func (c *Core) handleLostConnection(ctx context.Context, conn transport.Connection) {
	c.registry.DropBootstrap(conn)
	c.registry.DropRelay(conn)
	if c.table != nil {
		if name, ok := c.table.DropConnection(conn); ok {
			c.log.Info("lost peer", zap.String("name", name.String()))
			c.broadcastChurn(ctx)
		}
	}
}

func (c *Core) handleBootstrapFinished(ctx context.Context) {
	if c.registry.HasBootstrap() {
		c.transition(routing.TransitionBootstrapIdentify)
		return
	}
	c.log.Warn("bootstrap finished with no successful identify")
}

func (c *Core) handleOnConnect(ctx context.Context, ev transport.Event) {
	if ev.Token == 0 {
		// Token 0 is reserved for bootstrap connects (spec §4.7): the peer
		// identifies itself over the connection once established rather
		// than via the transport-level token.
		if ev.Err != nil {
			c.log.Debug("bootstrap connect failed", zap.Error(ev.Err))
			return
		}
		// Spec §3 "Peer records": at most one bootstrap entry is expected
		// in the current state machine; a second identification while one
		// is already held closes the offending connection instead of
		// replacing the first (spec §8 scenario S4).
		if c.registry.HasBootstrap() {
			c.log.Debug("dropping second bootstrap identify", zap.Uint64("conn", uint64(ev.Connection)))
			if err := c.transport.DropConnection(ev.Connection); err != nil {
				c.log.Debug("failed to drop second bootstrap connection", zap.Error(err))
			}
			return
		}
		c.registry.AddBootstrap(ev.Connection, routing.Name{})
		return
	}

	name, ok := c.pendingTokens[ev.Token]
	if !ok {
		return
	}
	delete(c.pendingTokens, ev.Token)
	if ev.Err != nil {
		c.log.Debug("connect attempt failed", zap.String("name", name.String()), zap.Error(ev.Err))
		return
	}
	c.onConnectEstablished(ctx, name, ev.Connection)
}

// replyFromCache answers an ExternalRequest out of the opportunistic cache
// without touching the routing table (spec §4.2 step 3). The request's own
// token is echoed into the reply so the requester's ExternalResponse
// dispatch check (spec §4.2) can authenticate it exactly as it would a
// reply from the request's true authority.
func (c *Core) replyFromCache(msg routing.RoutingMessage, ext routing.ExternalPayload, cached []byte, reqToken routing.SignedToken) {
	resp := routing.NewExternalResponse(routing.ExternalPayload{
		Kind:         ext.Kind,
		Op:           ext.Op,
		Key:          ext.Key,
		Payload:      cached,
		RequestToken: &reqToken,
	})
	rm := routing.RoutingMessage{
		FromAuthority: msg.ToAuthority,
		ToAuthority:   msg.FromAuthority,
		Content:       resp,
	}
	if err := c.sendRoutingMessage(rm); err != nil {
		c.log.Debug("failed to answer from cache", zap.Error(err))
	}
}

// dispatch handles the fully-accumulated message (spec §4.2 step 7),
// branching by content kind into the relocation, connect, refresh and
// external-event paths.
func (c *Core) dispatch(ctx context.Context, msg routing.RoutingMessage, tokens []routing.SignedToken) {
	content := msg.Content

	switch {
	case content.IsInternalRequest():
		c.dispatchInternalRequest(ctx, msg, tokens)
	case content.IsInternalResponse():
		c.dispatchInternalResponse(ctx, msg, tokens)
	case content.IsExternalRequest():
		var token *routing.SignedToken
		if len(tokens) > 0 {
			token = &tokens[0]
		}
		c.emit(routing.Event{
			Kind:          routing.EventRequest,
			Request:       content,
			OurAuthority:  msg.ToAuthority,
			FromAuthority: msg.FromAuthority,
			ResponseToken: token,
		})
	case content.IsExternalResponse():
		if !c.externalResponseAuthenticated(msg) {
			c.log.Debug("dropped external response failing token/authority check")
			return
		}
		c.emit(routing.Event{
			Kind:          routing.EventResponse,
			Response:      content,
			OurAuthority:  msg.ToAuthority,
			FromAuthority: msg.FromAuthority,
		})
	default:
		c.log.Debug("dispatch: content with no recognized kind")
	}
}

// externalResponseAuthenticated implements spec §4.2's ExternalResponse
// check: "if the response carries a signed token it must verify against
// our key; otherwise the destination must land in our close-group range"
// (`routing_node.rs:1254`, `handle_external_response`).
func (c *Core) externalResponseAuthenticated(msg routing.RoutingMessage) bool {
	ext, ok := msg.Content.External()
	if !ok {
		return false
	}
	if ext.RequestToken != nil {
		return identity.Verify(c.identity.PublicKey(), ext.RequestToken.Serialized, ext.RequestToken.Signature)
	}
	return msg.ToAuthority.IsGroup() && c.table != nil && c.table.AddressInOurCloseGroupRange(msg.ToAuthority.Name())
}

func (c *Core) dispatchInternalRequest(ctx context.Context, msg routing.RoutingMessage, tokens []routing.SignedToken) {
	content := msg.Content
	switch {
	case content.IsRelocatedNetworkName():
		req, _ := content.AsRelocatedNetworkNameRequest()
		c.handleRelocatedNetworkNameRequest(ctx, msg, req)
		return
	}
	if rn, ok := content.AsRequestNetworkName(); ok {
		c.handleRequestNetworkName(ctx, msg, rn, tokens)
		return
	}
	if cr, ok := content.AsConnectRequest(); ok {
		c.handleConnectRequest(ctx, msg, cr, tokens)
		return
	}
	if rf, ok := content.AsRefresh(); ok {
		c.handleRefresh(ctx, msg, rf, tokens)
		return
	}
	c.log.Debug("unrecognized internal request", zap.Error(routingerrs.UnknownInternal.New("")))
}

func (c *Core) dispatchInternalResponse(ctx context.Context, msg routing.RoutingMessage, tokens []routing.SignedToken) {
	content := msg.Content
	if content.IsRelocatedNetworkName() {
		resp, _ := content.AsRelocatedNetworkNameResponse()
		c.handleRelocatedNetworkNameResponse(ctx, msg, resp)
		return
	}
	if cr, ok := content.AsConnectResponse(); ok {
		c.handleConnectResponse(ctx, msg, cr)
		return
	}
	c.log.Debug("unrecognized internal response", zap.Error(routingerrs.UnknownInternal.New("")))
}
