// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/groupnet/routing/pkg/identity"
	"github.com/groupnet/routing/pkg/routing"
	"github.com/groupnet/routing/pkg/transport"
)

// initiateConnect starts the Connect handshake of spec §4.7 towards peer:
// a routed ConnectRequest carrying our accept endpoints and public id, sent
// to the peer's ManagedNode authority so it reaches them even before any
// direct connection exists. The connection filter suppresses repeat
// attempts within its TTL.
func (c *Core) initiateConnect(ctx context.Context, peer routing.PublicID) {
	if peer.Name == c.identity.Name() {
		return
	}
	if c.table != nil {
		if _, ok := c.table.LookUpConnection(peer.Name); ok {
			return
		}
		if !c.table.WantToAdd(peer.Name) {
			return
		}
	}
	if c.connectionFilter.Insert("out:" + peer.Name.String()) {
		return
	}
	c.publicIDCache.Put(peer)

	rm := routing.RoutingMessage{
		FromAuthority: routing.ManagedNodeAuthority(c.identity.Name()),
		ToAuthority:   routing.ManagedNodeAuthority(peer.Name),
		Content: routing.NewConnectRequest(routing.ConnectRequest{
			Endpoints: c.ourEndpoints,
			PublicID:  c.identity.PublicID(),
		}),
	}
	if err := c.sendRoutingMessage(rm); err != nil {
		c.log.Debug("failed to send connect request", zap.String("peer", peer.Name.String()), zap.Error(err))
	}
}

// handleConnectRequest answers a peer's ConnectRequest with our own
// endpoints and public id (echoing their token for self-verification), then
// starts dialing them at the transport level (spec §4.7). The requester's
// own signed token, collected by ingress's non-group accumulation step,
// must first verify against the public key it claims (spec §4.2 "verify
// the enclosed signed token", `routing_node.rs:975`) before it is echoed
// back in our response.
func (c *Core) handleConnectRequest(ctx context.Context, msg routing.RoutingMessage, req routing.ConnectRequest, tokens []routing.SignedToken) {
	if len(tokens) == 0 {
		return
	}
	requestToken := tokens[0]
	if !identity.Verify(req.PublicID.SigningKey, requestToken.Serialized, requestToken.Signature) {
		c.log.Debug("dropped connect request with invalid token signature", zap.String("peer", req.PublicID.Name.String()))
		return
	}
	if c.table == nil || !c.table.WantToAdd(req.PublicID.Name) {
		return
	}
	if c.connectionFilter.Insert("in:" + req.PublicID.Name.String()) {
		return
	}
	c.publicIDCache.Put(req.PublicID)

	resp := routing.RoutingMessage{
		FromAuthority: routing.ManagedNodeAuthority(c.identity.Name()),
		ToAuthority:   msg.FromAuthority,
		Content: routing.NewConnectResponse(routing.ConnectResponse{
			Endpoints:     c.ourEndpoints,
			PublicID:      c.identity.PublicID(),
			OriginalToken: requestToken,
		}),
	}
	if err := c.sendRoutingMessage(resp); err != nil {
		c.log.Debug("failed to send connect response", zap.Error(err))
	}

	c.dialPeer(ctx, req.PublicID.Name, req.Endpoints)
}

// handleConnectResponse completes the requester's side (spec §4.2 "Connect
// response: verify the enclosed token's signature is ours, verify it
// originated from us", §8 property 4; `routing_node.rs:1026-1032`): the
// echoed OriginalToken must verify against our own signing key, and the
// request it replays must have been sent by us, before we dial the
// responder's reported endpoints.
func (c *Core) handleConnectResponse(ctx context.Context, msg routing.RoutingMessage, resp routing.ConnectResponse) {
	if !identity.Verify(c.identity.PublicKey(), resp.OriginalToken.Serialized, resp.OriginalToken.Signature) {
		c.log.Debug("dropped connect response with invalid original-token signature", zap.String("peer", resp.PublicID.Name.String()))
		return
	}
	original, err := c.codec.DecodeRoutingMessage(resp.OriginalToken.Serialized)
	if err != nil {
		c.log.Debug("dropped connect response with undecodable original token", zap.Error(err))
		return
	}
	if !c.isUsAuthority(original.FromAuthority) {
		c.log.Debug("dropped connect response whose original request was not ours", zap.String("peer", resp.PublicID.Name.String()))
		return
	}

	c.publicIDCache.Put(resp.PublicID)
	c.dialPeer(ctx, resp.PublicID.Name, resp.Endpoints)
}

// isUsAuthority reports whether a single-node authority names this
// identity exactly.
func (c *Core) isUsAuthority(a routing.Authority) bool {
	if a.IsClientAuthority() || a.IsGroup() {
		return false
	}
	return a.Name() == c.identity.Name()
}

func (c *Core) dialPeer(ctx context.Context, name routing.Name, endpoints []string) {
	if len(endpoints) == 0 {
		return
	}
	token := c.nextToken()
	c.pendingTokens[token] = name
	if err := c.transport.Connect(ctx, endpoints, token); err != nil {
		delete(c.pendingTokens, token)
		c.log.Debug("transport connect failed", zap.String("peer", name.String()), zap.Error(err))
	}
}

// onConnectEstablished adds a newly dialed peer to the routing table once
// the transport confirms the connection (spec §4.7 final step), evicting
// whatever peer the table decides to evict and advancing the lifecycle
// state as the table grows (spec §4.1).
func (c *Core) onConnectEstablished(ctx context.Context, name routing.Name, conn transport.Connection) {
	table, err := c.requireTable()
	if err != nil {
		c.log.Debug("connection established with no routing table yet", zap.String("peer", name.String()))
		return
	}
	pid, ok := c.publicIDCache.Get(name)
	if !ok {
		pid = routing.PublicID{Name: name}
	}
	added, evicted, err := table.AddNode(routing.NodeInfo{PublicID: pid, Connection: conn})
	if err != nil {
		c.log.Debug("routing table refused new peer", zap.String("peer", name.String()), zap.Error(err))
		return
	}
	if !added {
		return
	}
	if evicted != nil {
		if err := c.transport.DropConnection(evicted.Connection); err != nil {
			c.log.Debug("failed to drop evicted connection", zap.Error(err))
		}
	}

	size := table.Size()
	if c.state == routing.Relocated && size > 0 {
		c.transition(routing.TransitionFirstNodeAdded)
	}
	if (c.state == routing.Connected || c.state == routing.Relocated) && size >= c.cfg.GroupSize {
		c.transition(routing.TransitionGroupSizeReached)
	}
	c.broadcastChurn(ctx)
}
