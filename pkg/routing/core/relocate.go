// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/groupnet/routing/pkg/identity"
	"github.com/groupnet/routing/pkg/routing"
)

// PromoteSeed performs the Disconnected->Relocated self-promotion of the
// first node on an otherwise empty network (spec §4.1, §4.4): it adopts a
// name derived from its own key directly, skipping the relocation
// round-trip since there is no close group yet to run it against.
func (c *Core) PromoteSeed() {
	if c.state != routing.Disconnected {
		c.log.Debug("PromoteSeed ignored: not Disconnected", zap.Stringer("state", c.state))
		return
	}
	name := c.identity.PromoteSeed()
	c.table = c.tableFactory(routing.NodeInfo{PublicID: c.identity.PublicID()})
	c.transition(routing.TransitionSeedPromotion)
	c.log.Info("promoted to seed node", zap.String("name", name.String()))
}

// RequestNetworkName sends this (still client) identity's relocation
// request to its own name's NaeManager group, the first step of the
// relocation handshake proper (spec §4.4).
func (c *Core) RequestNetworkName() error {
	if c.identity.IsNode() {
		return Error.New("identity is already relocated")
	}
	proxyName, ok := c.registry.BootstrapPeerName()
	if !ok {
		return Error.New("no bootstrap connection to relay through")
	}
	rm := routing.RoutingMessage{
		FromAuthority: routing.ClientAuthority(proxyName, c.identity.PublicKey()),
		ToAuthority:   routing.NaeManagerAuthority(c.identity.Name()),
		Content:       routing.NewRequestNetworkName(routing.RequestNetworkName{PublicID: c.identity.PublicID()}),
	}
	return c.sendRoutingMessage(rm)
}

// handleRequestNetworkName is the NaeManager group's side: derive the new
// name by hashing the client's public key together with our own close
// group (spec §4.4 "relocated_name = hash(hash(public_key) +
// close_group_hash)"), then relay the relocated identity, the client's
// original from-authority and its original signed token to the group that
// will own the client's new name.
func (c *Core) handleRequestNetworkName(ctx context.Context, msg routing.RoutingMessage, req routing.RequestNetworkName, tokens []routing.SignedToken) {
	table, err := c.requireTable()
	if err != nil {
		return
	}
	if len(tokens) == 0 {
		return
	}
	relocated := deriveRelocatedName(req.PublicID, table)
	relocatedID := routing.PublicID{Name: relocated, SigningKey: req.PublicID.SigningKey}

	fwd := routing.RoutingMessage{
		FromAuthority: routing.NaeManagerAuthority(c.identity.Name()),
		ToAuthority:   routing.NaeManagerAuthority(relocated),
		Content: routing.NewRelocatedNetworkNameRequest(routing.RelocatedNetworkNameRequest{
			RelocatedID:       relocatedID,
			OriginalToken:     tokens[0],
			OriginalAuthority: msg.FromAuthority,
		}),
	}
	if err := c.sendRoutingMessage(fwd); err != nil {
		c.log.Debug("failed to forward relocated name request", zap.Error(err))
	}
}

// handleRelocatedNetworkNameRequest is the destination group's side: it now
// holds the new name's close group, so it replies to the client directly
// with the relocated identity, that close group, and the client's own
// original token so the client can confirm the round trip (spec §4.4).
func (c *Core) handleRelocatedNetworkNameRequest(ctx context.Context, msg routing.RoutingMessage, req routing.RelocatedNetworkNameRequest) {
	table, err := c.requireTable()
	if err != nil {
		return
	}
	closeGroup := make([]routing.PublicID, 0, len(table.OurCloseGroup()))
	for _, n := range table.OurCloseGroup() {
		closeGroup = append(closeGroup, n.PublicID)
	}
	c.publicIDCache.Put(req.RelocatedID)

	resp := routing.RoutingMessage{
		FromAuthority: routing.NaeManagerAuthority(req.RelocatedID.Name),
		ToAuthority:   req.OriginalAuthority,
		Content: routing.NewRelocatedNetworkNameResponse(routing.RelocatedNetworkNameResponse{
			RelocatedID:   req.RelocatedID,
			CloseGroup:    closeGroup,
			OriginalToken: req.OriginalToken,
		}),
	}
	if err := c.sendRoutingMessage(resp); err != nil {
		c.log.Debug("failed to send relocated name response", zap.Error(err))
	}
}

// handleRelocatedNetworkNameResponse is the client's side: verify the
// round trip, adopt the new name, build a fresh routing table for it,
// transition to Relocated, and start connecting to the reported close
// group (spec §4.1, §4.4, §4.7, §8 property 5; `routing_node.rs:851-867`).
func (c *Core) handleRelocatedNetworkNameResponse(ctx context.Context, msg routing.RoutingMessage, resp routing.RelocatedNetworkNameResponse) {
	if c.identity.IsNode() {
		return
	}
	if !identity.Verify(c.identity.PublicKey(), resp.OriginalToken.Serialized, resp.OriginalToken.Signature) {
		c.log.Debug("dropped relocation response with invalid original-token signature")
		return
	}
	original, err := c.codec.DecodeRoutingMessage(resp.OriginalToken.Serialized)
	if err != nil {
		c.log.Debug("dropped relocation response with undecodable original token", zap.Error(err))
		return
	}
	originalReq, ok := original.Content.AsRequestNetworkName()
	if !ok || !originalReq.PublicID.Equal(c.identity.PublicID()) {
		c.log.Debug("dropped relocation response whose original request was not ours")
		return
	}
	if !c.identity.PublicID().WithName(resp.RelocatedID.Name).Equal(resp.RelocatedID) {
		c.log.Debug("dropped relocation response: relocated id does not match our identity")
		return
	}
	if err := c.identity.Relocate(resp.RelocatedID.Name); err != nil {
		c.log.Debug("relocate failed", zap.Error(err))
		return
	}
	for _, pid := range resp.CloseGroup {
		c.publicIDCache.Put(pid)
	}
	c.table = c.tableFactory(routing.NodeInfo{PublicID: c.identity.PublicID()})
	c.transition(routing.TransitionRelocationVerified)
	c.log.Info("relocated", zap.String("name", resp.RelocatedID.Name.String()))

	for _, pid := range resp.CloseGroup {
		c.initiateConnect(ctx, pid)
	}
}

// deriveRelocatedName computes hash(hash(public_key) || close_group_hash),
// the relocation formula of spec §4.4.
func deriveRelocatedName(pubID routing.PublicID, rt routing.RoutingTable) routing.Name {
	clientNameHash := routing.NameFromPublicKey(pubID.SigningKey)
	var groupBytes []byte
	for _, n := range rt.OurCloseGroup() {
		groupBytes = append(groupBytes, n.PublicID.Name[:]...)
	}
	groupHash := routing.NameFromPublicKey(groupBytes)
	combined := append(append([]byte(nil), clientNameHash[:]...), groupHash[:]...)
	return routing.NameFromPublicKey(combined)
}
