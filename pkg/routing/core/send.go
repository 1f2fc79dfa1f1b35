// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package core

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/groupnet/routing/internal/routingerrs"
	"github.com/groupnet/routing/pkg/routing"
	"github.com/groupnet/routing/pkg/transport"
	"github.com/groupnet/routing/pkg/wire"
)

// sendRoutingMessage signs rm as this identity and routes it out by
// whichever of the three modes spec §4.3 describes applies: client-mode
// broadcast, direct relay, or routed fan-out (with local re-entry when we
// are ourselves in the destination's close-group range).
func (c *Core) sendRoutingMessage(rm routing.RoutingMessage) error {
	body, err := c.codec.EncodeRoutingMessage(rm)
	if err != nil {
		return err
	}
	sm := routing.SignedMessage{
		Message:   rm,
		Claimant:  c.identity.Address(),
		Signature: c.identity.Sign(body),
	}
	sm = sm.WithSerialized(body)
	return c.routeSigned(sm)
}

// routeOnward re-transmits an already-signed message received from
// elsewhere, without touching its claimant or signature.
func (c *Core) routeOnward(sm routing.SignedMessage) {
	if err := c.routeSigned(sm); err != nil {
		c.log.Debug("failed to forward message", zap.Error(err))
	}
}

func (c *Core) routeSigned(sm routing.SignedMessage) error {
	frame, err := c.codec.EncodeSigned(sm)
	if err != nil {
		return err
	}
	framed := encodeFrame(frameTagSigned, frame)

	// Mode 1: client-mode broadcast. A client identity has no routing
	// table of its own and reaches the network only through its bootstrap
	// connections (spec §4.3).
	if !c.identity.IsNode() {
		return c.broadcastOverBootstrap(framed)
	}

	to := sm.Message.ToAuthority

	// Mode 2: direct relay. A Client authority addresses a specific
	// public key that may be sitting on our relay map.
	if to.IsClientAuthority() {
		pub, err := to.PublicKey()
		if err != nil {
			return err
		}
		conn, ok := c.registry.LookUpRelay(pub)
		if !ok {
			return routingerrs.NotConnected.New("no relay connection for client")
		}
		return c.transport.SendOnConnection(conn, framed)
	}

	table, err := c.requireTable()
	if err != nil {
		return err
	}

	// A single-node authority we ourselves hold never needs to leave the
	// node; the caller already processed it as part of ingress/dispatch.
	if !to.IsGroup() && table.Self().PublicID.Name == to.Name() {
		return nil
	}

	// Local re-entry: if our own name is within our close-group range for
	// a group authority, we are one of its claimants and should accumulate
	// the message ourselves in addition to fanning it out (spec §4.3).
	if to.IsGroup() && table.AddressInOurCloseGroupRange(to.Name()) {
		c.processSignedMessage(context.Background(), 0, sm)
	}

	// Mode 3: routed fan-out to the target nodes' closest connections.
	return c.fanOutToTargets(table.TargetNodes(to.Name()), framed)
}

func (c *Core) broadcastOverBootstrap(framed []byte) error {
	conns := c.registry.BootstrapConnections()
	if len(conns) == 0 {
		return routingerrs.NotConnected.New("no bootstrap connection")
	}
	var g errgroup.Group
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			return c.transport.SendOnConnection(conn, framed)
		})
	}
	return g.Wait()
}

// fanOutToTargets sends framed to every target's connection in parallel,
// tolerating individual failures: spec §4.3's routed fan-out only requires
// that the message reach at least one member of the destination's close
// group, not that every attempt succeed.
func (c *Core) fanOutToTargets(targets []routing.NodeInfo, framed []byte) error {
	if len(targets) == 0 {
		return routingerrs.NotConnected.New("no target nodes for destination")
	}
	var g errgroup.Group
	for _, t := range targets {
		t := t
		g.Go(func() error {
			if err := c.transport.SendOnConnection(t.Connection, framed); err != nil {
				c.log.Debug("fan-out send failed", zap.String("peer", t.PublicID.Name.String()), zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Core) sendDirect(conn transport.Connection, kind string, payload []byte) error {
	dm := wire.DirectMessage{Kind: kind, Payload: payload}
	body, err := c.codec.EncodeDirect(dm)
	if err != nil {
		return err
	}
	return c.transport.SendOnConnection(conn, encodeFrame(frameTagDirect, body))
}
