// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package core

import (
	"bytes"
	"context"
	"encoding/gob"

	"go.uber.org/zap"

	"github.com/groupnet/routing/pkg/routing"
	"github.com/groupnet/routing/pkg/transport"
	"github.com/groupnet/routing/pkg/wire"
)

const churnKind = "churn"

// broadcastChurn sends our current close group to every member of that
// close group and emits EventChurn (spec §4.6). It runs after every peer
// added to or dropped from the routing table; whether that peer falls in
// our close-group range is not checked. Churn deliberately bypasses
// the signed/accumulated routing path: it is a direct, unrouted broadcast.
func (c *Core) broadcastChurn(ctx context.Context) {
	if c.table == nil {
		return
	}
	group := c.table.OurCloseGroup()
	ids := make([]routing.PublicID, 0, len(group))
	for _, n := range group {
		ids = append(ids, n.PublicID)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ids); err != nil {
		c.log.Debug("failed to encode churn payload", zap.Error(err))
		return
	}
	for _, n := range group {
		if err := c.sendDirect(n.Connection, churnKind, buf.Bytes()); err != nil {
			c.log.Debug("failed to send churn", zap.String("peer", n.PublicID.Name.String()), zap.Error(err))
		}
	}
	c.emit(routing.Event{Kind: routing.EventChurn, CloseGroup: ids})
}

// handleDirectMessage dispatches an unrouted direct message (spec §6). The
// only kind this core currently recognizes is Churn.
func (c *Core) handleDirectMessage(ctx context.Context, conn transport.Connection, dm wire.DirectMessage) {
	switch dm.Kind {
	case churnKind:
		c.handleChurn(ctx, dm.Payload)
	default:
		c.log.Debug("dropped direct message of unknown kind", zap.String("kind", dm.Kind))
	}
}

func (c *Core) handleChurn(ctx context.Context, payload []byte) {
	var ids []routing.PublicID
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&ids); err != nil {
		c.log.Debug("dropped malformed churn payload", zap.Error(err))
		return
	}
	for _, pid := range ids {
		c.publicIDCache.Put(pid)
		c.initiateConnect(ctx, pid)
	}
	c.emit(routing.Event{Kind: routing.EventChurn, CloseGroup: ids})
}

// handleRefresh buckets an incoming Refresh payload by (type_tag,
// authority, cause) and fires the user-facing events spec §4.5 describes:
// EventDoRefresh on first arrival of a bucket, EventRefresh once quorum is
// reached for it.
func (c *Core) handleRefresh(ctx context.Context, msg routing.RoutingMessage, rf routing.Refresh, tokens []routing.SignedToken) {
	if len(tokens) == 0 {
		return
	}
	if !msg.ToAuthority.IsGroup() {
		c.log.Debug("dropped refresh arriving under a non-group authority")
		return
	}
	quorum := c.cfg.QuorumSize
	if table, err := c.requireTable(); err == nil {
		quorum = routing.Quorum(table.Size(), c.cfg.QuorumSize)
	}
	isFirst, released := c.refreshAcc.Add(rf.TypeTag, msg.ToAuthority, rf.Cause, tokens[0].Claimant, rf.Payload, quorum)
	if isFirst {
		c.emit(routing.Event{
			Kind:      routing.EventDoRefresh,
			TypeTag:   rf.TypeTag,
			Authority: msg.ToAuthority,
			Cause:     rf.Cause,
		})
	}
	if released != nil {
		c.emit(routing.Event{
			Kind:      routing.EventRefresh,
			TypeTag:   rf.TypeTag,
			Authority: msg.ToAuthority,
			Payloads:  released,
		})
	}
}
