// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/groupnet/routing/internal/routingerrs"
	"github.com/groupnet/routing/pkg/routing"
)

// HandleAction dispatches one entry off the user action queue (spec §6
// "User action surface").
func (c *Core) HandleAction(ctx context.Context, action routing.Action) {
	defer mon.Task()(&ctx)(nil)

	switch action.Kind {
	case routing.ActionSendContent:
		c.handleSendContent(action)
	case routing.ActionClientSendContent:
		c.handleClientSendContent(action)
	case routing.ActionSetDataCacheOptions:
		c.dataCache.SetOptions(action.CacheOptions)
	case routing.ActionTerminate:
		c.handleTerminate()
	default:
		c.log.Debug("ignored unknown action", zap.Int("kind", int(action.Kind)))
	}
}

func (c *Core) handleSendContent(action routing.Action) {
	if !c.identity.IsNode() {
		c.failSend(action, routing.ErrorNotConnected)
		return
	}
	rm := routing.RoutingMessage{
		FromAuthority: action.OurAuthority,
		ToAuthority:   action.ToAuthority,
		Content:       action.Content,
	}
	if err := c.sendRoutingMessage(rm); err != nil {
		c.log.Debug("SendContent failed", zap.Error(err))
		c.failSend(action, routing.ErrorNotConnected)
	}
}

func (c *Core) handleClientSendContent(action routing.Action) {
	proxyName, ok := c.registry.BootstrapPeerName()
	if !ok {
		c.failSend(action, routing.ErrorNotConnected)
		return
	}
	rm := routing.RoutingMessage{
		FromAuthority: routing.ClientAuthority(proxyName, c.identity.PublicKey()),
		ToAuthority:   action.ToAuthority,
		Content:       action.Content,
	}
	if err := c.sendRoutingMessage(rm); err != nil {
		c.log.Debug("ClientSendContent failed", zap.Error(err))
		c.failSend(action, routing.ErrorNotConnected)
	}
}

func (c *Core) failSend(action routing.Action, kind routing.InterfaceErrorKind) {
	c.log.Debug("send failed",
		zap.Stringer("code", routingerrs.InterfaceErrorCode(kind)))
	c.emit(routing.Event{
		Kind:         routing.EventFailedRequest,
		Request:      action.Content,
		OurAuthority: action.OurAuthority,
		ToAuthority:  action.ToAuthority,
		FailureKind:  kind,
	})
}

// handleTerminate is idempotent: Action::Terminate from any state always
// reaches Terminated (spec §4.1).
func (c *Core) handleTerminate() {
	if c.state == routing.Terminated {
		return
	}
	c.transition(routing.TransitionTerminate)
	if err := c.transport.Stop(); err != nil {
		c.log.Debug("transport stop failed during terminate", zap.Error(err))
	}
	c.emit(routing.Event{Kind: routing.EventTerminated})
}
