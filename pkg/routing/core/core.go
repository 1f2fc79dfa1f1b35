// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package core is the routing node state machine: the single-threaded
// event loop multiplexing the user action queue and the transport event
// queue (spec §2, §5), wrapping the ingress pipeline, send path,
// relocation/connect/churn protocols and connection bookkeeping that make
// up the rest of this repository.
package core

import (
	"context"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	monkit "gopkg.in/spacemonkeygo/monkit.v2"

	"github.com/groupnet/routing/internal/cache"
	"github.com/groupnet/routing/internal/filter"
	"github.com/groupnet/routing/internal/registry"
	"github.com/groupnet/routing/internal/routingerrs"
	"github.com/groupnet/routing/pkg/identity"
	"github.com/groupnet/routing/pkg/routing"
	"github.com/groupnet/routing/pkg/transport"
	"github.com/groupnet/routing/pkg/wire"
)

var mon = monkit.Package()

// Error is the class for core-level errors not otherwise classified by
// internal/routingerrs.
var Error = errs.Class("core error")

// pollInterval is the cooperative yield of spec §5: "the only cooperative
// yield is the 1ms sleep and the channel receive attempts."
const pollInterval = time.Millisecond

// TableFactory builds a fresh RoutingTable for self once the identity has
// a network name (spec S3: a newly constructed, empty routing table keyed
// on the new name). The concrete bucket implementation is an external
// detail the core does not otherwise know about (spec §3, §6).
type TableFactory func(self routing.NodeInfo) routing.RoutingTable

// Config bounds the core's tunables; all have spec-derived defaults.
type Config struct {
	GroupSize         int
	QuorumSize        int
	BootstrapContacts []string
}

// DefaultConfig returns the spec's default constants.
func DefaultConfig() Config {
	return Config{
		GroupSize:  routing.DefaultGroupSize,
		QuorumSize: routing.DefaultQuorumSize,
	}
}

// Core is the routing node state machine.
type Core struct {
	log *zap.Logger
	cfg Config

	identity     *identity.Identity
	transport    transport.Service
	codec        wire.Codec
	tableFactory TableFactory

	state routing.State
	table routing.RoutingTable // nil until state >= Relocated

	registry         *registry.Registry
	claimantFilter   *filter.TimedSet
	handledFilter    *filter.TimedSet
	connectionFilter *filter.TimedSet
	accumulator      *routing.Accumulator
	refreshAcc       *routing.RefreshAccumulator
	dataCache        *cache.DataCache
	publicIDCache    *routing.PublicIDCache

	nextConnectToken uint32
	ourEndpoints     []string

	// pendingTokens correlates an outbound transport.Connect's token with
	// the name we dialed it for; the transport layer itself only knows
	// opaque endpoints (spec §4.7).
	pendingTokens map[transport.Token]routing.Name

	actions         <-chan routing.Action
	transportEvents <-chan transport.Event
	events          chan<- routing.Event
}

// New constructs a Core in the Disconnected state.
func New(
	log *zap.Logger,
	id *identity.Identity,
	svc transport.Service,
	codec wire.Codec,
	tableFactory TableFactory,
	cfg Config,
	actions <-chan routing.Action,
	transportEvents <-chan transport.Event,
	events chan<- routing.Event,
) *Core {
	if cfg.GroupSize == 0 {
		cfg.GroupSize = routing.DefaultGroupSize
	}
	if cfg.QuorumSize == 0 {
		cfg.QuorumSize = routing.DefaultQuorumSize
	}
	return &Core{
		log:              log,
		cfg:              cfg,
		identity:         id,
		transport:        svc,
		codec:            codec,
		tableFactory:     tableFactory,
		state:            routing.Disconnected,
		registry:         registry.New(log.Named("registry")),
		claimantFilter:   filter.NewTimedSet(routing.ClaimantFilterTTL),
		handledFilter:    filter.NewTimedSet(routing.HandledFilterTTL),
		connectionFilter: filter.NewTimedSet(routing.ConnectionFilterTTL),
		accumulator:      routing.NewAccumulator(),
		refreshAcc:       routing.NewRefreshAccumulator(),
		dataCache:        cache.New(),
		publicIDCache:    routing.NewPublicIDCache(),
		nextConnectToken: 1, // 0 is reserved for bootstrap, spec §4.7/§6
		pendingTokens:    make(map[transport.Token]routing.Name),
		actions:          actions,
		transportEvents:  transportEvents,
		events:           events,
	}
}

// State returns the current lifecycle state.
func (c *Core) State() routing.State { return c.state }

// Start brings the transport up: it opens a default acceptor, kicks off
// external endpoint discovery, and (if any bootstrap contacts are
// configured) starts the bootstrap handshake. Endpoint/bootstrap outcomes
// arrive later as transport events.
func (c *Core) Start(ctx context.Context) error {
	endpoints, err := c.transport.StartAccepting(ctx)
	if err != nil {
		return Error.Wrap(err)
	}
	c.ourEndpoints = endpoints

	if err := c.transport.DiscoverExternalEndpoints(ctx); err != nil {
		c.log.Debug("external endpoint discovery failed to start", zap.Error(err))
	}

	if len(c.cfg.BootstrapContacts) > 0 {
		if err := c.transport.Bootstrap(ctx, c.cfg.BootstrapContacts); err != nil {
			return Error.Wrap(err)
		}
	}
	return nil
}

// Run is the cooperative event loop of spec §2/§5: non-blockingly poll the
// action queue, then non-blockingly poll the transport queue, then sleep.
// It returns when ctx is cancelled or the core reaches Terminated.
func (c *Core) Run(ctx context.Context) error {
	for {
		if c.state == routing.Terminated {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case action := <-c.actions:
			c.HandleAction(ctx, action)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.transportEvents:
			c.HandleTransportEvent(ctx, ev)
			continue
		default:
		}

		time.Sleep(pollInterval)
	}
}

func (c *Core) emit(ev routing.Event) {
	select {
	case c.events <- ev:
	default:
		c.log.Warn("event channel full, dropping event", zap.Int("kind", int(ev.Kind)))
	}
}

func (c *Core) transition(t routing.Transition) {
	next, err := c.state.Next(t)
	if err != nil {
		c.log.Debug("ignored invalid transition", zap.Stringer("from", c.state), zap.Error(err))
		return
	}
	prev := c.state
	c.state = next
	c.log.Info("state transition", zap.Stringer("from", prev), zap.Stringer("to", next))

	switch next {
	case routing.Connected, routing.GroupConnected:
		if prev != routing.Connected && prev != routing.GroupConnected {
			c.registry.ClearBootstrap()
		}
	}

	switch next {
	case routing.Bootstrapped:
		c.emit(routing.Event{Kind: routing.EventBootstrapped})
	case routing.Connected:
		c.emit(routing.Event{Kind: routing.EventConnected})
	}
}

// nextToken returns a fresh, non-zero transport connect token.
func (c *Core) nextToken() transport.Token {
	t := c.nextConnectToken
	c.nextConnectToken++
	if c.nextConnectToken == 0 {
		c.nextConnectToken = 1
	}
	return transport.Token(t)
}

// requireTable returns an error if the core has no routing table yet.
func (c *Core) requireTable() (routing.RoutingTable, error) {
	if c.table == nil {
		return nil, routingerrs.InvalidState.New("no routing table before Relocated")
	}
	return c.table, nil
}
