// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package registry holds the bootstrap map and relay map described in spec
// §3 "Peer records". Both are owned exclusively by the core; per spec §9
// "Cyclic ownership" this is a pair of plain mappings with no
// back-pointers into the transport.
package registry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/groupnet/routing/internal/routingerrs"
	"github.com/groupnet/routing/pkg/routing"
	"github.com/groupnet/routing/pkg/transport"
)

// MaxRelays is the relay map's fixed capacity (spec §6 "MAX_RELAYS = 100").
const MaxRelays = 100

// Registry tracks bootstrap and relay connections.
type Registry struct {
	log *zap.Logger

	mu        sync.Mutex
	bootstrap map[transport.Connection]routing.Name
	relay     map[string]transport.Connection // keyed by client public key
}

// New returns an empty Registry.
func New(log *zap.Logger) *Registry {
	return &Registry{
		log:       log,
		bootstrap: make(map[transport.Connection]routing.Name),
		relay:     make(map[string]transport.Connection),
	}
}

// AddBootstrap records a successful bootstrap identify. Spec §3 expects at
// most one entry; a second identify while one is already present is the
// caller's cue to drop the offending connection instead of calling this.
func (r *Registry) AddBootstrap(conn transport.Connection, peer routing.Name) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bootstrap[conn] = peer
}

// HasBootstrap reports whether any bootstrap entry is currently held.
func (r *Registry) HasBootstrap() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bootstrap) > 0
}

// BootstrapConnections returns every currently held bootstrap connection.
func (r *Registry) BootstrapConnections() []transport.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]transport.Connection, 0, len(r.bootstrap))
	for c := range r.bootstrap {
		out = append(out, c)
	}
	return out
}

// BootstrapPeerName returns the name of an arbitrary currently held
// bootstrap peer, used as a client's proxy name (spec §3 "Client authority
// carries its proxy's name"). Client mode holds at most one such entry.
func (r *Registry) BootstrapPeerName() (routing.Name, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.bootstrap {
		return name, true
	}
	return routing.Name{}, false
}

// DropBootstrap removes a bootstrap entry.
func (r *Registry) DropBootstrap(conn transport.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bootstrap, conn)
}

// ClearBootstrap drops every bootstrap entry (spec invariant 2: "once the
// state reaches Connected, all bootstrap entries are dropped and the
// bootstrap map stays empty thereafter").
func (r *Registry) ClearBootstrap() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bootstrap = make(map[transport.Connection]routing.Name)
}

// AddRelay inserts a client's connection into the relay map. Full-map
// insertion is refused (spec §3): the caller is expected to drop the
// incoming connection when this returns an error.
func (r *Registry) AddRelay(publicKey []byte, conn transport.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := string(publicKey)
	if _, exists := r.relay[key]; exists {
		r.relay[key] = conn
		return nil
	}
	if len(r.relay) >= MaxRelays {
		return routingerrs.RelayFull.New("relay map at capacity (%d)", MaxRelays)
	}
	r.relay[key] = conn
	return nil
}

// LookUpRelay returns the connection for a client's public key.
func (r *Registry) LookUpRelay(publicKey []byte) (transport.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.relay[string(publicKey)]
	return conn, ok
}

// DropRelay removes whatever relay entry is reachable on conn, if any.
func (r *Registry) DropRelay(conn transport.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, c := range r.relay {
		if c == conn {
			delete(r.relay, k)
		}
	}
}

// RelayCount returns the number of relay entries currently held.
func (r *Registry) RelayCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.relay)
}
