// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package identity holds the long-term key pair and mutable name of a
// single routing core instance.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/zeebo/errs"

	"github.com/groupnet/routing/pkg/routing"
)

// Error is the class for identity-package errors.
var Error = errs.Class("identity error")

// Identity is a long-term Ed25519 key pair and a name. The name is
// immutable once relocated; it starts out equal to NameFromPublicKey and
// may be replaced exactly once, by Relocate, while still bootstrapped.
//
// An Identity is node-valued (IsNode true) only after Relocate has run; up
// to that point it is a client identity (spec §3).
type Identity struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
	name    routing.Name
	isNode  bool
}

// New generates a fresh key pair and derives its initial client name.
func New() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return &Identity{
		public:  pub,
		private: priv,
		name:    routing.NameFromPublicKey(pub),
	}, nil
}

// FromPrivateKey rebuilds an Identity from a persisted Ed25519 private key,
// e.g. loaded from disk across a process restart. The rebuilt identity is
// always client-valued: relocation state is not persisted, so a restarted
// node must bootstrap and relocate again.
func FromPrivateKey(priv ed25519.PrivateKey) (*Identity, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, Error.New("invalid Ed25519 private key size %d", len(priv))
	}
	pub := priv.Public().(ed25519.PublicKey)
	return &Identity{
		public:  pub,
		private: priv,
		name:    routing.NameFromPublicKey(pub),
	}, nil
}

// PrivateKeyBytes returns the raw private key for persistence.
func (id *Identity) PrivateKeyBytes() []byte {
	return append([]byte(nil), id.private...)
}

// PublicKey returns the signing public key.
func (id *Identity) PublicKey() ed25519.PublicKey { return id.public }

// Name returns the identity's current name.
func (id *Identity) Name() routing.Name { return id.name }

// IsNode reports whether this identity has completed relocation.
func (id *Identity) IsNode() bool { return id.isNode }

// PublicID returns the public half of this identity for embedding in
// messages.
func (id *Identity) PublicID() routing.PublicID {
	return routing.PublicID{Name: id.name, SigningKey: append([]byte(nil), id.public...)}
}

// Address returns this identity's claimant Address: Node(name) once
// relocated, Client(public_key) otherwise.
func (id *Identity) Address() routing.Address {
	if id.isNode {
		return routing.NodeAddress(id.name)
	}
	return routing.ClientAddress(id.public)
}

// Relocate assigns the one-shot network name. It is an error to call this
// more than once.
func (id *Identity) Relocate(name routing.Name) error {
	if id.isNode {
		return Error.New("identity already relocated to %s", id.name)
	}
	id.name = name
	id.isNode = true
	return nil
}

// PromoteSeed is the Disconnected->Relocated self-promotion path for the
// first node on the network (spec §4.1): it adopts hash(hash(public_key))
// as its name directly, without a relocation round-trip.
func (id *Identity) PromoteSeed() routing.Name {
	seedName := routing.NameFromPublicKey(id.name[:])
	id.name = seedName
	id.isNode = true
	return seedName
}

// Sign returns a signature over data using the identity's private key.
func (id *Identity) Sign(data []byte) []byte {
	return ed25519.Sign(id.private, data)
}

// Verify reports whether sig is a valid signature over data by pub.
func Verify(pub []byte, data, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), data, sig)
}
