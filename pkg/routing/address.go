// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import "github.com/zeebo/errs"

// addressTag discriminates the closed Address variant set.
type addressTag uint8

const (
	addressNode addressTag = iota + 1
	addressClient
)

// Address is the claimant of a signed message: either a node identified by
// its name, or a client identified by its long-term public key. The set is
// closed; construct with NodeAddress or ClientAddress.
type Address struct {
	tag       addressTag
	name      Name
	publicKey []byte
}

// NodeAddress builds a node-variant Address.
func NodeAddress(name Name) Address {
	return Address{tag: addressNode, name: name}
}

// ClientAddress builds a client-variant Address.
func ClientAddress(publicKey []byte) Address {
	return Address{tag: addressClient, publicKey: append([]byte(nil), publicKey...)}
}

// IsNode reports whether this is the Node variant.
func (a Address) IsNode() bool { return a.tag == addressNode }

// IsClient reports whether this is the Client variant.
func (a Address) IsClient() bool { return a.tag == addressClient }

// AsNode returns the node name, or an error if this is not a Node address.
func (a Address) AsNode() (Name, error) {
	if a.tag != addressNode {
		return Name{}, errs.New("address is not a node address")
	}
	return a.name, nil
}

// AsClient returns the client public key, or an error if this is not a
// Client address.
func (a Address) AsClient() ([]byte, error) {
	if a.tag != addressClient {
		return nil, errs.New("address is not a client address")
	}
	return a.publicKey, nil
}

// Location returns the name this address resolves to for routing purposes:
// the node name itself, or the hash of the client's public key.
func (a Address) Location() Name {
	if a.tag == addressNode {
		return a.name
	}
	return NameFromPublicKey(a.publicKey)
}
