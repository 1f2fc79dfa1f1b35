// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import "github.com/zeebo/errs"

// authorityTag discriminates the closed Authority variant set.
type authorityTag uint8

const (
	authorityClient authorityTag = iota + 1
	authorityManagedNode
	authorityNaeManager
	authorityClientManager
	authorityNodeManager
)

// Authority is the role a node claims, or a message is addressed to. The
// *Manager variants are group authorities and require quorum; the others
// are single-node authorities.
type Authority struct {
	tag       authorityTag
	name      Name
	proxyName Name
	publicKey []byte
}

// ClientAuthority builds the Client(proxy_name, public_key) variant.
func ClientAuthority(proxyName Name, publicKey []byte) Authority {
	return Authority{tag: authorityClient, proxyName: proxyName, publicKey: append([]byte(nil), publicKey...)}
}

// ManagedNodeAuthority builds the ManagedNode(name) variant.
func ManagedNodeAuthority(name Name) Authority { return Authority{tag: authorityManagedNode, name: name} }

// NaeManagerAuthority builds the NaeManager(name) group authority.
func NaeManagerAuthority(name Name) Authority { return Authority{tag: authorityNaeManager, name: name} }

// ClientManagerAuthority builds the ClientManager(name) group authority.
func ClientManagerAuthority(name Name) Authority {
	return Authority{tag: authorityClientManager, name: name}
}

// NodeManagerAuthority builds the NodeManager(name) group authority.
func NodeManagerAuthority(name Name) Authority {
	return Authority{tag: authorityNodeManager, name: name}
}

// IsGroup reports whether this authority requires quorum to accept a
// message (ends in "Manager").
func (a Authority) IsGroup() bool {
	switch a.tag {
	case authorityNaeManager, authorityClientManager, authorityNodeManager:
		return true
	default:
		return false
	}
}

// Name returns the name this authority is keyed on. It panics for the
// Client variant, which has no single name; use ProxyName/PublicKey there.
func (a Authority) Name() Name {
	if a.tag == authorityClient {
		panic("routing: Authority.Name called on Client authority")
	}
	return a.name
}

// ProxyName returns the proxy name of a Client authority.
func (a Authority) ProxyName() (Name, error) {
	if a.tag != authorityClient {
		return Name{}, errs.New("authority is not a Client authority")
	}
	return a.proxyName, nil
}

// PublicKey returns the public key of a Client authority.
func (a Authority) PublicKey() ([]byte, error) {
	if a.tag != authorityClient {
		return nil, errs.New("authority is not a Client authority")
	}
	return a.publicKey, nil
}

// IsClientAuthority reports whether a is the Client(proxy_name, public_key) variant.
func (a Authority) IsClientAuthority() bool { return a.tag == authorityClient }

// IsManagedNode reports whether a is the ManagedNode(name) variant.
func (a Authority) IsManagedNode() bool { return a.tag == authorityManagedNode }

// IsNaeManager reports whether a is the NaeManager(name) variant.
func (a Authority) IsNaeManager() bool { return a.tag == authorityNaeManager }

// IsClientManager reports whether a is the ClientManager(name) variant.
func (a Authority) IsClientManager() bool { return a.tag == authorityClientManager }

// IsNodeManager reports whether a is the NodeManager(name) variant.
func (a Authority) IsNodeManager() bool { return a.tag == authorityNodeManager }

// Key returns a string uniquely identifying this authority's role, for use
// as a map key (e.g. the refresh accumulator's per-authority buckets).
func (a Authority) Key() string {
	if a.tag == authorityClient {
		return string([]byte{byte(a.tag)}) + string(a.proxyName[:]) + "|" + string(a.publicKey)
	}
	return string([]byte{byte(a.tag)}) + string(a.name[:])
}

// Equal reports whether two authorities denote the same role.
func (a Authority) Equal(b Authority) bool {
	if a.tag != b.tag {
		return false
	}
	if a.tag == authorityClient {
		return a.proxyName == b.proxyName && string(a.publicKey) == string(b.publicKey)
	}
	return a.name == b.name
}
