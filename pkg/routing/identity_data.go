// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

// PublicID is the public half of a node or client identity: its long-term
// signing public key and its current name. Before relocation the name
// equals NameFromPublicKey(SigningKey); after relocation it is the value
// assigned by the group closest to the hash of the key.
type PublicID struct {
	Name       Name
	SigningKey []byte
}

// Equal reports whether two public ids name the same identity.
func (p PublicID) Equal(o PublicID) bool {
	return p.Name == o.Name && string(p.SigningKey) == string(o.SigningKey)
}

// WithName returns a copy of p with its Name replaced, used to verify the
// relocation invariant relocated_public_id == our_public_id_with_name_replaced_by(relocated_name).
func (p PublicID) WithName(name Name) PublicID {
	p.Name = name
	return p
}
