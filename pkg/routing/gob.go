// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"bytes"
	"encoding/gob"
)

// Address, Authority and Content keep their discriminant fields unexported
// (spec §9 "closed variant sets"), which also hides them from encoding/gob
// when one of these types turns up as a field of some other gob-encoded
// struct — e.g. SignedToken.Claimant inside a RelocatedNetworkNameRequest.
// Implementing GobEncoder/GobDecoder here, once, means every such call site
// gets correct (de)serialization for free instead of needing its own
// exported mirror type.

type gobAddress struct {
	Tag       addressTag
	Name      Name
	PublicKey []byte
}

// GobEncode implements gob.GobEncoder.
func (a Address) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(gobAddress{Tag: a.tag, Name: a.name, PublicKey: a.publicKey})
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (a *Address) GobDecode(b []byte) error {
	var g gobAddress
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&g); err != nil {
		return err
	}
	a.tag, a.name, a.publicKey = g.Tag, g.Name, g.PublicKey
	return nil
}

type gobAuthority struct {
	Tag       authorityTag
	Name      Name
	ProxyName Name
	PublicKey []byte
}

// GobEncode implements gob.GobEncoder.
func (a Authority) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(gobAuthority{
		Tag: a.tag, Name: a.name, ProxyName: a.proxyName, PublicKey: a.publicKey,
	})
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (a *Authority) GobDecode(b []byte) error {
	var g gobAuthority
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&g); err != nil {
		return err
	}
	a.tag, a.name, a.proxyName, a.publicKey = g.Tag, g.Name, g.ProxyName, g.PublicKey
	return nil
}

type gobContent struct {
	Kind contentKind
	IK   internalKind

	External *ExternalPayload

	RequestNetworkName    *RequestNetworkName
	RelocatedNameRequest  *RelocatedNetworkNameRequest
	RelocatedNameResponse *RelocatedNetworkNameResponse
	ConnectRequest        *ConnectRequest
	ConnectResponse       *ConnectResponse
	Refresh               *Refresh
}

// GobEncode implements gob.GobEncoder.
func (c Content) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(gobContent{
		Kind: c.kind, IK: c.ik,
		External:              c.external,
		RequestNetworkName:    c.requestNetworkName,
		RelocatedNameRequest:  c.relocatedNameRequest,
		RelocatedNameResponse: c.relocatedNameResponse,
		ConnectRequest:        c.connectRequest,
		ConnectResponse:       c.connectResponse,
		Refresh:               c.refresh,
	})
	return buf.Bytes(), err
}

// GobDecode implements gob.GobDecoder.
func (c *Content) GobDecode(b []byte) error {
	var g gobContent
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&g); err != nil {
		return err
	}
	c.kind, c.ik = g.Kind, g.IK
	c.external = g.External
	c.requestNetworkName = g.RequestNetworkName
	c.relocatedNameRequest = g.RelocatedNameRequest
	c.relocatedNameResponse = g.RelocatedNameResponse
	c.connectRequest = g.ConnectRequest
	c.connectResponse = g.ConnectResponse
	c.refresh = g.Refresh
	return nil
}
