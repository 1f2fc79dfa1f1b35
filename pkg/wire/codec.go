// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

// Package wire is the serialization boundary named in spec §6: "the codec
// is the external serialization collaborator". The core only ever talks to
// the Codec interface; Gob is provided as one concrete, runnable
// implementation so the module works end to end without a protobuf
// toolchain (see DESIGN.md).
package wire

import (
	"bytes"
	"encoding/gob"

	"github.com/zeebo/errs"

	"github.com/groupnet/routing/pkg/routing"
)

// Error is the class for codec errors.
var Error = errs.Class("codec error")

// Codec encodes and decodes the two wire frame shapes the core accepts:
// signed (routed) messages and direct (unrouted) messages.
//
// The only bit-exact requirement (spec §6) is that EncodeRoutingMessage
// produces the exact bytes the claimant signs over, and that those bytes
// round-trip unchanged through SignedMessage.Serialized/SignedToken.
type Codec interface {
	// EncodeRoutingMessage serializes just the routing message (no
	// claimant, no signature) — this is the byte sequence the claimant
	// signs and that SignedToken replays verbatim.
	EncodeRoutingMessage(routing.RoutingMessage) ([]byte, error)
	DecodeRoutingMessage([]byte) (routing.RoutingMessage, error)

	EncodeSigned(routing.SignedMessage) ([]byte, error)
	DecodeSigned([]byte) (routing.SignedMessage, error)

	EncodeDirect(DirectMessage) ([]byte, error)
	DecodeDirect([]byte) (DirectMessage, error)
}

// gobCodec is the default Codec, backed by encoding/gob. Address, Authority
// and Content each implement gob.GobEncoder/GobDecoder (see
// pkg/routing/gob.go) so they round-trip correctly even though their
// discriminant fields are unexported; the codec never needs its own mirror
// types.
type gobCodec struct{}

// NewGobCodec returns the default Codec implementation.
func NewGobCodec() Codec { return gobCodec{} }

func (c gobCodec) EncodeRoutingMessage(m routing.RoutingMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, Error.Wrap(err)
	}
	return buf.Bytes(), nil
}

func (c gobCodec) DecodeRoutingMessage(b []byte) (routing.RoutingMessage, error) {
	var m routing.RoutingMessage
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&m); err != nil {
		return routing.RoutingMessage{}, Error.Wrap(err)
	}
	return m, nil
}

// wireSigned is the envelope around an already-serialized routing message
// body: Body is kept as opaque bytes so re-decoding never risks producing
// bytes different from what the claimant actually signed.
type wireSigned struct {
	Body      []byte
	Claimant  routing.Address
	Signature []byte
}

func (c gobCodec) EncodeSigned(s routing.SignedMessage) ([]byte, error) {
	body, err := c.EncodeRoutingMessage(s.Message)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	env := wireSigned{Body: body, Claimant: s.Claimant, Signature: s.Signature}
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return nil, Error.Wrap(err)
	}
	return buf.Bytes(), nil
}

func (c gobCodec) DecodeSigned(b []byte) (routing.SignedMessage, error) {
	var env wireSigned
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&env); err != nil {
		return routing.SignedMessage{}, Error.Wrap(err)
	}
	msg, err := c.DecodeRoutingMessage(env.Body)
	if err != nil {
		return routing.SignedMessage{}, err
	}
	sm := routing.SignedMessage{
		Message:   msg,
		Claimant:  env.Claimant,
		Signature: env.Signature,
	}
	return sm.WithSerialized(env.Body), nil
}

// DirectMessage is an unrouted, point-to-point payload, e.g. Churn (spec
// §4.6), which deliberately bypasses the routing/accumulation machinery.
type DirectMessage struct {
	Kind    string
	Payload []byte
}

func (c gobCodec) EncodeDirect(d DirectMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d); err != nil {
		return nil, Error.Wrap(err)
	}
	return buf.Bytes(), nil
}

func (c gobCodec) DecodeDirect(b []byte) (DirectMessage, error) {
	var d DirectMessage
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&d); err != nil {
		return DirectMessage{}, Error.Wrap(err)
	}
	return d, nil
}
