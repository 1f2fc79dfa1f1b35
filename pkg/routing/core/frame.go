// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package core

import "github.com/groupnet/routing/internal/routingerrs"

// The transport carries two distinct wire shapes (spec §6): signed, routed
// messages and direct, unrouted messages (e.g. Churn, spec §4.6). A single
// leading tag byte lets the receiving side dispatch to the right Codec
// method without guessing from the gob stream itself.
const (
	frameTagSigned byte = 1
	frameTagDirect byte = 2
)

func encodeFrame(tag byte, body []byte) []byte {
	out := make([]byte, 1+len(body))
	out[0] = tag
	copy(out[1:], body)
	return out
}

func decodeFrame(b []byte) (tag byte, body []byte, err error) {
	if len(b) < 1 {
		return 0, nil, routingerrs.Parse.New("empty frame")
	}
	return b[0], b[1:], nil
}
