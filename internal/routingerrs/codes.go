// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routingerrs

import (
	"google.golang.org/grpc/codes"

	"github.com/groupnet/routing/pkg/routing"
)

// InterfaceErrorCode maps a synchronous send failure (spec §7) onto a
// gRPC status code for structured logging, the same taxonomy the teacher
// uses to classify transport-level failures in pkg/transport, rather than
// inventing a parallel status-code enum.
func InterfaceErrorCode(kind routing.InterfaceErrorKind) codes.Code {
	switch kind {
	case routing.ErrorNotConnected:
		return codes.Unavailable
	default:
		return codes.Unknown
	}
}
