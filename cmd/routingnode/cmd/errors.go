// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package cmd

import "github.com/zeebo/errs"

// Error is the class for routingnode CLI errors.
var Error = errs.Class("routingnode error")
