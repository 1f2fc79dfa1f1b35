// Copyright (C) 2019 Storj Labs, Inc.
// See LICENSE for copying information.

package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameFromPublicKeyDeterministic(t *testing.T) {
	pub := []byte("a fixed public key value")
	assert.Equal(t, NameFromPublicKey(pub), NameFromPublicKey(pub))
	assert.NotEqual(t, NameFromPublicKey(pub), NameFromPublicKey([]byte("different key")))
}

func TestNameDistance(t *testing.T) {
	var a, b Name
	a[0] = 0xFF
	b[0] = 0x0F
	d := a.Distance(b)
	assert.Equal(t, byte(0xF0), d[0])
	assert.True(t, a.Distance(a).IsZero())
}

func TestNameCloserThan(t *testing.T) {
	var target, near, far Name
	near[0] = 0x01
	far[0] = 0xF0
	assert.True(t, near.CloserThan(far, target))
	assert.False(t, far.CloserThan(near, target))
}

func TestNameCommonLeadingBits(t *testing.T) {
	var a, b Name
	assert.Equal(t, NameSize*8, a.CommonLeadingBits(b))
	b[0] = 0x80
	assert.Equal(t, 0, a.CommonLeadingBits(b))
	b = Name{}
	b[0] = 0x01
	assert.Equal(t, 7, a.CommonLeadingBits(b))
}
