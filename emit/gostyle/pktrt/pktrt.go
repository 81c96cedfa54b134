// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pktrt holds the two wide-width builtin types (spec.md's base set
// plus SPEC_FULL.md §4.7's uint128/hash256 supplement) that generated Go
// struct fields reference by import, the way a codec's own runtime package
// is imported by the code it generates.
package pktrt

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

// Uint128 holds an unsigned 128-bit integer. It is backed by uint256.Int —
// the pack's only wide-integer library — restricted to its low two 64-bit
// words; the high two are always zero. This gives the generated field
// decimal formatting and comparisons for free instead of hand-rolling a
// 128-bit type.
type Uint128 struct {
	v uint256.Int
}

// Uint128FromBytes reads a big-endian 16-byte value.
func Uint128FromBytes(b [16]byte) Uint128 {
	var full [32]byte
	copy(full[16:], b[:])
	var u Uint128
	u.v.SetBytes(full[:])
	return u
}

// Bytes returns the big-endian 16-byte encoding.
func (u Uint128) Bytes() [16]byte {
	full := u.v.Bytes32()
	var out [16]byte
	copy(out[:], full[16:])
	return out
}

// String renders the value in decimal.
func (u Uint128) String() string { return u.v.Dec() }

// Hash256 holds an opaque 256-bit digest: a content hash or similar
// fixed-width identifier that is compared and copied, not arithmetically
// manipulated, but is exactly the width uint256.Int stores natively.
type Hash256 [32]byte

// String renders the digest as lowercase hex.
func (h Hash256) String() string { return hex.EncodeToString(h[:]) }

// AsUint256 reinterprets the digest's bytes as an unsigned integer, useful
// when generated code needs to compare or range-check a hash256 field
// numerically (e.g. consistent-hashing style routing).
func (h Hash256) AsUint256() uint256.Int {
	var u uint256.Int
	u.SetBytes(h[:])
	return u
}

// ParseHash256 decodes a hex string into a Hash256, erroring if it isn't
// exactly 32 bytes.
func ParseHash256(s string) (Hash256, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash256{}, err
	}
	if len(b) != 32 {
		return Hash256{}, fmt.Errorf("pktgen: hash256 needs 32 bytes, got %d", len(b))
	}
	var h Hash256
	copy(h[:], b)
	return h, nil
}
