// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package model

// BuiltinType is a fixed-width primitive that the packet grammar recognizes
// directly, independent of any packet declared by the user.
type BuiltinType struct {
	name     string
	bytes    int
	signed   bool
	fromHash bool // mapped to a pktrt support type by the emitters, see emit/gostyle/pktrt
}

// Name returns the type's lexical name, as it appears in a .packet file.
func (t *BuiltinType) Name() string { return t.name }

// ByteLength returns the constant, fixed size of a value of this type.
func (t *BuiltinType) ByteLength() int { return t.bytes }

// Signed reports whether the type is a signed integer.
func (t *BuiltinType) Signed() bool { return t.signed }

// WideBlob reports whether the type is one of the 128/256-bit identifier
// kinds (uint128, hash256) that the Go emitter maps to pktrt.Uint128 (backed
// by uint256.Int) and pktrt.Hash256 (a [32]byte) rather than a native Go
// integer.
func (t *BuiltinType) WideBlob() bool { return t.fromHash }

var builtinTypes = map[string]*BuiltinType{}

func registerBuiltin(name string, bytes int, signed bool, wide bool) *BuiltinType {
	t := &BuiltinType{name: name, bytes: bytes, signed: signed, fromHash: wide}
	builtinTypes[name] = t
	return t
}

// The fixed integer/char builtins from spec.md §4.1, plus two wide-identifier
// kinds (uint128, hash256) supplementing the builtin set per SPEC_FULL.md §4.7
// — packet protocols commonly carry 128/256-bit identifiers that don't fit a
// native Go integer.
var (
	Char     = registerBuiltin("char", 1, true, false)
	Int8     = registerBuiltin("int8", 1, true, false)
	Int16    = registerBuiltin("int16", 2, true, false)
	Int32    = registerBuiltin("int32", 4, true, false)
	Int64    = registerBuiltin("int64", 8, true, false)
	Uint8    = registerBuiltin("uint8", 1, false, false)
	Uint16   = registerBuiltin("uint16", 2, false, false)
	Uint32   = registerBuiltin("uint32", 4, false, false)
	Uint64   = registerBuiltin("uint64", 8, false, false)
	Uint128  = registerBuiltin("uint128", 16, false, true)
	Hash256  = registerBuiltin("hash256", 32, false, true)
)

// LookupBuiltin returns the builtin type registered under name, or nil if
// name is not a recognized builtin (the caller should then search packet
// types before reporting an unknown-type error).
func LookupBuiltin(name string) *BuiltinType {
	return builtinTypes[name]
}
