// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package model

import "errors"

// ErrUnknownAnnotation is returned when a .packet file uses an annotation
// name the registry does not recognize.
var ErrUnknownAnnotation = errors.New("pktgen: unknown annotation")

// ErrAnnotationShape is returned when a recognized annotation is used with
// the wrong arity, an unexpected parameter name, or a missing value where
// one is required.
var ErrAnnotationShape = errors.New("pktgen: malformed annotation")

// ErrReferenceNotFound is returned when an annotation or a parent/type
// reference names a field, packet, or enum item that does not exist.
var ErrReferenceNotFound = errors.New("pktgen: reference not found")

// ErrDuplicateName is returned when two packets, enums, or fields in the
// same scope share a name.
var ErrDuplicateName = errors.New("pktgen: duplicate name")

// ErrCyclicInheritance is returned when a packet's parent chain loops back
// on itself (spec.md §3 invariant 1).
var ErrCyclicInheritance = errors.New("pktgen: cyclic inheritance")

// ErrSizeFieldOverride is returned when a child packet declares a size
// field different from its parent's (spec.md §3 invariant 2).
var ErrSizeFieldOverride = errors.New("pktgen: child packet overrides parent size field")

// ErrMissingSizeInfo is returned when a dynamic-size packet has neither a
// size field nor the custom_size annotation (spec.md §3 invariant 5).
var ErrMissingSizeInfo = errors.New("pktgen: dynamic packet has no size field and no custom_size")

// ErrZeroSizePacket is returned when a packet is classified const-size but
// its computed minimum size is zero.
var ErrZeroSizePacket = errors.New("pktgen: const-size packet computes to zero bytes")

// ErrImplicitArrayNotLast is returned when an implicitly-sized repeated
// field is not the last field of its packet.
var ErrImplicitArrayNotLast = errors.New("pktgen: implicitly-sized array is not the last field")

// ErrImplicitArrayHasChildren is returned when a packet with an
// implicitly-sized array has child packets overriding it.
var ErrImplicitArrayHasChildren = errors.New("pktgen: packet with implicitly-sized array has children")

// ErrMultipleImplicitArrays is returned when a packet declares more than
// one implicitly-sized repeated field.
var ErrMultipleImplicitArrays = errors.New("pktgen: more than one implicitly-sized array in packet")

// ErrNotFound is returned by the loader when a .packet file cannot be
// located on the search path.
var ErrNotFound = errors.New("pktgen: packet file not found")

// ErrParse is returned by the loader when the parser reported one or more
// syntax errors.
var ErrParse = errors.New("pktgen: parse error")

// ErrUnknownType is returned when a field's declared type resolves to
// neither a builtin nor a known packet.
var ErrUnknownType = errors.New("pktgen: unknown type")
