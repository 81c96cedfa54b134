// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package analysis implements the three model-enrichment passes that run
// after a POM is parsed and built: Size, Offset, and Endianness (spec.md
// §4.4). Each pass walks a POM's transitive import graph before its own
// packets, so a field typed with an imported packet always sees that
// packet's finished layout.
package analysis

import (
	"fmt"

	"github.com/packetlang/pktgen/model"
)

// Size runs the Size pass over pom and every POM it transitively imports:
// it computes each packet's MinSize, decides whether the packet is
// constant- or dynamically-sized (SizeInfo), and validates that no derived
// packet redeclares a size field its parent already established, and that
// implicitly-sized (trailing, unbounded) array fields appear only once, last,
// and are never inherited from.
func Size(pom *model.POM) error {
	for _, p := range pom.AllPOMs() {
		for _, name := range p.PacketOrder {
			setMinSize(p.Packets[name])
		}
		for _, name := range p.PacketOrder {
			if err := setSizeInfo(p.Packets[name]); err != nil {
				return err
			}
			if err := validateRepeatedFields(p.Packets[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func setMinSize(pkt *model.Packet) {
	pkt.MinSize = calculateMinSize(pkt)
}

// calculateMinSize returns the sum of the constant-size contribution of pkt
// and its ancestors; fields that are not const-size (a dynamic array, or a
// field whose type is itself dynamically sized) contribute nothing, since
// their length is only known at runtime.
func calculateMinSize(pkt *model.Packet) int {
	if pkt == nil {
		return 0
	}
	total := calculateMinSize(pkt.Parent)
	for _, f := range pkt.Fields {
		size, ok := fieldConstSize(f)
		if !ok {
			continue
		}
		total += size
	}
	return total
}

// fieldConstSize returns the field's total constant byte size (element size
// times count) and true, or (0, false) if the field's length is not known
// at compile time.
func fieldConstSize(f *model.Field) (int, bool) {
	if f.IsDynamicRepeated() || !isConstSizeType(f.Type) {
		return 0, false
	}
	var elemSize int
	switch t := f.Type.(type) {
	case *model.BuiltinType:
		elemSize = t.ByteLength()
	case *model.Packet:
		elemSize = calculateMinSize(t)
	}
	count := 1
	if f.Repeated != nil && f.Repeated.HasCount {
		count = f.Repeated.Count
	}
	return elemSize * count, true
}

// isConstSizeType reports whether t (a builtin or a packet) has a length
// fixed at compile time.
func isConstSizeType(t model.FieldType) bool {
	switch v := t.(type) {
	case *model.BuiltinType:
		return true
	case *model.Packet:
		return isConstSizePacket(v)
	default:
		return false
	}
}

func isConstSizePacket(pkt *model.Packet) bool {
	if _, ok := pkt.Annotations["custom_size"]; ok {
		return false
	}
	if pkt.SizeField() != nil {
		return false
	}
	if pkt.Parent != nil && !isConstSizePacket(pkt.Parent) {
		return false
	}
	for _, f := range pkt.Fields {
		if f.IsDynamicRepeated() || !isConstSizeType(f.Type) {
			return false
		}
	}
	return true
}

// setSizeInfo finalizes pkt.SizeInfo, after its parent's has already been
// finalized (callers iterate PacketOrder, and a packet always precedes its
// children in declaration... but a child may be declared before its parent
// in a later file, so this recurses up first to be safe).
func setSizeInfo(pkt *model.Packet) error {
	if pkt.Parent != nil && pkt.Parent.SizeInfo == (model.SizeInfo{}) {
		if err := setSizeInfo(pkt.Parent); err != nil {
			return err
		}
	}

	if pkt.SizeField() != nil {
		if pkt.Parent != nil && pkt.Parent.SizeField() != nil && pkt.SizeField() != pkt.Parent.SizeField() {
			return fmt.Errorf("%w: %s.%s vs %s.%s", model.ErrSizeFieldOverride,
				pkt.Name, pkt.SizeField().Name, pkt.Parent.Name, pkt.Parent.SizeField().Name)
		}
		return nil
	}

	if isConstSizePacket(pkt) {
		if pkt.MinSize == 0 {
			return fmt.Errorf("%w: %s", model.ErrZeroSizePacket, pkt.Name)
		}
		pkt.SizeInfo = model.SizeInfo{Dynamic: false, Bytes: pkt.MinSize}
		return nil
	}

	if pkt.Parent == nil || pkt.Parent.SizeField() == nil {
		if _, ok := pkt.Annotations["custom_size"]; !ok {
			return fmt.Errorf("%w: %s", model.ErrMissingSizeInfo, pkt.Name)
		}
		pkt.SizeInfo = model.SizeInfo{Dynamic: true}
		return nil
	}

	pkt.SizeInfo = model.SizeInfo{Dynamic: true, SizeField: pkt.Parent.SizeField()}
	return nil
}

// validateRepeatedFields enforces spec.md §4.2's implicit-array rules: an
// implicitly-sized (no count, no size field, no count field) array field
// may only be the last field in a packet, there may be only one per packet,
// and a packet that declares one may not be inherited from.
func validateRepeatedFields(pkt *model.Packet) error {
	var implicit *model.Field
	implicitIndex := -1
	for i, f := range pkt.Fields {
		if !f.Repeated.Implicit() {
			continue
		}
		if implicit != nil {
			return fmt.Errorf("%w: %s has both %s and %s", model.ErrMultipleImplicitArrays,
				pkt.Name, implicit.Name, f.Name)
		}
		implicit = f
		implicitIndex = i
	}
	if implicit != nil && implicitIndex != len(pkt.Fields)-1 {
		return fmt.Errorf("%w: %s.%s", model.ErrImplicitArrayNotLast, pkt.Name, implicit.Name)
	}
	if implicit != nil && len(pkt.Children) > 0 {
		return fmt.Errorf("%w: %s.%s", model.ErrImplicitArrayHasChildren, pkt.Name, implicit.Name)
	}
	return nil
}
