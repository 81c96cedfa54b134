// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package analysis

import "github.com/packetlang/pktgen/model"

// Offset runs the Offset pass over pom and its transitive imports: every
// field gets a model.Offset recording how far it sits from its packet's
// first byte, as a constant byte count plus the runtime length of any
// preceding fields whose size isn't known until the packet is read.
//
// Offset must run after Size, since a field's own contribution to the
// fields that follow it depends on whether it (or its type) is const-size.
func Offset(pom *model.POM) error {
	for _, p := range pom.AllPOMs() {
		for _, name := range p.PacketOrder {
			offsetPacket(p.Packets[name])
		}
	}
	return nil
}

// cumulativeOffset returns the offset just past pkt: the constant byte
// count and the ordered list of fields (pkt's own and its ancestors') whose
// runtime length must be added to reach that point.
func cumulativeOffset(pkt *model.Packet) (int, []*model.Field) {
	if pkt == nil {
		return 0, nil
	}
	constBytes, intermediate := cumulativeOffset(pkt.Parent)
	intermediate = append([]*model.Field(nil), intermediate...)
	for _, f := range pkt.Fields {
		if size, ok := fieldConstSize(f); ok {
			constBytes += size
		} else {
			intermediate = append(intermediate, f)
		}
	}
	return constBytes, intermediate
}

func offsetPacket(pkt *model.Packet) {
	constBytes, intermediate := cumulativeOffset(pkt.Parent)
	intermediate = append([]*model.Field(nil), intermediate...)

	for _, f := range pkt.Fields {
		f.Offset = model.Offset{
			ConstantBytes: constBytes,
			Intermediate:  append([]*model.Field(nil), intermediate...),
		}
		if size, ok := fieldConstSize(f); ok {
			constBytes += size
		} else {
			intermediate = append(intermediate, f)
		}
	}
}
