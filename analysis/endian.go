// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package analysis

import "github.com/packetlang/pktgen/model"

// Endian runs the Endianness pass over pom and its transitive imports:
// bigendian propagates monotonically down an inheritance chain, so a
// packet whose ancestor declared @bigendian is big-endian even if it does
// not repeat the annotation itself (spec.md §4.4.3).
func Endian(pom *model.POM) error {
	for _, p := range pom.AllPOMs() {
		for _, name := range p.PacketOrder {
			setEndian(p.Packets[name])
		}
	}
	return nil
}

func setEndian(pkt *model.Packet) {
	if pkt.BigEndian || pkt.Parent == nil {
		return
	}
	setEndian(pkt.Parent)
	pkt.BigEndian = pkt.Parent.BigEndian
}
