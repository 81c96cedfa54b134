// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package analysis

import "github.com/packetlang/pktgen/model"

// Run executes the Size, Offset, and Endianness passes over pom, in that
// mandated order (spec.md §4.4): Offset depends on Size's const/dynamic
// classification, and both are independent of Endian, but Endian still
// runs last to match the spec's named pass sequence.
func Run(pom *model.POM) error {
	if err := Size(pom); err != nil {
		return err
	}
	if err := Offset(pom); err != nil {
		return err
	}
	return Endian(pom)
}
