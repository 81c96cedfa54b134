// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/packetlang/pktgen/loader"
	"github.com/packetlang/pktgen/model"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestLoadFileSimplePacket(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "basic.packet", `
packet Header {
	uint16 len;
}
`)
	ld := loader.New([]string{dir})
	pom, err := ld.LoadFile("basic.packet")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if pom.Namespace != "basic" {
		t.Errorf("Namespace = %q, want basic", pom.Namespace)
	}
	if pom.Packets["Header"] == nil {
		t.Fatalf("Header packet not found")
	}
}

func TestLoadFileNotFound(t *testing.T) {
	dir := t.TempDir()
	ld := loader.New([]string{dir})
	_, err := ld.LoadFile("nope.packet")
	if err == nil {
		t.Fatalf("LoadFile(nope.packet) must fail")
	}
}

// TestLoadFileDiamondImportIdentity ensures that two files which both
// include the same third file end up sharing the exact same *model.POM
// instance for it (spec.md's cross-file Packet.Parent pointer identity),
// rather than each getting an independently-parsed copy.
func TestLoadFileDiamondImportIdentity(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "common.packet", `
packet Base {
	uint8 kind;
}
`)
	writeFile(t, dir, "left.packet", `
include <"common.packet">;
packet Left : common.Base {
	uint16 leftField;
}
`)
	writeFile(t, dir, "right.packet", `
include <"common.packet">;
packet Right : common.Base {
	uint32 rightField;
}
`)
	writeFile(t, dir, "root.packet", `
include <"left.packet">;
include <"right.packet">;
packet Root {
	left.Left l;
	right.Right r;
}
`)

	ld := loader.New([]string{dir})
	root, err := ld.LoadFile("root.packet")
	if err != nil {
		t.Fatalf("LoadFile(root.packet): %v", err)
	}

	leftPOM := root.Imports["left"]
	rightPOM := root.Imports["right"]
	if leftPOM == nil || rightPOM == nil {
		t.Fatalf("root must import both left and right: %+v", root.Imports)
	}
	commonViaLeft := leftPOM.Imports["common"]
	commonViaRight := rightPOM.Imports["common"]
	if commonViaLeft == nil || commonViaRight == nil {
		t.Fatalf("left/right must both import common")
	}
	if commonViaLeft != commonViaRight {
		t.Fatalf("diamond import of common.packet produced two distinct POMs")
	}

	base := commonViaLeft.Packets["Base"]
	leftParent := leftPOM.Packets["Left"].Parent
	rightParent := rightPOM.Packets["Right"].Parent
	if leftParent != base || rightParent != base {
		t.Fatalf("Left.Parent and Right.Parent must both point at the identical Base instance")
	}
}

func TestLoadFileIncludeCycleRejected(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.packet", `
include <"b.packet">;
packet A {
}
`)
	writeFile(t, dir, "b.packet", `
include <"a.packet">;
packet B {
}
`)
	ld := loader.New([]string{dir})
	if _, err := ld.LoadFile("a.packet"); err == nil {
		t.Fatalf("LoadFile on an include cycle must fail")
	}
}

func TestLoadFileDuplicatePacketName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dup.packet", `
packet Same {
}
packet Same {
}
`)
	ld := loader.New([]string{dir})
	_, err := ld.LoadFile("dup.packet")
	if err == nil {
		t.Fatalf("LoadFile must reject duplicate packet names")
	}
}

func TestLoadFileUnknownParent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orphan.packet", `
packet Child : Ghost {
}
`)
	ld := loader.New([]string{dir})
	_, err := ld.LoadFile("orphan.packet")
	if err == nil {
		t.Fatalf("LoadFile with an unresolvable parent must fail")
	}
}

func TestLoadFileEnumCrossFileReference(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.packet", `
enum Status {
	OK = 0;
	ERROR = 1;
}
`)
	writeFile(t, dir, "extended.packet", `
include <"base.packet">;
enum Extended {
	STILL_OK = base.Status.OK;
	ALSO_ERROR = base.Status.ERROR + 10;
}
`)
	ld := loader.New([]string{dir})
	pom, err := ld.LoadFile("extended.packet")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	ext := pom.Enums["Extended"]
	if ext.Items["STILL_OK"].Value != 0 {
		t.Errorf("STILL_OK = %d, want 0", ext.Items["STILL_OK"].Value)
	}
	if ext.Items["ALSO_ERROR"].Value != 11 {
		t.Errorf("ALSO_ERROR = %d, want 11", ext.Items["ALSO_ERROR"].Value)
	}
}

func TestLoadFileSizeAnnotationWiring(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sized.packet", `
packet Message {
	@size(data)
	uint16 dataLen;
	@repeated
	uint8 data;
}
`)
	ld := loader.New([]string{dir})
	pom, err := ld.LoadFile("sized.packet")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	msg := pom.Packets["Message"]
	dataLen := msg.FindField("dataLen")
	data := msg.FindField("data")
	if dataLen.IsSizeField {
		t.Errorf("dataLen must not be marked IsSizeField: that flag is reserved for a bare @size with no parameter")
	}
	if data.Repeated == nil || data.Repeated.SizeField != dataLen {
		t.Fatalf("data.Repeated.SizeField = %v, want dataLen", data.Repeated)
	}
}

func TestParseSearchPathFallsBackToCurrentDir(t *testing.T) {
	dirs := loader.ParseSearchPath("")
	// With PACKET_PATH unset, ParseSearchPath("") falls back to ".", which
	// always exists, so exactly one directory should resolve.
	if len(dirs) == 0 {
		t.Fatalf("ParseSearchPath(\"\") returned no directories")
	}
}

func TestResolveNotFoundWrapsSentinel(t *testing.T) {
	dir := t.TempDir()
	_, err := loader.Resolve("missing.packet", []string{dir})
	if err == nil {
		t.Fatalf("Resolve(missing.packet) must fail")
	}
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Resolve error = %v, want wrapping model.ErrNotFound", err)
	}
}
