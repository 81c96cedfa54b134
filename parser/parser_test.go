// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package parser_test

import (
	"strings"
	"testing"

	"github.com/packetlang/pktgen/parser"
)

func TestParsePackageAndInclude(t *testing.T) {
	src := `
package go "github.com/example/pkt";
package cpp "example::pkt";
include <"common.packet">;

packet Empty {
}
`
	f, err := parser.Parse(strings.NewReader(src), "test.packet")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Packages) != 2 {
		t.Fatalf("len(Packages) = %d, want 2", len(f.Packages))
	}
	if f.Packages[0].Lang != "go" || f.Packages[0].Value != "github.com/example/pkt" {
		t.Errorf("Packages[0] = %+v", f.Packages[0])
	}
	if len(f.Includes) != 1 || f.Includes[0] != "common.packet" {
		t.Fatalf("Includes = %v, want [common.packet]", f.Includes)
	}
	if len(f.Packets) != 1 || f.Packets[0].Name != "Empty" {
		t.Fatalf("Packets = %+v", f.Packets)
	}
}

func TestParseEnumDecl(t *testing.T) {
	src := `
enum Color {
	RED = 1;
	GREEN = RED + 1;
	BLUE = 0x10;
}
`
	f, err := parser.Parse(strings.NewReader(src), "test.packet")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Enums) != 1 {
		t.Fatalf("len(Enums) = %d, want 1", len(f.Enums))
	}
	e := f.Enums[0]
	if e.Name != "Color" || len(e.Items) != 3 {
		t.Fatalf("enum = %+v", e)
	}
	if lit, ok := e.Items[0].Expr.(parser.IntLit); !ok || lit.Value != 1 {
		t.Errorf("RED expr = %+v, want IntLit{1}", e.Items[0].Expr)
	}
	bin, ok := e.Items[1].Expr.(parser.RawBinOp)
	if !ok || bin.Op != "+" {
		t.Fatalf("GREEN expr = %+v, want RawBinOp{+}", e.Items[1].Expr)
	}
	if ref, ok := bin.Left.(parser.Ref); !ok || ref.Name != "RED" {
		t.Errorf("GREEN.Left = %+v, want Ref{RED}", bin.Left)
	}
	if lit, ok := e.Items[2].Expr.(parser.IntLit); !ok || lit.Value != 0x10 {
		t.Errorf("BLUE expr = %+v, want IntLit{16}", e.Items[2].Expr)
	}
}

func TestParseExprPrecedence(t *testing.T) {
	// 1 + 2 * 3 must parse as 1 + (2 * 3), and << binds loosest.
	src := `
enum E {
	X = 1 + 2 * 3 << 1;
}
`
	f, err := parser.Parse(strings.NewReader(src), "test.packet")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	top, ok := f.Enums[0].Items[0].Expr.(parser.RawBinOp)
	if !ok || top.Op != "<<" {
		t.Fatalf("top-level op = %+v, want <<", f.Enums[0].Items[0].Expr)
	}
	add, ok := top.Left.(parser.RawBinOp)
	if !ok || add.Op != "+" {
		t.Fatalf("top.Left = %+v, want + node", top.Left)
	}
	mul, ok := add.Right.(parser.RawBinOp)
	if !ok || mul.Op != "*" {
		t.Fatalf("add.Right = %+v, want * node (higher precedence than +)", add.Right)
	}
}

func TestParsePacketWithParentAndFields(t *testing.T) {
	src := `
packet Header {
	uint16 len;
}

@bigendian
packet Body : Header {
	@size(data)
	uint16 dataLen;
	@repeated
	uint8 data;
}
`
	f, err := parser.Parse(strings.NewReader(src), "test.packet")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Packets) != 2 {
		t.Fatalf("len(Packets) = %d, want 2", len(f.Packets))
	}
	body := f.Packets[1]
	if body.Name != "Body" || body.Parent != "Header" {
		t.Fatalf("Body = %+v", body)
	}
	if len(body.Annotations) != 1 || body.Annotations[0].Name != "bigendian" {
		t.Fatalf("Body.Annotations = %+v", body.Annotations)
	}
	if len(body.Fields) != 2 {
		t.Fatalf("len(Body.Fields) = %d, want 2", len(body.Fields))
	}
	sizeField := body.Fields[0]
	if len(sizeField.Annotations) != 1 || sizeField.Annotations[0].Name != "size" {
		t.Fatalf("dataLen.Annotations = %+v", sizeField.Annotations)
	}
	if len(sizeField.Annotations[0].Params) != 1 || sizeField.Annotations[0].Params[0].Name != "data" {
		t.Fatalf("size annotation params = %+v", sizeField.Annotations[0].Params)
	}
}

func TestParseAnnotationParamValueKinds(t *testing.T) {
	src := `
@padded(multiple=4, label="hi", ratio=1.5, flavor=VANILLA, mask=0xFF)
packet Pkt {
}
`
	f, err := parser.Parse(strings.NewReader(src), "test.packet")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	params := f.Packets[0].Annotations[0].Params
	want := map[string]parser.RawValue{
		"multiple": {Kind: parser.RawInt, Int: 4},
		"label":    {Kind: parser.RawString, Str: "hi"},
		"ratio":    {Kind: parser.RawFloat, Float: 1.5},
		"flavor":   {Kind: parser.RawIdent, Ident: "VANILLA"},
		"mask":     {Kind: parser.RawHex, Int: 0xFF},
	}
	if len(params) != len(want) {
		t.Fatalf("len(params) = %d, want %d", len(params), len(want))
	}
	for _, p := range params {
		w, ok := want[p.Name]
		if !ok {
			t.Fatalf("unexpected param %s", p.Name)
		}
		if p.RawValue == nil {
			t.Fatalf("param %s has nil RawValue", p.Name)
		}
		if p.RawValue.Kind != w.Kind {
			t.Errorf("param %s kind = %v, want %v", p.Name, p.RawValue.Kind, w.Kind)
		}
	}
}

func TestParseSyntaxErrorReturnsParseErrors(t *testing.T) {
	src := `packet { }` // missing packet name
	_, err := parser.Parse(strings.NewReader(src), "test.packet")
	if err == nil {
		t.Fatalf("Parse of malformed source must return an error")
	}
	if _, ok := err.(*parser.ParseErrors); !ok {
		t.Fatalf("err = %T, want *parser.ParseErrors", err)
	}
}

func TestParsePackageMustPrecedeDecls(t *testing.T) {
	src := `
packet Pkt {
}
package go "late";
`
	_, err := parser.Parse(strings.NewReader(src), "test.packet")
	if err == nil {
		t.Fatalf("package declared after a packet must be a parse error")
	}
}
