// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package parser

// File is the parsed form of one .packet source file.
type File struct {
	Packages []PackageDecl
	Includes []string
	Enums    []*EnumDecl
	Packets  []*PacketDecl
}

// PackageDecl is a `package <lang> "value";` directive.
type PackageDecl struct {
	Lang  string
	Value string
}

// EnumDecl is an `enum Name { item = expr; ... }` declaration.
type EnumDecl struct {
	Name  string
	Items []EnumItemDecl
}

// EnumItemDecl is one `item = expr;` member of an enum.
type EnumItemDecl struct {
	Name string
	Expr Expr
}

// Expr is a raw (unresolved) constant expression node, as parsed. Leaves
// are IntLit or Ref; RawBinOp combines two sub-expressions. Package loader
// converts these into a model.EnumExpr tree for deferred evaluation.
type Expr interface{ exprNode() }

// IntLit is a decimal or 0x-hex integer literal.
type IntLit struct{ Value int64 }

func (IntLit) exprNode() {}

// Ref is a (possibly dotted) reference to another enum item.
type Ref struct{ Name string }

func (Ref) exprNode() {}

// RawBinOp combines two expressions with one of + - * / << >>.
type RawBinOp struct {
	Op          string
	Left, Right Expr
}

func (RawBinOp) exprNode() {}

// PacketDecl is a `[@annot...] packet Name [: Parent] { field* }` declaration.
type PacketDecl struct {
	Name        string
	Parent      string // qualified name, empty if none
	Annotations []AnnotationDecl
	Fields      []FieldDecl
}

// FieldDecl is a `[@annot...] Type name;` member of a packet.
type FieldDecl struct {
	TypeName    string // qualified
	Name        string
	Annotations []AnnotationDecl
}

// AnnotationDecl is a parsed `@name(param, param=value, ...)`.
type AnnotationDecl struct {
	Name   string
	Params []AnnotationParamDecl
}

// AnnotationParamDecl is one `name` or `name=value` inside an annotation's
// parens. RawValue is nil when the parameter had no "=value" part.
type AnnotationParamDecl struct {
	Name     string
	RawValue *RawValue
}

// rawValueKind mirrors the lexical form value coercion must distinguish,
// per spec.md §9: quoted string, 0x-hex, float (contains '.'), decimal int,
// or (falling through) an enum-item reference — tried in that order, first
// match wins, ported from original_source's AnnotationParam.__init__.
type rawValueKind int

const (
	RawString rawValueKind = iota
	RawHex
	RawFloat
	RawInt
	RawIdent // enum-item reference, resolved later against the model
)

// RawValue is an annotation parameter's value before enum-reference
// resolution (which needs the model, not just syntax).
type RawValue struct {
	Kind  rawValueKind
	Str   string
	Int   int64
	Float float64
	Ident string
}
