// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package parser

import (
	"io"
	"strconv"
	"strings"
)

// ParseErrors collects every syntax error found in one file. The loader
// logs each of them, reports ErrParse and gives up on the file, per spec.md
// §4.3/§7: parsing does not attempt partial recovery.
type ParseErrors struct {
	Errors []error
}

func (e *ParseErrors) Error() string {
	var b strings.Builder
	for i, err := range e.Errors {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Parse reads one .packet source from r and returns its AST. A non-nil
// *ParseErrors is returned as the error if one or more syntax errors were
// found; the returned *File is nil in that case.
func Parse(r io.Reader, filename string) (*File, error) {
	p := &parser{lex: newLexer(r, filename), filename: filename}
	p.advance()
	file := p.parseFile()
	if len(p.errs) > 0 {
		return nil, &ParseErrors{Errors: p.errs}
	}
	return file, nil
}

type parser struct {
	lex      *lexer
	filename string
	tok      token
	errs     []error
}

func (p *parser) advance() {
	t, err := p.lex.next()
	if err != nil {
		p.errs = append(p.errs, err)
		t = token{kind: tokEOF}
	}
	p.tok = t
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.errs = append(p.errs, p.lex.errorf(p.tok.pos, format, args...))
}

// recover skips tokens up to and including the next ";" or "}", so one
// malformed declaration doesn't cascade into spurious follow-on errors.
func (p *parser) recover() {
	for p.tok.kind != tokEOF {
		if p.tok.kind == tokPunct && (p.tok.text == ";" || p.tok.text == "}") {
			p.advance()
			return
		}
		p.advance()
	}
}

func (p *parser) expectPunct(text string) bool {
	if p.tok.kind == tokPunct && p.tok.text == text {
		p.advance()
		return true
	}
	p.errorf("expected %q, found %q", text, p.tok.text)
	return false
}

func (p *parser) expectIdent() (string, bool) {
	if p.tok.kind == tokIdent {
		s := p.tok.text
		p.advance()
		return s, true
	}
	p.errorf("expected identifier, found %q", p.tok.text)
	return "", false
}

func (p *parser) isPunct(text string) bool {
	return p.tok.kind == tokPunct && p.tok.text == text
}

func (p *parser) isIdent(text string) bool {
	return p.tok.kind == tokIdent && p.tok.text == text
}

func (p *parser) parseFile() *File {
	f := &File{}
	for p.isIdent("package") {
		f.Packages = append(f.Packages, p.parsePackageDecl())
	}
	for p.isIdent("include") {
		f.Includes = append(f.Includes, p.parseIncludeDecl())
	}
	for p.tok.kind != tokEOF {
		switch {
		case p.isIdent("enum"):
			if e := p.parseEnumDecl(); e != nil {
				f.Enums = append(f.Enums, e)
			}
		case p.isIdent("package"), p.isIdent("include"):
			p.errorf("package/include must precede enum and packet declarations")
			p.recover()
		default:
			if pkt := p.parsePacketDecl(); pkt != nil {
				f.Packets = append(f.Packets, pkt)
			}
		}
	}
	return f
}

func (p *parser) parsePackageDecl() PackageDecl {
	p.advance() // "package"
	lang, _ := p.expectIdent()
	val := p.parseQuotedString()
	p.expectPunct(";")
	return PackageDecl{Lang: lang, Value: val}
}

func (p *parser) parseIncludeDecl() string {
	p.advance() // "include"
	p.expectPunct("<")
	val := p.parseQuotedString()
	p.expectPunct(">")
	p.expectPunct(";")
	return val
}

func (p *parser) parseQuotedString() string {
	if p.tok.kind != tokString {
		p.errorf("expected string literal, found %q", p.tok.text)
		return ""
	}
	s, err := strconv.Unquote(p.tok.text)
	if err != nil {
		s = strings.Trim(p.tok.text, `"`)
	}
	p.advance()
	return s
}

func (p *parser) parseQualifiedIdent() string {
	first, ok := p.expectIdent()
	if !ok {
		return ""
	}
	parts := []string{first}
	for p.isPunct(".") {
		p.advance()
		next, ok := p.expectIdent()
		if !ok {
			break
		}
		parts = append(parts, next)
	}
	return strings.Join(parts, ".")
}

func (p *parser) parseEnumDecl() *EnumDecl {
	p.advance() // "enum"
	name, ok := p.expectIdent()
	if !ok {
		p.recover()
		return nil
	}
	e := &EnumDecl{Name: name}
	if !p.expectPunct("{") {
		p.recover()
		return e
	}
	for !p.isPunct("}") && p.tok.kind != tokEOF {
		itemName, ok := p.expectIdent()
		if !ok {
			p.recover()
			continue
		}
		if !p.expectPunct("=") {
			p.recover()
			continue
		}
		expr := p.parseExpr()
		p.expectPunct(";")
		e.Items = append(e.Items, EnumItemDecl{Name: itemName, Expr: expr})
	}
	p.expectPunct("}")
	return e
}

// Operator precedence, low to high: shift (<< >>), additive (+ -),
// multiplicative (* /) — the grammar only names the operator set
// (spec.md §6), not a precedence table, so this follows ordinary C-family
// convention, which every operator in the set is borrowed from.
func (p *parser) parseExpr() Expr { return p.parseShift() }

func (p *parser) parseShift() Expr {
	left := p.parseAdditive()
	for p.isPunct("<<") || p.isPunct(">>") {
		op := p.tok.text
		p.advance()
		right := p.parseAdditive()
		left = RawBinOp{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseAdditive() Expr {
	left := p.parseMultiplicative()
	for p.isPunct("+") || p.isPunct("-") {
		op := p.tok.text
		p.advance()
		right := p.parseMultiplicative()
		left = RawBinOp{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseMultiplicative() Expr {
	left := p.parsePrimary()
	for p.isPunct("*") || p.isPunct("/") {
		op := p.tok.text
		p.advance()
		right := p.parsePrimary()
		left = RawBinOp{Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parsePrimary() Expr {
	switch p.tok.kind {
	case tokInt:
		v, err := parseIntLiteral(p.tok.text)
		if err != nil {
			p.errorf("bad integer literal %q: %v", p.tok.text, err)
		}
		p.advance()
		return IntLit{Value: v}
	case tokIdent:
		return Ref{Name: p.parseQualifiedIdent()}
	default:
		p.errorf("expected expression, found %q", p.tok.text)
		p.advance()
		return IntLit{}
	}
}

func parseIntLiteral(text string) (int64, error) {
	return strconv.ParseInt(text, 0, 64)
}

func (p *parser) parseAnnotations() []AnnotationDecl {
	var annots []AnnotationDecl
	for p.isPunct("@") {
		annots = append(annots, p.parseAnnotation())
	}
	return annots
}

func (p *parser) parseAnnotation() AnnotationDecl {
	p.advance() // "@"
	name, _ := p.expectIdent()
	a := AnnotationDecl{Name: name}
	if p.isPunct("(") {
		p.advance()
		for !p.isPunct(")") && p.tok.kind != tokEOF {
			a.Params = append(a.Params, p.parseAnnotationParam())
			if p.isPunct(",") {
				p.advance()
			}
		}
		p.expectPunct(")")
	}
	return a
}

func (p *parser) parseAnnotationParam() AnnotationParamDecl {
	name, _ := p.expectIdent()
	param := AnnotationParamDecl{Name: name}
	if p.isPunct("=") {
		p.advance()
		param.RawValue = p.parseRawValue()
	}
	return param
}

// parseRawValue coerces a value token into a RawValue using the lexical
// priority order spec.md §9 requires: quoted string, 0x-hex, float
// (contains '.'), decimal int, else an (as yet unresolved) enum-item
// reference.
func (p *parser) parseRawValue() *RawValue {
	switch p.tok.kind {
	case tokString:
		s, err := strconv.Unquote(p.tok.text)
		if err != nil {
			s = strings.Trim(p.tok.text, `"'`)
		}
		p.advance()
		return &RawValue{Kind: RawString, Str: s}
	case tokFloat:
		f, _ := strconv.ParseFloat(p.tok.text, 64)
		p.advance()
		return &RawValue{Kind: RawFloat, Float: f}
	case tokInt:
		text := p.tok.text
		v, err := parseIntLiteral(text)
		if err != nil {
			p.errorf("bad integer literal %q: %v", text, err)
		}
		p.advance()
		if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
			return &RawValue{Kind: RawHex, Int: v}
		}
		return &RawValue{Kind: RawInt, Int: v}
	case tokIdent:
		name := p.parseQualifiedIdent()
		return &RawValue{Kind: RawIdent, Ident: name}
	default:
		p.errorf("expected annotation value, found %q", p.tok.text)
		p.advance()
		return &RawValue{Kind: RawString}
	}
}

func (p *parser) parsePacketDecl() *PacketDecl {
	annots := p.parseAnnotations()
	if !p.isIdent("packet") {
		p.errorf("expected \"packet\", found %q", p.tok.text)
		p.recover()
		return nil
	}
	p.advance()
	name, ok := p.expectIdent()
	if !ok {
		p.recover()
		return nil
	}
	pkt := &PacketDecl{Name: name, Annotations: annots}
	if p.isPunct(":") {
		p.advance()
		pkt.Parent = p.parseQualifiedIdent()
	}
	if !p.expectPunct("{") {
		p.recover()
		return pkt
	}
	for !p.isPunct("}") && p.tok.kind != tokEOF {
		pkt.Fields = append(pkt.Fields, p.parseFieldDecl())
	}
	p.expectPunct("}")
	return pkt
}

func (p *parser) parseFieldDecl() FieldDecl {
	annots := p.parseAnnotations()
	typeName := p.parseQualifiedIdent()
	name, _ := p.expectIdent()
	p.expectPunct(";")
	return FieldDecl{TypeName: typeName, Name: name, Annotations: annots}
}
