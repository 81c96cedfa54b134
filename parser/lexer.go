// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parser recognizes the concrete syntax of .packet files (spec.md
// §6) and produces an AST for package loader to turn into a model.POM.
// This is explicitly the "external collaborator" spec.md §1 calls out:
// mechanical, and deliberately free of any layout semantics — those live
// in package analysis.
package parser

import (
	"fmt"
	"io"
	"text/scanner"
)

// tokenKind classifies a lexical token.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokPunct // one of the fixed punctuation strings below
)

type token struct {
	kind tokenKind
	text string
	pos  scanner.Position
}

// lexer wraps text/scanner.Scanner, combining the two-rune operators the
// grammar needs (<<, >>) that text/scanner otherwise yields one rune at a
// time, and tagging quoted strings/idents/numbers with our own tokenKind.
type lexer struct {
	sc   scanner.Scanner
	file string
}

func newLexer(r io.Reader, file string) *lexer {
	l := &lexer{file: file}
	l.sc.Init(r)
	l.sc.Filename = file
	l.sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats |
		scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	return l
}

func (l *lexer) next() (token, error) {
	r := l.sc.Scan()
	pos := l.sc.Position
	switch r {
	case scanner.EOF:
		return token{kind: tokEOF, pos: pos}, nil
	case scanner.Ident:
		return token{kind: tokIdent, text: l.sc.TokenText(), pos: pos}, nil
	case scanner.Int:
		return token{kind: tokInt, text: l.sc.TokenText(), pos: pos}, nil
	case scanner.Float:
		return token{kind: tokFloat, text: l.sc.TokenText(), pos: pos}, nil
	case scanner.String:
		return token{kind: tokString, text: l.sc.TokenText(), pos: pos}, nil
	case '<', '>':
		if l.sc.Peek() == r {
			l.sc.Next()
			return token{kind: tokPunct, text: string(r) + string(r), pos: pos}, nil
		}
		return token{kind: tokPunct, text: string(r), pos: pos}, nil
	default:
		return token{kind: tokPunct, text: string(r), pos: pos}, nil
	}
}

func (l *lexer) errorf(pos scanner.Position, format string, args ...interface{}) error {
	return fmt.Errorf("%s:%d:%d: %w", l.file, pos.Line, pos.Column, fmt.Errorf(format, args...))
}
