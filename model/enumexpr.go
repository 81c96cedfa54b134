// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package model

import "fmt"

// EnumExpr is a constant expression appearing as an enum item's value:
// an integer literal, a reference to another (possibly imported) enum
// item, or a binary operation combining two EnumExprs. Evaluation is
// deferred until every item in the transitive import graph has been
// constructed, so that self- and forward-references within one enum, and
// references to enums in files that import each other, all resolve
// (spec.md §9).
type EnumExpr interface {
	// Eval returns the expression's integer value. resolve looks up another
	// enum item's already-evaluated value by (namespace, enum, item) name,
	// used for EnumRef nodes.
	Eval(resolve func(qualifiedItem string) (int64, error)) (int64, error)
}

// IntLiteral is a decimal or hex integer literal leaf node.
type IntLiteral struct{ Value int64 }

// Eval implements EnumExpr.
func (n IntLiteral) Eval(func(string) (int64, error)) (int64, error) { return n.Value, nil }

// EnumRef is a leaf node referencing another enum item by its possibly
// namespace-qualified name, e.g. "ITEM" or "Namespace.Enum.ITEM".
type EnumRef struct{ Name string }

// Eval implements EnumExpr.
func (n EnumRef) Eval(resolve func(string) (int64, error)) (int64, error) {
	return resolve(n.Name)
}

// BinOp is an interior node combining two sub-expressions with one of the
// operators spec.md §6 allows: + - * / << >>.
type BinOp struct {
	Op          string
	Left, Right EnumExpr
}

// Eval implements EnumExpr.
func (n BinOp) Eval(resolve func(string) (int64, error)) (int64, error) {
	l, err := n.Left.Eval(resolve)
	if err != nil {
		return 0, err
	}
	r, err := n.Right.Eval(resolve)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("pktgen: division by zero in enum expression")
		}
		return l / r, nil
	case "<<":
		return l << uint(r), nil
	case ">>":
		return l >> uint(r), nil
	default:
		return 0, fmt.Errorf("pktgen: unknown enum operator %q", n.Op)
	}
}

// ItemResolver evaluates every EnumItem it is given exactly once, resolving
// EnumRef leaves (however they are spelled — bare item name, same-file
// "Enum.ITEM", or cross-file "Namespace.Enum.ITEM") via a caller-supplied
// lookup, and detects self-referential cycles. Package loader owns the one
// instance used per load, since it alone has enough context (the whole POM
// import graph) to resolve a reference at any of those three scopes.
type ItemResolver struct {
	state map[*EnumItem]int // 0=unvisited, 1=in-progress, 2=done
	// Lookup resolves a possibly-qualified EnumRef name to the EnumItem it
	// names, or nil if not found. from is the item whose expression is
	// being evaluated, so Lookup can treat an unqualified name as a sibling
	// reference within from.Enum.
	Lookup func(qualifiedName string, from *EnumItem) *EnumItem
}

// NewItemResolver creates a resolver; Lookup must be set before use.
func NewItemResolver() *ItemResolver {
	return &ItemResolver{state: make(map[*EnumItem]int)}
}

// Resolve evaluates it.Value (idempotently; a second call on an
// already-done item is a no-op) and every item it transitively references.
func (r *ItemResolver) Resolve(it *EnumItem) error {
	_, err := r.resolve(it)
	return err
}

func (r *ItemResolver) resolve(it *EnumItem) (int64, error) {
	switch r.state[it] {
	case 2:
		return it.Value, nil
	case 1:
		return 0, fmt.Errorf("pktgen: self-referential enum item %s.%s", it.Enum.Name, it.Name)
	}
	r.state[it] = 1
	v, err := it.Expr.Eval(func(name string) (int64, error) {
		ref := r.Lookup(name, it)
		if ref == nil {
			return 0, fmt.Errorf("%w: enum item %s", ErrReferenceNotFound, name)
		}
		return r.resolve(ref)
	})
	if err != nil {
		return 0, err
	}
	it.Value = v
	r.state[it] = 2
	return v, nil
}
