// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package loader

import (
	"fmt"
	"strings"

	"github.com/packetlang/pktgen/model"
	"github.com/packetlang/pktgen/parser"
)

func buildEnums(pom *model.POM, decls []*parser.EnumDecl) error {
	for _, d := range decls {
		if pom.Enums[d.Name] != nil {
			return fmt.Errorf("%w: enum %s in %s", model.ErrDuplicateName, d.Name, pom.Namespace)
		}
		e := model.NewEnum(pom, d.Name)
		for _, item := range d.Items {
			e.AddItem(&model.EnumItem{Name: item.Name, Expr: convertExpr(item.Expr)})
		}
		pom.AddEnum(e)
	}
	// Evaluate every enum in this POM now that all of its (and its
	// transitive imports') items exist, per spec.md §9's deferred
	// self/forward-reference evaluation.
	resolver := model.NewItemResolver()
	resolver.Lookup = func(name string, from *model.EnumItem) *model.EnumItem {
		item, err := resolveQualifiedEnumItem(pom, name, from.Enum)
		if err != nil {
			return nil
		}
		return item
	}
	for _, name := range pom.EnumOrder {
		e := pom.Enums[name]
		for _, itemName := range e.ItemOrder {
			if err := resolver.Resolve(e.Items[itemName]); err != nil {
				return err
			}
		}
	}
	return nil
}

func convertExpr(e parser.Expr) model.EnumExpr {
	switch n := e.(type) {
	case parser.IntLit:
		return model.IntLiteral{Value: n.Value}
	case parser.Ref:
		return model.EnumRef{Name: n.Name}
	case parser.RawBinOp:
		return model.BinOp{Op: n.Op, Left: convertExpr(n.Left), Right: convertExpr(n.Right)}
	default:
		return model.IntLiteral{}
	}
}

func buildPackets(pom *model.POM, decls []*parser.PacketDecl) error {
	// First pass: construct every packet (and its parent link, and its
	// fields without annotations) so that same-packet field back-references
	// used by @size/@count resolve in the second pass. A parent or a
	// packet-typed field is looked up as its packet is built, so it must be
	// declared earlier in this file or in an include. Mirrors spec.md §4.2's
	// two-pass resolution order.
	for _, d := range decls {
		if pom.Packets[d.Name] != nil {
			return fmt.Errorf("%w: packet %s in %s", model.ErrDuplicateName, d.Name, pom.Namespace)
		}
		var parent *model.Packet
		if d.Parent != "" {
			parent = pom.FindPacket(d.Parent)
			if parent == nil {
				return fmt.Errorf("%w: parent %s of %s", model.ErrReferenceNotFound, d.Parent, d.Name)
			}
		}
		pkt := model.NewPacket(pom, d.Name, parent)
		if parent != nil && pkt.IsAncestorOf(parent) {
			return fmt.Errorf("%w: %s", model.ErrCyclicInheritance, d.Name)
		}
		pom.AddPacket(pkt)

		for _, fd := range d.Fields {
			typ, err := resolveType(pom, fd.TypeName)
			if err != nil {
				return err
			}
			model.NewField(pkt, fd.Name, typ)
		}
	}

	// Second pass: apply annotations, packet-level first (so
	// custom_size/bigendian/type_selector are set before any field logic
	// needs them), then field-level in declaration order.
	for _, d := range decls {
		pkt := pom.Packets[d.Name]
		for _, ad := range d.Annotations {
			a, err := convertAnnotation(pom, ad)
			if err != nil {
				return err
			}
			if err := model.ApplyPacketAnnotation(pkt, a); err != nil {
				return err
			}
		}
		for i, fd := range d.Fields {
			field := pkt.Fields[i]
			for _, ad := range fd.Annotations {
				a, err := convertAnnotation(pom, ad)
				if err != nil {
					return err
				}
				if err := model.ApplyFieldAnnotation(field, a); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func resolveType(pom *model.POM, name string) (model.FieldType, error) {
	if t := model.LookupBuiltin(name); t != nil {
		return t, nil
	}
	if pkt := pom.FindPacket(name); pkt != nil {
		return pkt, nil
	}
	return nil, fmt.Errorf("%w: %s", model.ErrUnknownType, name)
}

func convertAnnotation(pom *model.POM, ad parser.AnnotationDecl) (*model.Annotation, error) {
	a := &model.Annotation{Name: ad.Name}
	for _, pd := range ad.Params {
		val := model.ParamValue{}
		if pd.RawValue != nil {
			switch pd.RawValue.Kind {
			case parser.RawString:
				val = model.ParamValue{Kind: model.ParamString, Str: pd.RawValue.Str}
			case parser.RawHex, parser.RawInt:
				val = model.ParamValue{Kind: model.ParamInt, Int: pd.RawValue.Int}
			case parser.RawFloat:
				val = model.ParamValue{Kind: model.ParamFloat, Float: pd.RawValue.Float}
			case parser.RawIdent:
				item, err := resolveEnumRef(pom, pd.RawValue.Ident)
				if err != nil {
					return nil, err
				}
				val = model.ParamValue{Kind: model.ParamEnumRef, EnumIt: item, Int: item.Value}
			}
		}
		a.Params = append(a.Params, model.AnnotationParam{Name: pd.Name, Value: val})
	}
	return a, nil
}

// resolveEnumRef resolves an annotation parameter's enum-item reference,
// spelled "Enum.ITEM" (same file) or "Namespace.Enum.ITEM" (cross file).
// Annotations never sit inside an enum body, so a bare single-segment name
// is not meaningful here.
func resolveEnumRef(pom *model.POM, qualified string) (*model.EnumItem, error) {
	return resolveQualifiedEnumItem(pom, qualified, nil)
}

// resolveQualifiedEnumItem resolves an EnumRef name to the item it names.
// One segment ("ITEM") is a sibling reference within currentEnum, valid
// only while evaluating that enum's own items. Two segments ("Enum.ITEM")
// name an enum declared in this same file. Three segments
// ("Namespace.Enum.ITEM") cross an include boundary.
func resolveQualifiedEnumItem(pom *model.POM, qualified string, currentEnum *model.Enum) (*model.EnumItem, error) {
	parts := strings.Split(qualified, ".")
	var owner *model.Enum
	var itemName string
	switch len(parts) {
	case 1:
		owner = currentEnum
		itemName = parts[0]
	case 2:
		owner = pom.Enums[parts[0]]
		itemName = parts[1]
	case 3:
		if imp, ok := pom.Imports[parts[0]]; ok {
			owner = imp.Enums[parts[1]]
		}
		itemName = parts[2]
	default:
		return nil, fmt.Errorf("%w: enum item %s", model.ErrReferenceNotFound, qualified)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: enum for %s", model.ErrReferenceNotFound, qualified)
	}
	item, ok := owner.Items[itemName]
	if !ok {
		return nil, fmt.Errorf("%w: enum item %s", model.ErrReferenceNotFound, qualified)
	}
	return item, nil
}
