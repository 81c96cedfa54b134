// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package model

import "fmt"

// annotationTarget says whether an annotation may be attached to a packet,
// a field, or either.
type annotationTarget int

const (
	targetPacket annotationTarget = 1 << iota
	targetField
)

// annotationDef is one entry in the registry: everything the core knows
// about an annotation's shape and effect, independent of any one use of it.
//
// This replaces the source tool's self-registering decorator classes
// (packet_level_annotation/field_level_annotation in original_source's
// annotations.py) with a single explicit table built at init, per spec.md
// §9's design note.
type annotationDef struct {
	name    string
	target  annotationTarget
	applyPkt func(p *Packet, a *Annotation) error
	applyFld func(f *Field, a *Annotation) error
}

var registry = map[string]*annotationDef{}

func register(def *annotationDef) { registry[def.name] = def }

func init() {
	register(&annotationDef{name: "type_selector", target: targetPacket, applyPkt: applyTypeSelector})
	register(&annotationDef{name: "custom_size", target: targetPacket, applyPkt: applyCustomSize})
	register(&annotationDef{name: "padded", target: targetPacket, applyPkt: applyPadded})
	register(&annotationDef{name: "bigendian", target: targetPacket, applyPkt: applyBigEndian})
	register(&annotationDef{name: "size", target: targetField, applyFld: applySize})
	register(&annotationDef{name: "count", target: targetField, applyFld: applyCount})
	register(&annotationDef{name: "repeated", target: targetField, applyFld: applyRepeated})
}

// ApplyPacketAnnotation validates and applies a single packet-level
// annotation, recording it on p.Annotations. Unknown annotations and
// target-mismatched ones are hard errors at model-construction time
// (spec.md §4.2).
func ApplyPacketAnnotation(p *Packet, a *Annotation) error {
	def, ok := registry[a.Name]
	if !ok {
		return fmt.Errorf("%w: %s on packet %s", ErrUnknownAnnotation, a.Name, p.Name)
	}
	if def.target&targetPacket == 0 {
		return fmt.Errorf("%w: @%s is a field annotation, used on packet %s", ErrAnnotationShape, a.Name, p.Name)
	}
	p.Annotations[a.Name] = a
	return def.applyPkt(p, a)
}

// ApplyFieldAnnotation validates and applies a single field-level
// annotation, recording it on f.Annotations.
func ApplyFieldAnnotation(f *Field, a *Annotation) error {
	def, ok := registry[a.Name]
	if !ok {
		return fmt.Errorf("%w: %s on field %s.%s", ErrUnknownAnnotation, a.Name, f.Packet.Name, f.Name)
	}
	if def.target&targetField == 0 {
		return fmt.Errorf("%w: @%s is a packet annotation, used on field %s.%s", ErrAnnotationShape, a.Name, f.Packet.Name, f.Name)
	}
	f.Annotations[a.Name] = a
	return def.applyFld(f, a)
}

// --- packet-level annotations ---

// TypeSelector resolves an applied type_selector's parameters into
// (ancestor field, expected value) pairs, per spec.md §4.2: each parameter
// name is looked up by walking the packet's parent chain, and every
// parameter must carry a value.
func TypeSelector(p *Packet) ([]TypeSelectorCondition, error) {
	a, ok := p.Annotations["type_selector"]
	if !ok {
		return nil, nil
	}
	var conds []TypeSelectorCondition
	for _, param := range a.Params {
		field := p.FindFieldInChain(param.Name)
		if field == nil {
			return nil, fmt.Errorf("%w: type_selector field %s not found in ancestors of %s", ErrReferenceNotFound, param.Name, p.Name)
		}
		if param.Value.Kind == ParamNone {
			return nil, fmt.Errorf("%w: type_selector %s has no value on %s", ErrAnnotationShape, param.Name, p.Name)
		}
		conds = append(conds, TypeSelectorCondition{Field: field, Value: param.Value})
	}
	return conds, nil
}

// TypeSelectorCondition is one "ancestor field equals value" clause of a
// type_selector annotation.
type TypeSelectorCondition struct {
	Field *Field
	Value ParamValue
}

func applyTypeSelector(p *Packet, a *Annotation) error {
	// Validation (field resolvability, presence of a value) is deferred to
	// TypeSelector(), called by emitters/tests once the full packet graph
	// (including ancestors, possibly cross-file) exists. At annotation-apply
	// time only the shape (it has at least one parameter) is checked.
	if len(a.Params) == 0 {
		return fmt.Errorf("%w: type_selector with no parameters on %s", ErrAnnotationShape, p.Name)
	}
	return nil
}

func applyCustomSize(p *Packet, a *Annotation) error {
	if len(a.Params) != 0 {
		return fmt.Errorf("%w: custom_size takes no parameters on %s", ErrAnnotationShape, p.Name)
	}
	p.SizeInfo = SizeInfo{Dynamic: true}
	return nil
}

// PaddedInfo is the resolved shape of a @padded(multiple=N, excluded?)
// annotation.
type PaddedInfo struct {
	Multiple int
	Excluded bool
}

// Padded returns the packet's padding info, or (nil) if it has none.
func Padded(p *Packet) (*PaddedInfo, error) {
	a, ok := p.Annotations["padded"]
	if !ok {
		return nil, nil
	}
	info := &PaddedInfo{}
	haveMultiple := false
	for _, param := range a.Params {
		switch param.Name {
		case "multiple":
			if param.Value.Kind != ParamInt {
				return nil, fmt.Errorf("%w: padded.multiple must be an integer on %s", ErrAnnotationShape, p.Name)
			}
			info.Multiple = int(param.Value.Int)
			haveMultiple = true
		case "excluded":
			// Per spec.md §9 Open Question, resolved against original_source:
			// mere presence of the parameter means true, regardless of any
			// value attached to it.
			info.Excluded = true
		default:
			return nil, fmt.Errorf("%w: unknown padded parameter %s on %s", ErrAnnotationShape, param.Name, p.Name)
		}
	}
	if !haveMultiple {
		return nil, fmt.Errorf("%w: padded without multiple= on %s", ErrAnnotationShape, p.Name)
	}
	return info, nil
}

func applyPadded(p *Packet, a *Annotation) error {
	_, err := Padded(p)
	return err
}

func applyBigEndian(p *Packet, a *Annotation) error {
	if len(a.Params) != 0 {
		return fmt.Errorf("%w: bigendian takes no parameters on %s", ErrAnnotationShape, p.Name)
	}
	p.BigEndian = true
	return nil
}

// --- field-level annotations ---

func applySize(f *Field, a *Annotation) error {
	if len(a.Params) > 1 {
		return fmt.Errorf("%w: @size takes at most one parameter on %s.%s", ErrAnnotationShape, f.Packet.Name, f.Name)
	}
	if len(a.Params) == 1 {
		ref := f.Packet.FindField(a.Params[0].Name)
		if ref == nil {
			return fmt.Errorf("%w: @size(%s) not found in %s", ErrReferenceNotFound, a.Params[0].Name, f.Packet.Name)
		}
		ref.SetRepeatedInfo(&RepeatedInfo{SizeField: f})
		return nil
	}
	f.IsSizeField = true
	f.Packet.SizeInfo = SizeInfo{Dynamic: true, SizeField: f}
	return nil
}

func applyCount(f *Field, a *Annotation) error {
	if len(a.Params) > 1 {
		return fmt.Errorf("%w: @count takes at most one parameter on %s.%s", ErrAnnotationShape, f.Packet.Name, f.Name)
	}
	if len(a.Params) == 1 {
		ref := f.Packet.FindField(a.Params[0].Name)
		if ref == nil {
			return fmt.Errorf("%w: @count(%s) not found in %s", ErrReferenceNotFound, a.Params[0].Name, f.Packet.Name)
		}
		ref.SetRepeatedInfo(&RepeatedInfo{CountField: f})
		return nil
	}
	// A bare @count with no parameter mirrors original_source's
	// CountAnnotation fallback: it marks this field itself as a (packet)
	// size carrier, identically to a bare @size.
	f.IsSizeField = true
	f.Packet.SizeInfo = SizeInfo{Dynamic: true, SizeField: f}
	return nil
}

func applyRepeated(f *Field, a *Annotation) error {
	if f.Repeated != nil {
		// A @size(this-field) or @count(this-field) elsewhere already
		// installed size/count info on this field; @repeated just confirms
		// it is an array and must not also specify a count.
		if len(a.Params) != 0 {
			return fmt.Errorf("%w: repeated field %s.%s already has a size or count field", ErrAnnotationShape, f.Packet.Name, f.Name)
		}
		return nil
	}
	if len(a.Params) == 0 {
		f.SetRepeatedInfo(&RepeatedInfo{})
		return nil
	}
	if len(a.Params) != 1 || a.Params[0].Name != "count" {
		return fmt.Errorf("%w: @repeated only accepts count= on %s.%s", ErrAnnotationShape, f.Packet.Name, f.Name)
	}
	if a.Params[0].Value.Kind != ParamInt {
		return fmt.Errorf("%w: @repeated count must be an integer on %s.%s", ErrAnnotationShape, f.Packet.Name, f.Name)
	}
	f.SetRepeatedInfo(&RepeatedInfo{HasCount: true, Count: int(a.Params[0].Value.Int)})
	return nil
}
