// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package model implements the Packet Object Model (POM): the in-memory
// intermediate representation that a parsed .packet file is turned into,
// before the analysis passes in package analysis enrich it with layout
// information.
package model

// FieldType is anything a Field may be declared with: a BuiltinType or
// another Packet (possibly from an imported POM).
type FieldType interface {
	TypeName() string
}

// TypeName implements FieldType.
func (t *BuiltinType) TypeName() string { return t.name }

// TypeName implements FieldType.
func (p *Packet) TypeName() string { return p.Name }

// POM is the Packet Object Model for a single parsed file.
type POM struct {
	// Namespace is derived from the file's basename (without extension).
	Namespace string

	// PackageBindings maps a target-language id ("cpp", "go", ...) to the
	// package/namespace string declared for it in the source file.
	PackageBindings map[string]string

	// Imports maps an imported namespace to its POM. Order matters for
	// deterministic emission, so ImportOrder records insertion order.
	Imports     map[string]*POM
	ImportOrder []string

	Enums     map[string]*Enum
	EnumOrder []string

	Packets     map[string]*Packet
	PacketOrder []string
}

// NewPOM creates an empty POM for the given namespace.
func NewPOM(namespace string) *POM {
	return &POM{
		Namespace:       namespace,
		PackageBindings: make(map[string]string),
		Imports:         make(map[string]*POM),
		Enums:           make(map[string]*Enum),
		Packets:         make(map[string]*Packet),
	}
}

// AddImport registers an already-loaded POM as an import of this one. It is
// idempotent: importing the same namespace twice is a no-op (the loader's
// cache already guarantees the two POMs are identical).
func (p *POM) AddImport(pom *POM) {
	if _, ok := p.Imports[pom.Namespace]; ok {
		return
	}
	p.Imports[pom.Namespace] = pom
	p.ImportOrder = append(p.ImportOrder, pom.Namespace)
}

// AddEnum registers an enum declared directly in this POM.
func (p *POM) AddEnum(e *Enum) {
	p.Enums[e.Name] = e
	p.EnumOrder = append(p.EnumOrder, e.Name)
}

// AddPacket registers a packet declared directly in this POM.
func (p *POM) AddPacket(pkt *Packet) {
	p.Packets[pkt.Name] = pkt
	p.PacketOrder = append(p.PacketOrder, pkt.Name)
}

// FindPacket resolves a (possibly namespace-qualified) packet name against
// this POM: a bare name is looked up locally, a "Namespace.Packet" name is
// routed to the matching import.
func (p *POM) FindPacket(name string) *Packet {
	if name == "" {
		return nil
	}
	ns, local := splitQualified(name)
	if ns == "" {
		return p.Packets[local]
	}
	if ns == p.Namespace {
		return p.Packets[local]
	}
	if imp, ok := p.Imports[ns]; ok {
		return imp.FindPacket(local)
	}
	return nil
}

// FindEnum resolves a (possibly namespace-qualified) enum name, the same way
// FindPacket does for packets.
func (p *POM) FindEnum(name string) *Enum {
	if name == "" {
		return nil
	}
	ns, local := splitQualified(name)
	if ns == "" {
		return p.Enums[local]
	}
	if ns == p.Namespace {
		return p.Enums[local]
	}
	if imp, ok := p.Imports[ns]; ok {
		return imp.FindEnum(local)
	}
	return nil
}

func splitQualified(name string) (namespace, local string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}

// AllPOMs returns every transitively imported POM followed by this POM, each
// appearing exactly once, in a deterministic (import-then-self) order. It is
// the traversal every analysis pass and every recursive-emission walk uses.
func (p *POM) AllPOMs() []*POM {
	seen := make(map[*POM]bool)
	var order []*POM
	var walk func(pom *POM)
	walk = func(pom *POM) {
		if seen[pom] {
			return
		}
		seen[pom] = true
		for _, ns := range pom.ImportOrder {
			walk(pom.Imports[ns])
		}
		order = append(order, pom)
	}
	walk(p)
	return order
}

// Enum is a named, ordered set of integer constants.
type Enum struct {
	Name  string
	POM   *POM
	Items map[string]*EnumItem

	// ItemOrder records declaration order, which is also the order the
	// expression evaluator resolves forward/self references in.
	ItemOrder []string
}

// NewEnum creates an empty enum owned by pom.
func NewEnum(pom *POM, name string) *Enum {
	return &Enum{Name: name, POM: pom, Items: make(map[string]*EnumItem)}
}

// AddItem registers an item; its Value is filled in later by the expression
// evaluator (see enumexpr.go), since an item's expression may reference a
// sibling item declared later in the same enum.
func (e *Enum) AddItem(item *EnumItem) {
	item.Enum = e
	e.Items[item.Name] = item
	e.ItemOrder = append(e.ItemOrder, item.Name)
}

// EnumItem is one member of an Enum.
type EnumItem struct {
	Name  string
	Enum  *Enum
	Value int64

	// Expr is the unevaluated constant expression; Value is populated by
	// Enum's owner once all items in the transitive import graph exist.
	Expr EnumExpr
}

// Packet is a declared record type: an ordered list of typed fields, with
// optional single inheritance, annotations, and (post-analysis) layout info.
type Packet struct {
	Name   string
	POM    *POM
	Parent *Packet

	// Children are back-edges populated when a child declares Parent == this
	// packet; see NewPacket.
	Children []*Packet

	Fields      []*Field
	Annotations map[string]*Annotation

	// BigEndian is set by a @bigendian annotation on this packet, and copied
	// from an ancestor by the Endianness pass (spec.md §4.4.3); monotone once
	// set (an ancestor's true always wins).
	BigEndian bool

	// MinSize and SizeInfo are finalized by the Size pass (spec.md §4.4.1).
	// MinSize is zero until then; SizeInfo is already set at annotation time
	// by custom_size or a bare @size/@count, and is zero otherwise.
	MinSize  int
	SizeInfo SizeInfo
}

// SizeInfo records how a packet's on-wire length is determined.
//
//   Dynamic == false: Bytes is the packet's constant length.
//   Dynamic == true, SizeField != nil: the length is carried at runtime in
//     SizeField (possibly inherited from an ancestor).
//   Dynamic == true, SizeField == nil: "custom" — computed by the generated
//     runtime (requires the custom_size annotation).
type SizeInfo struct {
	Dynamic   bool
	Bytes     int
	SizeField *Field
}

// NewPacket creates a packet owned by pom, wiring the Children back-edge on
// parent if one is given.
func NewPacket(pom *POM, name string, parent *Packet) *Packet {
	pkt := &Packet{
		Name:        name,
		POM:         pom,
		Parent:      parent,
		Annotations: make(map[string]*Annotation),
	}
	if parent != nil {
		parent.Children = append(parent.Children, pkt)
	}
	return pkt
}

// AddField appends a field to the packet in declaration order.
func (p *Packet) AddField(f *Field) {
	f.Packet = p
	p.Fields = append(p.Fields, f)
}

// FindField looks up a field by name in this packet only (not ancestors),
// per spec.md §4.2: size/count references resolve within the same packet.
func (p *Packet) FindField(name string) *Field {
	for _, f := range p.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FindFieldInChain looks up a field by name starting at this packet's
// parent and walking up the inheritance chain, per spec.md §4.2's
// type_selector resolution order.
func (p *Packet) FindFieldInChain(name string) *Field {
	for pkt := p.Parent; pkt != nil; pkt = pkt.Parent {
		if f := pkt.FindField(name); f != nil {
			return f
		}
	}
	return nil
}

// IsAncestorOf reports whether p is somewhere in child's parent chain; used
// to reject cyclic inheritance (spec.md §3 invariant 1).
func (p *Packet) IsAncestorOf(child *Packet) bool {
	for pkt := child.Parent; pkt != nil; pkt = pkt.Parent {
		if pkt == p {
			return true
		}
	}
	return false
}

// SizeField returns the field, own or inherited, that carries this packet's
// runtime byte length. An own size field is recorded when its bare @size
// (or @count) annotation is applied; an inherited one only once the Size
// pass has run. Nil if the packet has no size field at all.
func (p *Packet) SizeField() *Field {
	return p.SizeInfo.SizeField
}

// OwnSizeField returns the field in this packet's own field list (not
// inherited) that was marked with a bare @size annotation, if any.
func (p *Packet) OwnSizeField() *Field {
	for _, f := range p.Fields {
		if f.IsSizeField {
			return f
		}
	}
	return nil
}

// Offset locates a field relative to its packet's first byte: skip
// ConstantBytes, plus the runtime length of every field in Intermediate.
type Offset struct {
	ConstantBytes int
	Intermediate  []*Field
}

// RepeatedInfo marks a Field as an array; nil on a Field means scalar.
type RepeatedInfo struct {
	// Count is the fixed element count, if declared with @repeated(count=N).
	Count int
	// HasCount reports whether Count is meaningful (fixed-count array).
	HasCount bool

	// SizeField, if non-nil, is the field carrying this array's byte length.
	SizeField *Field
	// CountField, if non-nil, is the field carrying this array's element count.
	CountField *Field
}

// Implicit reports whether the array has neither a fixed count, a size
// field, nor a count field — i.e. it consumes all remaining bytes.
func (r *RepeatedInfo) Implicit() bool {
	return r != nil && !r.HasCount && r.SizeField == nil && r.CountField == nil
}

// Field is a named, typed slot within a Packet.
type Field struct {
	Name   string
	Packet *Packet
	Type   FieldType

	Offset      Offset
	Repeated    *RepeatedInfo
	Annotations map[string]*Annotation

	// IsSizeField marks a field that was annotated bare @size (no parameter):
	// its value is this field's own packet's total length.
	IsSizeField bool
}

// NewField creates a field on pkt without annotations; annotations are
// applied in a second pass (see annotations.go), so that size/count
// back-references between fields in the same packet can resolve by name.
func NewField(pkt *Packet, name string, typ FieldType) *Field {
	f := &Field{Name: name, Packet: pkt, Type: typ, Annotations: make(map[string]*Annotation)}
	pkt.AddField(f)
	return f
}

// IsRepeated reports whether the field is an array (of any kind).
func (f *Field) IsRepeated() bool { return f.Repeated != nil }

// IsDynamicRepeated reports whether the field is an array whose length is
// not a compile-time constant (anything but a fixed @repeated(count=N)).
func (f *Field) IsDynamicRepeated() bool {
	return f.Repeated != nil && !f.Repeated.HasCount
}

// SetRepeatedInfo installs r as this field's array metadata. Annotations
// call this as they are applied; see model.RepeatedInfo and annotations.go.
func (f *Field) SetRepeatedInfo(r *RepeatedInfo) {
	if f.Repeated == nil {
		f.Repeated = r
		return
	}
	// Merge: an existing @size/@count reference (set by a sibling field's
	// annotation) may arrive before or after @repeated itself.
	if r.SizeField != nil {
		f.Repeated.SizeField = r.SizeField
	}
	if r.CountField != nil {
		f.Repeated.CountField = r.CountField
	}
	if r.HasCount {
		f.Repeated.HasCount = true
		f.Repeated.Count = r.Count
	}
}

// Annotation is declarative metadata attached to a packet or a field.
type Annotation struct {
	Name   string
	Params []AnnotationParam
}

// Param returns the named parameter's value and whether it was present.
func (a *Annotation) Param(name string) (ParamValue, bool) {
	for _, p := range a.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return ParamValue{}, false
}

// AnnotationParam is one name=value pair inside an annotation's parens.
type AnnotationParam struct {
	Name  string
	Value ParamValue
}

// ParamValueKind discriminates the coerced form of a ParamValue.
type ParamValueKind int

const (
	// ParamNone is the zero value: the parameter had no "=value" part at
	// all (e.g. the bare `excluded` in @padded(multiple=4, excluded)).
	ParamNone ParamValueKind = iota
	ParamString
	ParamInt
	ParamFloat
	ParamEnumRef
)

// ParamValue is a coerced annotation-parameter value. Exactly one of the
// fields matching Kind is meaningful.
type ParamValue struct {
	Kind   ParamValueKind
	Str    string
	Int    int64
	Float  float64
	EnumIt *EnumItem // resolved enum-item reference; Int mirrors its Value
}
