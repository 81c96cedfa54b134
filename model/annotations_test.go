// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package model_test

import (
	"errors"
	"testing"

	"github.com/packetlang/pktgen/model"
)

func TestApplyPacketAnnotationUnknown(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	err := model.ApplyPacketAnnotation(pkt, &model.Annotation{Name: "nonexistent"})
	if !errors.Is(err, model.ErrUnknownAnnotation) {
		t.Fatalf("ApplyPacketAnnotation(unknown) = %v, want ErrUnknownAnnotation", err)
	}
}

func TestApplyPacketAnnotationWrongTarget(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	// "size" is a field-level annotation; applying it to a packet must fail.
	err := model.ApplyPacketAnnotation(pkt, &model.Annotation{Name: "size"})
	if !errors.Is(err, model.ErrAnnotationShape) {
		t.Fatalf("ApplyPacketAnnotation(size) = %v, want ErrAnnotationShape", err)
	}
}

func TestApplyBigEndianAnnotation(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	if err := model.ApplyPacketAnnotation(pkt, &model.Annotation{Name: "bigendian"}); err != nil {
		t.Fatalf("ApplyPacketAnnotation(bigendian): %v", err)
	}
	if !pkt.BigEndian {
		t.Errorf("bigendian annotation must set pkt.BigEndian")
	}
}

func TestApplyCustomSizeAnnotation(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	if err := model.ApplyPacketAnnotation(pkt, &model.Annotation{Name: "custom_size"}); err != nil {
		t.Fatalf("ApplyPacketAnnotation(custom_size): %v", err)
	}
	if !pkt.SizeInfo.Dynamic {
		t.Errorf("custom_size must mark the packet dynamic")
	}
	if pkt.SizeInfo.SizeField != nil {
		t.Errorf("custom_size must leave SizeField nil")
	}
}

func TestApplySizeAnnotationBare(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	f := model.NewField(pkt, "len", model.Uint16)
	if err := model.ApplyFieldAnnotation(f, &model.Annotation{Name: "size"}); err != nil {
		t.Fatalf("ApplyFieldAnnotation(size): %v", err)
	}
	if !f.IsSizeField {
		t.Errorf("bare @size must mark the field as a size field")
	}
	if pkt.SizeInfo.SizeField != f {
		t.Errorf("bare @size must install itself as the packet's size field")
	}
}

func TestApplySizeAnnotationReferencingSibling(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	lenField := model.NewField(pkt, "len", model.Uint16)
	data := model.NewField(pkt, "data", model.Uint8)

	ann := &model.Annotation{Name: "size", Params: []model.AnnotationParam{
		{Name: "data", Value: model.ParamValue{Kind: model.ParamNone}},
	}}
	if err := model.ApplyFieldAnnotation(lenField, ann); err != nil {
		t.Fatalf("ApplyFieldAnnotation(size(data)): %v", err)
	}
	if !data.IsRepeated() {
		t.Fatalf("referenced field must become repeated")
	}
	if data.Repeated.SizeField != lenField {
		t.Fatalf("data.Repeated.SizeField = %v, want %v", data.Repeated.SizeField, lenField)
	}
}

func TestApplySizeAnnotationReferencingMissingSibling(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	lenField := model.NewField(pkt, "len", model.Uint16)

	ann := &model.Annotation{Name: "size", Params: []model.AnnotationParam{
		{Name: "missing", Value: model.ParamValue{Kind: model.ParamNone}},
	}}
	err := model.ApplyFieldAnnotation(lenField, ann)
	if !errors.Is(err, model.ErrReferenceNotFound) {
		t.Fatalf("ApplyFieldAnnotation(size(missing)) = %v, want ErrReferenceNotFound", err)
	}
}

func TestApplyRepeatedFixedCount(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	f := model.NewField(pkt, "data", model.Uint8)

	ann := &model.Annotation{Name: "repeated", Params: []model.AnnotationParam{
		{Name: "count", Value: model.ParamValue{Kind: model.ParamInt, Int: 4}},
	}}
	if err := model.ApplyFieldAnnotation(f, ann); err != nil {
		t.Fatalf("ApplyFieldAnnotation(repeated(count=4)): %v", err)
	}
	if !f.Repeated.HasCount || f.Repeated.Count != 4 {
		t.Fatalf("f.Repeated = %+v, want HasCount with Count=4", f.Repeated)
	}
	if f.IsDynamicRepeated() {
		t.Errorf("a fixed-count repeated field must not be dynamic-repeated")
	}
}

func TestApplyRepeatedImplicit(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	f := model.NewField(pkt, "data", model.Uint8)

	if err := model.ApplyFieldAnnotation(f, &model.Annotation{Name: "repeated"}); err != nil {
		t.Fatalf("ApplyFieldAnnotation(repeated): %v", err)
	}
	if !f.Repeated.Implicit() {
		t.Errorf("bare @repeated with no count/size/count-field must be implicit")
	}
}

func TestTypeSelectorResolution(t *testing.T) {
	pom := model.NewPOM("ns")
	parent := model.NewPacket(pom, "Parent", nil)
	kindField := model.NewField(parent, "kind", model.Uint8)
	child := model.NewPacket(pom, "Child", parent)

	ann := &model.Annotation{Name: "type_selector", Params: []model.AnnotationParam{
		{Name: "kind", Value: model.ParamValue{Kind: model.ParamInt, Int: 1}},
	}}
	if err := model.ApplyPacketAnnotation(child, ann); err != nil {
		t.Fatalf("ApplyPacketAnnotation(type_selector): %v", err)
	}

	conds, err := model.TypeSelector(child)
	if err != nil {
		t.Fatalf("TypeSelector(child): %v", err)
	}
	if len(conds) != 1 || conds[0].Field != kindField {
		t.Fatalf("TypeSelector(child) = %+v, want one condition on kindField", conds)
	}
}

func TestTypeSelectorUnresolvableField(t *testing.T) {
	pom := model.NewPOM("ns")
	child := model.NewPacket(pom, "Child", nil)

	ann := &model.Annotation{Name: "type_selector", Params: []model.AnnotationParam{
		{Name: "notAField", Value: model.ParamValue{Kind: model.ParamInt, Int: 1}},
	}}
	if err := model.ApplyPacketAnnotation(child, ann); err != nil {
		t.Fatalf("ApplyPacketAnnotation(type_selector): %v", err)
	}
	if _, err := model.TypeSelector(child); !errors.Is(err, model.ErrReferenceNotFound) {
		t.Fatalf("TypeSelector with unresolvable ancestor field = %v, want ErrReferenceNotFound", err)
	}
}

func TestPaddedAnnotation(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	ann := &model.Annotation{Name: "padded", Params: []model.AnnotationParam{
		{Name: "multiple", Value: model.ParamValue{Kind: model.ParamInt, Int: 4}},
		{Name: "excluded", Value: model.ParamValue{Kind: model.ParamNone}},
	}}
	if err := model.ApplyPacketAnnotation(pkt, ann); err != nil {
		t.Fatalf("ApplyPacketAnnotation(padded): %v", err)
	}
	info, err := model.Padded(pkt)
	if err != nil {
		t.Fatalf("Padded(pkt): %v", err)
	}
	if info.Multiple != 4 || !info.Excluded {
		t.Fatalf("Padded(pkt) = %+v, want Multiple=4 Excluded=true", info)
	}
}

func TestPaddedAnnotationMissingMultiple(t *testing.T) {
	pom := model.NewPOM("ns")
	pkt := model.NewPacket(pom, "Pkt", nil)
	ann := &model.Annotation{Name: "padded"}
	if err := model.ApplyPacketAnnotation(pkt, ann); !errors.Is(err, model.ErrAnnotationShape) {
		t.Fatalf("ApplyPacketAnnotation(padded without multiple) = %v, want ErrAnnotationShape", err)
	}
}
