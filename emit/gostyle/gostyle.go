// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package gostyle

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/packetlang/pktgen/emit"
	"github.com/packetlang/pktgen/model"
)

// Emitter generates one .go file per namespace (POM), mirroring
// original_source's go.py _get_output_file: one output file named after
// pom.namespace, written under a directory of the same name.
type Emitter struct{}

// New creates the Go emitter.
func New() *Emitter { return &Emitter{} }

// Name implements emit.Emitter.
func (*Emitter) Name() string { return "go" }

// supportPackage is the import path for the wide builtin types
// (pktrt.Uint128, pktrt.Hash256), generated code depends on whenever a
// packet declares a uint128 or hash256 field.
const supportPackage = "github.com/packetlang/pktgen/emit/gostyle/pktrt"

var builtinGoNames = map[string]string{
	model.Char.Name():   "int8",
	model.Int8.Name():   "int8",
	model.Int16.Name():  "int16",
	model.Int32.Name():  "int32",
	model.Int64.Name():  "int64",
	model.Uint8.Name():  "uint8",
	model.Uint16.Name(): "uint16",
	model.Uint32.Name(): "uint32",
	model.Uint64.Name(): "uint64",
}

// Emit implements emit.Emitter.
func (e *Emitter) Emit(pom *model.POM, includeImported bool) ([]emit.Output, error) {
	packets := emit.PacketsToEmit(pom, includeImported)

	byNamespace := make(map[string][]*model.Packet)
	var namespaceOrder []string
	for _, pkt := range packets {
		ns := pkt.POM.Namespace
		if _, ok := byNamespace[ns]; !ok {
			namespaceOrder = append(namespaceOrder, ns)
		}
		byNamespace[ns] = append(byNamespace[ns], pkt)
	}

	var outputs []emit.Output
	for _, ns := range namespaceOrder {
		src, err := e.renderNamespace(pom, ns, byNamespace[ns])
		if err != nil {
			return nil, fmt.Errorf("pktgen: generating go code for %s: %w", ns, err)
		}
		formatted, err := imports.Process(ns+".go", src, nil)
		if err != nil {
			return nil, fmt.Errorf("pktgen: formatting generated go for %s: %w", ns, err)
		}
		outputs = append(outputs, emit.Output{Name: ns + "/" + ns + ".go", Content: formatted})
	}
	return outputs, nil
}

type fileData struct {
	PackageName string
	Imports     []string
	Enums       []enumData
	Packets     []packetData
}

type enumData struct {
	Name  string
	Items []enumItemData
}

type enumItemData struct {
	Name  string
	Value int64
}

type packetData struct {
	Name       string
	ParentType string
	Fields     []fieldData
	BigEndian  bool
	Dynamic    bool
	MinSize    int
}

type fieldData struct {
	Name   string
	GoType string
}

func (e *Emitter) renderNamespace(root *model.POM, namespace string, packets []*model.Packet) ([]byte, error) {
	pom := root
	for _, p := range root.AllPOMs() {
		if p.Namespace == namespace {
			pom = p
			break
		}
	}

	data := fileData{PackageName: goPackageName(pom)}
	importSet := map[string]bool{}

	for _, name := range pom.EnumOrder {
		en := pom.Enums[name]
		ed := enumData{Name: exportName(en.Name)}
		for _, itemName := range en.ItemOrder {
			it := en.Items[itemName]
			ed.Items = append(ed.Items, enumItemData{Name: exportName(it.Name), Value: it.Value})
		}
		data.Enums = append(data.Enums, ed)
	}

	for _, pkt := range packets {
		pd := packetData{
			Name:      exportName(pkt.Name),
			BigEndian: pkt.BigEndian,
			Dynamic:   pkt.SizeInfo.Dynamic,
			MinSize:   pkt.MinSize,
		}
		if pkt.Parent != nil {
			pd.ParentType = e.goTypeRef(pom, pkt.Parent, importSet)
		}
		for _, f := range pkt.Fields {
			pd.Fields = append(pd.Fields, fieldData{
				Name:   exportName(f.Name),
				GoType: e.goFieldType(pom, f, importSet),
			})
		}
		data.Packets = append(data.Packets, pd)
	}

	for path := range importSet {
		data.Imports = append(data.Imports, path)
	}
	sort.Strings(data.Imports)

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Emitter) goFieldType(pom *model.POM, f *model.Field, importSet map[string]bool) string {
	base := e.goTypeRef(pom, f.Type, importSet)
	if f.IsRepeated() {
		return "[]" + base
	}
	return base
}

func (e *Emitter) goTypeRef(pom *model.POM, t model.FieldType, importSet map[string]bool) string {
	switch v := t.(type) {
	case *model.BuiltinType:
		if v.WideBlob() {
			importSet[supportPackage] = true
			if v == model.Uint128 {
				return "pktrt.Uint128"
			}
			return "pktrt.Hash256"
		}
		return builtinGoNames[v.Name()]
	case *model.Packet:
		if v.POM.Namespace == pom.Namespace {
			return exportName(v.Name)
		}
		alias := goPackageName(v.POM)
		importSet[goImportPath(v.POM)] = true
		return alias + "." + exportName(v.Name)
	default:
		return "interface{}"
	}
}

// goPackageName returns the package clause name for pom: its "go" package
// binding if declared, else its namespace used verbatim (namespaces are
// already lowercase file basenames, so they tend to be valid package
// names without further mangling).
func goPackageName(pom *model.POM) string {
	if binding, ok := pom.PackageBindings["go"]; ok && binding != "" {
		parts := strings.Split(binding, "/")
		return parts[len(parts)-1]
	}
	return pom.Namespace
}

func goImportPath(pom *model.POM) string {
	if binding, ok := pom.PackageBindings["go"]; ok && binding != "" {
		return binding
	}
	return pom.Namespace
}

// exportName capitalizes the first letter so generated identifiers are
// exported, leaving the rest of the .packet-declared name untouched.
func exportName(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

var fileTemplate = template.Must(template.New("gofile").Parse(`package {{.PackageName}}

{{if .Imports}}import (
{{range .Imports}}	"{{.}}"
{{end}})
{{end}}
{{range .Enums}}
type {{.Name}} int64

const (
{{range .Items}}	{{$.Name}}{{.Name}} {{$.Name}} = {{.Value}}
{{end}})
{{end}}
{{range .Packets}}
// {{.Name}} was generated from a packet description.
{{if .Dynamic}}// Its wire length is dynamic.
{{else}}// Its wire length is fixed at {{.MinSize}} bytes.
{{end}}type {{.Name}} struct {
{{if .ParentType}}	{{.ParentType}}
{{end}}{{range .Fields}}	{{.Name}} {{.GoType}}
{{end}}}

// BigEndian reports whether {{.Name}}'s multi-byte fields are big-endian.
func (*{{.Name}}) BigEndian() bool { return {{.BigEndian}} }
{{end}}`))
