// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package emit defines the target-language code generation contract
// (spec.md §4.5). Each target (emit/gostyle, emit/cxx) implements Emitter
// against a fully analyzed model.POM; the CLI in cmd/pktgen selects one by
// name and drives it over every packet file the user asked for.
package emit

import "github.com/packetlang/pktgen/model"

// Output is one generated file: Name is relative to the run's output
// directory, Content is the file's full text.
type Output struct {
	Name    string
	Content []byte
}

// Emitter generates source code for one target language from an analyzed
// POM. Implementations must not mutate pom; the three analysis passes are
// expected to have already run over it.
type Emitter interface {
	// Name is the CLI's -l/--lang identifier for this target ("go", "cpp").
	Name() string

	// Emit returns the files to write for pom. includeImported controls
	// whether packets declared in pom's transitive imports are emitted too
	// (the -r/--recursive flag, spec.md §6) as opposed to only pom's own.
	Emit(pom *model.POM, includeImported bool) ([]Output, error)
}

// Registry is the set of Emitters the CLI knows how to select between.
// Only "cpp" and "go" are registered; there is no stub for other target
// languages (DESIGN.md, Open Question decision 2).
type Registry struct {
	byName map[string]Emitter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Emitter)}
}

// Register adds e under its own Name(), overwriting any previous
// registration with that name.
func (r *Registry) Register(e Emitter) {
	r.byName[e.Name()] = e
}

// Lookup returns the Emitter registered under name, or nil.
func (r *Registry) Lookup(name string) Emitter {
	return r.byName[name]
}

// packetsToEmit returns the packets of pom, plus (if includeImported) every
// packet declared in a transitively imported POM, in the same
// import-then-self deterministic order model.POM.AllPOMs uses.
func packetsToEmit(pom *model.POM, includeImported bool) []*model.Packet {
	if !includeImported {
		out := make([]*model.Packet, 0, len(pom.PacketOrder))
		for _, name := range pom.PacketOrder {
			out = append(out, pom.Packets[name])
		}
		return out
	}
	var out []*model.Packet
	for _, p := range pom.AllPOMs() {
		for _, name := range p.PacketOrder {
			out = append(out, p.Packets[name])
		}
	}
	return out
}

// PacketsToEmit exposes packetsToEmit to emitter implementations outside
// this package.
func PacketsToEmit(pom *model.POM, includeImported bool) []*model.Packet {
	return packetsToEmit(pom, includeImported)
}
