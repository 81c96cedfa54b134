// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package loader resolves .packet files on a search path, parses them via
// package parser, and builds the package model Packet Object Model for
// them, recursively following include directives. It owns the process-wide
// load cache that makes diamond imports safe and import identity exact
// (spec.md §4.3).
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/packetlang/pktgen/model"
	"github.com/packetlang/pktgen/parser"
)

// PacketPathEnvVar is the environment variable consulted when no explicit
// search path is given (spec.md §6).
const PacketPathEnvVar = "PACKET_PATH"

// ParseSearchPath splits a colon-separated search path into absolute
// directories, the way spec.md §6 / §4.3 describe: prefer the explicit
// argument, fall back to PACKET_PATH, fall back to ".". Nonexistent
// directories are dropped rather than erroring, mirroring
// original_source's utils/packaging.py parse_python_path.
func ParseSearchPath(explicit string) []string {
	raw := explicit
	if raw == "" {
		raw = os.Getenv(PacketPathEnvVar)
	}
	if raw == "" {
		raw = "."
	}
	var dirs []string
	for _, part := range strings.Split(raw, ":") {
		if part == "" {
			continue
		}
		if info, err := os.Stat(part); err == nil && info.IsDir() {
			abs, err := filepath.Abs(part)
			if err == nil {
				dirs = append(dirs, abs)
			}
		}
	}
	return dirs
}

// Resolve finds logicalName on the search path and returns its absolute
// path, or ErrNotFound.
func Resolve(logicalName string, searchPath []string) (string, error) {
	for _, dir := range searchPath {
		candidate := filepath.Join(dir, logicalName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", model.ErrNotFound, logicalName)
}

// Loader owns the process-wide cache of loaded POMs, keyed by absolute
// path, so that a second Load of the same file returns the identical *POM
// (required for cross-file Packet.Parent pointer identity, spec.md §5/§8
// property 5) and so diamond imports terminate instead of re-parsing.
type Loader struct {
	SearchPath []string
	Verbose    bool
	Logf       func(format string, args ...interface{})

	cache map[string]*model.POM
	stack map[string]bool // in-progress paths, to reject include cycles
}

// New creates a Loader using the given search path.
func New(searchPath []string) *Loader {
	return &Loader{
		SearchPath: searchPath,
		cache:      make(map[string]*model.POM),
		stack:      make(map[string]bool),
		Logf:       func(string, ...interface{}) {},
	}
}

func (l *Loader) debugf(format string, args ...interface{}) {
	if l.Verbose {
		l.Logf(format, args...)
	}
}

// LoadFile resolves logicalName on the search path and loads it.
func (l *Loader) LoadFile(logicalName string) (*model.POM, error) {
	abs, err := Resolve(logicalName, l.SearchPath)
	if err != nil {
		return nil, err
	}
	return l.Load(abs)
}

// Load parses and builds the POM for the .packet file at absPath,
// returning the cached instance if this path was already loaded.
func (l *Loader) Load(absPath string) (*model.POM, error) {
	if l.stack[absPath] {
		return nil, fmt.Errorf("pktgen: include cycle at %s", absPath)
	}
	if pom, ok := l.cache[absPath]; ok {
		l.debugf("cache hit: %s", absPath)
		return pom, nil
	}
	l.stack[absPath] = true
	defer delete(l.stack, absPath)

	f, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, absPath)
	}
	defer f.Close()

	namespace := namespaceOf(absPath)
	l.debugf("parsing %s as namespace %s", absPath, namespace)

	ast, err := parser.Parse(f, absPath)
	if err != nil {
		var perr *parser.ParseErrors
		if errors.As(err, &perr) {
			for _, e := range perr.Errors {
				l.Logf("%v", e)
			}
		}
		return nil, fmt.Errorf("%w: %s", model.ErrParse, absPath)
	}

	pom := model.NewPOM(namespace)
	// The cache entry is installed before we recurse into includes/build
	// packets, mirroring spec.md §4.3's load ordering: imports resolve
	// before enums before packets, so parent/type lookups during packet
	// construction always succeed. An include that reaches this file again
	// while it is still loading is a cycle and is rejected above; a later
	// load of the same path (a diamond import) gets this identical instance.
	l.cache[absPath] = pom

	for _, inc := range ast.Includes {
		incAbs, err := Resolve(inc, l.SearchPath)
		if err != nil {
			return nil, err
		}
		l.debugf("loading include %s (for %s)", incAbs, absPath)
		incPOM, err := l.Load(incAbs)
		if err != nil {
			return nil, err
		}
		pom.AddImport(incPOM)
	}

	for _, pkg := range ast.Packages {
		pom.PackageBindings[pkg.Lang] = pkg.Value
	}

	if err := buildEnums(pom, ast.Enums); err != nil {
		return nil, err
	}
	if err := buildPackets(pom, ast.Packets); err != nil {
		return nil, err
	}
	return pom, nil
}

func namespaceOf(absPath string) string {
	base := filepath.Base(absPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
