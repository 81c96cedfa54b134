// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command pktgen parses .packet files, runs the Size/Offset/Endianness
// analysis passes, and emits target-language source for every packet they
// declare (spec.md §6).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/packetlang/pktgen/analysis"
	"github.com/packetlang/pktgen/emit"
	"github.com/packetlang/pktgen/emit/cxx"
	"github.com/packetlang/pktgen/emit/gostyle"
	"github.com/packetlang/pktgen/loader"
)

const version = "pktgen 0.1.0"

func main() {
	var (
		lang       string
		outputDir  string
		packetPath string
		recursive  bool
		verbose    bool
		configPath string
		showVer    bool
	)

	flag.StringVar(&lang, "l", "", "target language (go, cpp)")
	flag.StringVar(&lang, "lang", "", "target language (go, cpp)")
	flag.StringVar(&outputDir, "o", ".", "output directory")
	flag.StringVar(&outputDir, "output", ".", "output directory")
	flag.StringVar(&packetPath, "p", "", "colon-separated packet search path")
	flag.StringVar(&packetPath, "packetpath", "", "colon-separated packet search path")
	flag.BoolVar(&recursive, "r", false, "also emit packets from included files")
	flag.BoolVar(&recursive, "recursive", false, "also emit packets from included files")
	flag.BoolVar(&verbose, "v", false, "verbose diagnostic logging")
	flag.BoolVar(&verbose, "verbose", false, "verbose diagnostic logging")
	flag.StringVar(&configPath, "config", "", "pktgen.yaml project defaults file")
	flag.BoolVar(&showVer, "version", false, "print the version and exit")
	flag.Parse()

	if showVer {
		fmt.Println(version)
		return
	}

	if configPath != "" {
		cfg, err := loader.LoadConfig(configPath)
		if err != nil {
			log.Fatal(err)
		}
		if lang == "" {
			lang = cfg.Lang
		}
		if outputDir == "." && cfg.OutputDir != "" {
			outputDir = cfg.OutputDir
		}
		if packetPath == "" {
			packetPath = cfg.PacketPath
		}
		if !recursive {
			recursive = cfg.Recursive
		}
		if !verbose {
			verbose = cfg.Verbose
		}
	}

	files := flag.Args()
	if lang == "" || len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: pktgen -l <go|cpp> [-o dir] [-p path] [-r] [-v] file.packet ...")
		os.Exit(1)
	}

	registry := newRegistry()
	emitter := registry.Lookup(lang)
	if emitter == nil {
		log.Fatalf("pktgen: unknown target language %q", lang)
	}

	ld := loader.New(loader.ParseSearchPath(packetPath))
	ld.Verbose = verbose
	ld.Logf = func(format string, args ...interface{}) {
		log.Printf(format, args...)
	}

	exitCode := 0
	for _, file := range files {
		if err := run(ld, emitter, file, outputDir, recursive); err != nil {
			log.Printf("pktgen: %s: %v", file, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func newRegistry() *emit.Registry {
	r := emit.NewRegistry()
	r.Register(gostyle.New())
	r.Register(cxx.New())
	return r
}

// run loads one .packet file, runs the analysis passes over it, generates
// source with emitter, and writes every output file under outputDir.
func run(ld *loader.Loader, emitter emit.Emitter, file, outputDir string, recursive bool) error {
	pom, err := ld.LoadFile(file)
	if err != nil {
		return err
	}
	if err := analysis.Run(pom); err != nil {
		return err
	}
	outputs, err := emitter.Emit(pom, recursive)
	if err != nil {
		return err
	}
	for _, out := range outputs {
		path := filepath.Join(outputDir, out.Name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("pktgen: creating output directory for %s: %w", path, err)
		}
		if err := os.WriteFile(path, out.Content, 0o644); err != nil {
			return fmt.Errorf("pktgen: writing %s: %w", path, err)
		}
	}
	return nil
}
