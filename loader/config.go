// pktgen: a code generator for the packet description language
// Copyright 2024 pktgen Authors
// SPDX-License-Identifier: BSD-3-Clause

package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional pktgen.yaml project file (SPEC_FULL.md §4.6/§4.7):
// defaults for the CLI flags, so a project doesn't have to repeat its
// search path and target language on every invocation. A non-empty -l or
// -p, or an -o other than ".", given on the command line takes precedence
// over the file; -r and -v on the command line can only turn those
// settings on, not off.
type Config struct {
	PacketPath string `yaml:"packet_path"`
	Lang       string `yaml:"lang"`
	OutputDir  string `yaml:"output_dir"`
	Recursive  bool   `yaml:"recursive"`
	Verbose    bool   `yaml:"verbose"`
}

// LoadConfig reads and parses a pktgen.yaml-shaped file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pktgen: reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("pktgen: parsing config %s: %w", path, err)
	}
	return &cfg, nil
}
