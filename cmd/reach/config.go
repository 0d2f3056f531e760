// Copyright 2026 The JazzPetri Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config holds every CLI setting. A YAML file given with --config provides
// defaults; explicitly set flags win over file values.
type config struct {
	Net         string   `yaml:"net"`
	Formula     string   `yaml:"formula"`
	FormulaFile string   `yaml:"formula-file"`
	Methods     []string `yaml:"methods"`
	Timeout     int      `yaml:"timeout"`
	Safe        bool     `yaml:"safe"`
	Z3Path      string   `yaml:"z3-path"`
	Verbose     bool     `yaml:"verbose"`
	Debug       bool     `yaml:"debug"`
	ShowTime    bool     `yaml:"show-time"`
}

// defaultTimeout is the per-run limit in seconds when none is given.
const defaultTimeout = 225

func defaultConfig() config {
	return config{
		Methods: []string{"STATE-EQUATION", "INDUCTION", "BMC", "K-INDUCTION"},
		Timeout: defaultTimeout,
		Z3Path:  "z3",
	}
}

// loadConfig reads a YAML config file into cfg, keeping cfg's values for
// keys the file does not set.
func loadConfig(path string, cfg *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// validate checks the cross-flag rules that cobra cannot express.
func (c *config) validate() error {
	if c.Net == "" {
		return fmt.Errorf("a net file is required (--net)")
	}
	if c.Formula == "" && c.FormulaFile == "" {
		return fmt.Errorf("a formula is required (--formula or --formula-file)")
	}
	if c.Formula != "" && c.FormulaFile != "" {
		return fmt.Errorf("--formula and --formula-file are mutually exclusive")
	}
	if len(c.Methods) == 0 {
		return fmt.Errorf("at least one method is required (--methods)")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	return nil
}
