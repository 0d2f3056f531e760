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

// Command reach decides reachability queries on Place/Transition Petri nets
// with SMT-based proof strategies. It reads a net in .net textual format and
// a marking formula, runs the selected strategies concurrently against z3,
// and prints the verdict as the final output line: REACHABLE, NOT REACHABLE
// or UNKNOWN.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jazzpetri/reach/checker"
	"github.com/jazzpetri/reach/formula"
	"github.com/jazzpetri/reach/obs"
	"github.com/jazzpetri/reach/petri"
	"github.com/jazzpetri/reach/solver"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func newRootCommand() *cobra.Command {
	cfg := defaultConfig()
	var configPath string

	cmd := &cobra.Command{
		Use:   "reach",
		Short: "SMT-based reachability verification for Petri nets",
		Long: `reach decides whether some reachable marking of a Place/Transition net
satisfies a formula, using bounded model checking, induction, k-induction
and the state-equation over-approximation over incremental z3 sessions.

The final line of output is exactly one of:

  REACHABLE
  NOT REACHABLE
  UNKNOWN`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				// File values fill in everything the command line left
				// at its default; explicitly set flags win.
				fileCfg := defaultConfig()
				if err := loadConfig(configPath, &fileCfg); err != nil {
					return err
				}
				mergeFlags(cmd, &cfg, &fileCfg)
				cfg = fileCfg
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(&cfg)
		},
	}

	cmd.Flags().StringVarP(&cfg.Net, "net", "n", cfg.Net, "path to the Petri net in .net format")
	cmd.Flags().StringVarP(&cfg.Formula, "formula", "f", cfg.Formula, "reachability formula text")
	cmd.Flags().StringVar(&cfg.FormulaFile, "formula-file", cfg.FormulaFile, "path to a file holding the formula")
	cmd.Flags().StringSliceVar(&cfg.Methods, "methods", cfg.Methods, "proof strategies to run (BMC, INDUCTION, K-INDUCTION, STATE-EQUATION)")
	cmd.Flags().IntVar(&cfg.Timeout, "timeout", cfg.Timeout, "time limit in seconds for the whole run")
	cmd.Flags().BoolVar(&cfg.Safe, "safe", cfg.Safe, "treat the net as 1-bounded and use the Boolean encoding")
	cmd.Flags().StringVar(&cfg.Z3Path, "z3-path", cfg.Z3Path, "z3 executable")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log strategy progress to stderr")
	cmd.Flags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "echo the SMT-LIB transcript to stderr")
	cmd.Flags().BoolVar(&cfg.ShowTime, "show-time", cfg.ShowTime, "print the elapsed time before the verdict")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file with the same settings")

	return cmd
}

// mergeFlags copies every flag the user set explicitly from the flag-bound
// config into the file config, so the command line overrides the file.
func mergeFlags(cmd *cobra.Command, flags, file *config) {
	set := func(name string) bool { return cmd.Flags().Changed(name) }
	if set("net") {
		file.Net = flags.Net
	}
	if set("formula") {
		file.Formula = flags.Formula
	}
	if set("formula-file") {
		file.FormulaFile = flags.FormulaFile
	}
	if set("methods") {
		file.Methods = flags.Methods
	}
	if set("timeout") {
		file.Timeout = flags.Timeout
	}
	if set("safe") {
		file.Safe = flags.Safe
	}
	if set("z3-path") {
		file.Z3Path = flags.Z3Path
	}
	if set("verbose") {
		file.Verbose = flags.Verbose
	}
	if set("debug") {
		file.Debug = flags.Debug
	}
	if set("show-time") {
		file.ShowTime = flags.ShowTime
	}
}

func run(cfg *config) error {
	logger := newLogger(cfg)

	net, err := petri.ParseNetFile(cfg.Net, cfg.Safe)
	if err != nil {
		return err
	}

	var f *formula.Formula
	if cfg.FormulaFile != "" {
		f, err = formula.ParseFile(cfg.FormulaFile)
	} else {
		f, err = formula.Parse(cfg.Formula)
	}
	if err != nil {
		return err
	}

	problem, err := checker.NewProblem(net, f)
	if err != nil {
		return err
	}

	methods := make([]checker.Method, 0, len(cfg.Methods))
	for _, name := range cfg.Methods {
		m, err := checker.ParseMethod(name)
		if err != nil {
			return err
		}
		methods = append(methods, m)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	factory := solver.Z3Factory(
		solver.WithPath(cfg.Z3Path),
		solver.WithTimeout(timeout),
		solver.WithLogger(logger),
		solver.WithDebug(cfg.Debug),
	)

	coordinator, err := checker.NewCoordinator(problem, methods, factory, logger)
	if err != nil {
		return err
	}

	logger.Info("verification started", map[string]interface{}{
		"net":     net.ID,
		"places":  len(net.Places()),
		"formula": f.String(),
		"mode":    problem.Encoder().Mode().String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	result := coordinator.Run(ctx)
	elapsed := time.Since(start)

	if result.Verdict != checker.Unknown {
		fmt.Printf("# method: %s\n", result.Method)
	}
	if result.Witness != nil {
		fmt.Printf("# witness: %s\n", result.Witness)
	}
	if result.Verdict == checker.NotReachable && result.Depth >= 0 {
		fmt.Printf("# depth: %d\n", result.Depth)
	}
	if cfg.ShowTime {
		fmt.Printf("# time: %.3fs\n", elapsed.Seconds())
	}
	fmt.Println(result.Verdict)
	return nil
}

// newLogger builds the stderr logger: warnings by default, progress with
// --verbose, the full transcript with --debug.
func newLogger(cfg *config) obs.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelInfo
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return obs.NewStderrLogger(level)
}
