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

package checker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jazzpetri/reach/obs"
	"github.com/jazzpetri/reach/solver"
)

// Coordinator runs a set of strategies concurrently against one problem and
// reduces their results to a single verdict.
//
// Each strategy gets its own solver session from the factory; sessions are
// never shared, so each strategy's assertion stack evolves independently.
// The first definitive (non-Unknown) result wins and cancels the remaining
// strategies. If every strategy ends inconclusive, the overall verdict
// is Unknown.
//
// Selecting K-Induction implicitly adds BMC: the inductive bound needs
// BMC's refuted depths to become a verdict.
type Coordinator struct {
	problem *Problem
	methods []Method
	factory solver.Factory
	logger  obs.Logger
}

// NewCoordinator validates the method selection and builds the coordinator.
func NewCoordinator(problem *Problem, methods []Method, factory solver.Factory, logger obs.Logger) (*Coordinator, error) {
	if problem == nil {
		return nil, fmt.Errorf("problem cannot be nil")
	}
	if factory == nil {
		return nil, fmt.Errorf("solver factory cannot be nil")
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("no methods selected")
	}
	if logger == nil {
		logger = obs.NewNoOpLogger()
	}

	seen := make(map[Method]bool)
	selected := make([]Method, 0, len(methods)+1)
	for _, m := range methods {
		switch m {
		case MethodBMC, MethodInduction, MethodKInduction, MethodStateEquation:
		default:
			return nil, fmt.Errorf("unknown method %q", m)
		}
		if !seen[m] {
			seen[m] = true
			selected = append(selected, m)
		}
	}
	if seen[MethodKInduction] && !seen[MethodBMC] {
		selected = append(selected, MethodBMC)
	}

	return &Coordinator{
		problem: problem,
		methods: selected,
		factory: factory,
		logger:  logger,
	}, nil
}

// Methods returns the methods the coordinator will run, including any
// implicitly added ones.
func (c *Coordinator) Methods() []Method {
	return c.methods
}

// Run executes all selected strategies and returns the reduced result.
// It blocks until a definitive verdict arrives (remaining strategies are
// then cancelled and their sessions closed) or every strategy finishes.
func (c *Coordinator) Run(ctx context.Context) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exchange := NewExchange()
	checkers := make([]Checker, 0, len(c.methods))
	for _, m := range c.methods {
		switch m {
		case MethodBMC:
			checkers = append(checkers, NewBMC(c.problem, exchange, c.logger))
		case MethodInduction:
			checkers = append(checkers, NewInduction(c.problem, c.logger))
		case MethodKInduction:
			checkers = append(checkers, NewKInduction(c.problem, exchange, c.logger))
		case MethodStateEquation:
			checkers = append(checkers, NewStateEquation(c.problem, c.logger))
		}
	}

	results := make(chan Result, len(checkers))
	g, gctx := errgroup.WithContext(ctx)
	for _, ck := range checkers {
		ck := ck
		g.Go(func() error {
			sess, err := c.factory()
			if err != nil {
				results <- unknown(ck.Name(), err)
				return nil
			}
			defer sess.Close()
			results <- ck.Prove(gctx, sess)
			return nil
		})
	}
	go func() {
		g.Wait()
		close(results)
	}()

	final := Result{Verdict: Unknown, Depth: -1}
	for res := range results {
		fields := logFields(res.Method, map[string]interface{}{"verdict": res.Verdict.String()})
		if res.Err != nil {
			fields["error"] = res.Err.Error()
		}
		c.logger.Info("strategy finished", fields)

		if res.Verdict != Unknown && final.Verdict == Unknown {
			final = res
			cancel()
		}
	}
	return final
}
