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

	"github.com/jazzpetri/reach/formula"
	"github.com/jazzpetri/reach/obs"
	"github.com/jazzpetri/reach/solver"
)

// StateEquation over-approximates the reachable set with the state equation
// m0 + I·z = x for some nonnegative firing-count vector z, where I is the
// incidence matrix. Every reachable marking satisfies the equation but not
// every solution is reachable, so only one direction is conclusive:
//
//   - Unsat: the formula fails even on the over-approximation, verdict
//     NotReachable.
//   - Sat: the solution may be spurious (no realizable firing sequence is
//     checked), verdict Unknown.
//
// One solver query, no unrolling. The equation lives in integer arithmetic,
// so on a net flagged safe the strategy is skipped with an Unknown verdict.
type StateEquation struct {
	problem *Problem
	logger  obs.Logger
}

// NewStateEquation creates the strategy.
func NewStateEquation(problem *Problem, logger obs.Logger) *StateEquation {
	if logger == nil {
		logger = obs.NewNoOpLogger()
	}
	return &StateEquation{problem: problem, logger: logger}
}

// Name returns MethodStateEquation.
func (se *StateEquation) Name() Method {
	return MethodStateEquation
}

// Prove runs the single over-approximation query.
func (se *StateEquation) Prove(ctx context.Context, sess solver.Session) Result {
	enc := se.problem.Encoder()

	if enc.Mode() == formula.Safe {
		se.logger.Info("skipped on Boolean encoding", logFields(MethodStateEquation, nil))
		return unknown(MethodStateEquation, nil)
	}

	system, err := enc.StateEquationSystem()
	if err != nil {
		return unknown(MethodStateEquation, err)
	}
	if err := sess.Write(system + enc.AssertFormula(se.problem.Formula(), formula.NoIndex, false)); err != nil {
		return unknown(MethodStateEquation, err)
	}

	res, err := sess.CheckSat(ctx)
	if err != nil {
		return unknown(MethodStateEquation, err)
	}
	switch res {
	case solver.Unsat:
		return Result{Method: MethodStateEquation, Verdict: NotReachable, Depth: -1}
	case solver.Sat:
		se.logger.Debug("over-approximation is satisfiable", logFields(MethodStateEquation, nil))
		return unknown(MethodStateEquation, nil)
	default:
		return unknown(MethodStateEquation, fmt.Errorf("solver answered unknown"))
	}
}
