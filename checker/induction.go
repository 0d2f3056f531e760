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

	"github.com/jazzpetri/reach/obs"
	"github.com/jazzpetri/reach/solver"
)

// Induction proves unreachability with two fixed queries and no unrolling:
//
//  1. m0(x) ∧ F(x): Sat means the initial marking already satisfies the
//     formula, verdict Reachable.
//  2. ¬F(x) ∧ T(x, x') ∧ F(x'): Unsat means no single step can move from a
//     marking violating F to one satisfying it, so ¬F is inductive and the
//     verdict is NotReachable.
//
// A Sat answer to the second query is inconclusive: the pre-state of the
// step is an arbitrary marking, not necessarily a reachable one.
type Induction struct {
	problem *Problem
	logger  obs.Logger
}

// NewInduction creates the strategy.
func NewInduction(problem *Problem, logger obs.Logger) *Induction {
	if logger == nil {
		logger = obs.NewNoOpLogger()
	}
	return &Induction{problem: problem, logger: logger}
}

// Name returns MethodInduction.
func (ind *Induction) Name() Method {
	return MethodInduction
}

// Prove runs the two induction queries.
func (ind *Induction) Prove(ctx context.Context, sess solver.Session) Result {
	enc := ind.problem.Encoder()
	f := ind.problem.Formula()

	if err := sess.Write(enc.DeclarePlaces(0)); err != nil {
		return unknown(MethodInduction, err)
	}

	// Query 1: the initial marking itself.
	init, err := enc.InitialMarking(0)
	if err != nil {
		return unknown(MethodInduction, err)
	}
	if err := sess.Push(); err != nil {
		return unknown(MethodInduction, err)
	}
	if err := sess.Write(init + enc.AssertFormula(f, 0, false)); err != nil {
		return unknown(MethodInduction, err)
	}
	res, err := sess.CheckSat(ctx)
	if err != nil {
		return unknown(MethodInduction, err)
	}
	switch res {
	case solver.Sat:
		witness, err := ind.problem.witness(ctx, sess, 0)
		if err != nil {
			ind.logger.Warn("witness extraction failed", logFields(MethodInduction, map[string]interface{}{"error": err.Error()}))
		}
		return Result{Method: MethodInduction, Verdict: Reachable, Witness: witness, Depth: 0}
	case solver.Unknown:
		return unknown(MethodInduction, fmt.Errorf("solver answered unknown on the base query"))
	}

	// Query 2: is ¬F closed under one step?
	if err := sess.Pop(); err != nil {
		return unknown(MethodInduction, err)
	}
	step := enc.AssertFormula(f, 0, true) +
		enc.DeclarePlaces(1) +
		enc.TransitionRelation(0) +
		enc.AssertFormula(f, 1, false)
	if err := sess.Write(step); err != nil {
		return unknown(MethodInduction, err)
	}
	res, err = sess.CheckSat(ctx)
	if err != nil {
		return unknown(MethodInduction, err)
	}
	switch res {
	case solver.Unsat:
		return Result{Method: MethodInduction, Verdict: NotReachable, Depth: -1}
	case solver.Sat:
		ind.logger.Debug("negated formula is not inductive", logFields(MethodInduction, nil))
		return unknown(MethodInduction, nil)
	default:
		return unknown(MethodInduction, fmt.Errorf("solver answered unknown on the step query"))
	}
}
