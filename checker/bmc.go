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

// BMC is Bounded Model Checking: unroll the transition relation one step at
// a time and ask at each depth whether some marking reachable in exactly
// that many steps satisfies the formula.
//
// A Sat answer yields a Reachable verdict with the model as witness. An
// Unsat answer at depth i extends the unrolling and tries depth i+1, so on
// an unbounded net with an unreachable formula the loop never terminates;
// the caller bounds it with the context.
//
// When an Exchange is attached, BMC publishes each refuted depth and checks
// whether K-Induction has meanwhile proven an inductive bound at or below
// the explored depth, which closes the open search with NotReachable.
type BMC struct {
	problem  *Problem
	exchange *Exchange
	logger   obs.Logger
}

// NewBMC creates the strategy. The exchange may be nil when BMC runs
// without a cooperating K-Induction instance.
func NewBMC(problem *Problem, exchange *Exchange, logger obs.Logger) *BMC {
	if logger == nil {
		logger = obs.NewNoOpLogger()
	}
	return &BMC{problem: problem, exchange: exchange, logger: logger}
}

// Name returns MethodBMC.
func (b *BMC) Name() Method {
	return MethodBMC
}

// Prove runs the BMC loop until a witness is found, a cooperating inductive
// bound closes the search, or the context is cancelled.
func (b *BMC) Prove(ctx context.Context, sess solver.Session) Result {
	enc := b.problem.Encoder()

	init, err := enc.InitialMarking(0)
	if err != nil {
		return unknown(MethodBMC, err)
	}
	if err := sess.Write(enc.DeclarePlaces(0) + init); err != nil {
		return unknown(MethodBMC, err)
	}

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return unknown(MethodBMC, err)
		}
		b.logger.Debug("checking depth", logFields(MethodBMC, map[string]interface{}{"depth": i}))

		if err := sess.Push(); err != nil {
			return unknown(MethodBMC, err)
		}
		if err := sess.Write(enc.AssertFormula(b.problem.Formula(), i, false)); err != nil {
			return unknown(MethodBMC, err)
		}

		res, err := sess.CheckSat(ctx)
		if err != nil {
			return unknown(MethodBMC, err)
		}
		switch res {
		case solver.Sat:
			witness, err := b.problem.witness(ctx, sess, i)
			if err != nil {
				b.logger.Warn("witness extraction failed", logFields(MethodBMC, map[string]interface{}{"error": err.Error()}))
			}
			return Result{Method: MethodBMC, Verdict: Reachable, Witness: witness, Depth: i}
		case solver.Unknown:
			return unknown(MethodBMC, fmt.Errorf("solver answered unknown at depth %d", i))
		}

		if err := sess.Pop(); err != nil {
			return unknown(MethodBMC, err)
		}

		if b.exchange != nil {
			b.exchange.PublishExplored(i)
			if j, ok := b.exchange.Inductive(); ok && j <= i {
				b.logger.Info("inductive bound confirmed", logFields(MethodBMC, map[string]interface{}{"depth": j}))
				return Result{Method: MethodBMC, Verdict: NotReachable, Depth: j}
			}
		}

		if err := sess.Write(enc.DeclarePlaces(i+1) + enc.TransitionRelation(i)); err != nil {
			return unknown(MethodBMC, err)
		}
	}
}
