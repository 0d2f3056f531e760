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
	"time"

	"github.com/jazzpetri/reach/obs"
	"github.com/jazzpetri/reach/solver"
)

// exploredPollInterval is how often K-Induction re-reads the explored depth
// while waiting for BMC to confirm the base cases of an inductive bound.
const exploredPollInterval = 20 * time.Millisecond

// KInduction generalizes Induction to chains of states. At depth i it
// maintains
//
//	ψ_i ≡ ¬F(x_0) ∧ T(x_0,x_1) ∧ ¬F(x_1) ∧ … ∧ ¬F(x_i) ∧ T(x_i,x_{i+1})
//
// on the solver stack and checks ψ_i ∧ F(x_{i+1}). Unsat means no chain of
// i+1 steps through ¬F-markings can end in F, so F is unreachable beyond
// depth i; the strategy publishes i on the Exchange and waits for BMC to
// confirm that no witness exists at the depths up to i before returning
// NotReachable. Sat extends the chain to ψ_{i+1}.
//
// The depth monotonicity of the loop makes the published bound the least
// inductive depth: the loop only reaches depth i after every shorter chain
// query answered Sat.
type KInduction struct {
	problem  *Problem
	exchange *Exchange
	logger   obs.Logger
}

// NewKInduction creates the strategy. The exchange should be shared with a
// running BMC instance: without confirmed base cases the strategy never
// turns an inductive bound into a verdict. A nil exchange is replaced with
// a private one, so a solo run publishes bounds nobody confirms and ends
// Unknown on cancellation instead of proving anything.
func NewKInduction(problem *Problem, exchange *Exchange, logger obs.Logger) *KInduction {
	if exchange == nil {
		exchange = NewExchange()
	}
	if logger == nil {
		logger = obs.NewNoOpLogger()
	}
	return &KInduction{problem: problem, exchange: exchange, logger: logger}
}

// Name returns MethodKInduction.
func (k *KInduction) Name() Method {
	return MethodKInduction
}

// Prove runs the chain loop until an inductive bound is found and confirmed
// or the context is cancelled.
func (k *KInduction) Prove(ctx context.Context, sess solver.Session) Result {
	enc := k.problem.Encoder()
	f := k.problem.Formula()

	if err := sess.Write(enc.DeclarePlaces(0) + enc.AssertFormula(f, 0, true)); err != nil {
		return unknown(MethodKInduction, err)
	}

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return unknown(MethodKInduction, err)
		}
		k.logger.Debug("checking depth", logFields(MethodKInduction, map[string]interface{}{"depth": i}))

		if err := sess.Write(enc.DeclarePlaces(i+1) + enc.TransitionRelation(i)); err != nil {
			return unknown(MethodKInduction, err)
		}
		if err := sess.Push(); err != nil {
			return unknown(MethodKInduction, err)
		}
		if err := sess.Write(enc.AssertFormula(f, i+1, false)); err != nil {
			return unknown(MethodKInduction, err)
		}

		res, err := sess.CheckSat(ctx)
		if err != nil {
			return unknown(MethodKInduction, err)
		}
		switch res {
		case solver.Unsat:
			k.exchange.PublishInductive(i)
			k.logger.Info("inductive bound found", logFields(MethodKInduction, map[string]interface{}{"depth": i}))
			if err := k.waitExplored(ctx, i); err != nil {
				return unknown(MethodKInduction, err)
			}
			return Result{Method: MethodKInduction, Verdict: NotReachable, Depth: i}
		case solver.Unknown:
			return unknown(MethodKInduction, fmt.Errorf("solver answered unknown at depth %d", i))
		}

		// Sat: the chain can still end in F, extend it.
		if err := sess.Pop(); err != nil {
			return unknown(MethodKInduction, err)
		}
		if err := sess.Write(enc.AssertFormula(f, i+1, true)); err != nil {
			return unknown(MethodKInduction, err)
		}
	}
}

// waitExplored blocks until BMC has refuted every depth up to the inductive
// bound, or the context is cancelled.
func (k *KInduction) waitExplored(ctx context.Context, depth int) error {
	ticker := time.NewTicker(exploredPollInterval)
	defer ticker.Stop()
	for {
		if explored, ok := k.exchange.Explored(); ok && explored >= depth {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
