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

// Package checker implements the SMT-based reachability proof strategies and
// the coordinator that runs them concurrently.
//
// A strategy consumes a Problem (net plus formula, validated and bound to an
// encoder) and one solver Session, runs its proof protocol, and produces a
// Result. Four strategies are provided:
//
//   - BMC: unrolls the transition relation depth by depth, finds witnesses.
//   - Induction: two fixed queries, proves unreachability when the negated
//     formula is inductive.
//   - K-Induction: generalizes Induction over chains of states, cooperating
//     with BMC through an Exchange.
//   - StateEquation: a single over-approximation query via the incidence
//     matrix.
//
// BMC and K-Induction may loop forever on unbounded nets; the coordinator
// bounds them with a context deadline.
package checker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jazzpetri/reach/encoding"
	"github.com/jazzpetri/reach/formula"
	"github.com/jazzpetri/reach/petri"
	"github.com/jazzpetri/reach/solver"
)

// Verdict is the answer of a reachability query.
type Verdict int

const (
	// Unknown means no strategy could decide the query.
	Unknown Verdict = iota

	// Reachable means a reachable marking satisfies the formula.
	Reachable

	// NotReachable means no reachable marking satisfies the formula.
	NotReachable
)

// String returns the verdict in the output format of the CLI: the final
// line printed for a run is exactly this string.
func (v Verdict) String() string {
	switch v {
	case Reachable:
		return "REACHABLE"
	case NotReachable:
		return "NOT REACHABLE"
	default:
		return "UNKNOWN"
	}
}

// Method identifies a proof strategy.
type Method string

const (
	// MethodBMC is Bounded Model Checking.
	MethodBMC Method = "BMC"

	// MethodInduction is plain (1-)induction.
	MethodInduction Method = "INDUCTION"

	// MethodKInduction is k-induction, run together with BMC.
	MethodKInduction Method = "K-INDUCTION"

	// MethodStateEquation is the state-equation over-approximation.
	MethodStateEquation Method = "STATE-EQUATION"
)

// Methods returns all methods in their default execution order.
func Methods() []Method {
	return []Method{MethodStateEquation, MethodInduction, MethodBMC, MethodKInduction}
}

// ParseMethod normalizes a method name from the command line.
func ParseMethod(name string) (Method, error) {
	switch m := Method(strings.ToUpper(strings.TrimSpace(name))); m {
	case MethodBMC, MethodInduction, MethodKInduction, MethodStateEquation:
		return m, nil
	default:
		return "", fmt.Errorf("unknown method %q (want BMC, INDUCTION, K-INDUCTION or STATE-EQUATION)", name)
	}
}

// Result is the outcome of one strategy run.
type Result struct {
	// Method is the strategy that produced the result.
	Method Method

	// Verdict is the strategy's answer.
	Verdict Verdict

	// Witness is a marking satisfying the formula, set for Reachable
	// verdicts when the strategy produced a model.
	Witness petri.Marking

	// Depth is the unrolling depth the verdict was found at.
	// It is -1 when the strategy does not unroll.
	Depth int

	// Err carries the solver protocol or cancellation error behind an
	// Unknown verdict. A nil Err with Unknown means the strategy itself
	// was inconclusive.
	Err error
}

// Checker is one proof strategy. Prove runs the whole protocol on the given
// session; the session is owned by the strategy for the duration of the call
// and is not closed by Prove.
type Checker interface {
	// Name returns the strategy's method tag.
	Name() Method

	// Prove runs the proof protocol until a verdict is found, the protocol
	// is inconclusive, or the context is cancelled.
	Prove(ctx context.Context, sess solver.Session) Result
}

// Problem binds a net and a formula for verification. Construction
// validates that every place the formula mentions exists in the net, and
// that the formula stays in the Boolean fragment when the net is flagged
// safe.
type Problem struct {
	net     *petri.Net
	formula *formula.Formula
	enc     *encoding.Encoder
}

// NewProblem validates the net/formula pair and binds the encoder.
func NewProblem(net *petri.Net, f *formula.Formula) (*Problem, error) {
	for _, p := range f.Places() {
		if !net.HasPlace(p) {
			return nil, fmt.Errorf("formula references unknown place %s", p)
		}
	}
	if net.Safe() {
		if err := f.EnsureSafe(); err != nil {
			return nil, err
		}
	}
	return &Problem{net: net, formula: f, enc: encoding.New(net)}, nil
}

// Net returns the verified net.
func (p *Problem) Net() *petri.Net {
	return p.net
}

// Formula returns the verified formula.
func (p *Problem) Formula() *formula.Formula {
	return p.formula
}

// Encoder returns the encoder bound to the net.
func (p *Problem) Encoder() *encoding.Encoder {
	return p.enc
}

// witness reads the model values of the place variables at index k and
// converts them to a marking. Boolean models map true/false to 1/0.
func (p *Problem) witness(ctx context.Context, sess solver.Session, k int) (petri.Marking, error) {
	values, err := sess.Values(ctx, p.enc.PlaceVars(k))
	if err != nil {
		return nil, err
	}

	m := make(petri.Marking, len(values))
	for _, place := range p.net.Places() {
		value, ok := values[formula.PlaceVar(place, k)]
		if !ok {
			return nil, fmt.Errorf("model is missing place %s", place)
		}
		switch value {
		case "true":
			m[place] = 1
		case "false":
			m[place] = 0
		default:
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("model value %q for place %s: %w", value, place, err)
			}
			m[place] = n
		}
	}
	return m, nil
}

// unknown builds the Unknown result of a failed or inconclusive run.
func unknown(method Method, err error) Result {
	return Result{Method: method, Verdict: Unknown, Depth: -1, Err: err}
}

// logFields is a convenience for the strategy loggers.
func logFields(method Method, extra map[string]interface{}) map[string]interface{} {
	fields := map[string]interface{}{"method": string(method)}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}
