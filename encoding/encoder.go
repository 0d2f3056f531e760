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

// Package encoding generates the SMT-LIB fragments consumed by the proof
// strategies: indexed place-variable declarations, marking-equality
// predicates, the one-step transition relation, and the state-equation
// system.
//
// Every fragment is indexed by an unrolling depth k: the variable vector
// x@k is one fresh symbolic variable per place, and distinct indices denote
// distinct, unconnected variables until a transition-relation fragment links
// index k to index k+1.
//
// The encoder is polymorphic over the encoding mode. On a general net place
// variables are nonnegative integers and arc weights are arithmetic. On a
// net flagged safe, place variables are Booleans and arc weights collapse to
// presence checks (weights above 1 are rejected at net construction).
// The mode changes the rendering of the same three generation operations,
// never the strategy logic.
package encoding

import (
	"fmt"
	"strings"

	"github.com/jazzpetri/reach/formula"
	"github.com/jazzpetri/reach/petri"
)

// Encoder generates SMT-LIB fragments for one net. It is stateless apart
// from the net reference and safe for concurrent use by several strategies.
type Encoder struct {
	net  *petri.Net
	mode formula.Mode
}

// New creates an encoder for the net. The encoding mode follows the net's
// safety flag.
func New(net *petri.Net) *Encoder {
	mode := formula.General
	if net.Safe() {
		mode = formula.Safe
	}
	return &Encoder{net: net, mode: mode}
}

// Mode returns the encoding mode selected from the net's safety flag.
func (e *Encoder) Mode() formula.Mode {
	return e.mode
}

// Net returns the encoded net.
func (e *Encoder) Net() *petri.Net {
	return e.net
}

// PlaceVars returns the SMT variable names of all places at index k,
// in the net's deterministic place order.
func (e *Encoder) PlaceVars(k int) []string {
	places := e.net.Places()
	vars := make([]string, len(places))
	for i, p := range places {
		vars[i] = formula.PlaceVar(p, k)
	}
	return vars
}

// DeclarePlaces emits one fresh variable declaration per place at index k:
// Int sort with a nonnegativity assertion in general mode, Bool sort in
// safe mode.
func (e *Encoder) DeclarePlaces(k int) string {
	var b strings.Builder
	for _, p := range e.net.Places() {
		v := formula.PlaceVar(p, k)
		if e.mode == formula.Safe {
			fmt.Fprintf(&b, "(declare-fun %s () Bool)\n", v)
		} else {
			fmt.Fprintf(&b, "(declare-fun %s () Int)\n(assert (>= %s 0))\n", v, v)
		}
	}
	return b.String()
}

// MarkingEquality emits the predicate fixing every place variable at index k
// to the marking's token counts: the conjunction of (= p@k n) assertions in
// general mode, and of p@k / (not p@k) assertions in safe mode. Places
// missing from the marking count as 0.
//
// In safe mode a token count above 1 is an encoding error.
func (e *Encoder) MarkingEquality(m petri.Marking, k int) (string, error) {
	var b strings.Builder
	for _, p := range e.net.Places() {
		v := formula.PlaceVar(p, k)
		tokens := m[p]
		if e.mode == formula.Safe {
			switch tokens {
			case 0:
				fmt.Fprintf(&b, "(assert (not %s))\n", v)
			case 1:
				fmt.Fprintf(&b, "(assert %s)\n", v)
			default:
				return "", fmt.Errorf("safe mode: place %s holds %d tokens", p, tokens)
			}
		} else {
			fmt.Fprintf(&b, "(assert (= %s %d))\n", v, tokens)
		}
	}
	return b.String(), nil
}

// InitialMarking emits MarkingEquality for the net's initial marking,
// the m0(x@k) predicate.
func (e *Encoder) InitialMarking(k int) (string, error) {
	return e.MarkingEquality(e.net.InitialMarking(), k)
}

// TransitionRelation emits the single-step relation T(x@k, x@(k+1)) as one
// asserted disjunction over all transitions of ENBL_t(x@k) ∧ Δ_t. The
// monolithic disjunction keeps each unrolling step a single incremental
// assertion, so prior depths are never re-asserted when extending a query.
//
// A net without transitions yields (assert false): no step is possible.
func (e *Encoder) TransitionRelation(k int) string {
	transitions := e.net.Transitions()
	if len(transitions) == 0 {
		return "(assert false)\n"
	}

	steps := make([]string, len(transitions))
	for i, t := range transitions {
		steps[i] = e.transitionStep(t, k)
	}
	if len(steps) == 1 {
		return fmt.Sprintf("(assert %s)\n", steps[0])
	}
	return fmt.Sprintf("(assert (or %s))\n", strings.Join(steps, " "))
}

// transitionStep renders ENBL_t(x@k) ∧ Δ_t(x@k, x@(k+1)) for one transition:
// the enabling condition on the input places followed by the token-flow
// equation (or frame equality) of every place of the net.
func (e *Encoder) transitionStep(t string, k int) string {
	tr := e.net.Transition(t)
	var parts []string

	for _, p := range sortedKeys(tr.Pre) {
		cur := formula.PlaceVar(p, k)
		if e.mode == formula.Safe {
			parts = append(parts, cur)
		} else {
			parts = append(parts, fmt.Sprintf("(>= %s %d)", cur, tr.Pre[p]))
		}
	}

	for _, p := range e.net.Places() {
		cur := formula.PlaceVar(p, k)
		next := formula.PlaceVar(p, k+1)
		pre, post := tr.Pre[p], tr.Post[p]

		if e.mode == formula.Safe {
			switch {
			case post > 0:
				parts = append(parts, next)
			case pre > 0:
				parts = append(parts, fmt.Sprintf("(not %s)", next))
			default:
				parts = append(parts, fmt.Sprintf("(= %s %s)", next, cur))
			}
			continue
		}

		switch delta := post - pre; {
		case delta > 0:
			parts = append(parts, fmt.Sprintf("(= %s (+ %s %d))", next, cur, delta))
		case delta < 0:
			parts = append(parts, fmt.Sprintf("(= %s (- %s %d))", next, cur, -delta))
		default:
			parts = append(parts, fmt.Sprintf("(= %s %s)", next, cur))
		}
	}

	if len(parts) == 1 {
		return parts[0]
	}
	return fmt.Sprintf("(and %s)", strings.Join(parts, " "))
}

// StateEquationSystem emits the potentially-reachable-set relaxation
// ∃ z ≥ 0. m0 + I·z = x over unindexed place variables: one nonnegative
// firing-count variable per transition and one equation per place, with I
// the incidence matrix (post-weight minus pre-weight, computed on demand).
//
// The system is only meaningful over integers; it is an error on a net
// flagged safe, where the formula carries Boolean semantics.
func (e *Encoder) StateEquationSystem() (string, error) {
	if e.mode == formula.Safe {
		return "", fmt.Errorf("state equation requires the integer encoding")
	}

	var b strings.Builder
	for _, p := range e.net.Places() {
		fmt.Fprintf(&b, "(declare-fun %s () Int)\n(assert (>= %s 0))\n", p, p)
	}
	for _, t := range e.net.Transitions() {
		fmt.Fprintf(&b, "(declare-fun %s () Int)\n(assert (>= %s 0))\n", t, t)
	}

	m0 := e.net.InitialMarking()
	for _, p := range e.net.Places() {
		terms := []string{fmt.Sprintf("%d", m0[p])}
		for _, t := range e.net.Transitions() {
			switch c := e.net.Incidence(p, t); {
			case c == 1:
				terms = append(terms, t)
			case c > 1:
				terms = append(terms, fmt.Sprintf("(* %d %s)", c, t))
			case c < 0:
				terms = append(terms, fmt.Sprintf("(* (- %d) %s)", -c, t))
			}
		}
		if len(terms) == 1 {
			fmt.Fprintf(&b, "(assert (= %s %s))\n", p, terms[0])
		} else {
			fmt.Fprintf(&b, "(assert (= %s (+ %s)))\n", p, strings.Join(terms, " "))
		}
	}
	return b.String(), nil
}

// AssertFormula emits the formula (or its negation) as a single assertion
// at index k, rendered in the encoder's mode.
func (e *Encoder) AssertFormula(f *formula.Formula, k int, negated bool) string {
	body := f.Render(e.mode, k)
	if negated {
		body = fmt.Sprintf("(not %s)", body)
	}
	return fmt.Sprintf("(assert %s)\n", body)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// small maps; insertion sort keeps this allocation-light
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
