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

// Package formula provides the reachability formula model: a typed AST over
// place identifiers, parsed once and rendered on demand to SMT-LIB text.
//
// A formula is immutable after parsing. The same Formula instance is rendered
// against different variable-vector indices (the `@k` suffix) by the symbolic
// encoder, and in one of two modes:
//
//   - General: place variables are nonnegative integers, members are linear
//     combinations, all six comparison operators are allowed.
//   - Safe: place variables are Booleans, `+` denotes logical or, the
//     constants 1 and 0 denote true and false, and only the `=` and `!=`
//     comparisons are permitted.
//
// EnsureSafe rejects formulas outside the safe fragment before any query is
// generated.
package formula

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Mode selects the rendering of a formula: integer arithmetic for general
// nets, Boolean connectives for safe nets.
type Mode int

const (
	// General renders members as integer linear combinations.
	General Mode = iota

	// Safe renders members as Boolean disjunctions (token presence).
	Safe
)

// String returns "general" or "safe".
func (m Mode) String() string {
	if m == Safe {
		return "safe"
	}
	return "general"
}

// NoIndex renders place identifiers without an `@k` suffix. It is used by
// the state-equation encoding, which constrains a single unindexed
// marking vector.
const NoIndex = -1

// PlaceVar returns the SMT variable name of a place at unrolling index k,
// `place@k`, or the bare place identifier when k is NoIndex.
func PlaceVar(place string, k int) string {
	if k == NoIndex {
		return place
	}
	return place + "@" + strconv.Itoa(k)
}

// Expression is a node of the formula AST that evaluates to true or false.
type Expression interface {
	fmt.Stringer

	// render produces the SMT-LIB text of the expression with place
	// variables at index k.
	render(mode Mode, k int) string
}

// Member is a comparison operand: a linear combination of places or an
// integer constant. Members cannot be evaluated to true or false on
// their own.
type Member interface {
	fmt.Stringer

	render(mode Mode, k int) string
}

// StateFormula combines sub-expressions with a Boolean operator
// (not, and, or). The operand list is flattened: `a /\ b /\ c` is one
// StateFormula with three operands.
type StateFormula struct {
	Operator string
	Operands []Expression
}

func (s *StateFormula) String() string {
	if s.Operator == "not" {
		return fmt.Sprintf("(not %s)", s.Operands[0])
	}
	parts := make([]string, len(s.Operands))
	for i, op := range s.Operands {
		parts[i] = op.String()
	}
	text := strings.Join(parts, " "+s.Operator+" ")
	if len(s.Operands) > 1 {
		text = "(" + text + ")"
	}
	return text
}

func (s *StateFormula) render(mode Mode, k int) string {
	parts := make([]string, len(s.Operands))
	for i, op := range s.Operands {
		parts[i] = op.render(mode, k)
	}
	text := strings.Join(parts, " ")
	if len(s.Operands) > 1 || s.Operator == "not" {
		text = fmt.Sprintf("(%s %s)", s.Operator, text)
	}
	return text
}

// Atom is a comparison between two members. The operator is stored in
// SMT-LIB form: `!=` is normalized to `distinct` at parse time.
type Atom struct {
	Left     Member
	Right    Member
	Operator string
}

func (a *Atom) String() string {
	return fmt.Sprintf("(%s %s %s)", a.Left, a.Operator, a.Right)
}

func (a *Atom) render(mode Mode, k int) string {
	return fmt.Sprintf("(%s %s %s)", a.Operator, a.Left.render(mode, k), a.Right.render(mode, k))
}

// BooleanConstant is the T or F of the formula grammar.
type BooleanConstant bool

func (b BooleanConstant) String() string {
	if b {
		return "T"
	}
	return "F"
}

func (b BooleanConstant) render(Mode, int) string {
	if b {
		return "true"
	}
	return "false"
}

// TokenCount is the member `k_1*p_1 + ... + k_n*p_n + c`: a weighted sum of
// place token counts plus an optional constant. In safe mode the sum must be
// plain (no multipliers, no constant) and denotes the disjunction of the
// place variables.
type TokenCount struct {
	Places      []string
	Multipliers map[string]int
	Constant    int
}

func (tc *TokenCount) String() string {
	parts := make([]string, len(tc.Places))
	for i, p := range tc.Places {
		if m, ok := tc.Multipliers[p]; ok {
			parts[i] = fmt.Sprintf("(%d.%s)", m, p)
		} else {
			parts[i] = p
		}
	}
	text := strings.Join(parts, " + ")
	if tc.Constant != 0 {
		text += " + " + strconv.Itoa(tc.Constant)
	}
	return text
}

func (tc *TokenCount) render(mode Mode, k int) string {
	if mode == Safe {
		// EnsureSafe guarantees no multipliers and no constant.
		parts := make([]string, len(tc.Places))
		for i, p := range tc.Places {
			parts[i] = PlaceVar(p, k)
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return fmt.Sprintf("(or %s)", strings.Join(parts, " "))
	}

	parts := make([]string, len(tc.Places))
	for i, p := range tc.Places {
		v := PlaceVar(p, k)
		if m, ok := tc.Multipliers[p]; ok {
			parts[i] = fmt.Sprintf("(* %s %d)", v, m)
		} else {
			parts[i] = v
		}
	}
	text := strings.Join(parts, " ")
	if tc.Constant != 0 {
		text += " " + strconv.Itoa(tc.Constant)
	}
	if len(tc.Places) > 1 || tc.Constant != 0 {
		text = fmt.Sprintf("(+ %s)", text)
	}
	return text
}

// IntegerConstant is a constant member. In safe mode only 0 and 1 are
// meaningful (false and true).
type IntegerConstant int

func (c IntegerConstant) String() string {
	return strconv.Itoa(int(c))
}

func (c IntegerConstant) render(mode Mode, _ int) string {
	if mode == Safe {
		if c == 0 {
			return "false"
		}
		return "true"
	}
	return strconv.Itoa(int(c))
}

// Formula is a parsed reachability formula. It is immutable; rendering never
// mutates the AST.
type Formula struct {
	root Expression
}

// String returns a debugging rendition of the formula.
func (f *Formula) String() string {
	return f.root.String()
}

// Render produces the SMT-LIB text of the formula with every place
// identifier suffixed by `@k` (no suffix when k is NoIndex).
func (f *Formula) Render(mode Mode, k int) string {
	return f.root.render(mode, k)
}

// Places returns the sorted set of place identifiers the formula mentions.
// Callers validate the set against the net's places before encoding.
func (f *Formula) Places() []string {
	seen := make(map[string]bool)
	walk(f.root, func(node any) error {
		if tc, ok := node.(*TokenCount); ok {
			for _, p := range tc.Places {
				seen[p] = true
			}
		}
		return nil
	})

	places := make([]string, 0, len(seen))
	for p := range seen {
		places = append(places, p)
	}
	sort.Strings(places)
	return places
}

// EnsureSafe checks that the formula stays within the safe (Boolean)
// fragment: only `=` and `!=` comparisons, no multipliers, no additive
// constants, and integer constants restricted to 0 and 1.
// The error is fatal at formula-construction time for safe nets.
func (f *Formula) EnsureSafe() error {
	return walk(f.root, func(node any) error {
		switch n := node.(type) {
		case *Atom:
			if n.Operator != "=" && n.Operator != "distinct" {
				return fmt.Errorf("safe mode: comparison %q is not allowed (only = and !=)", n.Operator)
			}
		case *TokenCount:
			if len(n.Multipliers) > 0 {
				return fmt.Errorf("safe mode: place multipliers are not allowed")
			}
			if n.Constant != 0 {
				return fmt.Errorf("safe mode: additive constants are not allowed in members")
			}
		case IntegerConstant:
			if n != 0 && n != 1 {
				return fmt.Errorf("safe mode: integer constant %d is not a Boolean (only 0 and 1)", n)
			}
		}
		return nil
	})
}

// walk visits every AST node (expressions and members) depth-first,
// stopping at the first error.
func walk(node any, fn func(any) error) error {
	if err := fn(node); err != nil {
		return err
	}
	switch n := node.(type) {
	case *StateFormula:
		for _, op := range n.Operands {
			if err := walk(op, fn); err != nil {
				return err
			}
		}
	case *Atom:
		if err := walk(n.Left, fn); err != nil {
			return err
		}
		if err := walk(n.Right, fn); err != nil {
			return err
		}
	}
	return nil
}
