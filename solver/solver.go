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

// Package solver provides incremental SMT sessions over a solver subprocess
// speaking SMT-LIB v2 text. Each proof strategy owns one Session for its
// whole run, so asserted state (declarations, unrolled transition relations)
// accumulates across queries instead of being rebuilt per depth.
package solver

import "context"

// Result is the outcome of a satisfiability check.
type Result int

const (
	// Unknown means the solver could not decide the query (resource limit,
	// incomplete theory, or an unparseable answer mapped by the caller).
	Unknown Result = iota

	// Sat means the asserted formulas are satisfiable.
	Sat

	// Unsat means the asserted formulas are unsatisfiable.
	Unsat
)

// String returns the SMT-LIB answer token for the result.
func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Session is one incremental solver process. A Session is owned by a single
// strategy goroutine; implementations need not synchronize their methods.
//
// Any returned error other than context cancellation is a protocol error:
// the session is broken and must be closed, and the owning strategy reports
// an inconclusive verdict rather than failing the whole verification run.
type Session interface {
	// Write sends raw SMT-LIB text to the solver. The text must consist of
	// complete commands that produce no answer (declarations, assertions,
	// set-option).
	Write(text string) error

	// Push saves the current assertion stack frame.
	Push() error

	// Pop discards all assertions since the matching Push.
	Pop() error

	// CheckSat runs (check-sat) and blocks until the solver answers or the
	// context is cancelled. Cancellation kills the solver process.
	CheckSat(ctx context.Context) (Result, error)

	// Values queries the model values of the given variables after a Sat
	// answer. The result maps each variable to its value literal
	// ("3", "true", "(- 1)").
	Values(ctx context.Context, vars []string) (map[string]string, error)

	// Close terminates the solver process. Close is idempotent and safe to
	// call from another goroutine while CheckSat blocks; the pending call
	// then fails.
	Close() error
}

// Factory creates a fresh Session. The coordinator calls it once per
// strategy, so concurrent strategies never share a solver process.
type Factory func() (Session, error)
