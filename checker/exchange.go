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

import "sync"

// Exchange carries the depth bookkeeping shared between BMC and K-Induction.
// It is the only cross-strategy mutable state in a verification run.
//
// Two facts flow through it, each with idempotent reads:
//
//   - K-Induction publishes the inductive depth: the least i for which the
//     chain query was unsatisfiable. The value is effectively write-once;
//     a later publish can only keep or lower it.
//   - BMC publishes the explored depth: the largest i for which it has
//     verified that no marking at step i satisfies the formula. The value
//     only grows.
//
// An unreachability verdict needs both: the inductive depth i proves no
// counterexample exists beyond depth i, and an explored depth of at least i
// rules out the depths below.
type Exchange struct {
	mu        sync.Mutex
	inductive int
	explored  int
}

// NewExchange creates an empty exchange.
func NewExchange() *Exchange {
	return &Exchange{inductive: -1, explored: -1}
}

// PublishInductive records that the negated formula is i-inductive.
// Larger depths than an already published one are ignored.
func (x *Exchange) PublishInductive(i int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.inductive < 0 || i < x.inductive {
		x.inductive = i
	}
}

// Inductive returns the published inductive depth, if any.
func (x *Exchange) Inductive() (int, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.inductive, x.inductive >= 0
}

// PublishExplored records that BMC found no witness at any step up to and
// including depth i. The explored depth never decreases.
func (x *Exchange) PublishExplored(i int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if i > x.explored {
		x.explored = i
	}
}

// Explored returns the published explored depth, if any.
func (x *Exchange) Explored() (int, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.explored, x.explored >= 0
}
