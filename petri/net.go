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

// Package petri provides the Place/Transition net model used by the symbolic
// reachability checkers. Unlike an execution engine, nets here are pure data:
// a net is built once, validated, and then only read -- no tokens ever move.
//
// Arcs are stored as sparse weight maps on each transition (pre for
// place-to-transition arcs, post for transition-to-place arcs). A missing
// entry means weight 0 and zero weights are never stored, so iterating a
// weight map visits exactly the places connected by an arc.
//
// A net can carry a safety flag. A safe net guarantees that every reachable
// marking holds at most one token per place, which lets the encoder use
// Boolean place variables instead of integers. The flag is supplied by the
// caller (or an external structural analysis); it changes the encoding, not
// the net semantics.
package petri

import (
	"fmt"
	"sort"
	"strings"
)

// Place is a place of a Petri net: an identifier and its initial token count.
type Place struct {
	// ID is the unique identifier for this place
	ID string

	// Initial is the number of tokens the place holds in the initial marking
	Initial int
}

// Transition is a transition of a Petri net. It owns two sparse weight maps:
// Pre (arc weight from place to transition) and Post (arc weight from
// transition to place). Places absent from a map are connected with weight 0.
type Transition struct {
	// ID is the unique identifier for this transition
	ID string

	// Pre maps input place IDs to arc weights (always >= 1)
	Pre map[string]int

	// Post maps output place IDs to arc weights (always >= 1)
	Post map[string]int
}

// Net is an immutable Place/Transition net.
//
// All accessors are safe for concurrent use: after Build() returns, nothing
// mutates the net. Place and transition identifier namespaces are disjoint,
// and every arc references a place of the same net.
type Net struct {
	// ID is the net identifier (from the `net` line of a .net file)
	ID string

	places      map[string]*Place
	transitions map[string]*Transition

	// placeOrder and transitionOrder fix a deterministic iteration order,
	// so generated SMT-LIB text is stable across runs.
	placeOrder      []string
	transitionOrder []string

	initial Marking

	safe bool
}

// Places returns the place IDs in deterministic (sorted) order.
// The returned slice must not be modified.
func (n *Net) Places() []string {
	return n.placeOrder
}

// Transitions returns the transition IDs in deterministic (sorted) order.
// The returned slice must not be modified.
func (n *Net) Transitions() []string {
	return n.transitionOrder
}

// Place returns the place with the given ID, or nil if it does not exist.
func (n *Net) Place(id string) *Place {
	return n.places[id]
}

// Transition returns the transition with the given ID, or nil if it does
// not exist.
func (n *Net) Transition(id string) *Transition {
	return n.transitions[id]
}

// HasPlace reports whether the net contains a place with the given ID.
func (n *Net) HasPlace(id string) bool {
	_, ok := n.places[id]
	return ok
}

// PreWeight returns the arc weight from place p to transition t.
// Missing arcs have weight 0.
func (n *Net) PreWeight(t, p string) int {
	tr, ok := n.transitions[t]
	if !ok {
		return 0
	}
	return tr.Pre[p]
}

// PostWeight returns the arc weight from transition t to place p.
// Missing arcs have weight 0.
func (n *Net) PostWeight(t, p string) int {
	tr, ok := n.transitions[t]
	if !ok {
		return 0
	}
	return tr.Post[p]
}

// Incidence returns the net token change of firing t on place p:
// post-weight minus pre-weight. It is computed on demand, never stored.
func (n *Net) Incidence(p, t string) int {
	return n.PostWeight(t, p) - n.PreWeight(t, p)
}

// InitialMarking returns a copy of the initial marking.
// The copy is total over the net's places (missing entries were filled
// with 0 at construction time).
func (n *Net) InitialMarking() Marking {
	return n.initial.Copy()
}

// Safe reports whether the net is flagged safe (at most one token per place
// in every reachable marking). The flag selects the Boolean encoding mode.
func (n *Net) Safe() bool {
	return n.safe
}

// String returns the net in .net textual format, one line per place with a
// nonzero initial marking and one line per transition.
func (n *Net) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "net %s\n", n.ID)
	for _, id := range n.placeOrder {
		if pl := n.places[id]; pl.Initial > 0 {
			fmt.Fprintf(&b, "pl %s (%d)\n", pl.ID, pl.Initial)
		}
	}
	for _, id := range n.transitionOrder {
		b.WriteString(n.transitions[id].String())
	}
	return b.String()
}

// String returns the transition in .net textual format:
// "tr id in1 in2*w -> out1 out2*w".
func (t *Transition) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tr %s", t.ID)
	for _, p := range sortedKeys(t.Pre) {
		b.WriteString(" " + arcString(p, t.Pre[p]))
	}
	b.WriteString(" ->")
	for _, p := range sortedKeys(t.Post) {
		b.WriteString(" " + arcString(p, t.Post[p]))
	}
	b.WriteString("\n")
	return b.String()
}

func arcString(place string, weight int) string {
	if weight == 1 {
		return place
	}
	return fmt.Sprintf("%s*%d", place, weight)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Builder assembles a Net incrementally and validates it on Build().
// The usual sequence is AddPlace / AddTransition / AddInputArc /
// AddOutputArc, then Build(). A Builder must not be reused after Build().
type Builder struct {
	id          string
	places      map[string]*Place
	transitions map[string]*Transition
	safe        bool
}

// NewBuilder creates a builder for a net with the given identifier.
func NewBuilder(id string) *Builder {
	return &Builder{
		id:          id,
		places:      make(map[string]*Place),
		transitions: make(map[string]*Transition),
	}
}

// SetSafe flags the net under construction as safe (at most one token per
// place in any reachable marking). Build() then rejects arc weights above 1
// and initial markings above 1.
func (b *Builder) SetSafe(safe bool) *Builder {
	b.safe = safe
	return b
}

// AddPlace adds a place with its initial token count.
// Re-adding an existing place updates its initial marking (the .net format
// allows a place to appear in arcs before its `pl` line).
func (b *Builder) AddPlace(id string, initial int) error {
	if id == "" {
		return fmt.Errorf("place ID cannot be empty")
	}
	if initial < 0 {
		return fmt.Errorf("place %s: initial marking cannot be negative: %d", id, initial)
	}
	if _, exists := b.transitions[id]; exists {
		return fmt.Errorf("identifier %s already names a transition", id)
	}
	if pl, exists := b.places[id]; exists {
		pl.Initial = initial
		return nil
	}
	b.places[id] = &Place{ID: id, Initial: initial}
	return nil
}

// AddTransition adds a transition with the given ID.
// Adding an existing transition is an error.
func (b *Builder) AddTransition(id string) error {
	if id == "" {
		return fmt.Errorf("transition ID cannot be empty")
	}
	if _, exists := b.places[id]; exists {
		return fmt.Errorf("identifier %s already names a place", id)
	}
	if _, exists := b.transitions[id]; exists {
		return fmt.Errorf("transition %s already exists", id)
	}
	b.transitions[id] = &Transition{
		ID:   id,
		Pre:  make(map[string]int),
		Post: make(map[string]int),
	}
	return nil
}

// AddInputArc adds an arc from a place to a transition with the given weight.
// The place is created implicitly (initial marking 0) if it does not exist
// yet; the transition must already exist. Weights below 1 are rejected --
// zero-weight arcs are never stored.
func (b *Builder) AddInputArc(transition, place string, weight int) error {
	tr, err := b.arcEndpoints(transition, place, weight)
	if err != nil {
		return err
	}
	tr.Pre[place] = weight
	return nil
}

// AddOutputArc adds an arc from a transition to a place with the given
// weight. The place is created implicitly if it does not exist yet.
func (b *Builder) AddOutputArc(transition, place string, weight int) error {
	tr, err := b.arcEndpoints(transition, place, weight)
	if err != nil {
		return err
	}
	tr.Post[place] = weight
	return nil
}

func (b *Builder) arcEndpoints(transition, place string, weight int) (*Transition, error) {
	if weight < 1 {
		return nil, fmt.Errorf("arc %s -- %s: weight must be at least 1, got %d", place, transition, weight)
	}
	tr, ok := b.transitions[transition]
	if !ok {
		return nil, fmt.Errorf("arc references unknown transition %s", transition)
	}
	if _, exists := b.transitions[place]; exists {
		return nil, fmt.Errorf("identifier %s already names a transition", place)
	}
	if _, exists := b.places[place]; !exists {
		b.places[place] = &Place{ID: place}
	}
	return tr, nil
}

// Build validates the assembled net and returns the immutable Net.
//
// Validation rejects:
//   - a transition arc referencing a place that does not exist
//   - on a net flagged safe: any arc weight above 1 or any initial
//     marking above 1
func (b *Builder) Build() (*Net, error) {
	for _, tr := range b.transitions {
		for _, arcs := range []map[string]int{tr.Pre, tr.Post} {
			for p, w := range arcs {
				if _, ok := b.places[p]; !ok {
					return nil, fmt.Errorf("transition %s references unknown place %s", tr.ID, p)
				}
				if b.safe && w > 1 {
					return nil, fmt.Errorf("safe net: transition %s has arc weight %d on place %s (must be 1)", tr.ID, w, p)
				}
			}
		}
	}

	initial := make(Marking, len(b.places))
	placeOrder := make([]string, 0, len(b.places))
	for id, pl := range b.places {
		if b.safe && pl.Initial > 1 {
			return nil, fmt.Errorf("safe net: place %s has initial marking %d (must be at most 1)", id, pl.Initial)
		}
		initial[id] = pl.Initial
		placeOrder = append(placeOrder, id)
	}
	sort.Strings(placeOrder)

	transitionOrder := make([]string, 0, len(b.transitions))
	for id := range b.transitions {
		transitionOrder = append(transitionOrder, id)
	}
	sort.Strings(transitionOrder)

	return &Net{
		ID:              b.id,
		places:          b.places,
		transitions:     b.transitions,
		placeOrder:      placeOrder,
		transitionOrder: transitionOrder,
		initial:         initial,
		safe:            b.safe,
	}, nil
}
