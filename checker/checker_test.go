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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazzpetri/reach/formula"
	"github.com/jazzpetri/reach/petri"
	"github.com/jazzpetri/reach/solver"
)

// fakeSession is a scripted solver session: CheckSat answers come from a
// fixed list, Values returns a fixed model. Once the list is exhausted the
// session either blocks until cancellation, keeps answering a default, or
// fails the test.
type fakeSession struct {
	mu      sync.Mutex
	answers []solver.Result
	next    int

	// defaultAnswer, when set, is returned forever after the scripted
	// answers run out.
	defaultAnswer *solver.Result

	// block makes an exhausted session wait for cancellation instead of
	// erroring out.
	block bool

	// delay is applied before every answer.
	delay time.Duration

	values map[string]string
	script []string
	closed bool
}

func (f *fakeSession) Write(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, text)
	return nil
}

func (f *fakeSession) Push() error { return f.Write("(push 1)\n") }
func (f *fakeSession) Pop() error  { return f.Write("(pop 1)\n") }

func (f *fakeSession) CheckSat(ctx context.Context) (solver.Result, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return solver.Unknown, ctx.Err()
		case <-time.After(f.delay):
		}
	}

	f.mu.Lock()
	if f.next < len(f.answers) {
		answer := f.answers[f.next]
		f.next++
		f.mu.Unlock()
		return answer, nil
	}
	defaultAnswer := f.defaultAnswer
	block := f.block
	f.mu.Unlock()

	if defaultAnswer != nil {
		return *defaultAnswer, nil
	}
	if block {
		<-ctx.Done()
		return solver.Unknown, ctx.Err()
	}
	return solver.Unknown, fmt.Errorf("fake session script exhausted")
}

func (f *fakeSession) Values(ctx context.Context, vars []string) (map[string]string, error) {
	return f.values, nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func answerWith(r solver.Result) *solver.Result { return &r }

// deadEndProblem is a one-place net where the single transition only
// consumes: m0 = {p: 1}, tr t: p -> (nothing).
func deadEndProblem(t *testing.T, formulaText string) *Problem {
	t.Helper()
	net, err := petri.ParseNet("net n\npl p (1)\ntr t p ->\n", false)
	require.NoError(t, err)
	f, err := formula.Parse(formulaText)
	require.NoError(t, err)
	p, err := NewProblem(net, f)
	require.NoError(t, err)
	return p
}

func TestNewProblem_UnknownPlace(t *testing.T) {
	net, err := petri.ParseNet("net n\npl p (1)\ntr t p ->\n", false)
	require.NoError(t, err)
	f, err := formula.Parse("ghost = 1")
	require.NoError(t, err)

	_, err = NewProblem(net, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestNewProblem_SafeFragmentEnforced(t *testing.T) {
	net, err := petri.ParseNet("net n\npl p (1)\ntr t p ->\n", true)
	require.NoError(t, err)
	f, err := formula.Parse("p >= 1")
	require.NoError(t, err)

	_, err = NewProblem(net, f)
	require.Error(t, err)
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "REACHABLE", Reachable.String())
	assert.Equal(t, "NOT REACHABLE", NotReachable.String())
	assert.Equal(t, "UNKNOWN", Unknown.String())
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("bmc")
	require.NoError(t, err)
	assert.Equal(t, MethodBMC, m)

	m, err = ParseMethod(" k-induction ")
	require.NoError(t, err)
	assert.Equal(t, MethodKInduction, m)

	_, err = ParseMethod("pdr")
	require.Error(t, err)
}

func TestBMC_FindsWitness(t *testing.T) {
	// The token in p can be consumed, so p = 0 holds after one step.
	p := deadEndProblem(t, "p = 0")
	sess := &fakeSession{
		answers: []solver.Result{solver.Unsat, solver.Sat},
		values:  map[string]string{"p@1": "0"},
	}

	res := NewBMC(p, nil, nil).Prove(context.Background(), sess)
	require.NoError(t, res.Err)
	assert.Equal(t, MethodBMC, res.Method)
	assert.Equal(t, Reachable, res.Verdict)
	assert.Equal(t, 1, res.Depth)
	assert.Equal(t, petri.Marking{"p": 0}, res.Witness)
}

func TestBMC_ConsumesInductiveBound(t *testing.T) {
	p := deadEndProblem(t, "p = 2")
	x := NewExchange()
	x.PublishInductive(1)

	sess := &fakeSession{answers: []solver.Result{solver.Unsat, solver.Unsat}}
	res := NewBMC(p, x, nil).Prove(context.Background(), sess)

	require.NoError(t, res.Err)
	assert.Equal(t, NotReachable, res.Verdict)
	assert.Equal(t, 1, res.Depth)

	explored, ok := x.Explored()
	require.True(t, ok)
	assert.Equal(t, 1, explored)
}

func TestBMC_Cancellation(t *testing.T) {
	p := deadEndProblem(t, "p = 2")
	sess := &fakeSession{block: true}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := NewBMC(p, nil, nil).Prove(ctx, sess)
	assert.Equal(t, Unknown, res.Verdict)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestBMC_SolverUnknownIsInconclusive(t *testing.T) {
	p := deadEndProblem(t, "p = 2")
	sess := &fakeSession{answers: []solver.Result{solver.Unknown}}

	res := NewBMC(p, nil, nil).Prove(context.Background(), sess)
	assert.Equal(t, Unknown, res.Verdict)
	require.Error(t, res.Err)
}

func TestInduction_NotReachable(t *testing.T) {
	// No transition increases p, so p = 2 is refuted inductively.
	p := deadEndProblem(t, "p = 2")
	sess := &fakeSession{answers: []solver.Result{solver.Unsat, solver.Unsat}}

	res := NewInduction(p, nil).Prove(context.Background(), sess)
	require.NoError(t, res.Err)
	assert.Equal(t, MethodInduction, res.Method)
	assert.Equal(t, NotReachable, res.Verdict)
}

func TestInduction_Inconclusive(t *testing.T) {
	p := deadEndProblem(t, "p = 0")
	sess := &fakeSession{answers: []solver.Result{solver.Unsat, solver.Sat}}

	res := NewInduction(p, nil).Prove(context.Background(), sess)
	assert.Equal(t, Unknown, res.Verdict)
	assert.NoError(t, res.Err)
}

func TestInduction_InitialMarkingSatisfies(t *testing.T) {
	p := deadEndProblem(t, "p = 1")
	sess := &fakeSession{
		answers: []solver.Result{solver.Sat},
		values:  map[string]string{"p@0": "1"},
	}

	res := NewInduction(p, nil).Prove(context.Background(), sess)
	require.NoError(t, res.Err)
	assert.Equal(t, Reachable, res.Verdict)
	assert.Equal(t, 0, res.Depth)
	assert.Equal(t, petri.Marking{"p": 1}, res.Witness)
}

func TestKInduction_ConfirmedBound(t *testing.T) {
	p := deadEndProblem(t, "p = 2")
	x := NewExchange()
	x.PublishExplored(2)

	sess := &fakeSession{answers: []solver.Result{solver.Sat, solver.Sat, solver.Unsat}}
	res := NewKInduction(p, x, nil).Prove(context.Background(), sess)

	require.NoError(t, res.Err)
	assert.Equal(t, MethodKInduction, res.Method)
	assert.Equal(t, NotReachable, res.Verdict)
	assert.Equal(t, 2, res.Depth)

	inductive, ok := x.Inductive()
	require.True(t, ok)
	assert.Equal(t, 2, inductive)
}

func TestKInduction_WaitsForBaseConfirmation(t *testing.T) {
	p := deadEndProblem(t, "p = 2")
	x := NewExchange()

	sess := &fakeSession{answers: []solver.Result{solver.Unsat}}
	go func() {
		time.Sleep(60 * time.Millisecond)
		x.PublishExplored(0)
	}()

	res := NewKInduction(p, x, nil).Prove(context.Background(), sess)
	require.NoError(t, res.Err)
	assert.Equal(t, NotReachable, res.Verdict)
	assert.Equal(t, 0, res.Depth)
}

func TestKInduction_NilExchange(t *testing.T) {
	// Without a shared exchange there is no BMC to confirm the base
	// cases: the bound is found but the run ends Unknown, not in a panic.
	p := deadEndProblem(t, "p = 2")
	sess := &fakeSession{answers: []solver.Result{solver.Unsat}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := NewKInduction(p, nil, nil).Prove(ctx, sess)
	assert.Equal(t, Unknown, res.Verdict)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestKInduction_CancelledWhileWaiting(t *testing.T) {
	p := deadEndProblem(t, "p = 2")
	x := NewExchange()

	sess := &fakeSession{answers: []solver.Result{solver.Unsat}}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := NewKInduction(p, x, nil).Prove(ctx, sess)
	assert.Equal(t, Unknown, res.Verdict)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestStateEquation_NotReachable(t *testing.T) {
	p := deadEndProblem(t, "p = 2")
	sess := &fakeSession{answers: []solver.Result{solver.Unsat}}

	res := NewStateEquation(p, nil).Prove(context.Background(), sess)
	require.NoError(t, res.Err)
	assert.Equal(t, MethodStateEquation, res.Method)
	assert.Equal(t, NotReachable, res.Verdict)
}

func TestStateEquation_SatIsInconclusive(t *testing.T) {
	p := deadEndProblem(t, "p = 0")
	sess := &fakeSession{answers: []solver.Result{solver.Sat}}

	res := NewStateEquation(p, nil).Prove(context.Background(), sess)
	assert.Equal(t, Unknown, res.Verdict)
	assert.NoError(t, res.Err)
}

func TestStateEquation_SkippedOnSafeNets(t *testing.T) {
	net, err := petri.ParseNet("net n\npl p (1)\ntr t p ->\n", true)
	require.NoError(t, err)
	f, err := formula.Parse("p = 0")
	require.NoError(t, err)
	p, err := NewProblem(net, f)
	require.NoError(t, err)

	// An empty script: any solver call would fail the run.
	sess := &fakeSession{}
	res := NewStateEquation(p, nil).Prove(context.Background(), sess)
	assert.Equal(t, Unknown, res.Verdict)
	assert.NoError(t, res.Err)
	assert.Empty(t, sess.script)
}

func TestExchange(t *testing.T) {
	x := NewExchange()

	_, ok := x.Inductive()
	assert.False(t, ok)
	_, ok = x.Explored()
	assert.False(t, ok)

	// The inductive depth only ever decreases.
	x.PublishInductive(3)
	x.PublishInductive(5)
	got, ok := x.Inductive()
	require.True(t, ok)
	assert.Equal(t, 3, got)
	x.PublishInductive(2)
	got, _ = x.Inductive()
	assert.Equal(t, 2, got)

	// The explored depth only ever grows.
	x.PublishExplored(1)
	x.PublishExplored(0)
	got, ok = x.Explored()
	require.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestCooperativeTermination(t *testing.T) {
	// BMC keeps refuting depths while K-Induction finds the bound at
	// depth 2; both must terminate with NotReachable.
	p := deadEndProblem(t, "p = 2")
	x := NewExchange()

	bmcSess := &fakeSession{
		defaultAnswer: answerWith(solver.Unsat),
		delay:         2 * time.Millisecond,
	}
	kindSess := &fakeSession{
		answers: []solver.Result{solver.Sat, solver.Sat, solver.Unsat},
		block:   true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	var bmcRes, kindRes Result
	wg.Add(2)
	go func() {
		defer wg.Done()
		bmcRes = NewBMC(p, x, nil).Prove(ctx, bmcSess)
	}()
	go func() {
		defer wg.Done()
		kindRes = NewKInduction(p, x, nil).Prove(ctx, kindSess)
	}()
	wg.Wait()

	require.NoError(t, kindRes.Err)
	assert.Equal(t, NotReachable, kindRes.Verdict)
	assert.Equal(t, 2, kindRes.Depth)

	require.NoError(t, bmcRes.Err)
	assert.Equal(t, NotReachable, bmcRes.Verdict)
	assert.LessOrEqual(t, bmcRes.Depth, 2)
}
