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

package solver

import (
	"context"
	"os/exec"
	"reflect"
	"testing"
	"time"
)

func TestParseValues(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{
			name:  "integers",
			input: "((p1@0 1) (p2@0 0))",
			want:  map[string]string{"p1@0": "1", "p2@0": "0"},
		},
		{
			name:  "booleans",
			input: "((p1@0 true) (p2@0 false))",
			want:  map[string]string{"p1@0": "true", "p2@0": "false"},
		},
		{
			name:  "negative literal",
			input: "((x (- 1)))",
			want:  map[string]string{"x": "(- 1)"},
		},
		{
			name:  "multiline answer",
			input: "((p1@0 1)\n (p2@0 2))",
			want:  map[string]string{"p1@0": "1", "p2@0": "2"},
		},
		{
			name:  "empty",
			input: "()",
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValues(tt.input)
			if err != nil {
				t.Fatalf("parseValues(%q): %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseValues(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseValues_Errors(t *testing.T) {
	bad := []string{
		"",
		"sat",
		"((p1@0))",
		"((p1@0 1)",
		`(error "line 3: unknown constant")`,
	}
	for _, input := range bad {
		if _, err := parseValues(input); err == nil {
			t.Errorf("parseValues(%q) = nil error, want error", input)
		}
	}
}

func TestResultString(t *testing.T) {
	if Sat.String() != "sat" || Unsat.String() != "unsat" || Unknown.String() != "unknown" {
		t.Errorf("Result.String() mismatch: %v %v %v", Sat, Unsat, Unknown)
	}
}

// requireZ3 skips the test when no z3 binary is installed.
func requireZ3(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("z3"); err != nil {
		t.Skip("z3 not installed")
	}
}

func TestZ3Session_CheckSat(t *testing.T) {
	requireZ3(t)

	s, err := NewZ3Session()
	if err != nil {
		t.Fatalf("NewZ3Session: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Write("(declare-fun x () Int)\n(assert (>= x 3))\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	res, err := s.CheckSat(ctx)
	if err != nil {
		t.Fatalf("CheckSat: %v", err)
	}
	if res != Sat {
		t.Fatalf("CheckSat = %v, want sat", res)
	}

	values, err := s.Values(ctx, []string{"x"})
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if _, ok := values["x"]; !ok {
		t.Errorf("Values missing x: %v", values)
	}
}

func TestZ3Session_PushPop(t *testing.T) {
	requireZ3(t)

	s, err := NewZ3Session()
	if err != nil {
		t.Fatalf("NewZ3Session: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Write("(declare-fun x () Int)\n(assert (>= x 0))\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := s.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if err := s.Write("(assert (< x 0))\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	res, err := s.CheckSat(ctx)
	if err != nil {
		t.Fatalf("CheckSat: %v", err)
	}
	if res != Unsat {
		t.Fatalf("CheckSat under push = %v, want unsat", res)
	}

	if err := s.Pop(); err != nil {
		t.Fatalf("Pop: %v", err)
	}
	res, err = s.CheckSat(ctx)
	if err != nil {
		t.Fatalf("CheckSat after pop: %v", err)
	}
	if res != Sat {
		t.Fatalf("CheckSat after pop = %v, want sat", res)
	}
}

func TestZ3Session_Cancellation(t *testing.T) {
	requireZ3(t)

	s, err := NewZ3Session()
	if err != nil {
		t.Fatalf("NewZ3Session: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The answer may already be buffered, so either outcome is a cancelled
	// read or an immediate answer; the session must not hang.
	done := make(chan struct{})
	go func() {
		s.CheckSat(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("CheckSat did not return after cancellation")
	}
}

func TestZ3Session_CloseIdempotent(t *testing.T) {
	requireZ3(t)

	s, err := NewZ3Session()
	if err != nil {
		t.Fatalf("NewZ3Session: %v", err)
	}
	s.Close()
	s.Close()
}
