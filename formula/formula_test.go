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

package formula

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, input string) *Formula {
	t.Helper()
	f, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q): %v", input, err)
	}
	return f
}

func TestRender_GeneralAtoms(t *testing.T) {
	tests := []struct {
		input string
		k     int
		want  string
	}{
		{"p = 0", 0, "(= p@0 0)"},
		{"p = 2", 3, "(= p@3 2)"},
		{"p != 0", 1, "(distinct p@1 0)"},
		{"p <= 4", 0, "(<= p@0 4)"},
		{"p1 + p2 >= 2", 0, "(>= (+ p1@0 p2@0) 2)"},
		{"2*p1 + p2 < 5", 0, "(< (+ (* p1@0 2) p2@0) 5)"},
		{"p1 + 1 > p2", 2, "(> (+ p1@2 1) p2@2)"},
		{"p = 0", NoIndex, "(= p 0)"},
	}

	for _, tt := range tests {
		f := mustParse(t, tt.input)
		if got := f.Render(General, tt.k); got != tt.want {
			t.Errorf("Render(%q, general, %d) = %q, want %q", tt.input, tt.k, got, tt.want)
		}
	}
}

func TestRender_Connectives(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`p1 = 1 /\ p2 = 0`, "(and (= p1@0 1) (= p2@0 0))"},
		{`p1 = 1 \/ p2 = 0`, "(or (= p1@0 1) (= p2@0 0))"},
		{`- p1 = 1`, "(not (= p1@0 1))"},
		{`T /\ p = 0`, "(and true (= p@0 0))"},
		{`F`, "false"},
		{`p1 = 1 /\ p2 = 0 /\ p3 = 2`, "(and (= p1@0 1) (= p2@0 0) (= p3@0 2))"},
		// negation binds tighter than /\, /\ tighter than \/
		{`- p1 = 1 /\ p2 = 0 \/ p3 = 1`, "(or (and (not (= p1@0 1)) (= p2@0 0)) (= p3@0 1))"},
		{`(p1 = 1 \/ p2 = 0) /\ p3 = 1`, "(and (or (= p1@0 1) (= p2@0 0)) (= p3@0 1))"},
	}

	for _, tt := range tests {
		f := mustParse(t, tt.input)
		if got := f.Render(General, 0); got != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRender_SafeMode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"p = 1", "(= p@0 true)"},
		{"p = 0", "(= p@0 false)"},
		{"p != 0", "(distinct p@0 false)"},
		{"p1 + p2 = 1", "(= (or p1@0 p2@0) true)"},
		{`p1 = 1 /\ p2 != 1`, "(and (= p1@0 true) (distinct p2@0 true))"},
	}

	for _, tt := range tests {
		f := mustParse(t, tt.input)
		if err := f.EnsureSafe(); err != nil {
			t.Fatalf("EnsureSafe(%q): %v", tt.input, err)
		}
		if got := f.Render(Safe, 0); got != tt.want {
			t.Errorf("Render(%q, safe) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEnsureSafe_Rejections(t *testing.T) {
	rejected := []string{
		"p <= 1",
		"p >= 1",
		"p < 1",
		"p > 1",
		"2*p = 1",
		"p + 1 = 1",
		"p = 2",
	}
	for _, input := range rejected {
		f := mustParse(t, input)
		if err := f.EnsureSafe(); err == nil {
			t.Errorf("EnsureSafe(%q) = nil, want error", input)
		}
	}

	// The safe fragment itself must pass.
	f := mustParse(t, `p1 + p2 = 1 /\ - p3 != 0`)
	if err := f.EnsureSafe(); err != nil {
		t.Errorf("EnsureSafe on safe formula: %v", err)
	}
}

func TestParse_RepeatedPlaceSumsCoefficients(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2*p + 3*p = 1", "(= (* p@0 5) 1)"},
		{"p + p = 2", "(= (* p@0 2) 2)"},
		{"2*p + q + 3*p >= 4", "(>= (+ (* p@0 5) q@0) 4)"},
	}
	for _, tt := range tests {
		f := mustParse(t, tt.input)
		if got := f.Render(General, 0); got != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	// The repeated place appears once in the place set.
	f := mustParse(t, "2*p + 3*p = 1")
	if got := f.Places(); len(got) != 1 || got[0] != "p" {
		t.Errorf("Places() = %v, want [p]", got)
	}
}

func TestParse_Braces(t *testing.T) {
	f := mustParse(t, "{p-1} = 0")
	if got := f.Render(General, 0); got != "(= p-1@0 0)" {
		t.Errorf("Render braces = %q, want %q", got, "(= p-1@0 0)")
	}
}

func TestParse_Errors(t *testing.T) {
	bad := []string{
		"",
		"p1",
		"(p = 1",
		"p = 1)",
		`p = 1 /\`,
		"p = ",
		"= 1",
		"{p = 1",
	}
	for _, input := range bad {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) = nil error, want parse error", input)
		}
	}
}

func TestPlaces(t *testing.T) {
	f := mustParse(t, `p2 + p1 = 1 \/ 3*p3 > 2`)
	want := []string{"p1", "p2", "p3"}
	if got := f.Places(); !reflect.DeepEqual(got, want) {
		t.Errorf("Places() = %v, want %v", got, want)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formula.txt")
	if err := os.WriteFile(path, []byte("p = 0\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if got := f.Render(General, 0); got != "(= p@0 0)" {
		t.Errorf("Render = %q, want %q", got, "(= p@0 0)")
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestString(t *testing.T) {
	f := mustParse(t, `- (p1 = 1 /\ 2*p2 <= 3)`)
	want := "(not ((p1 = 1) and ((2.p2) <= 3)))"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
