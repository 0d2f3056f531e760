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

package petri

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// multiplierToInt maps the .net format magnitude suffixes to their values.
// Standard: http://projects.laas.fr/tina//manuals/formats.html
var multiplierToInt = map[byte]int{
	'K': 1_000,
	'M': 1_000_000,
	'G': 1_000_000_000,
	'T': 1_000_000_000_000,
	'P': 1_000_000_000_000_000,
	'E': 1_000_000_000_000_000_000,
}

// ParseNetFile reads a Petri net in .net textual format from a file.
// The safe flag marks the resulting net as safe (see Net.Safe); it is
// supplied externally, typically from the command line or a prior
// structural analysis.
func ParseNetFile(path string, safe bool) (*Net, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open net file: %w", err)
	}
	defer f.Close()

	net, err := parseNet(bufio.NewScanner(f), safe)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return net, nil
}

// ParseNet reads a Petri net in .net textual format from a string.
func ParseNet(input string, safe bool) (*Net, error) {
	return parseNet(bufio.NewScanner(strings.NewReader(input)), safe)
}

// parseNet handles the three .net directives: `net`, `pl` and `tr`.
// Unknown directives and empty lines are skipped, matching the tolerant
// behavior of the tina toolchain.
func parseNet(scanner *bufio.Scanner, safe bool) (*Net, error) {
	b := NewBuilder("").SetSafe(safe)
	lineno := 0

	for scanner.Scan() {
		lineno++

		// '#' and ',' are forbidden in SMT-LIB simple symbols;
		// substitute them before identifiers reach the encoder.
		line := strings.NewReplacer("#", ".", ",", ".").Replace(strings.TrimSpace(scanner.Text()))

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "net":
			if len(fields) < 2 {
				err = fmt.Errorf("missing net identifier")
			} else {
				b.id = fields[1]
			}
		case "pl":
			err = parsePlace(b, fields[1:])
		case "tr":
			err = parseTransition(b, fields[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read net: %w", err)
	}

	return b.Build()
}

// parsePlace handles `pl <id> [: <label>] [(<marking>)]`.
func parsePlace(b *Builder, content []string) error {
	if len(content) == 0 {
		return fmt.Errorf("missing place identifier")
	}
	id := content[0]
	content = skipLabel(content[1:])

	initial := 0
	if len(content) > 0 {
		value := strings.NewReplacer("(", "", ")", "").Replace(content[0])
		parsed, err := parseValue(value)
		if err != nil {
			return fmt.Errorf("place %s: %w", id, err)
		}
		initial = parsed
	}

	return b.AddPlace(id, initial)
}

// parseTransition handles `tr <id> [: <label>] <inputs...> -> <outputs...>`.
// A transition may appear on several lines; arcs accumulate.
func parseTransition(b *Builder, content []string) error {
	if len(content) == 0 {
		return fmt.Errorf("missing transition identifier")
	}
	id := content[0]
	content = skipLabel(content[1:])

	arrow := -1
	for i, tok := range content {
		if tok == "->" {
			arrow = i
			break
		}
	}
	if arrow == -1 {
		return fmt.Errorf("transition %s: missing '->'", id)
	}

	if b.transitions[id] == nil {
		if err := b.AddTransition(id); err != nil {
			return err
		}
	}

	for _, arc := range content[:arrow] {
		place, weight, err := parseArc(arc)
		if err != nil {
			return fmt.Errorf("transition %s: %w", id, err)
		}
		if err := b.AddInputArc(id, place, weight); err != nil {
			return err
		}
	}
	for _, arc := range content[arrow+1:] {
		place, weight, err := parseArc(arc)
		if err != nil {
			return fmt.Errorf("transition %s: %w", id, err)
		}
		if err := b.AddOutputArc(id, place, weight); err != nil {
			return err
		}
	}
	return nil
}

// parseArc splits an arc token `place` or `place*weight`.
func parseArc(content string) (place string, weight int, err error) {
	if before, after, found := strings.Cut(content, "*"); found {
		w, err := parseValue(after)
		if err != nil {
			return "", 0, fmt.Errorf("arc %s: %w", content, err)
		}
		return before, w, nil
	}
	return content, 1, nil
}

// skipLabel drops an optional `: <label>` prefix, where the label is a
// single token or a `{...}` group spanning several tokens.
func skipLabel(content []string) []string {
	if len(content) == 0 || content[0] != ":" {
		return content
	}
	if len(content) < 2 {
		return nil
	}
	if !strings.HasPrefix(content[1], "{") {
		return content[2:]
	}
	for i := 1; i < len(content); i++ {
		if strings.HasSuffix(content[i], "}") {
			return content[i+1:]
		}
	}
	return nil
}

// parseValue parses a nonnegative integer with an optional magnitude
// suffix (K, M, G, T, P, E).
func parseValue(content string) (int, error) {
	if content == "" {
		return 0, fmt.Errorf("empty integer value")
	}
	if n, err := strconv.Atoi(content); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative value %d", n)
		}
		return n, nil
	}

	multiplier, ok := multiplierToInt[content[len(content)-1]]
	if !ok {
		return 0, fmt.Errorf("incorrect integer value %q", content)
	}
	n, err := strconv.Atoi(content[:len(content)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("incorrect integer value %q", content)
	}
	return n * multiplier, nil
}
