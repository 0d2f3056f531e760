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
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Parse parses a reachability formula from its textual form.
//
// Grammar (whitespace insignificant):
//
//	expr  := expr \/ expr | expr /\ expr | - expr | ( expr ) | T | F | atom
//	atom  := member cmp member        cmp ∈ { <=, >=, <, >, =, != }
//	member:= [int*]place { + [int*]place } [+ int] | int
//
// Negation binds tighter than /\, which binds tighter than \/.
// Place names containing `-` can be protected with braces: {p-1} = 0.
func Parse(input string) (*Formula, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, fmt.Errorf("unexpected token %q", p.peek())
	}
	return &Formula{root: root}, nil
}

// ParseFile reads a formula from a file and parses it.
func ParseFile(path string) (*Formula, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open formula file: %w", err)
	}
	f, err := Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// tokenize splits the input into parentheses, the operators `-`, `/\`, `\/`,
// and term strings (atoms or constants). Braces protect `-` inside place
// names and are stripped from the output.
func tokenize(input string) ([]string, error) {
	var tokens []string
	var buf strings.Builder
	inBrace := false

	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, buf.String())
			buf.Reset()
		}
	}

	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			// whitespace never separates within a term; members are
			// reassembled from the character stream
		case c == '/' && i+1 < len(input) && input[i+1] == '\\':
			flush()
			tokens = append(tokens, `/\`)
			i++
		case c == '\\' && i+1 < len(input) && input[i+1] == '/':
			flush()
			tokens = append(tokens, `\/`)
			i++
		case c == '-' && !inBrace:
			flush()
			tokens = append(tokens, "-")
		case c == '(' || c == ')':
			flush()
			tokens = append(tokens, string(c))
		case c == '{':
			if inBrace {
				return nil, fmt.Errorf("nested '{' in formula")
			}
			inBrace = true
		case c == '}':
			if !inBrace {
				return nil, fmt.Errorf("unmatched '}' in formula")
			}
			inBrace = false
		default:
			buf.WriteByte(c)
		}
	}
	if inBrace {
		return nil, fmt.Errorf("unclosed '{' in formula")
	}
	flush()
	return tokens, nil
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() string {
	if p.done() {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) next() string {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *parser) parseOr() (Expression, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	operands := []Expression{first}
	for p.peek() == `\/` {
		p.next()
		operand, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return &StateFormula{Operator: "or", Operands: operands}, nil
}

func (p *parser) parseAnd() (Expression, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	operands := []Expression{first}
	for p.peek() == `/\` {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return &StateFormula{Operator: "and", Operands: operands}, nil
}

func (p *parser) parseUnary() (Expression, error) {
	if p.peek() == "-" {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &StateFormula{Operator: "not", Operands: []Expression{operand}}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expression, error) {
	switch tok := p.peek(); tok {
	case "":
		return nil, fmt.Errorf("unexpected end of formula")
	case "(":
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("unbalanced parentheses")
		}
		p.next()
		return inner, nil
	case ")", `/\`, `\/`:
		return nil, fmt.Errorf("unexpected token %q", tok)
	case "T":
		p.next()
		return BooleanConstant(true), nil
	case "F":
		p.next()
		return BooleanConstant(false), nil
	default:
		p.next()
		return parseAtom(tok)
	}
}

// comparison operators, two-character operators first so that `<=` is not
// read as `<` followed by a stray `=`.
var comparisons = []string{"<=", ">=", "!=", "<", ">", "="}

// parseAtom splits a term like `p1+2*p2<=3` into its comparison operator and
// two members.
func parseAtom(term string) (Expression, error) {
	for i := 0; i < len(term); i++ {
		for _, op := range comparisons {
			if strings.HasPrefix(term[i:], op) {
				left, err := parseMember(term[:i])
				if err != nil {
					return nil, fmt.Errorf("atom %q: %w", term, err)
				}
				right, err := parseMember(term[i+len(op):])
				if err != nil {
					return nil, fmt.Errorf("atom %q: %w", term, err)
				}
				if op == "!=" {
					op = "distinct"
				}
				return &Atom{Left: left, Right: right, Operator: op}, nil
			}
		}
	}
	return nil, fmt.Errorf("expected a comparison in %q", term)
}

// parseMember builds the linear combination `k_1*p_1 + ... + c` of a
// comparison side. A member with no places is an integer constant.
// A place appearing in several summands keeps one entry with the summed
// coefficient: `2*p + 3*p` means 5*p.
func parseMember(text string) (Member, error) {
	if text == "" {
		return nil, fmt.Errorf("empty member")
	}

	var places []string
	coefficients := make(map[string]int)
	constant := 0

	for _, element := range strings.Split(text, "+") {
		if element == "" {
			return nil, fmt.Errorf("empty summand in %q", text)
		}
		if n, err := strconv.Atoi(element); err == nil {
			constant += n
			continue
		}

		parts := strings.Split(element, "*")
		place := parts[len(parts)-1]
		if place == "" {
			return nil, fmt.Errorf("missing place in summand %q", element)
		}
		if len(parts) > 2 {
			return nil, fmt.Errorf("malformed summand %q", element)
		}
		coefficient := 1
		if len(parts) == 2 {
			m, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, fmt.Errorf("bad multiplier in summand %q", element)
			}
			coefficient = m
		}
		if _, seen := coefficients[place]; !seen {
			places = append(places, place)
		}
		coefficients[place] += coefficient
	}

	if len(places) == 0 {
		return IntegerConstant(constant), nil
	}

	var multipliers map[string]int
	for place, coefficient := range coefficients {
		if coefficient != 1 {
			if multipliers == nil {
				multipliers = make(map[string]int)
			}
			multipliers[place] = coefficient
		}
	}
	return &TokenCount{Places: places, Multipliers: multipliers, Constant: constant}, nil
}
