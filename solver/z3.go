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
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jazzpetri/reach/obs"
)

// Z3Session is a Session backed by a z3 subprocess started with `-in`
// (read SMT-LIB from standard input). Commands are streamed over the
// process pipe and answers are read back line by line.
type Z3Session struct {
	id      string
	path    string
	timeout time.Duration
	logger  obs.Logger
	debug   bool

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	closeOnce sync.Once
	closeErr  error
}

// Z3Option configures a Z3Session before the process starts.
type Z3Option func(*Z3Session)

// WithPath sets the z3 executable path (default "z3", resolved via PATH).
func WithPath(path string) Z3Option {
	return func(s *Z3Session) { s.path = path }
}

// WithTimeout passes a hard per-process time limit to z3 (`-T:secs`).
// When the limit fires z3 exits on its own, and the pending query fails
// with a protocol error mapped to an inconclusive verdict.
func WithTimeout(d time.Duration) Z3Option {
	return func(s *Z3Session) { s.timeout = d }
}

// WithLogger sets the session logger (default: discard).
func WithLogger(logger obs.Logger) Z3Option {
	return func(s *Z3Session) { s.logger = logger }
}

// WithDebug echoes the full SMT-LIB transcript (commands and answers) at
// debug level.
func WithDebug(debug bool) Z3Option {
	return func(s *Z3Session) { s.debug = debug }
}

// NewZ3Session starts a z3 process and returns the session attached to it.
func NewZ3Session(opts ...Z3Option) (*Z3Session, error) {
	s := &Z3Session{
		id:     uuid.NewString(),
		path:   "z3",
		logger: obs.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	args := []string{"-in"}
	if s.timeout > 0 {
		secs := int(s.timeout.Seconds())
		if secs < 1 {
			secs = 1
		}
		args = append(args, fmt.Sprintf("-T:%d", secs))
	}

	cmd := exec.Command(s.path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("solver stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("solver stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start solver %s: %w", s.path, err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)

	s.logger.Debug("solver session started", map[string]interface{}{
		"session": s.id,
		"path":    s.path,
		"args":    strings.Join(args, " "),
	})
	return s, nil
}

// Z3Factory returns a Factory that starts one z3 process per call with the
// given options.
func Z3Factory(opts ...Z3Option) Factory {
	return func() (Session, error) {
		return NewZ3Session(opts...)
	}
}

// ID returns the unique session identifier, used to correlate log lines.
func (s *Z3Session) ID() string {
	return s.id
}

// Write sends raw SMT-LIB text to the solver.
func (s *Z3Session) Write(text string) error {
	if s.debug {
		s.logger.Debug("smt >", map[string]interface{}{
			"session": s.id,
			"text":    text,
		})
	}
	if _, err := io.WriteString(s.stdin, text); err != nil {
		return fmt.Errorf("write to solver: %w", err)
	}
	return nil
}

// Push saves the current assertion stack frame.
func (s *Z3Session) Push() error {
	return s.Write("(push 1)\n")
}

// Pop discards all assertions since the matching Push.
func (s *Z3Session) Pop() error {
	return s.Write("(pop 1)\n")
}

// CheckSat runs (check-sat) and reads the answer. Cancelling the context
// kills the solver process and fails the pending read.
func (s *Z3Session) CheckSat(ctx context.Context) (Result, error) {
	if err := s.Write("(check-sat)\n"); err != nil {
		return Unknown, err
	}
	line, err := s.readLine(ctx)
	if err != nil {
		return Unknown, err
	}
	if s.debug {
		s.logger.Debug("smt <", map[string]interface{}{
			"session": s.id,
			"text":    line,
		})
	}

	switch line {
	case "sat":
		return Sat, nil
	case "unsat":
		return Unsat, nil
	case "unknown", "timeout":
		return Unknown, nil
	default:
		return Unknown, fmt.Errorf("unexpected check-sat answer %q", line)
	}
}

// Values queries the model values of the given variables after a Sat answer.
func (s *Z3Session) Values(ctx context.Context, vars []string) (map[string]string, error) {
	if len(vars) == 0 {
		return map[string]string{}, nil
	}
	if err := s.Write(fmt.Sprintf("(get-value (%s))\n", strings.Join(vars, " "))); err != nil {
		return nil, err
	}
	answer, err := s.readSExpr(ctx)
	if err != nil {
		return nil, err
	}
	if s.debug {
		s.logger.Debug("smt <", map[string]interface{}{
			"session": s.id,
			"text":    answer,
		})
	}
	return parseValues(answer)
}

// Close terminates the solver process. It is safe to call concurrently with
// a blocked CheckSat; the kill unblocks the pending read.
func (s *Z3Session) Close() error {
	s.closeOnce.Do(func() {
		// best effort; the pipe may already be broken
		io.WriteString(s.stdin, "(exit)\n")
		s.stdin.Close()
		if s.cmd.Process != nil {
			s.cmd.Process.Kill()
		}
		s.closeErr = s.cmd.Wait()
		s.logger.Debug("solver session closed", map[string]interface{}{
			"session": s.id,
		})
	})
	return s.closeErr
}

// readLine reads one answer line, honoring context cancellation by killing
// the process (which fails the blocked read).
func (s *Z3Session) readLine(ctx context.Context) (string, error) {
	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := s.stdout.ReadString('\n')
		ch <- answer{line: strings.TrimSpace(line), err: err}
	}()

	select {
	case <-ctx.Done():
		s.Close()
		return "", ctx.Err()
	case a := <-ch:
		if a.err != nil {
			return "", fmt.Errorf("read solver answer: %w", a.err)
		}
		return a.line, nil
	}
}

// readSExpr reads lines until the parentheses of the answer balance.
// get-value answers can span several lines for larger models.
func (s *Z3Session) readSExpr(ctx context.Context) (string, error) {
	var b strings.Builder
	depth := 0
	started := false
	for {
		line, err := s.readLine(ctx)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		inString := false
		for i := 0; i < len(line); i++ {
			switch line[i] {
			case '"':
				inString = !inString
			case '(':
				if !inString {
					depth++
					started = true
				}
			case ')':
				if !inString {
					depth--
				}
			}
		}
		if started && depth <= 0 {
			return b.String(), nil
		}
		if !started {
			return "", fmt.Errorf("unexpected get-value answer %q", line)
		}
	}
}

// parseValues extracts variable/value pairs from a get-value answer of the
// form ((v1 val1) (v2 val2) ...). Values are kept as SMT-LIB literals;
// nested terms such as (- 1) stay intact.
func parseValues(text string) (map[string]string, error) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != '(' || text[len(text)-1] != ')' {
		return nil, fmt.Errorf("malformed get-value answer %q", text)
	}

	inner := strings.TrimSpace(text[1 : len(text)-1])
	if strings.HasPrefix(inner, "error") {
		return nil, fmt.Errorf("solver error: %s", inner)
	}

	values := make(map[string]string)
	for i := 0; i < len(inner); {
		switch inner[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		case '(':
		default:
			return nil, fmt.Errorf("malformed value pair at %q", inner[i:])
		}

		depth := 0
		j := i
		for ; j < len(inner); j++ {
			if inner[j] == '(' {
				depth++
			} else if inner[j] == ')' {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		if depth != 0 {
			return nil, fmt.Errorf("unbalanced value pair in %q", inner)
		}

		pair := strings.TrimSpace(inner[i+1 : j])
		sep := strings.IndexAny(pair, " \t\n")
		if sep < 0 {
			return nil, fmt.Errorf("value pair %q has no value", pair)
		}
		name := pair[:sep]
		value := strings.Join(strings.Fields(pair[sep+1:]), " ")
		values[name] = value

		i = j + 1
	}
	return values, nil
}
