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

// Package obs provides the structured logging used across the checkers and
// the solver session. Components take the Logger interface and default to
// NewNoOpLogger(), so logging stays optional with zero overhead when off.
package obs

import (
	"log/slog"
	"os"
	"sort"
)

// Logger handles structured logging with contextual fields.
// Implementations must be safe for concurrent use: several proof strategies
// log through the same Logger from their own goroutines.
//
// Use NoOpLogger when logging is disabled for zero overhead.
type Logger interface {
	// Debug logs a debug-level message with optional fields.
	// Debug logs carry per-query detail such as SMT-LIB text and
	// check-sat answers.
	//
	// Example:
	//   logger.Debug("check-sat", map[string]interface{}{
	//       "method": "BMC",
	//       "depth": 3,
	//   })
	Debug(msg string, fields map[string]interface{})

	// Info logs an info-level message with optional fields.
	Info(msg string, fields map[string]interface{})

	// Warn logs a warning-level message with optional fields.
	Warn(msg string, fields map[string]interface{})

	// Error logs an error-level message with optional fields.
	Error(msg string, fields map[string]interface{})
}

// NoOpLogger discards all log messages. It is the default for every
// component that is not explicitly given a logger.
type NoOpLogger struct{}

// NewNoOpLogger creates a logger that discards everything.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Debug does nothing.
func (l *NoOpLogger) Debug(msg string, fields map[string]interface{}) {}

// Info does nothing.
func (l *NoOpLogger) Info(msg string, fields map[string]interface{}) {}

// Warn does nothing.
func (l *NoOpLogger) Warn(msg string, fields map[string]interface{}) {}

// Error does nothing.
func (l *NoOpLogger) Error(msg string, fields map[string]interface{}) {}

// SlogLogger adapts the standard library's structured logger to the Logger
// interface. Fields are emitted as slog attributes in sorted key order, so
// log lines are stable for a given call site.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps an existing slog.Logger.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// NewStderrLogger creates a text-format logger writing to standard error at
// the given level. The verifier keeps standard output for the verdict, so
// all diagnostics go to stderr.
func NewStderrLogger(level slog.Level) *SlogLogger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &SlogLogger{logger: slog.New(handler)}
}

// Debug logs at debug level.
func (l *SlogLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, attrs(fields)...)
}

// Info logs at info level.
func (l *SlogLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, attrs(fields)...)
}

// Warn logs at warn level.
func (l *SlogLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, attrs(fields)...)
}

// Error logs at error level.
func (l *SlogLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, attrs(fields)...)
}

func attrs(fields map[string]interface{}) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}
