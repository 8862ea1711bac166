// Package simlog provides the structured-enough diagnostics used across
// the coherence engine: a minimal wrapper over the standard log package
// rather than a third-party logging framework (see DESIGN.md).
package simlog

import (
	"fmt"
	"log"
	"os"
)

// Logger attributes every line to a component and, for the concurrent
// parts of this engine, a role ("user" or "network") and core id, the
// context a bare fmt.Errorf chain would lose and that makes a fatal
// coherence error diagnosable: the triggering predicate and the
// address/state involved.
type Logger struct {
	component string
	std       *log.Logger
}

// New creates a Logger that prefixes every line with component.
func New(component string) *Logger {
	return &Logger{
		component: component,
		std:       log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	}
}

func (l *Logger) line(level, role string, coreID int, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if role == "" {
		return fmt.Sprintf("[%s] %s: %s", l.component, level, msg)
	}
	return fmt.Sprintf("[%s] %s role=%s core=%d: %s", l.component, level, role, coreID, msg)
}

// Warn logs a non-fatal condition, e.g. MSHR table eviction under
// pressure.
func (l *Logger) Warn(role string, coreID int, format string, args ...any) {
	l.std.Print(l.line("WARN", role, coreID, format, args...))
}

// Info logs a trace-level diagnostic.
func (l *Logger) Info(role string, coreID int, format string, args ...any) {
	l.std.Print(l.line("INFO", role, coreID, format, args...))
}

// Error logs a fatal condition before the caller panics with it.
func (l *Logger) Error(role string, coreID int, err error) {
	l.std.Print(l.line("ERROR", role, coreID, "%v", err))
}
