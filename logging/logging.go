// Package logging provides the simulator's "log once" helper: a
// recoverable condition that can recur every clock cycle (the driver's
// Lua model errors are its one caller) is worth a single diagnostic
// line, not a flood of one per clock cycle for the rest of the run.
package logging

import (
	"fmt"
	"os"
)

// Logger tracks which messages have already been printed.
type Logger struct {
	seen map[string]bool
}

func New() *Logger {
	return &Logger{seen: make(map[string]bool)}
}

// Once prints msg to stderr the first time it's seen and silently drops
// every repeat, keyed on the formatted message text.
func (l *Logger) Once(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.seen[msg] {
		return
	}
	l.seen[msg] = true
	fmt.Fprintln(os.Stderr, msg)
}
