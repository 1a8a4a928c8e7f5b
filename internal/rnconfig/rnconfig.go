// Package rnconfig holds the compiler's CLI-derived configuration and a
// small leveled logger, both used by cmd/rune (hir.Start() and the binder
// take neither), adapted from the teacher's internal/cli.Config/Logger.
package rnconfig

import (
	"fmt"
	"os"
	"time"
)

// Backend names the code-generation target of spec §6.1's `-l` flag.
// Both backends are external collaborators; this package only validates
// and carries the selection.
type Backend string

const (
	BackendLLVM Backend = "llvm"
	BackendC    Backend = "c"
)

// Config is the resolved set of compiler flags (spec §6.1), plus the
// `-w`/`--watch` supplement of SPEC_FULL.md §4.
type Config struct {
	SourceFile string
	PackageDir string // directory containing SourceFile; the package root
	Debug      bool   // -g
	Backend    Backend
	RunTests   bool // -t
	StrictMode bool // -x
	OutputPath string
	Watch      bool // -w / --watch
	Verbose    bool
}

// Logger is a small leveled logger in the shape of the teacher's
// internal/cli.Logger: Info/Debug are gated on Verbose/DebugMode, Warn/Error
// always print.
type Logger struct {
	Verbose   bool
	DebugMode bool
	out       *os.File
}

// NewLogger returns a Logger writing to stderr, matching the teacher's
// convention of keeping diagnostic chatter off stdout (reserved for
// compiler/program output).
func NewLogger(verbose, debug bool) *Logger {
	return &Logger{Verbose: verbose, DebugMode: debug, out: os.Stderr}
}

func (l *Logger) stamp() string { return time.Now().Format("15:04:05") }

// Info logs a message gated on Verbose — used for high-level compile
// progress ("binding package foo", "386 expressions bound").
func (l *Logger) Info(format string, args ...interface{}) {
	if l.Verbose {
		fmt.Fprintf(l.out, "[INFO] %s: %s\n", l.stamp(), fmt.Sprintf(format, args...))
	}
}

// Debug logs a message gated on DebugMode.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.DebugMode {
		fmt.Fprintf(l.out, "[DEBUG] %s: %s\n", l.stamp(), fmt.Sprintf(format, args...))
	}
}

// Warn always logs.
func (l *Logger) Warn(format string, args ...interface{}) {
	fmt.Fprintf(l.out, "[WARN] %s: %s\n", l.stamp(), fmt.Sprintf(format, args...))
}

// Error always logs.
func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Fprintf(l.out, "[ERROR] %s: %s\n", l.stamp(), fmt.Sprintf(format, args...))
}
