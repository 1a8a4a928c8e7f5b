// Package diagnostics renders the compiler's user-facing error reports:
// the five error kinds of spec §7 (name-resolution, type, relation,
// runtime-semantics-at-compile-time, and internal invariant violations),
// each carrying a source Span and, for binder-time errors, an ASCII
// rendering of the Signature-call stack that led to the failing node.
package diagnostics

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/google/rune-sub002/internal/position"
)

// Category is a closed enumeration of the error kinds spec §7 names.
// Lex/parse errors are not modeled here: they are surfaced by the
// (external) parser before any HIR builder call is made.
type Category int

const (
	CategoryNameResolution Category = iota
	CategoryType
	CategoryRelation
	CategoryRuntimeSemantics
	CategoryInternal
	CategoryFilesystem // internal/modules: unsatisfiable manifest constraint, illegal import path
)

func (c Category) String() string {
	switch c {
	case CategoryNameResolution:
		return "name-resolution"
	case CategoryType:
		return "type"
	case CategoryRelation:
		return "relation"
	case CategoryRuntimeSemantics:
		return "runtime-semantics"
	case CategoryInternal:
		return "internal"
	case CategoryFilesystem:
		return "filesystem"
	default:
		return "unknown"
	}
}

// Kind names a specific diagnostic within its Category, giving every
// diagnostic a stable machine-matchable code independent of its rendered
// message text.
type Kind string

const (
	KindUndefinedIdent       Kind = "UNDEFINED_IDENT"
	KindSizeMismatch         Kind = "SIZE_MISMATCH"
	KindSignednessMismatch   Kind = "SIGNEDNESS_MISMATCH"
	KindSecretMisuse         Kind = "SECRET_MISUSE"
	KindNonConcreteType      Kind = "NON_CONCRETE_TYPE"
	KindReferenceCycle       Kind = "REFERENCE_CYCLE"
	KindForbiddenCascadeMember Kind = "FORBIDDEN_CASCADE_MEMBER"
	KindMissingCascadeInsert Kind = "MISSING_CASCADE_INSERT"
	KindLiteralOverflow      Kind = "LITERAL_OVERFLOW"
	KindTruncationLoss       Kind = "TRUNCATION_LOSS"
	KindModByZero            Kind = "MOD_BY_ZERO"
	KindUnsupportedFeature   Kind = "UNSUPPORTED_FEATURE"
	KindUnsatisfiedManifest  Kind = "UNSATISFIED_MANIFEST_CONSTRAINT"
	KindIllegalImportPath    Kind = "ILLEGAL_IMPORT_PATH"
	KindInternalInvariant    Kind = "INTERNAL_INVARIANT"
)

// Frame is one entry of a rendered Signature-call stack trace: the
// callee's display name and the Span of its callsite in the caller.
type Frame struct {
	FuncName string
	Callsite position.Span
}

// Diagnostic is a single user-facing error report.
type Diagnostic struct {
	Category Category
	Kind     Kind
	Message  string
	Span     position.Span
	Stack    []Frame // innermost call first; empty outside the binder
}

func (d *Diagnostic) Error() string {
	return d.Render(false)
}

// Render formats d as "file:line:col: category/kind: message", followed
// by a "source line" snippet-free (no source-text cache is kept here;
// callers that have Line text render it themselves) ASCII stack trace,
// one "called from ..." line per Frame. color enables ANSI SGR codes for
// the category/kind prefix.
func (d *Diagnostic) Render(color bool) string {
	var sb strings.Builder

	head := fmt.Sprintf("%s: %s/%s: %s", d.Span.Start.String(), d.Category, d.Kind, d.Message)
	if color {
		head = colorize(d.Category, head)
	}
	sb.WriteString(head)

	for _, f := range d.Stack {
		fmt.Fprintf(&sb, "\n  called from %s at %s", f.FuncName, f.Callsite.Start.String())
	}
	return sb.String()
}

func colorize(c Category, s string) string {
	code := "31" // red, default
	switch c {
	case CategoryInternal:
		code = "35" // magenta
	case CategoryFilesystem:
		code = "33" // yellow
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

// Sink collects Diagnostics reported concurrently (internal/verify runs
// its three passes via errgroup) and renders them once verification
// completes. Safe for concurrent use by multiple goroutines via Report.
type Sink struct {
	mu    sync.Mutex
	diags []*Diagnostic
}

// NewSink returns an empty, ready-to-use Sink.
func NewSink() *Sink {
	return &Sink{}
}

// Report appends d to the sink. Safe to call from multiple goroutines.
func (s *Sink) Report(d *Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diags = append(s.diags, d)
}

// Diagnostics returns every reported Diagnostic, ordered by source
// position for stable, reproducible output across concurrent reporters.
func (s *Sink) Diagnostics() []*Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]*Diagnostic(nil), s.diags...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Span.Start.Before(out[j].Span.Start)
	})
	return out
}

// HasErrors reports whether any Diagnostic has been reported.
func (s *Sink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.diags) > 0
}

// TerminalWidth returns the current stdout terminal width, falling back
// to 80 columns when stdout is not a terminal (redirected output, CI
// logs). Render does not call it and does not wrap its output.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// New constructs a Diagnostic with no stack trace (non-binder errors:
// filesystem/manifest, parse-adjacent).
func New(cat Category, kind Kind, msg string, span position.Span) *Diagnostic {
	return &Diagnostic{Category: cat, Kind: kind, Message: msg, Span: span}
}

// Internal constructs an internal-invariant Diagnostic. Callers panic
// with the result rather than returning it through ordinary error flow;
// binder.Engine.Run recovers such a panic, reports the Diagnostic to its
// sink and returns it as an error.
func Internal(msg string, span position.Span) *Diagnostic {
	return New(CategoryInternal, KindInternalInvariant, msg, span)
}

// Assert panics with an Internal Diagnostic if cond is false, mirroring
// the teacher's assertion-helper idiom (internal/errors.StandardError)
// generalized to this package's own Diagnostic type instead of a bespoke
// error struct.
func Assert(cond bool, span position.Span, format string, args ...interface{}) {
	if cond {
		return
	}
	panic(Internal(fmt.Sprintf(format, args...), span))
}
