package hir

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/rune-sub002/internal/arena"
)

// DumpBlock renders block as a deterministic textual snapshot used both
// for human debugging and for the round-trip test of spec.md §8
// ("shallow-copy then attach-to-snapshot of a Block produces a Block equal
// to the original when serialized by the debug dumper"). The dump is
// intentionally shape-only (kinds, structure, variable names) and omits
// arena handle values, which are allocation-order-dependent and would
// make two structurally identical blocks compare unequal.
func (r *Root) DumpBlock(block BlockID) string {
	var sb strings.Builder
	b := r.Blocks.Get(block)
	fmt.Fprintf(&sb, "block(kind=%d)\n", b.Kind)

	var varNames []string
	b.Variables.Each(func(h arena.Handle) {
		v := r.Variables.Get(h)
		varNames = append(varNames, fmt.Sprintf("%s:%d", v.Name, v.Kind))
	})
	sort.Strings(varNames)
	for _, v := range varNames {
		fmt.Fprintf(&sb, "  var %s\n", v)
	}

	b.Statements.Each(func(h arena.Handle) {
		sb.WriteString(r.dumpStatement(h, 1))
	})

	return sb.String()
}

func (r *Root) dumpStatement(stmt StatementID, depth int) string {
	s := r.Statements.Get(stmt)
	var sb strings.Builder
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(&sb, "%sstmt(kind=%d)\n", indent, s.Kind)
	if s.Expr != arena.NoHandle {
		sb.WriteString(r.dumpExpression(s.Expr, depth+1))
	}
	if s.Sub != arena.NoHandle {
		sub := r.Blocks.Get(s.Sub)
		sub.Statements.Each(func(h arena.Handle) {
			sb.WriteString(r.dumpStatement(h, depth+1))
		})
	}
	return sb.String()
}

func (r *Root) dumpExpression(expr ExpressionID, depth int) string {
	e := r.Expressions.Get(expr)
	var sb strings.Builder
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(&sb, "%sexpr(kind=%d name=%q)\n", indent, e.Kind, e.Name)
	for _, c := range e.Children {
		sb.WriteString(r.dumpExpression(c, depth+1))
	}
	return sb.String()
}
