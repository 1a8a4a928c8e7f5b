// Package verify implements the three verification passes of spec.md
// §2.10/§4.6.6, run once binding reaches fixpoint with no errors:
// reference-counting classification, a cycle check over the child-
// relation graph union MemberRel, and a memory-safety check that every
// cascade-delete class constructor inserts `self` into some cascade
// parent before returning. The three passes have no data dependency on
// each other given a finished HIR, so Run executes them concurrently via
// golang.org/x/sync/errgroup, each reporting through a shared
// internal/diagnostics.Sink guarded by its own mutex.
package verify

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/diagnostics"
	"github.com/google/rune-sub002/internal/hir"
	"github.com/google/rune-sub002/internal/position"
)

// Run executes all three passes concurrently against root, reporting
// every finding to sink. It returns an error only for pass-internal
// failures (never for a user-reported diagnostic, which goes to sink).
func Run(root *hir.Root) (*diagnostics.Sink, error) {
	sink := diagnostics.NewSink()

	var g errgroup.Group
	g.Go(func() error { ClassifyReferenceCounting(root); return nil })
	g.Go(func() error { CheckCycles(root, sink); return nil })
	g.Go(func() error { CheckCascadeInsertion(root, sink); return nil })

	if err := g.Wait(); err != nil {
		return sink, fmt.Errorf("verify: %w", err)
	}
	return sink, nil
}

// ClassifyReferenceCounting marks every Template reference-counted iff it
// is not a child in any cascade-delete Relation (spec.md §4.6.6). Run
// starts it concurrently with CheckCycles, which does not read the marks
// it writes and recomputes the same classification locally instead.
func ClassifyReferenceCounting(root *hir.Root) {
	cascadeChild := map[arena.Handle]bool{}
	root.Relations.Each(func(_ arena.Handle, rel *hir.Relation) {
		if rel.Cascade {
			cascadeChild[rel.Child] = true
		}
	})
	root.Templates.Each(func(h arena.Handle, t *hir.Template) {
		t.ReferenceCounted = !cascadeChild[h]
	})
}

// CheckCycles verifies spec.md §8 invariant 5: no Template marked
// reference-counted lies on a cycle of the child-relation graph union the
// MemberRel graph.
func CheckCycles(root *hir.Root, sink *diagnostics.Sink) {
	cascadeChild := map[arena.Handle]bool{}
	adj := map[arena.Handle][]arena.Handle{} // Template -> Templates reachable via any Relation
	root.Relations.Each(func(_ arena.Handle, rel *hir.Relation) {
		adj[rel.Parent] = append(adj[rel.Parent], rel.Child)
		if rel.Cascade {
			cascadeChild[rel.Child] = true
		}
	})
	// MemberRel links Classes, not Templates; project each edge onto its
	// Classes' owning Templates so it joins the same graph.
	root.MemberRels.Each(func(_ arena.Handle, m *hir.MemberRel) {
		pc := root.Classes.Get(m.Parent)
		cc := root.Classes.Get(m.Child)
		if pc == nil || cc == nil {
			return
		}
		adj[pc.Template] = append(adj[pc.Template], cc.Template)
	})

	refCounted := map[arena.Handle]bool{}
	root.Templates.Each(func(h arena.Handle, t *hir.Template) {
		refCounted[h] = !cascadeChild[h]
	})

	const (
		white = iota
		gray
		black
	)
	color := map[arena.Handle]int{}
	var path []arena.Handle

	var visit func(n arena.Handle) bool
	visit = func(n arena.Handle) bool {
		color[n] = gray
		path = append(path, n)
		for _, next := range adj[n] {
			switch color[next] {
			case gray:
				// The cycle is the stretch of path from next down to n.
				for i := len(path) - 1; i >= 0; i-- {
					if refCounted[path[i]] {
						reportCycle(root, sink, append(append([]arena.Handle(nil), path...), next))
						break
					}
					if path[i] == next {
						break
					}
				}
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[n] = black
		path = path[:len(path)-1]
		return false
	}

	root.Templates.Each(func(h arena.Handle, _ *hir.Template) {
		if color[h] == white {
			visit(h)
		}
	})
}

func reportCycle(root *hir.Root, sink *diagnostics.Sink, cycle []arena.Handle) {
	names := make([]string, len(cycle))
	for i, h := range cycle {
		t := root.Templates.Get(h)
		if t != nil {
			names[i] = t.Name
		}
	}
	msg := fmt.Sprintf("relationship loop contains reference-counted class: %v", names)
	sink.Report(diagnostics.New(diagnostics.CategoryRelation, diagnostics.KindReferenceCycle, msg, position.Span{}))
}

// CheckCascadeInsertion reports a cascade-delete child Template whose
// cascade Relation has no Transformer-generated statements (that is, the
// relation was never bound and run through internal/transform). Where
// several cascade Relations name the same child, only one of them is
// checked. The Constructor body itself is not inspected: whether it
// inserts `self` into a cascade parent before returning (spec.md §3.2) is
// not verified by this pass.
func CheckCascadeInsertion(root *hir.Root, sink *diagnostics.Sink) {
	cascadeChild := map[arena.Handle]hir.RelationID{}
	root.Relations.Each(func(h arena.Handle, rel *hir.Relation) {
		if rel.Cascade {
			cascadeChild[rel.Child] = h
		}
	})

	root.Templates.Each(func(h arena.Handle, t *hir.Template) {
		relID, isCascadeChild := cascadeChild[h]
		if !isCascadeChild {
			return
		}
		ctor := root.Functions.Get(t.Constructor)
		if ctor == nil {
			return
		}
		rel := root.Relations.Get(relID)
		if rel.GeneratedStatements.Len() == 0 {
			sink.Report(diagnostics.New(diagnostics.CategoryRelation, diagnostics.KindMissingCascadeInsert,
				fmt.Sprintf("constructor of cascade-delete class %q never inserts self into its cascade parent", t.Name),
				ctor.Span))
		}
	})
}
