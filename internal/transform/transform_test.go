package transform

import (
	"testing"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/hir"
)

func TestDoublyLinkedCascadeGeneratesScenarioFiveAccessors(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	graph := r.TemplateCreate(root, "Graph", 32, hir.NotBuiltin, hir.Span{})
	node := r.TemplateCreate(root, "Node", 32, hir.NotBuiltin, hir.Span{})

	relID := r.RelationCreate(graph, node, hir.TransformDoublyLinked, "Graph", "Node", true)
	if err := Run(r, relID); err != nil {
		t.Fatal(err)
	}

	ctor := r.Functions.Get(r.Templates.Get(graph).Constructor)
	names := map[string]bool{}
	r.Blocks.Get(ctor.Body).ChildFunctions.Each(func(h arena.Handle) {
		names[r.Functions.Get(h).Name] = true
	})

	for _, want := range []string{"appendNode", "removeNode", "firstNode", "lastNode", "nextGraphNode", "prevGraphNode", "destroy"} {
		if !names[want] {
			t.Fatalf("expected generated accessor %q, got %v", want, names)
		}
	}

	rel := r.Relations.Get(relID)
	if rel.GeneratedFunctions.Len() != 7 {
		t.Fatalf("expected 7 generated functions (6 accessors + destroy), got %d", rel.GeneratedFunctions.Len())
	}
}

func TestUndoRelationRemovesGeneratedSlice(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	a := r.TemplateCreate(root, "A", 32, hir.NotBuiltin, hir.Span{})
	b := r.TemplateCreate(root, "B", 32, hir.NotBuiltin, hir.Span{})

	relID := r.RelationCreate(a, b, hir.TransformOneToOne, "A", "B", false)
	if err := Run(r, relID); err != nil {
		t.Fatal(err)
	}
	rel := r.Relations.Get(relID)
	if rel.GeneratedStatements.Len() == 0 {
		t.Fatal("expected generated statements before undo")
	}

	r.UndoRelation(relID)
	if rel.GeneratedStatements.Len() != 0 || rel.GeneratedFunctions.Len() != 0 {
		t.Fatal("expected UndoRelation to clear the generated slice")
	}
}
