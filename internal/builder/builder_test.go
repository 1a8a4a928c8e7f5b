package builder

import (
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/hir"
)

func TestRootBuilderDelegatesToRoot(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	b := New(r)
	block := b.Block(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	fn := b.Function(block, "main", hir.FuncModule, hir.LinkageModule, hir.Span{})
	if r.Functions.Get(fn) == nil {
		t.Fatal("expected Function to be registered in Root")
	}

	v := b.Variable(block, "x", hir.VarLocal)
	if id, ok := r.LookupLocal(block, "x"); !ok || r.Idents.Get(id).Target != v {
		t.Fatal("expected Variable's auto-created Ident to resolve back to it")
	}
}

// TestMockBuilderReturnsRecordedHandles checks that MockBuilder, used
// through the Builder interface, returns the handles recorded in its
// expectations.
func TestMockBuilderReturnsRecordedHandles(t *testing.T) {
	ctrl := gomock.NewController(t)
	mb := NewMockBuilder(ctrl)

	mb.EXPECT().Block(hir.FunctionBlock, arena.NoHandle, arena.NoHandle).Return(arena.Handle(1))
	mb.EXPECT().Function(arena.Handle(1), "main", hir.FuncModule, hir.LinkageModule, hir.Span{}).Return(arena.Handle(2))

	var b Builder = mb
	block := b.Block(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	fn := b.Function(block, "main", hir.FuncModule, hir.LinkageModule, hir.Span{})

	if block != arena.Handle(1) || fn != arena.Handle(2) {
		t.Fatalf("expected mocked handles 1, 2; got %d, %d", block, fn)
	}
}
