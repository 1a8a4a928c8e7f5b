package hir

import (
	"testing"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/datatype"
)

func TestBlockIdentAtMostOneEntryPerSymbol(t *testing.T) {
	r := Start()
	defer r.Stop()

	root := r.BlockCreate(FunctionBlock, arena.NoHandle, arena.NoHandle)
	r.DefineIdent(root, "x", IdentVariable, 1)
	r.DefineIdent(root, "x", IdentVariable, 2)

	id, ok := r.LookupLocal(root, "x")
	if !ok {
		t.Fatal("expected x to be defined")
	}
	if r.Idents.Get(id).Target != 2 {
		t.Fatalf("expected the second definition to win, got target %d", r.Idents.Get(id).Target)
	}
}

func TestScopeBlockWalksUpStatementBlocks(t *testing.T) {
	r := Start()
	defer r.Stop()

	fnBlock := r.BlockCreate(FunctionBlock, arena.NoHandle, arena.NoHandle)
	inner := r.BlockCreate(StatementBlock, arena.NoHandle, fnBlock)
	innerMost := r.BlockCreate(StatementBlock, arena.NoHandle, inner)

	if got := r.ScopeBlock(innerMost); got != fnBlock {
		t.Fatalf("expected ScopeBlock to reach the FUNCTION-block, got %d want %d", got, fnBlock)
	}
}

func TestTemplatePolymorphismProducesDistinctClasses(t *testing.T) {
	r := Start()
	defer r.Stop()

	root := r.BlockCreate(FunctionBlock, arena.NoHandle, arena.NoHandle)
	tmpl := r.TemplateCreate(root, "Point", 64, NotBuiltin, Span{})

	u32 := r.Types.UintType(32)
	f64 := r.Types.FloatType(64)

	uintClass, created1 := r.FindOrCreateClass(tmpl, []datatype.ID{u32, u32})
	if !created1 {
		t.Fatal("expected first Class for this parameter tuple to be newly created")
	}

	floatClass, created2 := r.FindOrCreateClass(tmpl, []datatype.ID{f64, f64})
	if !created2 {
		t.Fatal("expected a distinct parameter tuple to mint a second Class")
	}

	if uintClass == floatClass {
		t.Fatal("expected Point(u32,u32) and Point(f64,f64) to produce distinct Classes")
	}

	reuse, created3 := r.FindOrCreateClass(tmpl, []datatype.ID{u32, u32})
	if created3 {
		t.Fatal("expected repeating the same parameter tuple to reuse the existing Class")
	}
	if reuse != uintClass {
		t.Fatalf("expected reused Class to equal %d, got %d", uintClass, reuse)
	}

	if r.Templates.Get(tmpl).Classes.Len() != 2 {
		t.Fatalf("expected exactly 2 Classes under the Template, got %d", r.Templates.Get(tmpl).Classes.Len())
	}
}

func TestSignatureHashConsingInvariant(t *testing.T) {
	r := Start()
	defer r.Stop()

	root := r.BlockCreate(FunctionBlock, arena.NoHandle, arena.NoHandle)
	fn := r.FunctionCreate(root, "f", FuncPlain, LinkageModule, Span{})
	u32 := r.Types.UintType(32)

	sig1, created1 := r.FindOrCreateSignature(fn, []datatype.ID{u32}, arena.NoHandle, arena.NoHandle)
	if !created1 {
		t.Fatal("expected first call with this argument tuple to create a Signature")
	}
	sig2, created2 := r.FindOrCreateSignature(fn, []datatype.ID{u32}, arena.NoHandle, arena.NoHandle)
	if created2 {
		t.Fatal("expected identical argument tuple to reuse the existing Signature")
	}
	if sig1 != sig2 {
		t.Fatalf("expected sig1 == sig2, got %d != %d", sig1, sig2)
	}
}

func TestCopyBlockRoundTripsThroughDumper(t *testing.T) {
	r := Start()
	defer r.Stop()

	root := r.BlockCreate(FunctionBlock, arena.NoHandle, arena.NoHandle)
	r.VariableCreate(root, "x", VarLocal)
	r.StatementCreate(root, StmtReturn, arena.NoHandle, arena.NoHandle, Line{})

	before := r.DumpBlock(root)
	clone := r.CopyBlock(root, arena.NoHandle, false)
	after := r.DumpBlock(clone)

	if before != after {
		t.Fatalf("expected shallow copy to dump identically:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}

// AlphaRename renames a cloned block's variable only when it would shadow
// a name already visible from the destination scope, and Restore reverses
// that rename exactly (spec.md §4.4/§9).
func TestAlphaRenameAvoidsShadowingThenRestores(t *testing.T) {
	r := Start()
	defer r.Stop()

	dest := r.BlockCreate(FunctionBlock, arena.NoHandle, arena.NoHandle)
	r.VariableCreate(dest, "x", VarLocal)

	src := r.BlockCreate(FunctionBlock, arena.NoHandle, arena.NoHandle)
	r.VariableCreate(src, "x", VarLocal)
	r.StatementCreate(src, StmtReturn, arena.NoHandle, arena.NoHandle, Line{})

	clone := r.CopyBlock(src, arena.NoHandle, false)
	before := r.DumpBlock(clone)

	r.AlphaRename(clone, dest)

	var renamed VariableID
	r.Blocks.Get(clone).Variables.Each(func(h arena.Handle) { renamed = VariableID(h) })
	v := r.Variables.Get(renamed)
	if v.Name == "x" {
		t.Fatal("expected the shadowing variable to be renamed")
	}
	if v.OriginalName != "x" {
		t.Fatalf("expected OriginalName to stay %q, got %q", "x", v.OriginalName)
	}
	if _, ok := r.Blocks.Get(clone).Idents.Get("x"); ok {
		t.Fatal("expected the old name to no longer resolve in the clone's Ident table")
	}

	r.Restore(clone)
	after := r.DumpBlock(clone)
	if before != after {
		t.Fatalf("expected Restore to reverse AlphaRename exactly:\nbefore:\n%s\nafter:\n%s", before, after)
	}
}
