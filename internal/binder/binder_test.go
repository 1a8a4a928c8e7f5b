package binder_test

import (
	"testing"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/bigint"
	"github.com/google/rune-sub002/internal/binder"
	"github.com/google/rune-sub002/internal/diagnostics"
	"github.com/google/rune-sub002/internal/hir"
)

func mustRun(t *testing.T, r *hir.Root, sink *diagnostics.Sink, entry hir.SignatureID, scopes hir.Scopes) {
	t.Helper()
	eng := binder.New(r, sink)
	if err := eng.Run([]hir.SignatureID{entry}, scopes); err != nil {
		t.Fatalf("binder run failed: %v", err)
	}
}

func intLiteral(t *testing.T, r *hir.Root, width int, v int64) hir.ExpressionID {
	t.Helper()
	n, err := bigint.FromInt64(width, true, false, v)
	if err != nil {
		t.Fatal(err)
	}
	expr := r.ExpressionCreate(hir.ExprLiteral, hir.Span{})
	r.SetLiteral(expr, n)
	return expr
}

// A call from main to helper suspends on helper's return-type Event until
// helper's own body binds, then wakes and completes — spec.md §4.6.2's
// ready/blocked fixpoint loop, and §8 invariant 2's Signature reuse: a
// second identical call never re-enqueues helper's body.
func TestCallChainBindsReturnTypeAndWakesCaller(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)

	helperFn := r.FunctionCreate(root, "helper", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	helper := r.Functions.Get(helperFn)
	ret := intLiteral(t, r, 32, 5)
	r.StatementCreate(helper.Body, hir.StmtReturn, ret, arena.NoHandle, hir.Line{})

	mainFn := r.FunctionCreate(root, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := r.Functions.Get(mainFn)

	calleeIdent := r.ExpressionCreate(hir.ExprIdent, hir.Span{})
	r.SetName(calleeIdent, "helper")
	call1 := r.ExpressionCreate(hir.ExprCall, hir.Span{}, calleeIdent)
	r.StatementCreate(main.Body, hir.StmtCall, call1, arena.NoHandle, hir.Line{})

	calleeIdent2 := r.ExpressionCreate(hir.ExprIdent, hir.Span{})
	r.SetName(calleeIdent2, "helper")
	call2 := r.ExpressionCreate(hir.ExprCall, hir.Span{}, calleeIdent2)
	r.StatementCreate(main.Body, hir.StmtCall, call2, arena.NoHandle, hir.Line{})

	sink := diagnostics.NewSink()
	mainSig, _ := r.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	mustRun(t, r, sink, mainSig, hir.Scopes{Root: root})

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}

	helperSig, created := r.FindOrCreateSignature(helperFn, nil, arena.NoHandle, arena.NoHandle)
	if created {
		t.Fatal("expected helper's signature to already exist from the call")
	}
	sig := r.Signatures.Get(helperSig)
	want := r.Types.IntType(32)
	if sig.ReturnType != want {
		t.Fatalf("expected helper's return type to be int32, got %v", r.Types.Get(sig.ReturnType))
	}
	if r.Expressions.Get(call1).Datatype != want || r.Expressions.Get(call2).Datatype != want {
		t.Fatal("expected both call sites to carry helper's return type")
	}
}

// An identifier that is never defined is a genuine undefined-name error,
// reported as soon as its lookup fails during binding.
func TestUndefinedIdentifierIsReported(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	mainFn := r.FunctionCreate(root, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := r.Functions.Get(mainFn)

	ghost := r.ExpressionCreate(hir.ExprIdent, hir.Span{})
	r.SetName(ghost, "ghost")
	r.StatementCreate(main.Body, hir.StmtAssign, ghost, arena.NoHandle, hir.Line{})

	sink := diagnostics.NewSink()
	mainSig, _ := r.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	mustRun(t, r, sink, mainSig, hir.Scopes{Root: root})

	if !sink.HasErrors() {
		t.Fatal("expected an undefined-identifier diagnostic")
	}
	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diagnostics.KindUndefinedIdent {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected KindUndefinedIdent, got %v", sink.Diagnostics())
	}
}

// A secret value used as a branch condition is rejected (spec.md §4.6.4):
// no branch condition may depend on secret data, since that would leak it
// through control flow.
func TestSecretBranchConditionIsRejected(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	mainFn := r.FunctionCreate(root, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := r.Functions.Get(mainFn)

	lit := intLiteral(t, r, 32, 1)
	secret := r.ExpressionCreate(hir.ExprSecret, hir.Span{}, lit)
	cond := r.ExpressionCreate(hir.ExprCompare, hir.Span{}, secret, intLiteral(t, r, 32, 0))
	r.Expressions.Get(cond).Op = hir.OpNeq

	body := r.BlockCreate(hir.StatementBlock, arena.NoHandle, main.Body)
	r.StatementCreate(main.Body, hir.StmtIf, cond, body, hir.Line{})

	sink := diagnostics.NewSink()
	mainSig, _ := r.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	mustRun(t, r, sink, mainSig, hir.Scopes{Root: root})

	if !sink.HasErrors() {
		t.Fatal("expected a secret-misuse diagnostic")
	}
	for _, d := range sink.Diagnostics() {
		if d.Kind != diagnostics.KindSecretMisuse {
			t.Fatalf("unexpected diagnostic kind %v", d.Kind)
		}
	}
}

// Assigning null(Tree) and then Tree() to the same variable refines its
// Datatype from the non-concrete Null placeholder to the constructor's
// concrete Class type (spec.md §4.6.3's null-propagation scenario, §8
// scenario 3), reusing the Signature the Tree() call already minted.
func TestNullAssignmentRefinesToConstructorClass(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	tmpl := r.TemplateCreate(root, "Tree", 32, hir.NotBuiltin, hir.Span{})

	mainFn := r.FunctionCreate(root, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := r.Functions.Get(mainFn)
	r.VariableCreate(main.Body, "t", hir.VarLocal)

	nullExpr := r.ExpressionCreate(hir.ExprLiteral, hir.Span{})
	r.SetLiteral(nullExpr, binder.NullLiteral{Template: tmpl})
	lhs1 := r.ExpressionCreate(hir.ExprIdent, hir.Span{})
	r.SetName(lhs1, "t")
	assign1 := r.ExpressionCreate(hir.ExprBinary, hir.Span{}, lhs1, nullExpr)
	r.Expressions.Get(assign1).Op = hir.OpAssign
	r.StatementCreate(main.Body, hir.StmtAssign, assign1, arena.NoHandle, hir.Line{})

	calleeIdent := r.ExpressionCreate(hir.ExprIdent, hir.Span{})
	r.SetName(calleeIdent, "Tree")
	ctorCall := r.ExpressionCreate(hir.ExprCall, hir.Span{}, calleeIdent)
	lhs2 := r.ExpressionCreate(hir.ExprIdent, hir.Span{})
	r.SetName(lhs2, "t")
	assign2 := r.ExpressionCreate(hir.ExprBinary, hir.Span{}, lhs2, ctorCall)
	r.Expressions.Get(assign2).Op = hir.OpAssign
	r.StatementCreate(main.Body, hir.StmtAssign, assign2, arena.NoHandle, hir.Line{})

	sink := diagnostics.NewSink()
	mainSig, _ := r.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	mustRun(t, r, sink, mainSig, hir.Scopes{Root: root})

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}

	ctorFn := r.Templates.Get(tmpl).Constructor
	ctorSig, created := r.FindOrCreateSignature(ctorFn, nil, arena.NoHandle, arena.NoHandle)
	if created {
		t.Fatal("expected Tree's zero-argument constructor signature to already exist from binding")
	}
	want := r.Signatures.Get(ctorSig).ReturnType
	if !r.Types.Get(want).Concrete() {
		t.Fatal("expected the constructor's return type to be concrete")
	}

	var v hir.VariableID
	r.Blocks.Get(main.Body).Variables.Each(func(h arena.Handle) {
		if r.Variables.Get(h).Name == "t" {
			v = h
		}
	})
	if r.Variables.Get(v).Datatype != want {
		t.Fatal("expected the variable to refine to the constructor's class type")
	}
}

// `a mod b` resolves to Modint(width, modulus) once both operands are
// concrete (spec.md §6 item 1's Open-Question resolution).
func TestModResolvesToModintType(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	mainFn := r.FunctionCreate(root, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := r.Functions.Get(mainFn)

	a := intLiteral(t, r, 8, 10)
	b := intLiteral(t, r, 8, 3)
	modExpr := r.ExpressionCreate(hir.ExprBinary, hir.Span{}, a, b)
	r.Expressions.Get(modExpr).Op = hir.OpMod
	r.StatementCreate(main.Body, hir.StmtReturn, modExpr, arena.NoHandle, hir.Line{})

	sink := diagnostics.NewSink()
	mainSig, _ := r.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	mustRun(t, r, sink, mainSig, hir.Scopes{Root: root})

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	want := r.Types.ModintType(8, 3)
	if r.Expressions.Get(modExpr).Datatype != want {
		t.Fatalf("expected mod expression to carry Modint(8,3), got %v", r.Types.Get(r.Expressions.Get(modExpr).Datatype))
	}
}

// A literal zero right operand to `mod` is mod-by-zero in constant folding
// (spec.md §7).
func TestModByZeroIsRejected(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	mainFn := r.FunctionCreate(root, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := r.Functions.Get(mainFn)

	a := intLiteral(t, r, 8, 10)
	b := intLiteral(t, r, 8, 0)
	modExpr := r.ExpressionCreate(hir.ExprBinary, hir.Span{}, a, b)
	r.Expressions.Get(modExpr).Op = hir.OpMod
	r.StatementCreate(main.Body, hir.StmtReturn, modExpr, arena.NoHandle, hir.Line{})

	sink := diagnostics.NewSink()
	mainSig, _ := r.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	mustRun(t, r, sink, mainSig, hir.Scopes{Root: root})

	if !sink.HasErrors() {
		t.Fatal("expected a mod-by-zero diagnostic")
	}
	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diagnostics.KindModByZero {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected KindModByZero, got %v", sink.Diagnostics())
	}
}

// `!+` constant-folds through internal/bigint.AddTruncating and wraps
// silently instead of raising the checked operator's overflow diagnostic.
func TestAddTruncatingFoldsAndWrapsSilently(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	mainFn := r.FunctionCreate(root, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := r.Functions.Get(mainFn)

	a := intLiteral(t, r, 8, 200)
	b := intLiteral(t, r, 8, 100)
	addExpr := r.ExpressionCreate(hir.ExprBinary, hir.Span{}, a, b)
	r.Expressions.Get(addExpr).Op = hir.OpAddTruncating
	r.StatementCreate(main.Body, hir.StmtReturn, addExpr, arena.NoHandle, hir.Line{})

	sink := diagnostics.NewSink()
	mainSig, _ := r.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	mustRun(t, r, sink, mainSig, hir.Scopes{Root: root})

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	folded, ok := r.Expressions.Get(addExpr).Literal.(*bigint.Int)
	if !ok {
		t.Fatal("expected the truncating add to fold to a literal")
	}
	if folded.Uint64() != (200+100)%256 {
		t.Fatalf("expected wrapped value %d, got %d", (200+100)%256, folded.Uint64())
	}
}

// A checked `+` over two literals that overflow the operand width is
// reported as KindLiteralOverflow rather than silently folded.
func TestLiteralOverflowIsReportedDuringBinding(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	mainFn := r.FunctionCreate(root, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := r.Functions.Get(mainFn)

	a := intLiteral(t, r, 8, 100)
	b := intLiteral(t, r, 8, 100)
	addExpr := r.ExpressionCreate(hir.ExprBinary, hir.Span{}, a, b)
	r.Expressions.Get(addExpr).Op = hir.OpAdd
	r.StatementCreate(main.Body, hir.StmtReturn, addExpr, arena.NoHandle, hir.Line{})

	sink := diagnostics.NewSink()
	mainSig, _ := r.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	mustRun(t, r, sink, mainSig, hir.Scopes{Root: root})

	if !sink.HasErrors() {
		t.Fatal("expected a literal-overflow diagnostic for 100+100 in 8-bit signed")
	}
	found := false
	for _, d := range sink.Diagnostics() {
		if d.Kind == diagnostics.KindLiteralOverflow {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected KindLiteralOverflow, got %v", sink.Diagnostics())
	}
}

// A diagnostic raised while binding a callee's body carries the calling
// Signature's name as a stack frame (spec.md §7's ASCII call-chain trace).
func TestDiagnosticCarriesCallerStackTrace(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)

	helperFn := r.FunctionCreate(root, "helper", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	helper := r.Functions.Get(helperFn)
	ghost := r.ExpressionCreate(hir.ExprIdent, hir.Span{})
	r.SetName(ghost, "ghost")
	r.StatementCreate(helper.Body, hir.StmtAssign, ghost, arena.NoHandle, hir.Line{})

	mainFn := r.FunctionCreate(root, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := r.Functions.Get(mainFn)
	calleeIdent := r.ExpressionCreate(hir.ExprIdent, hir.Span{})
	r.SetName(calleeIdent, "helper")
	call := r.ExpressionCreate(hir.ExprCall, hir.Span{}, calleeIdent)
	r.StatementCreate(main.Body, hir.StmtCall, call, arena.NoHandle, hir.Line{})

	sink := diagnostics.NewSink()
	mainSig, _ := r.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	mustRun(t, r, sink, mainSig, hir.Scopes{Root: root})

	if !sink.HasErrors() {
		t.Fatal("expected an undefined-identifier diagnostic from helper's body")
	}
	var found *diagnostics.Diagnostic
	for _, d := range sink.Diagnostics() {
		if d.Kind == diagnostics.KindUndefinedIdent {
			found = d
		}
	}
	if found == nil {
		t.Fatalf("expected KindUndefinedIdent, got %v", sink.Diagnostics())
	}
	if len(found.Stack) == 0 {
		t.Fatal("expected the diagnostic to carry main's call-chain stack frame")
	}
	if found.Stack[0].FuncName != "main" {
		t.Fatalf("expected the innermost stack frame to name main, got %q", found.Stack[0].FuncName)
	}
}

// A `relation` statement dispatches to internal/transform, splicing
// accessor functions into the parent template's constructor (spec.md
// §4.6.5/§4.8).
func TestRelationStatementDispatchesTransformer(t *testing.T) {
	r := hir.Start()
	defer r.Stop()

	root := r.BlockCreate(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)
	parent := r.TemplateCreate(root, "Graph", 32, hir.NotBuiltin, hir.Span{})
	child := r.TemplateCreate(root, "Node", 32, hir.NotBuiltin, hir.Span{})
	relID := r.RelationCreate(parent, child, hir.TransformDoublyLinked, "Graph", "Node", true)

	mainFn := r.FunctionCreate(root, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := r.Functions.Get(mainFn)
	stmt := r.StatementCreate(main.Body, hir.StmtRelation, arena.NoHandle, arena.NoHandle, hir.Line{})
	r.SetTargetRelation(stmt, relID)

	sink := diagnostics.NewSink()
	mainSig, _ := r.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	mustRun(t, r, sink, mainSig, hir.Scopes{Root: root})

	if sink.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", sink.Diagnostics())
	}
	if r.Relations.Get(relID).GeneratedFunctions.Len() == 0 {
		t.Fatal("expected the relation statement to have triggered transformer accessor generation")
	}
}
