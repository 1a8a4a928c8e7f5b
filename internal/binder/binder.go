// Package binder implements the cooperative fixpoint engine of spec.md
// §4.6: a ready queue of whole-signature-body bindings and a blocked set
// keyed by what each waits on (an identifier becoming defined, a callee's
// return type becoming known, or any variable anywhere being freshly
// assigned). The engine drives type inference, per-signature template
// instantiation, secret-taint propagation, transformer dispatch, and
// (indirectly, by leaving the HIR in a consistent state) the
// internal/verify passes that run once binding reaches a fixpoint.
//
// A Binding in spec.md §4.6.1 is, here, folded into one recursive walk of
// a Signature's entire uniquified body rather than a separate queue entry
// per expression node: every HIR factory this package calls (Datatype,
// Signature, Class interning) is hash-consed, so re-walking a body from
// the top after a suspend is idempotent and always reaches the same
// fixpoint a finer-grained node-at-a-time scheduler would.
package binder

import (
	"fmt"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/datatype"
	"github.com/google/rune-sub002/internal/diagnostics"
	"github.com/google/rune-sub002/internal/hir"
)

// returnState threads the first return type discovered while walking a
// signature's body back up to Engine.step, which uses it to fire that
// signature's return-type Event.
type returnState struct {
	typ datatype.ID
	has bool
}

// bindCtx bundles the three things every recursive bind call needs: which
// Signature a node is being bound under, its three concentric lookup
// scopes (spec.md §4.5), and the innermost Block currently in scope for
// local-variable/parameter resolution (which sits below Scopes.Class/
// Module/Root — those three only cover class/module/global lookup).
type bindCtx struct {
	sig    hir.SignatureID
	scopes hir.Scopes
	block  hir.BlockID
}

type workItem struct {
	sig    hir.SignatureID
	scopes hir.Scopes
}

type blockKind int

const (
	blockOnIdent blockKind = iota + 1
	blockOnSig
	blockOnVar
)

// blockInfo reports which Event (or, for variables, which coarse class of
// assignment) a partially-processed node is waiting on.
type blockInfo struct {
	kind  blockKind
	event hir.EventID
}

// Engine is the process-wide binder state for one compilation.
type Engine struct {
	root *hir.Root
	sink *diagnostics.Sink

	items *arena.Pool[*workItem]
	ready []arena.Handle

	blockedIdent map[arena.Handle]hir.EventID
	blockedSig   map[arena.Handle]hir.EventID
	blockedVar   map[arena.Handle]bool

	sigEvents map[hir.SignatureID]hir.EventID

	globalRoot hir.BlockID
}

// New returns a ready-to-run Engine that reports diagnostics to sink.
func New(root *hir.Root, sink *diagnostics.Sink) *Engine {
	return &Engine{
		root:         root,
		sink:         sink,
		items:        arena.NewPool[*workItem](),
		blockedIdent: map[arena.Handle]hir.EventID{},
		blockedSig:   map[arena.Handle]hir.EventID{},
		blockedVar:   map[arena.Handle]bool{},
		sigEvents:    map[hir.SignatureID]hir.EventID{},
	}
}

// Run drives every entry Signature (the main function, every exported
// entry point) to a fixpoint. Once the ready queue empties, anything
// still in the blocked set is a genuine undefined-name or unresolved-type
// error (spec.md §4.6.2 step 5) and is reported to the Engine's sink.
//
// Cancellation is global, per spec.md §5: an internal-invariant violation
// anywhere in the walk panics with a *diagnostics.Diagnostic (see
// diagnostics.Assert), which this function's recover turns into an error
// return instead of propagating further up the compiler.
func (e *Engine) Run(entry []hir.SignatureID, rootScopes hir.Scopes) (err error) {
	e.globalRoot = rootScopes.Root

	defer func() {
		if rec := recover(); rec != nil {
			d, ok := rec.(*diagnostics.Diagnostic)
			if !ok {
				panic(rec)
			}
			e.sink.Report(d)
			err = fmt.Errorf("binder: %s", d.Error())
		}
	}()

	for _, sig := range entry {
		e.enqueueSignature(sig, rootScopes)
	}
	for len(e.ready) > 0 {
		h := e.ready[0]
		e.ready = e.ready[1:]
		e.step(h)
	}
	e.reportStuck()
	return nil
}

// step binds one whole-body work item. If it blocks, the item stays alive
// in the appropriate blocked set; otherwise its Signature's return type is
// finalized (as None if the body never returned) and the item is freed.
func (e *Engine) step(h arena.Handle) {
	item := e.items.Get(h)
	sig := e.root.Signatures.Get(item.sig)
	fn := e.root.Functions.Get(sig.Uniquified)
	diagnostics.Assert(fn != nil, hir.Span{}, "step: signature %d has no uniquified body", item.sig)

	ctx := bindCtx{sig: item.sig, scopes: item.scopes, block: fn.Body}
	rs := &returnState{}
	if blocked := e.bindBlock(fn.Body, ctx, rs); blocked != nil {
		e.suspend(h, blocked)
		return
	}

	if sig.ReturnType == arena.NoHandle {
		rt := e.root.Types.NoneType()
		if rs.has {
			rt = rs.typ
		}
		e.setReturnType(item.sig, rt)
	}
	e.items.Free(h)
}

func (e *Engine) suspend(h arena.Handle, b *blockInfo) {
	switch b.kind {
	case blockOnIdent:
		e.blockedIdent[h] = b.event
		e.root.Attach(b.event, h)
	case blockOnSig:
		e.blockedSig[h] = b.event
		e.root.Attach(b.event, h)
	case blockOnVar:
		e.blockedVar[h] = true
	}
}

// enqueueSignature uniquifies sig on first use (shallow-copies its
// Function's body so parameter variables can be retyped independently of
// every other call with different argument types, spec.md §4.6.3) and
// queues a whole-body binding for it.
func (e *Engine) enqueueSignature(sigID hir.SignatureID, scopes hir.Scopes) {
	sig := e.root.Signatures.Get(sigID)
	if sig.Uniquified == arena.NoHandle {
		e.uniquify(sig)
	}
	h := e.items.New(&workItem{sig: sigID, scopes: scopes})
	e.ready = append(e.ready, h)
}

// uniquify clones sig.Func's body, retypes its parameter Variables to
// sig.ParamTypes, and — for a Constructor — mints or reuses the
// corresponding Class and resolves the Signature's return type to that
// Class's datatype immediately (a constructor's "return type" is known
// the moment its parameter types are, unlike a plain function's, which
// depends on binding its body).
func (e *Engine) uniquify(sig *hir.Signature) {
	fn := e.root.Functions.Get(sig.Func)
	diagnostics.Assert(fn != nil, hir.Span{}, "uniquify: signature references unknown function")

	clone := &hir.Function{
		Name: fn.Name, Kind: fn.Kind, Linkage: fn.Linkage, Span: fn.Span,
		Template: fn.Template, Signatures: arena.NewList(),
	}
	id := e.root.Functions.New(clone)
	clone.ID = id
	clone.Body = e.root.CopyBlock(fn.Body, id, false)
	e.root.AlphaRename(clone.Body, e.declaringScope(fn))
	sig.Uniquified = id

	params := e.paramVariables(clone.Body)
	if len(params) != len(sig.ParamTypes) {
		d := diagnostics.New(diagnostics.CategoryType, diagnostics.KindSizeMismatch,
			fmt.Sprintf("call to %q supplies %d argument(s), expected %d", fn.Name, len(sig.ParamTypes), len(params)),
			fn.Span)
		d.Stack = e.stackFrames(sig.ID)
		e.sink.Report(d)
	}
	for i, v := range params {
		if i >= len(sig.ParamTypes) {
			break
		}
		vv := e.root.Variables.Get(v)
		vv.Datatype = sig.ParamTypes[i]
		vv.Instantiated = true
		sig.Paramspecs = append(sig.Paramspecs, hir.Paramspec{
			Variable: v, Datatype: sig.ParamTypes[i], Instantiated: true, InTemplateSignature: vv.InTemplateSignature,
		})
	}

	if fn.Kind == hir.FuncConstructor {
		classID, _ := e.root.FindOrCreateClass(fn.Template, sig.ParamTypes)
		sig.Class = classID
		e.setReturnType(sig.ID, e.root.Types.ClassType(classID))
	}
}

// declaringScope returns the block fn's own Ident was defined in — the
// class or module block whose lookup chain a uniquified body's local
// variables must not silently shadow (spec.md §4.4).
func (e *Engine) declaringScope(fn *hir.Function) hir.BlockID {
	if len(fn.Idents) == 0 {
		return arena.NoHandle
	}
	ident := e.root.Idents.Get(fn.Idents[0])
	if ident == nil {
		return arena.NoHandle
	}
	return ident.Block
}

func (e *Engine) paramVariables(block hir.BlockID) []hir.VariableID {
	b := e.root.Blocks.Get(block)
	var out []hir.VariableID
	b.Variables.Each(func(h arena.Handle) {
		if e.root.Variables.Get(h).Kind == hir.VarParameter {
			out = append(out, h)
		}
	})
	return out
}

// setReturnType records sig's return type once (subsequent calls no-op,
// since a Signature's return type is decided exactly once) and wakes
// every Binding blocked on its return-type Event.
func (e *Engine) setReturnType(sigID hir.SignatureID, rt datatype.ID) {
	sig := e.root.Signatures.Get(sigID)
	if sig.ReturnType != arena.NoHandle {
		return
	}
	sig.ReturnType = rt
	if event, ok := e.sigEvents[sigID]; ok {
		for _, w := range e.root.Fire(event) {
			delete(e.blockedSig, w)
			e.ready = append(e.ready, w)
		}
	}
}

func (e *Engine) sigEventFor(sigID hir.SignatureID) hir.EventID {
	if ev, ok := e.sigEvents[sigID]; ok {
		return ev
	}
	ev := e.root.NewEvent(hir.EventSignatureReturnType)
	e.sigEvents[sigID] = ev
	return ev
}

// assignVariable records v's type on first assignment. A later assignment
// only takes effect if v's current type is non-concrete (the Null(T)
// placeholder of spec.md §4.6.3's propagation rule); once concrete, a
// variable's type is fixed, and a differing later assignment is a type
// error rather than a silent overwrite. Any change wakes every Binding
// coarsely blocked on "some variable became assigned" — correct, if less
// precise than a per-variable Event, since re-binding is idempotent.
func (e *Engine) assignVariable(ctx bindCtx, varID hir.VariableID, newType datatype.ID) {
	v := e.root.Variables.Get(varID)
	if v.Datatype != arena.NoHandle {
		if e.root.Types.Get(v.Datatype).Concrete() {
			if v.Datatype != newType {
				e.report(ctx, diagnostics.CategoryType, diagnostics.KindSizeMismatch,
					fmt.Sprintf("variable %q reassigned with an incompatible type", v.Name), hir.Span{})
			}
			return
		}
		if v.Datatype == newType {
			return
		}
	}
	v.Datatype = newType
	for h := range e.blockedVar {
		delete(e.blockedVar, h)
		e.ready = append(e.ready, h)
	}
}

// stackFrames renders spec.md §7's ASCII signature-call-chain for a
// diagnostic raised while binding sigID's body: one Frame per enclosing
// call, innermost first, naming the calling function and the callsite
// within it that invoked the next signature down the chain.
func (e *Engine) stackFrames(sigID hir.SignatureID) []diagnostics.Frame {
	var frames []diagnostics.Frame
	for _, s := range e.root.StackTrace(sigID) {
		sig := e.root.Signatures.Get(s)
		if sig == nil || sig.Caller == arena.NoHandle {
			continue
		}
		caller := e.root.Signatures.Get(sig.Caller)
		if caller == nil {
			continue
		}
		var name string
		if fn := e.root.Functions.Get(caller.Func); fn != nil {
			name = fn.Name
		}
		var span hir.Span
		if stmt := e.root.Statements.Get(sig.Callsite); stmt != nil {
			span = stmt.Line.Span()
		}
		frames = append(frames, diagnostics.Frame{FuncName: name, Callsite: span})
	}
	return frames
}

// report builds a Diagnostic and attaches ctx.sig's call-chain stack trace
// (spec.md §7) before handing it to the sink.
func (e *Engine) report(ctx bindCtx, cat diagnostics.Category, kind diagnostics.Kind, msg string, span hir.Span) {
	d := diagnostics.New(cat, kind, msg, span)
	d.Stack = e.stackFrames(ctx.sig)
	e.sink.Report(d)
}

// resolveLocal looks up name in block's own Ident table, then walks up
// through enclosing STATEMENT-blocks (inner-scope shadowing, spec.md
// §3.1), then falls back to the three concentric scopes of spec.md §4.5.
func (e *Engine) resolveLocal(block hir.BlockID, scopes hir.Scopes, name string) (hir.IdentID, bool) {
	for b := block; b != arena.NoHandle; {
		if id, ok := e.root.LookupLocal(b, name); ok {
			return id, true
		}
		blk := e.root.Blocks.Get(b)
		if blk == nil || blk.Kind != hir.StatementBlock {
			break
		}
		b = blk.Parent
	}
	return e.root.ResolveBare(scopes, name)
}

// scopesFor computes the concentric scopes visible from wherever ident was
// declared: its own Class sub-block if it sits in one, its Module
// sub-block, and the process-wide Root.
func (e *Engine) scopesFor(ident hir.IdentID) hir.Scopes {
	i := e.root.Idents.Get(ident)
	block := e.root.Blocks.Get(i.Block)
	if block != nil && block.Kind == hir.ClassBlock {
		return hir.Scopes{Class: i.Block, Module: e.root.ScopeBlock(block.Parent), Root: e.globalRoot}
	}
	return hir.Scopes{Module: i.Block, Root: e.globalRoot}
}

func (e *Engine) reportSecret(ctx bindCtx, exprID hir.ExpressionID, cat diagnostics.Category, msg string) {
	span := hir.Span{}
	if ex := e.root.Expressions.Get(exprID); ex != nil {
		span = ex.Span
	}
	e.report(ctx, cat, diagnostics.KindSecretMisuse, msg, span)
}

// reportStuck is called once the ready queue empties; anything left in a
// blocked set never had its precondition satisfied.
func (e *Engine) reportStuck() {
	for h := range e.blockedIdent {
		e.reportStuckItem(h, diagnostics.CategoryNameResolution, diagnostics.KindUndefinedIdent,
			"identifier remains undefined at the end of binding")
	}
	for h := range e.blockedSig {
		e.reportStuckItem(h, diagnostics.CategoryType, diagnostics.KindNonConcreteType,
			"callee's return type could never be determined")
	}
	for h := range e.blockedVar {
		e.reportStuckItem(h, diagnostics.CategoryType, diagnostics.KindNonConcreteType,
			"variable's type could never be determined")
	}
}

// reportStuckItem attaches the stuck work item's own signature's call-chain
// stack trace, so a deadlocked binding is reported the same way spec.md §7
// requires for any other user-level error.
func (e *Engine) reportStuckItem(h arena.Handle, cat diagnostics.Category, kind diagnostics.Kind, msg string) {
	d := diagnostics.New(cat, kind, msg, hir.Span{})
	if item := e.items.Get(h); item != nil {
		d.Stack = e.stackFrames(item.sig)
	}
	e.sink.Report(d)
}
