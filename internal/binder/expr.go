package binder

import (
	"fmt"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/bigint"
	"github.com/google/rune-sub002/internal/datatype"
	"github.com/google/rune-sub002/internal/diagnostics"
	"github.com/google/rune-sub002/internal/hir"
)

// NullLiteral marks an ExprLiteral node as the `null(T)` expression of
// spec.md §4.6.3: a non-concrete placeholder datatype that stays
// unresolved until the variable it's assigned to later acquires a
// concrete one.
type NullLiteral struct {
	Template hir.TemplateID
}

// bindExpr computes and commits expr's Datatype, recursing into its
// children first. Re-running bindExpr on an already-bound tree is
// idempotent — every factory it calls (Datatype/Signature/Class interning)
// is hash-consed — so a blocked attempt is simply retried from the top
// the next time its dependency becomes ready, rather than resuming
// mid-tree.
func (e *Engine) bindExpr(exprID hir.ExpressionID, ctx bindCtx) *blockInfo {
	if exprID == arena.NoHandle {
		return nil
	}
	expr := e.root.Expressions.Get(exprID)
	diagnostics.Assert(expr != nil, hir.Span{}, "bindExpr: dangling expression handle %d", exprID)

	switch expr.Kind {
	case hir.ExprLiteral:
		e.root.SetDatatype(exprID, e.literalType(expr))
		return nil

	case hir.ExprIdent:
		return e.bindIdent(exprID, expr, ctx)

	case hir.ExprDot, hir.ExprPath:
		return e.bindDotted(exprID, expr, ctx)

	case hir.ExprBinary:
		if expr.Op == hir.OpAssign {
			return e.bindAssignExpr(exprID, expr, ctx)
		}
		return e.bindBinary(exprID, expr, ctx)

	case hir.ExprCompare:
		return e.bindCompare(exprID, expr, ctx)

	case hir.ExprUnary, hir.ExprNullSafety:
		if b := e.bindChildren(expr, ctx); b != nil {
			return b
		}
		e.root.SetDatatype(exprID, e.root.Expressions.Get(expr.Children[0]).Datatype)
		return nil

	case hir.ExprCast, hir.ExprCastTruncated:
		return e.bindCast(exprID, expr, ctx)

	case hir.ExprSecret:
		if b := e.bindChildren(expr, ctx); b != nil {
			return b
		}
		inner := e.root.Expressions.Get(expr.Children[0]).Datatype
		e.root.SetDatatype(exprID, e.root.Types.SetSecret(inner, true))
		return nil

	case hir.ExprReveal:
		if b := e.bindChildren(expr, ctx); b != nil {
			return b
		}
		inner := e.root.Expressions.Get(expr.Children[0]).Datatype
		e.root.SetDatatype(exprID, e.root.Types.SetSecret(inner, false))
		return nil

	case hir.ExprCall:
		return e.bindCall(exprID, expr, ctx)

	case hir.ExprTupleBuilder:
		if b := e.bindChildren(expr, ctx); b != nil {
			return b
		}
		elems := make([]datatype.ID, len(expr.Children))
		for i, c := range expr.Children {
			elems[i] = e.root.Expressions.Get(c).Datatype
		}
		e.root.SetDatatype(exprID, e.root.Types.TupleType(elems...))
		return nil

	case hir.ExprArrayBuilder:
		if b := e.bindChildren(expr, ctx); b != nil {
			return b
		}
		var elem datatype.ID
		if len(expr.Children) > 0 {
			elem = e.root.Expressions.Get(expr.Children[0]).Datatype
		}
		e.root.SetDatatype(exprID, e.root.Types.ArrayType(elem))
		return nil

	case hir.ExprStructBuilder:
		if b := e.bindChildren(expr, ctx); b != nil {
			return b
		}
		fields := make([]datatype.ID, len(expr.Children))
		for i, c := range expr.Children {
			fields[i] = e.root.Expressions.Get(c).Datatype
		}
		e.root.SetDatatype(exprID, e.root.Types.StructType(expr.Name, fields...))
		return nil

	case hir.ExprIndex, hir.ExprSlice:
		if b := e.bindChildren(expr, ctx); b != nil {
			return b
		}
		base := e.root.Types.Get(e.root.Expressions.Get(expr.Children[0]).Datatype)
		if base.Tag == datatype.Array {
			e.root.SetDatatype(exprID, base.Element)
		} else {
			e.root.SetDatatype(exprID, e.root.Types.NoneType())
		}
		if len(expr.Children) > 1 {
			idx := e.root.Expressions.Get(expr.Children[1])
			if e.root.Types.Get(idx.Datatype).Secret {
				e.reportSecret(ctx, exprID, diagnostics.CategoryRuntimeSemantics, "secret value used as an array index")
			}
		}
		return nil

	case hir.ExprIsNull, hir.ExprNotNull:
		if b := e.bindChildren(expr, ctx); b != nil {
			return b
		}
		e.root.SetDatatype(exprID, e.root.Types.BoolType())
		return nil

	default:
		// Type-denoting/reflective expressions (ExprTypeof, ExprWidthof,
		// ExprArrayof, ExprUnsigned, ExprSigned, ExprUintType, ExprIntType,
		// ExprFloatType, ExprStringType, ExprBoolType, ExprTypeIndex,
		// ExprNamedParam) carry no runtime value; Expr is the placeholder
		// datatype so they still flow through generic positions like
		// typeswitch cases.
		e.root.SetDatatype(exprID, e.root.Types.ExprType())
		return nil
	}
}

func (e *Engine) bindChildren(expr *hir.Expression, ctx bindCtx) *blockInfo {
	for _, c := range expr.Children {
		if b := e.bindExpr(c, ctx); b != nil {
			return b
		}
	}
	return nil
}

func (e *Engine) literalType(expr *hir.Expression) datatype.ID {
	switch v := expr.Literal.(type) {
	case *bigint.Int:
		if v.Signed() {
			return e.root.Types.SetSecret(e.root.Types.IntType(v.Width()), v.Secret())
		}
		return e.root.Types.SetSecret(e.root.Types.UintType(v.Width()), v.Secret())
	case string:
		return e.root.Types.StringType(false)
	case bool:
		return e.root.Types.BoolType()
	case NullLiteral:
		return e.root.Types.NullType(v.Template)
	default:
		return e.root.Types.NoneType()
	}
}

func (e *Engine) bindIdent(exprID hir.ExpressionID, expr *hir.Expression, ctx bindCtx) *blockInfo {
	ident, ok := e.resolveLocal(ctx.block, ctx.scopes, expr.Name)
	if !ok {
		e.report(ctx, diagnostics.CategoryNameResolution, diagnostics.KindUndefinedIdent,
			fmt.Sprintf("undefined identifier %q", expr.Name), expr.Span)
		e.root.SetDatatype(exprID, e.root.Types.NoneType())
		return nil
	}
	return e.bindIdentRef(exprID, ident)
}

func (e *Engine) bindDotted(exprID hir.ExpressionID, expr *hir.Expression, ctx bindCtx) *blockInfo {
	ident, ok := e.root.ResolveDotted(ctx.scopes, expr.Name)
	if !ok {
		e.report(ctx, diagnostics.CategoryNameResolution, diagnostics.KindUndefinedIdent,
			fmt.Sprintf("undefined path %q", expr.Name), expr.Span)
		e.root.SetDatatype(exprID, e.root.Types.NoneType())
		return nil
	}
	return e.bindIdentRef(exprID, ident)
}

func (e *Engine) bindIdentRef(exprID hir.ExpressionID, ident hir.IdentID) *blockInfo {
	i := e.root.Idents.Get(ident)
	if i.Kind == hir.IdentUndefined {
		return &blockInfo{kind: blockOnIdent, event: i.Event}
	}
	e.root.AddIdentRef(exprID, ident)
	switch i.Kind {
	case hir.IdentVariable:
		v := e.root.Variables.Get(i.Target)
		if v.Datatype == arena.NoHandle {
			return &blockInfo{kind: blockOnVar}
		}
		e.root.SetDatatype(exprID, v.Datatype)
	case hir.IdentFunction:
		e.root.SetDatatype(exprID, e.root.Types.FunctionType(i.Target))
	}
	return nil
}

// bindBinary dispatches on expr.Op: `mod` carries its own concrete-operand
// and Modint-result rule (bindMod), the rest require identical concrete
// operand types (spec.md §4.6.4) with a secret operand tainting the result
// even if the other is public. A pair of literal operands is additionally
// constant-folded through internal/bigint, surfacing literal overflow as a
// spec.md §7 runtime-semantics-at-compile-time error.
func (e *Engine) bindBinary(exprID hir.ExpressionID, expr *hir.Expression, ctx bindCtx) *blockInfo {
	if b := e.bindChildren(expr, ctx); b != nil {
		return b
	}
	if expr.Op == hir.OpMod {
		return e.bindMod(ctx, exprID, expr)
	}
	return e.bindArith(ctx, exprID, expr)
}

func (e *Engine) bindArith(ctx bindCtx, exprID hir.ExpressionID, expr *hir.Expression) *blockInfo {
	lt := e.root.Expressions.Get(expr.Children[0]).Datatype
	rt := e.root.Expressions.Get(expr.Children[1]).Datatype
	ld, rd := e.root.Types.Get(lt), e.root.Types.Get(rt)
	if ld.Tag != rd.Tag || ld.Width != rd.Width {
		e.report(ctx, diagnostics.CategoryType, diagnostics.KindSizeMismatch,
			"arithmetic operands must share an identical concrete type", expr.Span)
		e.root.SetDatatype(exprID, lt)
		return nil
	}
	result := lt
	if rd.Secret && !ld.Secret {
		result = e.root.Types.SetSecret(result, true)
	}
	e.root.SetDatatype(exprID, result)
	e.foldArith(ctx, exprID, expr)
	return nil
}

// foldArith constant-folds exprID's Literal when both operands are literal
// integers and expr.Op names a checked or truncating arithmetic operator,
// exercising internal/bigint's Add/Sub/Mul/AddTruncating/SubTruncating/
// MulTruncating. A checked overflow is reported as KindLiteralOverflow
// (spec.md §7); the truncating variants never fail.
func (e *Engine) foldArith(ctx bindCtx, exprID hir.ExpressionID, expr *hir.Expression) {
	lhs := e.root.Expressions.Get(expr.Children[0])
	rhs := e.root.Expressions.Get(expr.Children[1])
	a, aok := lhs.Literal.(*bigint.Int)
	b, bok := rhs.Literal.(*bigint.Int)
	if !aok || !bok {
		return
	}

	var out *bigint.Int
	var err error
	switch expr.Op {
	case hir.OpAdd:
		out, err = a.Add(b)
	case hir.OpSub:
		out, err = a.Sub(b)
	case hir.OpMul:
		out, err = a.Mul(b)
	case hir.OpAddTruncating:
		out, err = a.AddTruncating(b)
	case hir.OpSubTruncating:
		out, err = a.SubTruncating(b)
	case hir.OpMulTruncating:
		out, err = a.MulTruncating(b)
	default:
		return
	}
	if _, overflow := err.(*bigint.ErrOverflow); overflow {
		e.report(ctx, diagnostics.CategoryRuntimeSemantics, diagnostics.KindLiteralOverflow, err.Error(), expr.Span)
		return
	}
	if err != nil || out == nil {
		return
	}
	e.root.SetLiteral(exprID, out)
}

// bindMod implements `a mod b`'s Open-Question resolution: a's Datatype
// must already be concrete (Uint/Int/Modint); the result carries
// Modint(width, modulus), with the modulus taken from a Modint-typed right
// operand or, failing that, a compile-time-constant literal right operand.
// A literal zero modulus is mod-by-zero in constant folding (spec.md §7).
func (e *Engine) bindMod(ctx bindCtx, exprID hir.ExpressionID, expr *hir.Expression) *blockInfo {
	lt := e.root.Expressions.Get(expr.Children[0]).Datatype
	rt := e.root.Expressions.Get(expr.Children[1]).Datatype
	ld, rd := e.root.Types.Get(lt), e.root.Types.Get(rt)

	if !ld.Concrete() || (ld.Tag != datatype.Uint && ld.Tag != datatype.Int && ld.Tag != datatype.Modint) {
		e.report(ctx, diagnostics.CategoryType, diagnostics.KindNonConcreteType,
			"left operand of mod must have a concrete integer type", expr.Span)
		e.root.SetDatatype(exprID, lt)
		return nil
	}

	width := ld.Width
	var modulus uint64
	if rd.Tag == datatype.Modint {
		modulus = rd.Modulus
	} else {
		rhsExpr := e.root.Expressions.Get(expr.Children[1])
		lit, ok := rhsExpr.Literal.(*bigint.Int)
		if !ok {
			e.report(ctx, diagnostics.CategoryType, diagnostics.KindNonConcreteType,
				"right operand of mod must be a Modint value or a compile-time-constant literal", expr.Span)
			e.root.SetDatatype(exprID, lt)
			return nil
		}
		modulus = lit.Uint64()
	}
	if modulus == 0 {
		e.report(ctx, diagnostics.CategoryRuntimeSemantics, diagnostics.KindModByZero,
			"mod by zero in constant folding", expr.Span)
		e.root.SetDatatype(exprID, lt)
		return nil
	}

	result := e.root.Types.ModintType(width, modulus)
	if ld.Secret || rd.Secret {
		result = e.root.Types.SetSecret(result, true)
	}
	e.root.SetDatatype(exprID, result)
	return nil
}

func (e *Engine) bindCompare(exprID hir.ExpressionID, expr *hir.Expression, ctx bindCtx) *blockInfo {
	if b := e.bindChildren(expr, ctx); b != nil {
		return b
	}
	lt := e.root.Expressions.Get(expr.Children[0]).Datatype
	rt := e.root.Expressions.Get(expr.Children[1]).Datatype
	secret := e.root.Types.Get(lt).Secret || e.root.Types.Get(rt).Secret
	e.root.SetDatatype(exprID, e.root.Types.SetSecret(e.root.Types.BoolType(), secret))
	return nil
}

// bindCast binds the source operand; the target type is syntactic (set by
// the builder via SetDatatype before the binder ever sees the node), so it
// only needs a fallback when the builder left it unset.
func (e *Engine) bindCast(exprID hir.ExpressionID, expr *hir.Expression, ctx bindCtx) *blockInfo {
	if len(expr.Children) == 0 {
		e.root.SetDatatype(exprID, e.root.Types.NoneType())
		return nil
	}
	if b := e.bindExpr(expr.Children[0], ctx); b != nil {
		return b
	}
	if expr.Datatype == arena.NoHandle {
		e.root.SetDatatype(exprID, e.root.Expressions.Get(expr.Children[0]).Datatype)
	}
	return nil
}

// bindAssignExpr binds an assignment's carrier expression (`lhs = rhs`,
// spec.md §3.1's StmtAssign): the rhs type flows onto the lhs identifier
// expression and, when the lhs names a plain variable, onto the Variable
// itself via assignVariable's null-refinement rule.
func (e *Engine) bindAssignExpr(exprID hir.ExpressionID, expr *hir.Expression, ctx bindCtx) *blockInfo {
	rhs := expr.Children[1]
	if b := e.bindExpr(rhs, ctx); b != nil {
		return b
	}
	rhsType := e.root.Expressions.Get(rhs).Datatype

	lhs := e.root.Expressions.Get(expr.Children[0])
	if lhs.Kind == hir.ExprIdent {
		ident, ok := e.resolveLocal(ctx.block, ctx.scopes, lhs.Name)
		if !ok {
			e.report(ctx, diagnostics.CategoryNameResolution, diagnostics.KindUndefinedIdent,
				fmt.Sprintf("undefined identifier %q", lhs.Name), lhs.Span)
		} else if i := e.root.Idents.Get(ident); i.Kind == hir.IdentVariable {
			e.assignVariable(ctx, i.Target, rhsType)
		}
	}
	e.root.SetDatatype(expr.Children[0], rhsType)
	e.root.SetDatatype(exprID, rhsType)
	return nil
}

// bindCall resolves the callee, binds every argument, then finds-or-
// creates the (Function, argument-types) Signature (spec.md §4.6.3). A
// freshly created Signature is queued for its own body binding; either
// way the call blocks on that Signature's return-type Event until known —
// immediately, for a Constructor, since uniquify resolves it right away.
func (e *Engine) bindCall(exprID hir.ExpressionID, expr *hir.Expression, ctx bindCtx) *blockInfo {
	if len(expr.Children) == 0 {
		e.root.SetDatatype(exprID, e.root.Types.NoneType())
		return nil
	}
	callee := expr.Children[0]
	calleeExpr := e.root.Expressions.Get(callee)

	var ident hir.IdentID
	var ok bool
	switch calleeExpr.Kind {
	case hir.ExprIdent:
		ident, ok = e.resolveLocal(ctx.block, ctx.scopes, calleeExpr.Name)
	case hir.ExprDot, hir.ExprPath:
		ident, ok = e.root.ResolveDotted(ctx.scopes, calleeExpr.Name)
	}
	if !ok {
		e.report(ctx, diagnostics.CategoryNameResolution, diagnostics.KindUndefinedIdent,
			fmt.Sprintf("call to undefined function %q", calleeExpr.Name), expr.Span)
		e.root.SetDatatype(exprID, e.root.Types.NoneType())
		return nil
	}
	i := e.root.Idents.Get(ident)
	if i.Kind == hir.IdentUndefined {
		return &blockInfo{kind: blockOnIdent, event: i.Event}
	}
	if i.Kind != hir.IdentFunction {
		e.report(ctx, diagnostics.CategoryType, diagnostics.KindNonConcreteType,
			"call target is not a function", expr.Span)
		e.root.SetDatatype(exprID, e.root.Types.NoneType())
		return nil
	}
	fnID := i.Target

	args := expr.Children[1:]
	argTypes := make([]datatype.ID, len(args))
	for idx, a := range args {
		if b := e.bindExpr(a, ctx); b != nil {
			return b
		}
		argTypes[idx] = e.root.Expressions.Get(a).Datatype
	}

	calleeSig, created := e.root.FindOrCreateSignature(fnID, argTypes, arena.NoHandle, ctx.sig)
	if created {
		e.enqueueSignature(calleeSig, e.scopesFor(ident))
	}

	csig := e.root.Signatures.Get(calleeSig)
	if csig.ReturnType == arena.NoHandle {
		return &blockInfo{kind: blockOnSig, event: e.sigEventFor(calleeSig)}
	}
	e.root.SetDatatype(exprID, csig.ReturnType)
	return nil
}
