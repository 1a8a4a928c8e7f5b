package binder

import (
	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/diagnostics"
	"github.com/google/rune-sub002/internal/hir"
	"github.com/google/rune-sub002/internal/transform"
)

// bindBlock binds every statement of block in order. A statement that
// blocks stops the walk (the remaining statements of this block are
// re-attempted from the top on the next pass, since every sub-expression
// it touched was already committed via hash-consed factories).
func (e *Engine) bindBlock(blockID hir.BlockID, ctx bindCtx, rs *returnState) *blockInfo {
	block := e.root.Blocks.Get(blockID)
	diagnostics.Assert(block != nil, hir.Span{}, "bindBlock: dangling block handle %d", blockID)

	var result *blockInfo
	block.Statements.Each(func(h arena.Handle) {
		if result != nil {
			return
		}
		result = e.bindStatement(hir.StatementID(h), ctx, rs)
	})
	return result
}

func (e *Engine) bindStatement(stmtID hir.StatementID, ctx bindCtx, rs *returnState) *blockInfo {
	s := e.root.Statements.Get(stmtID)

	switch s.Kind {
	case hir.StmtAssign, hir.StmtCall, hir.StmtYield:
		if b := e.bindExpr(s.Expr, ctx); b != nil {
			return b
		}
		s.Executed = true
		return nil

	case hir.StmtThrow:
		e.report(ctx, diagnostics.CategoryRuntimeSemantics, diagnostics.KindUnsupportedFeature,
			"exception handling (throw) is not supported", s.Line.Span())
		s.Executed = true
		return nil

	case hir.StmtPrint:
		if b := e.bindExpr(s.Expr, ctx); b != nil {
			return b
		}
		e.checkPrintSecrecy(ctx, s)
		s.Executed = true
		return nil

	case hir.StmtReturn:
		if s.Expr != arena.NoHandle {
			if b := e.bindExpr(s.Expr, ctx); b != nil {
				return b
			}
			rt := e.root.Expressions.Get(s.Expr).Datatype
			if !rs.has {
				rs.typ, rs.has = rt, true
			}
		} else if !rs.has {
			rs.typ, rs.has = e.root.Types.NoneType(), true
		}
		s.Executed = true
		return nil

	case hir.StmtIf, hir.StmtElseIf, hir.StmtWhile, hir.StmtDo, hir.StmtFor, hir.StmtForeach:
		if s.Expr != arena.NoHandle {
			if b := e.bindExpr(s.Expr, ctx); b != nil {
				return b
			}
			if e.root.Types.Get(e.root.Expressions.Get(s.Expr).Datatype).Secret {
				e.reportSecret(ctx, s.Expr, diagnostics.CategoryRuntimeSemantics, "secret value used as a branch/loop condition")
			}
		}
		s.Executed = true
		if s.Sub != arena.NoHandle {
			return e.bindBlock(s.Sub, e.descend(ctx, s.Sub), rs)
		}
		return nil

	case hir.StmtElse:
		s.Executed = true
		if s.Sub != arena.NoHandle {
			return e.bindBlock(s.Sub, e.descend(ctx, s.Sub), rs)
		}
		return nil

	case hir.StmtTypeSwitch:
		return e.bindTypeSwitch(s, ctx, rs)

	case hir.StmtCase, hir.StmtDefault:
		s.Executed = true
		if s.Sub != arena.NoHandle {
			return e.bindBlock(s.Sub, e.descend(ctx, s.Sub), rs)
		}
		return nil

	case hir.StmtRelation:
		return e.bindRelation(ctx, s)

	case hir.StmtRef, hir.StmtUnref:
		if !s.Generated {
			e.report(ctx, diagnostics.CategoryRuntimeSemantics, diagnostics.KindUnsupportedFeature,
				"ref/unref is only legal inside transformer-generated code", hir.Span{})
		}
		s.Executed = true
		return nil

	case hir.StmtTransform, hir.StmtAppendCode, hir.StmtPrependCode:
		// Transformer-internal statements: internal/transform emits them,
		// tagged Generated, inside the accessor Functions it adds to the
		// constructor of a Relation's parent Template. The binder marks
		// them Executed without binding their Sub block.
		s.Executed = true
		return nil

	case hir.StmtUse, hir.StmtImport, hir.StmtImportLib, hir.StmtImportRpc, hir.StmtSwitch:
		s.Executed = true
		return nil

	default:
		s.Executed = true
		return nil
	}
}

// bindTypeSwitch binds the switch subject, then, for each case, either
// prunes it (if its type doesn't match the subject's) or binds its body —
// spec.md §4.8's zero-overhead per-signature dispatch: pruning happens
// once per Signature, not at runtime.
func (e *Engine) bindTypeSwitch(s *hir.Statement, ctx bindCtx, rs *returnState) *blockInfo {
	if b := e.bindExpr(s.Expr, ctx); b != nil {
		return b
	}
	matched := e.root.Expressions.Get(s.Expr).Datatype
	s.Executed = true
	if s.Sub == arena.NoHandle {
		return nil
	}
	sub := e.root.Blocks.Get(s.Sub)
	subCtx := e.descend(ctx, s.Sub)

	var result *blockInfo
	sub.Statements.Each(func(h arena.Handle) {
		if result != nil {
			return
		}
		c := e.root.Statements.Get(hir.StatementID(h))
		keep := c.Kind == hir.StmtDefault
		if c.Kind == hir.StmtCase && c.Expr != arena.NoHandle {
			if b := e.bindExpr(c.Expr, subCtx); b != nil {
				result = b
				return
			}
			keep = e.root.Expressions.Get(c.Expr).Datatype == matched
		}
		c.Instantiated = keep
		if !keep {
			c.Executed = false
			return
		}
		result = e.bindStatement(hir.StatementID(h), subCtx, rs)
	})
	return result
}

// bindRelation dispatches a `relation P C ...` declaration to the named
// Transformer (spec.md §4.6.5/§4.8). Transformer execution is synchronous
// and idempotent-on-first-run only: TargetRelation is cleared after a
// successful dispatch so a re-attempted bindBlock never splices the same
// accessors twice.
func (e *Engine) bindRelation(ctx bindCtx, s *hir.Statement) *blockInfo {
	if s.TargetRelation == arena.NoHandle {
		s.Executed = true
		return nil
	}
	if err := transform.Run(e.root, s.TargetRelation); err != nil {
		e.report(ctx, diagnostics.CategoryRelation, diagnostics.KindUnsupportedFeature, err.Error(), hir.Span{})
	}
	s.TargetRelation = arena.NoHandle
	s.Executed = true
	return nil
}

func (e *Engine) checkPrintSecrecy(ctx bindCtx, s *hir.Statement) {
	expr := e.root.Expressions.Get(s.Expr)
	if expr == nil {
		return
	}
	args := []hir.ExpressionID{s.Expr}
	if expr.Kind == hir.ExprTupleBuilder {
		args = expr.Children
	}
	for _, a := range args {
		if e.root.Types.Get(e.root.Expressions.Get(a).Datatype).Secret {
			e.reportSecret(ctx, a, diagnostics.CategoryRuntimeSemantics, "secret value passed to print")
		}
	}
}

// descend updates ctx's innermost lookup block when entering a nested
// sub-block, leaving Signature/scopes/instantiating untouched.
func (e *Engine) descend(ctx bindCtx, sub hir.BlockID) bindCtx {
	ctx.block = sub
	return ctx
}
