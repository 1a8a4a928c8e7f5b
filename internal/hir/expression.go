package hir

import "github.com/google/rune-sub002/internal/datatype"

// ExprKind enumerates spec.md §4.7's ~90 expression tags. Only the tags
// load-bearing for the binder's structural inference rules and the
// end-to-end scenarios of spec.md §8 are named individually; the
// remaining arithmetic/bitwise/shift/rotate variants share ExprBinary with
// a BinaryOp discriminator to avoid an unmanageable flat enum, the same
// compression the teacher's own HIRBinaryExpression/HIRUnaryExpression
// split uses (internal/hir/nodes.go).
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprBinary
	ExprUnary
	ExprCompare
	ExprNullSafety   // `?.`/coalescing wrapping
	ExprCast
	ExprCastTruncated
	ExprCall
	ExprIndex
	ExprSlice
	ExprSecret
	ExprReveal
	ExprTupleBuilder
	ExprStructBuilder
	ExprArrayBuilder
	ExprPath
	ExprIdent
	ExprDot
	ExprTypeof
	ExprWidthof
	ExprArrayof
	ExprUnsigned
	ExprSigned
	ExprIsNull
	ExprNotNull
	ExprUintType
	ExprIntType
	ExprFloatType
	ExprStringType
	ExprBoolType
	ExprTypeIndex
	ExprNamedParam
)

// BinaryOp discriminates ExprBinary/ExprCompare nodes.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpAddTruncating
	OpSub
	OpSubTruncating
	OpMul
	OpMulTruncating
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpRotl
	OpRotr
	OpLogicalAnd
	OpLogicalOr
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAssign // lhs/rhs Children of a StmtAssign's carrier Expression
)

// Expression is an n-ary tree keyed by ExprKind. Every Expression
// eventually carries a Datatype (spec.md §3.1). Identifier expressions
// track back-references to every Ident they resolve to.
type Expression struct {
	ID       ExpressionID
	Kind     ExprKind
	Op       BinaryOp
	Children []ExpressionID
	Datatype datatype.ID // arena.NoHandle until bound
	Literal  interface{} // *bigint.Int, string, bool, depending on Kind
	Name     string      // ExprIdent/ExprDot/ExprPath symbol text
	IdentRefs []IdentID
	Span     Span
}

// ExpressionCreate is spec.md §4.4's expression-builder operation: it
// allocates a node and splices in the given children.
func (r *Root) ExpressionCreate(kind ExprKind, span Span, children ...ExpressionID) ExpressionID {
	e := &Expression{Kind: kind, Span: span, Children: append([]ExpressionID(nil), children...)}
	id := r.Expressions.New(e)
	e.ID = id
	return id
}

// SetLiteral attaches a literal value (a *bigint.Int, string, or bool,
// depending on expr's Kind) to an ExprLiteral node. Builder-facing: the
// parser calls this right after ExpressionCreate(ExprLiteral, ...).
func (r *Root) SetLiteral(expr ExpressionID, value interface{}) {
	r.Expressions.Get(expr).Literal = value
}

// SetName attaches the symbol text of an ExprIdent/ExprDot/ExprPath node.
func (r *Root) SetName(expr ExpressionID, name string) {
	r.Expressions.Get(expr).Name = name
}

// AddIdentRef records that expr resolved to ident, one of possibly
// several back-references an identifier expression tracks (spec.md §3.1).
func (r *Root) AddIdentRef(expr ExpressionID, ident IdentID) {
	e := r.Expressions.Get(expr)
	e.IdentRefs = append(e.IdentRefs, ident)
}

// SetDatatype records the inferred/refined type of expr. Re-calling it
// (e.g. to refine a Null-typed expression once its variable's concrete
// class is known, spec.md §4.6.3) overwrites the previous value; callers
// are responsible for re-queuing any Binding that depended on the old
// type.
func (r *Root) SetDatatype(expr ExpressionID, dt datatype.ID) {
	r.Expressions.Get(expr).Datatype = dt
}
