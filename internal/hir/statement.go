package hir

// StatementKind enumerates spec.md §3.1's surface statement variants.
type StatementKind int

const (
	StmtIf StatementKind = iota
	StmtElseIf
	StmtElse
	StmtDo
	StmtWhile
	StmtFor
	StmtForeach
	StmtAssign
	StmtCall
	StmtPrint
	StmtThrow
	StmtReturn
	StmtSwitch
	StmtTypeSwitch
	StmtCase
	StmtDefault
	StmtRelation
	StmtTransform
	StmtAppendCode
	StmtPrependCode
	StmtUse
	StmtImport
	StmtImportLib
	StmtImportRpc
	StmtYield
	StmtRef
	StmtUnref
)

// Statement owns at most one Expression tree and at most one sub-Block.
type Statement struct {
	ID    StatementID
	Kind  StatementKind
	Expr  ExpressionID
	Sub   BlockID
	Line  Line

	Generated      bool
	Instantiated   bool
	Executed       bool
	SourceRelation RelationID // valid only if Generated

	// TargetRelation names the Relation a StmtRelation statement desugars
	// to a Transformer call for (spec.md §4.8). Unlike SourceRelation
	// (set on a Transformer's *output*), this is set by the builder on the
	// *input* declaration the binder dispatches to internal/transform.
	TargetRelation RelationID
}

// StatementCreate is spec.md §4.4's `statementCreate`; the new statement is
// appended to block's statement list.
func (r *Root) StatementCreate(block BlockID, kind StatementKind, expr ExpressionID, sub BlockID, line Line) StatementID {
	s := &Statement{Kind: kind, Expr: expr, Sub: sub, Line: line}
	id := r.Statements.New(s)
	s.ID = id

	b := r.Blocks.Get(block)
	b.Statements.Append(id)
	return id
}

// SetTargetRelation attaches the Relation a `relation P C ...` statement
// desugars to, so the binder can dispatch it to internal/transform.
func (r *Root) SetTargetRelation(stmt StatementID, rel RelationID) {
	r.Statements.Get(stmt).TargetRelation = rel
}

// MarkGenerated tags stmt as Transformer-produced and back-links it to the
// Relation that produced it, per spec.md §9's reversible-generation design.
func (r *Root) MarkGenerated(stmt StatementID, rel RelationID) {
	s := r.Statements.Get(stmt)
	s.Generated = true
	s.SourceRelation = rel
}
