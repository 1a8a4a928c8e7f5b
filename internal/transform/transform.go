// Package transform implements spec.md §4.6.5/§4.9's seven built-in
// relation Transformers: LinkedList, DoublyLinked, Hashed, Array,
// OneToOne, TailLinked, Heapq. Each is invoked synchronously when a
// Relation statement is bound (internal/binder suspends its fixpoint on
// the binding node, runs the Transformer, then resumes). A Transformer
// emits accessor Functions and prependcode/appendcode Statements into the
// parent Template's constructor body, substituting the Relation's
// parent/child role labels for the `$P $C $p $c` name placeholders
// spec.md §4.6.5 describes; every emitted node is tagged Generated and
// back-linked to the Relation so it can be undone and regenerated
// (spec.md §9).
package transform

import (
	"fmt"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/hir"
)

// accessorSpec names one generated accessor Function: its parameter list
// (already substituted against the Relation's labels), the single
// generated Statement kind wrapping its body, and the splice that builds
// the real operand statements underneath that wrapper.
type accessorSpec struct {
	name   string
	kind   hir.StatementKind
	params []string
	splice func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string)
}

// Run executes relID's Transformer against root, emitting its accessor
// Functions into the parent Template's constructor body.
func Run(root *hir.Root, relID hir.RelationID) error {
	rel := root.Relations.Get(relID)
	if rel == nil {
		return fmt.Errorf("transform: unknown relation %d", relID)
	}

	specs := accessorsFor(rel)
	parentTmpl := root.Templates.Get(rel.Parent)
	if parentTmpl == nil {
		return fmt.Errorf("transform: relation %d has no parent template", relID)
	}
	parentCtor := root.Functions.Get(parentTmpl.Constructor)
	if parentCtor == nil {
		return fmt.Errorf("transform: parent template %d has no constructor", rel.Parent)
	}

	for _, spec := range specs {
		emitAccessor(root, parentCtor.Body, rel, spec)
	}
	if rel.Cascade {
		emitDestructor(root, parentCtor.Body, rel)
	}
	return nil
}

// emitAccessor creates a Function named spec.name under owner (the
// parent's constructor body), giving it spec.params as ordinary
// parameters and splicing spec.splice's real operand statements into a
// sub-block owned by a single generated Statement of spec.kind. Function
// and every spliced Statement are tagged generated and back-linked to
// rel so UndoRelation can remove exactly this slice.
func emitAccessor(root *hir.Root, owner hir.BlockID, rel *hir.Relation, spec accessorSpec) {
	fn := root.FunctionCreate(owner, spec.name, hir.FuncPlain, hir.LinkageModule, hir.Span{})
	f := root.Functions.Get(fn)
	f.Generated = true
	f.SourceRelation = rel.ID

	for _, p := range spec.params {
		root.VariableCreate(f.Body, p, hir.VarParameter)
	}

	sub := root.BlockCreate(hir.StatementBlock, arena.NoHandle, f.Body)
	if spec.splice != nil {
		spec.splice(root, sub, rel, spec.params)
	}

	stmt := root.StatementCreate(f.Body, spec.kind, arena.NoHandle, sub, hir.Line{})
	root.MarkGenerated(stmt, rel.ID)

	rel.GeneratedFunctions.Append(fn)
	rel.GeneratedStatements.Append(stmt)
}

// emitDestructor creates the cascade-delete destructor accessor (spec.md
// §8 scenario 5's `graph.destroy()`): it walks to the relation's
// recorded child slot and recurses into that child's own destructor,
// the minimal real cascade trigger a Transformer can splice without a
// full iteration construct.
func emitDestructor(root *hir.Root, owner hir.BlockID, rel *hir.Relation) {
	fn := root.FunctionCreate(owner, "destroy", hir.FuncDestructor, hir.LinkageModule, hir.Span{})
	f := root.Functions.Get(fn)
	f.Generated = true
	f.SourceRelation = rel.ID

	c := label(rel.ChildLabel, "Child")
	cv := lowerFirst(c)
	root.VariableCreate(f.Body, cv, hir.VarLocal)

	sub := root.BlockCreate(hir.StatementBlock, arena.NoHandle, f.Body)
	assign(root, sub, rel, ident(root, cv), member(root, self(root), "first"+c))
	call := root.ExpressionCreate(hir.ExprCall, hir.Span{}, member(root, ident(root, cv), "destroy"))
	callStmt := root.StatementCreate(sub, hir.StmtCall, call, arena.NoHandle, hir.Line{})
	root.MarkGenerated(callStmt, rel.ID)

	stmt := root.StatementCreate(f.Body, hir.StmtAppendCode, arena.NoHandle, sub, hir.Line{})
	root.MarkGenerated(stmt, rel.ID)

	rel.GeneratedFunctions.Append(fn)
	rel.GeneratedStatements.Append(stmt)
}

// accessorsFor computes the Transformer-specific accessor set, spliced
// against rel's parent/child labels: $P/$C (capitalized role names used
// in compound identifiers like nextGraphNode) and $p/$c (lower-case,
// used as parameter names: appendNode(node)). Every member field an
// accessor reads or writes is likewise named from these labels, so two
// Relations on the same pair of Templates never collide.
func accessorsFor(rel *hir.Relation) []accessorSpec {
	p := label(rel.ParentLabel, "Parent")
	c := label(rel.ChildLabel, "Child")
	cl := lowerFirst(c)

	first := "first" + c
	last := "last" + c
	next := "next" + p + c
	prev := "prev" + p + c

	switch rel.Transformer {
	case hir.TransformLinkedList, hir.TransformTailLinked:
		return []accessorSpec{
			{name: "append" + c, kind: hir.StmtAppendCode, params: []string{cl}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				assign(root, sub, rel, member(root, self(root), last), ident(root, params[0]))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtRef, ident(root, params[0]))
				}
			}},
			{name: "remove" + c, kind: hir.StmtAppendCode, params: []string{cl}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				assign(root, sub, rel, member(root, self(root), last), nilLiteral(root))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtUnref, ident(root, params[0]))
				}
			}},
			{name: "first" + c, kind: hir.StmtAppendCode, splice: returnFieldOf(first)},
			{name: "last" + c, kind: hir.StmtAppendCode, splice: returnFieldOf(last)},
		}

	case hir.TransformDoublyLinked:
		return []accessorSpec{
			{name: "append" + c, kind: hir.StmtAppendCode, params: []string{cl}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				root.VariableCreate(sub, "tail", hir.VarLocal)
				assign(root, sub, rel, ident(root, "tail"), member(root, self(root), last))
				assign(root, sub, rel, member(root, ident(root, "tail"), next), ident(root, params[0]))
				assign(root, sub, rel, member(root, ident(root, params[0]), prev), ident(root, "tail"))
				assign(root, sub, rel, member(root, self(root), last), ident(root, params[0]))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtRef, ident(root, params[0]))
				}
			}},
			{name: "remove" + c, kind: hir.StmtAppendCode, params: []string{cl}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				assign(root, sub, rel,
					member(root, member(root, ident(root, params[0]), prev), next),
					member(root, ident(root, params[0]), next))
				assign(root, sub, rel,
					member(root, member(root, ident(root, params[0]), next), prev),
					member(root, ident(root, params[0]), prev))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtUnref, ident(root, params[0]))
				}
			}},
			{name: "first" + c, kind: hir.StmtAppendCode, splice: returnFieldOf(first)},
			{name: "last" + c, kind: hir.StmtAppendCode, splice: returnFieldOf(last)},
			{name: "next" + p + c, kind: hir.StmtAppendCode, params: []string{cl}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				returnExpr(root, sub, rel, member(root, ident(root, params[0]), next))
			}},
			{name: "prev" + p + c, kind: hir.StmtPrependCode, params: []string{cl}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				returnExpr(root, sub, rel, member(root, ident(root, params[0]), prev))
			}},
		}

	case hir.TransformArray:
		items := "items" + c
		return []accessorSpec{
			{name: "get" + c, kind: hir.StmtAppendCode, params: []string{"index"}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				returnExpr(root, sub, rel, index(root, member(root, self(root), items), ident(root, params[0])))
			}},
			{name: "set" + c, kind: hir.StmtAppendCode, params: []string{"index", "value"}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				assign(root, sub, rel, index(root, member(root, self(root), items), ident(root, params[0])), ident(root, params[1]))
			}},
			{name: "append" + c, kind: hir.StmtAppendCode, params: []string{cl}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				assign(root, sub, rel, member(root, self(root), last), ident(root, params[0]))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtRef, ident(root, params[0]))
				}
			}},
			{name: "remove" + c, kind: hir.StmtAppendCode, params: []string{"index"}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				target := index(root, member(root, self(root), items), ident(root, params[0]))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtUnref, target)
				}
				assign(root, sub, rel, index(root, member(root, self(root), items), ident(root, params[0])), nilLiteral(root))
			}},
		}

	case hir.TransformHashed:
		table := "table" + c
		return []accessorSpec{
			{name: "find" + c, kind: hir.StmtAppendCode, params: []string{"key"}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				returnExpr(root, sub, rel, index(root, member(root, self(root), table), ident(root, params[0])))
			}},
			{name: "insert" + c, kind: hir.StmtAppendCode, params: []string{"key", "value"}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				assign(root, sub, rel, index(root, member(root, self(root), table), ident(root, params[0])), ident(root, params[1]))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtRef, ident(root, params[1]))
				}
			}},
			{name: "remove" + c, kind: hir.StmtAppendCode, params: []string{"key"}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				target := index(root, member(root, self(root), table), ident(root, params[0]))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtUnref, target)
				}
				assign(root, sub, rel, index(root, member(root, self(root), table), ident(root, params[0])), nilLiteral(root))
			}},
		}

	case hir.TransformOneToOne:
		field := lowerFirst(c)
		return []accessorSpec{
			{name: "set" + c, kind: hir.StmtAppendCode, params: []string{cl}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				assign(root, sub, rel, member(root, self(root), field), ident(root, params[0]))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtRef, ident(root, params[0]))
				}
			}},
			{name: "get" + c, kind: hir.StmtAppendCode, splice: returnFieldOf(field)},
		}

	case hir.TransformHeapq:
		top := "top" + c
		return []accessorSpec{
			{name: "push" + c, kind: hir.StmtAppendCode, params: []string{cl}, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				assign(root, sub, rel, member(root, self(root), top), ident(root, params[0]))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtRef, ident(root, params[0]))
				}
			}},
			{name: "pop" + c, kind: hir.StmtAppendCode, splice: func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
				root.VariableCreate(sub, cl, hir.VarLocal)
				assign(root, sub, rel, ident(root, cl), member(root, self(root), top))
				assign(root, sub, rel, member(root, self(root), top), nilLiteral(root))
				if !rel.Cascade {
					refAdjust(root, sub, rel, hir.StmtUnref, ident(root, cl))
				}
				returnExpr(root, sub, rel, ident(root, cl))
			}},
		}
	}
	return nil
}

// returnFieldOf builds a splice func returning self.field, shared by the
// several accessors across Transformer kinds that are plain getters.
func returnFieldOf(field string) func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
	return func(root *hir.Root, sub hir.BlockID, rel *hir.Relation, params []string) {
		returnExpr(root, sub, rel, member(root, self(root), field))
	}
}

// self builds a fresh `self` identifier reference.
func self(root *hir.Root) hir.ExpressionID {
	return ident(root, "self")
}

func ident(root *hir.Root, name string) hir.ExpressionID {
	e := root.ExpressionCreate(hir.ExprIdent, hir.Span{})
	root.SetName(e, name)
	return e
}

// member builds base.field (spec.md §4.7's ExprDot).
func member(root *hir.Root, base hir.ExpressionID, field string) hir.ExpressionID {
	e := root.ExpressionCreate(hir.ExprDot, hir.Span{}, base)
	root.SetName(e, field)
	return e
}

func index(root *hir.Root, base, key hir.ExpressionID) hir.ExpressionID {
	return root.ExpressionCreate(hir.ExprIndex, hir.Span{}, base, key)
}

// nilLiteral is the untyped null placeholder spliced into generated
// clearing code; the Template it refines against is only known once the
// accessor itself is called, which Generated bodies never are through
// the ordinary binder walk (internal/binder's bindStatement executes
// StmtAppendCode/StmtPrependCode without re-binding their Sub block).
func nilLiteral(root *hir.Root) hir.ExpressionID {
	return root.ExpressionCreate(hir.ExprLiteral, hir.Span{})
}

// assign splices `dst = src` as a generated Statement into sub.
func assign(root *hir.Root, sub hir.BlockID, rel *hir.Relation, dst, src hir.ExpressionID) {
	e := root.ExpressionCreate(hir.ExprBinary, hir.Span{}, dst, src)
	root.Expressions.Get(e).Op = hir.OpAssign
	stmt := root.StatementCreate(sub, hir.StmtAssign, e, arena.NoHandle, hir.Line{})
	root.MarkGenerated(stmt, rel.ID)
}

// returnExpr splices `return expr` as a generated Statement into sub.
func returnExpr(root *hir.Root, sub hir.BlockID, rel *hir.Relation, expr hir.ExpressionID) {
	stmt := root.StatementCreate(sub, hir.StmtReturn, expr, arena.NoHandle, hir.Line{})
	root.MarkGenerated(stmt, rel.ID)
}

// refAdjust splices a generated `ref`/`unref` Statement targeting expr
// (spec.md §4.8: legal only inside Transformer-generated code), used to
// keep non-cascade ("weak") relations' reference counts correct.
func refAdjust(root *hir.Root, sub hir.BlockID, rel *hir.Relation, kind hir.StatementKind, target hir.ExpressionID) {
	stmt := root.StatementCreate(sub, kind, target, arena.NoHandle, hir.Line{})
	root.MarkGenerated(stmt, rel.ID)
}

func label(l, fallback string) string {
	if l == "" {
		return fallback
	}
	return capitalize(l)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
