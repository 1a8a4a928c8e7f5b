package hir

import "github.com/google/rune-sub002/internal/arena"

// TransformerKind names spec.md §2.9's seven built-in relation generators.
type TransformerKind int

const (
	TransformLinkedList TransformerKind = iota
	TransformDoublyLinked
	TransformHashed
	TransformArray
	TransformOneToOne
	TransformTailLinked
	TransformHeapq
)

// Relation is a design-level edge between two Templates labeled by a
// Transformer (spec.md §3.1).
type Relation struct {
	ID          RelationID
	Parent      TemplateID
	Child       TemplateID
	Transformer TransformerKind
	ParentLabel string
	ChildLabel  string
	Cascade     bool
	Args        []ExpressionID

	GeneratedStatements *arena.List // StatementID, for undo/regenerate
	GeneratedFunctions  *arena.List // FunctionID, for undo/regenerate
}

// RelationCreate declares a Relation between parent and child templates;
// spec.md §4.8's `relation P C [labels] [cascade] [args]` statement
// desugars to this plus a call into the named Transformer.
func (r *Root) RelationCreate(parent, child TemplateID, kind TransformerKind, parentLabel, childLabel string, cascade bool, args ...ExpressionID) RelationID {
	rel := &Relation{
		Parent:              parent,
		Child:               child,
		Transformer:         kind,
		ParentLabel:         parentLabel,
		ChildLabel:          childLabel,
		Cascade:             cascade,
		Args:                append([]ExpressionID(nil), args...),
		GeneratedStatements: arena.NewList(),
		GeneratedFunctions:  arena.NewList(),
	}
	id := r.Relations.New(rel)
	rel.ID = id
	return id
}

// UndoRelation removes every Statement/Function this Relation generated, in
// preparation for regeneration (spec.md §9's reversibility guarantee).
func (r *Root) UndoRelation(relID RelationID) {
	rel := r.Relations.Get(relID)
	rel.GeneratedStatements.Each(func(h arena.Handle) { r.Statements.Free(h) })
	rel.GeneratedFunctions.Each(func(h arena.Handle) { r.Functions.Free(h) })
	rel.GeneratedStatements = arena.NewList()
	rel.GeneratedFunctions = arena.NewList()
}

// MemberRel is a computed edge between two Classes, created when a member
// Variable's type is itself a Class reference; used for memory-safety
// cycle detection (spec.md §3.1, §4.6.6).
type MemberRel struct {
	ID       MemberRelID
	Parent   ClassID
	Child    ClassID
	Variable VariableID
}

// MemberRelCreate records that parent's member field holds a reference to
// child (discovered while binding `self.<name> = expr` in a constructor).
func (r *Root) MemberRelCreate(parent, child ClassID, via VariableID) MemberRelID {
	m := &MemberRel{Parent: parent, Child: child, Variable: via}
	id := r.MemberRels.New(m)
	m.ID = id
	return id
}
