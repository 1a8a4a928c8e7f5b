// Package builder defines the stable construction API spec.md §2.5/§4.4
// reserves for the (external, unbuilt) parser: one method per HIR
// constructor. cmd/rune's frontend builds its program through the Builder
// interface rather than calling internal/hir constructors directly, so a
// real parser can be dropped in behind it. internal/binder does not use
// Builder; the nodes it creates while binding are made directly on
// *hir.Root.
package builder

import (
	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/hir"
)

// Builder is the contract a parser drives while turning source text into
// the HIR entity graph. Every method corresponds 1:1 to a §4.4
// constructor on *hir.Root.
type Builder interface {
	Block(kind hir.BlockKind, owner, parent arena.Handle) hir.BlockID
	Function(block hir.BlockID, name string, kind hir.FunctionKind, linkage hir.Linkage, span hir.Span) hir.FunctionID
	Template(block hir.BlockID, name string, referenceWidth int, builtin hir.BuiltinTemplateKind, span hir.Span) hir.TemplateID
	Variable(block hir.BlockID, name string, kind hir.VariableKind) hir.VariableID
	Statement(block hir.BlockID, kind hir.StatementKind, expr hir.ExpressionID, sub hir.BlockID, line hir.Line) hir.StatementID
	Expression(kind hir.ExprKind, span hir.Span, children ...hir.ExpressionID) hir.ExpressionID
	Literal(span hir.Span, value interface{}) hir.ExpressionID
	Ident(block hir.BlockID, name string, kind hir.IdentKind, target arena.Handle) hir.IdentID
	Relation(parent, child hir.TemplateID, kind hir.TransformerKind, parentLabel, childLabel string, cascade bool, args ...hir.ExpressionID) hir.RelationID
}

// RootBuilder is the production Builder, a thin pass-through onto a live
// *hir.Root. It carries no state of its own.
type RootBuilder struct {
	Root *hir.Root
}

// New wraps root as a Builder.
func New(root *hir.Root) *RootBuilder {
	return &RootBuilder{Root: root}
}

func (b *RootBuilder) Block(kind hir.BlockKind, owner, parent arena.Handle) hir.BlockID {
	return b.Root.BlockCreate(kind, owner, parent)
}

func (b *RootBuilder) Function(block hir.BlockID, name string, kind hir.FunctionKind, linkage hir.Linkage, span hir.Span) hir.FunctionID {
	return b.Root.FunctionCreate(block, name, kind, linkage, span)
}

func (b *RootBuilder) Template(block hir.BlockID, name string, referenceWidth int, builtin hir.BuiltinTemplateKind, span hir.Span) hir.TemplateID {
	return b.Root.TemplateCreate(block, name, referenceWidth, builtin, span)
}

func (b *RootBuilder) Variable(block hir.BlockID, name string, kind hir.VariableKind) hir.VariableID {
	return b.Root.VariableCreate(block, name, kind)
}

func (b *RootBuilder) Statement(block hir.BlockID, kind hir.StatementKind, expr hir.ExpressionID, sub hir.BlockID, line hir.Line) hir.StatementID {
	return b.Root.StatementCreate(block, kind, expr, sub, line)
}

func (b *RootBuilder) Expression(kind hir.ExprKind, span hir.Span, children ...hir.ExpressionID) hir.ExpressionID {
	return b.Root.ExpressionCreate(kind, span, children...)
}

func (b *RootBuilder) Literal(span hir.Span, value interface{}) hir.ExpressionID {
	id := b.Root.ExpressionCreate(hir.ExprLiteral, span)
	b.Root.SetLiteral(id, value)
	return id
}

func (b *RootBuilder) Ident(block hir.BlockID, name string, kind hir.IdentKind, target arena.Handle) hir.IdentID {
	return b.Root.DefineIdent(block, name, kind, target)
}

func (b *RootBuilder) Relation(parent, child hir.TemplateID, kind hir.TransformerKind, parentLabel, childLabel string, cascade bool, args ...hir.ExpressionID) hir.RelationID {
	return b.Root.RelationCreate(parent, child, kind, parentLabel, childLabel, cascade, args...)
}

var _ Builder = (*RootBuilder)(nil)
