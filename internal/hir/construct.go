package hir

import (
	"fmt"

	"github.com/google/rune-sub002/internal/arena"
)

// This file implements spec.md §4.4's deep/shallow copy and reversible
// alpha-renaming, used by internal/binder to uniquify a Function's
// sub-block per Signature (§4.6.3). internal/transform does not copy
// nodes; it builds its generated statements fresh.
//
// Copies reset Datatype/IdentRefs on every cloned Expression: the clone is
// handed back to the binder's fixpoint loop, which re-resolves identifiers
// and re-infers types against the destination scope rather than reusing
// bindings computed for the original.

// CopyExpression deep-copies an expression tree rooted at src.
func (r *Root) CopyExpression(src ExpressionID) ExpressionID {
	if src == arena.NoHandle {
		return arena.NoHandle
	}
	orig := r.Expressions.Get(src)
	children := make([]ExpressionID, len(orig.Children))
	for i, c := range orig.Children {
		children[i] = r.CopyExpression(c)
	}
	clone := &Expression{
		Kind:     orig.Kind,
		Op:       orig.Op,
		Children: children,
		Literal:  orig.Literal,
		Name:     orig.Name,
		Span:     orig.Span,
		Datatype: arena.NoHandle,
	}
	id := r.Expressions.New(clone)
	clone.ID = id
	return id
}

// CopyStatement deep-copies stmt, including its sub-block (recursively,
// via CopyBlock), preserving Generated/SourceRelation tagging but
// resetting Instantiated/Executed so the clone is bound independently.
func (r *Root) CopyStatement(stmt StatementID, owner BlockID) StatementID {
	if stmt == arena.NoHandle {
		return arena.NoHandle
	}
	orig := r.Statements.Get(stmt)
	clone := &Statement{
		Kind:           orig.Kind,
		Expr:           r.CopyExpression(orig.Expr),
		Line:           orig.Line,
		Generated:      orig.Generated,
		SourceRelation: orig.SourceRelation,
		TargetRelation: orig.TargetRelation,
	}
	id := r.Statements.New(clone)
	clone.ID = id
	if orig.Sub != arena.NoHandle {
		clone.Sub = r.CopyBlock(orig.Sub, id, true)
	}
	return id
}

// CopyBlock clones src. deep=false implements spec.md §4.4's "shallow copy
// omits child functions"; deep=true recurses into them (used when cloning
// a whole Constructor body for a new Class, where nested helper functions
// must come along).
func (r *Root) CopyBlock(src BlockID, owner arena.Handle, deep bool) BlockID {
	orig := r.Blocks.Get(src)
	dst := newBlock(orig.Kind, owner, arena.NoHandle)
	id := r.Blocks.New(dst)
	dst.ID = id

	varMap := map[VariableID]VariableID{}
	orig.Variables.Each(func(h arena.Handle) {
		ov := r.Variables.Get(h)
		nv := &Variable{
			Name:                ov.Name,
			OriginalName:        ov.OriginalName,
			Kind:                ov.Kind,
			InTemplateSignature: ov.InTemplateSignature,
		}
		nid := r.Variables.New(nv)
		nv.ID = nid
		nv.Initializer = r.CopyExpression(ov.Initializer)
		nv.TypeConstraint = r.CopyExpression(ov.TypeConstraint)
		dst.Variables.Append(nid)
		r.DefineIdent(id, nv.Name, IdentVariable, nid)
		varMap[h] = nid
	})

	orig.Statements.Each(func(h arena.Handle) {
		dst.Statements.Append(r.CopyStatement(h, id))
	})

	if deep {
		orig.ChildFunctions.Each(func(h arena.Handle) {
			fn := r.copyFunction(h)
			dst.ChildFunctions.Append(fn)
		})
	}

	return id
}

func (r *Root) copyFunction(src FunctionID) FunctionID {
	orig := r.Functions.Get(src)
	clone := &Function{
		Name:           orig.Name,
		Kind:           orig.Kind,
		Linkage:        orig.Linkage,
		Template:       orig.Template,
		Span:           orig.Span,
		Signatures:     arena.NewList(),
		Generated:      orig.Generated,
		SourceRelation: orig.SourceRelation,
	}
	id := r.Functions.New(clone)
	clone.ID = id
	clone.Body = r.CopyBlock(orig.Body, id, true)
	return id
}

// AlphaRename renames every Variable in block whose current Name collides
// with an Ident visible anywhere in destScope's lookup chain (class/module/
// root, per spec.md §4.5), recording the pre-existing name in OriginalName
// (already set by CopyBlock) so Restore can reverse it. Renaming is
// idempotent: a Variable already renamed by a prior call keeps its
// OriginalName untouched.
func (r *Root) AlphaRename(block BlockID, destScope BlockID) {
	b := r.Blocks.Get(block)
	b.Variables.Each(func(h arena.Handle) {
		v := r.Variables.Get(h)
		if !r.visibleInScope(destScope, v.Name) {
			return
		}
		r.nextTemp++
		newName := fmt.Sprintf("%s$%d", v.OriginalName, r.nextTemp)

		b.Idents.Delete(v.Name)
		v.Name = newName
		b.Idents.Put(newName, r.identFor(block, h))
	})
}

// identFor returns the Ident handle block's table holds for variable v, or
// allocates one if somehow absent (defensive; CopyBlock always creates it).
func (r *Root) identFor(block BlockID, variable VariableID) IdentID {
	b := r.Blocks.Get(block)
	v := r.Variables.Get(variable)
	if id, ok := b.Idents.Get(v.Name); ok {
		return id
	}
	return r.DefineIdent(block, v.Name, IdentVariable, variable)
}

// Restore reverses AlphaRename, renaming every Variable in block back to
// its OriginalName (spec.md §9: "restoring the original is a single
// pass").
func (r *Root) Restore(block BlockID) {
	b := r.Blocks.Get(block)
	b.Variables.Each(func(h arena.Handle) {
		v := r.Variables.Get(h)
		if v.Name == v.OriginalName {
			return
		}
		b.Idents.Delete(v.Name)
		v.Name = v.OriginalName
		r.DefineIdent(block, v.Name, IdentVariable, h)
	})
}

// visibleInScope reports whether name is already defined somewhere in
// scope's lookup chain (spec.md §4.5: class sub-block, module sub-block,
// root block, in that order).
func (r *Root) visibleInScope(scope BlockID, name string) bool {
	key := normalizeIdent(name)
	for scope != arena.NoHandle {
		b := r.Blocks.Get(scope)
		if b == nil {
			return false
		}
		if _, ok := b.Idents.Get(key); ok {
			return true
		}
		scope = r.ScopeBlock(b.Parent)
	}
	return false
}
