package hir

import (
	"strings"

	"github.com/google/rune-sub002/internal/arena"
)

// This file implements spec.md §4.5's name resolution: three concentric
// scopes (class sub-block via `self`, module sub-block, root block), with
// dotted paths resolved head-first then walked into the head's sub-block.

// Scopes bundles the three concentric lookup scopes in resolution order.
type Scopes struct {
	Class  BlockID // arena.NoHandle outside a class method
	Module BlockID
	Root   BlockID
}

// ResolveBare looks up a bare identifier in class, then module, then root
// scope, in that order (spec.md §4.5).
func (r *Root) ResolveBare(scopes Scopes, name string) (IdentID, bool) {
	key := normalizeIdent(name)
	for _, scope := range []BlockID{scopes.Class, scopes.Module, scopes.Root} {
		if scope == arena.NoHandle {
			continue
		}
		if id, ok := r.LookupLocal(scope, key); ok {
			return id, true
		}
	}
	return arena.NoHandle, false
}

// ResolveDotted resolves a dotted path (e.g. "pkg.Type.member") head-first:
// the first component is resolved via ResolveBare, then each subsequent
// component is looked up in the previous component's own sub-block.
func (r *Root) ResolveDotted(scopes Scopes, path string) (IdentID, bool) {
	parts := strings.Split(path, ".")
	if len(parts) == 0 {
		return arena.NoHandle, false
	}
	head, ok := r.ResolveBare(scopes, parts[0])
	if !ok {
		return arena.NoHandle, false
	}
	for _, part := range parts[1:] {
		sub, ok := r.subBlockOf(head)
		if !ok {
			return arena.NoHandle, false
		}
		head, ok = r.LookupLocal(sub, part)
		if !ok {
			return arena.NoHandle, false
		}
	}
	return head, true
}

// subBlockOf returns the sub-block an Ident's target exposes for dotted
// member lookup: a Function's Body, or (via its Constructor) a Template's
// current Class block is not directly addressable without a resolved
// Class, so only Function idents support this today; module/package
// idents resolve through their FUNCTION-block body the same way.
func (r *Root) subBlockOf(ident IdentID) (BlockID, bool) {
	i := r.Idents.Get(ident)
	if i == nil || i.Kind != IdentFunction {
		return arena.NoHandle, false
	}
	fn := r.Functions.Get(i.Target)
	if fn == nil {
		return arena.NoHandle, false
	}
	return fn.Body, true
}

// Use imports every Ident of module's body block into dest's table (`use M`,
// spec.md §4.5).
func (r *Root) Use(dest, module BlockID) {
	src := r.Blocks.Get(module)
	src.Idents.Each(func(name string, id IdentID) {
		ident := r.Idents.Get(id)
		r.DefineIdent(dest, name, ident.Kind, ident.Target)
	})
}

// Import imports only module's own name into dest (`import M`): the
// caller supplies the name under which module's FUNCTION-block-owning
// Ident should be bound in dest.
func (r *Root) Import(dest BlockID, name string, moduleFn FunctionID) {
	r.DefineIdent(dest, name, IdentFunction, moduleFn)
}
