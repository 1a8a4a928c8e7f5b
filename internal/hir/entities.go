package hir

import (
	"golang.org/x/text/unicode/norm"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/datatype"
)

// BlockKind distinguishes the three Block variants of spec.md §3.1.
type BlockKind int

const (
	FunctionBlock BlockKind = iota
	StatementBlock
	ClassBlock
)

// Block is an ordered list of Statements, an optional list of child
// Functions, a hash table of Idents, and a list of Variables.
type Block struct {
	ID             BlockID
	Kind           BlockKind
	Owner          arena.Handle // owning FunctionID or ClassID
	Parent         BlockID      // enclosing block, for STATEMENT-blocks
	Statements     *arena.List
	ChildFunctions *arena.List
	Idents         *arena.Hashed[string]
	Variables      *arena.List
}

func newBlock(kind BlockKind, owner, parent BlockID) *Block {
	return &Block{
		Kind:           kind,
		Owner:          owner,
		Parent:         parent,
		Statements:     arena.NewList(),
		ChildFunctions: arena.NewList(),
		Idents:         arena.NewHashed[string](),
		Variables:      arena.NewList(),
	}
}

// BlockCreate is the stable constructor of spec.md §4.4: `blockCreate`.
func (r *Root) BlockCreate(kind BlockKind, owner, parent BlockID) BlockID {
	b := newBlock(kind, owner, parent)
	id := r.Blocks.New(b)
	b.ID = id
	return id
}

// ScopeBlock walks up STATEMENT-blocks from id until it reaches a
// FUNCTION- or CLASS-block, per spec.md §3.1.
func (r *Root) ScopeBlock(id BlockID) BlockID {
	for {
		b := r.Blocks.Get(id)
		if b == nil || b.Kind != StatementBlock {
			return id
		}
		id = b.Parent
	}
}

// normalizeIdent applies NFC normalization so that Unicode-equivalent
// spellings of an identifier always collide in a Block's Ident table,
// honoring spec.md §3.1's "at most one entry per symbol" invariant even
// when the (out-of-scope) lexer accepts composed and decomposed forms.
func normalizeIdent(name string) string {
	return norm.NFC.String(name)
}

// DefineIdent inserts (or overwrites) a symbol in block's table. It
// enforces spec.md §3.1's invariant that an Ident appears in at most one
// Block's table by always replacing rather than appending.
func (r *Root) DefineIdent(block BlockID, name string, kind IdentKind, target arena.Handle) IdentID {
	b := r.Blocks.Get(block)
	key := normalizeIdent(name)

	ident := &Ident{Name: key, Kind: kind, Target: target, Block: block}
	id := r.Idents.New(ident)
	ident.ID = id
	b.Idents.Put(key, id)
	return id
}

// LookupLocal looks up name in exactly block's own table (no scope walk).
func (r *Root) LookupLocal(block BlockID, name string) (IdentID, bool) {
	b := r.Blocks.Get(block)
	return b.Idents.Get(normalizeIdent(name))
}

// IdentKind distinguishes the three Ident variants of spec.md §3.1.
type IdentKind int

const (
	IdentFunction IdentKind = iota
	IdentVariable
	IdentUndefined
)

// Ident lives in exactly one Block's table, keyed by symbol. An Undefined
// Ident carries an Event fired when it is later defined, waking every
// binding blocked on the forward reference.
type Ident struct {
	ID     IdentID
	Name   string
	Kind   IdentKind
	Target arena.Handle // FunctionID or VariableID once defined
	Block  BlockID
	Event  EventID // valid only while Kind == IdentUndefined
}

// DeclareUndefined creates a placeholder Ident awaiting a forward
// definition, attaching event so the binder can wake all waiters when it
// is later promoted via Define.
func (r *Root) DeclareUndefined(block BlockID, name string) (IdentID, EventID) {
	event := r.NewEvent(EventIdentDefined)
	id := r.DefineIdent(block, name, IdentUndefined, arena.NoHandle)
	r.Idents.Get(id).Event = event
	return id, event
}

// Define promotes an Undefined Ident to Function or Variable, firing its
// event and returning the waiters the binder must re-queue.
func (r *Root) Define(ident IdentID, kind IdentKind, target arena.Handle) []arena.Handle {
	i := r.Idents.Get(ident)
	i.Kind = kind
	i.Target = target
	if i.Event == arena.NoHandle {
		return nil
	}
	waiters := r.Fire(i.Event)
	i.Event = arena.NoHandle
	return waiters
}

// Linkage is a Function's linkage kind, spec.md §3.1.
type Linkage int

const (
	LinkageModule Linkage = iota
	LinkagePackage
	LinkageLibcall
	LinkageRpc
	LinkageBuiltin
	LinkageExternC
	LinkageExternRpc
)

// FunctionKind is a Function's variant, spec.md §3.1.
type FunctionKind int

const (
	FuncPlain FunctionKind = iota
	FuncOperator
	FuncConstructor
	FuncDestructor
	FuncPackage
	FuncModule
	FuncIterator
	FuncFinal
	FuncStruct
	FuncEnum
	FuncTransformer
	FuncUnittest
)

// Function holds linkage, a sub-block, zero or more Signatures, zero or
// more Idents (one per visible scope), and, for Constructors, exactly one
// owning Template.
type Function struct {
	ID         FunctionID
	Name       string
	Kind       FunctionKind
	Linkage    Linkage
	Body       BlockID
	Signatures *arena.List // of SignatureID
	Idents     []IdentID
	Template   TemplateID // valid only for FuncConstructor
	Span       Span

	// Generated/instantiated bookkeeping mirrors Statement's flags so a
	// Transformer-produced Function can be identified and undone.
	Generated     bool
	SourceRelation RelationID
}

// FunctionCreate is spec.md §4.4's `functionCreate`. It auto-creates the
// function's first Ident in block (functions auto-create an Ident in
// their owning block, per spec.md §4.4).
func (r *Root) FunctionCreate(block BlockID, name string, kind FunctionKind, linkage Linkage, span Span) FunctionID {
	fn := &Function{Name: name, Kind: kind, Linkage: linkage, Span: span, Signatures: arena.NewList()}
	id := r.Functions.New(fn)
	fn.ID = id
	fn.Body = r.BlockCreate(FunctionBlock, id, arena.NoHandle)

	ident := r.DefineIdent(block, name, IdentFunction, id)
	fn.Idents = append(fn.Idents, ident)

	b := r.Blocks.Get(block)
	if b != nil {
		b.ChildFunctions.Append(id)
	}
	return id
}

// BuiltinTemplateKind tags a Template as a compiler-provided primitive
// template (spec.md §3.1's "built-in type tag"), or NotBuiltin for
// user-defined templates.
type BuiltinTemplateKind int

const (
	NotBuiltin BuiltinTemplateKind = iota
	BuiltinArray
	BuiltinString
	BuiltinUint
	BuiltinInt
)

// Template represents a class definition before monomorphization. It owns
// a DoublyLinked list of its instantiations (Classes) and has exactly one
// owning Constructor Function.
type Template struct {
	ID             TemplateID
	Name           string
	Constructor    FunctionID
	Classes        *arena.DoublyLinked
	ReferenceWidth int
	Builtin        BuiltinTemplateKind
	ReferenceCounted bool // computed by internal/verify after relations are processed
}

// TemplateCreate is spec.md §4.4's `templateCreate`. Every Template has
// exactly one owning Constructor Function (spec.md §3.1 invariant); the
// constructor is created alongside the template and tagged as its owner.
func (r *Root) TemplateCreate(block BlockID, name string, referenceWidth int, builtin BuiltinTemplateKind, span Span) TemplateID {
	t := &Template{Name: name, ReferenceWidth: referenceWidth, Builtin: builtin, Classes: arena.NewDoublyLinked()}
	id := r.Templates.New(t)
	t.ID = id

	ctor := r.FunctionCreate(block, name, FuncConstructor, LinkageModule, span)
	r.Functions.Get(ctor).Template = id
	t.Constructor = ctor
	return id
}

// Class is a concrete instantiation of a Template, keyed by the tuple of
// Datatypes assigned to the Template's template parameters.
type Class struct {
	ID         ClassID
	Template   TemplateID
	ParamTypes []datatype.ID
	Block      BlockID // CLASS-block of member Variables
	Datatype   datatype.ID
}

// FindOrCreateClass implements spec.md §4.6.3's Class reuse rule: a new
// Signature's template-parameter types are compared against every
// existing Class of the Template; matching parameter-wise reuses the
// Class, otherwise a fresh one is minted.
func (r *Root) FindOrCreateClass(tmpl TemplateID, paramTypes []datatype.ID) (ClassID, bool /*created*/) {
	t := r.Templates.Get(tmpl)
	var found ClassID = arena.NoHandle
	t.Classes.Each(func(h arena.Handle) {
		if found != arena.NoHandle {
			return
		}
		c := r.Classes.Get(h)
		if sameTypes(c.ParamTypes, paramTypes) {
			found = h
		}
	})
	if found != arena.NoHandle {
		return found, false
	}

	c := &Class{Template: tmpl, ParamTypes: append([]datatype.ID(nil), paramTypes...)}
	id := r.Classes.New(c)
	c.ID = id
	c.Block = r.BlockCreate(ClassBlock, id, arena.NoHandle)
	c.Datatype = r.Types.ClassType(id)
	t.Classes.Append(id)
	return id, true
}

func sameTypes(a, b []datatype.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// VariableKind distinguishes Parameter and Local variables.
type VariableKind int

const (
	VarParameter VariableKind = iota
	VarLocal
)

// Variable is a Parameter or Local, spec.md §3.1.
type Variable struct {
	ID                  VariableID
	Name                string
	OriginalName        string // pre-alpha-rename name, for reversible renaming
	Kind                VariableKind
	Initializer         ExpressionID
	TypeConstraint      ExpressionID
	Datatype            datatype.ID
	InTemplateSignature bool
	Instantiated        bool
}

// VariableCreate is spec.md §4.4's `variableCreate`. It auto-creates a
// Variable Ident in block.
func (r *Root) VariableCreate(block BlockID, name string, kind VariableKind) VariableID {
	v := &Variable{Name: name, OriginalName: name, Kind: kind}
	id := r.Variables.New(v)
	v.ID = id

	b := r.Blocks.Get(block)
	b.Variables.Append(id)
	r.DefineIdent(block, name, IdentVariable, id)
	return id
}
