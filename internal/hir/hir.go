// Package hir implements the High-level Intermediate Representation
// database of spec.md §3: a process-wide, interlinked store of templates,
// classes, functions, blocks, statements, expressions, variables,
// identifiers, signatures, datatypes, relations, and events, all owned
// by a single Root and addressed by small integer handles (internal/arena)
// rather than pointers.
//
// This package owns construction, copying, and navigation of the entity
// graph (spec.md §4.4/§4.5). Binding (§4.6), transformer execution (§4.9),
// and verification (§2.10) live in sibling packages that operate on a
// *Root rather than duplicating its storage.
package hir

import (
	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/datatype"
	"github.com/google/rune-sub002/internal/position"
)

// Handle aliases name every entity's address space. They are all the same
// underlying arena.Handle type; the aliases exist so call sites read as
// "a BlockID" rather than a bare integer, matching the teacher's NodeID
// convention (internal/hir/hir.go) generalized to one handle kind per
// entity instead of one shared NodeID.
type (
	FilepathID  = arena.Handle
	BlockID     = arena.Handle
	FunctionID  = arena.Handle
	TemplateID  = arena.Handle
	ClassID     = arena.Handle
	VariableID  = arena.Handle
	IdentID     = arena.Handle
	StatementID = arena.Handle
	ExpressionID = arena.Handle
	RelationID  = arena.Handle
	MemberRelID = arena.Handle
	SignatureID = arena.Handle
	EventID     = arena.Handle
)

// Root is the singleton owner of every HIR node (spec.md §3.1). Destroying
// Root destroys everything; in this implementation that simply means
// letting the *Root value become unreachable, since cascade-delete within
// a live Root is expressed by removing nodes from their owning relations
// (see DestroyClass, DestroyBlock).
type Root struct {
	Types *datatype.Store

	Filepaths     *arena.Pool[*Filepath]
	filepathByAbs map[string]FilepathID

	Blocks      *arena.Pool[*Block]
	Functions   *arena.Pool[*Function]
	Templates   *arena.Pool[*Template]
	Classes     *arena.Pool[*Class]
	Variables   *arena.Pool[*Variable]
	Idents      *arena.Pool[*Ident]
	Statements  *arena.Pool[*Statement]
	Expressions *arena.Pool[*Expression]
	Relations   *arena.Pool[*Relation]
	MemberRels  *arena.Pool[*MemberRel]
	Signatures  *arena.Pool[*Signature]
	Events      *arena.Pool[*Event]

	sigIndex *arena.HashedClass[string, sigKey]

	nextTemp int // alpha-rename counter
}

// Start initializes process-wide HIR state (spec.md §9's "explicit
// xxxStart()/xxxStop() functions"). Call Stop when the compilation ends;
// a fresh Start begins an entirely independent HIR universe, which is how
// this package supports running more than one compilation per process
// (e.g. in tests) without global mutable state leaking between them.
func Start() *Root {
	r := &Root{
		Types:         datatype.NewStore(),
		Filepaths:     arena.NewPool[*Filepath](),
		filepathByAbs: map[string]FilepathID{},
		Blocks:        arena.NewPool[*Block](),
		Functions:     arena.NewPool[*Function](),
		Templates:     arena.NewPool[*Template](),
		Classes:       arena.NewPool[*Class](),
		Variables:     arena.NewPool[*Variable](),
		Idents:        arena.NewPool[*Ident](),
		Statements:    arena.NewPool[*Statement](),
		Expressions:   arena.NewPool[*Expression](),
		Relations:     arena.NewPool[*Relation](),
		MemberRels:    arena.NewPool[*MemberRel](),
		Signatures:    arena.NewPool[*Signature](),
		Events:        arena.NewPool[*Event](),
	}
	r.sigIndex = arena.NewHashedClass[string, sigKey](func(a, b sigKey) bool { return a.equal(b) })
	return r
}

// Stop releases r. Present for symmetry with Start and so callers have an
// explicit place to hang future teardown diagnostics (pool occupancy,
// leak checks) without changing call sites later.
func (r *Root) Stop() {}

// Filepath is interned by absolute path and mirrors the package/module
// directory tree (spec.md §3.1). Filepaths are never directly destroyed.
type Filepath struct {
	ID       FilepathID
	Abs      string
	Parent   FilepathID
	Children *arena.List
}

// InternFilepath returns the existing Filepath for abs, or creates one
// parented under parent.
func (r *Root) InternFilepath(abs string, parent FilepathID) FilepathID {
	if id, ok := r.filepathByAbs[abs]; ok {
		return id
	}
	fp := &Filepath{Abs: abs, Parent: parent, Children: arena.NewList()}
	id := r.Filepaths.New(fp)
	fp.ID = id
	r.filepathByAbs[abs] = id
	if parent != arena.NoHandle {
		if p := r.Filepaths.Get(parent); p != nil {
			p.Children.Append(id)
		}
	}
	return id
}

// Event is spec.md §4.6.1's synchronization point: Signature/Variable/
// Undefined-ident events wake every attached waiter when fired. The HIR
// layer only stores the waiter list as opaque arena handles; internal/binder
// attaches its per-Signature work-item handles and moves them to its ready
// queue.
type EventKind int

const (
	EventSignatureReturnType EventKind = iota
	EventVariableAssigned
	EventIdentDefined
)

type Event struct {
	ID      EventID
	Kind    EventKind
	Waiters []arena.Handle
	Fired   bool
}

// NewEvent allocates a fresh, unfired Event of the given kind.
func (r *Root) NewEvent(kind EventKind) EventID {
	return r.Events.New(&Event{Kind: kind})
}

// Attach registers waiter (internal/binder passes a work-item handle) on
// event. If the event already fired, Attach is a no-op and returns false so
// the caller knows to proceed immediately instead of suspending.
func (r *Root) Attach(event EventID, waiter arena.Handle) bool {
	e := r.Events.Get(event)
	if e == nil || e.Fired {
		return false
	}
	e.Waiters = append(e.Waiters, waiter)
	return true
}

// Fire marks event as fired and returns (and clears) its waiter list.
func (r *Root) Fire(event EventID) []arena.Handle {
	e := r.Events.Get(event)
	if e == nil || e.Fired {
		return nil
	}
	e.Fired = true
	waiters := e.Waiters
	e.Waiters = nil
	return waiters
}

// position re-exported for callers that only import hir.
type Span = position.Span
type Line = position.Line
