// Package datatype implements spec.md §4.3's hash-consed Datatype store:
// Bool, String, Uint(w), Int(w), Modint, Float(w), Array(T), Tuple(T…),
// Struct, Enum, EnumClass, Function, Funcptr, Template, Class, None,
// Null(T). Two Datatype values that are structurally equal are always the
// same node (identity comparison is semantic equality, spec.md §8
// invariant 1), so Datatype fields expose no setters: every mutation goes
// through a factory function that returns (or creates) the canonical node.
package datatype

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/google/rune-sub002/internal/arena"
)

// Tag is the Datatype's fundamental kind, per spec.md §4.3.
type Tag int

const (
	Bool Tag = iota
	String
	Uint
	Int
	Modint
	Float
	Array
	Tuple
	Struct
	Enum
	EnumClass
	Function
	Funcptr
	Template
	Class
	Null
	None
	Expr
)

// ID is a Handle into the Store's pool; identity equality of ID implies
// structural equality of the underlying Datatype (hash-consing invariant).
type ID = arena.Handle

// Datatype is the immutable node interned by Store. Fields not meaningful
// for a given Tag are left zero.
type Datatype struct {
	Tag        Tag
	Width      int  // Uint/Int/Modint/Float bit width
	Modulus    uint64 // Modint modulus
	Secret     bool
	Nullable   bool
	Element    ID   // Array element type, Null's pointee, Funcptr return
	Elements   []ID // Tuple/Struct/Function parameter types
	Template   arena.Handle // owning Template for Template/Null(Template)
	Class      arena.Handle // owning Class for Class
	Func       arena.Handle // owning Function for Function/Funcptr
	Name       string       // Struct/Enum/EnumClass tag name
}

// concrete reports whether d is "fully specified": Template and Null are
// not concrete; every other tag is (spec.md §4.3).
func (d Datatype) concrete() bool {
	return d.Tag != Template && d.Tag != Null
}

// Concrete is the exported form used by the binder to decide whether
// resolution to a Class is still required.
func (d Datatype) Concrete() bool { return d.concrete() }

func (d Datatype) equal(o Datatype) bool {
	if d.Tag != o.Tag || d.Width != o.Width || d.Modulus != o.Modulus ||
		d.Secret != o.Secret || d.Nullable != o.Nullable ||
		d.Element != o.Element || d.Template != o.Template ||
		d.Class != o.Class || d.Func != o.Func || d.Name != o.Name {
		return false
	}
	if len(d.Elements) != len(o.Elements) {
		return false
	}
	for i := range d.Elements {
		if d.Elements[i] != o.Elements[i] {
			return false
		}
	}
	return true
}

func (d Datatype) hashKey() [32]byte {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeInt(int64(d.Tag))
	writeInt(int64(d.Width))
	writeInt(int64(d.Modulus))
	if d.Secret {
		h.Write([]byte{1})
	}
	if d.Nullable {
		h.Write([]byte{1})
	}
	writeInt(int64(d.Element))
	writeInt(int64(d.Template))
	writeInt(int64(d.Class))
	writeInt(int64(d.Func))
	h.Write([]byte(d.Name))
	for _, e := range d.Elements {
		writeInt(int64(e))
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Store is the process-wide (Root-owned) interning table. It is safe for
// concurrent use: the binder is single-threaded, but internal/verify runs
// its passes concurrently once binding is finished and several of those
// passes query Datatype shape.
type Store struct {
	pool    *arena.Pool[Datatype]
	buckets *arena.HashedClass[[32]byte, Datatype]
	group   singleflight.Group
	mu      sync.Mutex
}

func NewStore() *Store {
	return &Store{
		pool:    arena.NewPool[Datatype](),
		buckets: arena.NewHashedClass[[32]byte, Datatype](Datatype.equal),
	}
}

// intern returns the canonical ID for d, creating it if this is the first
// time this structural shape has been requested. singleflight collapses
// concurrent requests for the identical shape into one allocation.
func (s *Store) intern(d Datatype) ID {
	key := d.hashKey()
	v, _, _ := s.group.Do(string(key[:]), func() (interface{}, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if h, ok := s.buckets.Find(key, d); ok {
			return h, nil
		}
		h := s.pool.New(d)
		s.buckets.Insert(key, h, d)
		return h, nil
	})
	return v.(ID)
}

// Get dereferences an interned ID.
func (s *Store) Get(id ID) Datatype { return s.pool.Get(id) }

// Factory operations (spec.md §4.3). Each returns the existing node if one
// already matches structurally.

func (s *Store) BoolType() ID   { return s.intern(Datatype{Tag: Bool}) }
func (s *Store) NoneType() ID   { return s.intern(Datatype{Tag: None}) }
func (s *Store) ExprType() ID   { return s.intern(Datatype{Tag: Expr}) }

func (s *Store) StringType(secret bool) ID {
	return s.intern(Datatype{Tag: String, Secret: secret})
}

func (s *Store) UintType(width int) ID {
	return s.intern(Datatype{Tag: Uint, Width: width})
}

func (s *Store) IntType(width int) ID {
	return s.intern(Datatype{Tag: Int, Width: width})
}

func (s *Store) ModintType(width int, modulus uint64) ID {
	return s.intern(Datatype{Tag: Modint, Width: width, Modulus: modulus})
}

func (s *Store) FloatType(width int) ID {
	return s.intern(Datatype{Tag: Float, Width: width})
}

func (s *Store) ArrayType(element ID) ID {
	return s.intern(Datatype{Tag: Array, Element: element})
}

func (s *Store) TupleType(elements ...ID) ID {
	return s.intern(Datatype{Tag: Tuple, Elements: append([]ID(nil), elements...)})
}

func (s *Store) StructType(name string, fields ...ID) ID {
	return s.intern(Datatype{Tag: Struct, Name: name, Elements: append([]ID(nil), fields...)})
}

func (s *Store) EnumType(name string) ID {
	return s.intern(Datatype{Tag: Enum, Name: name})
}

func (s *Store) EnumClassType(name string) ID {
	return s.intern(Datatype{Tag: EnumClass, Name: name})
}

func (s *Store) FunctionType(fn arena.Handle, params ...ID) ID {
	return s.intern(Datatype{Tag: Function, Func: fn, Elements: append([]ID(nil), params...)})
}

func (s *Store) FuncptrType(returnType ID, params ...ID) ID {
	return s.intern(Datatype{Tag: Funcptr, Element: returnType, Elements: append([]ID(nil), params...)})
}

func (s *Store) TemplateType(tmpl arena.Handle) ID {
	return s.intern(Datatype{Tag: Template, Template: tmpl})
}

func (s *Store) ClassType(class arena.Handle) ID {
	return s.intern(Datatype{Tag: Class, Class: class})
}

func (s *Store) NullType(tmpl arena.Handle) ID {
	return s.intern(Datatype{Tag: Null, Template: tmpl, Nullable: true})
}

// SetSecret returns the Datatype identical to base but with the secret bit
// set to secret, interning a new node only if one does not already exist.
func (s *Store) SetSecret(base ID, secret bool) ID {
	d := s.Get(base)
	d.Secret = secret
	return s.intern(d)
}

// SetNullable returns the Datatype identical to base but with Nullable set.
func (s *Store) SetNullable(base ID, nullable bool) ID {
	d := s.Get(base)
	d.Nullable = nullable
	return s.intern(d)
}
