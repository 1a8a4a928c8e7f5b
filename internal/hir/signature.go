package hir

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/datatype"
)

// Paramspec is one Signature parameter: the Variable it binds, its
// Datatype, and the two flags spec.md §3.1 requires for template
// instantiation bookkeeping.
type Paramspec struct {
	Variable            VariableID
	Datatype            datatype.ID
	Instantiated        bool
	InTemplateSignature bool
}

// Signature is a (Function, parameter-type tuple) hash-consed so repeated
// calls with identical argument types share one Signature (spec.md §8
// invariant 2).
type Signature struct {
	ID         SignatureID
	Func       FunctionID
	ParamTypes []datatype.ID
	Paramspecs []Paramspec
	ReturnType datatype.ID
	Uniquified FunctionID // per-signature clone, valid once instantiation runs
	Class      ClassID    // valid for Constructor signatures
	Callsite   StatementID
	Caller     SignatureID // caller's Signature, for stack-trace reporting
}

type sigKey struct {
	fn     FunctionID
	params []datatype.ID
}

func (k sigKey) equal(o sigKey) bool {
	if k.fn != o.fn || len(k.params) != len(o.params) {
		return false
	}
	for i := range k.params {
		if k.params[i] != o.params[i] {
			return false
		}
	}
	return true
}

func (k sigKey) hash() string {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(k.fn))
	h.Write(buf[:])
	for _, p := range k.params {
		binary.LittleEndian.PutUint64(buf[:], uint64(p))
		h.Write(buf[:])
	}
	return string(h.Sum(nil))
}

// FindOrCreateSignature is spec.md §4.6.3's hash-consing entry point:
// creating a new Signature triggers uniquification (the caller is
// responsible for attaching the shallow-copied sub-block and, for
// Constructors, minting/reusing a Class — see internal/binder).
func (r *Root) FindOrCreateSignature(fn FunctionID, paramTypes []datatype.ID, callsite StatementID, caller SignatureID) (SignatureID, bool /*created*/) {
	key := sigKey{fn: fn, params: append([]datatype.ID(nil), paramTypes...)}
	hashKey := key.hash()
	if h, ok := r.sigIndex.Find(hashKey, key); ok {
		return h, false
	}
	sig := &Signature{Func: fn, ParamTypes: key.params, Callsite: callsite, Caller: caller, Uniquified: arena.NoHandle, Class: arena.NoHandle}
	id := r.Signatures.New(sig)
	sig.ID = id
	r.sigIndex.Insert(hashKey, id, key)
	return id, true
}

// StackTrace returns the signature-call chain that spec.md §7's ASCII
// stack trace is rendered from: sig first, then each Caller link up to a
// root call.
func (r *Root) StackTrace(sig SignatureID) []SignatureID {
	var chain []SignatureID
	for sig != arena.NoHandle {
		chain = append(chain, sig)
		s := r.Signatures.Get(sig)
		if s == nil || s.Caller == sig {
			break
		}
		sig = s.Caller
	}
	return chain
}
