package main

import (
	"fmt"
	"strings"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/datatype"
	"github.com/google/rune-sub002/internal/hir"
	"github.com/google/rune-sub002/internal/rnconfig"
)

// Backend abstracts the (external, unbuilt) code generator spec.md §6.1's
// `-l <backend>` flag selects. internal/binder and internal/verify never
// import this package; the CLI is the only thing that knows codegen is
// out of scope, matching internal/builder's "stable interface a real
// collaborator plugs into" shape.
type Backend interface {
	Name() string
	Emit(root *hir.Root, entries []hir.SignatureID, cfg *rnconfig.Config) ([]byte, error)
}

// DemoBackend emits a small textual object listing, one line per
// compiled entry Signature, instead of real machine code or IR. This
// keeps -l llvm and -l c both exercisable end-to-end without the real
// LLVM/C backends spec.md §1 places out of scope.
type DemoBackend struct {
	kind rnconfig.Backend
}

// NewBackend returns the DemoBackend for kind.
func NewBackend(kind rnconfig.Backend) Backend {
	return DemoBackend{kind: kind}
}

func (d DemoBackend) Name() string { return string(d.kind) }

func (d DemoBackend) Emit(root *hir.Root, entries []hir.SignatureID, cfg *rnconfig.Config) ([]byte, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; rune object (backend=%s debug=%v)\n", d.kind, cfg.Debug)
	for _, sigID := range entries {
		sig := root.Signatures.Get(sigID)
		if sig == nil {
			continue
		}
		fn := root.Functions.Get(sig.Func)
		name := "<anonymous>"
		if fn != nil {
			name = fn.Name
		}
		fmt.Fprintf(&sb, "fn %s -> %s\n", name, formatDatatype(root, sig.ReturnType))
	}
	return []byte(sb.String()), nil
}

// formatDatatype renders id for the demo object listing and -g/-v
// logging; there is no general Datatype.String() because the HIR layer
// itself never needs to print a type, only compare and hash-cons it.
func formatDatatype(root *hir.Root, id datatype.ID) string {
	if id == arena.NoHandle {
		return "<unbound>"
	}
	dt := root.Types.Get(id)
	switch dt.Tag {
	case datatype.Bool:
		return "bool"
	case datatype.String:
		if dt.Secret {
			return "secret string"
		}
		return "string"
	case datatype.Uint:
		return fmt.Sprintf("uint%d", dt.Width)
	case datatype.Int:
		if dt.Secret {
			return fmt.Sprintf("secret int%d", dt.Width)
		}
		return fmt.Sprintf("int%d", dt.Width)
	case datatype.Modint:
		return fmt.Sprintf("modint%d(%d)", dt.Width, dt.Modulus)
	case datatype.Float:
		return fmt.Sprintf("float%d", dt.Width)
	case datatype.Array:
		return fmt.Sprintf("[%s]", formatDatatype(root, dt.Element))
	case datatype.Tuple:
		return fmt.Sprintf("(%s)", joinDatatypes(root, dt.Elements))
	case datatype.Struct:
		return fmt.Sprintf("struct %s{%s}", dt.Name, joinDatatypes(root, dt.Elements))
	case datatype.Enum:
		return "enum " + dt.Name
	case datatype.EnumClass:
		return "enum class " + dt.Name
	case datatype.Function:
		return fmt.Sprintf("fn(%s)", joinDatatypes(root, dt.Elements))
	case datatype.Funcptr:
		return fmt.Sprintf("fnptr(%s) -> %s", joinDatatypes(root, dt.Elements), formatDatatype(root, dt.Element))
	case datatype.Template:
		return "template"
	case datatype.Class:
		return fmt.Sprintf("class#%d", dt.Class)
	case datatype.Null:
		return "null"
	case datatype.None:
		return "none"
	case datatype.Expr:
		return "expr"
	default:
		return "?"
	}
}

func joinDatatypes(root *hir.Root, ids []datatype.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = formatDatatype(root, id)
	}
	return strings.Join(parts, ", ")
}
