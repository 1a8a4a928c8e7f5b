// Package modules resolves the filesystem-layout rules of spec.md §6.5: a
// package is a directory holding a package.rn manifest plus sibling .rn
// module files; an import path maps dot-separated components to nested
// directories. This package supplements the distilled spec with a
// manifest `require` line (SPEC_FULL.md §5.12) so that multi-package
// trees can declare and check version constraints on their dependencies,
// the way the teacher's package manager does for published packages.
package modules

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/mod/module"

	"github.com/google/rune-sub002/internal/diagnostics"
	"github.com/google/rune-sub002/internal/position"
)

// Requirement is one `require <dotted-path> "<constraint>"` manifest
// line: an import path and the semver range it must satisfy.
type Requirement struct {
	ImportPath string
	Constraint string
	Line       int
}

// Manifest is a parsed package.rn.
type Manifest struct {
	Name     string
	Requires []Requirement
}

// Package is one resolved directory of the import tree: its manifest,
// its sibling .rn module files, and (once Resolve walks further) its
// resolved dependency Packages keyed by import path.
type Package struct {
	Dir      string
	Manifest *Manifest
	Modules  []string // sibling .rn files, excluding package.rn
	Imports  map[string]*Package
}

// ParseManifest reads a package.rn file. Only `name "..."` and
// `require <dotted-path> "<constraint>"` lines are recognized; blank
// lines and `#`-prefixed comments are skipped. Unrecognized lines are a
// filesystem-layout error, distinct from the name-resolution/type errors
// of spec.md §7.
func ParseManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("modules: reading manifest %s: %w", path, err)
	}
	defer f.Close()

	m := &Manifest{}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "name":
			if len(fields) != 2 {
				return nil, manifestError(path, lineNo, "expected `name \"<string>\"`")
			}
			m.Name = unquote(fields[1])
		case "require":
			if len(fields) != 3 {
				return nil, manifestError(path, lineNo, "expected `require <dotted-path> \"<constraint>\"`")
			}
			m.Requires = append(m.Requires, Requirement{
				ImportPath: fields[1],
				Constraint: unquote(fields[2]),
				Line:       lineNo,
			})
		default:
			return nil, manifestError(path, lineNo, fmt.Sprintf("unrecognized manifest directive %q", fields[0]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("modules: scanning manifest %s: %w", path, err)
	}
	return m, nil
}

func unquote(s string) string {
	return strings.Trim(s, `"`)
}

func manifestError(path string, line int, msg string) *diagnostics.Diagnostic {
	span := position.Span{Start: position.Position{Filename: path, Line: line, Column: 1}}
	return diagnostics.New(diagnostics.CategoryFilesystem, diagnostics.KindIllegalImportPath, msg, span)
}

// Load reads dir's package.rn (if present) and lists its sibling .rn
// modules, without recursing into dependencies.
func Load(dir string) (*Package, error) {
	pkg := &Package{Dir: dir, Imports: map[string]*Package{}}

	manifestPath := filepath.Join(dir, "package.rn")
	if _, err := os.Stat(manifestPath); err == nil {
		m, err := ParseManifest(manifestPath)
		if err != nil {
			return nil, err
		}
		pkg.Manifest = m
	} else {
		pkg.Manifest = &Manifest{Name: filepath.Base(dir)}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("modules: reading package dir %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == "package.rn" {
			continue
		}
		if strings.HasSuffix(e.Name(), ".rn") {
			pkg.Modules = append(pkg.Modules, e.Name())
		}
	}
	return pkg, nil
}

// ValidateImportPath checks that a dotted import path's components are
// all filesystem-safe path segments, per spec.md §6.5. Dots are mapped to
// slashes before delegating to golang.org/x/mod/module's import-path
// syntax checker, since that package's rules (no empty segments, no `.`/
// `..` segments, no reserved characters) are exactly the constraint a
// directory-nesting import path needs and this spec's own import syntax
// has no other natural validator in the pack.
func ValidateImportPath(dotted string) error {
	if dotted == "" {
		return fmt.Errorf("modules: empty import path")
	}
	slashed := strings.ReplaceAll(dotted, ".", "/")
	if err := module.CheckImportPath(slashed); err != nil {
		return fmt.Errorf("modules: illegal import path %q: %w", dotted, err)
	}
	return nil
}

// DirForImportPath maps a dotted import path onto nested directories
// under root, per spec.md §6.5.
func DirForImportPath(root, dotted string) string {
	parts := strings.Split(dotted, ".")
	segs := append([]string{root}, parts...)
	return filepath.Join(segs...)
}

// CheckConstraints verifies every Requirement in pkg's manifest against
// the resolved Package it names, using available as that dependency's own
// declared version (its manifest's `version "x.y.z"` is out of this
// spec's scope; callers pass the version discovered from the dependency's
// own build metadata or VCS tag). A requirement with no matching resolved
// Package, or a version that does not satisfy the constraint, is reported
// through diagnostics rather than returned as a bare error, since this is
// a filesystem-layout error distinct from binder-time errors.
func CheckConstraints(pkg *Package, versions map[string]string, sink *diagnostics.Sink) {
	for _, req := range pkg.Manifest.Requires {
		constraint, err := semver.NewConstraint(req.Constraint)
		if err != nil {
			sink.Report(diagnostics.New(diagnostics.CategoryFilesystem, diagnostics.KindUnsatisfiedManifest,
				fmt.Sprintf("invalid version constraint %q for %s: %v", req.Constraint, req.ImportPath, err),
				requirementSpan(pkg, req)))
			continue
		}

		versionStr, ok := versions[req.ImportPath]
		if !ok {
			sink.Report(diagnostics.New(diagnostics.CategoryFilesystem, diagnostics.KindUnsatisfiedManifest,
				fmt.Sprintf("required package %q is not present in the import tree", req.ImportPath),
				requirementSpan(pkg, req)))
			continue
		}

		v, err := semver.NewVersion(versionStr)
		if err != nil {
			sink.Report(diagnostics.New(diagnostics.CategoryFilesystem, diagnostics.KindUnsatisfiedManifest,
				fmt.Sprintf("package %q has unparsable version %q: %v", req.ImportPath, versionStr, err),
				requirementSpan(pkg, req)))
			continue
		}

		if !constraint.Check(v) {
			sink.Report(diagnostics.New(diagnostics.CategoryFilesystem, diagnostics.KindUnsatisfiedManifest,
				fmt.Sprintf("package %q version %s does not satisfy constraint %q", req.ImportPath, v, req.Constraint),
				requirementSpan(pkg, req)))
		}
	}
}

func requirementSpan(pkg *Package, req Requirement) position.Span {
	p := position.Position{Filename: filepath.Join(pkg.Dir, "package.rn"), Line: req.Line, Column: 1}
	return position.Span{Start: p, End: p}
}

// FormatModuleCount is a small debug helper used by cmd/rune's -v
// (verbose) log output to report how many sibling modules a package
// resolved.
func FormatModuleCount(pkg *Package) string {
	return strconv.Itoa(len(pkg.Modules)) + " module(s)"
}
