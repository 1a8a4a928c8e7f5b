package modules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/rune-sub002/internal/diagnostics"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadReadsManifestAndSiblingModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.rn", "name \"graph\"\nrequire list.util \">=1.0.0,<2.0.0\"\n")
	writeFile(t, dir, "a.rn", "// module a")
	writeFile(t, dir, "b.rn", "// module b")

	pkg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Manifest.Name != "graph" {
		t.Fatalf("expected manifest name 'graph', got %q", pkg.Manifest.Name)
	}
	if len(pkg.Manifest.Requires) != 1 || pkg.Manifest.Requires[0].ImportPath != "list.util" {
		t.Fatalf("expected one requirement on list.util, got %+v", pkg.Manifest.Requires)
	}
	if len(pkg.Modules) != 2 {
		t.Fatalf("expected 2 sibling .rn modules, got %d", len(pkg.Modules))
	}
}

func TestLoadWithoutManifestDefaultsNameToDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "only.rn", "// module only")

	pkg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if pkg.Manifest.Name != filepath.Base(dir) {
		t.Fatalf("expected default manifest name %q, got %q", filepath.Base(dir), pkg.Manifest.Name)
	}
}

func TestParseManifestRejectsUnrecognizedDirective(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.rn")
	writeFile(t, dir, "package.rn", "bogus directive\n")

	if _, err := ParseManifest(path); err == nil {
		t.Fatal("expected an error for an unrecognized manifest directive")
	}
}

func TestValidateImportPathRejectsIllegalSegments(t *testing.T) {
	if err := ValidateImportPath("list.util"); err != nil {
		t.Fatalf("expected list.util to validate, got %v", err)
	}
	if err := ValidateImportPath(""); err == nil {
		t.Fatal("expected empty import path to be rejected")
	}
	if err := ValidateImportPath("list..util"); err == nil {
		t.Fatal("expected an empty path segment to be rejected")
	}
}

func TestDirForImportPathMapsDotsToDirectories(t *testing.T) {
	got := DirForImportPath("/pkgs", "list.util")
	want := filepath.Join("/pkgs", "list", "util")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCheckConstraintsReportsUnsatisfiedVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.rn", "name \"graph\"\nrequire list.util \">=2.0.0\"\n")
	pkg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	sink := diagnostics.NewSink()
	CheckConstraints(pkg, map[string]string{"list.util": "1.2.0"}, sink)
	if !sink.HasErrors() {
		t.Fatal("expected an unsatisfied-constraint diagnostic")
	}
}

func TestCheckConstraintsAcceptsSatisfiedVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.rn", "name \"graph\"\nrequire list.util \">=1.0.0,<2.0.0\"\n")
	pkg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	sink := diagnostics.NewSink()
	CheckConstraints(pkg, map[string]string{"list.util": "1.2.0"}, sink)
	if sink.HasErrors() {
		t.Fatalf("expected no diagnostics, got %v", sink.Diagnostics())
	}
}
