package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/rune-sub002/internal/rnconfig"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFlagsResolvesDefaults(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.rn", "println(\"hi\")\n")

	cfg, err := parseFlags([]string{src})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SourceFile != src {
		t.Fatalf("expected source file %q, got %q", src, cfg.SourceFile)
	}
	if cfg.Backend != rnconfig.BackendLLVM {
		t.Fatalf("expected default backend llvm, got %q", cfg.Backend)
	}
	if cfg.OutputPath == "" {
		t.Fatal("expected a non-empty default output path")
	}
}

func TestParseFlagsRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.rn", "println(\"hi\")\n")

	if _, err := parseFlags([]string{"-l", "wasm", src}); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}

func TestParseFlagsRejectsMissingSourceFile(t *testing.T) {
	if _, err := parseFlags([]string{"-g"}); err == nil {
		t.Fatal("expected an error when no source file is given")
	}
}

func TestParseFlagsSharesWatchAndWAliases(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.rn", "println(\"hi\")\n")

	cfg, err := parseFlags([]string{"--watch", src})
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Watch {
		t.Fatal("expected --watch to set Watch")
	}
}

func TestCompileOnceSucceedsAndWritesOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.rn", "println(\"hello\")\n")
	out := filepath.Join(dir, "main.o")

	cfg := &rnconfig.Config{
		SourceFile: src,
		PackageDir: dir,
		Backend:    rnconfig.BackendC,
		OutputPath: out,
	}
	log := rnconfig.NewLogger(false, false)

	if code := compileOnce(cfg, log); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected a non-empty object file")
	}
}

func TestCompileOnceStrictModeInvertsExitCode(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.rn", "println(\"hello\")\n")
	out := filepath.Join(dir, "main.o")

	cfg := &rnconfig.Config{
		SourceFile: src,
		PackageDir: dir,
		Backend:    rnconfig.BackendC,
		OutputPath: out,
		StrictMode: true,
	}
	log := rnconfig.NewLogger(false, false)

	if code := compileOnce(cfg, log); code != 1 {
		t.Fatalf("expected strict mode to invert a successful compile to exit code 1, got %d", code)
	}
}

func TestCompileOnceMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "main.o")

	cfg := &rnconfig.Config{
		SourceFile: filepath.Join(dir, "missing.rn"),
		PackageDir: dir,
		Backend:    rnconfig.BackendLLVM,
		OutputPath: out,
	}
	log := rnconfig.NewLogger(false, false)

	if code := compileOnce(cfg, log); code != 1 {
		t.Fatalf("expected exit code 1 for a missing source file, got %d", code)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected an LLVM placeholder output file: %v", err)
	}
}

func TestCompileOnceWithRunTestsEntersTestStubs(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "main.rn", "println(\"a\")\nprintln(\"b\")\nprintln(\"c\")\n")
	out := filepath.Join(dir, "main.o")

	cfg := &rnconfig.Config{
		SourceFile: src,
		PackageDir: dir,
		Backend:    rnconfig.BackendC,
		OutputPath: out,
		RunTests:   true,
	}
	log := rnconfig.NewLogger(false, false)

	if code := compileOnce(cfg, log); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"fn main", "fn test_0", "fn test_1", "fn test_2"} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected object listing to mention %q, got:\n%s", want, data)
		}
	}
}
