// Command rune is the driver of spec.md §6.1's command-line surface:
// `compile [flags] <file>`. It wires the HIR database (internal/hir),
// the construction API (internal/builder), the binder fixpoint engine
// (internal/binder), and post-bind verification (internal/verify) into
// a single compile pipeline, delegating the lexer/parser/codegen stages
// — all out of this spec's scope — to the DemoFrontend/Backend stand-ins
// in this package.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/rune-sub002/internal/binder"
	"github.com/google/rune-sub002/internal/builder"
	"github.com/google/rune-sub002/internal/diagnostics"
	"github.com/google/rune-sub002/internal/hir"
	"github.com/google/rune-sub002/internal/modules"
	"github.com/google/rune-sub002/internal/rnconfig"
	"github.com/google/rune-sub002/internal/verify"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := rnconfig.NewLogger(cfg.Verbose, cfg.Verbose)

	if !cfg.Watch {
		os.Exit(compileOnce(cfg, log))
	}

	if err := watchAndRecompile(cfg, log); err != nil {
		log.Error("watch mode failed: %v", err)
		os.Exit(1)
	}
}

// parseFlags resolves spec.md §6.1's flags plus SPEC_FULL.md §5.11's -w
// supplement into a *rnconfig.Config. It is kept separate from main so
// tests can drive it without touching the process's real argv/exit.
func parseFlags(args []string) (*rnconfig.Config, error) {
	fs := flag.NewFlagSet("rune", flag.ContinueOnError)
	debug := fs.Bool("g", false, "emit debug symbols in the generated binary")
	backend := fs.String("l", string(rnconfig.BackendLLVM), "code generation backend: llvm or c")
	runTests := fs.Bool("t", false, "run unit tests")
	strict := fs.Bool("x", false, "strict-error mode: invert the exit code for the test harness")
	out := fs.String("o", "", "output path")
	watch := fs.Bool("w", false, "re-run the pipeline on source changes")
	fs.BoolVar(watch, "watch", false, "alias of -w")
	verbose := fs.Bool("v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("rune: expected exactly one source file, got %d", fs.NArg())
	}

	b := rnconfig.Backend(*backend)
	if b != rnconfig.BackendLLVM && b != rnconfig.BackendC {
		return nil, fmt.Errorf("rune: unknown backend %q (want llvm or c)", *backend)
	}

	source := fs.Arg(0)
	outputPath := *out
	if outputPath == "" {
		outputPath = defaultOutputPath(source, b)
	}

	return &rnconfig.Config{
		SourceFile: source,
		PackageDir: filepath.Dir(source),
		Debug:      *debug,
		Backend:    b,
		RunTests:   *runTests,
		StrictMode: *strict,
		OutputPath: outputPath,
		Watch:      *watch,
		Verbose:    *verbose,
	}, nil
}

func defaultOutputPath(source string, b rnconfig.Backend) string {
	ext := ".o"
	if b == rnconfig.BackendC {
		ext = ".c.out"
	}
	return source[:len(source)-len(filepath.Ext(source))] + ext
}

// compileOnce runs the full pipeline once and returns the process exit
// code spec.md §6.1/§7 specify: 0 on success, 1 on compile error, with
// -x inverting that mapping so the test harness can assert an input
// must fail.
func compileOnce(cfg *rnconfig.Config, log *rnconfig.Logger) int {
	ok := compile(cfg, log)
	if cfg.StrictMode {
		ok = !ok
	}
	if ok {
		return 0
	}
	return 1
}

// compile reports whether cfg.SourceFile compiled with zero diagnostics.
// On an LLVM-backend failure it still writes a zero-byte placeholder to
// cfg.OutputPath (spec.md §6.1) so downstream tooling depending on the
// output file's existence doesn't spuriously fail.
func compile(cfg *rnconfig.Config, log *rnconfig.Logger) bool {
	src, err := os.ReadFile(cfg.SourceFile)
	if err != nil {
		log.Error("reading %s: %v", cfg.SourceFile, err)
		placeholderOnFailure(cfg)
		return false
	}

	pkg, err := modules.Load(cfg.PackageDir)
	if err != nil {
		log.Error("loading package %s: %v", cfg.PackageDir, err)
		placeholderOnFailure(cfg)
		return false
	}
	log.Info("package %s: %s", pkg.Dir, modules.FormatModuleCount(pkg))

	manifestSink := diagnostics.NewSink()
	modules.CheckConstraints(pkg, nil, manifestSink)
	if manifestSink.HasErrors() {
		reportAll(manifestSink, log)
		placeholderOnFailure(cfg)
		return false
	}

	root := hir.Start()
	defer root.Stop()

	b := builder.New(root)
	prog, err := DemoFrontend{}.Parse(root, b, src, cfg.SourceFile, cfg, log)
	if err != nil {
		log.Error("parsing %s: %v", cfg.SourceFile, err)
		placeholderOnFailure(cfg)
		return false
	}

	bindSink := diagnostics.NewSink()
	eng := binder.New(root, bindSink)
	if err := eng.Run(prog.Entries, prog.Scopes); err != nil {
		log.Error("binder: %v", err)
	}
	if bindSink.HasErrors() {
		reportAll(bindSink, log)
		placeholderOnFailure(cfg)
		return false
	}

	verifySink, err := verify.Run(root)
	if err != nil {
		log.Error("verify: %v", err)
		placeholderOnFailure(cfg)
		return false
	}
	if verifySink.HasErrors() {
		reportAll(verifySink, log)
		placeholderOnFailure(cfg)
		return false
	}

	backend := NewBackend(cfg.Backend)
	object, err := backend.Emit(root, prog.Entries, cfg)
	if err != nil {
		log.Error("codegen: %v", err)
		placeholderOnFailure(cfg)
		return false
	}
	if err := os.WriteFile(cfg.OutputPath, object, 0o644); err != nil {
		log.Error("writing %s: %v", cfg.OutputPath, err)
		return false
	}
	log.Info("wrote %s (%d bytes, backend=%s)", cfg.OutputPath, len(object), backend.Name())
	return true
}

func placeholderOnFailure(cfg *rnconfig.Config) {
	if cfg.Backend != rnconfig.BackendLLVM {
		return
	}
	_ = os.WriteFile(cfg.OutputPath, nil, 0o644)
}

// reportAll prints every Diagnostic in sink to stderr via log, in source
// order (diagnostics.Sink.Diagnostics already sorts them).
func reportAll(sink *diagnostics.Sink, log *rnconfig.Logger) {
	for _, d := range sink.Diagnostics() {
		log.Error("%s", d.Render(false))
	}
}
