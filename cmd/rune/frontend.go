package main

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/google/rune-sub002/internal/arena"
	"github.com/google/rune-sub002/internal/bigint"
	"github.com/google/rune-sub002/internal/builder"
	"github.com/google/rune-sub002/internal/hir"
	"github.com/google/rune-sub002/internal/rnconfig"
)

// maxTestStubs bounds how many test_N functions Parse synthesizes for a
// large source file's non-blank lines, so a big -t run doesn't enqueue an
// unbounded number of signatures.
const maxTestStubs = 64

// Program is what a frontend hands the driver: the scopes to bind from
// and the entry-point Signatures internal/binder should run.
type Program struct {
	Entries []hir.SignatureID
	Scopes  hir.Scopes
}

// DemoFrontend stands in for the (external, unbuilt) lexer/parser of
// spec.md §6.2: "every production has a corresponding HIR builder call."
// Rather than accept or reject real rune syntax, it drives the same
// internal/builder.Builder interface a real parser would, building one
// `main` entry that prints the source's provenance and, under -t, one
// `test_<n>` entry per non-blank source line that returns the line's
// byte length. That is enough surface to exercise the CLI, the binder,
// and internal/verify end-to-end on real file bytes without requiring
// the real front end.
type DemoFrontend struct{}

// Parse builds pkgBlock's HIR program from src and returns its entry
// Signatures. filename is used only for the printed compile banner.
func (DemoFrontend) Parse(root *hir.Root, b builder.Builder, src []byte, filename string, cfg *rnconfig.Config, log *rnconfig.Logger) (*Program, error) {
	pkgBlock := b.Block(hir.FunctionBlock, arena.NoHandle, arena.NoHandle)

	mainFn := b.Function(pkgBlock, "main", hir.FuncPlain, hir.LinkageModule, hir.Span{})
	main := root.Functions.Get(mainFn)
	emitPrint(b, main.Body, fmt.Sprintf("compiling %s (%d bytes)", filename, len(src)))

	mainSig, _ := root.FindOrCreateSignature(mainFn, nil, arena.NoHandle, arena.NoHandle)
	entries := []hir.SignatureID{mainSig}

	if cfg.RunTests {
		lines, dropped := nonBlankLines(src, maxTestStubs)
		if dropped > 0 {
			log.Warn("source has more than %d non-blank lines; %d excluded from -t stubs", maxTestStubs, dropped)
		}
		for i, line := range lines {
			name := fmt.Sprintf("test_%d", i)
			testFn := b.Function(pkgBlock, name, hir.FuncPlain, hir.LinkageModule, hir.Span{})
			fn := root.Functions.Get(testFn)
			emitReturnLen(b, fn.Body, line)
			sig, _ := root.FindOrCreateSignature(testFn, nil, arena.NoHandle, arena.NoHandle)
			entries = append(entries, sig)
		}
	}

	return &Program{Entries: entries, Scopes: hir.Scopes{Root: pkgBlock}}, nil
}

func emitPrint(b builder.Builder, block hir.BlockID, text string) {
	lit := b.Literal(hir.Span{}, text)
	b.Statement(block, hir.StmtPrint, lit, arena.NoHandle, hir.Line{})
}

func emitReturnLen(b builder.Builder, block hir.BlockID, line string) {
	n, _ := bigint.FromInt64(32, true, false, int64(len(line)))
	lit := b.Literal(hir.Span{}, n)
	b.Statement(block, hir.StmtReturn, lit, arena.NoHandle, hir.Line{})
}

// nonBlankLines returns up to limit non-blank lines of src, plus the
// count of further non-blank lines that were dropped.
func nonBlankLines(src []byte, limit int) ([]string, int) {
	var lines []string
	dropped := 0
	scanner := bufio.NewScanner(bytes.NewReader(src))
	for scanner.Scan() {
		line := scanner.Text()
		if len(bytes.TrimSpace([]byte(line))) == 0 {
			continue
		}
		if len(lines) >= limit {
			dropped++
			continue
		}
		lines = append(lines, line)
	}
	return lines, dropped
}
