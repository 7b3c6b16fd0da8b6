// Command bfg runs programs in a minimal tape-based language through a
// progression of back ends: a tree interpreter, a packed-bytecode
// interpreter, a threaded-code routine emitted at startup and a native
// ahead-of-time compiler. It can also write standalone executables and
// assembly text. With no file argument it starts a REPL whose tape
// persists across lines.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/nilern/bfg/internal/codegen/gas"
	"github.com/nilern/bfg/internal/codegen/linux"
	"github.com/nilern/bfg/internal/core"
	"github.com/nilern/bfg/internal/engine"
)

var (
	optLevel = flag.IntP("opt", "O", 1, "optimization level: 0 (raw IR) or 1 (peephole); other values warn and use 1")
	backend  = flag.StringP("backend", "b", "aot", "back end: rs, asm, aot, tree, elf or gas")
	output   = flag.StringP("output", "o", "", "output file for the elf and gas back ends")
	dump     = flag.String("dump", "", "dump front-end output (tokens or ir) and exit")
	help     = flag.BoolP("help", "h", false, "print usage and exit")
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: bfg [options] [<filename>]

Runs <filename> once, or starts a REPL when no file is given. The REPL
tape persists across lines.

options:`)
	flag.PrintDefaults()
}

// parseOptLevel maps the flag value to a level. Anything out of range
// is diagnosed and execution proceeds at the default level.
func parseOptLevel(level int) core.OptLevel {
	switch level {
	case 0:
		return core.O0
	case 1:
		return core.O1
	default:
		fmt.Fprintf(os.Stderr, "unsupported optimization level %d, using 1\n", level)
		return core.O1
	}
}

func readSource(file string) []byte {
	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return src
}

// compileIR runs the front end over a source file.
func compileIR(file string, level core.OptLevel) []core.Stmt {
	ir, err := core.Parse(core.Tokenize(readSource(file)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return core.OptimizeWithLevel(ir, level)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help {
		usage()
		os.Exit(0)
	}
	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "too many command line arguments")
		os.Exit(1)
	}

	level := parseOptLevel(*optLevel)

	var file string
	if flag.NArg() == 1 {
		file = filepath.Clean(flag.Arg(0))
	}

	if *dump != "" {
		if file == "" {
			fmt.Fprintln(os.Stderr, "--dump needs a filename")
			os.Exit(1)
		}
		runDump(*dump, file, level)
		return
	}

	switch *backend {
	case "elf":
		buildELF(file, *output, level)
		return
	case "gas":
		buildGas(file, *output, level)
		return
	}

	be, err := engine.ParseBackend(*backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	eng, err := engine.New(engine.WithOptLevel(level), engine.WithBackend(be))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer eng.Close()

	if file == "" {
		repl(eng)
		return
	}
	if err := eng.Run(readSource(file)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDump(mode, file string, level core.OptLevel) {
	switch mode {
	case "tokens":
		for _, tok := range core.Tokenize(readSource(file)) {
			fmt.Printf("%d:%d\t%v\n", tok.Pos.Line, tok.Pos.Column, tok.Kind)
		}
	case "ir":
		fmt.Print(core.Dump(compileIR(file, level)))
	default:
		fmt.Fprintf(os.Stderr, "unknown dump mode %q (want tokens or ir)\n", mode)
		os.Exit(1)
	}
}

// buildELF writes a standalone ELF64 Linux executable.
func buildELF(file, out string, level core.OptLevel) {
	if file == "" {
		fmt.Fprintln(os.Stderr, "the elf back end needs a filename")
		os.Exit(1)
	}
	if out == "" {
		out = strings.TrimSuffix(file, filepath.Ext(file))
		if out == file {
			out = file + ".out"
		}
	}

	image := linux.NewGenerator(compileIR(file, level)).GenerateELF()
	if err := os.WriteFile(out, image, 0755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("built %s -> %s\n", file, out)
}

// buildGas writes AT&T-syntax assembly text ("-" for stdout).
func buildGas(file, out string, level core.OptLevel) {
	if file == "" {
		fmt.Fprintln(os.Stderr, "the gas back end needs a filename")
		os.Exit(1)
	}

	asm := gas.NewGenerator(compileIR(file, level)).Generate()
	if out == "-" {
		fmt.Print(asm)
		return
	}
	if out == "" {
		out = strings.TrimSuffix(file, filepath.Ext(file)) + ".s"
	}
	if err := os.WriteFile(out, []byte(asm), 0644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("built %s -> %s\n", file, out)
}
