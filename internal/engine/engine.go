// Package engine ties the tiers together into one session: a data tape
// that persists across runs, an optimization policy and a selected
// back end. The REPL keeps a single Engine alive so cell state carries
// over from line to line.
package engine

import (
	"fmt"
	"io"
	"os"

	"github.com/nilern/bfg/internal/bytecode"
	"github.com/nilern/bfg/internal/codegen/aot"
	"github.com/nilern/bfg/internal/codegen/threaded"
	"github.com/nilern/bfg/internal/core"
	"github.com/nilern/bfg/internal/vm"
)

// Backend selects the execution tier.
type Backend int

const (
	BackendTree     Backend = iota // tree-walking reference interpreter
	BackendBytecode                // portable packed-word interpreter
	BackendThreaded                // threaded-dispatch native routine
	BackendAOT                     // per-program native code
)

// backendNames maps CLI names to back ends.
var backendNames = map[string]Backend{
	"tree": BackendTree,
	"rs":   BackendBytecode,
	"asm":  BackendThreaded,
	"aot":  BackendAOT,
}

// ParseBackend resolves a CLI back-end name.
func ParseBackend(name string) (Backend, error) {
	b, ok := backendNames[name]
	if !ok {
		return 0, fmt.Errorf("engine: unknown back end %q", name)
	}
	return b, nil
}

// Engine is one execution session.
type Engine struct {
	opt      core.OptLevel
	backend  Backend
	tapeSize int
	tape     []byte
	in       io.Reader
	out      io.Writer
	threaded *threaded.VM
}

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithOptLevel sets the optimization level (default O1).
func WithOptLevel(level core.OptLevel) Option {
	return func(e *Engine) {
		e.opt = level
	}
}

// WithBackend sets the execution tier (default AOT).
func WithBackend(b Backend) Option {
	return func(e *Engine) {
		e.backend = b
	}
}

// WithTapeSize sets the session tape size (default 30000).
func WithTapeSize(size int) Option {
	return func(e *Engine) {
		e.tapeSize = size
	}
}

// WithInput sets the input reader for the portable back ends (default
// os.Stdin). The native back ends always read fd 0.
func WithInput(r io.Reader) Option {
	return func(e *Engine) {
		e.in = r
	}
}

// WithOutput sets the output writer for the portable back ends (default
// os.Stdout). The native back ends always write fd 1.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.out = w
	}
}

// New creates a session. For the threaded back end the dispatch
// routine is emitted here, once, and reused by every Run.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		opt:      core.O1,
		backend:  BackendAOT,
		tapeSize: core.TapeSize,
		in:       os.Stdin,
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tape = make([]byte, e.tapeSize)

	if e.backend == BackendThreaded {
		v, err := threaded.Build()
		if err != nil {
			return nil, err
		}
		e.threaded = v
	}
	return e, nil
}

// Run parses, optimizes and executes one program against the session
// tape. The tape is not reset between runs.
func (e *Engine) Run(src []byte) error {
	ir, err := core.Parse(core.Tokenize(src))
	if err != nil {
		return err
	}
	ir = core.OptimizeWithLevel(ir, e.opt)

	switch e.backend {
	case BackendTree:
		m := vm.New(vm.WithTape(e.tape), vm.WithInput(e.in), vm.WithOutput(e.out))
		return m.Run(ir)

	case BackendBytecode:
		return bytecode.Run(bytecode.Assemble(ir), e.tape, e.in, e.out)

	case BackendThreaded:
		e.threaded.Run(bytecode.Assemble(ir), e.tape)
		return nil

	case BackendAOT:
		prog, err := aot.Compile(ir)
		if err != nil {
			return err
		}
		defer prog.Close()
		prog.Run(e.tape)
		return nil
	}
	panic("engine: unknown back end")
}

// Tape returns the session tape.
func (e *Engine) Tape() []byte {
	return e.tape
}

// Reset zeroes the session tape.
func (e *Engine) Reset() {
	clear(e.tape)
}

// Close releases any emitted native code.
func (e *Engine) Close() error {
	if e.threaded != nil {
		return e.threaded.Close()
	}
	return nil
}
