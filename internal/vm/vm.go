// Package vm provides the tree-walking interpreter that executes IR
// directly. It is the reference back end: the slowest tier, but the one
// the others are tested against.
package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nilern/bfg/internal/core"
)

// ErrStepLimit is returned when a configured step limit is exhausted
// before the program terminates.
var ErrStepLimit = errors.New("vm: step limit reached")

// EOFBehavior specifies how the VM handles EOF on input.
type EOFBehavior int

const (
	EOFNoChange EOFBehavior = iota // leave the cell unchanged (default)
	EOFZero                        // set cell to 0
	EOFMinusOne                    // set cell to 255
)

// VM executes IR statements against a data tape.
type VM struct {
	tape        []byte
	tapeSize    int
	input       io.Reader
	output      io.Writer
	eofBehavior EOFBehavior
	stepLimit   int
	ioBuf       [1]byte // reusable I/O buffer to avoid allocations
}

// Option is a functional option for configuring a VM.
type Option func(*VM)

// WithTapeSize sets the tape size (default 30000).
func WithTapeSize(size int) Option {
	return func(v *VM) {
		v.tapeSize = size
	}
}

// WithTape runs against a caller-owned tape instead of allocating one.
// Runs mutate it in place, which is how a session keeps cell state
// across programs.
func WithTape(tape []byte) Option {
	return func(v *VM) {
		v.tape = tape
	}
}

// WithInput sets the input reader (default os.Stdin).
func WithInput(r io.Reader) Option {
	return func(v *VM) {
		v.input = r
	}
}

// WithOutput sets the output writer (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(v *VM) {
		v.output = w
	}
}

// WithEOFBehavior sets the EOF handling behavior (default EOFNoChange).
func WithEOFBehavior(b EOFBehavior) Option {
	return func(v *VM) {
		v.eofBehavior = b
	}
}

// WithStepLimit bounds execution to n statements; 0 means unlimited.
// Useful for exercising non-terminating programs under test.
func WithStepLimit(n int) Option {
	return func(v *VM) {
		v.stepLimit = n
	}
}

// New creates a VM with the given options.
func New(opts ...Option) *VM {
	v := &VM{
		tapeSize: core.TapeSize,
		input:    os.Stdin,
		output:   os.Stdout,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.tape == nil {
		v.tape = make([]byte, v.tapeSize)
	}
	return v
}

// Tape returns the VM's data tape.
func (v *VM) Tape() []byte {
	return v.tape
}

// Run executes the given IR. Tape accesses are not bounds checked;
// out-of-range programs are undefined.
func (v *VM) Run(ir []core.Stmt) error {
	tape := v.tape
	pc, dp := 0, 0
	steps := 0

	for pc < len(ir) {
		if v.stepLimit > 0 {
			if steps++; steps > v.stepLimit {
				return ErrStepLimit
			}
		}

		st := ir[pc]
		pc++

		switch st.Kind {
		case core.OpPAdd:
			dp += int(st.Off)

		case core.OpDAdd:
			tape[dp+int(st.Off)] += byte(st.N)

		case core.OpJz:
			if tape[dp] == 0 {
				pc += int(st.Off)
			}

		case core.OpJnz:
			if tape[dp] != 0 {
				pc += int(st.Off)
			}

		case core.OpPutc:
			v.ioBuf[0] = tape[dp+int(st.Off)]
			if _, err := v.output.Write(v.ioBuf[:]); err != nil {
				return fmt.Errorf("vm: write: %w", err)
			}

		case core.OpGetc:
			n, err := v.input.Read(v.ioBuf[:])
			switch {
			case n == 1:
				tape[dp+int(st.Off)] = v.ioBuf[0]
			case err == io.EOF || n == 0 && err == nil:
				switch v.eofBehavior {
				case EOFZero:
					tape[dp+int(st.Off)] = 0
				case EOFMinusOne:
					tape[dp+int(st.Off)] = 255
				}
			}
			if err != nil && err != io.EOF {
				return fmt.Errorf("vm: read: %w", err)
			}
		}
	}

	return nil
}
