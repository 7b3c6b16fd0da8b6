package bytecode

import (
	"fmt"
	"io"

	"github.com/nilern/bfg/internal/core"
)

// Run executes packed words against the given tape. It is the portable
// fallback back end: a tight decode-dispatch loop, no emitted code.
//
// Tape accesses are not bounds checked; out-of-range programs are
// undefined (in practice a slice panic). EOF on input leaves the cell
// unchanged, matching read(2) in the native back ends. Any other I/O
// failure aborts execution; side effects already performed stay.
func Run(code []Word, tape []byte, in io.Reader, out io.Writer) error {
	var buf [1]byte
	ip, dp := 0, 0

	for ip < len(code) {
		w := code[ip]
		ip++
		off := int(w >> offShift)

		switch core.OpKind(w & opcodeMask) {
		case core.OpPAdd:
			dp += off

		case core.OpDAdd:
			tape[dp+off] += byte(w >> nShift)

		case core.OpJz:
			if tape[dp] == 0 {
				ip += off
			}

		case core.OpJnz:
			if tape[dp] != 0 {
				ip += off
			}

		case core.OpPutc:
			buf[0] = tape[dp+off]
			if _, err := out.Write(buf[:]); err != nil {
				return fmt.Errorf("bytecode: write: %w", err)
			}

		case core.OpGetc:
			n, err := in.Read(buf[:])
			if n == 1 {
				tape[dp+off] = buf[0]
			}
			if err != nil && err != io.EOF {
				return fmt.Errorf("bytecode: read: %w", err)
			}

		default:
			panic("bytecode: corrupt opcode")
		}
	}

	return nil
}
