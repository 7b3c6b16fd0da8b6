package core

import (
	"fmt"
	"strings"
)

// OpKind identifies the kind of IR statement. The numeric values double
// as the packed bytecode opcodes, so the order is load-bearing.
type OpKind int

const (
	OpPAdd OpKind = iota // PADD d
	OpDAdd               // DADD n, off
	OpJz                 // JZ t
	OpJnz                // JNZ t
	OpPutc               // PUTC off
	OpGetc               // GETC off
)

// opNames maps each OpKind to its string representation for debugging.
var opNames = [...]string{
	OpPAdd: "PADD",
	OpDAdd: "DADD",
	OpJz:   "JZ",
	OpJnz:  "JNZ",
	OpPutc: "PUTC",
	OpGetc: "GETC",
}

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	return opNames[k]
}

// Stmt is one IR statement. Off carries the pointer delta for PADD, the
// cell offset for DADD/PUTC/GETC and the relative branch target for
// JZ/JNZ; N is the cell delta of DADD. The fields mirror the packed
// bytecode word, so every statement packs without loss.
type Stmt struct {
	Kind OpKind
	N    int8
	Off  int16
}

func PAdd(delta int16) Stmt       { return Stmt{Kind: OpPAdd, Off: delta} }
func DAdd(n int8, off int16) Stmt { return Stmt{Kind: OpDAdd, N: n, Off: off} }
func Jz(target int16) Stmt        { return Stmt{Kind: OpJz, Off: target} }
func Jnz(target int16) Stmt       { return Stmt{Kind: OpJnz, Off: target} }
func Putc(off int16) Stmt         { return Stmt{Kind: OpPutc, Off: off} }
func Getc(off int16) Stmt         { return Stmt{Kind: OpGetc, Off: off} }

// Dump returns a formatted string representation of the IR stream.
func Dump(ir []Stmt) string {
	var out strings.Builder

	for i, st := range ir {
		switch st.Kind {
		case OpPAdd:
			fmt.Fprintf(&out, "%03d: PADD %+d\n", i, st.Off)
		case OpDAdd:
			fmt.Fprintf(&out, "%03d: DADD %+d, %d\n", i, st.N, st.Off)
		case OpJz:
			fmt.Fprintf(&out, "%03d: JZ   %+d\n", i, st.Off)
		case OpJnz:
			fmt.Fprintf(&out, "%03d: JNZ  %+d\n", i, st.Off)
		case OpPutc:
			fmt.Fprintf(&out, "%03d: PUTC %d\n", i, st.Off)
		case OpGetc:
			fmt.Fprintf(&out, "%03d: GETC %d\n", i, st.Off)
		}
	}
	return out.String()
}
