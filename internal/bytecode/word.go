// Package bytecode packs IR statements into 32-bit instruction words
// and provides the portable interpreter over them.
//
// Word layout (signed 32-bit):
//
//	bits 0..7   opcode (core.OpKind, 0..5)
//	bits 8..15  signed 8-bit cell delta n (DADD only)
//	bits 16..31 signed 16-bit offset/delta/target
//
// Decoding is branchless: opcode = w & 0xff, offset = w >> 16 with an
// arithmetic shift, n = byte(w >> 8) reinterpreted as signed.
package bytecode

import "github.com/nilern/bfg/internal/core"

// Word is one packed instruction.
type Word int32

const (
	opcodeMask = 0xff
	nShift     = 8
	offShift   = 16
)

// Pack encodes a single IR statement.
func Pack(st core.Stmt) Word {
	w := Word(st.Kind) | Word(st.Off)<<offShift
	if st.Kind == core.OpDAdd {
		w |= Word(uint8(st.N)) << nShift
	}
	return w
}

// Unpack decodes a word back into an IR statement. It assumes the word
// was produced by Pack; an out-of-range opcode panics.
func Unpack(w Word) core.Stmt {
	kind := core.OpKind(w & opcodeMask)
	if kind > core.OpGetc {
		panic("bytecode: corrupt opcode")
	}
	st := core.Stmt{Kind: kind, Off: int16(w >> offShift)}
	if kind == core.OpDAdd {
		st.N = int8(uint8(w >> nShift))
	}
	return st
}

// Assemble packs a whole IR sequence, one word per statement, in order.
// Branch targets stay relative in IR-word units, which are word units
// here since the packing is 1:1.
func Assemble(ir []core.Stmt) []Word {
	words := make([]Word, len(ir))
	for i, st := range ir {
		words[i] = Pack(st)
	}
	return words
}
