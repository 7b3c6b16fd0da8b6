// Package amd64 provides x86_64 (AMD64) machine code encoding utilities.
// This package has no dependencies on engine internals and can be used
// standalone for generating x86_64 machine code.
package amd64

import "encoding/binary"

// writeLE32 writes a 32-bit value in little-endian order.
func writeLE32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// writeLE64 writes a 64-bit value in little-endian order.
func writeLE64(buf []byte, v uint64) {
	binary.LittleEndian.PutUint64(buf, v)
}

// PatchRel32 patches a rel32 field at off so that it reaches target,
// both given as offsets into code. The field is relative to the end of
// the instruction, which is the four bytes following off.
func PatchRel32(code []byte, off, target int) {
	binary.LittleEndian.PutUint32(code[off:], uint32(int32(target-(off+4))))
}
