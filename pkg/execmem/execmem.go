//go:build unix

// Package execmem owns runs of executable memory for code emitted at
// runtime. A Buffer is written once, sealed to R+X and then only
// invoked; entry pointers are weak views that die with the buffer.
package execmem

import (
	"syscall"
	"unsafe"
)

// Buffer is an immutable, executable run of machine code backed by an
// anonymous mapping.
type Buffer struct {
	mem []byte
	len int // bytes of code, <= len(mem)
}

// New maps a page-rounded anonymous region, copies code into it and
// seals it read+execute.
func New(code []byte) (*Buffer, error) {
	page := syscall.Getpagesize()
	size := (len(code) + page - 1) &^ (page - 1)

	mem, err := syscall.Mmap(-1, 0, size,
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_PRIVATE|syscall.MAP_ANON)
	if err != nil {
		return nil, err
	}
	copy(mem, code)

	if err := syscall.Mprotect(mem, syscall.PROT_READ|syscall.PROT_EXEC); err != nil {
		syscall.Munmap(mem)
		return nil, err
	}
	return &Buffer{mem: mem, len: len(code)}, nil
}

// Entry returns the address of the code byte at off. The pointer is
// valid only while the buffer is retained; Close invalidates it.
func (b *Buffer) Entry(off int) uintptr {
	if off < 0 || off >= b.len {
		panic("execmem: entry offset out of range")
	}
	return uintptr(unsafe.Pointer(&b.mem[0])) + uintptr(off)
}

// Len returns the number of code bytes in the buffer.
func (b *Buffer) Len() int {
	return b.len
}

// Close unmaps the buffer. Calling through a previously returned entry
// pointer afterwards is undefined.
func (b *Buffer) Close() error {
	if b.mem == nil {
		return nil
	}
	mem := b.mem
	b.mem = nil
	return syscall.Munmap(mem)
}
