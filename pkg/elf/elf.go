// Package elf writes minimal ELF64 executables: a file header, one
// program header per segment and the raw segment data, no section
// headers. This package has no dependencies on engine internals.
package elf

import (
	"bytes"
	"encoding/binary"
)

// ELF64 constants.
const (
	ELFCLASS64    = 2
	ELFDATA2LSB   = 1 // little endian
	EV_CURRENT    = 1
	ELFOSABI_NONE = 0

	ET_EXEC   = 2  // executable file
	EM_X86_64 = 62 // machine type

	PT_LOAD = 1 // loadable segment

	PF_X = 0x1 // execute
	PF_W = 0x2 // write
	PF_R = 0x4 // read

	HeaderSize = 64
	PhdrSize   = 56
	PageSize   = 0x1000
)

var magic = [4]byte{0x7f, 'E', 'L', 'F'}

// header64 is the on-disk ELF64 file header; the field order and sizes
// match the format exactly, so it serializes with binary.Write.
type header64 struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	PhOff     uint64
	ShOff     uint64
	Flags     uint32
	EhSize    uint16
	PhEntSize uint16
	PhNum     uint16
	ShEntSize uint16
	ShNum     uint16
	ShStrNdx  uint16
}

// phdr64 is an on-disk ELF64 program header.
type phdr64 struct {
	Type   uint32
	Flags  uint32
	Off    uint64
	VAddr  uint64
	PAddr  uint64
	FileSz uint64
	MemSz  uint64
	Align  uint64
}

// Segment is a loadable segment to be placed in the image. BSS
// segments carry no file data; the kernel zero-fills them.
type Segment struct {
	VAddr uint64
	Data  []byte // nil for BSS
	MemSz uint64 // may exceed len(Data) for BSS
	Flags uint32 // PF_R | PF_W | PF_X
	IsBSS bool
}

// Builder accumulates segments for one executable.
type Builder struct {
	entry    uint64
	segments []Segment
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetEntry sets the entry point virtual address.
func (b *Builder) SetEntry(vaddr uint64) {
	b.entry = vaddr
}

// AddLoadSegment adds a loadable segment with file-backed data.
func (b *Builder) AddLoadSegment(data []byte, vaddr uint64, flags uint32) {
	b.segments = append(b.segments, Segment{
		VAddr: vaddr,
		Data:  data,
		MemSz: uint64(len(data)),
		Flags: flags,
	})
}

// AddBSSSegment adds a zero-initialized segment with no file data.
func (b *Builder) AddBSSSegment(vaddr, size uint64, flags uint32) {
	b.segments = append(b.segments, Segment{
		VAddr: vaddr,
		MemSz: size,
		Flags: flags,
		IsBSS: true,
	})
}

// Build serializes the image: header, program headers, padding to a
// page boundary, then the segment data in order.
func (b *Builder) Build() []byte {
	headerSize := HeaderSize + len(b.segments)*PhdrSize
	dataOffset := alignUp(uint64(headerSize), PageSize)

	hdr := header64{
		Type:      ET_EXEC,
		Machine:   EM_X86_64,
		Version:   EV_CURRENT,
		Entry:     b.entry,
		PhOff:     HeaderSize,
		EhSize:    HeaderSize,
		PhEntSize: PhdrSize,
		PhNum:     uint16(len(b.segments)),
	}
	copy(hdr.Ident[:], magic[:])
	hdr.Ident[4] = ELFCLASS64
	hdr.Ident[5] = ELFDATA2LSB
	hdr.Ident[6] = EV_CURRENT
	hdr.Ident[7] = ELFOSABI_NONE

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, &hdr)

	fileOffset := dataOffset
	for _, seg := range b.segments {
		ph := phdr64{
			Type:  PT_LOAD,
			Flags: seg.Flags,
			VAddr: seg.VAddr,
			PAddr: seg.VAddr,
			MemSz: seg.MemSz,
			Align: PageSize,
		}
		if !seg.IsBSS {
			ph.Off = fileOffset
			ph.FileSz = uint64(len(seg.Data))
			fileOffset += uint64(len(seg.Data))
		}
		binary.Write(&out, binary.LittleEndian, &ph)
	}

	out.Write(make([]byte, int(dataOffset)-out.Len()))
	for _, seg := range b.segments {
		if !seg.IsBSS {
			out.Write(seg.Data)
		}
	}

	return out.Bytes()
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
