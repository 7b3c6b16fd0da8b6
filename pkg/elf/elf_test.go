package elf

import (
	"encoding/binary"
	"testing"
)

func TestBuildLayout(t *testing.T) {
	code := []byte{0xC3}

	b := NewBuilder()
	b.SetEntry(0x401000)
	b.AddLoadSegment(code, 0x401000, PF_R|PF_X)
	b.AddBSSSegment(0x600000, 30000, PF_R|PF_W)
	image := b.Build()

	if len(image) != PageSize+len(code) {
		t.Fatalf("expected %d bytes, got %d", PageSize+len(code), len(image))
	}

	// Identification.
	if image[0] != 0x7f || image[1] != 'E' || image[2] != 'L' || image[3] != 'F' {
		t.Errorf("bad magic % X", image[:4])
	}
	if image[4] != ELFCLASS64 || image[5] != ELFDATA2LSB {
		t.Errorf("bad class/data %d/%d", image[4], image[5])
	}

	le := binary.LittleEndian
	if typ := le.Uint16(image[16:]); typ != ET_EXEC {
		t.Errorf("type: expected %d, got %d", ET_EXEC, typ)
	}
	if machine := le.Uint16(image[18:]); machine != EM_X86_64 {
		t.Errorf("machine: expected %d, got %d", EM_X86_64, machine)
	}
	if entry := le.Uint64(image[24:]); entry != 0x401000 {
		t.Errorf("entry: expected %#x, got %#x", 0x401000, entry)
	}
	if phnum := le.Uint16(image[56:]); phnum != 2 {
		t.Errorf("phnum: expected 2, got %d", phnum)
	}

	// First program header: the code segment, page-aligned file data.
	ph := image[HeaderSize : HeaderSize+PhdrSize]
	if typ := le.Uint32(ph[0:]); typ != PT_LOAD {
		t.Errorf("phdr type: expected PT_LOAD, got %d", typ)
	}
	if flags := le.Uint32(ph[4:]); flags != PF_R|PF_X {
		t.Errorf("phdr flags: expected R+X, got %#x", flags)
	}
	if off := le.Uint64(ph[8:]); off != PageSize {
		t.Errorf("phdr offset: expected %#x, got %#x", PageSize, off)
	}
	if filesz := le.Uint64(ph[32:]); filesz != uint64(len(code)) {
		t.Errorf("phdr filesz: expected %d, got %d", len(code), filesz)
	}

	// Second program header: the BSS tape, no file data.
	ph = image[HeaderSize+PhdrSize : HeaderSize+2*PhdrSize]
	if filesz := le.Uint64(ph[32:]); filesz != 0 {
		t.Errorf("bss filesz: expected 0, got %d", filesz)
	}
	if memsz := le.Uint64(ph[40:]); memsz != 30000 {
		t.Errorf("bss memsz: expected 30000, got %d", memsz)
	}

	// The code bytes land at the page boundary.
	if image[PageSize] != 0xC3 {
		t.Errorf("expected code at %#x, got %#02x", PageSize, image[PageSize])
	}
}
