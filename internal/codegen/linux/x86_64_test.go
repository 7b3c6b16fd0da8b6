package linux

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/nilern/bfg/internal/core"
	"github.com/nilern/bfg/pkg/amd64"
	"github.com/nilern/bfg/pkg/elf"
)

func compile(t *testing.T, src string) []core.Stmt {
	t.Helper()
	ir, err := core.Parse(core.Tokenize([]byte(src)))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return core.Optimize(ir)
}

func TestGeneratePrologueEpilogue(t *testing.T) {
	code := NewGenerator(compile(t, "")).Generate()

	prologue := append(amd64.MovabsR13(BSSBase), amd64.XorR12R12()...)
	if !bytes.HasPrefix(code, prologue) {
		t.Errorf("missing prologue, code starts % X", code[:min(len(code), 16)])
	}

	epilogue := append(amd64.MovqImm32RAX(60), amd64.XorRDIRDI()...)
	epilogue = append(epilogue, amd64.Syscall()...)
	if !bytes.HasSuffix(code, epilogue) {
		t.Errorf("missing exit epilogue, code ends % X", code[len(code)-12:])
	}
}

func TestGenerateStatements(t *testing.T) {
	code := NewGenerator(compile(t, ">>+")).Generate()
	// PADD 2 then DADD 1 at offset 0 (the pointer move was deferred
	// into the write, and the trailing move is dropped).
	if !bytes.Contains(code, amd64.AddbImm8MemR13R12Disp32(2, 1)) {
		t.Errorf("missing shifted cell add in % X", code)
	}
	if bytes.Contains(code, amd64.AddqImm32R12(2)) {
		t.Errorf("pointer move should have been folded away in % X", code)
	}
}

// The loop branch offsets must mirror each other: the forward je lands
// just past the backward jne, which lands back at the body start.
func TestGenerateLoopFixups(t *testing.T) {
	code := NewGenerator(compile(t, "+[-]")).Generate()

	test := amd64.TestbMemR13R12()
	// Find the two test/branch sites.
	first := bytes.Index(code, test)
	if first < 0 {
		t.Fatal("no loop head emitted")
	}
	second := bytes.Index(code[first+len(test):], test)
	if second < 0 {
		t.Fatal("no loop tail emitted")
	}
	second += first + len(test)

	jeRel := int32(binary.LittleEndian.Uint32(code[first+len(test)+2:]))
	jneRel := int32(binary.LittleEndian.Uint32(code[second+len(test)+2:]))

	jeEnd := first + len(test) + 6
	jneEnd := second + len(test) + 6
	if jeEnd+int(jeRel) != jneEnd {
		t.Errorf("je lands at %d, loop exit is %d", jeEnd+int(jeRel), jneEnd)
	}
	if jneEnd+int(jneRel) != jeEnd {
		t.Errorf("jne lands at %d, body starts at %d", jneEnd+int(jneRel), jeEnd)
	}
}

func TestGenerateELFImage(t *testing.T) {
	image := NewGenerator(compile(t, "+.")).GenerateELF()

	if image[0] != 0x7f || image[1] != 'E' {
		t.Fatalf("bad magic % X", image[:4])
	}
	le := binary.LittleEndian
	if entry := le.Uint64(image[24:]); entry != CodeBase+elf.PageSize {
		t.Errorf("entry: expected %#x, got %#x", uint64(CodeBase+elf.PageSize), entry)
	}
	if phnum := le.Uint16(image[56:]); phnum != 2 {
		t.Errorf("expected 2 program headers, got %d", phnum)
	}
	// The code lands after the header page and starts with the
	// prologue.
	if !bytes.HasPrefix(image[elf.PageSize:], amd64.MovabsR13(BSSBase)) {
		t.Errorf("code segment does not start with the prologue")
	}
}
