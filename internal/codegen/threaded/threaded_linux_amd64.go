// Package threaded emits the threaded-dispatch interpreter for packed
// bytecode as native code, once per process. Each handler ends by
// re-entering decode directly; there is no central switch. Dispatch
// goes through a six-entry table of near jumps at 8-byte-aligned slots,
// reached by indexing with the opcode.
//
// Register assignment inside the emitted routine:
//
//	rbx  ip      pointer to the current word
//	rbp  ie      one-past-end pointer
//	r12  dp      tape pointer
//	r13  instr   full word, 32-bit sign-extended
//	r14  opcode  low byte of instr
//	r15  offset  instr >> 16, sign-extended
//
// Byte I/O is done with inline read(2)/write(2) syscalls on fds 0 and
// 1; the syscall clobber set (rax, rcx, r11 and the argument
// registers) is disjoint from the state registers above.
package threaded

import (
	"runtime"
	"unsafe"

	"github.com/nilern/bfg/internal/bytecode"
	"github.com/nilern/bfg/pkg/amd64"
	"github.com/nilern/bfg/pkg/execmem"
)

// Linux syscall numbers.
const (
	sysRead  = 0
	sysWrite = 1
)

// VM is the emitted routine plus the executable buffer that owns it.
// The buffer must outlive every Run.
type VM struct {
	buf   *execmem.Buffer
	entry uintptr
}

// fixup records a rel32 (or RIP-relative disp32) field awaiting a label.
type fixup struct {
	at    int // offset of the 32-bit field in the code
	label string
}

type builder struct {
	code   []byte
	labels map[string]int
	fixups []fixup
}

func (b *builder) emit(bs []byte) {
	b.code = append(b.code, bs...)
}

func (b *builder) label(name string) {
	b.labels[name] = len(b.code)
}

// jump emits a branch whose rel32 field starts relSkip bytes into the
// instruction, recording a fixup against the label.
func (b *builder) jump(ins []byte, relSkip int, label string) {
	b.fixups = append(b.fixups, fixup{at: len(b.code) + relSkip, label: label})
	b.emit(ins)
}

func (b *builder) resolve() {
	for _, f := range b.fixups {
		target, ok := b.labels[f.label]
		if !ok {
			panic("threaded: undefined label " + f.label)
		}
		amd64.PatchRel32(b.code, f.at, target)
	}
}

// alignTo pads with nops to the given boundary.
func (b *builder) alignTo(n int) {
	for len(b.code)%n != 0 {
		b.emit(amd64.Nop())
	}
}

// decode loads the word at ip and cracks it into offset and opcode.
func (b *builder) decode() {
	b.emit(amd64.MovsxdR13MemRBX()) // instr = *(int32 *)ip
	b.emit(amd64.MovR15R13())
	b.emit(amd64.SarR15Imm8(16)) // offset = instr >> 16
	b.emit(amd64.MovR14R13())
	b.emit(amd64.AndR14Imm32(0xff)) // opcode = instr & 0xff
}

// Build emits the dispatch routine into fresh executable memory. The
// routine's signature is vm(code *int32, len, tape *byte) with the
// arguments in rdi/rsi/rdx.
func Build() (*VM, error) {
	b := &builder{labels: make(map[string]int)}

	b.emit(amd64.PushRBP())
	b.emit(amd64.PushRBX())
	b.emit(amd64.PushR12())
	b.emit(amd64.PushR13())
	b.emit(amd64.PushR14())
	b.emit(amd64.PushR15())

	b.emit(amd64.MovRBXRDI())       // ip = code
	b.emit(amd64.LeaRBPMemRDIRSI4()) // ie = code + 4*len
	b.emit(amd64.MovR12RDX())       // dp = tape

	b.emit(amd64.CmpRBXRBP())
	b.jump(amd64.JgeRel32(0), 2, "end")
	b.decode()

	b.label("more")
	b.emit(amd64.AddRBXImm8(4))
	b.jump(amd64.LeaRAXRIPDisp32(0), 3, "table")
	b.emit(amd64.ShlR14Imm8(3)) // 8-byte table slots
	b.emit(amd64.AddRAXR14())
	b.emit(amd64.JmpRAX())

	b.label("padd")
	b.emit(amd64.AddR12R15())
	b.jump(amd64.JmpRel32(0), 1, "tail")

	b.label("dadd")
	b.emit(amd64.MovRAXR13())
	b.emit(amd64.AndRAXImm32(0xff00))
	b.emit(amd64.SarRAXImm8(8)) // n = (instr >> 8) & 0xff
	b.emit(amd64.AddbMemR12R15AL())
	b.jump(amd64.JmpRel32(0), 1, "tail")

	b.label("jz")
	b.emit(amd64.CmpbMemR12Zero())
	b.jump(amd64.JneRel32(0), 2, "tail")
	b.emit(amd64.ShlR15Imm8(2)) // offset is in words; scale to bytes
	b.emit(amd64.AddRBXR15())
	b.jump(amd64.JmpRel32(0), 1, "tail")

	b.label("jnz")
	b.emit(amd64.CmpbMemR12Zero())
	b.jump(amd64.JeRel32(0), 2, "tail")
	b.emit(amd64.ShlR15Imm8(2))
	b.emit(amd64.AddRBXR15())
	b.jump(amd64.JmpRel32(0), 1, "tail")

	b.label("putc")
	b.emit(amd64.LeaRSIMemR12R15())
	b.emit(amd64.MovlImm32EAX(sysWrite))
	b.emit(amd64.MovlImm32EDI(1))
	b.emit(amd64.MovlImm32EDX(1))
	b.emit(amd64.Syscall())
	b.jump(amd64.JmpRel32(0), 1, "tail")

	b.label("getc")
	b.emit(amd64.LeaRSIMemR12R15())
	b.emit(amd64.MovlImm32EAX(sysRead))
	b.emit(amd64.XorEDIEDI())
	b.emit(amd64.MovlImm32EDX(1))
	b.emit(amd64.Syscall())
	b.jump(amd64.JmpRel32(0), 1, "tail")

	b.label("tail")
	b.emit(amd64.CmpRBXRBP())
	b.jump(amd64.JgeRel32(0), 2, "end")
	b.decode()
	b.jump(amd64.JmpRel32(0), 1, "more")

	b.label("end")
	b.emit(amd64.PopR15())
	b.emit(amd64.PopR14())
	b.emit(amd64.PopR13())
	b.emit(amd64.PopR12())
	b.emit(amd64.PopRBX())
	b.emit(amd64.PopRBP())
	b.emit(amd64.Ret())

	// The jump table: one near jump per opcode at fixed 8-byte slots,
	// in opcode order. Fully initialized before the first dispatch
	// because nothing runs until Build returns.
	b.alignTo(8)
	b.label("table")
	for _, handler := range []string{"padd", "dadd", "jz", "jnz", "putc", "getc"} {
		b.jump(amd64.JmpRel32(0), 1, handler)
		b.alignTo(8)
	}

	b.resolve()

	buf, err := execmem.New(b.code)
	if err != nil {
		return nil, err
	}
	return &VM{buf: buf, entry: buf.Entry(0)}, nil
}

// Run executes packed words against the tape, mutating it in place.
// Branches land on word boundaries because word-relative targets are
// scaled by four; anything else is undefined, as is out-of-range tape
// access.
func (v *VM) Run(code []bytecode.Word, tape []byte) {
	if len(code) == 0 {
		return
	}
	execmem.Call3(v.entry,
		uintptr(unsafe.Pointer(&code[0])),
		uintptr(len(code)),
		uintptr(unsafe.Pointer(&tape[0])))
	runtime.KeepAlive(code)
	runtime.KeepAlive(tape)
	runtime.KeepAlive(v.buf)
}

// Close releases the executable buffer; the VM must not run afterwards.
func (v *VM) Close() error {
	return v.buf.Close()
}
