// Package aot emits straight-line native code for one IR program. The
// emitted routine's signature is fn(tape *byte) with the tape pointer
// in rdi; it is held in rbx (callee-save) for the whole run. Loops
// become label pairs resolved with rel32 fixups after emission, and
// byte I/O is inline read(2)/write(2) syscalls on fds 0 and 1.
package aot

import (
	"runtime"
	"unsafe"

	"github.com/nilern/bfg/internal/core"
	"github.com/nilern/bfg/pkg/amd64"
	"github.com/nilern/bfg/pkg/execmem"
)

// Linux syscall numbers.
const (
	sysRead  = 0
	sysWrite = 1
)

// Program is one compiled guest program: the executable buffer and its
// entry point. The buffer must outlive every Run.
type Program struct {
	buf   *execmem.Buffer
	entry uintptr
}

// loopLabels tracks one open loop: where its body starts and where the
// entry JZ's rel32 field sits, patched when the loop closes.
type loopLabels struct {
	body      int
	exitFixup int
}

type generator struct {
	code  []byte
	loops []loopLabels
}

func (g *generator) emit(bs []byte) {
	g.code = append(g.code, bs...)
}

// Compile emits native code for the given IR. The IR must be
// well-formed (Parse enforces bracket balance); an unmatched loop close
// here panics.
func Compile(ir []core.Stmt) (*Program, error) {
	g := &generator{}

	g.emit(amd64.PushRBX())
	g.emit(amd64.MovRBXRDI()) // dp = tape

	for _, st := range ir {
		switch st.Kind {
		case core.OpPAdd:
			g.emit(amd64.AddRBXImm32(int32(st.Off)))

		case core.OpDAdd:
			g.emit(amd64.AddbImm8MemRBXDisp32(int32(st.Off), uint8(st.N)))

		case core.OpJz:
			g.emit(amd64.CmpbMemRBXZero())
			g.loops = append(g.loops, loopLabels{exitFixup: len(g.code) + 2})
			g.emit(amd64.JeRel32(0)) // patched on loop close
			g.loops[len(g.loops)-1].body = len(g.code)

		case core.OpJnz:
			if len(g.loops) == 0 {
				panic("aot: unmatched loop close")
			}
			l := g.loops[len(g.loops)-1]
			g.loops = g.loops[:len(g.loops)-1]
			g.emit(amd64.CmpbMemRBXZero())
			rel := int32(l.body - (len(g.code) + 6))
			g.emit(amd64.JneRel32(rel))
			amd64.PatchRel32(g.code, l.exitFixup, len(g.code))

		case core.OpPutc:
			g.emit(amd64.LeaRSIMemRBXDisp32(int32(st.Off)))
			g.emit(amd64.MovlImm32EAX(sysWrite))
			g.emit(amd64.MovlImm32EDI(1))
			g.emit(amd64.MovlImm32EDX(1))
			g.emit(amd64.Syscall())

		case core.OpGetc:
			g.emit(amd64.LeaRSIMemRBXDisp32(int32(st.Off)))
			g.emit(amd64.MovlImm32EAX(sysRead))
			g.emit(amd64.XorEDIEDI())
			g.emit(amd64.MovlImm32EDX(1))
			g.emit(amd64.Syscall())
		}
	}

	if len(g.loops) != 0 {
		panic("aot: unclosed loop")
	}

	g.emit(amd64.PopRBX())
	g.emit(amd64.Ret())

	buf, err := execmem.New(g.code)
	if err != nil {
		return nil, err
	}
	return &Program{buf: buf, entry: buf.Entry(0)}, nil
}

// Run executes the program against the tape, mutating it in place.
// Out-of-range tape access is undefined.
func (p *Program) Run(tape []byte) {
	execmem.Call1(p.entry, uintptr(unsafe.Pointer(&tape[0])))
	runtime.KeepAlive(tape)
	runtime.KeepAlive(p.buf)
}

// Close releases the executable buffer; the entry pointer dies with it.
func (p *Program) Close() error {
	return p.buf.Close()
}
