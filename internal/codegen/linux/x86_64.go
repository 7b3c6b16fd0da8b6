// Package linux produces standalone ELF64 x86_64 Linux executables
// from IR. Unlike the in-process back ends, the tape lives in a BSS
// segment that the kernel zero-fills at load time.
//
// Register assignment: R13 holds the tape base, R12 the data pointer;
// cell operands are addressed as disp(%r13,%r12).
package linux

import (
	"github.com/nilern/bfg/internal/core"
	"github.com/nilern/bfg/pkg/amd64"
	"github.com/nilern/bfg/pkg/elf"
)

// Linux syscall numbers.
const (
	sysRead  = 0
	sysWrite = 1
	sysExit  = 60
)

// Memory layout.
const (
	CodeBase = 0x400000 // virtual address of the code segment
	BSSBase  = 0x600000 // virtual address of the BSS segment (tape)
)

// loopLabels tracks one open loop during emission.
type loopLabels struct {
	body      int
	exitFixup int
}

// Generator produces x86_64 machine code and ELF images from IR.
type Generator struct {
	ir       []core.Stmt
	code     []byte
	loops    []loopLabels
	tapeSize int
	codeBase uint64
	bssBase  uint64
}

// NewGenerator creates a generator for the given IR.
func NewGenerator(ir []core.Stmt) *Generator {
	return &Generator{
		ir:       ir,
		code:     make([]byte, 0, 4096),
		tapeSize: core.TapeSize,
		codeBase: CodeBase + elf.PageSize, // code starts after the headers
		bssBase:  BSSBase,
	}
}

// Generate produces the raw machine code for the program.
func (g *Generator) Generate() []byte {
	g.emitPrologue()
	for _, st := range g.ir {
		g.emitStmt(st)
	}
	if len(g.loops) != 0 {
		panic("linux: unclosed loop")
	}
	g.emitEpilogue()
	return g.code
}

// GenerateELF produces a complete ELF64 executable image.
func (g *Generator) GenerateELF() []byte {
	code := g.Generate()

	builder := elf.NewBuilder()
	builder.SetEntry(g.codeBase)
	builder.AddLoadSegment(code, g.codeBase, elf.PF_R|elf.PF_X)
	builder.AddBSSSegment(g.bssBase, uint64(g.tapeSize), elf.PF_R|elf.PF_W)

	return builder.Build()
}

func (g *Generator) emit(bs []byte) {
	g.code = append(g.code, bs...)
}

// emitPrologue loads the tape base into R13 and zeros the data pointer.
func (g *Generator) emitPrologue() {
	g.emit(amd64.MovabsR13(g.bssBase)) // movabs $tape, %r13
	g.emit(amd64.XorR12R12())          // xorq %r12, %r12
}

// emitEpilogue outputs the exit(0) syscall.
func (g *Generator) emitEpilogue() {
	g.emit(amd64.MovqImm32RAX(sysExit))
	g.emit(amd64.XorRDIRDI())
	g.emit(amd64.Syscall())
}

func (g *Generator) emitStmt(st core.Stmt) {
	switch st.Kind {
	case core.OpPAdd:
		g.emit(amd64.AddqImm32R12(int32(st.Off)))

	case core.OpDAdd:
		g.emit(amd64.AddbImm8MemR13R12Disp32(int32(st.Off), uint8(st.N)))

	case core.OpJz:
		g.emit(amd64.TestbMemR13R12())
		g.loops = append(g.loops, loopLabels{exitFixup: len(g.code) + 2})
		g.emit(amd64.JeRel32(0)) // patched on loop close
		g.loops[len(g.loops)-1].body = len(g.code)

	case core.OpJnz:
		if len(g.loops) == 0 {
			panic("linux: unmatched loop close")
		}
		l := g.loops[len(g.loops)-1]
		g.loops = g.loops[:len(g.loops)-1]
		g.emit(amd64.TestbMemR13R12())
		rel := int32(l.body - (len(g.code) + 6))
		g.emit(amd64.JneRel32(rel))
		amd64.PatchRel32(g.code, l.exitFixup, len(g.code))

	case core.OpPutc:
		g.emit(amd64.LeaRSIMemR13R12Disp32(int32(st.Off)))
		g.emit(amd64.MovqImm32RAX(sysWrite))
		g.emit(amd64.MovqImm32RDI(1))
		g.emit(amd64.MovqImm32RDX(1))
		g.emit(amd64.Syscall())

	case core.OpGetc:
		g.emit(amd64.LeaRSIMemR13R12Disp32(int32(st.Off)))
		g.emit(amd64.XorRAXRAX())
		g.emit(amd64.XorRDIRDI())
		g.emit(amd64.MovqImm32RDX(1))
		g.emit(amd64.Syscall())
	}
}
