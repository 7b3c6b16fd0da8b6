// Package gas provides GAS (GNU Assembler) assembly output for x86_64
// Linux: the textual twin of the ELF back end, for inspection or for
// assembling with the system toolchain.
package gas

import (
	"fmt"
	"strings"

	"github.com/nilern/bfg/internal/core"
)

// Linux syscall numbers.
const (
	sysWrite = 1
	sysExit  = 60
)

// Generator produces GAS (AT&T syntax) assembly from IR.
type Generator struct {
	ir    []core.Stmt
	out   strings.Builder
	loops []int
	next  int
}

// NewGenerator creates a generator for the given IR.
func NewGenerator(ir []core.Stmt) *Generator {
	return &Generator{ir: ir}
}

// Generate produces the complete assembly output.
func (g *Generator) Generate() string {
	g.emitHeader()
	g.emitPrologue()

	for _, st := range g.ir {
		g.emitStmt(st)
	}

	g.emitEpilogue()
	return g.out.String()
}

// emitHeader outputs the BSS and text section preambles.
func (g *Generator) emitHeader() {
	fmt.Fprintf(&g.out, ".section .bss\n")
	fmt.Fprintf(&g.out, "    .lcomm tape, %d\n", core.TapeSize)
	fmt.Fprintf(&g.out, "\n")
	fmt.Fprintf(&g.out, ".section .text\n")
	fmt.Fprintf(&g.out, ".globl _start\n")
}

// emitPrologue initializes R13 (tape base) and R12 (data pointer).
func (g *Generator) emitPrologue() {
	fmt.Fprintf(&g.out, "_start:\n")
	fmt.Fprintf(&g.out, "    movq $tape, %%r13\n")
	fmt.Fprintf(&g.out, "    xorq %%r12, %%r12\n")
}

// emitEpilogue outputs the exit(0) syscall.
func (g *Generator) emitEpilogue() {
	fmt.Fprintf(&g.out, "    movq $%d, %%rax\n", sysExit)
	fmt.Fprintf(&g.out, "    xorq %%rdi, %%rdi\n")
	fmt.Fprintf(&g.out, "    syscall\n")
}

func (g *Generator) emitStmt(st core.Stmt) {
	switch st.Kind {
	case core.OpPAdd:
		if st.Off > 0 {
			fmt.Fprintf(&g.out, "    addq $%d, %%r12\n", st.Off)
		} else {
			fmt.Fprintf(&g.out, "    subq $%d, %%r12\n", -st.Off)
		}

	case core.OpDAdd:
		if st.N > 0 {
			fmt.Fprintf(&g.out, "    addb $%d, %d(%%r13,%%r12)\n", st.N, st.Off)
		} else {
			fmt.Fprintf(&g.out, "    subb $%d, %d(%%r13,%%r12)\n", -st.N, st.Off)
		}

	case core.OpJz:
		id := g.next
		g.next++
		g.loops = append(g.loops, id)
		fmt.Fprintf(&g.out, "    testb $0xff, (%%r13,%%r12)\n")
		fmt.Fprintf(&g.out, "    jz .Lend_%d\n", id)
		fmt.Fprintf(&g.out, ".Lbody_%d:\n", id)

	case core.OpJnz:
		if len(g.loops) == 0 {
			panic("gas: unmatched loop close")
		}
		id := g.loops[len(g.loops)-1]
		g.loops = g.loops[:len(g.loops)-1]
		fmt.Fprintf(&g.out, "    testb $0xff, (%%r13,%%r12)\n")
		fmt.Fprintf(&g.out, "    jnz .Lbody_%d\n", id)
		fmt.Fprintf(&g.out, ".Lend_%d:\n", id)

	case core.OpPutc:
		fmt.Fprintf(&g.out, "    leaq %d(%%r13,%%r12), %%rsi\n", st.Off)
		fmt.Fprintf(&g.out, "    movq $%d, %%rax\n", sysWrite)
		fmt.Fprintf(&g.out, "    movq $1, %%rdi\n")
		fmt.Fprintf(&g.out, "    movq $1, %%rdx\n")
		fmt.Fprintf(&g.out, "    syscall\n")

	case core.OpGetc:
		fmt.Fprintf(&g.out, "    leaq %d(%%r13,%%r12), %%rsi\n", st.Off)
		fmt.Fprintf(&g.out, "    xorq %%rax, %%rax\n")
		fmt.Fprintf(&g.out, "    xorq %%rdi, %%rdi\n")
		fmt.Fprintf(&g.out, "    movq $1, %%rdx\n")
		fmt.Fprintf(&g.out, "    syscall\n")
	}
}
