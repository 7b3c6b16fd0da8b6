package amd64

// This file contains x86_64 instruction encoders. Each function returns
// the machine code bytes for one specific instruction.
//
// For details on x86-64 instruction encoding (REX prefixes, ModRM, SIB
// bytes), see: https://wiki.osdev.org/X86-64_Instruction_Encoding

// --- stack and control ---

// Ret encodes: ret (C3)
func Ret() []byte { return []byte{0xC3} }

// Syscall encodes: syscall (0F 05)
func Syscall() []byte { return []byte{0x0F, 0x05} }

// Nop encodes: nop (90)
func Nop() []byte { return []byte{0x90} }

// PushRBX encodes: pushq %rbx (53)
func PushRBX() []byte { return []byte{0x53} }

// PopRBX encodes: popq %rbx (5B)
func PopRBX() []byte { return []byte{0x5B} }

// PushRBP encodes: pushq %rbp (55)
func PushRBP() []byte { return []byte{0x55} }

// PopRBP encodes: popq %rbp (5D)
func PopRBP() []byte { return []byte{0x5D} }

// PushR12 encodes: pushq %r12 (41 54)
// 50+rd with R12 needs REX.B.
func PushR12() []byte { return []byte{0x41, 0x54} }

// PopR12 encodes: popq %r12 (41 5C)
func PopR12() []byte { return []byte{0x41, 0x5C} }

// PushR13 encodes: pushq %r13 (41 55)
func PushR13() []byte { return []byte{0x41, 0x55} }

// PopR13 encodes: popq %r13 (41 5D)
func PopR13() []byte { return []byte{0x41, 0x5D} }

// PushR14 encodes: pushq %r14 (41 56)
func PushR14() []byte { return []byte{0x41, 0x56} }

// PopR14 encodes: popq %r14 (41 5E)
func PopR14() []byte { return []byte{0x41, 0x5E} }

// PushR15 encodes: pushq %r15 (41 57)
func PushR15() []byte { return []byte{0x41, 0x57} }

// PopR15 encodes: popq %r15 (41 5F)
func PopR15() []byte { return []byte{0x41, 0x5F} }

// --- branches ---

// JeRel32 encodes: je rel32 (0F 84 <rel32>)
// rel32 is relative to the end of the instruction.
func JeRel32(rel32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x0F
	buf[1] = 0x84
	writeLE32(buf[2:], uint32(rel32))
	return buf
}

// JneRel32 encodes: jne rel32 (0F 85 <rel32>)
func JneRel32(rel32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x0F
	buf[1] = 0x85
	writeLE32(buf[2:], uint32(rel32))
	return buf
}

// JgeRel32 encodes: jge rel32 (0F 8D <rel32>)
func JgeRel32(rel32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x0F
	buf[1] = 0x8D
	writeLE32(buf[2:], uint32(rel32))
	return buf
}

// JmpRel32 encodes: jmp rel32 (E9 <rel32>)
func JmpRel32(rel32 int32) []byte {
	buf := make([]byte, 5)
	buf[0] = 0xE9
	writeLE32(buf[1:], uint32(rel32))
	return buf
}

// JmpRAX encodes: jmpq *%rax (FF E0)
// FF /4 with ModRM 11 100 000.
func JmpRAX() []byte { return []byte{0xFF, 0xE0} }

// --- register moves ---

// MovRBXRDI encodes: movq %rdi, %rbx (48 89 FB)
// 89 /r = mov r/m64, r64; ModRM: 11 (reg-reg) 111 (rdi) 011 (rbx).
func MovRBXRDI() []byte { return []byte{0x48, 0x89, 0xFB} }

// MovR12RDX encodes: movq %rdx, %r12 (49 89 D4)
// REX.WB (49) for R12 in rm; ModRM: 11 010 (rdx) 100 (r12).
func MovR12RDX() []byte { return []byte{0x49, 0x89, 0xD4} }

// MovR15R13 encodes: movq %r13, %r15 (4D 89 EF)
// REX.WRB (4D); ModRM: 11 101 (r13) 111 (r15).
func MovR15R13() []byte { return []byte{0x4D, 0x89, 0xEF} }

// MovR14R13 encodes: movq %r13, %r14 (4D 89 EE)
func MovR14R13() []byte { return []byte{0x4D, 0x89, 0xEE} }

// MovRAXR13 encodes: movq %r13, %rax (4C 89 E8)
// REX.WR (4C); ModRM: 11 101 (r13) 000 (rax).
func MovRAXR13() []byte { return []byte{0x4C, 0x89, 0xE8} }

// MovlImm32EAX encodes: movl $imm32, %eax (B8 <imm32>)
// Writing the 32-bit register zero-extends into rax.
func MovlImm32EAX(imm32 int32) []byte {
	buf := make([]byte, 5)
	buf[0] = 0xB8
	writeLE32(buf[1:], uint32(imm32))
	return buf
}

// MovlImm32EDI encodes: movl $imm32, %edi (BF <imm32>)
func MovlImm32EDI(imm32 int32) []byte {
	buf := make([]byte, 5)
	buf[0] = 0xBF
	writeLE32(buf[1:], uint32(imm32))
	return buf
}

// MovlImm32EDX encodes: movl $imm32, %edx (BA <imm32>)
func MovlImm32EDX(imm32 int32) []byte {
	buf := make([]byte, 5)
	buf[0] = 0xBA
	writeLE32(buf[1:], uint32(imm32))
	return buf
}

// XorEAXEAX encodes: xorl %eax, %eax (31 C0)
func XorEAXEAX() []byte { return []byte{0x31, 0xC0} }

// XorEDIEDI encodes: xorl %edi, %edi (31 FF)
func XorEDIEDI() []byte { return []byte{0x31, 0xFF} }

// MovabsR13 encodes: movabs $imm64, %r13 (49 BD <imm64>)
// Loads a 64-bit immediate into R13.
func MovabsR13(imm64 uint64) []byte {
	buf := make([]byte, 10)
	buf[0] = 0x49 // REX.WB
	buf[1] = 0xBD // B8+r with r13
	writeLE64(buf[2:], imm64)
	return buf
}

// XorR12R12 encodes: xorq %r12, %r12 (4D 31 E4)
// Zeros R12.
func XorR12R12() []byte { return []byte{0x4D, 0x31, 0xE4} }

// MovqImm32RAX encodes: movq $imm32, %rax (48 C7 C0 <imm32>)
// Load 32-bit sign-extended immediate into RAX.
func MovqImm32RAX(imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x48
	buf[1] = 0xC7
	buf[2] = 0xC0
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// MovqImm32RDI encodes: movq $imm32, %rdi (48 C7 C7 <imm32>)
func MovqImm32RDI(imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x48
	buf[1] = 0xC7
	buf[2] = 0xC7
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// MovqImm32RDX encodes: movq $imm32, %rdx (48 C7 C2 <imm32>)
func MovqImm32RDX(imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x48
	buf[1] = 0xC7
	buf[2] = 0xC2
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// XorRAXRAX encodes: xorq %rax, %rax (48 31 C0)
func XorRAXRAX() []byte { return []byte{0x48, 0x31, 0xC0} }

// XorRDIRDI encodes: xorq %rdi, %rdi (48 31 FF)
func XorRDIRDI() []byte { return []byte{0x48, 0x31, 0xFF} }

// --- arithmetic ---

// AddRBXImm32 encodes: addq $imm32, %rbx (48 81 C3 <imm32>)
// 81 /0 id with sign-extended imm32, so negative deltas need no
// separate sub form.
func AddRBXImm32(imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x48
	buf[1] = 0x81
	buf[2] = 0xC3
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// AddRBXImm8 encodes: addq $imm8, %rbx (48 83 C3 <imm8>)
// 83 /0 ib, sign-extended.
func AddRBXImm8(imm8 int8) []byte {
	return []byte{0x48, 0x83, 0xC3, byte(imm8)}
}

// AddqImm32R12 encodes: addq $imm32, %r12 (49 81 C4 <imm32>)
func AddqImm32R12(imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x49
	buf[1] = 0x81
	buf[2] = 0xC4
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// AddR12R15 encodes: addq %r15, %r12 (4D 01 FC)
// 01 /r = add r/m64, r64; ModRM: 11 111 (r15) 100 (r12).
func AddR12R15() []byte { return []byte{0x4D, 0x01, 0xFC} }

// AddRBXR15 encodes: addq %r15, %rbx (4C 01 FB)
func AddRBXR15() []byte { return []byte{0x4C, 0x01, 0xFB} }

// AddRAXR14 encodes: addq %r14, %rax (4C 01 F0)
func AddRAXR14() []byte { return []byte{0x4C, 0x01, 0xF0} }

// AndR14Imm32 encodes: andq $imm32, %r14 (49 81 E6 <imm32>)
// 81 /4 id.
func AndR14Imm32(imm32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x49
	buf[1] = 0x81
	buf[2] = 0xE6
	writeLE32(buf[3:], uint32(imm32))
	return buf
}

// AndRAXImm32 encodes: andq $imm32, %rax (48 25 <imm32>)
// 25 id is the short accumulator form.
func AndRAXImm32(imm32 int32) []byte {
	buf := make([]byte, 6)
	buf[0] = 0x48
	buf[1] = 0x25
	writeLE32(buf[2:], uint32(imm32))
	return buf
}

// SarR15Imm8 encodes: sarq $imm8, %r15 (49 C1 FF <imm8>)
// C1 /7 ib, arithmetic shift.
func SarR15Imm8(imm8 uint8) []byte {
	return []byte{0x49, 0xC1, 0xFF, imm8}
}

// SarRAXImm8 encodes: sarq $imm8, %rax (48 C1 F8 <imm8>)
func SarRAXImm8(imm8 uint8) []byte {
	return []byte{0x48, 0xC1, 0xF8, imm8}
}

// ShlR14Imm8 encodes: shlq $imm8, %r14 (49 C1 E6 <imm8>)
// C1 /4 ib.
func ShlR14Imm8(imm8 uint8) []byte {
	return []byte{0x49, 0xC1, 0xE6, imm8}
}

// ShlR15Imm8 encodes: shlq $imm8, %r15 (49 C1 E7 <imm8>)
func ShlR15Imm8(imm8 uint8) []byte {
	return []byte{0x49, 0xC1, 0xE7, imm8}
}

// CmpRBXRBP encodes: cmpq %rbp, %rbx (48 39 EB)
// 39 /r = cmp r/m64, r64; ModRM: 11 101 (rbp) 011 (rbx).
func CmpRBXRBP() []byte { return []byte{0x48, 0x39, 0xEB} }

// --- memory operands ---

// MovsxdR13MemRBX encodes: movslq (%rbx), %r13 (4C 63 2B)
// 63 /r = movsxd r64, r/m32; 32-bit load with sign extension.
func MovsxdR13MemRBX() []byte { return []byte{0x4C, 0x63, 0x2B} }

// LeaRBPMemRDIRSI4 encodes: leaq (%rdi,%rsi,4), %rbp (48 8D 2C B7)
// SIB: scale=4, index=rsi, base=rdi.
func LeaRBPMemRDIRSI4() []byte { return []byte{0x48, 0x8D, 0x2C, 0xB7} }

// LeaRSIMemRBXDisp32 encodes: leaq disp32(%rbx), %rsi (48 8D B3 <disp32>)
func LeaRSIMemRBXDisp32(disp32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x48
	buf[1] = 0x8D
	buf[2] = 0xB3
	writeLE32(buf[3:], uint32(disp32))
	return buf
}

// LeaRSIMemR12R15 encodes: leaq (%r12,%r15), %rsi (4B 8D 34 3C)
// REX.WXB; ModRM: 00 110 (rsi) 100 (SIB); SIB: 00 111 (r15) 100 (r12).
func LeaRSIMemR12R15() []byte { return []byte{0x4B, 0x8D, 0x34, 0x3C} }

// LeaRSIMemR13R12Disp32 encodes: leaq disp32(%r13,%r12), %rsi
// (4B 8D B4 25 <disp32>)
func LeaRSIMemR13R12Disp32(disp32 int32) []byte {
	buf := make([]byte, 8)
	buf[0] = 0x4B
	buf[1] = 0x8D
	buf[2] = 0xB4
	buf[3] = 0x25
	writeLE32(buf[4:], uint32(disp32))
	return buf
}

// LeaRAXRIPDisp32 encodes: leaq disp32(%rip), %rax (48 8D 05 <disp32>)
// disp32 is relative to the end of the instruction.
func LeaRAXRIPDisp32(disp32 int32) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x48
	buf[1] = 0x8D
	buf[2] = 0x05
	writeLE32(buf[3:], uint32(disp32))
	return buf
}

// AddbImm8MemRBXDisp32 encodes: addb $imm8, disp32(%rbx)
// (80 83 <disp32> <imm8>)
// Byte add wraps mod 256, so the immediate's sign never matters.
func AddbImm8MemRBXDisp32(disp32 int32, imm8 uint8) []byte {
	buf := make([]byte, 7)
	buf[0] = 0x80
	buf[1] = 0x83 // ModRM: 10 (disp32) 000 (/0) 011 (rbx)
	writeLE32(buf[2:], uint32(disp32))
	buf[6] = imm8
	return buf
}

// CmpbMemRBXZero encodes: cmpb $0, (%rbx) (80 3B 00)
// 80 /7 ib.
func CmpbMemRBXZero() []byte { return []byte{0x80, 0x3B, 0x00} }

// AddbMemR12R15AL encodes: addb %al, (%r12,%r15) (43 00 04 3C)
// 00 /r = add r/m8, r8; SIB: index=r15, base=r12.
func AddbMemR12R15AL() []byte { return []byte{0x43, 0x00, 0x04, 0x3C} }

// CmpbMemR12Zero encodes: cmpb $0, (%r12) (41 80 3C 24 00)
// SIB with no index is required to address r12 as a base.
func CmpbMemR12Zero() []byte { return []byte{0x41, 0x80, 0x3C, 0x24, 0x00} }

// AddbImm8MemR13R12Disp32 encodes: addb $imm8, disp32(%r13,%r12)
// (43 80 84 25 <disp32> <imm8>)
// 43 = REX.XB (X for r12 in SIB.index, B for r13 in SIB.base).
func AddbImm8MemR13R12Disp32(disp32 int32, imm8 uint8) []byte {
	buf := make([]byte, 9)
	buf[0] = 0x43
	buf[1] = 0x80
	buf[2] = 0x84 // ModRM: 10 (disp32) 000 (/0) 100 (SIB)
	buf[3] = 0x25 // SIB: 00 (scale=1) 100 (r12 index) 101 (r13 base)
	writeLE32(buf[4:], uint32(disp32))
	buf[8] = imm8
	return buf
}

// TestbMemR13R12 encodes: testb $0xff, (%r13,%r12) (43 F6 44 25 00 FF)
// Sets flags from the byte at (%r13,%r12); the disp8 of 0 is required
// by the r13 base encoding.
func TestbMemR13R12() []byte {
	return []byte{0x43, 0xF6, 0x44, 0x25, 0x00, 0xFF}
}
