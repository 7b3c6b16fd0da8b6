package execmem

// The emitted routines take their arguments in rdi/rsi/rdx, which is
// not where Go places them; these trampolines bridge the two. They are
// implemented in call_amd64.s.

// Call1 invokes fn with a in rdi.
func Call1(fn, a uintptr)

// Call3 invokes fn with a, b, c in rdi, rsi, rdx.
func Call3(fn, a, b, c uintptr)
