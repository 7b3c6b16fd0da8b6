package threaded

import (
	"bytes"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/nilern/bfg/internal/bytecode"
	"github.com/nilern/bfg/internal/core"
)

const helloWorld = "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."

func assemble(t *testing.T, src string, opt core.OptLevel) []bytecode.Word {
	t.Helper()
	ir, err := core.Parse(core.Tokenize([]byte(src)))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return bytecode.Assemble(core.OptimizeWithLevel(ir, opt))
}

// captureStdout swaps fd 1 for a pipe around fn; the emitted code
// writes to the file descriptor directly, so an io.Writer cannot
// intercept it.
func captureStdout(t *testing.T, fn func()) []byte {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	saved, err := syscall.Dup(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := syscall.Dup2(int(w.Fd()), 1); err != nil {
		t.Fatal(err)
	}

	done := make(chan []byte)
	go func() {
		out, _ := io.ReadAll(r)
		done <- out
	}()

	fn()

	syscall.Dup2(saved, 1)
	syscall.Close(saved)
	w.Close()
	out := <-done
	r.Close()
	return out
}

// feedStdin swaps fd 0 for a pipe holding data; the returned func
// restores it.
func feedStdin(t *testing.T, data []byte) func() {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	saved, err := syscall.Dup(0)
	if err != nil {
		t.Fatal(err)
	}
	if err := syscall.Dup2(int(r.Fd()), 0); err != nil {
		t.Fatal(err)
	}
	w.Write(data)
	w.Close()

	return func() {
		syscall.Dup2(saved, 0)
		syscall.Close(saved)
		r.Close()
	}
}

func buildVM(t *testing.T) *VM {
	t.Helper()
	v, err := Build()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { v.Close() })
	return v
}

func TestRunHelloWorld(t *testing.T) {
	v := buildVM(t)
	for _, opt := range []core.OptLevel{core.O0, core.O1} {
		code := assemble(t, helloWorld, opt)
		tape := make([]byte, core.TapeSize)

		out := captureStdout(t, func() { v.Run(code, tape) })
		if string(out) != "Hello World!\n" {
			t.Errorf("O%d: expected %q, got %q", opt, "Hello World!\n", out)
		}
	}
}

func TestRunEcho(t *testing.T) {
	v := buildVM(t)
	code := assemble(t, ",+.", core.O1)
	tape := make([]byte, core.TapeSize)

	restore := feedStdin(t, []byte("A"))
	defer restore()
	out := captureStdout(t, func() { v.Run(code, tape) })

	if string(out) != "B" {
		t.Errorf("expected %q, got %q", "B", out)
	}
	if tape[0] != 0x42 {
		t.Errorf("expected tape[0]=0x42, got %#02x", tape[0])
	}
}

func TestRunWrapAround(t *testing.T) {
	v := buildVM(t)
	code := assemble(t, "-.", core.O1)
	tape := make([]byte, core.TapeSize)

	out := captureStdout(t, func() { v.Run(code, tape) })
	if len(out) != 1 || out[0] != 0xFF {
		t.Errorf("expected byte 0xFF, got % X", out)
	}
	if tape[0] != 255 {
		t.Errorf("expected tape[0]=255, got %d", tape[0])
	}
}

func TestRunLoopMultiply(t *testing.T) {
	v := buildVM(t)
	code := assemble(t, "+++[->+++<]>.", core.O1)
	tape := make([]byte, core.TapeSize)

	out := captureStdout(t, func() { v.Run(code, tape) })
	if tape[1] != 9 {
		t.Errorf("expected tape[1]=9, got %d", tape[1])
	}
	if !bytes.Equal(out, []byte{9}) {
		t.Errorf("expected byte 0x09, got % X", out)
	}
}

func TestRunEmptyProgram(t *testing.T) {
	v := buildVM(t)
	tape := make([]byte, 64)
	v.Run(nil, tape) // must not touch the tape or crash
	for i, b := range tape {
		if b != 0 {
			t.Fatalf("tape[%d]=%d after empty run", i, b)
		}
	}
}

// One emitted routine serves repeated runs against the same tape.
func TestRunReuse(t *testing.T) {
	v := buildVM(t)
	tape := make([]byte, 64)

	for i := 0; i < 3; i++ {
		v.Run(assemble(t, "+", core.O1), tape)
	}
	if tape[0] != 3 {
		t.Errorf("expected tape[0]=3, got %d", tape[0])
	}
}
