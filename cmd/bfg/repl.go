package main

import (
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"

	"github.com/nilern/bfg/internal/engine"
)

// repl reads one full program per line and runs it against the
// session tape, which persists until the session ends. EOF or an
// interrupt exits.
func repl(eng *engine.Engine) {
	rl, err := readline.New("bf> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		if line == "" {
			continue
		}
		if err := eng.Run([]byte(line)); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}
