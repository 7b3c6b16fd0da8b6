//go:build !(linux && amd64)

package aot

import (
	"github.com/nilern/bfg/internal/core"
	"github.com/nilern/bfg/pkg/execmem"
)

// Program is unavailable on this platform.
type Program struct{}

// Compile reports that the AOT back end needs linux/amd64.
func Compile(ir []core.Stmt) (*Program, error) {
	return nil, execmem.ErrUnsupported
}

// Run panics; a Program cannot be compiled on this platform.
func (p *Program) Run(tape []byte) {
	panic("aot: not supported on this platform")
}

// Close is a no-op.
func (p *Program) Close() error { return nil }
