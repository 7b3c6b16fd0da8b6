//go:build !(linux && amd64)

package threaded

import (
	"github.com/nilern/bfg/internal/bytecode"
	"github.com/nilern/bfg/pkg/execmem"
)

// VM is unavailable on this platform.
type VM struct{}

// Build reports that the threaded back end needs linux/amd64.
func Build() (*VM, error) {
	return nil, execmem.ErrUnsupported
}

// Run panics; a VM cannot be built on this platform.
func (v *VM) Run(code []bytecode.Word, tape []byte) {
	panic("threaded: not supported on this platform")
}

// Close is a no-op.
func (v *VM) Close() error { return nil }
