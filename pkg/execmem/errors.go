package execmem

import "errors"

// ErrUnsupported is returned where native code execution is
// unavailable (non-unix hosts or unsupported architectures).
var ErrUnsupported = errors.New("execmem: native code execution not supported on this platform")
