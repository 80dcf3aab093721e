//go:build !linux

package ledaction

import (
	"runtime"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"
)

// OpenSPIStrip is only available on linux
func OpenSPIStrip(device string, pixels int, speedHz int) (s *SPIStrip, err errors.Error) {
	return nil, errors.New("spidev is not supported on this platform").With("device", device).
		With("os", runtime.GOOS).With("stack", stack.Trace().TrimRuntime())
}
