//go:build linux

package ledaction

import (
	"os"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"golang.org/x/sys/unix"
)

const (
	// _IOW('k', 4, __u32) from linux/spi/spidev.h
	spiIocWrMaxSpeedHz = 0x40046b04
)

// OpenSPIStrip opens device, for example /dev/spidev0.0, and sets the bus
// clock to speedHz
func OpenSPIStrip(device string, pixels int, speedHz int) (s *SPIStrip, err errors.Error) {
	if speedHz <= 0 {
		speedHz = DefaultSPISpeed
	}
	f, errGo := os.OpenFile(device, os.O_RDWR, 0)
	if errGo != nil {
		return nil, errors.Wrap(errGo).With("device", device).With("stack", stack.Trace().TrimRuntime())
	}
	if errGo = unix.IoctlSetPointerInt(int(f.Fd()), spiIocWrMaxSpeedHz, speedHz); errGo != nil {
		f.Close()
		return nil, errors.Wrap(errGo).With("device", device).With("speed_hz", speedHz).With("stack", stack.Trace().TrimRuntime())
	}
	return newSPIStrip(device, f, pixels), nil
}
