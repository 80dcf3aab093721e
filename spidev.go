package ledaction

// This file contains the driver for APA102 style strips wired straight to a
// SPI bus.  The frame encoding is kept free of any device handling so it can
// be checked on every platform, opening the bus lives in the platform files

import (
	"io"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/TeamNorCal/ledaction/model"
)

const (
	// DefaultSPISpeed is the bus clock used when a layout does not name one
	DefaultSPISpeed = 4000000

	apa102MaxBrightness = 0x1F
)

// SPIStrip drives APA102 pixels through a SPI device
type SPIStrip struct {
	device     string
	bus        io.WriteCloser
	buf        []model.Color
	frame      []byte
	brightness uint8
}

// newSPIStrip wraps an already opened bus
func newSPIStrip(device string, bus io.WriteCloser, pixels int) *SPIStrip {
	if pixels < 0 {
		pixels = 0
	}
	return &SPIStrip{
		device:     device,
		bus:        bus,
		buf:        make([]model.Color, pixels),
		brightness: apa102MaxBrightness,
	}
}

func (s *SPIStrip) Device() string {
	return s.device
}

// SetBrightness sets the 5 bit global brightness sent with every pixel
func (s *SPIStrip) SetBrightness(level uint8) {
	if level > apa102MaxBrightness {
		level = apa102MaxBrightness
	}
	s.brightness = level
}

func (s *SPIStrip) Len() int {
	return len(s.buf)
}

func (s *SPIStrip) Pixel(i int) *model.Color {
	if i < 0 || i >= len(s.buf) {
		return nil
	}
	return &s.buf[i]
}

func (s *SPIStrip) Flush() (errGo error) {
	s.frame = EncodeAPA102(s.frame[:0], s.buf, s.brightness)
	if _, errGo = s.bus.Write(s.frame); errGo != nil {
		return errors.Wrap(errGo).With("device", s.device).With("stack", stack.Trace().TrimRuntime())
	}
	return nil
}

func (s *SPIStrip) Close() (errGo error) {
	return s.bus.Close()
}

// EncodeAPA102 appends a complete APA102 frame for pixels to dst.  The frame
// is a zero start word, one brightness/blue/green/red word per pixel and an
// end frame of at least one clock edge per two pixels
func EncodeAPA102(dst []byte, pixels []model.Color, brightness uint8) []byte {
	dst = append(dst, 0, 0, 0, 0)
	for _, c := range pixels {
		dst = append(dst, 0xE0|(brightness&apa102MaxBrightness), c.B, c.G, c.R)
	}
	end := (len(pixels) + 15) / 16
	if end < 4 {
		end = 4
	}
	for i := 0; i < end; i++ {
		dst = append(dst, 0xFF)
	}
	return dst
}
