package ledaction

// This file contains the contract with the hardware side, a driver owns the
// color buffer for one physical output and pushes it out on Flush

import (
	"sync"

	"github.com/TeamNorCal/ledaction/model"
)

// Driver is a single LED output such as one data pin, an OPC channel or a
// SPI bus
type Driver interface {
	// Len is the number of addressable pixels
	Len() int
	// Pixel returns a reference into the driver buffer, nil when i is out
	// of range
	Pixel(i int) *model.Color
	// Flush pushes the buffer to the physical output
	Flush() error
}

// MemDriver keeps pixels in memory only.  It backs tests and the simulator,
// OnFlush receives a copy of the buffer every time it is flushed
type MemDriver struct {
	name    string
	buf     []model.Color
	flushes int
	OnFlush func(name string, pixels []model.Color)
	sync.Mutex
}

// NewMemDriver creates a driver holding size black pixels
func NewMemDriver(name string, size int) *MemDriver {
	if size < 0 {
		size = 0
	}
	return &MemDriver{
		name: name,
		buf:  make([]model.Color, size),
	}
}

func (d *MemDriver) Name() string {
	return d.name
}

func (d *MemDriver) Len() int {
	return len(d.buf)
}

func (d *MemDriver) Pixel(i int) *model.Color {
	if i < 0 || i >= len(d.buf) {
		return nil
	}
	return &d.buf[i]
}

func (d *MemDriver) Flush() error {
	d.Lock()
	d.flushes++
	hook := d.OnFlush
	d.Unlock()

	if hook != nil {
		hook(d.name, d.Pixels())
	}
	return nil
}

// Flushes is the number of Flush calls seen so far
func (d *MemDriver) Flushes() int {
	d.Lock()
	defer d.Unlock()
	return d.flushes
}

// Pixels returns a copy of the buffer
func (d *MemDriver) Pixels() []model.Color {
	cpy := make([]model.Color, len(d.buf))
	copy(cpy, d.buf)
	return cpy
}
