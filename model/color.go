package model

// This module defines the RGB pixel value shared by drivers, segments and
// effects along with the small amount of channel arithmetic effects need

import (
	"fmt"
	"math"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a single LED value, 8 bits per channel
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{0x00, 0x00, 0x00}
	White = Color{0xFF, 0xFF, 0xFF}
	Red   = Color{0xFF, 0x00, 0x00}
	Green = Color{0x00, 0xFF, 0x00}
	Blue  = Color{0x00, 0x00, 0xFF}
)

// RGB packs a 0xRRGGBB value into a Color
func RGB(hex uint32) Color {
	return Color{uint8(hex >> 16), uint8(hex >> 8), uint8(hex)}
}

// Uint32 returns the color as 0xRRGGBB
func (c Color) Uint32() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Hex returns the color in #rrggbb notation
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	return c.Hex()
}

// Channel returns channel 0 (red), 1 (green) or 2 (blue)
func (c Color) Channel(idx int) uint8 {
	switch idx {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

// SetChannel is the counterpart of Channel
func (c *Color) SetChannel(idx int, v uint8) {
	switch idx {
	case 0:
		c.R = v
	case 1:
		c.G = v
	default:
		c.B = v
	}
}

// Add sums the channels saturating at 255
func (c Color) Add(o Color) Color {
	return Color{addSat(c.R, o.R), addSat(c.G, o.G), addSat(c.B, o.B)}
}

// Sub subtracts the channels saturating at 0
func (c Color) Sub(o Color) Color {
	return Color{subSat(c.R, o.R), subSat(c.G, o.G), subSat(c.B, o.B)}
}

// Scale multiplies every channel by f, clamped to the valid range
func (c Color) Scale(f float64) Color {
	return Color{clamp8(float64(c.R) * f), clamp8(float64(c.G) * f), clamp8(float64(c.B) * f)}
}

// FadeLightBy dims the color by amount/256, 0 leaves the color untouched
// and 255 leaves almost nothing
func (c Color) FadeLightBy(amount uint8) Color {
	keep := 256 - uint16(amount)
	return Color{
		uint8(uint16(c.R) * keep >> 8),
		uint8(uint16(c.G) * keep >> 8),
		uint8(uint16(c.B) * keep >> 8),
	}
}

// Lerp walks linearly from c towards o, t in [0,1]
func (c Color) Lerp(o Color, t float64) Color {
	t = math.Max(0, math.Min(1, t))
	return Color{
		clamp8(float64(c.R) + (float64(o.R)-float64(c.R))*t),
		clamp8(float64(c.G) + (float64(o.G)-float64(c.G))*t),
		clamp8(float64(c.B) + (float64(o.B)-float64(c.B))*t),
	}
}

// Blend mixes two colors in the Lab space, which gives visually even
// gradients on LED strips
func (c Color) Blend(o Color, t float64) Color {
	r, g, b := c.colorful().BlendLab(o.colorful(), t).Clamped().RGB255()
	return Color{r, g, b}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255.0, G: float64(c.G) / 255.0, B: float64(c.B) / 255.0}
}

// ParseHex accepts #rrggbb and #rgb notation
func ParseHex(s string) (c Color, err errors.Error) {
	col, errGo := colorful.Hex(s)
	if errGo != nil {
		return c, errors.Wrap(errGo).With("color", s).With("stack", stack.Trace().TrimRuntime())
	}
	c.R, c.G, c.B = col.RGB255()
	return c, nil
}

func addSat(a, b uint8) uint8 {
	if s := uint16(a) + uint16(b); s < 0xFF {
		return uint8(s)
	}
	return 0xFF
}

func subSat(a, b uint8) uint8 {
	if a < b {
		return 0
	}
	return a - b
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
