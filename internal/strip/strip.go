// Package strip holds the LED output drivers. Every driver exposes the same
// four operations the renderer needs and never leaks hardware details.
package strip

import (
	"image/color"

	"github.com/chase3718/pianissimo/internal/layout"
)

// Strip is an addressable LED strip of layout.NumLEDs pixels. Set and Clear
// only touch the pending frame; Show pushes it to the hardware.
type Strip interface {
	Clear()
	Set(index int, c color.RGBA)
	Show() error
	SetBrightness(b uint8)
}

// Frame is one full set of pixel colors.
type Frame [layout.NumLEDs]color.RGBA

func (f *Frame) Clear() { *f = Frame{} }

// Set ignores indices outside the strip.
func (f *Frame) Set(index int, c color.RGBA) {
	if index < 0 || index >= len(f) {
		return
	}
	f[index] = c
}

// Lit counts pixels that are not black.
func (f *Frame) Lit() int {
	n := 0
	for _, c := range f {
		if c.R|c.G|c.B != 0 {
			n++
		}
	}
	return n
}

// Scale applies a global brightness to c the way FastLED does, 255 is full
// scale.
func Scale(c color.RGBA, brightness uint8) color.RGBA {
	s := uint16(brightness) + 1
	return color.RGBA{
		R: uint8(uint16(c.R) * s >> 8),
		G: uint8(uint16(c.G) * s >> 8),
		B: uint8(uint16(c.B) * s >> 8),
		A: c.A,
	}
}

// Buffer is an in-memory strip. It keeps the last shown frame.
type Buffer struct {
	pending    Frame
	shown      Frame
	brightness uint8
	shows      int
}

func NewBuffer() *Buffer { return &Buffer{brightness: 0xFF} }

func (b *Buffer) Clear()                      { b.pending.Clear() }
func (b *Buffer) Set(index int, c color.RGBA) { b.pending.Set(index, c) }
func (b *Buffer) SetBrightness(v uint8)       { b.brightness = v }

func (b *Buffer) Show() error {
	b.shown = b.pending
	b.shows++
	return nil
}

// Shown returns the last frame pushed with Show.
func (b *Buffer) Shown() *Frame { return &b.shown }

func (b *Buffer) Shows() int { return b.shows }

func (b *Buffer) Brightness() uint8 { return b.brightness }
