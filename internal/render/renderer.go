// Package render expands the 12-bit palette segment into ARGB32, scales a
// 4-bit indexed page to RGB, and hands the result to a pluggable display
// Sink (spec.md §6).
package render

import (
	"fmt"

	"github.com/kbrandt/anotherworld/internal/res"
)

const (
	screenW     = 320
	screenH     = 200
	scaleFactor = 3
	numColors   = 16
)

// ScaledW and ScaledH are the dimensions a Sink's frame buffer must hold
// after the ×3 nearest-neighbor scale (spec.md §6).
const (
	ScaledW = screenW * scaleFactor
	ScaledH = screenH * scaleFactor
)

// Sink is the narrow contract the host window/event loop satisfies — the
// only part of the display pipeline this engine treats as an external
// collaborator (spec.md §1). It mirrors the teacher's Keyboard/Speaker
// seams: a minimal interface the interpreter core depends on, implemented
// by whatever concrete display the caller wires in.
type Sink interface {
	// UpdateFrame receives one fully-scaled ARGB32 frame, row-major,
	// width×height pixels.
	UpdateFrame(pixels []uint32, width, height int) error
}

// Renderer holds the 16-entry ARGB palette expanded from the current
// Palette segment and performs the indexed→RGB blit.
type Renderer struct {
	palette [numColors]uint32
}

// New returns a Renderer with a zeroed (all-black) palette.
func New() *Renderer {
	return &Renderer{}
}

// SetPalette reads 16 big-endian RGB444 entries from cursor at its current
// position and expands each to ARGB32 by nibble duplication (spec.md §6):
// r |= r<<4, g |= g<<4, b |= b<<4, alpha left 0.
func (r *Renderer) SetPalette(cursor *res.Cursor) error {
	for i := 0; i < numColors; i++ {
		v, err := cursor.ReadU16()
		if err != nil {
			return fmt.Errorf("render: read palette entry %d: %w", i, err)
		}
		rr := uint32(v&0x0F00) >> 8
		gg := uint32(v&0x00F0) >> 4
		bb := uint32(v & 0x000F)
		rr |= rr << 4
		gg |= gg << 4
		bb |= bb << 4
		r.palette[i] = rr<<16 | gg<<8 | bb
	}
	return nil
}

// Blit scales a 320x200 4-bit indexed page (32000 bytes, two pixels per
// byte, high nibble first) into a 960x600 ARGB32 buffer via ×3
// nearest-neighbor replication and hands it to sink (spec.md §6).
func (r *Renderer) Blit(page []byte, sink Sink) error {
	out := make([]uint32, ScaledW*ScaledH)
	bytesPerRow := screenW / 2

	for row := 0; row < screenH; row++ {
		srcRow := page[row*bytesPerRow : (row+1)*bytesPerRow]
		for i, twoPixels := range srcRow {
			left := r.palette[twoPixels>>4]
			right := r.palette[twoPixels&0x0F]
			for y := 0; y < scaleFactor; y++ {
				destRow := (row*scaleFactor + y) * ScaledW
				col := i * 2 * scaleFactor
				for x := 0; x < scaleFactor; x++ {
					out[destRow+col+x] = left
					out[destRow+col+scaleFactor+x] = right
				}
			}
		}
	}

	return sink.UpdateFrame(out, ScaledW, ScaledH)
}
