package render

import (
	"testing"

	"github.com/kbrandt/anotherworld/internal/res"
)

// TestSetPalette_ExpandsRGB444 covers spec.md §8 scenario 5: 0F A5 -> RGB444
// 0x0FA5 -> R=0xFF, G=0xAA, B=0x55 -> ARGB 0x00FFAA55.
func TestSetPalette_ExpandsRGB444(t *testing.T) {
	data := make([]byte, 32)
	data[0], data[1] = 0x0F, 0xA5

	r := New()
	if err := r.SetPalette(res.NewCursor(data)); err != nil {
		t.Fatalf("SetPalette: %v", err)
	}
	if got, want := r.palette[0], uint32(0x00FFAA55); got != want {
		t.Fatalf("palette[0] = %#08x, want %#08x", got, want)
	}
}

func TestBlit_ScalesAndPaintsFromPalette(t *testing.T) {
	r := New()
	data := make([]byte, 32)
	data[0], data[1] = 0x0F, 0x00 // palette[0] = RGB444 0x0F00 -> red 0x00FF0000
	// palette index 1 -> RGB444 from bytes 2,3: black, distinct from palette[0]
	data[2], data[3] = 0x00, 0x00
	if err := r.SetPalette(res.NewCursor(data)); err != nil {
		t.Fatalf("SetPalette: %v", err)
	}

	page := make([]byte, screenW*screenH/2)
	page[0] = 0x01 // left nibble = color 0, right nibble = color 1

	sink := NewHeadlessSink()
	if err := r.Blit(page, sink); err != nil {
		t.Fatalf("Blit: %v", err)
	}
	if sink.Width != ScaledW || sink.Height != ScaledH {
		t.Fatalf("frame dims = %dx%d, want %dx%d", sink.Width, sink.Height, ScaledW, ScaledH)
	}
	if len(sink.Last) != ScaledW*ScaledH {
		t.Fatalf("frame length = %d, want %d", len(sink.Last), ScaledW*ScaledH)
	}
	// the first 3x3 block should be palette[0], the next 3x3 block palette[1].
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if got := sink.Last[y*ScaledW+x]; got != r.palette[0] {
				t.Fatalf("pixel (%d,%d) = %#08x, want palette[0] %#08x", x, y, got, r.palette[0])
			}
		}
	}
	for y := 0; y < 3; y++ {
		for x := 3; x < 6; x++ {
			if got := sink.Last[y*ScaledW+x]; got != r.palette[1] {
				t.Fatalf("pixel (%d,%d) = %#08x, want palette[1] %#08x", x, y, got, r.palette[1])
			}
		}
	}
}

func TestPacer_ZeroTargetDoesNotBlock(t *testing.T) {
	p := NewPacer()
	p.Pace(0) // should not block
}
