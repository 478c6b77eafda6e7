package video

import (
	"testing"

	"github.com/kbrandt/anotherworld/internal/render"
)

func newTestVideo() *Video {
	return New(render.New())
}

// TestFillPage_ThenRead covers spec.md §8: "Fill-page then read-any-offset
// yields (c<<4)|c".
func TestFillPage_ThenRead(t *testing.T) {
	v := newTestVideo()
	v.FillPage(0, 0x7)
	want := byte(0x77)
	for _, off := range []int{0, 1, 159, 31999} {
		if got := v.pages[0][off]; got != want {
			t.Fatalf("pages[0][%d] = %#x, want %#x", off, got, want)
		}
	}
}

// TestFillPolygon_DegenerateSinglePixel covers spec.md §8: polygon fill of
// (bbw=0, bbh=1, 4 points) draws exactly one nibble at y*160+x/2.
func TestFillPolygon_DegenerateSinglePixel(t *testing.T) {
	v := newTestVideo()
	v.work = 0
	shape := polygon{bbw: 0, bbh: 1, points: make([]Point, 4)}
	v.fillPolygon(0x3, Point{X: 10, Y: 5}, shape)

	offset := 5*160 + 10/2
	got := v.pages[0][offset]
	// x=10 is even -> high nibble is the affected pixel.
	if got&0xF0 != 0x30 {
		t.Fatalf("pages[0][%d] = %#x, want high nibble 0x3", offset, got)
	}
}

// TestCopyPage_NoOpWhenIdentical covers spec.md §8: copy-page with identical
// src/dst is a no-op byte-for-byte.
func TestCopyPage_NoOpWhenIdentical(t *testing.T) {
	v := newTestVideo()
	v.pages[0][0] = 0xAB
	v.CopyPage(0, 0, 0)
	if v.pages[0][0] != 0xAB {
		t.Fatalf("page mutated by no-op copy")
	}
}

func TestCopyPage_CopiesFullPage(t *testing.T) {
	v := newTestVideo()
	v.pages[1][100] = 0x42
	v.CopyPage(1, 2, 0)
	if v.pages[2][100] != 0x42 {
		t.Fatalf("CopyPage did not replicate source page")
	}
}

// TestDrawPoint_Boundary covers spec.md §8: draw at x in {-1,0,319,320} and
// y in {-1,0,199,200}: off-screen returns silently, on-screen affects
// exactly the one nibble.
func TestDrawPoint_Boundary(t *testing.T) {
	cases := []struct {
		x, y    int16
		onScreen bool
	}{
		{-1, 0, false},
		{0, 0, true},
		{319, 199, true},
		{320, 0, false},
		{0, -1, false},
		{0, 200, false},
	}
	for _, c := range cases {
		v := newTestVideo()
		v.work = 0
		v.drawPoint(c.x, c.y, 0x5)
		touched := false
		for _, b := range v.pages[0] {
			if b != 0 {
				touched = true
				break
			}
		}
		if touched != c.onScreen {
			t.Fatalf("drawPoint(%d,%d): touched=%v, want %v", c.x, c.y, touched, c.onScreen)
		}
	}
}

func TestCopyBackground_Deinterleaves(t *testing.T) {
	v := newTestVideo()
	src := make([]byte, screenH*screenW/8*4)
	// a single set bit in the base (no-offset) plane of row 0, byte 0
	// deterministically lands at bit position 4 of the first output byte,
	// per the bit-interleave order ported from the original source.
	src[0] = 0x80
	v.CopyBackground(src)
	if got, want := v.pages[0][0], byte(0x10); got != want {
		t.Fatalf("pages[0][0] = %#x, want %#x", got, want)
	}
}
