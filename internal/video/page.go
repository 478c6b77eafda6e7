// Package video implements the four 320x200 4-bit indexed framebuffers, the
// three draw modes, and the polygon/background rasterizer that fill them
// (spec.md §4.4).
package video

import (
	"fmt"

	"github.com/kbrandt/anotherworld/internal/render"
	"github.com/kbrandt/anotherworld/internal/res"
)

const (
	screenW   = 320
	screenH   = 200
	pageSize  = screenW * screenH / 2
	bytesPerRow = screenW / 8
)

// PageID identifies one of the four pages, or a reference to whichever page
// is currently front/back. Numbered pages outside 0..3 silently collapse to
// page 0 (spec.md §4.4, §7).
type PageID uint8

const (
	PageFront PageID = 0xFE
	PageBack  PageID = 0xFF
)

// Video owns the four indexed pages and the pending palette-change request,
// and drives the renderer that turns a page into an on-screen frame.
type Video struct {
	pages [4][pageSize]byte

	work, front, back int
	hlineY            int16

	paletteID   uint8
	paletteReq  bool
	renderer    *render.Renderer
}

// New returns a Video with the teacher-grounded initial buffer assignment:
// work and front both start on page 2, back on page 1 (src/video.rs's
// Video::new — the original engine's opening frame reads from a blank page
// before any part has drawn to it).
func New(r *render.Renderer) *Video {
	return &Video{work: 2, front: 2, back: 1, renderer: r}
}

// resolvePage maps a raw page-select byte to a concrete page index.
func (v *Video) resolvePage(raw uint8) int {
	switch PageID(raw) {
	case PageFront:
		return v.front
	case PageBack:
		return v.back
	default:
		if raw <= 3 {
			return int(raw)
		}
		return 0
	}
}

// SelectWorkingPage implements SELECT_VIDEO_PAGE.
func (v *Video) SelectWorkingPage(raw uint8) {
	v.work = v.resolvePage(raw)
}

// FillPage implements FILL_VIDEO_PAGE: every byte becomes (color<<4)|color.
func (v *Video) FillPage(raw uint8, color uint8) {
	page := &v.pages[v.resolvePage(raw)]
	b := color<<4 | color
	for i := range page {
		page[i] = b
	}
}

// CopyPage implements COPY_VIDEO_PAGE, including the vertical-scroll path
// gated on bit 0x80 of a numbered source page (spec.md §4.4; the "0x80 vs
// decimal 80" ambiguity is resolved in DESIGN.md's Open Question log).
func (v *Video) CopyPage(rawSrc, rawDst uint8, vscroll int16) {
	if rawSrc == rawDst {
		return
	}

	scrolled := rawSrc != uint8(PageFront) && rawSrc != uint8(PageBack) && rawSrc&0x80 != 0
	if scrolled {
		rawSrc &= 0x03
	}

	srcIdx := v.resolvePage(rawSrc)
	dstIdx := v.resolvePage(rawDst)
	if srcIdx == dstIdx {
		return
	}

	if scrolled && (vscroll >= -199 && vscroll <= 199) {
		const rowBytes = screenW / 2
		n := screenH - abs16(vscroll)
		var srcOff, dstOff int
		if vscroll < 0 {
			srcOff = int(-vscroll) * rowBytes
		} else {
			dstOff = int(vscroll) * rowBytes
		}
		count := int(n) * rowBytes
		copy(v.pages[dstIdx][dstOff:dstOff+count], v.pages[srcIdx][srcOff:srcOff+count])
		return
	}
	v.pages[dstIdx] = v.pages[srcIdx]
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}

// CopyBackground deinterleaves a 4-bit-plane background blob into page 0
// (spec.md §4.4), invoked once when a part's Polygon segment is present.
func (v *Video) CopyBackground(src []byte) {
	const planeOffset = screenH * screenW / 8
	for h := 0; h < screenH; h++ {
		for w := 0; w < bytesPerRow; w++ {
			planes := [4]byte{
				src[h*bytesPerRow+w+planeOffset*3],
				src[h*bytesPerRow+w+planeOffset*2],
				src[h*bytesPerRow+w+planeOffset],
				src[h*bytesPerRow+w],
			}
			for b := 0; b < 4; b++ {
				var acc byte
				for bit := 0; bit < 8; bit++ {
					acc <<= 1
					acc |= (planes[bit&3] >> 7) & 1
					planes[bit&3] <<= 1
				}
				v.pages[0][(h*bytesPerRow+w)*4+b] = acc
			}
		}
	}
}

// RequestPalette stages a palette change to be applied by the next
// BLIT_FRAME_BUFFER (SET_PALETTE, spec.md §4.5).
func (v *Video) RequestPalette(id uint8) {
	v.paletteID = id
	v.paletteReq = true
}

// UpdateDisplay implements the page-select half of BLIT_FRAME_BUFFER: it
// resolves the requested display page (swapping front/back when the page is
// PageBack), applies any pending palette change, and hands the resulting
// front page to the renderer.
func (v *Video) UpdateDisplay(raw uint8, palette *res.Cursor, sink render.Sink) error {
	switch PageID(raw) {
	case PageBack:
		v.front, v.back = v.back, v.front
	case PageFront:
		// front stays front; mirrors the original engine's no-op branch.
	default:
		v.front = v.resolvePage(raw)
	}

	if v.paletteReq {
		if v.paletteID >= 32 {
			return &ErrInvalidPalette{Index: v.paletteID}
		}
		palette.Seek(int(v.paletteID) * 32)
		if err := v.renderer.SetPalette(palette); err != nil {
			return fmt.Errorf("video: set palette: %w", err)
		}
		v.paletteReq = false
	}

	return v.renderer.Blit(v.pages[v.front][:], sink)
}

// fillPolygon rasterizes a (possibly degenerate) polygon at pt, per spec.md
// §4.4's scanline walk: left edge from points[last] backward, right edge
// from points[0] forward.
func (v *Video) fillPolygon(color uint8, pt Point, p polygon) {
	if p.bbw == 0 && p.bbh == 1 && len(p.points) == 4 {
		v.drawPoint(pt.X, pt.Y, color)
		return
	}

	x1 := pt.X - p.bbw/2
	x2 := pt.X + p.bbw/2
	y1 := pt.Y - p.bbh/2
	y2 := pt.Y + p.bbh/2
	if x1 > 319 || x2 < 0 || y1 > 199 || y2 < 0 {
		return
	}

	v.hlineY = y1
	n := len(p.points)
	for i := 0; i < n/2; i++ {
		currLeft := p.points[n-1-i]
		nextLeft := p.points[n-2-i]
		currRight := p.points[i]
		nextRight := p.points[i+1]

		stepLeft := calcStep(currLeft, nextLeft)
		stepRight := calcStep(currRight, nextRight)
		hDiff := nextLeft.Y - currLeft.Y

		if hDiff <= 0 {
			continue
		}
		xLeft := float64(currLeft.X) + float64(x1)
		xRight := float64(currRight.X) + float64(x1)
		for s := int16(0); s < hDiff; s++ {
			if v.hlineY >= 0 && xLeft <= 319 && xRight >= 0 {
				drawLeft := clampI16(round(xLeft), 0, 319)
				drawRight := clampI16(round(xRight), 0, 319)
				switch {
				case color < 0x10:
					v.drawLineNormal(drawLeft, drawRight, color)
				case color > 0x10:
					v.drawLineFromBackground(drawLeft, drawRight)
				default:
					v.drawLineBlend(drawLeft, drawRight)
				}
			}
			xLeft += stepLeft
			xRight += stepRight
			v.hlineY++
			if v.hlineY > 199 {
				return
			}
		}
	}
}

func calcStep(p1, p2 Point) float64 {
	dy := p2.Y - p1.Y
	dx := p2.X - p1.X
	return float64(dx) / float64(dy)
}

func round(f float64) int16 {
	if f >= 0 {
		return int16(f + 0.5)
	}
	return int16(f - 0.5)
}

func clampI16(v, lo, hi int16) int16 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// drawPoint is the single-pixel path used by the degenerate polygon case
// and exercised directly by background draws (spec.md §4.4).
func (v *Video) drawPoint(x, y int16, color uint8) {
	if x < 0 || x > 319 || y < 0 || y > 199 {
		return
	}
	offset := int(y)*160 + int(x)/2
	oldMask, newMask := byte(0x0F), byte(0xF0)
	if x&1 != 0 {
		oldMask, newMask = 0xF0, 0x0F
	}

	byteColor := color<<4 | color
	switch {
	case color == 0x10:
		newMask &= 0x88
		oldMask = ^newMask
		byteColor = 0x88
	case color > 0x10:
		byteColor = v.pages[0][offset]
	}

	page := &v.pages[v.work]
	page[offset] = page[offset]&oldMask | byteColor&newMask
}

func (v *Video) lineSpan(x1, x2 int16) (offset, width int) {
	xMax, xMin := x1, x2
	if xMin > xMax {
		xMin, xMax = xMax, xMin
	}
	offset = int(v.hlineY)*160 + int(xMin)/2
	width = int(xMax/2-xMin/2) + 1
	return
}

func lineEdges(x1, x2 int16) (start, end int) {
	xMax, xMin := x1, x2
	if xMin > xMax {
		xMin, xMax = xMax, xMin
	}
	width := int(xMax/2-xMin/2) + 1
	start = int(xMin & 1)
	end = width - 1 - int((xMax&1)^1)
	if end < 0 {
		end = 0
	}
	return
}

// drawLineNormal is the solid-fill draw mode (color < 0x10).
func (v *Video) drawLineNormal(x1, x2 int16, color uint8) {
	offset, width := v.lineSpan(x1, x2)
	start, end := lineEdges(x1, x2)
	page := &v.pages[v.work]
	byteColor := (color&0xF)<<4 | color&0xF
	page[offset] = page[offset]&0xF0 | byteColor&0x0F
	page[offset+width-1] = page[offset+width-1]&0x0F | byteColor&0xF0
	for i := start; i <= end; i++ {
		page[offset+i] = byteColor
	}
}

// drawLineFromBackground is the copy-from-background draw mode (color > 0x10).
func (v *Video) drawLineFromBackground(x1, x2 int16) {
	offset, width := v.lineSpan(x1, x2)
	start, end := lineEdges(x1, x2)
	bg := &v.pages[0]
	page := &v.pages[v.work]
	page[offset] = page[offset]&0xF0 | bg[offset]&0x0F
	page[offset+width-1] = page[offset+width-1]&0x0F | bg[offset+width-1]&0xF0
	for i := start; i <= end; i++ {
		page[offset+i] = bg[offset+i]
	}
}

// drawLineBlend is the blend draw mode (color == 0x10): OR the high/low
// nibble with 0x8 at each affected byte.
func (v *Video) drawLineBlend(x1, x2 int16) {
	offset, width := v.lineSpan(x1, x2)
	start, end := lineEdges(x1, x2)
	page := &v.pages[v.work]
	page[offset] |= 0x08
	page[offset+width-1] |= 0x80
	for i := start; i <= end; i++ {
		page[offset+i] |= 0x88
	}
}
