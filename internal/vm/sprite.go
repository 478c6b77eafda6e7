package vm

import "github.com/kbrandt/anotherworld/internal/video"

// drawSprite implements the bit-0x40 opcode family: x, y and zoom are each
// sourced one of several ways depending on bits of the opcode itself, and
// the record is read from either the PolyCinematic or Polygon segment
// depending on the opcode's low 2 bits (spec.md §4.5, §9's resolved
// cinematic/polygon mutual-exclusion decision).
func (v *VM) drawSprite(opcode uint8) error {
	c := v.bytecode()
	rawOffset, err := c.ReadU16()
	if err != nil {
		return err
	}
	offset := int(rawOffset) * 2

	xb, err := c.ReadU8()
	if err != nil {
		return err
	}
	x := int16(xb)
	switch {
	case opcode&0x20 == 0:
		if opcode&0x10 == 0 {
			lo, err := c.ReadU8()
			if err != nil {
				return err
			}
			x = (x << 8) | int16(lo)
		} else {
			x = v.vars[x]
		}
	case opcode&0x10 != 0:
		x += 0x100
	}

	yb, err := c.ReadU8()
	if err != nil {
		return err
	}
	y := int16(yb)
	if opcode&8 == 0 {
		if opcode&4 == 0 {
			lo, err := c.ReadU8()
			if err != nil {
				return err
			}
			y = (y << 8) | int16(lo)
		} else {
			y = v.vars[y]
		}
	}

	zb, err := c.ReadU8()
	if err != nil {
		return err
	}
	zoom := uint16(zb)
	switch {
	case opcode&2 == 0:
		if opcode&1 == 0 {
			c.Seek(c.Pos() - 1)
			zoom = 0x40
		} else {
			zoom = uint16(v.vars[zoom])
		}
	case opcode&1 != 0:
		c.Seek(c.Pos() - 1)
		zoom = 0x40
	}

	if opcode&3 == 3 {
		if v.loadedPart.Polygon == nil {
			return ErrMissingPolygonSegment
		}
		v.loadedPart.Polygon.Seek(offset)
		return v.video.ReadAndDrawPolygon(v.loadedPart.Polygon, 0xFF, zoom, video.Point{X: x, Y: y})
	}

	v.loadedPart.PolyCinematic.Seek(offset)
	return v.video.ReadAndDrawPolygon(v.loadedPart.PolyCinematic, 0xFF, zoom, video.Point{X: x, Y: y})
}

// drawBackground implements the bit-0x80 opcode family: a fixed-zoom,
// fixed-color (0xFF) polygon read from the PolyCinematic segment, with the
// y coordinate clamped to the visible area (spec.md §4.5).
func (v *VM) drawBackground(opcode uint8) error {
	c := v.bytecode()
	lo, err := c.ReadU8()
	if err != nil {
		return err
	}
	offset := int(uint16(opcode)<<8|uint16(lo)) * 2

	xb, err := c.ReadU8()
	if err != nil {
		return err
	}
	yb, err := c.ReadU8()
	if err != nil {
		return err
	}
	x := int16(xb)
	y := int16(yb)

	if h := y - 199; h > 0 {
		y = 199
		x += h
	}

	v.loadedPart.PolyCinematic.Seek(offset)
	return v.video.ReadAndDrawPolygon(v.loadedPart.PolyCinematic, 0xFF, 0x40, video.Point{X: x, Y: y})
}
