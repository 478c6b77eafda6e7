package video

import "github.com/kbrandt/anotherworld/internal/res"

// ReadAndDrawPolygon decodes one polygon record at the cursor's current
// position and rasterizes it (or recurses into its children), per spec.md
// §4.3. color's high bit, when set, means "take the color from the leaf
// command byte instead".
func (v *Video) ReadAndDrawPolygon(c *res.Cursor, color uint8, zoom uint16, pt Point) error {
	command, err := c.ReadU8()
	if err != nil {
		return err
	}

	if command >= 0xC0 {
		if color&0x80 != 0 {
			color = command & 0x3F
		}
		shape, err := readPolygon(c, zoom)
		if err != nil {
			return err
		}
		v.fillPolygon(color, pt, shape)
		return nil
	}

	if command&0x3F == 2 {
		return v.readAndDrawPolygonHierarchy(c, zoom, pt)
	}
	return errUnexpectedCommand("unexpected polygon command %#x", command)
}

// readAndDrawPolygonHierarchy reads a hierarchical record's reference-point
// offset and its children, recursing into each child's own record in turn
// and restoring the cursor position afterward (spec.md §4.3).
func (v *Video) readAndDrawPolygonHierarchy(c *res.Cursor, zoom uint16, pgc Point) error {
	dx, err := c.ReadU8()
	if err != nil {
		return err
	}
	dy, err := c.ReadU8()
	if err != nil {
		return err
	}
	pt := Point{
		X: pgc.X - scale(int16(dx), zoom),
		Y: pgc.Y - scale(int16(dy), zoom),
	}

	children, err := c.ReadU8()
	if err != nil {
		return err
	}

	for i := 0; i <= int(children); i++ {
		rawOffset, err := c.ReadU16()
		if err != nil {
			return err
		}
		cdx, err := c.ReadU8()
		if err != nil {
			return err
		}
		cdy, err := c.ReadU8()
		if err != nil {
			return err
		}
		po := Point{
			X: pt.X + scale(int16(cdx), zoom),
			Y: pt.Y + scale(int16(cdy), zoom),
		}

		childColor := uint8(0xFF)
		offset := rawOffset & 0x7FFF
		if rawOffset&0x8000 != 0 {
			colorByte, err := c.ReadU8()
			if err != nil {
				return err
			}
			childColor = colorByte & 0x7F
			if _, err := c.ReadU8(); err != nil { // skipped byte
				return err
			}
		}

		savedPos := c.Pos()
		c.Seek(int(offset) * 2)
		if err := v.ReadAndDrawPolygon(c, childColor, zoom, po); err != nil {
			return err
		}
		c.Seek(savedPos)
	}
	return nil
}
