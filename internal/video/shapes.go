package video

import "github.com/kbrandt/anotherworld/internal/res"

// maxPolygonPoints bounds the vertex list a single leaf polygon can carry
// (spec.md §4.3: "num_points (even, <64)").
const maxPolygonPoints = 64

// Point is a reference point or vertex in screen space.
type Point struct {
	X, Y int16
}

// polygon is a leaf shape: a bounding box and the even-length vertex ring
// that walks it (spec.md §4.3/§4.4).
type polygon struct {
	bbw, bbh int16
	points   []Point
}

// readPolygon reads a leaf polygon's bounding box and vertex list, each
// dimension pre-scaled by zoom/64 per spec.md §4.3.
func readPolygon(c *res.Cursor, zoom uint16) (polygon, error) {
	bbwRaw, err := c.ReadU8()
	if err != nil {
		return polygon{}, err
	}
	bbhRaw, err := c.ReadU8()
	if err != nil {
		return polygon{}, err
	}
	n, err := c.ReadU8()
	if err != nil {
		return polygon{}, err
	}
	numPoints := int(n)
	if numPoints%2 != 0 {
		return polygon{}, errUnexpectedCommand("polygon point count %d is odd", numPoints)
	}
	if numPoints >= maxPolygonPoints {
		return polygon{}, errUnexpectedCommand("polygon point count %d exceeds max %d", numPoints, maxPolygonPoints)
	}

	p := polygon{
		bbw:    scale(int16(bbwRaw), zoom),
		bbh:    scale(int16(bbhRaw), zoom),
		points: make([]Point, numPoints),
	}
	for i := 0; i < numPoints; i++ {
		x, err := c.ReadU8()
		if err != nil {
			return polygon{}, err
		}
		y, err := c.ReadU8()
		if err != nil {
			return polygon{}, err
		}
		p.points[i] = Point{X: scale(int16(x), zoom), Y: scale(int16(y), zoom)}
	}
	return p, nil
}

func scale(v int16, zoom uint16) int16 {
	return int16(int32(v) * int32(zoom) / 64)
}
