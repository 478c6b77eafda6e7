package res

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kbrandt/anotherworld/internal/bank"
)

// Registry maps game-part requests to decompressed segment blobs, reading
// memlist.bin and the bankNN files that back it.
type Registry struct {
	dataDir string
	reader  *bank.Reader
	entries [bank.EntryCount]bank.MemEntry
}

// Open reads memlist.bin under dataDir and returns a ready-to-use Registry.
func Open(dataDir string) (*Registry, error) {
	f, err := os.Open(filepath.Join(dataDir, "memlist.bin"))
	if err != nil {
		return nil, fmt.Errorf("res: open memlist.bin: %w", err)
	}
	defer f.Close()

	entries, err := bank.ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("res: parse memlist.bin: %w", err)
	}

	return &Registry{
		dataDir: dataDir,
		reader:  bank.NewReader(dataDir),
		entries: entries,
	}, nil
}

// LoadEntry loads and decompresses the mem-entry at index.
func (r *Registry) LoadEntry(index uint16) ([]byte, error) {
	if int(index) >= len(r.entries) {
		return nil, fmt.Errorf("res: mem-entry index %d out of range", index)
	}
	data, err := r.reader.Load(r.entries[index])
	if err != nil {
		return nil, fmt.Errorf("res: load entry %d: %w", index, err)
	}
	return data, nil
}

// Cursor is a seekable position within a loaded segment blob. The
// bytecode cursor's position IS the running channel's program counter
// (spec.md §3): channels snapshot and restore it via Seek.
type Cursor struct {
	Buf []byte
	pos int
}

// NewCursor wraps buf at position 0.
func NewCursor(buf []byte) *Cursor { return &Cursor{Buf: buf} }

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// Seek moves the cursor to an absolute byte offset.
func (c *Cursor) Seek(pos int) { c.pos = pos }

// Len returns the length of the underlying segment blob.
func (c *Cursor) Len() int { return len(c.Buf) }

// ReadU8 reads one byte and advances the cursor.
func (c *Cursor) ReadU8() (uint8, error) {
	if c.pos >= len(c.Buf) {
		return 0, fmt.Errorf("res: cursor: read past end of segment at %#x", c.pos)
	}
	b := c.Buf[c.pos]
	c.pos++
	return b, nil
}

// ReadU16 reads a big-endian uint16 and advances the cursor.
func (c *Cursor) ReadU16() (uint16, error) {
	if c.pos+2 > len(c.Buf) {
		return 0, fmt.Errorf("res: cursor: read past end of segment at %#x", c.pos)
	}
	v := uint16(c.Buf[c.pos])<<8 | uint16(c.Buf[c.pos+1])
	c.pos += 2
	return v, nil
}

// ReadI16 reads a big-endian, signed 16-bit value and advances the cursor.
func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

// LoadedPart owns the four segment blobs bound to one game part. Palette,
// Bytecode and PolyCinematic are required; Polygon is optional (spec.md §3).
type LoadedPart struct {
	Part         Part
	Palette      *Cursor
	Bytecode     *Cursor
	PolyCinematic *Cursor
	Polygon      *Cursor // nil if the part has no Polygon segment
}

// SetupPart loads the part's 4 segment indices (Palette, Bytecode,
// PolyCinematic, Polygon, in that order) and builds a LoadedPart. It fails
// if any of the first three are missing; Polygon is left nil when absent.
func (r *Registry) SetupPart(p Part) (*LoadedPart, error) {
	indices, err := segmentIndices(p)
	if err != nil {
		return nil, err
	}

	lp := &LoadedPart{Part: p}
	for kind := SegmentKind(0); kind < segCount; kind++ {
		idx := indices[kind]
		if idx == 0 {
			if kind == SegPolygon {
				continue
			}
			return nil, fmt.Errorf("res: part %#x missing required segment %v", uint16(p), kind)
		}
		data, err := r.LoadEntry(idx)
		if err != nil {
			return nil, fmt.Errorf("res: part %#x segment %v: %w", uint16(p), kind, err)
		}
		cur := NewCursor(data)
		switch kind {
		case SegPalette:
			lp.Palette = cur
		case SegBytecode:
			lp.Bytecode = cur
		case SegPolyCinematic:
			lp.PolyCinematic = cur
		case SegPolygon:
			lp.Polygon = cur
		}
	}
	return lp, nil
}

func (k SegmentKind) String() string {
	switch k {
	case SegPalette:
		return "Palette"
	case SegBytecode:
		return "Bytecode"
	case SegPolyCinematic:
		return "PolyCinematic"
	case SegPolygon:
		return "Polygon"
	default:
		return "Unknown"
	}
}
