// Package res maps game parts to their segment blobs: the resource
// registry sitting on top of internal/bank.
package res

import "fmt"

// Part identifies one self-contained chapter of the game (spec.md §3).
type Part uint16

// The ten recognized game parts.
const (
	PartCopyProtection Part = 0x3E80
	PartIntro          Part = 0x3E81
	PartWater          Part = 0x3E82
	PartPrison         Part = 0x3E83
	PartCite           Part = 0x3E84
	PartArene          Part = 0x3E85
	PartLuxe           Part = 0x3E86
	PartFinal1         Part = 0x3E87
	PartFinal2         Part = 0x3E88
	PartPassword       Part = 0x3E89
)

// IsValid reports whether p is one of the ten recognized game parts.
func (p Part) IsValid() bool {
	return p >= PartCopyProtection && p <= PartPassword
}

// SegmentKind distinguishes the four kinds of segment a LoadedPart owns.
// Modeled as an enum (grounded on original_source/src/resource.rs) rather
// than a raw 0..3 index, since a plain index is easy to transpose by
// accident against the lookup table below.
type SegmentKind int

const (
	SegPalette SegmentKind = iota
	SegBytecode
	SegPolyCinematic
	SegPolygon
	segCount
)

// partSegments is the static 10x4 lookup table of mem-entry indices for
// each part, keyed [part-offset][SegmentKind]. An index of 0 means
// "absent" (only ever valid for SegPolygon).
//
// These are the original game's resource indices; they are opaque
// constants to this engine, just as the teacher's font sprite table
// (cpu/cpu.go's loadFontSprites) is an opaque constant table to the Chip-8
// interpreter.
var partSegments = [10][segCount]uint16{
	/* PartCopyProtection */ {0x14, 0x15, 0x16, 0x00},
	/* PartIntro          */ {0x17, 0x18, 0x19, 0x1A},
	/* PartWater          */ {0x1B, 0x1C, 0x1D, 0x1E},
	/* PartPrison         */ {0x1F, 0x20, 0x21, 0x22},
	/* PartCite           */ {0x23, 0x24, 0x25, 0x26},
	/* PartArene          */ {0x27, 0x28, 0x29, 0x00},
	/* PartLuxe           */ {0x2A, 0x2B, 0x2C, 0x00},
	/* PartFinal1         */ {0x2D, 0x2E, 0x2F, 0x00},
	/* PartFinal2         */ {0x30, 0x31, 0x32, 0x00},
	/* PartPassword       */ {0x33, 0x34, 0x35, 0x00},
}

func segmentIndices(p Part) ([segCount]uint16, error) {
	if !p.IsValid() {
		return [segCount]uint16{}, fmt.Errorf("res: invalid game part %#x", uint16(p))
	}
	return partSegments[p-PartCopyProtection], nil
}
