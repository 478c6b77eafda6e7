package res

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbrandt/anotherworld/internal/bank"
)

func TestSegmentIndices_RejectsInvalidPart(t *testing.T) {
	if _, err := segmentIndices(Part(0)); err == nil {
		t.Fatal("expected error for invalid part")
	}
}

func TestSegmentIndices_OptionalPolygonAbsent(t *testing.T) {
	idx, err := segmentIndices(PartArene)
	if err != nil {
		t.Fatalf("segmentIndices: %v", err)
	}
	if idx[SegPolygon] != 0 {
		t.Fatalf("PartArene Polygon segment = %#x, want 0 (absent)", idx[SegPolygon])
	}
	if idx[SegPalette] == 0 || idx[SegBytecode] == 0 || idx[SegPolyCinematic] == 0 {
		t.Fatalf("PartArene required segments must be non-zero, got %+v", idx)
	}
}

// buildFixture writes a minimal memlist.bin + bank00 pair on disk covering
// the four mem-entry indices PartIntro needs (0x17-0x1A), each stored
// pass-through (PackedSize == Size) so decompression is not exercised here.
func buildFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	payloads := map[uint16][]byte{
		0x17: {0xAA}, // palette
		0x18: {0xBB}, // bytecode
		0x19: {0xCC}, // polycinematic
		0x1A: {0xDD}, // polygon
	}

	var bank bytes.Buffer
	offsets := make(map[uint16]uint32)
	for _, idx := range []uint16{0x17, 0x18, 0x19, 0x1A} {
		offsets[idx] = uint32(bank.Len())
		bank.Write(payloads[idx])
	}
	if err := os.WriteFile(filepath.Join(dir, "bank00"), bank.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	memlist := make([]byte, entryRecordSizeForTest()*EntryCountForTest())
	putEntry := func(i int, bankID uint8, offset uint32, size uint16) {
		base := i * entryRecordSizeForTest()
		memlist[base+7] = bankID
		memlist[base+8] = byte(offset >> 24)
		memlist[base+9] = byte(offset >> 16)
		memlist[base+10] = byte(offset >> 8)
		memlist[base+11] = byte(offset)
		memlist[base+14] = byte(size >> 8)
		memlist[base+15] = byte(size)
		memlist[base+18] = byte(size >> 8)
		memlist[base+19] = byte(size)
	}
	putEntry(0x17, 0, offsets[0x17], 1)
	putEntry(0x18, 0, offsets[0x18], 1)
	putEntry(0x19, 0, offsets[0x19], 1)
	putEntry(0x1A, 0, offsets[0x1A], 1)

	if err := os.WriteFile(filepath.Join(dir, "memlist.bin"), memlist, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRegistry_SetupPart(t *testing.T) {
	dir := buildFixture(t)

	reg, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	lp, err := reg.SetupPart(PartIntro)
	if err != nil {
		t.Fatalf("SetupPart: %v", err)
	}
	if lp.Palette.Buf[0] != 0xAA || lp.Bytecode.Buf[0] != 0xBB ||
		lp.PolyCinematic.Buf[0] != 0xCC || lp.Polygon.Buf[0] != 0xDD {
		t.Fatalf("unexpected segment contents: %+v", lp)
	}
	if lp.Bytecode.Pos() != 0 {
		t.Fatalf("fresh cursor pos = %d, want 0", lp.Bytecode.Pos())
	}
}

func TestCursor_SeekRoundTrips(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3, 4})
	b, err := c.ReadU8()
	if err != nil || b != 1 {
		t.Fatalf("ReadU8 = %d, %v", b, err)
	}
	saved := c.Pos()
	if _, err := c.ReadU16(); err != nil {
		t.Fatalf("ReadU16: %v", err)
	}
	c.Seek(saved)
	v, err := c.ReadU16()
	if err != nil || v != 0x0203 {
		t.Fatalf("ReadU16 after Seek = %#x, %v", v, err)
	}
}

func entryRecordSizeForTest() int { return 20 }
func EntryCountForTest() int      { return bank.EntryCount }
