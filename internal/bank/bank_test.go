package bank

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestReadEntries_FirstRecord(t *testing.T) {
	raw := []byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x05,
		0x00, 0x00, 0x12, 0x34, 0x00, 0x00, 0x00, 0x07,
		0x00, 0x00, 0x00, 0x0A,
	}
	// pad to a full memlist so ReadEntries doesn't hit EOF early.
	full := make([]byte, entryRecordSize*EntryCount)
	copy(full, raw)
	entries, err := ReadEntries(bytes.NewReader(full))
	if err != nil {
		t.Fatalf("ReadEntries: %v", err)
	}

	got := entries[0]
	want := MemEntry{BankID: 5, BankOffset: 0x1234, PackedSize: 7, Size: 0x0A}
	if got != want {
		t.Fatalf("entry 0 = %+v, want %+v", got, want)
	}
}

func TestReadEntries_ShortInputIsFatal(t *testing.T) {
	_, err := ReadEntries(bytes.NewReader(make([]byte, entryRecordSize*EntryCount-1)))
	if err == nil {
		t.Fatal("expected error on short memlist")
	}
}

func TestReaderLoad_PassThroughWhenNotPacked(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bank05"), []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewReader(dir)
	got, err := r.Load(MemEntry{BankID: 5, BankOffset: 0, PackedSize: 4, Size: 4})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(got, want) {
		t.Fatalf("Load = % x, want % x", got, want)
	}
}

// TestDecompress_RoundTrip builds a hand-crafted compressed blob out of
// nothing but literal-short tokens (the "0 0" token: 3-bit N, N+1 literal
// bytes) and checks the declared size round-trips.
func TestDecompress_RoundTrip(t *testing.T) {
	want := []byte{0x01, 0x02, 0x03, 0x04}

	var bits bitWriter
	// two literal-short tokens of 2 bytes (N=1 -> N+1=2) each, in reverse
	// byte order since the whole stream is consumed back-to-front and the
	// final output is reversed once more by Decompress.
	for _, chunk := range [][]byte{{0x04, 0x03}, {0x02, 0x01}} {
		bits.writeBit(false) // token selector: literal-short
		bits.writeBit(false)
		bits.writeBits(1, 3) // N = 1 -> 2 bytes
		for _, b := range chunk {
			bits.writeBits(uint32(b), 8)
		}
	}

	packed := buildPackedBlob(t, &bits, int32(len(want)))
	got, err := Decompress(packed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Decompress = % x, want % x", got, want)
	}
}

// bitWriter accumulates bits LSB-first within each 32-bit word, mirroring
// how the decoder's rcr/nextBit drains a word (chk&1, then chk>>=1), so
// tests can hand-construct streams that decode to a known value.
type bitWriter struct {
	words []uint32
	cur   uint32
	nbits uint
}

func (w *bitWriter) writeBit(b bool) {
	if b {
		w.cur |= 1 << w.nbits
	}
	w.nbits++
	if w.nbits == 32 {
		w.words = append(w.words, w.cur)
		w.cur = 0
		w.nbits = 0
	}
}

func (w *bitWriter) writeBits(v uint32, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		w.writeBit((v>>uint(i))&1 != 0)
	}
}

// flushWord appends any partially-filled word (zero-padded in its
// unwritten, more-significant bit positions) as the final word.
func (w *bitWriter) flushWord() {
	if w.nbits > 0 {
		w.words = append(w.words, w.cur)
		w.cur, w.nbits = 0, 0
	}
}

// buildPackedBlob lays out a blob Decompress can consume back-to-front:
// forward (on-disk) byte order is [...token words in reverse fill order...,
// chk, crc, size], since Decompress's first three fetches (each walking
// backward from the end) are size, then crc, then the initial chk, and any
// further refills continue walking toward the front of the blob in the order
// the token words were originally filled. The decoder treats the highest set
// bit of the initial chk as an end marker, so chk is 1 (marker only, no data
// bits) and the first token word is fetched by the very first nextBit call.
func buildPackedBlob(t *testing.T, bits *bitWriter, size int32) []byte {
	t.Helper()
	bits.flushWord()

	const chk uint32 = 1
	var crc uint32 = 0xFFFFFFFF
	crc ^= chk

	write32 := func(buf *bytes.Buffer, v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}

	var buf bytes.Buffer
	for i := len(bits.words) - 1; i >= 0; i-- {
		write32(&buf, bits.words[i])
	}
	write32(&buf, chk)
	write32(&buf, crc)
	write32(&buf, size2u32(size))
	return buf.Bytes()
}

func size2u32(size int32) uint32 { return uint32(size) }
