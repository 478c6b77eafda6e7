// Package bank reads the game's packed data banks: fixed-layout resource
// descriptors (MemEntry) and the back-to-front LZ blobs they point into.
package bank

import (
	"encoding/binary"
	"fmt"
	"io"
)

// entryRecordSize is the fixed on-disk layout of one memlist.bin record.
const entryRecordSize = 20

// EntryCount is the number of MemEntry records a memlist.bin always holds.
const EntryCount = 146

// MemEntry is one resource descriptor out of memlist.bin. Only the four
// fields below are semantically used by this engine; the remaining bytes of
// the 20-byte record are reserved and are parsed only so the cursor lands on
// the next record.
type MemEntry struct {
	BankID     uint8
	BankOffset uint32
	PackedSize uint16
	Size       uint16
}

// ReadEntries parses exactly EntryCount fixed 20-byte records from r, in
// sequence. A short read anywhere is a fatal I/O error.
func ReadEntries(r io.Reader) ([EntryCount]MemEntry, error) {
	var entries [EntryCount]MemEntry
	var raw [entryRecordSize]byte
	for i := 0; i < EntryCount; i++ {
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return entries, fmt.Errorf("bank: read memlist entry %d: %w", i, err)
		}
		entries[i] = parseEntry(raw)
	}
	return entries, nil
}

// parseEntry decodes one 20-byte big-endian record per spec.md §6:
//
//	u8 (reserved), u8 (reserved), u16 (reserved), u16 (reserved),
//	u8 (reserved), u8 bank_id, u32 bank_offset, u16 (reserved),
//	u16 packed_size, u16 (reserved), u16 unpacked_size
func parseEntry(raw [entryRecordSize]byte) MemEntry {
	return MemEntry{
		BankID:     raw[7],
		BankOffset: binary.BigEndian.Uint32(raw[8:12]),
		PackedSize: binary.BigEndian.Uint16(raw[14:16]),
		Size:       binary.BigEndian.Uint16(raw[18:20]),
	}
}
