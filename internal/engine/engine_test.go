package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kbrandt/anotherworld/internal/bank"
	"github.com/kbrandt/anotherworld/internal/render"
	"github.com/kbrandt/anotherworld/internal/res"
)

const recordSize = 20

// buildFixture writes a minimal memlist.bin + bank00 pair covering
// PartIntro's four segment indices (0x17-0x1A). The bytecode segment is a
// single KILL_THREAD opcode (17 / 0x11) so channel 0 dies on its first
// dispatch instead of running off the end of the buffer.
func buildFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	payloads := map[uint16][]byte{
		0x17: make([]byte, 32),          // palette: 16 RGB444 entries, all zero
		0x18: {0x11},                    // bytecode: KILL_THREAD
		0x19: {0xC0, 0, 0, 0},            // polycinematic: minimal leaf polygon record
		0x1A: make([]byte, 200*320/8*4), // polygon: full 4-bit-plane background blob
	}

	var blob []byte
	offsets := make(map[uint16]uint32)
	for _, idx := range []uint16{0x17, 0x18, 0x19, 0x1A} {
		offsets[idx] = uint32(len(blob))
		blob = append(blob, payloads[idx]...)
	}
	if err := os.WriteFile(filepath.Join(dir, "bank00"), blob, 0o644); err != nil {
		t.Fatal(err)
	}

	memlist := make([]byte, recordSize*bank.EntryCount)
	put := func(i int, offset uint32, size uint16) {
		base := i * recordSize
		memlist[base+7] = 0 // bank id -> bank00
		memlist[base+8] = byte(offset >> 24)
		memlist[base+9] = byte(offset >> 16)
		memlist[base+10] = byte(offset >> 8)
		memlist[base+11] = byte(offset)
		memlist[base+14] = byte(size >> 8) // packed size == size: pass-through
		memlist[base+15] = byte(size)
		memlist[base+18] = byte(size >> 8)
		memlist[base+19] = byte(size)
	}
	for _, idx := range []uint16{0x17, 0x18, 0x19, 0x1A} {
		put(int(idx), offsets[idx], uint16(len(payloads[idx])))
	}

	if err := os.WriteFile(filepath.Join(dir, "memlist.bin"), memlist, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestEngine_NewLoadsStartPart(t *testing.T) {
	dir := buildFixture(t)
	sink := render.NewHeadlessSink()

	e, err := New(dir, sink, res.PartIntro, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.Snapshot().CurrentPart != res.PartIntro {
		t.Fatalf("CurrentPart = %v, want PartIntro", e.Snapshot().CurrentPart)
	}
}

// TestEngine_TickKillsChannelZero covers the frame-tick scheduler: a
// channel whose slice ends in KILL_THREAD is Dead at the end of the frame.
func TestEngine_TickKillsChannelZero(t *testing.T) {
	dir := buildFixture(t)
	sink := render.NewHeadlessSink()

	e, err := New(dir, sink, res.PartIntro, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	snap := e.Snapshot()
	if snap.ChannelState[0] != 3 { // vm.StateDead
		t.Fatalf("channel 0 state = %v, want Dead", snap.ChannelState[0])
	}
}

func TestEngine_Run_StopsImmediately(t *testing.T) {
	dir := buildFixture(t)
	sink := render.NewHeadlessSink()

	e, err := New(dir, sink, res.PartIntro, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	calls := 0
	err = e.Run(func() bool {
		calls++
		return calls > 1
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		t.Fatalf("stop called %d times, want 2", calls)
	}
}
