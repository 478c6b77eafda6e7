// Package vm implements the bytecode interpreter: 256 signed 16-bit
// variables, 64 cooperative channels, the 27-opcode dispatch table, and the
// per-frame scheduler that drives them (spec.md §3, §4.5, §4.6).
package vm

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/kbrandt/anotherworld/internal/render"
	"github.com/kbrandt/anotherworld/internal/res"
	"github.com/kbrandt/anotherworld/internal/video"
)

const numVariables = 256

// well-known variable indices referenced directly by opcode handlers.
const (
	varScrollY     = 0xF9
	varPauseSlices = 0xFF
	varRandomSeed  = 0x3C
	varLastKeyChar = 0xF7
)

// LoadedAsset maps mem-entry index to decompressed payload, populated by
// UPDATE_MEM_LIST at runtime — distinct from a part's four fixed segments
// (spec.md §3).
type LoadedAsset map[uint16][]byte

// VM holds all interpreter state and the handles to its collaborators: the
// resource registry (for UPDATE_MEM_LIST and part loads), the video page
// model (for every draw opcode), and the display pipeline (pacing + blit).
type VM struct {
	vars           [numVariables]int16
	channels       [NumChannels]Channel
	runningChannel int
	callStack      []uint64
	opcodeCounts   [27]uint64

	registry *res.Registry
	video    *video.Video
	pacer    *render.Pacer
	sink     render.Sink

	currentPart res.Part
	pendingPart *res.Part
	loadedPart  *res.LoadedPart
	loadedAsset LoadedAsset

	log *log.Logger
}

// New returns a VM wired to its collaborators, with the fixed variables
// seeded at construction time (spec.md §4.6).
func New(registry *res.Registry, vid *video.Video, pacer *render.Pacer, sink render.Sink, logger *log.Logger) *VM {
	v := &VM{
		registry:    registry,
		video:       vid,
		pacer:       pacer,
		sink:        sink,
		loadedAsset: LoadedAsset{},
		log:         logger,
	}
	v.vars[0x54] = 0x81
	v.vars[varRandomSeed] = int16(rand.Int())
	v.vars[0xBC] = 0x10
	v.vars[0xC6] = 0x80
	v.vars[0xF2] = 4000
	v.vars[0xDC] = 33
	for i := range v.channels {
		v.channels[i].reset()
	}
	return v
}

// RequestPart stages part to be loaded by the next ApplyPartChange (run at
// the start of each Engine.Tick), per UPDATE_MEM_LIST's part-change-request path (spec.md
// §4.5, §4.6, §9 "part change races").
func (v *VM) RequestPart(part res.Part) {
	v.pendingPart = &part
}

// PendingPart reports the staged part change, if any.
func (v *VM) PendingPart() (res.Part, bool) {
	if v.pendingPart == nil {
		return 0, false
	}
	return *v.pendingPart, true
}

// ApplyPartChange performs spec.md §4.6 step 1: reset the VM, load the new
// part's segments, copy its background (if a Polygon segment is present),
// and clear the loaded-asset map.
func (v *VM) ApplyPartChange() error {
	if v.pendingPart == nil {
		return nil
	}
	part := *v.pendingPart
	v.pendingPart = nil

	v.resetForPart()
	v.opcodeCounts = [27]uint64{}
	loaded, err := v.registry.SetupPart(part)
	if err != nil {
		return fmt.Errorf("vm: setup part %#x: %w", uint16(part), err)
	}
	v.loadedPart = loaded
	v.currentPart = part

	if loaded.Polygon != nil {
		v.video.CopyBackground(loaded.Polygon.Buf)
	}
	v.loadedAsset = LoadedAsset{}
	return nil
}

// requestGamePart validates id as a game part and stages it for the next
// frame boundary, or fails with ErrInvalidGamePart (spec.md §4.5).
func (v *VM) requestGamePart(id uint16) error {
	part := res.Part(id)
	if !part.IsValid() {
		return &ErrInvalidGamePart{ID: id}
	}
	v.RequestPart(part)
	return nil
}

// resetForPart seeds vars[0xE4] and resets every channel to Dead/Invalid
// except channel 0, which is armed at offset 0 (spec.md §4.6).
func (v *VM) resetForPart() {
	v.vars[0xE4] = 0x14
	for i := range v.channels {
		v.channels[i].reset()
		v.channels[i].State = StateDead
	}
	v.channels[0].PC = ValidPC(0)
	v.channels[0].State = StateReady
}

// CommitStagedPCs performs spec.md §4.6 step 2: the only point at which a
// SET_VEC from another channel's slice takes effect.
func (v *VM) CommitStagedPCs() {
	for i := range v.channels {
		v.channels[i].commit()
	}
}

// RunFrameTick performs spec.md §4.6 step 3: iterate channels 0..63 in
// order, dispatching each Ready, PC-valid channel until it pauses or dies.
func (v *VM) RunFrameTick() error {
	for id := 0; id < NumChannels; id++ {
		ch := &v.channels[id]
		if ch.State != StateReady || !ch.PC.IsValid() {
			continue
		}
		if err := v.runChannel(id, ch.PC.Offset()); err != nil {
			return err
		}
	}
	return nil
}

// runChannel dispatches opcodes for channel id starting at pc until its
// state leaves Running (spec.md §4.6 step 3, §5's "suspension points").
func (v *VM) runChannel(id int, pc int) error {
	v.callStack = v.callStack[:0]
	v.loadedPart.Bytecode.Seek(pc)

	if v.log != nil {
		v.log.Printf("run_channel: channel %d pc %d", id, pc)
	}

	v.runningChannel = id
	v.channels[id].State = StateRunning

	for {
		opcode, err := v.loadedPart.Bytecode.ReadU8()
		if err != nil {
			return fmt.Errorf("vm: channel %d: read opcode at %#x: %w", id, v.loadedPart.Bytecode.Pos()-1, err)
		}

		switch {
		case opcode&0x80 != 0:
			err = v.drawBackground(opcode)
		case opcode&0x40 != 0:
			err = v.drawSprite(opcode)
		default:
			if int(opcode) >= len(opcodeTable) {
				return fmt.Errorf("vm: channel %d: unknown opcode %#x", id, opcode)
			}
			v.opcodeCounts[opcode]++
			err = opcodeTable[opcode](v)
		}
		if err != nil {
			return fmt.Errorf("vm: channel %d: opcode %#x: %w", id, opcode, err)
		}

		switch v.channels[id].State {
		case StatePaused:
			v.channels[id].State = StateReady
			v.channels[id].PC = pcFromOffset(v.loadedPart.Bytecode.Pos())
			return nil
		case StateDead:
			v.channels[id].PC = InvalidPC()
			return nil
		}
	}
}

// bytecode returns the running channel's cursor — the single mutable
// cursor the whole VM shares for the duration of one channel's slice
// (spec.md §5, §9 "cooperative channels as coroutines").
func (v *VM) bytecode() *res.Cursor { return v.loadedPart.Bytecode }

// OpcodeCounts returns how many times each opcode has fired since the last
// part load — a debug aid surfaced through Snapshot (SPEC_FULL supplement,
// grounded on the teacher's Chip8State debug snapshot).
func (v *VM) OpcodeCounts() [27]uint64 { return v.opcodeCounts }

// Snapshot is a read-only debug view of VM state, generalizing the
// teacher's Chip8.Snapshot()/Chip8State idiom (cpu/cpu.go) to this VM.
type Snapshot struct {
	Vars         [numVariables]int16
	ChannelState [NumChannels]State
	OpcodeCounts [27]uint64
	CurrentPart  res.Part
}

// Snapshot returns a static copy of the VM's current state.
func (v *VM) Snapshot() Snapshot {
	s := Snapshot{
		Vars:         v.vars,
		OpcodeCounts: v.opcodeCounts,
		CurrentPart:  v.currentPart,
	}
	for i := range v.channels {
		s.ChannelState[i] = v.channels[i].State
	}
	return s
}
