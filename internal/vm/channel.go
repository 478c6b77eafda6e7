package vm

// NumChannels is the fixed number of cooperative channels (spec.md §3).
const NumChannels = 64

// processCounterInvalid is the sentinel threshold: any raw offset at or
// above it means "no program" (spec.md §3).
const processCounterInvalid = 0xFFFE

// ProcessCounter is a sum type: either a valid in-segment byte offset, or
// Invalid (the 0xFFFE+ sentinel). It must round-trip through SET_VEC.
type ProcessCounter struct {
	valid  bool
	offset int
}

// ValidPC returns a ProcessCounter pointing at offset.
func ValidPC(offset int) ProcessCounter { return ProcessCounter{valid: true, offset: offset} }

// InvalidPC returns the "no program" sentinel.
func InvalidPC() ProcessCounter { return ProcessCounter{} }

// pcFromOffset clamps a raw cursor position to the sentinel rule: offsets
// >= 0xFFFE collapse to Invalid.
func pcFromOffset(offset int) ProcessCounter {
	if offset >= processCounterInvalid {
		return InvalidPC()
	}
	return ValidPC(offset)
}

// IsValid reports whether the counter names a real offset.
func (p ProcessCounter) IsValid() bool { return p.valid }

// Offset returns the byte offset; only meaningful when IsValid is true.
func (p ProcessCounter) Offset() int { return p.offset }

// State is one of the four states a channel can be in (spec.md §3).
type State int

const (
	StateReady State = iota
	StateRunning
	StatePaused
	StateDead
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateDead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// Channel is one of the 64 cooperative pseudo-threads. NextPC is staged by
// SET_VEC and committed at the next frame boundary by the scheduler; it is
// never read directly by a running channel.
type Channel struct {
	State  State
	PC     ProcessCounter
	NextPC ProcessCounter

	hasPending bool
}

// reset returns a channel to its just-initialized state: Ready, no program,
// nothing staged (spec.md §4.6's VM-reset-on-part-change step).
func (c *Channel) reset() {
	c.State = StateReady
	c.PC = InvalidPC()
	c.NextPC = InvalidPC()
	c.hasPending = false
}

// stageNextPC records a SET_VEC request to be applied at the next commit.
func (c *Channel) stageNextPC(pc ProcessCounter) {
	c.NextPC = pc
	c.hasPending = true
}

// commit applies a staged NextPC, if any, updating State accordingly
// (spec.md §4.6 step 2). It is a no-op when nothing is staged.
func (c *Channel) commit() {
	if !c.hasPending {
		return
	}
	c.PC = c.NextPC
	if c.PC.IsValid() {
		c.State = StateReady
	} else {
		c.State = StateDead
	}
	c.hasPending = false
}
