package render

import "time"

// Pacer gates BLIT_FRAME_BUFFER's wall-clock frame rate: it is the sole
// synchronization point to wall-clock time in the whole engine (spec.md §5).
type Pacer struct {
	last time.Time
}

// NewPacer returns a Pacer whose clock starts now.
func NewPacer() *Pacer {
	return &Pacer{last: time.Now()}
}

// Pace sleeps for targetMs minus the time elapsed since the previous Pace
// call, clamped to zero (spec.md §4.5, §5: "vars[0xFF]*20 − elapsed_ms").
// It always resets the clock, even when the target has already elapsed.
func (p *Pacer) Pace(targetMs int) {
	elapsed := time.Since(p.last)
	remaining := time.Duration(targetMs)*time.Millisecond - elapsed
	if remaining > 0 {
		time.Sleep(remaining)
	}
	p.last = time.Now()
}
