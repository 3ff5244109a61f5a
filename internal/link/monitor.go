// Package link holds the link health policy: each signal-strength sample
// either advances the liveness counter or marks the link as waiting.
package link

// DefaultRSSIBound is the lower signal bound (dBm). Samples must be
// strictly above it to count as usable.
const DefaultRSSIBound = -70

// Monitor tracks the liveness counter and the waiting flag for one session.
type Monitor struct {
	bound   int
	counter uint64
	waiting bool
}

// NewMonitor returns a monitor for the given bound. It starts waiting:
// nothing is known about the link until the first good sample.
func NewMonitor(bound int) *Monitor {
	return &Monitor{bound: bound, waiting: true}
}

// Observe applies one sample. A sample above the bound increments the
// counter and clears waiting; anything else (including a sample equal to
// the bound) sets waiting and leaves the counter alone.
func (m *Monitor) Observe(rssi int) (counter uint64, waiting bool) {
	if rssi > m.bound {
		m.counter++
		m.waiting = false
	} else {
		m.waiting = true
	}
	return m.counter, m.waiting
}

// Miss records a tick with no usable sample: waiting is set and the
// counter is left alone.
func (m *Monitor) Miss() (counter uint64, waiting bool) {
	m.waiting = true
	return m.counter, m.waiting
}

// Reset zeroes the counter for a fresh session.
func (m *Monitor) Reset() {
	m.counter = 0
	m.waiting = true
}

// Counter returns the current liveness counter.
func (m *Monitor) Counter() uint64 { return m.counter }

// Waiting reports whether the last sample was unusable.
func (m *Monitor) Waiting() bool { return m.waiting }

// Bound returns the configured lower bound.
func (m *Monitor) Bound() int { return m.bound }
