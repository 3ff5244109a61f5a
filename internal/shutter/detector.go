// Package shutter turns the rig's level-style "should take photo" signal
// into single capture events.
package shutter

// Detector fires once per false→true transition of the observed level.
// Repeated observations of the same level never fire. The zero value
// starts disarmed (last level false).
type Detector struct {
	last bool
}

// Observe records level and reports whether a capture should fire.
func (d *Detector) Observe(level bool) bool {
	fire := level && !d.last
	d.last = level
	return fire
}

// Reset returns the detector to its initial low state.
func (d *Detector) Reset() {
	d.last = false
}

// Level returns the last observed level.
func (d *Detector) Level() bool {
	return d.last
}

// ParseLevel decodes the wire form of the signal: only "true" is high.
func ParseLevel(s string) bool {
	return s == "true"
}

// Ack is the value written back after a capture is accepted.
const Ack = "false"
