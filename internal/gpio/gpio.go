// Package gpio drives Raspberry Pi output pins for a wired shutter release.
package gpio

import (
	"log/slog"
	"sync"
)

// Level is the logical state of a pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// PinMode indicates whether a pin is input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
)

// Driver controls GPIO pins.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	WritePin(pin int, level Level) error
	Close() error
}

// NewDriver returns a MockDriver when mock is set, otherwise the go-rpio
// backed driver.
func NewDriver(mock bool) (Driver, error) {
	if mock {
		slog.Info("[GPIO] using mock driver")
		return NewMockDriver(), nil
	}
	return NewRPiDriver()
}

// MockDriver logs pin changes and remembers the last level of each pin.
type MockDriver struct {
	mu     sync.Mutex
	levels map[int]Level
}

// NewMockDriver returns a driver that touches no hardware.
func NewMockDriver() *MockDriver {
	return &MockDriver{levels: make(map[int]Level)}
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	slog.Debug("[GPIO] setup", "pin", pin, "mode", mode)
	return nil
}

func (m *MockDriver) WritePin(pin int, level Level) error {
	slog.Debug("[GPIO] write", "pin", pin, "level", level)
	m.mu.Lock()
	m.levels[pin] = level
	m.mu.Unlock()
	return nil
}

// Level returns the last level written to pin.
func (m *MockDriver) Level(pin int) (Level, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.levels[pin]
	return l, ok
}

func (m *MockDriver) Close() error {
	slog.Debug("[GPIO] close (mock)")
	return nil
}
