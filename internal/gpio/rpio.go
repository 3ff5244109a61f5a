package gpio

import (
	"fmt"
	"log/slog"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPiDriver drives real pins through go-rpio.
type RPiDriver struct {
	pins map[int]rpio.Pin
}

// NewRPiDriver maps GPIO memory. It needs /dev/gpiomem or root.
func NewRPiDriver() (*RPiDriver, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("gpio: open: %w (are you running on a Raspberry Pi?)", err)
	}
	slog.Info("[GPIO] memory mapped")
	return &RPiDriver{pins: make(map[int]rpio.Pin)}, nil
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	p := rpio.Pin(pin)
	switch mode {
	case Input:
		p.Input()
	case Output:
		p.Output()
	default:
		return fmt.Errorf("gpio: unknown pin mode %d", mode)
	}
	r.pins[pin] = p
	return nil
}

func (r *RPiDriver) WritePin(pin int, level Level) error {
	p, ok := r.pins[pin]
	if !ok {
		if err := r.SetupPin(pin, Output); err != nil {
			return err
		}
		p = r.pins[pin]
	}
	if level == High {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

// Close returns every pin to input, the safe state, and unmaps memory.
func (r *RPiDriver) Close() error {
	for _, p := range r.pins {
		p.Input()
	}
	return rpio.Close()
}
