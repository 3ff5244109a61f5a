// Package capture turns shutter requests from the rig into camera actions.
// Requests are queued and run one at a time by a Runner so a slow sink
// never blocks the controller that produced them.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaz8081/turntable-remote/internal/gpio"
	"github.com/chaz8081/turntable-remote/internal/inject"
)

// Shot describes one shutter request.
type Shot struct {
	Seq  uint64
	At   time.Time
	Mode string
}

// Sink performs the capture.
type Sink interface {
	Capture(ctx context.Context, shot Shot) error
	Close() error
}

// LogSink only records the request. Useful when the camera is triggered
// by other means, or for dry runs.
type LogSink struct{}

func (LogSink) Capture(_ context.Context, shot Shot) error {
	slog.Info("[CAPTURE] shutter", "seq", shot.Seq, "mode", shot.Mode)
	return nil
}

func (LogSink) Close() error { return nil }

// GPIOSink fires a wired remote release on two pins. Both lines idle high
// and are pulled low to focus, then to release the shutter.
type GPIOSink struct {
	driver       gpio.Driver
	focusPin     int
	shutterPin   int
	focusDelay   time.Duration
	shutterDelay time.Duration
}

// NewGPIOSink configures both pins as outputs and parks them high.
func NewGPIOSink(d gpio.Driver, focusPin, shutterPin int, focusDelay, shutterDelay time.Duration) (*GPIOSink, error) {
	for _, pin := range []int{focusPin, shutterPin} {
		if err := d.SetupPin(pin, gpio.Output); err != nil {
			return nil, fmt.Errorf("capture: setup pin %d: %w", pin, err)
		}
		if err := d.WritePin(pin, gpio.High); err != nil {
			return nil, fmt.Errorf("capture: park pin %d: %w", pin, err)
		}
	}
	return &GPIOSink{
		driver:       d,
		focusPin:     focusPin,
		shutterPin:   shutterPin,
		focusDelay:   focusDelay,
		shutterDelay: shutterDelay,
	}, nil
}

// Capture runs focus, wait, shutter, hold, release. Both lines are released
// on every exit path.
func (g *GPIOSink) Capture(ctx context.Context, shot Shot) error {
	slog.Debug("[CAPTURE] gpio trigger", "seq", shot.Seq, "focus", g.focusPin, "shutter", g.shutterPin)
	defer g.release()

	if err := g.driver.WritePin(g.focusPin, gpio.Low); err != nil {
		return fmt.Errorf("capture: focus: %w", err)
	}
	if err := sleep(ctx, g.focusDelay); err != nil {
		return err
	}
	if err := g.driver.WritePin(g.shutterPin, gpio.Low); err != nil {
		return fmt.Errorf("capture: shutter: %w", err)
	}
	if err := sleep(ctx, g.shutterDelay); err != nil {
		return err
	}
	slog.Info("[CAPTURE] shutter released", "seq", shot.Seq)
	return nil
}

func (g *GPIOSink) release() {
	if err := g.driver.WritePin(g.shutterPin, gpio.High); err != nil {
		slog.Warn("[CAPTURE] release shutter", "error", err)
	}
	if err := g.driver.WritePin(g.focusPin, gpio.High); err != nil {
		slog.Warn("[CAPTURE] release focus", "error", err)
	}
}

func (g *GPIOSink) Close() error {
	return g.driver.Close()
}

// Tapper sends a keystroke.
type Tapper interface {
	Tap() error
}

// KeyTapSink presses a key in the active application, e.g. the capture
// shortcut of a tethering tool.
type KeyTapSink struct {
	tapper Tapper
}

// NewKeyTapSink returns a sink tapping key with modifiers.
func NewKeyTapSink(key string, modifiers []string) *KeyTapSink {
	return &KeyTapSink{tapper: inject.NewInjector(key, modifiers)}
}

func (k *KeyTapSink) Capture(_ context.Context, shot Shot) error {
	if err := k.tapper.Tap(); err != nil {
		return err
	}
	slog.Info("[CAPTURE] key tapped", "seq", shot.Seq)
	return nil
}

func (k *KeyTapSink) Close() error { return nil }

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
