package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chaz8081/turntable-remote/internal/config"
	"github.com/chaz8081/turntable-remote/internal/gpio"
)

// recordingDriver records pin writes as "pin=level".
type recordingDriver struct {
	mu      sync.Mutex
	writes  []string
	failPin int
	closed  bool
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error { return nil }

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pin == d.failPin {
		return errors.New("pin stuck")
	}
	d.writes = append(d.writes, fmt.Sprintf("%d=%s", pin, level))
	return nil
}

func (d *recordingDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *recordingDriver) log() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.writes...)
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGPIOSinkSequence(t *testing.T) {
	d := &recordingDriver{}
	sink, err := NewGPIOSink(d, 23, 24, time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatalf("NewGPIOSink() error = %v", err)
	}

	if err := sink.Capture(context.Background(), Shot{Seq: 1}); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	want := []string{
		"23=high", "24=high", // parked
		"23=low", "24=low", // focus then shutter
		"24=high", "23=high", // release
	}
	if got := d.log(); !equal(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
}

func TestGPIOSinkReleasesOnCancel(t *testing.T) {
	d := &recordingDriver{}
	sink, err := NewGPIOSink(d, 23, 24, time.Hour, time.Millisecond)
	if err != nil {
		t.Fatalf("NewGPIOSink() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sink.Capture(ctx, Shot{Seq: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Capture() error = %v, want context.Canceled", err)
	}
	want := []string{"23=high", "24=high", "23=low", "24=high", "23=high"}
	if got := d.log(); !equal(got, want) {
		t.Errorf("writes = %v, want %v", got, want)
	}
}

func TestGPIOSinkShutterFailure(t *testing.T) {
	d := &recordingDriver{}
	sink, err := NewGPIOSink(d, 23, 24, 0, 0)
	if err != nil {
		t.Fatalf("NewGPIOSink() error = %v", err)
	}
	d.failPin = 24

	if err := sink.Capture(context.Background(), Shot{}); err == nil {
		t.Fatal("Capture() should fail when the shutter pin fails")
	}
	if got := d.log(); got[len(got)-1] != "23=high" {
		t.Errorf("focus not released: %v", got)
	}
	if err := sink.Close(); err != nil || !d.closed {
		t.Errorf("Close() = %v, closed = %v", err, d.closed)
	}
}

type fakeTapper struct {
	taps int
	err  error
}

func (f *fakeTapper) Tap() error {
	f.taps++
	return f.err
}

func TestKeyTapSink(t *testing.T) {
	tap := &fakeTapper{}
	sink := &KeyTapSink{tapper: tap}

	if err := sink.Capture(context.Background(), Shot{Seq: 3}); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if tap.taps != 1 {
		t.Errorf("taps = %d, want 1", tap.taps)
	}

	tap.err = errors.New("denied")
	if err := sink.Capture(context.Background(), Shot{}); err == nil {
		t.Error("Capture() should surface tap errors")
	}
}

// chanSink reports each shot on a channel.
type chanSink struct {
	shots  chan Shot
	block  chan struct{}
	err    error
	closed chan struct{}
}

func newChanSink() *chanSink {
	return &chanSink{shots: make(chan Shot, 16), closed: make(chan struct{})}
}

func (s *chanSink) Capture(ctx context.Context, shot Shot) error {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.shots <- shot
	return s.err
}

func (s *chanSink) Close() error {
	close(s.closed)
	return nil
}

func TestRunnerProcessesInOrder(t *testing.T) {
	sink := newChanSink()
	r := NewRunner(sink, 4)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)

	r.Submit("fixed_angle")
	r.Submit("fixed_angle")

	for want := uint64(1); want <= 2; want++ {
		select {
		case shot := <-sink.shots:
			if shot.Seq != want || shot.Mode != "fixed_angle" {
				t.Errorf("shot = %+v, want seq %d", shot, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("shot %d not captured", want)
		}
	}

	cancel()
	<-r.Done()
	select {
	case <-sink.closed:
	default:
		t.Error("sink should be closed when Run returns")
	}
}

func TestRunnerDropsWhenFull(t *testing.T) {
	sink := newChanSink()
	sink.block = make(chan struct{})
	r := NewRunner(sink, 1)

	// Without a running worker the queue holds exactly one shot.
	if !r.Submit("fixed_angle") {
		t.Fatal("first Submit() should queue")
	}
	if r.Submit("fixed_angle") {
		t.Error("second Submit() should drop")
	}
	if r.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", r.Dropped())
	}
}

func TestRunnerContinuesAfterError(t *testing.T) {
	sink := newChanSink()
	sink.err = errors.New("camera busy")
	r := NewRunner(sink, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-r.Done()
	}()
	go r.Run(ctx)

	r.Submit("fixed_time_interval")
	r.Submit("fixed_time_interval")
	for i := 0; i < 2; i++ {
		select {
		case <-sink.shots:
		case <-time.After(time.Second):
			t.Fatal("runner stopped after a failed capture")
		}
	}
}

func TestLogSink(t *testing.T) {
	var s Sink = LogSink{}
	if err := s.Capture(context.Background(), Shot{Seq: 1}); err != nil {
		t.Errorf("Capture() error = %v", err)
	}
}

func TestNewSink(t *testing.T) {
	cfg := config.Default()

	s, err := NewSink(cfg)
	if err != nil {
		t.Fatalf("NewSink(log) error = %v", err)
	}
	if _, ok := s.(LogSink); !ok {
		t.Errorf("NewSink(log) = %T, want LogSink", s)
	}

	cfg.Capture.Sink = "gpio"
	s, err = NewSink(cfg)
	if err != nil {
		t.Fatalf("NewSink(gpio mock) error = %v", err)
	}
	g, ok := s.(*GPIOSink)
	if !ok {
		t.Fatalf("NewSink(gpio) = %T, want *GPIOSink", s)
	}
	if g.focusPin != 23 || g.shutterPin != 24 {
		t.Errorf("pins = %d/%d, want 23/24", g.focusPin, g.shutterPin)
	}

	cfg.Capture.Sink = "keytap"
	s, err = NewSink(cfg)
	if err != nil {
		t.Fatalf("NewSink(keytap) error = %v", err)
	}
	if _, ok := s.(*KeyTapSink); !ok {
		t.Errorf("NewSink(keytap) = %T, want *KeyTapSink", s)
	}
}
