// Package rig keeps a live link to the turntable rig and mirrors its
// characteristics into a local observable state.
//
// A Controller is an actor: Run owns every piece of mutable state and
// executes radio callbacks, timer events and consumer requests one at a
// time. Blocking radio calls run on helper goroutines tied to the current
// session and report back through the actor, tagged with the session they
// belong to so results from a finished session are discarded.
package rig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chaz8081/turntable-remote/internal/ble"
	"github.com/chaz8081/turntable-remote/internal/ble/attr"
	"github.com/chaz8081/turntable-remote/internal/link"
	"github.com/chaz8081/turntable-remote/internal/shutter"
)

// Options configures the controller.
type Options struct {
	PeripheralName string        // advertised local name to connect to
	ServiceUUID    string        // rig service UUID
	ScanTimeout    time.Duration // scan window before the rig is reported missing
	SettleDelay    time.Duration // wait after discovery before the session is Ready
	TickInterval   time.Duration // link health monitor period
	FlashDuration  time.Duration // how long Snapshot.Shutter stays true after a capture
	SampleMaxAge   time.Duration // older signal samples count as unusable

	// RSSIBound is the lower signal bound in dBm; samples must be strictly
	// above it. Zero selects link.DefaultRSSIBound: a 0 dBm bound would
	// reject every real reading.
	RSSIBound int

	// SubscribeLiveness also arms notifications on the liveness channel.
	SubscribeLiveness bool

	// OnChange runs on the actor after every state change. It must not
	// block or call back into the Controller.
	OnChange func(Snapshot)
	// OnCapture runs on the actor once per rising edge of shouldTakePhoto.
	// It must not block or call back into the Controller.
	OnCapture func(Snapshot)
}

// DefaultOptions returns the production timings.
func DefaultOptions() Options {
	return Options{
		PeripheralName: attr.DefaultPeripheralName,
		ServiceUUID:    attr.ServiceUUID,
		ScanTimeout:    15 * time.Second,
		SettleDelay:    500 * time.Millisecond,
		TickInterval:   100 * time.Millisecond,
		FlashDuration:  200 * time.Millisecond,
		SampleMaxAge:   2 * time.Second,
		RSSIBound:      link.DefaultRSSIBound,
	}
}

// Controller owns the connection session and the remote state.
type Controller struct {
	adapter ble.Adapter
	opts    Options

	events  chan func()
	done    chan struct{}
	running atomic.Bool

	// Fields below are owned by the Run goroutine.
	ctx         context.Context
	snap        Snapshot
	scanGen     uint64
	scanCancel  context.CancelFunc
	scanTimer   *time.Timer
	sess        *session
	nextSession uint64
	monitor     *link.Monitor
	detector    shutter.Detector
	flashGen    uint64
	lastShot    time.Time

	// mu guards published and orders it with broadcaster delivery.
	mu        sync.RWMutex
	published Snapshot
	obs       *Broadcaster
}

// New creates a controller. Zero-valued options fall back to DefaultOptions.
func New(adapter ble.Adapter, opts Options) *Controller {
	def := DefaultOptions()
	if opts.PeripheralName == "" {
		opts.PeripheralName = def.PeripheralName
	}
	if opts.ServiceUUID == "" {
		opts.ServiceUUID = def.ServiceUUID
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = def.ScanTimeout
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = def.SettleDelay
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = def.TickInterval
	}
	if opts.FlashDuration <= 0 {
		opts.FlashDuration = def.FlashDuration
	}
	if opts.SampleMaxAge <= 0 {
		opts.SampleMaxAge = def.SampleMaxAge
	}
	if opts.RSSIBound == 0 {
		opts.RSSIBound = def.RSSIBound
	}

	snap := Snapshot{
		State:     DefaultState(),
		Phase:     PhaseIdle,
		IsWaiting: true,
	}
	return &Controller{
		adapter:   adapter,
		opts:      opts,
		events:    make(chan func(), 64),
		done:      make(chan struct{}),
		snap:      snap,
		published: snap,
		monitor:   link.NewMonitor(opts.RSSIBound),
		obs:       NewBroadcaster(64),
	}
}

// Run powers on the radio, starts scanning and processes events until ctx
// is cancelled. On return the session has been torn down.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("rig: controller already running")
	}
	defer close(c.done)

	c.ctx = ctx
	if err := c.adapter.Enable(); err != nil {
		return fmt.Errorf("rig: enable adapter: %w", err)
	}
	slog.Info("[RIG] radio powered on")
	c.startScan()

	for {
		select {
		case fn := <-c.events:
			fn()
		case <-ctx.Done():
			c.teardown()
			return nil
		}
	}
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Snapshot returns the most recently published state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.published
}

// Subscribe returns a channel receiving the current snapshot followed by
// every later one, and a cleanup function the caller must invoke.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.obs.Subscribe(c.published)
}

// Rescan restarts discovery after the rig went missing or the link dropped.
// It reports whether a scan was started.
func (c *Controller) Rescan() bool {
	started := false
	ok := c.exec(func() {
		switch c.snap.Phase {
		case PhaseIdle, PhaseMissing, PhaseDisconnected:
			c.startScan()
			started = true
		}
	})
	return ok && started
}

// exec runs fn on the actor and waits for it. It returns false if the
// controller stopped first.
func (c *Controller) exec(fn func()) bool {
	ran := make(chan struct{})
	select {
	case c.events <- func() { defer close(ran); fn() }:
	case <-c.done:
		return false
	}
	select {
	case <-ran:
		return true
	case <-c.done:
		return false
	}
}

// post queues fn on the actor without waiting.
func (c *Controller) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

// after schedules fn on the actor once d has elapsed.
func (c *Controller) after(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { c.post(fn) })
}

func (c *Controller) setPhase(p Phase) {
	if c.snap.Phase != p {
		slog.Debug("[RIG] phase", "from", c.snap.Phase, "to", p)
	}
	c.snap.Phase = p
}

// publish makes the actor's state visible to readers and observers.
func (c *Controller) publish() {
	snap := c.snap
	c.mu.Lock()
	c.published = snap
	c.obs.Publish(snap)
	c.mu.Unlock()
	if c.opts.OnChange != nil {
		c.opts.OnChange(snap)
	}
}
