package rig

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/chaz8081/turntable-remote/internal/ble"
	"github.com/chaz8081/turntable-remote/internal/ble/attr"
)

// sampleSignal reads signal strength continuously for the session's lifetime,
// requesting the next sample as soon as one arrives.
func (c *Controller) sampleSignal(s *session) {
	for {
		rssi, err := s.conn.ReadRSSI(s.ctx)
		if s.ctx.Err() != nil {
			return
		}
		if err != nil {
			slog.Debug("[RIG] rssi read failed", "error", err)
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(c.opts.TickInterval):
			}
			continue
		}
		c.post(func() { c.onSignal(s, rssi) })
	}
}

func (c *Controller) onSignal(s *session, rssi int) {
	if c.sess != s || rssi == ble.NoRSSI {
		return
	}
	s.rssi = rssi
	s.sampledAt = time.Now()
	s.hasSample = true
	if c.snap.HasSignal && c.snap.SignalStrength == rssi {
		return
	}
	c.snap.SignalStrength = rssi
	c.snap.HasSignal = true
	c.publish()
}

// runMonitor drives the health tick until the session ends.
func (c *Controller) runMonitor(s *session) {
	ticker := time.NewTicker(c.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			c.post(func() { c.onTick(s) })
		}
	}
}

// onTick applies the latest sample to the monitor and sends the liveness
// counter. A sample older than SampleMaxAge counts as a miss. The write is
// fire-and-forget.
func (c *Controller) onTick(s *session) {
	if !c.current(s, PhaseReady) {
		return
	}
	if !s.hasSample {
		slog.Debug("[RIG] no signal sample yet")
		return
	}
	var counter uint64
	var waiting bool
	if age := time.Since(s.sampledAt); age > c.opts.SampleMaxAge {
		counter, waiting = c.monitor.Miss()
		if !c.snap.IsWaiting {
			slog.Info("[RIG] signal sample stale, waiting", "age", age.Round(time.Millisecond))
		}
	} else {
		counter, waiting = c.monitor.Observe(s.rssi)
		if waiting && !c.snap.IsWaiting {
			slog.Info("[RIG] signal below bound, waiting", "rssi", s.rssi, "bound", c.monitor.Bound())
		}
	}
	c.snap.State.ConnectionCounter = counter
	c.snap.IsWaiting = waiting
	_ = c.write(attr.Connected, strconv.FormatUint(counter, 10))
	c.publish()
}
