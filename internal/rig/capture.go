package rig

import (
	"log/slog"
	"time"

	"github.com/chaz8081/turntable-remote/internal/ble/attr"
	"github.com/chaz8081/turntable-remote/internal/shutter"
)

// capture handles one rising edge of shouldTakePhoto: acknowledge it to the
// rig, raise the shutter flash and hand the shot to OnCapture.
func (c *Controller) capture() {
	if err := c.write(attr.ShouldTakePhoto, shutter.Ack); err != nil {
		slog.Debug("[RIG] capture ack not sent", "error", err)
	}

	now := time.Now()
	if c.snap.State.Mode == FixedTimeInterval {
		if !c.lastShot.IsZero() {
			slog.Info("[RIG] shot interval", "since_last", now.Sub(c.lastShot).Round(time.Millisecond))
		}
		c.lastShot = now
	}

	c.snap.Shutter = true
	c.flashGen++
	gen := c.flashGen
	c.after(c.opts.FlashDuration, func() {
		if c.flashGen != gen {
			return
		}
		c.snap.Shutter = false
		c.publish()
	})

	slog.Info("[RIG] take a photo")
	if c.opts.OnCapture != nil {
		c.opts.OnCapture(c.snap)
	}
}
