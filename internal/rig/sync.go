package rig

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/chaz8081/turntable-remote/internal/ble/attr"
	"github.com/chaz8081/turntable-remote/internal/shutter"
)

// SetMode validates text as a Mode, stores it and sends it to the rig.
// On error the state is unchanged.
func (c *Controller) SetMode(text string) error {
	m, err := ParseMode(text)
	if err != nil {
		return err
	}
	return c.apply(attr.Mode, string(m), func(st *RemoteState) { st.Mode = m })
}

// SetNumOfPhoto validates text as a photo count, stores it and sends it.
func (c *Controller) SetNumOfPhoto(text string) error {
	n, err := ParseNumOfPhoto(text)
	if err != nil {
		return err
	}
	return c.apply(attr.NumOfPhoto, strconv.Itoa(n), func(st *RemoteState) { st.NumOfPhoto = n })
}

// SetAngle validates text as a step angle, stores it and sends it.
func (c *Controller) SetAngle(text string) error {
	n, err := ParseAngle(text)
	if err != nil {
		return err
	}
	return c.apply(attr.Angle, strconv.Itoa(n), func(st *RemoteState) { st.Angle = n })
}

// SetTimeInterval validates text as seconds between shots, stores it and sends it.
func (c *Controller) SetTimeInterval(text string) error {
	v, err := ParseTimeInterval(text)
	if err != nil {
		return err
	}
	return c.apply(attr.TimeInterval, formatTimeInterval(v), func(st *RemoteState) { st.TimeInterval = v })
}

// ToggleCameraState flips the camera between idle and shooting and sends
// the new value. A state the rig reported outside those two is left alone.
func (c *Controller) ToggleCameraState() (CameraState, error) {
	var next CameraState
	ok := c.exec(func() {
		switch c.snap.State.CameraState {
		case Idle:
			next = Shooting
		case Shooting:
			next = Idle
		default:
			next = c.snap.State.CameraState
			slog.Warn("[RIG] camera state not toggleable", "state", next)
			return
		}
		c.snap.State.CameraState = next
		_ = c.write(attr.CameraState, string(next))
		c.publish()
	})
	if !ok {
		return "", ErrStopped
	}
	slog.Info("[RIG] camera toggled", "state", next)
	return next, nil
}

// apply mutates the state on the actor and writes value outbound. A write
// before the link is ready is dropped, not reported.
func (c *Controller) apply(id attr.ID, value string, mutate func(*RemoteState)) error {
	ok := c.exec(func() {
		mutate(&c.snap.State)
		_ = c.write(id, value)
		c.publish()
	})
	if !ok {
		return ErrStopped
	}
	slog.Info("[RIG] set", "attr", id, "value", value)
	return nil
}

// write sends value to the attribute's characteristic.
func (c *Controller) write(id attr.ID, value string) error {
	if c.sess == nil {
		slog.Debug("[RIG] write dropped", "attr", id, "error", ErrLinkUnavailable)
		return ErrLinkUnavailable
	}
	ch, ok := c.sess.handles.get(id)
	if !ok {
		slog.Debug("[RIG] write dropped", "attr", id, "error", ErrLinkUnavailable)
		return ErrLinkUnavailable
	}
	if err := ch.Write([]byte(value)); err != nil {
		slog.Debug("[RIG] write failed", "attr", id, "error", err)
		return fmt.Errorf("rig: write %s: %w", id, err)
	}
	return nil
}

// onNotification is called from the radio backend. It returns after the
// update is applied and published.
func (c *Controller) onNotification(s *session, id attr.ID, data []byte) {
	text := string(data)
	c.exec(func() { c.applyNotification(s, id, text) })
}

func (c *Controller) applyNotification(s *session, id attr.ID, text string) {
	if !c.current(s, PhaseReady) {
		slog.Debug("[RIG] notification before ready", "attr", id, "value", text)
		return
	}
	switch id {
	case attr.CameraState:
		c.snap.State.CameraState = CameraState(text)
	case attr.ShouldTakePhoto:
		level := shutter.ParseLevel(text)
		c.snap.State.ShouldTakePhoto = level
		if c.detector.Observe(level) {
			c.capture()
		}
	case attr.Connected:
		slog.Debug("[RIG] liveness echo", "value", text)
		return
	default:
		return
	}
	c.publish()
}
