package rig

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chaz8081/turntable-remote/internal/ble"
	"github.com/chaz8081/turntable-remote/internal/ble/attr"
)

// LivenessSentinel is written to the liveness channel when the app leaves.
const LivenessSentinel = "disconnected"

// handleSet holds the characteristic for each attribute once discovery has
// found it. A missing entry makes writes to that attribute no-ops.
type handleSet struct {
	chars [attr.NumAttributes]ble.Characteristic
}

func (h *handleSet) get(id attr.ID) (ble.Characteristic, bool) {
	if !id.Valid() || h.chars[id] == nil {
		return nil, false
	}
	return h.chars[id], true
}

func (h *handleSet) set(id attr.ID, ch ble.Characteristic) {
	h.chars[id] = ch
}

func (h *handleSet) clear() {
	*h = handleSet{}
}

func (h *handleSet) missing() []attr.ID {
	var out []attr.ID
	for id := attr.ID(0); id < attr.NumAttributes; id++ {
		if h.chars[id] == nil {
			out = append(out, id)
		}
	}
	return out
}

// session is one physical link attempt. Its context bounds every helper
// goroutine and timer started on its behalf.
type session struct {
	id      uint64
	device  ble.Device
	conn    ble.Connection
	handles handleSet

	ctx    context.Context
	cancel context.CancelFunc

	rssi      int
	sampledAt time.Time
	hasSample bool
}

// current reports whether s is still the live session and in phase p.
func (c *Controller) current(s *session, p Phase) bool {
	return c.sess == s && c.snap.Phase == p
}

func (c *Controller) startScan() {
	c.stopScan()
	c.scanGen++
	gen := c.scanGen

	c.scanTimer = c.after(c.opts.ScanTimeout, func() { c.onScanTimeout(gen) })
	c.snap.PeripheralMissing = false
	c.setPhase(PhaseScanning)
	c.publish()

	slog.Info("[RIG] scanning", "name", c.opts.PeripheralName, "service", c.opts.ServiceUUID, "timeout", c.opts.ScanTimeout)
	c.resumeScan(gen)
}

// resumeScan (re)starts the radio scan under the running scan window.
func (c *Controller) resumeScan(gen uint64) {
	ctx, cancel := context.WithCancel(c.ctx)
	c.scanCancel = cancel
	go func() {
		dev, err := ble.FindFirst(ctx, c.adapter, c.opts.ServiceUUID, c.opts.PeripheralName)
		c.post(func() { c.onScanResult(gen, dev, err) })
	}()
}

func (c *Controller) stopScan() {
	if c.scanTimer != nil {
		c.scanTimer.Stop()
		c.scanTimer = nil
	}
	if c.scanCancel != nil {
		c.scanCancel()
		c.scanCancel = nil
	}
}

func (c *Controller) onScanResult(gen uint64, dev ble.Device, err error) {
	if gen != c.scanGen || c.snap.Phase != PhaseScanning {
		return
	}
	if err != nil {
		// The scan window timer decides when the rig is missing.
		if !errors.Is(err, context.Canceled) && !errors.Is(err, ble.ErrNoMatch) {
			slog.Warn("[RIG] scan failed", "error", err)
		}
		return
	}
	if c.scanCancel != nil {
		c.scanCancel()
		c.scanCancel = nil
	}
	slog.Info("[RIG] peripheral discovered", "name", dev.Name, "mac", dev.MAC, "rssi", dev.RSSI)
	c.connect(dev)
}

func (c *Controller) onScanTimeout(gen uint64) {
	if gen != c.scanGen {
		return
	}
	switch c.snap.Phase {
	case PhaseScanning, PhaseConnecting:
	default:
		return
	}
	c.stopScan()
	if c.sess != nil {
		c.sess.cancel()
		c.sess = nil
	}
	slog.Warn("[RIG] scan window elapsed", "error", ErrPeripheralNotFound, "timeout", c.opts.ScanTimeout)
	c.snap.PeripheralMissing = true
	c.snap.Peripheral = ""
	c.setPhase(PhaseMissing)
	c.publish()
}

func (c *Controller) connect(dev ble.Device) {
	c.nextSession++
	s := &session{id: c.nextSession, device: dev}
	s.ctx, s.cancel = context.WithCancel(c.ctx)
	c.sess = s

	c.snap.Peripheral = dev.Name
	c.setPhase(PhaseConnecting)
	c.publish()

	go func() {
		conn, err := c.adapter.Connect(s.ctx, dev.MAC)
		c.post(func() { c.onConnected(s, conn, err) })
	}()
}

func (c *Controller) onConnected(s *session, conn ble.Connection, err error) {
	if !c.current(s, PhaseConnecting) {
		if conn != nil {
			_ = conn.Disconnect()
		}
		return
	}
	if err != nil {
		slog.Warn("[RIG] connect failed, scanning again", "mac", s.device.MAC, "error", err)
		s.cancel()
		c.sess = nil
		c.snap.Peripheral = ""
		c.setPhase(PhaseScanning)
		c.publish()
		c.resumeScan(c.scanGen)
		return
	}

	c.stopScan()
	s.conn = conn
	conn.OnDisconnect(func() {
		c.post(func() { c.onDisconnected(s) })
	})
	slog.Info("[RIG] connected", "mac", s.device.MAC)

	c.setPhase(PhaseDiscoveringServices)
	c.publish()

	go c.sampleSignal(s)
	go func() {
		svcs, err := conn.DiscoverServices([]string{c.opts.ServiceUUID})
		c.post(func() { c.onServices(s, svcs, err) })
	}()
}

func (c *Controller) onServices(s *session, svcs []ble.Service, err error) {
	if !c.current(s, PhaseDiscoveringServices) {
		return
	}
	if err != nil || len(svcs) == 0 {
		// Hold here; the disconnect/reconnect cycle is the retry path.
		slog.Warn("[RIG] service discovery found nothing", "error", errors.Join(ErrDiscoveryIncomplete, err))
		return
	}

	c.setPhase(PhaseDiscoveringCharacteristics)
	c.publish()

	svc := svcs[0]
	go func() {
		chars, err := svc.DiscoverCharacteristics(attr.UUIDs())
		c.post(func() { c.onCharacteristics(s, chars, err) })
	}()
}

func (c *Controller) onCharacteristics(s *session, chars []ble.Characteristic, err error) {
	if !c.current(s, PhaseDiscoveringCharacteristics) {
		return
	}
	if err != nil || len(chars) == 0 {
		slog.Warn("[RIG] characteristic discovery found nothing", "error", errors.Join(ErrDiscoveryIncomplete, err))
		return
	}

	slog.Info("[RIG] found characteristics", "count", len(chars))
	for _, ch := range chars {
		id, ok := attr.Lookup(ch.UUID())
		if !ok {
			continue
		}
		s.handles.set(id, ch)
		if !c.subscribes(id) {
			continue
		}
		if err := ch.Subscribe(func(data []byte) { c.onNotification(s, id, data) }); err != nil {
			slog.Warn("[RIG] subscribe failed", "attr", id, "error", err)
		}
	}
	if missing := s.handles.missing(); len(missing) > 0 {
		slog.Warn("[RIG] attributes absent", "error", ErrDiscoveryIncomplete, "missing", missing)
	}

	// Give the notification subscriptions time to take effect before the
	// session goes live. The timer may outlive the session; onSettled checks.
	c.after(c.opts.SettleDelay, func() { c.onSettled(s) })
}

func (c *Controller) subscribes(id attr.ID) bool {
	if id == attr.Connected {
		return c.opts.SubscribeLiveness
	}
	return attr.Get(id).Can(attr.Notify)
}

func (c *Controller) onSettled(s *session) {
	if !c.current(s, PhaseDiscoveringCharacteristics) {
		slog.Debug("[RIG] settle fired for a finished session", "session", s.id)
		return
	}

	c.snap.State = DefaultState()
	c.detector.Reset()
	c.monitor.Reset()
	c.snap.IsWaiting = c.monitor.Waiting()
	c.setPhase(PhaseReady)
	_ = c.write(attr.Connected, "0")
	c.publish()
	slog.Info("[RIG] connection established", "session", s.id)

	go c.runMonitor(s)
}

func (c *Controller) onDisconnected(s *session) {
	if c.sess != s {
		return
	}
	slog.Warn("[RIG] disconnected", "mac", s.device.MAC, "phase", c.snap.Phase)
	c.endSession()
	c.setPhase(PhaseDisconnected)
	c.publish()

	if c.ctx.Err() == nil {
		c.startScan()
	}
}

// endSession stops the session's helpers and forgets its handles. The final
// liveness write is best-effort: the link is usually gone already.
func (c *Controller) endSession() {
	s := c.sess
	if s == nil {
		return
	}
	_ = c.write(attr.Connected, LivenessSentinel)
	s.handles.clear()
	s.cancel()
	c.sess = nil

	c.snap.IsWaiting = true
	c.snap.HasSignal = false
	c.snap.SignalStrength = 0
	c.snap.Peripheral = ""
}

// teardown runs when the owner goes away.
func (c *Controller) teardown() {
	c.stopScan()
	if s := c.sess; s != nil {
		conn := s.conn
		c.endSession()
		if conn != nil {
			if err := conn.Disconnect(); err != nil {
				slog.Debug("[RIG] disconnect on teardown", "error", err)
			}
		}
	}
	c.setPhase(PhaseIdle)
	c.publish()
	slog.Info("[RIG] stopped")
}
