package ble

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// TinyGoAdapter wraps tinygo-org/bluetooth (BlueZ on Linux, CoreBluetooth on macOS).
// On macOS, BLE device addresses are CoreBluetooth UUIDs (not MAC addresses);
// the MAC field of Device stores that UUID string.
type TinyGoAdapter struct {
	adapter *bluetooth.Adapter

	// scanMu serializes scans: the discovery scan and the per-connection
	// RSSI watcher share the one radio scanner.
	scanMu sync.Mutex

	// mu protects the connections map.
	mu          sync.Mutex
	connections map[string]*tinyGoConnection // keyed by device address
}

// NewTinyGoAdapter creates a BLE adapter on the system default radio.
func NewTinyGoAdapter() *TinyGoAdapter {
	return &TinyGoAdapter{
		adapter:     bluetooth.DefaultAdapter,
		connections: make(map[string]*tinyGoConnection),
	}
}

func (a *TinyGoAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return err
	}

	// tinygo/bluetooth reports peripheral disconnects through the
	// adapter-level connect handler with connected=false.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		addr := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[addr]
		delete(a.connections, addr)
		a.mu.Unlock()
		if ok {
			conn.dropped()
		}
	})

	return nil
}

func (a *TinyGoAdapter) Scan(ctx context.Context, serviceUUID string, fn func(Device) bool) error {
	var filter bluetooth.UUID
	if serviceUUID != "" {
		uuid, err := bluetooth.ParseUUID(serviceUUID)
		if err != nil {
			return fmt.Errorf("ble: parse service UUID: %w", err)
		}
		filter = uuid
	}

	a.scanMu.Lock()
	defer a.scanMu.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			if err := a.adapter.StopScan(); err != nil {
				slog.Debug("[BLE] stop scan", "error", err)
			}
		})
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()

	err := a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		if serviceUUID != "" && !result.HasServiceUUID(filter) {
			return
		}
		more := fn(Device{
			Name: result.LocalName(),
			MAC:  result.Address.String(),
			RSSI: int(result.RSSI),
		})
		if !more {
			stop()
		}
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("ble: scan: %w", err)
	}
	return nil
}

func (a *TinyGoAdapter) Connect(ctx context.Context, mac string) (Connection, error) {
	var addr bluetooth.Address
	addr.Set(mac)

	// tinygo/bluetooth's Connect cannot be cancelled; wrap it so ctx still
	// bounds how long the caller waits.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		params := bluetooth.ConnectionParams{}
		if deadline, ok := ctx.Deadline(); ok {
			params.ConnectionTimeout = bluetooth.NewDuration(time.Until(deadline))
		}
		device, err := a.adapter.Connect(addr, params)
		ch <- connectResult{device, err}
	}()

	var device bluetooth.Device
	select {
	case <-ctx.Done():
		go func() {
			// A connection completing after the caller gave up is released.
			if r := <-ch; r.err == nil {
				_ = r.device.Disconnect()
			}
		}()
		return nil, fmt.Errorf("ble: connect to %s: %w", mac, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", mac, result.err)
		}
		device = result.device
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	conn := &tinyGoConnection{
		device: device,
		mac:    mac,
		rssi:   make(chan int, 1),
		cancel: cancel,
	}
	a.track(device.Address.String(), conn)

	go a.watchRSSI(watchCtx, conn)

	return conn, nil
}

// track registers conn for disconnect dispatch under addr.
func (a *TinyGoAdapter) track(addr string, conn *tinyGoConnection) {
	conn.forget = func() { a.forget(addr, conn) }
	a.mu.Lock()
	a.connections[addr] = conn
	a.mu.Unlock()
}

// forget drops conn from the disconnect dispatch table unless another
// connection has since been registered under the same address.
func (a *TinyGoAdapter) forget(addr string, conn *tinyGoConnection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connections[addr] == conn {
		delete(a.connections, addr)
	}
}

// watchRSSI feeds conn with the signal strength of the peripheral's
// advertisements. tinygo/bluetooth exposes no RSSI read on a live
// connection, so advertisements are the only sample source.
func (a *TinyGoAdapter) watchRSSI(ctx context.Context, conn *tinyGoConnection) {
	err := a.Scan(ctx, "", func(d Device) bool {
		if d.MAC != conn.mac {
			return true
		}
		// BlueZ reports already-known devices with RSSI 0 once it has
		// dropped the property; that is an absent reading, not 0 dBm.
		if d.RSSI == NoRSSI {
			return true
		}
		// Keep only the freshest sample.
		select {
		case <-conn.rssi:
		default:
		}
		conn.rssi <- d.RSSI
		return ctx.Err() == nil
	})
	if err != nil {
		slog.Debug("[BLE] rssi watcher stopped", "mac", conn.mac, "error", err)
	}
}

// Compile-time check that TinyGoAdapter implements Adapter.
var _ Adapter = (*TinyGoAdapter)(nil)

type tinyGoConnection struct {
	device bluetooth.Device
	mac    string
	rssi   chan int
	cancel context.CancelFunc
	forget func()

	mu           sync.Mutex
	disconnectCb func()
}

func (c *tinyGoConnection) DiscoverServices(uuids []string) ([]Service, error) {
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, err
	}
	svcs, err := c.device.DiscoverServices(filter)
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	out := make([]Service, 0, len(svcs))
	for i := range svcs {
		out = append(out, &tinyGoService{svc: svcs[i]})
	}
	return out, nil
}

func (c *tinyGoConnection) ReadRSSI(ctx context.Context) (int, error) {
	select {
	case v := <-c.rssi:
		return v, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (c *tinyGoConnection) Disconnect() error {
	c.cancel()
	c.forget()
	return c.device.Disconnect()
}

func (c *tinyGoConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

func (c *tinyGoConnection) dropped() {
	c.cancel()
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

type tinyGoService struct {
	svc bluetooth.DeviceService
}

func (s *tinyGoService) UUID() string {
	return s.svc.UUID().String()
}

// DiscoverCharacteristics asks the backend for every characteristic and
// filters locally: tinygo fails the whole call when any requested UUID is
// absent, which would hide the ones that are present.
func (s *tinyGoService) DiscoverCharacteristics(uuids []string) ([]Characteristic, error) {
	chars, err := s.svc.DiscoverCharacteristics(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics: %w", err)
	}
	want := newUUIDSet(uuids)
	out := make([]Characteristic, 0, len(chars))
	for i := range chars {
		if !want.has(chars[i].UUID().String()) {
			continue
		}
		out = append(out, &tinyGoCharacteristic{char: chars[i]})
	}
	return out, nil
}

type tinyGoCharacteristic struct {
	char bluetooth.DeviceCharacteristic
}

func (c *tinyGoCharacteristic) UUID() string {
	return c.char.UUID().String()
}

func (c *tinyGoCharacteristic) Write(data []byte) error {
	_, err := c.char.WriteWithoutResponse(data)
	return err
}

func (c *tinyGoCharacteristic) Subscribe(cb func([]byte)) error {
	return c.char.EnableNotifications(func(buf []byte) {
		// The backend may reuse buf after the callback returns.
		cp := make([]byte, len(buf))
		copy(cp, buf)
		cb(cp)
	})
}

func parseUUIDs(in []string) ([]bluetooth.UUID, error) {
	out := make([]bluetooth.UUID, 0, len(in))
	for _, s := range in {
		u, err := bluetooth.ParseUUID(s)
		if err != nil {
			return nil, fmt.Errorf("ble: parse UUID %q: %w", s, err)
		}
		out = append(out, u)
	}
	return out, nil
}
