// Package bletest provides in-memory implementations of the ble interfaces
// for tests: a scripted adapter, connections that accept pushed RSSI samples,
// and characteristics that record writes and replay notifications.
package bletest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/chaz8081/turntable-remote/internal/ble"
	"github.com/chaz8081/turntable-remote/internal/ble/attr"
)

// Characteristic records writes and allows simulated notifications.
type Characteristic struct {
	uuid string

	mu       sync.Mutex
	writes   [][]byte
	callback func([]byte)
	writeErr error
}

// NewCharacteristic returns a characteristic with the given UUID.
func NewCharacteristic(uuid string) *Characteristic {
	return &Characteristic{uuid: strings.ToLower(uuid)}
}

func (c *Characteristic) UUID() string { return c.uuid }

func (c *Characteristic) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	c.writes = append(c.writes, cp)
	return nil
}

func (c *Characteristic) Subscribe(cb func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
	return nil
}

// FailWrites makes subsequent writes return err (nil restores success).
func (c *Characteristic) FailWrites(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

// Subscribed reports whether a notification callback is registered.
func (c *Characteristic) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.callback != nil
}

// Notify delivers data to the subscriber, if any.
func (c *Characteristic) Notify(data []byte) {
	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(data)
	}
}

// Writes returns the recorded writes as strings.
func (c *Characteristic) Writes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.writes))
	for i, w := range c.writes {
		out[i] = string(w)
	}
	return out
}

// LastWrite returns the most recent write, or "" when nothing was written.
func (c *Characteristic) LastWrite() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.writes) == 0 {
		return ""
	}
	return string(c.writes[len(c.writes)-1])
}

// Service is a scripted GATT service.
type Service struct {
	uuid  string
	chars []*Characteristic
	err   error
}

// NewService returns a service exposing chars.
func NewService(uuid string, chars ...*Characteristic) *Service {
	return &Service{uuid: strings.ToLower(uuid), chars: chars}
}

// FailDiscovery makes DiscoverCharacteristics return err.
func (s *Service) FailDiscovery(err error) { s.err = err }

func (s *Service) UUID() string { return s.uuid }

func (s *Service) DiscoverCharacteristics(uuids []string) ([]ble.Characteristic, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []ble.Characteristic
	for _, c := range s.chars {
		if contains(uuids, c.uuid) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Characteristic returns the characteristic with the given UUID, or nil.
func (s *Service) Characteristic(uuid string) *Characteristic {
	for _, c := range s.chars {
		if strings.EqualFold(c.uuid, uuid) {
			return c
		}
	}
	return nil
}

// Connection simulates a BLE connection.
type Connection struct {
	services []*Service
	rssi     chan int

	mu           sync.Mutex
	disconnectCb func()
	disconnected bool
}

// NewConnection returns a connection exposing services.
func NewConnection(services ...*Service) *Connection {
	return &Connection{
		services: services,
		rssi:     make(chan int, 64),
	}
}

// NewRigConnection returns a connection exposing the full rig service.
func NewRigConnection() *Connection {
	var chars []*Characteristic
	for _, a := range attr.All() {
		chars = append(chars, NewCharacteristic(a.UUID.String()))
	}
	return NewConnection(NewService(attr.ServiceUUID, chars...))
}

func (c *Connection) DiscoverServices(uuids []string) ([]ble.Service, error) {
	var out []ble.Service
	for _, s := range c.services {
		if contains(uuids, s.uuid) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *Connection) ReadRSSI(ctx context.Context) (int, error) {
	select {
	case v := <-c.rssi:
		return v, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// PushRSSI queues a signal-strength sample for ReadRSSI.
func (c *Connection) PushRSSI(v int) {
	c.rssi <- v
}

func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

// Disconnected reports whether Disconnect was called.
func (c *Connection) Disconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

func (c *Connection) OnDisconnect(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

// SimulateDisconnect triggers the disconnect callback.
func (c *Connection) SimulateDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Characteristic finds a characteristic by UUID across all services.
func (c *Connection) Characteristic(uuid string) *Characteristic {
	for _, s := range c.services {
		if ch := s.Characteristic(uuid); ch != nil {
			return ch
		}
	}
	return nil
}

// Attr returns the rig characteristic for id, or nil.
func (c *Connection) Attr(id attr.ID) *Characteristic {
	return c.Characteristic(attr.Get(id).UUID.String())
}

// ErrNotConnectable is returned by Adapter.Connect when configured to fail.
var ErrNotConnectable = errors.New("bletest: device not connectable")

// Adapter simulates the BLE adapter. Scan reports Devices in order, then
// keeps "scanning" until the context ends.
type Adapter struct {
	mu            sync.Mutex
	devices       []ble.Device
	failConnects  int
	newConnection func() *Connection
	connections   []*Connection
	scans         int
}

// NewAdapter returns an adapter advertising devices whose connections
// expose the full rig service.
func NewAdapter(devices ...ble.Device) *Adapter {
	return &Adapter{
		devices:       devices,
		newConnection: NewRigConnection,
	}
}

// SetDevices replaces the advertised devices for later scans.
func (a *Adapter) SetDevices(devices ...ble.Device) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.devices = devices
}

// SetConnectionFactory overrides how connections are built.
func (a *Adapter) SetConnectionFactory(fn func() *Connection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.newConnection = fn
}

// FailConnects makes the next n Connect calls fail.
func (a *Adapter) FailConnects(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failConnects = n
}

func (a *Adapter) Enable() error { return nil }

func (a *Adapter) Scan(ctx context.Context, serviceUUID string, fn func(ble.Device) bool) error {
	a.mu.Lock()
	a.scans++
	devices := append([]ble.Device(nil), a.devices...)
	a.mu.Unlock()

	for _, d := range devices {
		if ctx.Err() != nil {
			return nil
		}
		if !fn(d) {
			return nil
		}
	}
	<-ctx.Done()
	return nil
}

func (a *Adapter) Connect(ctx context.Context, _ string) (ble.Connection, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failConnects > 0 {
		a.failConnects--
		return nil, ErrNotConnectable
	}
	conn := a.newConnection()
	a.connections = append(a.connections, conn)
	return conn, nil
}

// LatestConnection returns the most recently created connection, or nil.
func (a *Adapter) LatestConnection() *Connection {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.connections) == 0 {
		return nil
	}
	return a.connections[len(a.connections)-1]
}

// Connections returns how many connections were created.
func (a *Adapter) Connections() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.connections)
}

// Scans returns how many scans were started.
func (a *Adapter) Scans() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scans
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Compile-time interface checks.
var (
	_ ble.Adapter        = (*Adapter)(nil)
	_ ble.Connection     = (*Connection)(nil)
	_ ble.Service        = (*Service)(nil)
	_ ble.Characteristic = (*Characteristic)(nil)
)
