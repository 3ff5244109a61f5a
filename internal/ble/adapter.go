// Package ble provides the radio layer used to reach the turntable rig over
// Bluetooth Low Energy. The interfaces here are what the rest of the program
// talks to; the tinygo-org/bluetooth backend and the test mocks implement them.
package ble

import "context"

// Characteristic represents a BLE GATT characteristic.
type Characteristic interface {
	// UUID returns the characteristic UUID in lowercase canonical form.
	UUID() string
	// Write sends data to the characteristic.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this characteristic.
	Subscribe(callback func(data []byte)) error
}

// Service represents a discovered GATT service.
type Service interface {
	UUID() string
	// DiscoverCharacteristics finds the characteristics with the given UUIDs.
	// Characteristics the peripheral does not expose are omitted, not errors.
	DiscoverCharacteristics(uuids []string) ([]Characteristic, error)
}

// NoRSSI is the value backends report when the signal strength is unknown.
const NoRSSI = 0

// Device represents a discovered BLE peripheral.
type Device struct {
	Name string
	MAC  string
	RSSI int
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverServices finds the services with the given UUIDs.
	DiscoverServices(uuids []string) ([]Service, error)
	// ReadRSSI blocks until the next signal-strength reading (dBm) is
	// available. A NoRSSI reading carries no information.
	ReadRSSI(ctx context.Context) (int, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan reports advertisements carrying serviceUUID (any advertisement when
	// serviceUUID is empty) to fn until fn returns false or ctx is done.
	Scan(ctx context.Context, serviceUUID string, fn func(Device) bool) error
	// Connect establishes a connection to the device with the given MAC address.
	Connect(ctx context.Context, mac string) (Connection, error)
}
