package ble

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoMatch is returned by FindFirst when the scan ends without a match.
var ErrNoMatch = errors.New("ble: no matching peripheral")

// FindFirst scans for the first peripheral advertising serviceUUID under the
// given local name. The first match wins; signal strength is not compared.
// An empty name matches any advertiser of the service.
func FindFirst(ctx context.Context, adapter Adapter, serviceUUID, name string) (Device, error) {
	var found Device
	ok := false
	err := adapter.Scan(ctx, serviceUUID, func(d Device) bool {
		if name != "" && d.Name != name {
			return true
		}
		found, ok = d, true
		return false
	})
	if ok {
		return found, nil
	}
	if err != nil {
		return Device{}, fmt.Errorf("ble: scan: %w", err)
	}
	if ctx.Err() != nil {
		return Device{}, fmt.Errorf("%w: %w", ErrNoMatch, ctx.Err())
	}
	return Device{}, ErrNoMatch
}

// ScanForDevices lists peripherals advertising serviceUUID seen within timeout.
// Each address is reported once, with the strongest signal observed.
func ScanForDevices(adapter Adapter, serviceUUID string, timeout time.Duration) ([]Device, error) {
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var devices []Device
	index := make(map[string]int)
	err := adapter.Scan(ctx, serviceUUID, func(d Device) bool {
		if i, seen := index[d.MAC]; seen {
			if d.RSSI > devices[i].RSSI {
				devices[i].RSSI = d.RSSI
			}
			if devices[i].Name == "" {
				devices[i].Name = d.Name
			}
			return true
		}
		index[d.MAC] = len(devices)
		devices = append(devices, d)
		return true
	})
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}
	return devices, nil
}
