// Command rig-scan lists nearby peripherals advertising the rig service,
// strongest signal first. Use it to check the rig is powered and in range
// before starting turntable-remote.
//
// Usage:
//
//	go run ./cmd/rig-scan [--timeout 10s] [--service UUID]
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/chaz8081/turntable-remote/internal/ble"
	"github.com/chaz8081/turntable-remote/internal/ble/attr"
	"github.com/chaz8081/turntable-remote/internal/link"
)

func main() {
	timeout := flag.Duration("timeout", 10*time.Second, "how long to scan")
	service := flag.String("service", attr.ServiceUUID, "service UUID to filter on")
	bound := flag.Int("rssi-bound", link.DefaultRSSIBound, "signal bound (dBm) for the usable column")
	flag.Parse()

	serviceUUID, err := attr.Normalize(*service)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Printf("Scanning %s for %s...\n", *timeout, serviceUUID)
	devices, err := ble.ScanForDevices(ble.NewTinyGoAdapter(), serviceUUID, *timeout)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
	if len(devices) == 0 {
		fmt.Println("No rigs found. Is the turntable powered and advertising?")
		return
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].RSSI > devices[j].RSSI })

	fmt.Printf("\n%-20s %-18s %6s  %s\n", "NAME", "ADDRESS", "RSSI", "USABLE")
	for _, d := range devices {
		usable := "no"
		if d.RSSI > *bound {
			usable = "yes"
		}
		fmt.Printf("%-20s %-18s %6d  %s\n", d.Name, d.MAC, d.RSSI, usable)
	}
}
