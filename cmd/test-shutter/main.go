// Command test-shutter fires the configured capture sink once, without a
// rig. For the keytap sink, focus the tethering app before the countdown
// finishes.
//
// Usage:
//
//	go run ./cmd/test-shutter [--config path] [--sink log|gpio|keytap]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/chaz8081/turntable-remote/internal/capture"
	"github.com/chaz8081/turntable-remote/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: built-in defaults)")
	sinkName := flag.String("sink", "", "override capture.sink")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *sinkName != "" {
		cfg.Capture.Sink = *sinkName
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	sink, err := capture.NewSink(cfg)
	if err != nil {
		log.Fatalf("capture sink: %v", err)
	}
	defer sink.Close()

	fmt.Printf("Firing %q sink in 3 seconds...\n", cfg.Capture.Sink)
	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sink.Capture(ctx, capture.Shot{Seq: 1, At: time.Now(), Mode: "manual"}); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("\nDone!")
}
