package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chaz8081/turntable-remote/internal/ble"
	"github.com/chaz8081/turntable-remote/internal/capture"
	"github.com/chaz8081/turntable-remote/internal/config"
	"github.com/chaz8081/turntable-remote/internal/hotkey"
	"github.com/chaz8081/turntable-remote/internal/rig"
	"github.com/chaz8081/turntable-remote/internal/web"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/turntable-remote/config.yaml)")
	initConfig := flag.Bool("init", false, "write the default config file and exit")
	flag.Parse()

	if *initConfig {
		path, err := config.WriteDefault()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if path == "" {
			log.Printf("Config already exists at %s", config.DefaultConfigPath())
		} else {
			log.Printf("Wrote default config to %s", path)
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	slog.SetLogLoggerLevel(config.ParseLogLevel(cfg.LogLevel))

	printBanner(cfg)

	sink, err := capture.NewSink(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize capture sink: %v", err)
	}
	runner := capture.NewRunner(sink, 8)

	opts := rig.DefaultOptions()
	opts.PeripheralName = cfg.Device.Name
	opts.ServiceUUID = cfg.Device.ServiceUUID
	opts.ScanTimeout = cfg.ScanTimeout()
	opts.SettleDelay = cfg.SettleDelay()
	opts.TickInterval = cfg.TickInterval()
	opts.SampleMaxAge = cfg.SampleMaxAge()
	opts.FlashDuration = cfg.FlashDuration()
	opts.RSSIBound = cfg.Link.RSSIBound
	opts.SubscribeLiveness = cfg.Link.SubscribeLiveness
	opts.OnCapture = func(s rig.Snapshot) { runner.Submit(string(s.State.Mode)) }

	controller := rig.New(ble.NewTinyGoAdapter(), opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runner.Run(ctx)

	if cfg.Web.Addr != "" {
		srv := web.NewServer(cfg.Web.Addr, controller)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("ERROR: web server: %v", err)
			}
		}()
	}

	var listener *hotkey.Listener
	if cfg.Hotkey.Enabled {
		listener = hotkey.NewListener(cfg.Hotkey.Keys)
		go listener.Start()
		go func() {
			for range listener.Events() {
				if _, err := controller.ToggleCameraState(); err != nil {
					log.Printf("ERROR: toggle camera: %v", err)
				}
			}
		}()
		log.Printf("Hotkey ready: %s toggles the camera", strings.Join(cfg.Hotkey.Keys, "+"))
	}

	log.Println("Ready! Ctrl+C to quit.")
	if err := controller.Run(ctx); err != nil {
		log.Fatalf("Controller: %v", err)
	}
	<-runner.Done()
	log.Println("Goodbye!")

	if listener != nil {
		// Exit directly to avoid gohook's C cleanup crash.
		// The OS reclaims the event hook on process exit.
		os.Exit(0)
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	// No config file, use defaults
	log.Println("No config file found, using defaults")
	return config.Default(), nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	hotkeyDesc := "disabled"
	if cfg.Hotkey.Enabled {
		hotkeyDesc = strings.Join(cfg.Hotkey.Keys, "+")
	}
	webDesc := "disabled"
	if cfg.Web.Addr != "" {
		webDesc = "http://" + cfg.Web.Addr
	}
	fmt.Println("=== turntable-remote ===")
	fmt.Printf("  Rig:     %s (%s)\n", cfg.Device.Name, cfg.Device.ServiceUUID)
	fmt.Printf("  Link:    rssi > %d dBm, tick %s\n", cfg.Link.RSSIBound, cfg.TickInterval())
	fmt.Printf("  Capture: %s\n", cfg.Capture.Sink)
	fmt.Printf("  Hotkey:  %s\n", hotkeyDesc)
	fmt.Printf("  Web:     %s\n", webDesc)
	fmt.Printf("  Log:     %s\n", cfg.LogLevel)
	fmt.Println("========================")
}
