package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaz8081/turntable-remote/internal/ble/attr"
	"github.com/chaz8081/turntable-remote/internal/link"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Device   DeviceConfig  `yaml:"device"`
	Link     LinkConfig    `yaml:"link"`
	Capture  CaptureConfig `yaml:"capture"`
	Hotkey   HotkeyConfig  `yaml:"hotkey"`
	Web      WebConfig     `yaml:"web"`
	LogLevel string        `yaml:"log_level"`
}

// DeviceConfig identifies the rig.
type DeviceConfig struct {
	Name          string `yaml:"name"`            // advertised local name
	ServiceUUID   string `yaml:"service_uuid"`    // rig service UUID
	ScanTimeoutMs int    `yaml:"scan_timeout_ms"` // scan window before the rig is reported missing
}

// LinkConfig holds link health settings.
type LinkConfig struct {
	RSSIBound         int  `yaml:"rssi_bound"` // dBm; samples must be strictly above
	SubscribeLiveness bool `yaml:"subscribe_liveness"`
	TickMs            int  `yaml:"tick_ms"`
	SettleMs          int  `yaml:"settle_ms"`
	SampleMaxAgeMs    int  `yaml:"sample_max_age_ms"` // older samples count as unusable
}

// CaptureConfig selects what happens when the rig asks for a photo.
type CaptureConfig struct {
	Sink    string       `yaml:"sink"` // "log", "gpio" or "keytap"
	FlashMs int          `yaml:"flash_ms"`
	GPIO    GPIOConfig   `yaml:"gpio"`
	KeyTap  KeyTapConfig `yaml:"keytap"`
}

// GPIOConfig drives a wired shutter release (BCM pin numbers).
type GPIOConfig struct {
	FocusPin       int  `yaml:"focus_pin"`
	ShutterPin     int  `yaml:"shutter_pin"`
	FocusDelayMs   int  `yaml:"focus_delay_ms"`   // autofocus hold before release
	ShutterDelayMs int  `yaml:"shutter_delay_ms"` // shutter hold time
	Mock           bool `yaml:"mock"`             // log pin changes instead of touching hardware
}

// KeyTapConfig sends a keystroke to a tethering app.
type KeyTapConfig struct {
	Key       string   `yaml:"key"`
	Modifiers []string `yaml:"modifiers"`
}

// HotkeyConfig holds the camera toggle hotkey.
type HotkeyConfig struct {
	Enabled bool     `yaml:"enabled"`
	Keys    []string `yaml:"keys"`
}

// WebConfig holds the local HTTP surface settings.
type WebConfig struct {
	Addr string `yaml:"addr"` // empty disables the server
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "turntable-remote")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:          attr.DefaultPeripheralName,
			ServiceUUID:   attr.ServiceUUID,
			ScanTimeoutMs: 15000,
		},
		Link: LinkConfig{
			RSSIBound:      link.DefaultRSSIBound,
			TickMs:         100,
			SettleMs:       500,
			SampleMaxAgeMs: 2000,
		},
		Capture: CaptureConfig{
			Sink:    "log",
			FlashMs: 200,
			GPIO: GPIOConfig{
				FocusPin:       23,
				ShutterPin:     24,
				FocusDelayMs:   500,
				ShutterDelayMs: 200,
				Mock:           true,
			},
			KeyTap: KeyTapConfig{
				Key: "space",
			},
		},
		Hotkey: HotkeyConfig{
			Enabled: true,
			Keys:    []string{"ctrl", "shift", "s"},
		},
		Web: WebConfig{
			Addr: "127.0.0.1:8787",
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(expandTilde(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if u, err := attr.Normalize(cfg.Device.ServiceUUID); err == nil {
		cfg.Device.ServiceUUID = u
	}

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.Name == "" {
		return fmt.Errorf("device.name must not be empty")
	}
	if _, err := attr.Normalize(c.Device.ServiceUUID); err != nil {
		return fmt.Errorf("device.service_uuid: %w", err)
	}
	if c.Device.ScanTimeoutMs <= 0 {
		return fmt.Errorf("device.scan_timeout_ms must be > 0")
	}

	if c.Link.RSSIBound >= 0 || c.Link.RSSIBound < -127 {
		return fmt.Errorf("link.rssi_bound must be in [-127, -1], got %d", c.Link.RSSIBound)
	}
	if c.Link.TickMs <= 0 {
		return fmt.Errorf("link.tick_ms must be > 0")
	}
	if c.Link.SettleMs < 0 {
		return fmt.Errorf("link.settle_ms must be >= 0")
	}
	if c.Link.SampleMaxAgeMs <= 0 {
		return fmt.Errorf("link.sample_max_age_ms must be > 0")
	}

	switch c.Capture.Sink {
	case "log", "keytap":
	case "gpio":
		g := c.Capture.GPIO
		if g.FocusPin < 0 || g.ShutterPin <= 0 || g.FocusPin == g.ShutterPin {
			return fmt.Errorf("capture.gpio pins must be distinct BCM numbers, got focus=%d shutter=%d", g.FocusPin, g.ShutterPin)
		}
	default:
		return fmt.Errorf("capture.sink must be \"log\", \"gpio\" or \"keytap\", got %q", c.Capture.Sink)
	}
	if c.Capture.Sink == "keytap" && c.Capture.KeyTap.Key == "" {
		return fmt.Errorf("capture.keytap.key must not be empty")
	}
	if c.Capture.FlashMs <= 0 {
		return fmt.Errorf("capture.flash_ms must be > 0")
	}

	if c.Hotkey.Enabled && len(c.Hotkey.Keys) == 0 {
		return fmt.Errorf("hotkey.keys must not be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ScanTimeout returns the scan window.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Device.ScanTimeoutMs) * time.Millisecond
}

// TickInterval returns the link health period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Link.TickMs) * time.Millisecond
}

// SettleDelay returns the wait between discovery and Ready.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Link.SettleMs) * time.Millisecond
}

// SampleMaxAge returns how long a signal sample stays usable.
func (c *Config) SampleMaxAge() time.Duration {
	return time.Duration(c.Link.SampleMaxAgeMs) * time.Millisecond
}

// FlashDuration returns how long the shutter indicator stays raised.
func (c *Config) FlashDuration() time.Duration {
	return time.Duration(c.Capture.FlashMs) * time.Millisecond
}

// FocusDelay returns the autofocus hold.
func (c *Config) FocusDelay() time.Duration {
	return time.Duration(c.Capture.GPIO.FocusDelayMs) * time.Millisecond
}

// ShutterDelay returns the shutter hold.
func (c *Config) ShutterDelay() time.Duration {
	return time.Duration(c.Capture.GPIO.ShutterDelayMs) * time.Millisecond
}

// WriteDefault writes the default config to DefaultConfigPath if no file
// exists there. It returns the path written, or "" if a file was present.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	header := "# turntable-remote configuration\n# See README for the meaning of each field.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// ParseLogLevel maps a log_level string to a slog.Level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
