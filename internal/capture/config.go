package capture

import (
	"github.com/chaz8081/turntable-remote/internal/config"
	"github.com/chaz8081/turntable-remote/internal/gpio"
)

// NewSink builds the sink selected by capture.sink.
func NewSink(cfg *config.Config) (Sink, error) {
	switch cfg.Capture.Sink {
	case "gpio":
		driver, err := gpio.NewDriver(cfg.Capture.GPIO.Mock)
		if err != nil {
			return nil, err
		}
		return NewGPIOSink(driver, cfg.Capture.GPIO.FocusPin, cfg.Capture.GPIO.ShutterPin, cfg.FocusDelay(), cfg.ShutterDelay())
	case "keytap":
		return NewKeyTapSink(cfg.Capture.KeyTap.Key, cfg.Capture.KeyTap.Modifiers), nil
	default:
		return LogSink{}, nil
	}
}
