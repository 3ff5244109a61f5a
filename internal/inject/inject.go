// Package inject sends keystrokes to the active application using robotgo,
// for example the capture key of a tethering app.
package inject

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
)

// tapFunc matches robotgo.KeyTap.
type tapFunc func(key string, args ...interface{}) error

// Injector taps one key combination into the active application.
type Injector struct {
	key       string
	modifiers []string
	tap       tapFunc
}

// NewInjector creates an Injector for key held with modifiers
// (e.g. "space", or "s" with ["cmd", "shift"]).
func NewInjector(key string, modifiers []string) *Injector {
	return &Injector{
		key:       strings.ToLower(key),
		modifiers: modifiers,
		tap:       robotgo.KeyTap,
	}
}

// Tap sends the key combination.
func (inj *Injector) Tap() error {
	if inj.key == "" {
		return nil
	}
	args := make([]interface{}, len(inj.modifiers))
	for i, m := range inj.modifiers {
		args[i] = strings.ToLower(m)
	}
	if err := inj.tap(inj.key, args...); err != nil {
		return fmt.Errorf("inject: key tap %s: %w", inj.Combo(), err)
	}
	return nil
}

// Combo renders the key combination, e.g. "cmd+shift+s".
func (inj *Injector) Combo() string {
	parts := append(append([]string(nil), inj.modifiers...), inj.key)
	return strings.ToLower(strings.Join(parts, "+"))
}
