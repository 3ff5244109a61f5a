// Package hotkey provides a global hotkey listener using gohook. Each press
// of the key combination emits one event; holding the keys does not repeat.
package hotkey

import (
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// Event is emitted on the channel returned by Events.
type Event struct {
	At time.Time
}

// Listener manages a global hotkey and emits press events.
type Listener struct {
	keys []string
	ch   chan Event
	done chan struct{}
	once sync.Once

	mu   sync.Mutex
	held bool
}

// NewListener creates a Listener for the given key combo.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "s"]).
func NewListener(keys []string) *Listener {
	return &Listener{
		keys: keys,
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed when the listener stops.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start begins listening for the global hotkey.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	hook.Register(hook.KeyDown, l.keys, func(hook.Event) { l.press(time.Now()) })
	hook.Register(hook.KeyUp, l.keys, func(hook.Event) { l.release() })

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// press emits one event per physical press; key repeat while held is ignored.
func (l *Listener) press(at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return
	}
	l.held = true
	select {
	case l.ch <- Event{At: at}:
	default: // don't block if channel is full
	}
}

func (l *Listener) release() {
	l.mu.Lock()
	l.held = false
	l.mu.Unlock()
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
