package rig

import "sync"

// Broadcaster fans snapshots out to subscribers. Publish never blocks: a
// subscriber that falls behind loses its oldest pending snapshot, so the
// latest one is always delivered.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan Snapshot]struct{}
	size    int
}

// NewBroadcaster creates a broadcaster with per-subscriber buffer size.
func NewBroadcaster(size int) *Broadcaster {
	if size <= 0 {
		size = 64
	}
	return &Broadcaster{
		clients: make(map[chan Snapshot]struct{}),
		size:    size,
	}
}

// Subscribe returns a channel primed with initial and a cleanup function.
// The caller must call the cleanup when done.
func (b *Broadcaster) Subscribe(initial Snapshot) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, b.size)
	ch <- initial
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// Publish delivers s to every subscriber.
func (b *Broadcaster) Publish(s Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- s:
			continue
		default:
		}
		// Full: drop the oldest pending snapshot and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
