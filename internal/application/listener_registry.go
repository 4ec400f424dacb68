package application

import (
	"strings"
	"sync"
	"time"

	"github.com/bnema/poolwallet-cli/internal/ports"
	"golang.org/x/time/rate"
)

const notifyThrottleWindow = time.Second

// Listener receives connection-state notifications. address is empty when
// connected is false.
type Listener func(connected bool, address string)

type listenerEntry struct {
	id uint64
	cb Listener
}

// ListenerRegistry fans out connection notifications. An identical
// (connected, address) payload is delivered at most once per second; a
// different payload always passes.
type ListenerRegistry struct {
	clock ports.Clock

	mu        sync.Mutex
	nextID    uint64
	listeners []listenerEntry
	lastKey   string
	limiter   *rate.Limiter
}

func NewListenerRegistry(clock ports.Clock) *ListenerRegistry {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &ListenerRegistry{clock: clock}
}

func (r *ListenerRegistry) Subscribe(cb Listener) (unsubscribe func()) {
	if cb == nil {
		return func() {}
	}

	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, listenerEntry{id: id, cb: cb})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, entry := range r.listeners {
				if entry.id == id {
					r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Notify delivers the payload to every subscriber and reports whether it was
// delivered or suppressed by the throttle.
func (r *ListenerRegistry) Notify(connected bool, address string) bool {
	if !connected {
		address = ""
	}
	key := payloadKey(connected, address)

	r.mu.Lock()
	if key != r.lastKey || r.limiter == nil {
		r.lastKey = key
		r.limiter = rate.NewLimiter(rate.Every(notifyThrottleWindow), 1)
	}
	if !r.limiter.AllowN(r.clock.Now(), 1) {
		r.mu.Unlock()
		return false
	}
	targets := make([]Listener, 0, len(r.listeners))
	for _, entry := range r.listeners {
		targets = append(targets, entry.cb)
	}
	r.mu.Unlock()

	for _, cb := range targets {
		cb(connected, address)
	}

	return true
}

func (r *ListenerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

func payloadKey(connected bool, address string) string {
	if !connected {
		return "0|"
	}
	return "1|" + strings.ToLower(strings.TrimSpace(address))
}
