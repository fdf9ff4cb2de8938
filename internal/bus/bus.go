// Package bus is the in-process event stream for loop observability.
// The agent loop broadcasts one event per completed iteration; subscribers
// (the action journal, the CLI) consume them without coupling to the loop.
package bus

import (
	"sync"
	"time"
)

// Outcome of one loop iteration.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Event describes one completed loop iteration.
type Event struct {
	RunID   string    // stable for the lifetime of one loop run
	Agent   string    // agent name
	Task    string    // selected task kind
	Outcome Outcome
	Detail  string    // human-readable: posted text, skip reason, error
	PostID  string    // the post acted on, when applicable
	Time    time.Time
}

// Handler consumes events. Handlers must be non-blocking.
type Handler func(Event)

// Bus fans events out to subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]Handler
}

func New() *Bus {
	return &Bus{subscribers: make(map[string]Handler)}
}

// Subscribe registers a handler under an ID for later Unsubscribe.
func (b *Bus) Subscribe(id string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[id] = h
}

// Unsubscribe removes a subscriber.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// Publish delivers an event to every subscriber.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, h := range b.subscribers {
		h(e)
	}
}
