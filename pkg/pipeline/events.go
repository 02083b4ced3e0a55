package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventKind enumerates the progress notifications the engine emits.
type EventKind string

const (
	EventPhaseStart       EventKind = "phase_start"
	EventPhaseProgress    EventKind = "phase_progress"
	EventFeedbackWait     EventKind = "feedback_wait"
	EventFeedbackApplied  EventKind = "feedback_applied"
	EventFeedbackTimeout  EventKind = "feedback_timeout"
	EventPhaseComplete    EventKind = "phase_complete"
	EventPhaseError       EventKind = "phase_error"
	EventSessionComplete  EventKind = "session_complete"
	EventSessionFailed    EventKind = "session_failed"
	EventSessionCancelled EventKind = "session_cancelled"
)

// Event is an immutable progress notification. Events for one session are
// published in the exact order their state transitions occur.
type Event struct {
	Kind      EventKind              `json:"kind"`
	SessionID uuid.UUID              `json:"session_id"`
	Phase     int                    `json:"phase,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Subscriber receives published events. Implementations must not block:
// push delivery is best-effort and must never stall phase progression.
type Subscriber interface {
	OnEvent(Event)
}

// Publisher is the event production side consumed by the engine.
type Publisher interface {
	Publish(Event)
}

// Broker fans events out to subscribers. Add/remove/broadcast are safe for
// concurrent use independent of any orchestration lock.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Subscriber
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]Subscriber)}
}

// Subscribe registers a subscriber and returns its remove function.
func (b *Broker) Subscribe(s Subscriber) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = s
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every current subscriber. Delivery is
// synchronous so per-session ordering follows publish order; subscribers are
// expected to hand off quickly (buffered channel, queue) rather than block.
func (b *Broker) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		s.OnEvent(e)
	}
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(Event)

func (f SubscriberFunc) OnEvent(e Event) { f(e) }
