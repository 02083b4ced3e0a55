package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()

	var mu sync.Mutex
	counts := map[string]int{}
	sub := func(name string) func() {
		return b.Subscribe(SubscriberFunc(func(e Event) {
			mu.Lock()
			counts[name]++
			mu.Unlock()
		}))
	}

	unsubA := sub("a")
	sub("b")

	b.Publish(Event{Kind: EventPhaseStart, SessionID: uuid.New(), Phase: 1})
	b.Publish(Event{Kind: EventPhaseComplete, SessionID: uuid.New(), Phase: 1})

	unsubA()
	b.Publish(Event{Kind: EventSessionComplete, SessionID: uuid.New()})

	mu.Lock()
	defer mu.Unlock()
	if counts["a"] != 2 {
		t.Errorf("a received %d events, want 2 (unsubscribed before third)", counts["a"])
	}
	if counts["b"] != 3 {
		t.Errorf("b received %d events, want 3", counts["b"])
	}
}

func TestBrokerStampsTimestamp(t *testing.T) {
	b := NewBroker()
	var got Event
	b.Subscribe(SubscriberFunc(func(e Event) { got = e }))

	b.Publish(Event{Kind: EventPhaseStart, SessionID: uuid.New(), Phase: 1})
	if got.Timestamp.IsZero() {
		t.Error("Timestamp not stamped on publish")
	}

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b.Publish(Event{Kind: EventPhaseStart, SessionID: uuid.New(), Phase: 1, Timestamp: fixed})
	if !got.Timestamp.Equal(fixed) {
		t.Errorf("explicit timestamp overwritten: %v", got.Timestamp)
	}
}

func TestBrokerPreservesOrderPerPublisher(t *testing.T) {
	b := NewBroker()
	var phases []int
	b.Subscribe(SubscriberFunc(func(e Event) { phases = append(phases, e.Phase) }))

	sid := uuid.New()
	for p := 1; p <= 7; p++ {
		b.Publish(Event{Kind: EventPhaseStart, SessionID: sid, Phase: p})
	}

	for i, p := range phases {
		if p != i+1 {
			t.Fatalf("delivery order %v, want ascending phases", phases)
		}
	}
}
