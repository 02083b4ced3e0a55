package pipeline

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// recorder captures published events in order.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func (r *recorder) byKind(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestStateMachineLegalPaths(t *testing.T) {
	tests := []struct {
		name string
		path []PhaseStatus
	}{
		{"direct completion", []PhaseStatus{PhaseProcessing, PhaseCompleted}},
		{"via feedback", []PhaseStatus{PhaseProcessing, PhaseWaitingFeedback, PhaseCompleted}},
		{"error then retry", []PhaseStatus{PhaseProcessing, PhaseError, PhaseProcessing, PhaseCompleted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateMachine(uuid.New(), nil)
			for _, target := range tt.path {
				if err := m.Transition(1, target); err != nil {
					t.Fatalf("Transition(%s) = %v, want nil", target, err)
				}
			}
			if got := m.Status(1); got != tt.path[len(tt.path)-1] {
				t.Errorf("Status = %s, want %s", got, tt.path[len(tt.path)-1])
			}
		})
	}
}

func TestStateMachineIllegalTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup []PhaseStatus
		to    PhaseStatus
	}{
		{"pending to completed", nil, PhaseCompleted},
		{"pending to waiting", nil, PhaseWaitingFeedback},
		{"completed is final", []PhaseStatus{PhaseProcessing, PhaseCompleted}, PhaseProcessing},
		{"waiting to error", []PhaseStatus{PhaseProcessing, PhaseWaitingFeedback}, PhaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStateMachine(uuid.New(), nil)
			for _, s := range tt.setup {
				if err := m.Transition(2, s); err != nil {
					t.Fatalf("setup transition to %s failed: %v", s, err)
				}
			}

			err := m.Transition(2, tt.to)
			var illegal *IllegalTransitionError
			if !errors.As(err, &illegal) {
				t.Fatalf("Transition = %v, want IllegalTransitionError", err)
			}
			if illegal.Phase != 2 || illegal.To != tt.to {
				t.Errorf("error detail = %+v", illegal)
			}
		})
	}
}

func TestStateMachineCompleteRecordsResult(t *testing.T) {
	m := NewStateMachine(uuid.New(), nil)
	if err := m.Transition(3, PhaseProcessing); err != nil {
		t.Fatal(err)
	}

	res := Result{Phase: 3, Payload: PlaceholderPayload{Phase: 3}, Quality: 0.8}
	if err := m.Complete(3, res, 2); err != nil {
		t.Fatalf("Complete = %v", err)
	}

	records := m.Records()
	if len(records) != 1 {
		t.Fatalf("Records len = %d, want 1", len(records))
	}
	r := records[0]
	if r.Status != PhaseCompleted || r.Attempt != 2 {
		t.Errorf("record = %+v", r)
	}
	if r.Result == nil || r.Result.Quality != 0.8 {
		t.Errorf("result not recorded: %+v", r.Result)
	}
	if r.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
}

func TestStateMachineFailRecordsDetail(t *testing.T) {
	m := NewStateMachine(uuid.New(), nil)
	if err := m.Transition(1, PhaseProcessing); err != nil {
		t.Fatal(err)
	}
	if err := m.Fail(1, 3, fmt.Errorf("model unavailable")); err != nil {
		t.Fatalf("Fail = %v", err)
	}

	records := m.Records()
	if records[0].ErrorDetail != "model unavailable" {
		t.Errorf("ErrorDetail = %q", records[0].ErrorDetail)
	}
	if records[0].Attempt != 3 {
		t.Errorf("Attempt = %d, want 3", records[0].Attempt)
	}
}

func TestStateMachineEmitsEventPerTransition(t *testing.T) {
	rec := &recorder{}
	m := NewStateMachine(uuid.New(), rec)

	if err := m.Transition(1, PhaseProcessing); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(1, PhaseWaitingFeedback); err != nil {
		t.Fatal(err)
	}
	if err := m.Complete(1, Result{Phase: 1, Quality: 0.9}, 1); err != nil {
		t.Fatal(err)
	}

	want := []EventKind{EventPhaseStart, EventFeedbackWait, EventPhaseComplete}
	got := rec.kinds()
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("kinds[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestStateMachineRecordsOrdered(t *testing.T) {
	m := NewStateMachine(uuid.New(), nil)
	for _, phase := range []int{5, 1, 3} {
		if err := m.Transition(phase, PhaseProcessing); err != nil {
			t.Fatal(err)
		}
	}

	records := m.Records()
	for i, want := range []int{1, 3, 5} {
		if records[i].PhaseNumber != want {
			t.Errorf("records[%d].PhaseNumber = %d, want %d", i, records[i].PhaseNumber, want)
		}
	}
}

// readbackPublisher reads the machine back from inside Publish, the way a
// synchronous broker subscriber does when it refreshes a snapshot cache.
type readbackPublisher struct {
	m        *StateMachine
	statuses []PhaseStatus
	records  []int
}

func (p *readbackPublisher) Publish(e Event) {
	p.statuses = append(p.statuses, p.m.Status(e.Phase))
	p.records = append(p.records, len(p.m.Records()))
}

func TestStateMachineSubscriberReadsBack(t *testing.T) {
	pub := &readbackPublisher{}
	m := NewStateMachine(uuid.New(), pub)
	pub.m = m

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := m.Transition(1, PhaseProcessing); err != nil {
			t.Errorf("Transition = %v", err)
		}
		if err := m.Complete(1, Result{Phase: 1, Quality: 0.8}, 1); err != nil {
			t.Errorf("Complete = %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("state machine deadlocked with a read-back subscriber")
	}

	want := []PhaseStatus{PhaseProcessing, PhaseCompleted}
	if len(pub.statuses) != len(want) {
		t.Fatalf("subscriber saw %d events, want %d", len(pub.statuses), len(want))
	}
	for i, s := range want {
		if pub.statuses[i] != s {
			t.Errorf("event %d: subscriber read status %s, want %s", i, pub.statuses[i], s)
		}
	}
}
