package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGateSubmitResolves(t *testing.T) {
	g := NewGate(uuid.New(), 7)
	req, err := g.Open(4, time.Second)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}

	if err := g.Submit(4, "tighter pacing"); err != nil {
		t.Fatalf("Submit = %v", err)
	}

	res := g.Wait(context.Background(), req)
	if res.Outcome != ResolutionSubmitted || res.Payload != "tighter pacing" {
		t.Errorf("resolution = %+v", res)
	}
}

func TestGateSkipResolves(t *testing.T) {
	g := NewGate(uuid.New(), 7)
	req, err := g.Open(5, time.Second)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}

	if err := g.Skip(5); err != nil {
		t.Fatalf("Skip = %v", err)
	}

	res := g.Wait(context.Background(), req)
	if res.Outcome != ResolutionSkipped {
		t.Errorf("Outcome = %s, want skipped", res.Outcome)
	}
}

func TestGateTimeout(t *testing.T) {
	g := NewGate(uuid.New(), 7)
	req, err := g.Open(4, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Open = %v", err)
	}

	res := g.Wait(context.Background(), req)
	if res.Outcome != ResolutionTimedOut {
		t.Errorf("Outcome = %s, want timed_out", res.Outcome)
	}

	// Feedback after the deadline is stale, never applied.
	if err := g.Submit(4, "too late"); !errors.Is(err, ErrStaleFeedback) {
		t.Errorf("late Submit = %v, want ErrStaleFeedback", err)
	}
}

func TestGateStaleSubmissions(t *testing.T) {
	g := NewGate(uuid.New(), 7)

	// Nothing open yet.
	if err := g.Submit(4, "x"); !errors.Is(err, ErrStaleFeedback) {
		t.Errorf("Submit with no open request = %v, want ErrStaleFeedback", err)
	}

	req, err := g.Open(4, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	// Wrong phase.
	if err := g.Submit(5, "x"); !errors.Is(err, ErrStaleFeedback) {
		t.Errorf("Submit wrong phase = %v, want ErrStaleFeedback", err)
	}

	// First submission wins, second is stale.
	if err := g.Submit(4, "first"); err != nil {
		t.Fatalf("Submit = %v", err)
	}
	if err := g.Submit(4, "second"); !errors.Is(err, ErrStaleFeedback) {
		t.Errorf("double Submit = %v, want ErrStaleFeedback", err)
	}

	res := g.Wait(context.Background(), req)
	if res.Payload != "first" {
		t.Errorf("Payload = %q, want first submission", res.Payload)
	}
}

func TestGateUnknownPhase(t *testing.T) {
	g := NewGate(uuid.New(), 7)
	if _, err := g.Open(0, time.Second); !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("Open(0) = %v, want ErrUnknownPhase", err)
	}
	if _, err := g.Open(8, time.Second); !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("Open(8) = %v, want ErrUnknownPhase", err)
	}
	if err := g.Submit(8, "x"); !errors.Is(err, ErrUnknownPhase) {
		t.Errorf("Submit(8) = %v, want ErrUnknownPhase", err)
	}
}

func TestGateSingleOpenRequest(t *testing.T) {
	g := NewGate(uuid.New(), 7)
	req, err := g.Open(4, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Open(5, time.Second); !errors.Is(err, ErrFeedbackAlreadyOpen) {
		t.Errorf("second Open = %v, want ErrFeedbackAlreadyOpen", err)
	}

	g.Release()
	g.Wait(context.Background(), req)

	// After the first resolves, a new gate may open.
	if _, err := g.Open(5, time.Second); err != nil {
		t.Errorf("Open after release = %v", err)
	}
}

func TestGateContextCancellation(t *testing.T) {
	g := NewGate(uuid.New(), 7)
	req, err := g.Open(4, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := g.Wait(ctx, req)
	if res.Outcome != ResolutionSkipped {
		t.Errorf("Outcome = %s, want skipped on cancellation", res.Outcome)
	}
}

// Submissions racing the timeout must produce exactly one winner, and stale
// losers must never surface as applied feedback.
func TestGateSubmitTimeoutRace(t *testing.T) {
	for i := 0; i < 50; i++ {
		g := NewGate(uuid.New(), 7)
		timeout := time.Duration(rand.Intn(3)) * time.Millisecond
		req, err := g.Open(4, timeout)
		if err != nil {
			t.Fatal(err)
		}

		var wg sync.WaitGroup
		applied := 0
		var mu sync.Mutex
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := g.Submit(4, "race"); err == nil {
					mu.Lock()
					applied++
					mu.Unlock()
				}
			}()
		}

		res := g.Wait(context.Background(), req)
		wg.Wait()

		mu.Lock()
		wins := applied
		mu.Unlock()

		if wins > 1 {
			t.Fatalf("iteration %d: %d submissions accepted, want at most 1", i, wins)
		}
		if wins == 1 && res.Outcome != ResolutionSubmitted {
			t.Fatalf("iteration %d: submission accepted but outcome = %s", i, res.Outcome)
		}
		if wins == 0 && res.Outcome == ResolutionSubmitted {
			t.Fatalf("iteration %d: outcome submitted but no submission accepted", i)
		}
	}
}
