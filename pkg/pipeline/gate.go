package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ResolutionOutcome is the authoritative feedback verdict for one phase.
type ResolutionOutcome string

const (
	ResolutionPending   ResolutionOutcome = "pending"
	ResolutionSubmitted ResolutionOutcome = "submitted"
	ResolutionSkipped   ResolutionOutcome = "skipped"
	ResolutionTimedOut  ResolutionOutcome = "timed_out"
)

// Resolution is what the orchestrator receives once a gate settles.
type Resolution struct {
	Outcome ResolutionOutcome
	Payload string
}

// FeedbackRequest is the ephemeral record of one bounded feedback wait.
// It resolves exactly once: submission, skip, timeout and cancellation race,
// the first wins and the rest become no-ops.
type FeedbackRequest struct {
	SessionID uuid.UUID
	Phase     int
	OpenedAt  time.Time
	TimeoutAt time.Time

	mu      sync.Mutex
	outcome ResolutionOutcome
	payload string
	done    chan struct{}
	timer   *time.Timer
}

// resolve settles the request once. Returns false if it was already settled.
func (r *FeedbackRequest) resolve(outcome ResolutionOutcome, payload string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcome != ResolutionPending {
		return false
	}
	r.outcome = outcome
	r.payload = payload
	if r.timer != nil {
		r.timer.Stop()
	}
	close(r.done)
	return true
}

func (r *FeedbackRequest) resolution() Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Resolution{Outcome: r.outcome, Payload: r.payload}
}

// Gate arbitrates the feedback outcome for the phase currently awaiting
// input. At most one request is open per session at any time; a submission
// for a mismatched or already-resolved phase fails with ErrStaleFeedback so
// late feedback can never be applied after the orchestrator moved on.
type Gate struct {
	sessionID  uuid.UUID
	phaseCount int

	mu   sync.Mutex
	open *FeedbackRequest
}

func NewGate(sessionID uuid.UUID, phaseCount int) *Gate {
	return &Gate{sessionID: sessionID, phaseCount: phaseCount}
}

// Open creates the ephemeral request and starts its deadline timer.
func (g *Gate) Open(phase int, timeout time.Duration) (*FeedbackRequest, error) {
	if phase < 1 || phase > g.phaseCount {
		return nil, ErrUnknownPhase
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open != nil {
		return nil, ErrFeedbackAlreadyOpen
	}

	now := time.Now()
	req := &FeedbackRequest{
		SessionID: g.sessionID,
		Phase:     phase,
		OpenedAt:  now,
		TimeoutAt: now.Add(timeout),
		outcome:   ResolutionPending,
		done:      make(chan struct{}),
	}
	req.timer = time.AfterFunc(timeout, func() {
		req.resolve(ResolutionTimedOut, "")
	})
	g.open = req
	return req, nil
}

// Submit applies feedback to the currently open request.
func (g *Gate) Submit(phase int, payload string) error {
	return g.settle(phase, ResolutionSubmitted, payload)
}

// Skip resolves the open request immediately without feedback.
func (g *Gate) Skip(phase int) error {
	return g.settle(phase, ResolutionSkipped, "")
}

func (g *Gate) settle(phase int, outcome ResolutionOutcome, payload string) error {
	if phase < 1 || phase > g.phaseCount {
		return ErrUnknownPhase
	}

	g.mu.Lock()
	req := g.open
	g.mu.Unlock()

	if req == nil || req.Phase != phase {
		return ErrStaleFeedback
	}
	if !req.resolve(outcome, payload) {
		return ErrStaleFeedback
	}
	return nil
}

// Release resolves any open request as skipped. Used on cancellation.
func (g *Gate) Release() {
	g.mu.Lock()
	req := g.open
	g.mu.Unlock()
	if req != nil {
		req.resolve(ResolutionSkipped, "")
	}
}

// Wait parks the calling goroutine until the request resolves: explicit
// submit, explicit skip, deadline, or context cancellation (treated as skip).
// The request is closed out of the gate before returning, so any feedback
// arriving afterwards is stale by construction.
func (g *Gate) Wait(ctx context.Context, req *FeedbackRequest) Resolution {
	select {
	case <-req.done:
	case <-ctx.Done():
		req.resolve(ResolutionSkipped, "")
		<-req.done
	}

	g.mu.Lock()
	if g.open == req {
		g.open = nil
	}
	g.mu.Unlock()

	return req.resolution()
}
