package pipeline

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the session-level lifecycle state.
type SessionStatus string

const (
	SessionQueued           SessionStatus = "queued"
	SessionRunning          SessionStatus = "running"
	SessionAwaitingFeedback SessionStatus = "awaiting_feedback"
	SessionCompleted        SessionStatus = "completed"
	SessionFailed           SessionStatus = "failed"
	SessionCancelled        SessionStatus = "cancelled"
)

// IsTerminal reports whether the status is immutable once set.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionFailed || s == SessionCancelled
}

// PhaseStatus is the per-phase lifecycle state.
type PhaseStatus string

const (
	PhasePending         PhaseStatus = "pending"
	PhaseProcessing      PhaseStatus = "processing"
	PhaseWaitingFeedback PhaseStatus = "waiting_feedback"
	PhaseCompleted       PhaseStatus = "completed"
	PhaseError           PhaseStatus = "error"
)

// Session represents one end-to-end generation request. It is mutated
// exclusively by its owning Orchestrator.
type Session struct {
	ID             uuid.UUID
	OwnerRef       uuid.UUID
	OwnerEmail     string
	InputText      string
	Status         SessionStatus
	CurrentPhase   int // 1-based, 0 = none
	DegradedPhases []int
	FailureReason  string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// NewSession builds a queued session for the given owner and input.
func NewSession(ownerRef uuid.UUID, ownerEmail, inputText string) *Session {
	return &Session{
		ID:         uuid.New(),
		OwnerRef:   ownerRef,
		OwnerEmail: ownerEmail,
		InputText:  inputText,
		Status:     SessionQueued,
		CreatedAt:  time.Now(),
	}
}

// PhaseRecord tracks one (session, phase) pair. Owned by the StateMachine.
type PhaseRecord struct {
	PhaseNumber int
	Status      PhaseStatus
	Attempt     int
	StartedAt   *time.Time
	CompletedAt *time.Time
	Result      *Result
	ErrorDetail string
}

// Payload is the phase-specific artifact shape. Each executor owns its
// concrete payload type; the orchestrator only sees the envelope.
type Payload interface {
	Kind() string
}

// Result is the common envelope every phase produces.
type Result struct {
	Phase    int
	Payload  Payload
	Quality  float64
	Degraded bool
}

// PlaceholderPayload stands in for the artifact of a non-critical phase that
// exhausted its retries; downstream phases receive it instead of real output.
type PlaceholderPayload struct {
	Phase  int    `json:"phase"`
	Reason string `json:"reason"`
}

func (PlaceholderPayload) Kind() string { return "placeholder" }

// PlaceholderResult builds the degraded artifact propagated forward when a
// non-critical phase fails permanently.
func PlaceholderResult(phase int, reason string) Result {
	return Result{
		Phase:    phase,
		Payload:  PlaceholderPayload{Phase: phase, Reason: reason},
		Quality:  0,
		Degraded: true,
	}
}

// RawPayload carries an artifact rehydrated from storage, where the concrete
// payload type is no longer known.
type RawPayload struct {
	KindName string          `json:"kind"`
	Data     json.RawMessage `json:"data"`
}

func (p RawPayload) Kind() string { return p.KindName }

// Reference is a style reference retrieved from a similar past session,
// offered to early phases as grounding material.
type Reference struct {
	SessionID uuid.UUID
	Title     string
	Synopsis  string
}

// Context carries the accumulated pipeline state handed to each executor.
// It is owned by a single orchestration goroutine; executors must treat it
// as read-only apart from the accessors below.
type Context struct {
	SessionID    uuid.UUID
	OwnerRef     uuid.UUID
	InputText    string
	CurrentPhase int

	// Feedback is set only for the single re-invocation that follows a
	// submitted feedback, and cleared immediately after.
	Feedback string

	References []Reference

	results  map[int]Result
	progress func(phase int, message string)
}

// NewContext seeds a context from the session.
func NewContext(s *Session, refs []Reference) *Context {
	return &Context{
		SessionID:  s.ID,
		OwnerRef:   s.OwnerRef,
		InputText:  s.InputText,
		References: refs,
		results:    make(map[int]Result),
	}
}

// Result returns the artifact of an earlier phase, if present.
func (c *Context) Result(phase int) (Result, bool) {
	r, ok := c.results[phase]
	return r, ok
}

// SetResult stores a phase artifact for consumption by later phases.
func (c *Context) SetResult(phase int, r Result) {
	c.results[phase] = r
}

// ReportProgress lets an executor surface intermediate status for the phase
// it is running. Delivery is best-effort.
func (c *Context) ReportProgress(message string) {
	if c.progress != nil {
		c.progress(c.CurrentPhase, message)
	}
}
