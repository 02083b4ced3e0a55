package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// legalTransitions is the full set of allowed phase status moves. Everything
// else is an IllegalTransitionError.
var legalTransitions = map[PhaseStatus][]PhaseStatus{
	PhasePending:         {PhaseProcessing},
	PhaseProcessing:      {PhaseWaitingFeedback, PhaseCompleted, PhaseError},
	PhaseWaitingFeedback: {PhaseCompleted},
	PhaseError:           {PhaseProcessing},
}

// StateMachine owns the per-phase records of one session and validates every
// status move. The matching ProgressEvent is published after the state lock
// is released, under a separate emission lock: events still leave in mutation
// order, and a subscriber is free to read the machine back synchronously.
type StateMachine struct {
	mu        sync.Mutex
	emitMu    sync.Mutex
	sessionID uuid.UUID
	records   map[int]*PhaseRecord
	publisher Publisher
}

func NewStateMachine(sessionID uuid.UUID, publisher Publisher) *StateMachine {
	return &StateMachine{
		sessionID: sessionID,
		records:   make(map[int]*PhaseRecord),
		publisher: publisher,
	}
}

// record returns the phase record, creating it lazily as pending.
func (m *StateMachine) record(phase int) *PhaseRecord {
	r, ok := m.records[phase]
	if !ok {
		r = &PhaseRecord{PhaseNumber: phase, Status: PhasePending}
		m.records[phase] = r
	}
	return r
}

func transitionAllowed(from, to PhaseStatus) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition moves a phase to the target status and publishes the
// corresponding event.
func (m *StateMachine) Transition(phase int, target PhaseStatus) error {
	m.mu.Lock()
	evt, err := m.transitionLocked(phase, target, nil)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.emitAndUnlock(evt)
	return nil
}

// transitionLocked mutates the record and hands back the event to publish
// once the state lock drops. A nil event means nothing to emit.
func (m *StateMachine) transitionLocked(phase int, target PhaseStatus, payload map[string]interface{}) (*Event, error) {
	r := m.record(phase)
	if !transitionAllowed(r.Status, target) {
		return nil, &IllegalTransitionError{Phase: phase, From: r.Status, To: target}
	}

	now := time.Now()
	r.Status = target
	switch target {
	case PhaseProcessing:
		r.StartedAt = &now
	case PhaseCompleted, PhaseError:
		r.CompletedAt = &now
	}

	kind := eventKindFor(target)
	if m.publisher == nil || kind == "" {
		return nil, nil
	}
	return &Event{
		Kind:      kind,
		SessionID: m.sessionID,
		Phase:     phase,
		Payload:   payload,
		Timestamp: now,
	}, nil
}

// emitAndUnlock publishes evt with the state lock released. The emission lock
// is acquired before the state lock drops, so concurrent transitions cannot
// reorder their events, while a subscriber that calls back into Status or
// Records never contends with the publish itself.
func (m *StateMachine) emitAndUnlock(evt *Event) {
	if evt == nil {
		m.mu.Unlock()
		return
	}
	m.emitMu.Lock()
	m.mu.Unlock()
	m.publisher.Publish(*evt)
	m.emitMu.Unlock()
}

// Complete finalizes a phase with its artifact. Recording a result is only
// legal as part of the move into completed.
func (m *StateMachine) Complete(phase int, res Result, attempts int) error {
	m.mu.Lock()

	r := m.record(phase)
	payload := map[string]interface{}{
		"quality":  res.Quality,
		"degraded": res.Degraded,
	}
	if res.Payload != nil {
		payload["payload_kind"] = res.Payload.Kind()
	}
	evt, err := m.transitionLocked(phase, PhaseCompleted, payload)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	r.Result = &res
	r.Attempt = attempts
	m.emitAndUnlock(evt)
	return nil
}

// Fail moves a phase to error with the failure detail attached.
func (m *StateMachine) Fail(phase int, attempts int, cause error) error {
	m.mu.Lock()

	r := m.record(phase)
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	payload := map[string]interface{}{
		"attempts": attempts,
		"error":    detail,
	}
	evt, err := m.transitionLocked(phase, PhaseError, payload)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	r.Attempt = attempts
	r.ErrorDetail = detail
	m.emitAndUnlock(evt)
	return nil
}

// Status is a pure read of the phase status.
func (m *StateMachine) Status(phase int) PhaseStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[phase]; ok {
		return r.Status
	}
	return PhasePending
}

// Records returns a copy of every phase record created so far, ordered by
// phase number.
func (m *StateMachine) Records() []PhaseRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	phases := make([]int, 0, len(m.records))
	for phase := range m.records {
		phases = append(phases, phase)
	}
	sort.Ints(phases)

	out := make([]PhaseRecord, 0, len(phases))
	for _, phase := range phases {
		out = append(out, *m.records[phase])
	}
	return out
}

func eventKindFor(target PhaseStatus) EventKind {
	switch target {
	case PhaseProcessing:
		return EventPhaseStart
	case PhaseWaitingFeedback:
		return EventFeedbackWait
	case PhaseCompleted:
		return EventPhaseComplete
	case PhaseError:
		return EventPhaseError
	}
	return ""
}
