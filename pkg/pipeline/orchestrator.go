package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ai-mangagen-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// Orchestrator drives one session through the fixed phase sequence. Phases of
// a single session run strictly serially; sessions run concurrently, one
// orchestration goroutine each. All Session mutations go through the
// orchestrator's lock since feedback submissions, timers and the phase loop
// arrive from different goroutines.
type Orchestrator struct {
	cfg       Config
	executors map[int]Executor
	fsm       *StateMachine
	gate      *Gate
	retry     RetryPolicy
	store     Store
	publisher Publisher
	log       logger.ILogger

	mu      sync.Mutex
	session *Session

	cancelRequested atomic.Bool
}

func NewOrchestrator(
	session *Session,
	executors map[int]Executor,
	cfg Config,
	store Store,
	publisher Publisher,
	log logger.ILogger,
) *Orchestrator {
	cfg = cfg.withDefaults()
	if cfg.PhaseCount == 0 {
		cfg.PhaseCount = len(executors)
	}
	return &Orchestrator{
		cfg:       cfg,
		executors: executors,
		fsm:       NewStateMachine(session.ID, publisher),
		gate:      NewGate(session.ID, cfg.PhaseCount),
		retry: NewRetryPolicy(RetryConfig{
			MaxAttempts:      cfg.MaxAttempts,
			QualityThreshold: cfg.QualityThreshold,
			IsRetryable:      retryableExecution,
		}),
		store:     store,
		publisher: publisher,
		log:       log,
		session:   session,
	}
}

// retryableExecution classifies executor errors for the retry policy.
// Invalid-input class errors fail immediately without consuming budget.
func retryableExecution(err error) bool {
	var inv *InvalidInputError
	return !errors.As(err, &inv)
}

// Run executes the phase sequence to a terminal session state. It returns an
// error only for unrecoverable failures (critical phase exhaustion, illegal
// transitions); cancellation and degraded completion return nil.
func (o *Orchestrator) Run(ctx context.Context, refs []Reference) error {
	o.mu.Lock()
	if o.session.Status != SessionQueued {
		o.mu.Unlock()
		return fmt.Errorf("session %s: %w", o.session.ID, ErrSessionNotActive)
	}
	o.session.Status = SessionRunning
	pctx := NewContext(o.session, refs)
	o.mu.Unlock()

	pctx.progress = o.publishProgress

	for phase := 1; phase <= o.cfg.PhaseCount; phase++ {
		if o.cancelRequested.Load() {
			o.finishCancelled(ctx)
			return nil
		}

		if err := o.runPhase(ctx, phase, pctx); err != nil {
			return err
		}
		if done := o.checkTerminal(ctx); done {
			return nil
		}
	}

	if o.cancelRequested.Load() {
		o.finishCancelled(ctx)
		return nil
	}

	o.finishCompleted(ctx)
	return nil
}

// runPhase executes a single phase: generation with retries, the optional
// feedback gate, and finalization. A non-critical permanent failure degrades
// and returns nil so the loop continues.
func (o *Orchestrator) runPhase(ctx context.Context, phase int, pctx *Context) error {
	executor, ok := o.executors[phase]
	if !ok {
		return fmt.Errorf("phase %d: %w", phase, ErrUnknownPhase)
	}

	if err := o.fsm.Transition(phase, PhaseProcessing); err != nil {
		o.log.Error("Orchestrator", "Illegal transition entering phase", map[string]interface{}{
			"session_id": o.session.ID, "phase": phase, "error": err.Error(),
		})
		return err
	}

	o.mu.Lock()
	o.session.CurrentPhase = phase
	o.mu.Unlock()
	pctx.CurrentPhase = phase

	res, attempts, err := o.retry.Execute(ctx, executor, pctx)

	if o.cancelRequested.Load() {
		// In-flight executor output is discarded once cancellation landed.
		return nil
	}

	if err != nil {
		return o.handlePhaseFailure(ctx, phase, attempts, pctx, err)
	}

	if o.cfg.HITLPhases[phase] {
		res = o.awaitFeedback(ctx, phase, executor, pctx, res)
		if o.cancelRequested.Load() {
			return nil
		}
	}

	if res.Degraded {
		o.markDegraded(phase)
	}

	if err := o.fsm.Complete(phase, res, attempts); err != nil {
		o.log.Error("Orchestrator", "Illegal transition completing phase", map[string]interface{}{
			"session_id": o.session.ID, "phase": phase, "error": err.Error(),
		})
		return err
	}

	pctx.SetResult(phase, res)
	o.persist(ctx)
	return nil
}

func (o *Orchestrator) handlePhaseFailure(ctx context.Context, phase, attempts int, pctx *Context, cause error) error {
	if ferr := o.fsm.Fail(phase, attempts, cause); ferr != nil {
		return ferr
	}

	if o.cfg.CriticalPhases[phase] {
		reason := fmt.Sprintf("phase %d: %v", phase, cause)
		o.mu.Lock()
		o.session.Status = SessionFailed
		o.session.FailureReason = reason
		now := time.Now()
		o.session.CompletedAt = &now
		o.mu.Unlock()

		o.publishSession(EventSessionFailed, map[string]interface{}{
			"phase":  phase,
			"reason": reason,
		})
		o.persist(ctx)

		o.log.Error("Orchestrator", "Critical phase failed, session halted", map[string]interface{}{
			"session_id": o.session.ID, "phase": phase, "error": cause.Error(),
		})
		return &CriticalPhaseFailure{Phase: phase, Err: cause}
	}

	// Non-critical: degrade and carry a placeholder artifact forward.
	o.markDegraded(phase)
	pctx.SetResult(phase, PlaceholderResult(phase, cause.Error()))
	o.persist(ctx)

	o.log.Warn("Orchestrator", "Non-critical phase degraded, continuing", map[string]interface{}{
		"session_id": o.session.ID, "phase": phase, "error": cause.Error(),
	})
	return nil
}

// awaitFeedback opens the gate, parks until it resolves, and applies
// submitted feedback with exactly one executor re-invocation.
func (o *Orchestrator) awaitFeedback(ctx context.Context, phase int, executor Executor, pctx *Context, res Result) Result {
	req, err := o.gate.Open(phase, o.cfg.FeedbackTimeout)
	if err != nil {
		o.log.Error("Orchestrator", "Failed to open feedback gate", map[string]interface{}{
			"session_id": o.session.ID, "phase": phase, "error": err.Error(),
		})
		return res
	}

	if err := o.fsm.Transition(phase, PhaseWaitingFeedback); err != nil {
		o.gate.Release()
		o.gate.Wait(ctx, req)
		return res
	}

	o.setStatus(SessionAwaitingFeedback)
	resolution := o.gate.Wait(ctx, req)
	o.setStatus(SessionRunning)

	switch resolution.Outcome {
	case ResolutionSubmitted:
		pctx.Feedback = resolution.Payload
		revised, rerr := executor.Execute(ctx, pctx)
		pctx.Feedback = ""
		if rerr != nil {
			// Keep the pre-feedback artifact rather than halting.
			o.log.Warn("Orchestrator", "Feedback re-invocation failed, keeping original result", map[string]interface{}{
				"session_id": o.session.ID, "phase": phase, "error": rerr.Error(),
			})
			return res
		}
		o.publishPhase(EventFeedbackApplied, phase, map[string]interface{}{
			"feedback": resolution.Payload,
		})
		return revised

	case ResolutionTimedOut:
		o.publishPhase(EventFeedbackTimeout, phase, nil)
		return res

	default: // skipped
		return res
	}
}

// Cancel requests cooperative cancellation. Safe to call repeatedly; later
// calls on an already-cancelled or terminal session are no-ops. In-flight
// executor calls run to completion but their results are discarded.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	terminal := o.session.Status.IsTerminal()
	o.mu.Unlock()
	if terminal {
		return
	}
	if !o.cancelRequested.CompareAndSwap(false, true) {
		return
	}
	o.gate.Release()
}

// SubmitFeedback routes feedback to the gate; ErrStaleFeedback when the
// target phase is no longer awaiting input.
func (o *Orchestrator) SubmitFeedback(phase int, payload string) error {
	return o.gate.Submit(phase, payload)
}

// SkipFeedback resolves the open gate without feedback.
func (o *Orchestrator) SkipFeedback(phase int) error {
	return o.gate.Skip(phase)
}

// Snapshot is the authoritative pull-based view of the session.
func (o *Orchestrator) Snapshot() *Snapshot {
	o.mu.Lock()
	snap := o.snapshotSessionLocked()
	o.mu.Unlock()
	return BuildSnapshot(&snap, o.fsm.Records())
}

// SessionID identifies the owned session.
func (o *Orchestrator) SessionID() uuid.UUID {
	return o.session.ID
}

// OwnerRef identifies the session owner.
func (o *Orchestrator) OwnerRef() uuid.UUID {
	return o.session.OwnerRef
}

func (o *Orchestrator) setStatus(status SessionStatus) {
	o.mu.Lock()
	if !o.session.Status.IsTerminal() {
		o.session.Status = status
	}
	o.mu.Unlock()
}

func (o *Orchestrator) markDegraded(phase int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.session.DegradedPhases {
		if p == phase {
			return
		}
	}
	o.session.DegradedPhases = append(o.session.DegradedPhases, phase)
}

// checkTerminal lets the loop stop early if cancellation landed between
// phase boundaries.
func (o *Orchestrator) checkTerminal(ctx context.Context) bool {
	o.mu.Lock()
	terminal := o.session.Status.IsTerminal()
	o.mu.Unlock()
	if terminal {
		return true
	}
	if o.cancelRequested.Load() {
		o.finishCancelled(ctx)
		return true
	}
	return false
}

func (o *Orchestrator) finishCompleted(ctx context.Context) {
	o.mu.Lock()
	o.session.Status = SessionCompleted
	o.session.CurrentPhase = 0
	now := time.Now()
	o.session.CompletedAt = &now
	degraded := append([]int(nil), o.session.DegradedPhases...)
	o.mu.Unlock()

	o.publishSession(EventSessionComplete, map[string]interface{}{
		"degraded_phases": degraded,
	})
	o.persist(ctx)

	o.log.Info("Orchestrator", "Session completed", map[string]interface{}{
		"session_id": o.session.ID, "degraded_phases": degraded,
	})
}

func (o *Orchestrator) finishCancelled(ctx context.Context) {
	o.mu.Lock()
	if o.session.Status.IsTerminal() {
		o.mu.Unlock()
		return
	}
	o.session.Status = SessionCancelled
	now := time.Now()
	o.session.CompletedAt = &now
	o.mu.Unlock()

	o.publishSession(EventSessionCancelled, nil)
	o.persist(ctx)

	o.log.Info("Orchestrator", "Session cancelled", map[string]interface{}{
		"session_id": o.session.ID,
	})
}

// snapshotSessionLocked copies the session for readers outside the lock.
func (o *Orchestrator) snapshotSessionLocked() Session {
	snap := *o.session
	snap.DegradedPhases = append([]int(nil), o.session.DegradedPhases...)
	return snap
}

// persist saves the session and phase records at a phase boundary. Failures
// are retried once and then tolerated: the in-memory state machine remains
// the source of truth and persistence must never block phase progression.
func (o *Orchestrator) persist(ctx context.Context) {
	if o.store == nil {
		return
	}
	o.mu.Lock()
	snap := o.snapshotSessionLocked()
	o.mu.Unlock()
	records := o.fsm.Records()

	err := o.store.SaveSession(ctx, &snap, records)
	if err != nil {
		err = o.store.SaveSession(ctx, &snap, records)
	}
	if err != nil {
		o.log.Error("Orchestrator", "Failed to persist session state", map[string]interface{}{
			"session_id": o.session.ID, "error": err.Error(),
		})
	}
}

func (o *Orchestrator) publishPhase(kind EventKind, phase int, payload map[string]interface{}) {
	if o.publisher == nil {
		return
	}
	o.publisher.Publish(Event{
		Kind:      kind,
		SessionID: o.session.ID,
		Phase:     phase,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

func (o *Orchestrator) publishSession(kind EventKind, payload map[string]interface{}) {
	if o.publisher == nil {
		return
	}
	o.publisher.Publish(Event{
		Kind:      kind,
		SessionID: o.session.ID,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

func (o *Orchestrator) publishProgress(phase int, message string) {
	o.publishPhase(EventPhaseProgress, phase, map[string]interface{}{
		"message": message,
	})
}
