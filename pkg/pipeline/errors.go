package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleFeedback is returned when feedback arrives for a gate that has
	// already resolved or was never opened. Recovered by the caller as an
	// informational conflict, never a failure.
	ErrStaleFeedback = errors.New("feedback gate already resolved")

	// ErrUnknownPhase is returned for a phase number outside the pipeline.
	ErrUnknownPhase = errors.New("unknown phase number")

	// ErrSessionNotActive is returned when a control call targets a session
	// with no running orchestration.
	ErrSessionNotActive = errors.New("session is not active")

	// ErrFeedbackAlreadyOpen guards the one-open-gate-per-session invariant.
	ErrFeedbackAlreadyOpen = errors.New("a feedback request is already open for this session")
)

// InvalidInputError marks an executor failure that retrying cannot fix;
// the retry policy fails immediately without consuming the attempt budget.
type InvalidInputError struct {
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return e.Err }

// IllegalTransitionError signals a phase state move outside the legal set.
// Always a bug or race, never expected in correct operation.
type IllegalTransitionError struct {
	Phase int
	From  PhaseStatus
	To    PhaseStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal phase transition: phase %d %s -> %s", e.Phase, e.From, e.To)
}

// ExecutionError wraps a phase executor failure after retry handling.
type ExecutionError struct {
	Phase     int
	Attempts  int
	Retryable bool
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("phase %d failed after %d attempt(s): %v", e.Phase, e.Attempts, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// CriticalPhaseFailure is the terminal, user-visible error raised when a
// critical phase exhausts its retries and fails the whole session.
type CriticalPhaseFailure struct {
	Phase int
	Err   error
}

func (e *CriticalPhaseFailure) Error() string {
	return fmt.Sprintf("critical phase %d failed permanently: %v", e.Phase, e.Err)
}

func (e *CriticalPhaseFailure) Unwrap() error { return e.Err }
