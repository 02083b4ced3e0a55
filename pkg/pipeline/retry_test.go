package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// scriptedExecutor returns predefined outcomes per call.
type scriptedExecutor struct {
	name  string
	calls int
	run   func(call int, pctx *Context) (Result, error)
}

func (e *scriptedExecutor) Name() string { return e.name }

func (e *scriptedExecutor) Execute(ctx context.Context, pctx *Context) (Result, error) {
	e.calls++
	return e.run(e.calls, pctx)
}

func okResult(quality float64) Result {
	return Result{Phase: 1, Payload: PlaceholderPayload{Phase: 1}, Quality: quality}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{MaxAttempts: 3, QualityThreshold: 0.5})
	exec := &scriptedExecutor{run: func(call int, _ *Context) (Result, error) {
		return okResult(0.9), nil
	}}

	res, attempts, err := p.Execute(context.Background(), exec, &Context{CurrentPhase: 1})
	if err != nil {
		t.Fatalf("Execute = %v", err)
	}
	if attempts != 1 || exec.calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1", attempts, exec.calls)
	}
	if res.Degraded {
		t.Error("result unexpectedly degraded")
	}
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{MaxAttempts: 3, QualityThreshold: 0.5})
	exec := &scriptedExecutor{run: func(call int, _ *Context) (Result, error) {
		if call < 3 {
			return Result{}, fmt.Errorf("transient failure %d", call)
		}
		return okResult(0.8), nil
	}}

	res, attempts, err := p.Execute(context.Background(), exec, &Context{CurrentPhase: 1})
	if err != nil {
		t.Fatalf("Execute = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if res.Quality != 0.8 {
		t.Errorf("Quality = %v", res.Quality)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{MaxAttempts: 3, QualityThreshold: 0.5})
	exec := &scriptedExecutor{run: func(call int, _ *Context) (Result, error) {
		return Result{}, fmt.Errorf("permanent failure")
	}}

	_, attempts, err := p.Execute(context.Background(), exec, &Context{CurrentPhase: 2})

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want ExecutionError", err)
	}
	if execErr.Phase != 2 || execErr.Attempts != 3 || !execErr.Retryable {
		t.Errorf("error detail = %+v", execErr)
	}
	if attempts != 3 || exec.calls != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3", attempts, exec.calls)
	}
}

func TestRetryNonRetryableFailsImmediately(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{
		MaxAttempts:      3,
		QualityThreshold: 0.5,
		IsRetryable: func(err error) bool {
			var inv *InvalidInputError
			return !errors.As(err, &inv)
		},
	})
	exec := &scriptedExecutor{run: func(call int, _ *Context) (Result, error) {
		return Result{}, &InvalidInputError{Reason: "empty story premise"}
	}}

	_, attempts, err := p.Execute(context.Background(), exec, &Context{CurrentPhase: 1})

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want ExecutionError", err)
	}
	if execErr.Retryable {
		t.Error("error marked retryable, want non-retryable")
	}
	if attempts != 1 || exec.calls != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1", attempts, exec.calls)
	}
}

func TestRetryLowQualityConsumesAttempts(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{MaxAttempts: 3, QualityThreshold: 0.5})
	exec := &scriptedExecutor{run: func(call int, _ *Context) (Result, error) {
		if call == 3 {
			return okResult(0.7), nil
		}
		return okResult(0.2), nil
	}}

	res, attempts, err := p.Execute(context.Background(), exec, &Context{CurrentPhase: 1})
	if err != nil {
		t.Fatalf("Execute = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if res.Quality != 0.7 || res.Degraded {
		t.Errorf("res = %+v, want quality 0.7 non-degraded", res)
	}
}

func TestRetryKeepsBestLowQualityResult(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{MaxAttempts: 3, QualityThreshold: 0.5})
	qualities := []float64{0.1, 0.4, 0.3}
	exec := &scriptedExecutor{run: func(call int, _ *Context) (Result, error) {
		return okResult(qualities[call-1]), nil
	}}

	res, attempts, err := p.Execute(context.Background(), exec, &Context{CurrentPhase: 1})
	if err != nil {
		t.Fatalf("Execute = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if !res.Degraded {
		t.Error("accepted low-quality result must be degraded")
	}
	if res.Quality != 0.4 {
		t.Errorf("Quality = %v, want best attempt 0.4", res.Quality)
	}
}
