package pipeline

import "context"

// RetryConfig tunes one wrapped executor invocation.
type RetryConfig struct {
	MaxAttempts      int
	QualityThreshold float64
	// IsRetryable classifies executor errors. Nil means every error is
	// retryable.
	IsRetryable func(error) bool
}

// RetryPolicy wraps a phase executor with bounded, immediate retries.
// Exponential backoff is deliberately absent: phase execution retries
// immediately, backoff belongs to UI-side feedback timers.
type RetryPolicy struct {
	cfg RetryConfig
}

func NewRetryPolicy(cfg RetryConfig) RetryPolicy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = DefaultQualityThreshold
	}
	return RetryPolicy{cfg: cfg}
}

// Execute invokes the executor until it produces an acceptable result or the
// attempt budget is spent. It returns the attempts consumed alongside the
// result.
//
// A successful result scoring below the quality threshold consumes an attempt
// like a failure; once attempts are exhausted the best low-quality result is
// accepted with the Degraded flag set, so quality never blocks the pipeline
// indefinitely. Non-retryable errors fail immediately without consuming the
// remaining budget.
func (p RetryPolicy) Execute(ctx context.Context, exec Executor, pctx *Context) (Result, int, error) {
	var (
		best    *Result
		lastErr error
	)

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		res, err := exec.Execute(ctx, pctx)
		if err != nil {
			lastErr = err
			if p.cfg.IsRetryable != nil && !p.cfg.IsRetryable(err) {
				return Result{}, attempt, &ExecutionError{
					Phase:     pctx.CurrentPhase,
					Attempts:  attempt,
					Retryable: false,
					Err:       err,
				}
			}
			continue
		}

		if res.Quality < p.cfg.QualityThreshold {
			if best == nil || res.Quality > best.Quality {
				kept := res
				best = &kept
			}
			continue
		}

		return res, attempt, nil
	}

	if best != nil {
		best.Degraded = true
		return *best, p.cfg.MaxAttempts, nil
	}

	return Result{}, p.cfg.MaxAttempts, &ExecutionError{
		Phase:     pctx.CurrentPhase,
		Attempts:  p.cfg.MaxAttempts,
		Retryable: true,
		Err:       lastErr,
	}
}
