package pipeline

import "time"

const (
	// DefaultMaxAttempts bounds executor retries per phase.
	DefaultMaxAttempts = 3

	// DefaultFeedbackTimeout bounds the HITL wait when no value is configured.
	DefaultFeedbackTimeout = 300 * time.Second

	// DefaultQualityThreshold is the score below which a phase result is
	// treated as a retryable failure.
	DefaultQualityThreshold = 0.5
)

// Config carries the externally supplied pipeline tunables. The HITL phase
// set, critical phase set and feedback timeout are deployment inputs, never
// constants.
type Config struct {
	PhaseCount       int
	HITLPhases       map[int]bool
	CriticalPhases   map[int]bool
	FeedbackTimeout  time.Duration
	MaxAttempts      int
	QualityThreshold float64
}

// withDefaults fills unset fields so a zero-value Config is still runnable.
func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.FeedbackTimeout <= 0 {
		c.FeedbackTimeout = DefaultFeedbackTimeout
	}
	if c.QualityThreshold <= 0 {
		c.QualityThreshold = DefaultQualityThreshold
	}
	if c.HITLPhases == nil {
		c.HITLPhases = map[int]bool{}
	}
	if c.CriticalPhases == nil {
		c.CriticalPhases = map[int]bool{}
	}
	return c
}

// PhaseSet builds a membership map from a list of phase numbers.
func PhaseSet(phases []int) map[int]bool {
	set := make(map[int]bool, len(phases))
	for _, p := range phases {
		set[p] = true
	}
	return set
}
