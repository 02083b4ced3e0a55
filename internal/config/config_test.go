package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, []int{4, 5, 7}, cfg.Pipeline.HITLPhases)
	assert.Equal(t, []int{5, 6, 7}, cfg.Pipeline.CriticalPhases)
	assert.Equal(t, 300, cfg.Pipeline.FeedbackTimeout)
	assert.Equal(t, 3, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, 0.5, cfg.Pipeline.QualityMin)
	assert.Equal(t, "PIPELINE_EVENTS", cfg.Keys.EventsTopic)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HITL_PHASES", "2, 3")
	t.Setenv("FEEDBACK_TIMEOUT_SECONDS", "60")
	t.Setenv("QUALITY_THRESHOLD", "0.75")

	cfg := Load()

	assert.Equal(t, []int{2, 3}, cfg.Pipeline.HITLPhases)
	assert.Equal(t, 60, cfg.Pipeline.FeedbackTimeout)
	assert.Equal(t, 0.75, cfg.Pipeline.QualityMin)
}

func TestGetEnvAsIntSliceMalformed(t *testing.T) {
	t.Setenv("HITL_PHASES", "4,five,7")

	cfg := Load()

	// Malformed lists fall back wholesale rather than applying half a config.
	assert.Equal(t, []int{4, 5, 7}, cfg.Pipeline.HITLPhases)
}

func TestGetEnvAsFloatMalformed(t *testing.T) {
	t.Setenv("QUALITY_THRESHOLD", "very high")

	cfg := Load()
	assert.Equal(t, 0.5, cfg.Pipeline.QualityMin)
}
