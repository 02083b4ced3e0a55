package mapper

import (
	"testing"
	"time"

	"ai-mangagen-be/internal/model"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionMapper()

	now := time.Now()
	session := &pipeline.Session{
		ID:             uuid.New(),
		OwnerRef:       uuid.New(),
		OwnerEmail:     "owner@example.com",
		InputText:      "A courier crosses a flooded Tokyo.",
		Status:         pipeline.SessionCompleted,
		CurrentPhase:   0,
		DegradedPhases: []int{3},
		CreatedAt:      now,
		CompletedAt:    &now,
	}

	back := m.SessionToDomain(m.SessionToModel(session))

	assert.Equal(t, session.ID, back.ID)
	assert.Equal(t, session.OwnerRef, back.OwnerRef)
	assert.Equal(t, session.OwnerEmail, back.OwnerEmail)
	assert.Equal(t, session.Status, back.Status)
	assert.Equal(t, []int{3}, back.DegradedPhases)
	assert.NotNil(t, back.CompletedAt)
}

func TestSessionToModelNil(t *testing.T) {
	m := NewSessionMapper()
	assert.Nil(t, m.SessionToModel(nil))
	assert.Nil(t, m.SessionToDomain(nil))
}

func TestPhaseRecordRoundTrip(t *testing.T) {
	m := NewSessionMapper()
	sessionId := uuid.New()
	now := time.Now()

	rec := pipeline.PhaseRecord{
		PhaseNumber: 4,
		Status:      pipeline.PhaseCompleted,
		Attempt:     2,
		StartedAt:   &now,
		CompletedAt: &now,
		Result: &pipeline.Result{
			Phase:   4,
			Payload: pipeline.PlaceholderPayload{Phase: 4, Reason: "test"},
			Quality: 0.8,
		},
	}

	mdl := m.PhaseRecordToModel(sessionId, rec)
	assert.Equal(t, sessionId, mdl.SessionId)
	assert.Equal(t, "placeholder", mdl.PayloadKind)
	assert.NotEmpty(t, mdl.ResultPayload)

	back := m.PhaseRecordToDomain(mdl)
	assert.Equal(t, rec.PhaseNumber, back.PhaseNumber)
	assert.Equal(t, rec.Status, back.Status)
	assert.Equal(t, rec.Attempt, back.Attempt)
	if assert.NotNil(t, back.Result) {
		assert.Equal(t, 0.8, back.Result.Quality)
		// Payload rehydrates as a raw envelope carrying the original kind.
		assert.Equal(t, "placeholder", back.Result.Payload.Kind())
	}
}

func TestPhaseRecordToDomainWithoutResult(t *testing.T) {
	m := NewSessionMapper()
	back := m.PhaseRecordToDomain(&model.PhaseRecord{
		PhaseNumber: 2,
		Status:      string(pipeline.PhaseError),
		Attempt:     3,
		ErrorDetail: "model offline",
	})
	assert.Nil(t, back.Result)
	assert.Equal(t, "model offline", back.ErrorDetail)
}

func TestSessionSummary(t *testing.T) {
	m := NewSessionMapper()

	title, synopsis := m.SessionSummary(&model.PhaseRecord{
		ResultPayload: datatypes.JSON(`{"title":"Drift","logline":"A pilot opens a noodle stand in orbit.","genre":"slice of life"}`),
	})
	assert.Equal(t, "Drift", title)
	assert.Equal(t, "A pilot opens a noodle stand in orbit.", synopsis)

	title, synopsis = m.SessionSummary(nil)
	assert.Empty(t, title)
	assert.Empty(t, synopsis)

	title, _ = m.SessionSummary(&model.PhaseRecord{ResultPayload: datatypes.JSON(`not json`)})
	assert.Empty(t, title)
}
