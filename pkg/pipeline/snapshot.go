package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// PhaseSnapshot is the client-visible view of one phase record.
type PhaseSnapshot struct {
	Number      int         `json:"number"`
	Status      PhaseStatus `json:"status"`
	Attempt     int         `json:"attempt"`
	Quality     float64     `json:"quality,omitempty"`
	Degraded    bool        `json:"degraded,omitempty"`
	ErrorDetail string      `json:"error_detail,omitempty"`
}

// Snapshot is the authoritative pull-based view of a session. Push delivery
// is a best-effort decorator over this; the snapshot path is always
// available even with no push subscriber connected.
type Snapshot struct {
	SessionID      uuid.UUID       `json:"session_id"`
	Status         SessionStatus   `json:"status"`
	CurrentPhase   int             `json:"current_phase"`
	Phases         []PhaseSnapshot `json:"phases"`
	DegradedPhases []int           `json:"degraded_phases,omitempty"`
	FailureReason  string          `json:"failure_reason,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// BuildSnapshot assembles the pull view from a session and its records.
func BuildSnapshot(session *Session, records []PhaseRecord) *Snapshot {
	phases := make([]PhaseSnapshot, 0, len(records))
	for _, r := range records {
		ps := PhaseSnapshot{
			Number:      r.PhaseNumber,
			Status:      r.Status,
			Attempt:     r.Attempt,
			ErrorDetail: r.ErrorDetail,
		}
		if r.Result != nil {
			ps.Quality = r.Result.Quality
			ps.Degraded = r.Result.Degraded
		}
		phases = append(phases, ps)
	}

	return &Snapshot{
		SessionID:      session.ID,
		Status:         session.Status,
		CurrentPhase:   session.CurrentPhase,
		Phases:         phases,
		DegradedPhases: append([]int(nil), session.DegradedPhases...),
		FailureReason:  session.FailureReason,
		UpdatedAt:      time.Now(),
	}
}
