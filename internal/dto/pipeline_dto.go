package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartSessionRequest struct {
	InputText string `json:"input_text" validate:"required,min=10"`
}

type StartSessionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Status    string    `json:"status"`
}

type SubmitFeedbackRequest struct {
	SessionId uuid.UUID
	Phase     int    `json:"phase" validate:"required,min=1"`
	Feedback  string `json:"feedback" validate:"required"`
}

type SkipFeedbackRequest struct {
	SessionId uuid.UUID
	Phase     int `json:"phase" validate:"required,min=1"`
}

type SessionListItem struct {
	Id             uuid.UUID  `json:"id"`
	Title          string     `json:"title,omitempty"`
	Status         string     `json:"status"`
	CurrentPhase   int        `json:"current_phase"`
	DegradedPhases []int      `json:"degraded_phases,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type ListSessionsResponse struct {
	Sessions []SessionListItem `json:"sessions"`
	Total    int64             `json:"total"`
}

// RelayedEvent is the wire shape carried over the in-process bus between the
// orchestrators and the delivery workers.
type RelayedEvent struct {
	Kind      string                 `json:"kind"`
	SessionId uuid.UUID              `json:"session_id"`
	Phase     int                    `json:"phase,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
