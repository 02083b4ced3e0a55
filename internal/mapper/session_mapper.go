package mapper

import (
	"encoding/json"

	"ai-mangagen-be/internal/model"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) SessionToModel(s *pipeline.Session) *model.PipelineSession {
	if s == nil {
		return nil
	}

	degraded, _ := json.Marshal(s.DegradedPhases)

	return &model.PipelineSession{
		Id:             s.ID,
		UserId:         s.OwnerRef,
		UserEmail:      s.OwnerEmail,
		InputText:      s.InputText,
		Status:         string(s.Status),
		CurrentPhase:   s.CurrentPhase,
		DegradedPhases: datatypes.JSON(degraded),
		FailureReason:  s.FailureReason,
		CompletedAt:    s.CompletedAt,
		CreatedAt:      s.CreatedAt,
	}
}

func (m *SessionMapper) SessionToDomain(s *model.PipelineSession) *pipeline.Session {
	if s == nil {
		return nil
	}

	var degraded []int
	if len(s.DegradedPhases) > 0 {
		_ = json.Unmarshal(s.DegradedPhases, &degraded)
	}

	return &pipeline.Session{
		ID:             s.Id,
		OwnerRef:       s.UserId,
		OwnerEmail:     s.UserEmail,
		InputText:      s.InputText,
		Status:         pipeline.SessionStatus(s.Status),
		CurrentPhase:   s.CurrentPhase,
		DegradedPhases: degraded,
		FailureReason:  s.FailureReason,
		CreatedAt:      s.CreatedAt,
		CompletedAt:    s.CompletedAt,
	}
}

func (m *SessionMapper) PhaseRecordToModel(sessionId uuid.UUID, r pipeline.PhaseRecord) *model.PhaseRecord {
	rec := &model.PhaseRecord{
		SessionId:   sessionId,
		PhaseNumber: r.PhaseNumber,
		Status:      string(r.Status),
		Attempt:     r.Attempt,
		ErrorDetail: r.ErrorDetail,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}

	if r.Result != nil {
		rec.Quality = r.Result.Quality
		rec.Degraded = r.Result.Degraded
		if r.Result.Payload != nil {
			rec.PayloadKind = r.Result.Payload.Kind()
			if raw, err := json.Marshal(r.Result.Payload); err == nil {
				rec.ResultPayload = datatypes.JSON(raw)
			}
		}
	}

	return rec
}

func (m *SessionMapper) PhaseRecordToDomain(rec *model.PhaseRecord) pipeline.PhaseRecord {
	r := pipeline.PhaseRecord{
		PhaseNumber: rec.PhaseNumber,
		Status:      pipeline.PhaseStatus(rec.Status),
		Attempt:     rec.Attempt,
		ErrorDetail: rec.ErrorDetail,
		StartedAt:   rec.StartedAt,
		CompletedAt: rec.CompletedAt,
	}

	if len(rec.ResultPayload) > 0 || rec.Quality > 0 || rec.Degraded {
		r.Result = &pipeline.Result{
			Phase:    rec.PhaseNumber,
			Quality:  rec.Quality,
			Degraded: rec.Degraded,
		}
		if len(rec.ResultPayload) > 0 {
			r.Result.Payload = pipeline.RawPayload{
				KindName: rec.PayloadKind,
				Data:     json.RawMessage(rec.ResultPayload),
			}
		}
	}

	return r
}

// SessionSummary extracts title and synopsis out of a persisted concept
// payload so listings do not ship the full artifact tree.
func (m *SessionMapper) SessionSummary(rec *model.PhaseRecord) (title, synopsis string) {
	if rec == nil || len(rec.ResultPayload) == 0 {
		return "", ""
	}
	var concept struct {
		Title   string `json:"title"`
		Logline string `json:"logline"`
	}
	if err := json.Unmarshal(rec.ResultPayload, &concept); err != nil {
		return "", ""
	}
	return concept.Title, concept.Logline
}
