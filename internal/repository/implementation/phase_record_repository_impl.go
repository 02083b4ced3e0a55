package implementation

import (
	"context"
	"errors"

	"ai-mangagen-be/internal/mapper"
	"ai-mangagen-be/internal/model"
	"ai-mangagen-be/internal/repository/contract"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PhaseRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewPhaseRecordRepository(db *gorm.DB) contract.PhaseRecordRepository {
	return &PhaseRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *PhaseRecordRepositoryImpl) UpsertForSession(ctx context.Context, sessionId uuid.UUID, records []pipeline.PhaseRecord) error {
	if len(records) == 0 {
		return nil
	}

	models := make([]*model.PhaseRecord, len(records))
	for i, rec := range records {
		models[i] = r.mapper.PhaseRecordToModel(sessionId, rec)
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "phase_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "attempt", "quality", "degraded", "payload_kind",
			"result_payload", "error_detail", "started_at", "completed_at", "updated_at",
		}),
	}).Create(models).Error
}

func (r *PhaseRecordRepositoryImpl) FindBySession(ctx context.Context, sessionId uuid.UUID) ([]pipeline.PhaseRecord, error) {
	var models []*model.PhaseRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Order("phase_number ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]pipeline.PhaseRecord, len(models))
	for i, m := range models {
		records[i] = r.mapper.PhaseRecordToDomain(m)
	}
	return records, nil
}

func (r *PhaseRecordRepositoryImpl) FindConceptSummary(ctx context.Context, sessionId uuid.UUID) (string, string, error) {
	var m model.PhaseRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND phase_number = ? AND status = ?", sessionId, 1, "completed").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", nil
		}
		return "", "", err
	}

	title, synopsis := r.mapper.SessionSummary(&m)
	return title, synopsis, nil
}
