package implementation

import (
	"context"
	"errors"

	"ai-mangagen-be/internal/mapper"
	"ai-mangagen-be/internal/model"
	"ai-mangagen-be/internal/repository/contract"
	"ai-mangagen-be/internal/repository/specification"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PipelineSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SessionMapper
}

func NewPipelineSessionRepository(db *gorm.DB) contract.PipelineSessionRepository {
	return &PipelineSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSessionMapper(),
	}
}

func (r *PipelineSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PipelineSessionRepositoryImpl) Upsert(ctx context.Context, session *pipeline.Session) error {
	m := r.mapper.SessionToModel(session)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "current_phase", "degraded_phases", "failure_reason", "completed_at", "updated_at",
		}),
	}).Create(m).Error
}

func (r *PipelineSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*pipeline.Session, error) {
	var m model.PipelineSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToDomain(&m), nil
}

func (r *PipelineSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*pipeline.Session, error) {
	var models []*model.PipelineSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	sessions := make([]*pipeline.Session, len(models))
	for i, m := range models {
		sessions[i] = r.mapper.SessionToDomain(m)
	}
	return sessions, nil
}

func (r *PipelineSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.PipelineSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PipelineSessionRepositoryImpl) SetInputEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	return r.db.WithContext(ctx).
		Model(&model.PipelineSession{}).
		Where("id = ?", id).
		Update("input_embedding", pgvector.NewVector(embedding)).Error
}

func (r *PipelineSessionRepositoryImpl) SetSummary(ctx context.Context, id uuid.UUID, title, synopsis string) error {
	return r.db.WithContext(ctx).
		Model(&model.PipelineSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "synopsis": synopsis}).Error
}

func (r *PipelineSessionRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, excludeId uuid.UUID) ([]pipeline.Reference, error) {
	if limit <= 0 {
		limit = 3
	}
	var models []*model.PipelineSession

	// Cosine distance ordering; only finished works make useful references.
	err := r.db.WithContext(ctx).
		Where("status = ?", "completed").
		Where("id <> ?", excludeId).
		Where("input_embedding IS NOT NULL").
		Order(gorm.Expr("input_embedding <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	refs := make([]pipeline.Reference, 0, len(models))
	for _, m := range models {
		refs = append(refs, pipeline.Reference{
			SessionID: m.Id,
			Title:     m.Title,
			Synopsis:  m.Synopsis,
		})
	}
	return refs, nil
}
