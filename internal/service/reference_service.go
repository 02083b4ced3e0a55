package service

import (
	"context"

	"ai-mangagen-be/internal/pkg/logger"
	"ai-mangagen-be/internal/repository/unitofwork"
	"ai-mangagen-be/pkg/embedding"
	"ai-mangagen-be/pkg/pipeline"
)

const referenceLimit = 3

type IReferenceService interface {
	// BuildReferences embeds the session premise, stores the vector, and
	// retrieves the closest completed works for the concept phase to steer
	// away from. A nil slice is a valid answer.
	BuildReferences(ctx context.Context, session *pipeline.Session) ([]pipeline.Reference, error)
}

type referenceService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewReferenceService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IReferenceService {
	return &referenceService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (s *referenceService) BuildReferences(ctx context.Context, session *pipeline.Session) ([]pipeline.Reference, error) {
	if s.embeddingProvider == nil {
		return nil, nil
	}

	res, err := s.embeddingProvider.Generate(session.InputText, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	vec := res.Embedding.Values

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.PipelineSessionRepository()

	if err := repo.SetInputEmbedding(ctx, session.ID, vec); err != nil {
		s.logger.Warn("ReferenceService", "Failed to store input embedding", map[string]interface{}{
			"session_id": session.ID, "error": err.Error(),
		})
		// Retrieval can still proceed off the in-memory vector.
	}

	refs, err := repo.SearchSimilar(ctx, vec, referenceLimit, session.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ReferenceService", "References retrieved", map[string]interface{}{
		"session_id": session.ID, "count": len(refs),
	})
	return refs, nil
}
