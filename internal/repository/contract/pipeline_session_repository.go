package contract

import (
	"context"

	"ai-mangagen-be/internal/repository/specification"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/google/uuid"
)

type PipelineSessionRepository interface {
	Upsert(ctx context.Context, session *pipeline.Session) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*pipeline.Session, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*pipeline.Session, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	SetInputEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
	SetSummary(ctx context.Context, id uuid.UUID, title, synopsis string) error
	// SearchSimilar retrieves completed sessions whose input premise is
	// closest to the given embedding, excluding the session itself.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, excludeId uuid.UUID) ([]pipeline.Reference, error)
}
