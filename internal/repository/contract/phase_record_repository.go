package contract

import (
	"context"

	"ai-mangagen-be/pkg/pipeline"

	"github.com/google/uuid"
)

type PhaseRecordRepository interface {
	// UpsertForSession writes the full record set of one session. Each
	// (session, phase) pair is unique; later writes overwrite earlier ones.
	UpsertForSession(ctx context.Context, sessionId uuid.UUID, records []pipeline.PhaseRecord) error
	FindBySession(ctx context.Context, sessionId uuid.UUID) ([]pipeline.PhaseRecord, error)
	// FindConceptSummary returns the persisted title and logline of the
	// concept phase, empty strings when not yet produced.
	FindConceptSummary(ctx context.Context, sessionId uuid.UUID) (title, synopsis string, err error)
}
