package unitofwork

import (
	"context"

	"ai-mangagen-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PipelineSessionRepository() contract.PipelineSessionRepository
	PhaseRecordRepository() contract.PhaseRecordRepository
}
