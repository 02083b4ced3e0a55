package pipeline

import "context"

// Executor produces one phase artifact from the accumulated context.
// Implementations must be idempotent enough to be safely retried.
type Executor interface {
	// Name identifies the phase for logs and events.
	Name() string

	Execute(ctx context.Context, pctx *Context) (Result, error)
}

// Store is the persistence collaborator. The orchestrator saves the session
// and its phase records at phase boundaries; storage engine and schema are
// out of scope here.
type Store interface {
	SaveSession(ctx context.Context, session *Session, records []PhaseRecord) error
}
