package memory

import (
	"time"

	"ai-mangagen-be/pkg/pipeline"

	"github.com/patrickmn/go-cache"
)

// SnapshotRepository keeps the last published snapshot of every session so
// polling clients get an answer even after the orchestrator goroutine exits.
type SnapshotRepository struct {
	cache *cache.Cache
}

func NewSnapshotRepository() *SnapshotRepository {
	// Terminal snapshots stay available for an hour after the session ends;
	// expired items are purged every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SnapshotRepository{
		cache: c,
	}
}

func (r *SnapshotRepository) Save(snapshot *pipeline.Snapshot) {
	r.cache.Set(snapshot.SessionID.String(), snapshot, cache.DefaultExpiration)
}

func (r *SnapshotRepository) Get(sessionID string) (*pipeline.Snapshot, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*pipeline.Snapshot), true
	}
	return nil, false
}

func (r *SnapshotRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
