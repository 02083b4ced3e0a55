package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"ai-mangagen-be/internal/dto"
	"ai-mangagen-be/internal/pkg/logger"
	"ai-mangagen-be/internal/repository/memory"
	"ai-mangagen-be/internal/repository/specification"
	"ai-mangagen-be/internal/repository/unitofwork"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSessionOwner = errors.New("session belongs to another user")
	ErrSessionInactive = errors.New("session is not accepting commands")
)

type IPipelineService interface {
	Start(ctx context.Context, userId uuid.UUID, userEmail string, req *dto.StartSessionRequest) (*dto.StartSessionResponse, error)
	Cancel(ctx context.Context, userId, sessionId uuid.UUID) error
	SubmitFeedback(ctx context.Context, userId uuid.UUID, req *dto.SubmitFeedbackRequest) error
	SkipFeedback(ctx context.Context, userId uuid.UUID, req *dto.SkipFeedbackRequest) error
	GetStatus(ctx context.Context, userId, sessionId uuid.UUID) (*pipeline.Snapshot, error)
	ListSessions(ctx context.Context, userId uuid.UUID, limit, offset int) (*dto.ListSessionsResponse, error)
	OwnerOf(ctx context.Context, sessionId uuid.UUID) (uuid.UUID, error)
}

type pipelineService struct {
	uowFactory       unitofwork.RepositoryFactory
	executors        map[int]pipeline.Executor
	cfg              pipeline.Config
	broker           *pipeline.Broker
	store            pipeline.Store
	snapshots        *memory.SnapshotRepository
	referenceService IReferenceService
	publisherService IPublisherService
	logger           logger.ILogger

	mu     sync.RWMutex
	active map[uuid.UUID]*pipeline.Orchestrator
}

func NewPipelineService(
	uowFactory unitofwork.RepositoryFactory,
	executors map[int]pipeline.Executor,
	cfg pipeline.Config,
	broker *pipeline.Broker,
	snapshots *memory.SnapshotRepository,
	referenceService IReferenceService,
	publisherService IPublisherService,
	log logger.ILogger,
) IPipelineService {
	s := &pipelineService{
		uowFactory:       uowFactory,
		executors:        executors,
		cfg:              cfg,
		broker:           broker,
		store:            &gormStore{uowFactory: uowFactory},
		snapshots:        snapshots,
		referenceService: referenceService,
		publisherService: publisherService,
		logger:           log,
		active:           make(map[uuid.UUID]*pipeline.Orchestrator),
	}

	// Every engine event refreshes the polling snapshot and is relayed to the
	// delivery workers over the in-process bus.
	broker.Subscribe(pipeline.SubscriberFunc(s.onEvent))

	return s
}

func (s *pipelineService) Start(ctx context.Context, userId uuid.UUID, userEmail string, req *dto.StartSessionRequest) (*dto.StartSessionResponse, error) {
	session := pipeline.NewSession(userId, userEmail, req.InputText)

	// Persist before starting so the session is visible to polling clients
	// even if the process dies mid-run.
	if err := s.store.SaveSession(ctx, session, nil); err != nil {
		return nil, err
	}

	orch := pipeline.NewOrchestrator(session, s.executors, s.cfg, s.store, s.broker, s.logger)

	s.mu.Lock()
	s.active[session.ID] = orch
	s.mu.Unlock()
	s.snapshots.Save(orch.Snapshot())

	go s.run(orch, session)

	s.logger.Info("PipelineService", "Session started", map[string]interface{}{
		"session_id": session.ID, "user_id": userId,
	})

	return &dto.StartSessionResponse{
		SessionId: session.ID,
		Status:    string(session.Status),
	}, nil
}

// run owns the orchestration goroutine for one session.
func (s *pipelineService) run(orch *pipeline.Orchestrator, session *pipeline.Session) {
	ctx := context.Background()

	refs, err := s.referenceService.BuildReferences(ctx, session)
	if err != nil {
		s.logger.Warn("PipelineService", "Reference retrieval failed, proceeding without", map[string]interface{}{
			"session_id": session.ID, "error": err.Error(),
		})
	}

	if err := orch.Run(ctx, refs); err != nil {
		s.logger.Error("PipelineService", "Session run ended with error", map[string]interface{}{
			"session_id": session.ID, "error": err.Error(),
		})
	}

	s.snapshots.Save(orch.Snapshot())
	s.mu.Lock()
	delete(s.active, session.ID)
	s.mu.Unlock()
}

func (s *pipelineService) onEvent(e pipeline.Event) {
	s.mu.RLock()
	orch, ok := s.active[e.SessionID]
	s.mu.RUnlock()
	if ok {
		s.snapshots.Save(orch.Snapshot())
	}

	relayed := dto.RelayedEvent{
		Kind:      string(e.Kind),
		SessionId: e.SessionID,
		Phase:     e.Phase,
		Payload:   e.Payload,
		Timestamp: e.Timestamp,
	}
	data, err := json.Marshal(relayed)
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(context.Background(), data); err != nil {
		s.logger.Warn("PipelineService", "Failed to relay event", map[string]interface{}{
			"session_id": e.SessionID, "kind": e.Kind, "error": err.Error(),
		})
	}
}

func (s *pipelineService) Cancel(ctx context.Context, userId, sessionId uuid.UUID) error {
	orch, err := s.ownedOrchestrator(ctx, userId, sessionId)
	if err != nil {
		return err
	}
	if orch == nil {
		return ErrSessionInactive
	}
	orch.Cancel()
	return nil
}

func (s *pipelineService) SubmitFeedback(ctx context.Context, userId uuid.UUID, req *dto.SubmitFeedbackRequest) error {
	orch, err := s.ownedOrchestrator(ctx, userId, req.SessionId)
	if err != nil {
		return err
	}
	if orch == nil {
		return ErrSessionInactive
	}
	return orch.SubmitFeedback(req.Phase, req.Feedback)
}

func (s *pipelineService) SkipFeedback(ctx context.Context, userId uuid.UUID, req *dto.SkipFeedbackRequest) error {
	orch, err := s.ownedOrchestrator(ctx, userId, req.SessionId)
	if err != nil {
		return err
	}
	if orch == nil {
		return ErrSessionInactive
	}
	return orch.SkipFeedback(req.Phase)
}

func (s *pipelineService) GetStatus(ctx context.Context, userId, sessionId uuid.UUID) (*pipeline.Snapshot, error) {
	s.mu.RLock()
	orch, running := s.active[sessionId]
	s.mu.RUnlock()

	if running {
		if orch.OwnerRef() != userId {
			return nil, ErrNotSessionOwner
		}
		return orch.Snapshot(), nil
	}

	session, err := s.findOwnedSession(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	if snap, ok := s.snapshots.Get(sessionId.String()); ok {
		return snap, nil
	}

	// Cold path: rebuild from storage.
	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.PhaseRecordRepository().FindBySession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	snap := pipeline.BuildSnapshot(session, records)
	s.snapshots.Save(snap)
	return snap, nil
}

func (s *pipelineService) ListSessions(ctx context.Context, userId uuid.UUID, limit, offset int) (*dto.ListSessionsResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.PipelineSessionRepository()

	owned := specification.OwnedBy{UserId: userId}
	total, err := repo.Count(ctx, owned)
	if err != nil {
		return nil, err
	}

	sessions, err := repo.FindAll(ctx,
		owned,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.SessionListItem, 0, len(sessions))
	for _, sess := range sessions {
		title, _, err := uow.PhaseRecordRepository().FindConceptSummary(ctx, sess.ID)
		if err != nil {
			title = ""
		}
		items = append(items, dto.SessionListItem{
			Id:             sess.ID,
			Title:          title,
			Status:         string(sess.Status),
			CurrentPhase:   sess.CurrentPhase,
			DegradedPhases: sess.DegradedPhases,
			CreatedAt:      sess.CreatedAt,
			CompletedAt:    sess.CompletedAt,
		})
	}

	return &dto.ListSessionsResponse{Sessions: items, Total: total}, nil
}

// OwnerOf resolves a session's owner for the websocket handshake.
func (s *pipelineService) OwnerOf(ctx context.Context, sessionId uuid.UUID) (uuid.UUID, error) {
	s.mu.RLock()
	orch, running := s.active[sessionId]
	s.mu.RUnlock()
	if running {
		return orch.OwnerRef(), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.PipelineSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return uuid.Nil, err
	}
	if session == nil {
		return uuid.Nil, ErrSessionNotFound
	}
	return session.OwnerRef, nil
}

// ownedOrchestrator returns the active orchestrator after the ownership
// check, nil when the session exists but is no longer running.
func (s *pipelineService) ownedOrchestrator(ctx context.Context, userId, sessionId uuid.UUID) (*pipeline.Orchestrator, error) {
	s.mu.RLock()
	orch, running := s.active[sessionId]
	s.mu.RUnlock()

	if running {
		if orch.OwnerRef() != userId {
			return nil, ErrNotSessionOwner
		}
		return orch, nil
	}

	if _, err := s.findOwnedSession(ctx, userId, sessionId); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *pipelineService) findOwnedSession(ctx context.Context, userId, sessionId uuid.UUID) (*pipeline.Session, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.PipelineSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.OwnerRef != userId {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

// gormStore adapts the unit-of-work to the engine's persistence port.
type gormStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func (s *gormStore) SaveSession(ctx context.Context, session *pipeline.Session, records []pipeline.PhaseRecord) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.PipelineSessionRepository().Upsert(ctx, session); err != nil {
		return err
	}
	if err := uow.PhaseRecordRepository().UpsertForSession(ctx, session.ID, records); err != nil {
		return err
	}
	return uow.Commit()
}
