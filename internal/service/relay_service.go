package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"ai-mangagen-be/internal/dto"
	"ai-mangagen-be/internal/pkg/mailer"
	"ai-mangagen-be/internal/repository/specification"
	"ai-mangagen-be/internal/repository/unitofwork"
	"ai-mangagen-be/pkg/events"
	pktNats "ai-mangagen-be/pkg/nats"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// EventDelivery pushes a pipeline event to connected clients.
// Implemented by the WebSocket Hub.
type EventDelivery interface {
	Send(sessionID uuid.UUID, event pipeline.Event)
}

type IRelayService interface {
	Consume(ctx context.Context) error
}

// relayService drains the in-process event bus and handles delivery: push to
// websocket watchers, export terminal events to NATS, email the owner, and
// fill in the session summary once the concept exists.
type relayService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	delivery       EventDelivery
	eventPublisher *pktNats.Publisher
	emailService   mailer.IEmailService
	uowFactory     unitofwork.RepositoryFactory
}

func NewRelayService(
	pubSub *gochannel.GoChannel,
	topicName string,
	delivery EventDelivery,
	eventPublisher *pktNats.Publisher,
	emailService mailer.IEmailService,
	uowFactory unitofwork.RepositoryFactory,
) IRelayService {
	return &relayService{
		pubSub:         pubSub,
		topicName:      topicName,
		delivery:       delivery,
		eventPublisher: eventPublisher,
		emailService:   emailService,
		uowFactory:     uowFactory,
	}
}

func (rs *relayService) Consume(ctx context.Context) error {
	messages, err := rs.pubSub.Subscribe(ctx, rs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			rs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (rs *relayService) processMessage(ctx context.Context, msg *message.Message) {
	var relayed dto.RelayedEvent
	if err := json.Unmarshal(msg.Payload, &relayed); err != nil {
		log.Printf("[ERROR] Failed to unmarshal relayed event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	event := pipeline.Event{
		Kind:      pipeline.EventKind(relayed.Kind),
		SessionID: relayed.SessionId,
		Phase:     relayed.Phase,
		Payload:   relayed.Payload,
		Timestamp: relayed.Timestamp,
	}

	if rs.delivery != nil {
		rs.delivery.Send(event.SessionID, event)
	}

	switch event.Kind {
	case pipeline.EventSessionComplete:
		rs.onSessionComplete(ctx, event)
	case pipeline.EventSessionFailed:
		rs.onSessionFailed(ctx, event)
	case pipeline.EventSessionCancelled:
		rs.export(ctx, "SESSION_CANCELLED", event)
	}

	msg.Ack()
}

func (rs *relayService) onSessionComplete(ctx context.Context, event pipeline.Event) {
	rs.export(ctx, "SESSION_COMPLETED", event)

	uow := rs.uowFactory.NewUnitOfWork(ctx)

	title, synopsis, err := uow.PhaseRecordRepository().FindConceptSummary(ctx, event.SessionID)
	if err == nil && (title != "" || synopsis != "") {
		if err := uow.PipelineSessionRepository().SetSummary(ctx, event.SessionID, title, synopsis); err != nil {
			log.Printf("[WARN] Failed to store session summary for %s: %v", event.SessionID, err)
		}
	}

	session, err := uow.PipelineSessionRepository().FindOne(ctx, specification.ByID{ID: event.SessionID})
	if err != nil || session == nil || session.OwnerEmail == "" {
		return
	}

	if rs.emailService != nil {
		if err := rs.emailService.SendSessionCompleted(session.OwnerEmail, title, session.ID.String(), session.DegradedPhases); err != nil {
			log.Printf("[WARN] Completion mail failed for %s: %v", session.ID, err)
		}
	}
}

func (rs *relayService) onSessionFailed(ctx context.Context, event pipeline.Event) {
	rs.export(ctx, "SESSION_FAILED", event)

	uow := rs.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.PipelineSessionRepository().FindOne(ctx, specification.ByID{ID: event.SessionID})
	if err != nil || session == nil || session.OwnerEmail == "" {
		return
	}

	if rs.emailService != nil {
		if err := rs.emailService.SendSessionFailed(session.OwnerEmail, session.ID.String(), session.FailureReason); err != nil {
			log.Printf("[WARN] Failure mail failed for %s: %v", session.ID, err)
		}
	}
}

// export forwards a terminal event to NATS for the rendering and billing
// services downstream. Auxiliary: failures are logged, never propagated.
func (rs *relayService) export(ctx context.Context, typeCode string, event pipeline.Event) {
	if rs.eventPublisher == nil {
		return
	}

	data := map[string]interface{}{
		"session_id": event.SessionID.String(),
	}
	for k, v := range event.Payload {
		data[k] = v
	}

	evt := events.BaseEvent{
		Type:       typeCode,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := rs.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", typeCode, err)
	}
}
