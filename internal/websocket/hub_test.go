package websocket

import (
	"testing"
	"time"

	"ai-mangagen-be/internal/pkg/logger"
	"ai-mangagen-be/pkg/pipeline"

	"github.com/google/uuid"
)

func watcherCount(h *Hub, sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func TestHubDropsSlowClientOnce(t *testing.T) {
	h := NewHub(nil, logger.NewNopLogger())
	go h.Run()

	sessionID := uuid.New()
	client := &Client{Hub: h, SessionID: sessionID, UserID: uuid.New(), Send: make(chan []byte, 1)}
	// Fill the buffer so the next delivery takes the drop path.
	client.Send <- []byte("backlog")
	h.register <- client

	event := pipeline.Event{Kind: pipeline.EventPhaseStart, SessionID: sessionID, Phase: 1}
	h.Send(sessionID, event)
	// A second delivery racing the drop must not close the channel again.
	h.Send(sessionID, event)

	deadline := time.After(2 * time.Second)
	for watcherCount(h, sessionID) != 0 {
		select {
		case <-deadline:
			t.Fatal("slow client was never unregistered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	// Unregister closed Send exactly once: drain the backlog, then the
	// channel reports closed.
	select {
	case <-client.Send:
	case <-time.After(time.Second):
		t.Fatal("backlog message lost")
	}
	select {
	case _, open := <-client.Send:
		if open {
			t.Error("Send delivered after the client was dropped")
		}
	case <-time.After(time.Second):
		t.Fatal("Send channel never closed")
	}
}

func TestHubDeliversToWatchers(t *testing.T) {
	h := NewHub(nil, logger.NewNopLogger())
	go h.Run()

	sessionID := uuid.New()
	client := &Client{Hub: h, SessionID: sessionID, UserID: uuid.New(), Send: make(chan []byte, 4)}
	h.register <- client

	h.Send(sessionID, pipeline.Event{Kind: pipeline.EventPhaseComplete, SessionID: sessionID, Phase: 2})

	select {
	case msg := <-client.Send:
		if len(msg) == 0 {
			t.Error("empty frame delivered")
		}
	case <-time.After(time.Second):
		t.Fatal("watcher never received the event")
	}

	h.unregister <- client
	deadline := time.After(2 * time.Second)
	for watcherCount(h, sessionID) != 0 {
		select {
		case <-deadline:
			t.Fatal("client was never unregistered")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
