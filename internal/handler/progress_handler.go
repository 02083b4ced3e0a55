package handler

import (
	"ai-mangagen-be/internal/pkg/logger"
	"ai-mangagen-be/internal/pkg/serverutils"
	"ai-mangagen-be/internal/service"
	internalWS "ai-mangagen-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ProgressHandler upgrades clients to a websocket stream of pipeline events
// for one session.
type ProgressHandler struct {
	pipelineService service.IPipelineService
	hub             *internalWS.Hub
	logger          logger.ILogger
}

func NewProgressHandler(pipelineService service.IPipelineService, hub *internalWS.Hub, log logger.ILogger) *ProgressHandler {
	return &ProgressHandler{
		pipelineService: pipelineService,
		hub:             hub,
		logger:          log,
	}
}

// ServeWs handles the websocket handshake for /sessions/:id/ws.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	// Token source priority: query param (browser standard), then header.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	claims, err := serverutils.ParseUserClaims(tokenStr)
	if err != nil {
		h.logger.Warn("ProgressHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	// Only the owner may watch a session.
	owner, err := h.pipelineService.OwnerOf(c.UserContext(), sessionID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	}
	if owner != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not your session"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ProgressHandler", "Starting WebSocket session", map[string]interface{}{
				"session_id": sessionID, "user_id": userID,
			})
			internalWS.ServeWs(h.hub, conn, sessionID, userID)
			h.logger.Info("ProgressHandler", "WebSocket session ended", map[string]interface{}{
				"session_id": sessionID, "user_id": userID,
			})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the websocket endpoint.
func (h *ProgressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/pipeline/v1/:id/ws", h.ServeWs)
}
