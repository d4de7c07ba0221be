package handler

import (
	"policylens-be/internal/pkg/logger"
	internalWS "policylens-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type QueryStreamHandler struct {
	streamer internalWS.Streamer
	hub      *internalWS.Hub
	logger   logger.ILogger
}

func NewQueryStreamHandler(streamer internalWS.Streamer, hub *internalWS.Hub, log logger.ILogger) *QueryStreamHandler {
	return &QueryStreamHandler{
		streamer: streamer,
		hub:      hub,
		logger:   log,
	}
}

// ServeWs upgrades to a websocket query session. Each text frame carries
// {"question": "...", "course": "..."}; answers come back as stream events.
func (h *QueryStreamHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	// Query params are not readable after the upgrade.
	course := c.Query("course")

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("QueryStreamHandler", "Starting WebSocket session", map[string]interface{}{"course": course})
		internalWS.ServeWs(h.hub, conn, course, h.streamer)
		h.logger.Info("QueryStreamHandler", "WebSocket session ended", map[string]interface{}{"course": course})
	})(c)
}

func (h *QueryStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/query/ws", h.ServeWs)
}
