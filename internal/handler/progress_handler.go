package handler

import (
	"ai-studyquiz-be/internal/pkg/serverutils"
	internalWS "ai-studyquiz-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ProgressHandler streams the caller's study events (condensation finished,
// quiz generated, ...) over a websocket.
type ProgressHandler struct {
	hub *internalWS.Hub
}

func NewProgressHandler(hub *internalWS.Hub) *ProgressHandler {
	return &ProgressHandler{hub: hub}
}

func (h *ProgressHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/progress/v1/ws", h.ServeWs)
}

// ServeWs authenticates before the upgrade. Browsers cannot set headers on a
// websocket handshake, so the token may also come from ?token=.
func (h *ProgressHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		if authHeader := c.Get("Authorization"); len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	userID, err := serverutils.ParseUserToken(tokenStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, err.Error()))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		internalWS.ServeWs(h.hub, conn, userID)
	})(c)
}

