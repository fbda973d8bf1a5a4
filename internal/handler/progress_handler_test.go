package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-studyquiz-be/internal/pkg/logger"
	internalWS "ai-studyquiz-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressHandler_ServeWs(t *testing.T) {
	t.Setenv("JWT_SECRET", "ws-secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": uuid.NewString()}).SignedString([]byte("ws-secret"))
	require.NoError(t, err)

	app := fiber.New()
	NewProgressHandler(internalWS.NewHub(logger.NewNopLogger())).RegisterRoutes(app)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"missing token", "/progress/v1/ws", fiber.StatusUnauthorized},
		{"bad token", "/progress/v1/ws?token=garbage", fiber.StatusUnauthorized},
		{"plain http", "/progress/v1/ws?token=" + token, fiber.StatusUpgradeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.StatusCode)
		})
	}
}
