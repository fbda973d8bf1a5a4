package serverutils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-studyquiz-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, res *http.Response) BaseResponse[any] {
	t.Helper()
	var body BaseResponse[any]
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return body
}

func TestErrorHandlerMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.Validation("numQuestions must be at most 50"), 400, "invalid_request"},
		{"not found", apperr.NotFound("document"), 404, "not_found"},
		{"ai service", apperr.AIService(apperr.CodeQuotaExceeded, "quota", nil), 503, apperr.CodeQuotaExceeded},
		{"parse", apperr.Parse("bad json", nil), 502, "invalid_ai_response"},
		{"fiber error", fiber.NewError(fiber.StatusConflict, "busy"), 409, ""},
		{"unknown", errors.New("db down"), 500, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tt.err })

			res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.StatusCode)

			body := decode(t, res)
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantStatus, body.Code)
			assert.Equal(t, tt.wantCode, body.Error)
			if tt.wantStatus == 500 {
				assert.Equal(t, "Internal server error", body.Message)
			}
		})
	}
}

func TestErrorHandlerMiddleware_MalformedBody(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Post("/", func(ctx *fiber.Ctx) error {
		var req struct {
			N int `json:"n"`
		}
		return ctx.BodyParser(&req)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"n": "x"}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, res.StatusCode)
}

func TestValidateRequest(t *testing.T) {
	type request struct {
		Text string `json:"text" validate:"required"`
		N    int    `json:"n" validate:"min=1,max=50"`
	}

	assert.NoError(t, ValidateRequest(request{Text: "x", N: 3}))

	err := ValidateRequest(request{N: 60})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "Text is required")
	assert.Contains(t, err.Error(), "N must be at most 50")
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestJwtMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	userId := uuid.New()

	app := fiber.New()
	app.Get("/", JwtMiddleware, func(ctx *fiber.Ctx) error {
		return ctx.SendString(UserID(ctx).String())
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing", "", 401},
		{"wrong secret", "Bearer " + signed(t, "other", jwt.MapClaims{"user_id": userId.String()}), 401},
		{"no user id", "Bearer " + signed(t, "test-secret", jwt.MapClaims{"sub": "x"}), 401},
		{"expired", "Bearer " + signed(t, "test-secret", jwt.MapClaims{"user_id": userId.String(), "exp": time.Now().Add(-time.Hour).Unix()}), 401},
		{"valid", "Bearer " + signed(t, "test-secret", jwt.MapClaims{"user_id": userId.String()}), 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			res, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.StatusCode)
		})
	}
}
