package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"booking-ledger/internal/infrastructure/config"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "test-secret"

	tests := []struct {
		name           string
		issuer         string
		header         func(t *testing.T) string
		expectedStatus int
		expectedUserID string
	}{
		{
			name: "正常系: user_idクレーム",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"user_id": "user123"})
			},
			expectedStatus: http.StatusOK,
			expectedUserID: "user123",
		},
		{
			name: "正常系: subクレーム",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "user456"})
			},
			expectedStatus: http.StatusOK,
			expectedUserID: "user456",
		},
		{
			name:   "正常系: 発行者が一致",
			issuer: "booking-ledger",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"user_id": "user123", "iss": "booking-ledger"})
			},
			expectedStatus: http.StatusOK,
			expectedUserID: "user123",
		},
		{
			name:           "異常系: Authorizationヘッダーなし",
			header:         func(t *testing.T) string { return "" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: Bearer形式でない",
			header:         func(t *testing.T) string { return "InvalidFormat token" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "異常系: 不正なトークン",
			header:         func(t *testing.T) string { return "Bearer invalid.token.here" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 異なるシークレット",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, "wrong-secret", jwt.MapClaims{"user_id": "user123"})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: 期限切れ",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
					"user_id": "user123",
					"exp":     time.Now().Add(-time.Hour).Unix(),
				})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:   "異常系: 発行者が異なる",
			issuer: "booking-ledger",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"user_id": "user123", "iss": "someone-else"})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: ユーザーIDなし",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"other_claim": "value"})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "異常系: user_idが数値",
			header: func(t *testing.T) string {
				return "Bearer " + signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"user_id": 123})
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.JWTConfig{Secret: secret, Issuer: tt.issuer}
			tracer := noop.NewTracerProvider().Tracer("test")
			logger := otelinfra.NewLogger(tracer)

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if h := tt.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			var gotUserID string
			handler := AuthMiddleware(cfg, logger)(func(c echo.Context) error {
				gotUserID, _ = c.Get(ContextKeyUserID).(string)
				return c.String(http.StatusOK, "ok")
			})

			require.NoError(t, handler(c))
			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedUserID, gotUserID)
		})
	}
}
