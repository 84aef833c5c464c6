package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		handlerErr  error
		wantCSP     string
		wantNoStore bool
		wantHSTS    bool
	}{
		{
			name:        "正常系: APIパスは厳格なCSP",
			target:      "http://example.com/api/v1/me/wallet",
			wantCSP:     apiCSP,
			wantNoStore: true,
		},
		{
			name:    "正常系: Swagger UIのアセット",
			target:  "http://example.com/swagger/index.html",
			wantCSP: swaggerCSP,
		},
		{
			name:    "正常系: OpenAPI定義",
			target:  "http://example.com/openapi.yaml",
			wantCSP: swaggerCSP,
		},
		{
			name:        "正常系: HTTPSではHSTSを付与",
			target:      "https://example.com/api/v1/webhooks/payment",
			wantCSP:     apiCSP,
			wantNoStore: true,
			wantHSTS:    true,
		},
		{
			name:        "異常系: ハンドラーがエラーでもヘッダーは設定済み",
			target:      "http://example.com/api/v1/admin/bookings/ord_1",
			handlerErr:  echo.NewHTTPError(http.StatusInternalServerError, "boom"),
			wantCSP:     apiCSP,
			wantNoStore: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := SecurityHeadersMiddleware()(func(c echo.Context) error {
				if tt.handlerErr != nil {
					return tt.handlerErr
				}
				return c.NoContent(http.StatusOK)
			})(c)
			if tt.handlerErr != nil {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			h := rec.Header()
			assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
			assert.Equal(t, "no-referrer", h.Get("Referrer-Policy"))
			assert.Equal(t, tt.wantCSP, h.Get("Content-Security-Policy"))
			if tt.wantNoStore {
				assert.Equal(t, "no-store", h.Get("Cache-Control"))
			} else {
				assert.Empty(t, h.Get("Cache-Control"))
			}
			if tt.wantHSTS {
				assert.Contains(t, h.Get("Strict-Transport-Security"), "max-age=31536000")
			} else {
				assert.Empty(t, h.Get("Strict-Transport-Security"))
			}
		})
	}
}

func TestIsSwaggerPath(t *testing.T) {
	assert.True(t, isSwaggerPath("/swagger"))
	assert.True(t, isSwaggerPath("/swagger/doc.json"))
	assert.True(t, isSwaggerPath("/openapi.yaml"))
	assert.False(t, isSwaggerPath("/swaggerish"))
	assert.False(t, isSwaggerPath("/api/v1/webhooks/payment"))
}
