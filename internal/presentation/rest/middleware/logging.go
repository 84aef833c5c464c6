package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

// LoggingMiddleware アクセスログミドルウェア
// リクエストごとに完了時の1行を出力し、ステータスに応じてレベルを変える
func LoggingMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			status := c.Response().Status
			fields := map[string]interface{}{
				"method":      req.Method,
				"path":        req.URL.Path,
				"route":       c.Path(),
				"status_code": status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": c.RealIP(),
				"user_agent":  req.UserAgent(),
			}
			if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
				fields["request_id"] = requestID
			}

			switch {
			case err != nil:
				logger.Error(req.Context(), "HTTP request failed", err, fields)
			case status >= 500:
				logger.Error(req.Context(), "HTTP request completed", nil, fields)
			case status >= 400:
				logger.Warn(req.Context(), "HTTP request completed", fields)
			default:
				logger.Info(req.Context(), "HTTP request completed", fields)
			}

			return err
		}
	}
}
