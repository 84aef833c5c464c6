package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

// MetricsMiddleware メトリクス記録ミドルウェア
// エラーレスポンスはErrorHandlerMiddlewareがJSONに変換した後のステータスで分類する
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method
			route := c.Path()

			metrics.RecordRequest(ctx, method, route)

			err := next(c)

			metrics.RecordResponseTime(ctx, method, route, time.Since(start).Seconds())

			status := c.Response().Status
			if err != nil {
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					status = httpErr.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			if errorType := classifyStatus(status); errorType != "" {
				metrics.RecordError(ctx, errorType)
			}

			return err
		}
	}
}

// classifyStatus 4xxはclient_error、5xxはserver_error
func classifyStatus(status int) string {
	switch {
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	default:
		return ""
	}
}
