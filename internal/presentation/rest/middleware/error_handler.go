package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"booking-ledger/internal/domain/booking"
	"booking-ledger/internal/domain/commission"
	"booking-ledger/internal/domain/wallet"
	"booking-ledger/internal/domain/webhook"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// domainError ドメインエラーとHTTPレスポンスの対応
type domainError struct {
	target  error
	status  int
	code    string
	message string // 空の場合はエラーメッセージをそのまま返す
	logMsg  string
}

var domainErrors = []domainError{
	{target: webhook.ErrSignatureInvalid, status: http.StatusUnauthorized, code: "invalid_signature", message: "Signature verification failed", logMsg: "Invalid webhook signature"},
	{target: webhook.ErrPayloadInvalid, status: http.StatusBadRequest, code: "invalid_payload", logMsg: "Invalid webhook payload"},
	{target: booking.ErrBookingNotFound, status: http.StatusNotFound, code: "booking_not_found", logMsg: "Booking not found"},
	{target: commission.ErrCommissionNotFound, status: http.StatusNotFound, code: "commission_not_found", logMsg: "Commission not found"},
	{target: wallet.ErrWalletNotFound, status: http.StatusNotFound, code: "wallet_not_found", logMsg: "Wallet not found"},
	{target: wallet.ErrInsufficientBalance, status: http.StatusConflict, code: "insufficient_balance", logMsg: "Insufficient balance"},
	{target: wallet.ErrInvalidAmount, status: http.StatusBadRequest, code: "invalid_amount", logMsg: "Invalid amount"},
	{target: wallet.ErrInvalidUserID, status: http.StatusBadRequest, code: "invalid_user_id", logMsg: "Invalid user id"},
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// エラーハンドリング
			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// 設定不備はゲートウェイに再送させる
	if errors.Is(err, webhook.ErrConfiguration) {
		logger.Error(ctx, "Webhook is not configured", err, map[string]interface{}{
			"path": c.Request().URL.Path,
		})
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "configuration_error",
			Message: "Webhook secret is not configured",
		})
	}

	for _, de := range domainErrors {
		if !errors.Is(err, de.target) {
			continue
		}
		logger.Warn(ctx, de.logMsg, map[string]interface{}{
			"error": err.Error(),
		})
		message := de.message
		if message == "" {
			message = err.Error()
		}
		return c.JSON(de.status, ErrorResponse{
			Error:   de.code,
			Message: message,
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
