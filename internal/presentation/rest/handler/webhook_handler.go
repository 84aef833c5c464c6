package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	webhookapp "booking-ledger/internal/application/webhook"
	"booking-ledger/internal/domain/webhook"
	"booking-ledger/internal/infrastructure/config"
)

// WebhookProcessor Webhook処理のアプリケーションサービス
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*webhookapp.HandleResult, error)
}

// WebhookHandler 決済ゲートウェイWebhookハンドラー
type WebhookHandler struct {
	processor       WebhookProcessor
	signatureHeader string
	maxBodyBytes    int64
}

// NewWebhookHandler 新しいWebhookHandlerを作成
func NewWebhookHandler(processor WebhookProcessor, cfg *config.WebhookConfig) *WebhookHandler {
	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &WebhookHandler{
		processor:       processor,
		signatureHeader: cfg.SignatureHeader,
		maxBodyBytes:    maxBodyBytes,
	}
}

// HandlePayment 決済イベント受信ハンドラー
// @Summary 決済ゲートウェイのイベントを受信
// @Description 生のリクエストボディをHMAC-SHA256で検証し、予約・手数料・ウォレットを更新します。再配信は200で応答します
// @Tags webhook
// @Accept json
// @Produce json
// @Param X-Razorpay-Signature header string true "HMAC-SHA256署名（16進）"
// @Success 200 {object} WebhookResponse "受信成功"
// @Failure 400 {object} ErrorResponse "不正なペイロード"
// @Failure 401 {object} ErrorResponse "署名不一致"
// @Failure 500 {object} ErrorResponse "処理失敗（ゲートウェイが再送する）"
// @Router /webhooks/payment [post]
func (h *WebhookHandler) HandlePayment(c echo.Context) error {
	// 署名は受信したバイト列そのものに対して検証する
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	signature := c.Request().Header.Get(h.signatureHeader)

	result, err := h.processor.HandleWebhook(c.Request().Context(), body, signature)
	if err != nil {
		return webhookError(err)
	}

	return c.JSON(http.StatusOK, WebhookResponse{
		Status:    "ok",
		Event:     result.Event,
		Outcome:   result.Outcome.String(),
		BookingID: result.BookingID,
	})
}

// webhookError 認証・解析・設定以外の失敗はすべて再送対象の500にする
func webhookError(err error) error {
	if errors.Is(err, webhook.ErrSignatureInvalid) ||
		errors.Is(err, webhook.ErrPayloadInvalid) ||
		errors.Is(err, webhook.ErrConfiguration) {
		return err
	}
	return fmt.Errorf("webhook processing failed: %v", err)
}
