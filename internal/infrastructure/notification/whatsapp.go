package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appnotification "booking-ledger/internal/application/notification"
)

// WhatsAppNotifier メッセージ送信APIへ予約確定を通知する
type WhatsAppNotifier struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewWhatsAppNotifier 新しいWhatsAppNotifierを作成
func NewWhatsAppNotifier(endpoint, token string, timeout time.Duration) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
}

type whatsAppMessage struct {
	To        string `json:"to"`
	Template  string `json:"template"`
	BookingID string `json:"booking_id"`
	OrderRef  string `json:"order_ref"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

// Channel チャネル名
func (n *WhatsAppNotifier) Channel() string {
	return "whatsapp"
}

// NotifyBookingPaid 顧客の連絡先へ予約確定メッセージを送る。連絡先がなければ何もしない
func (n *WhatsAppNotifier) NotifyBookingPaid(ctx context.Context, b appnotification.BookingPaidNotification) error {
	if b.CustomerContact == "" {
		return nil
	}

	body, err := json.Marshal(whatsAppMessage{
		To:        b.CustomerContact,
		Template:  "booking_confirmed",
		BookingID: b.BookingID,
		OrderRef:  b.OrderRef,
		Amount:    formatMinor(b.Amount),
		Currency:  b.Currency,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("messaging api returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}
