package handler

// WebhookResponse Webhook受信レスポンス
// @Description Webhook受信レスポンス
type WebhookResponse struct {
	Status    string `json:"status" example:"ok"`
	Event     string `json:"event" example:"order.paid"`
	Outcome   string `json:"outcome" example:"processed"`
	BookingID string `json:"booking_id,omitempty" example:"bk_123"`
}

// ErrorResponse エラーレスポンス（Swagger用）
type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_signature"`
	Message string `json:"message" example:"Signature verification failed"`
	Code    string `json:"code,omitempty"`
}
