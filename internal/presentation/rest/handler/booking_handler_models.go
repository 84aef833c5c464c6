package handler

// BookingResponse 予約レスポンス
// @Description 予約レスポンス（金額は最小通貨単位の文字列）
type BookingResponse struct {
	BookingID  string          `json:"booking_id" example:"bk_123"`
	UserID     string          `json:"user_id" example:"user_b"`
	OrderRef   string          `json:"order_ref" example:"order_abc"`
	PaymentRef *string         `json:"payment_ref,omitempty" example:"pay_xyz"`
	Amount     string          `json:"amount" example:"500000"`
	Currency   string          `json:"currency" example:"INR"`
	Status     string          `json:"status" example:"paid"`
	PaidAt     *string         `json:"paid_at,omitempty" example:"2024-01-01T12:00:00Z"`
	Commission *CommissionItem `json:"commission,omitempty"`
}

// CommissionItem 手数料の内訳
type CommissionItem struct {
	CommissionID       string `json:"commission_id"`
	GrossAmount        string `json:"gross_amount" example:"500000"`
	HostShare          string `json:"host_share" example:"400000"`
	PlatformCommission string `json:"platform_commission" example:"100000"`
	CommissionRate     string `json:"commission_rate" example:"20"`
	TaxOnCommission    string `json:"tax_on_commission" example:"18000"`
	NetCommission      string `json:"net_commission" example:"82000"`
	Status             string `json:"status" example:"collected"`
}
