package handler

import "time"

const timeLayout = time.RFC3339

// WalletResponse ウォレットレスポンス
// @Description ウォレットレスポンス（金額は最小通貨単位の文字列）
type WalletResponse struct {
	WalletID      string `json:"wallet_id" example:"wal_123"`
	UserID        string `json:"user_id" example:"user_a"`
	Balance       string `json:"balance" example:"150"`
	TotalCredited string `json:"total_credited" example:"150"`
	UpdatedAt     string `json:"updated_at" example:"2024-01-01T12:00:00Z"`
}

// WalletTransactionItem 台帳エントリ
type WalletTransactionItem struct {
	TransactionID   string  `json:"transaction_id" example:"wtx_123"`
	TransactionType string  `json:"transaction_type" example:"credit"`
	Amount          string  `json:"amount" example:"100"`
	BalanceBefore   string  `json:"balance_before" example:"0"`
	BalanceAfter    string  `json:"balance_after" example:"100"`
	Source          string  `json:"source" example:"referral_bonus"`
	ReferralID      *string `json:"referral_id,omitempty"`
	BookingID       *string `json:"booking_id,omitempty"`
	Description     string  `json:"description,omitempty"`
	CreatedAt       string  `json:"created_at" example:"2024-01-01T12:00:00Z"`
}

// WalletTransactionsResponse 台帳履歴レスポンス
type WalletTransactionsResponse struct {
	WalletID     string                  `json:"wallet_id"`
	Transactions []WalletTransactionItem `json:"transactions"`
	Total        int                     `json:"total" example:"1"`
	Limit        int                     `json:"limit" example:"50"`
	Offset       int                     `json:"offset" example:"0"`
}
