package history

import (
	"booking-ledger/internal/domain/booking"
	"booking-ledger/internal/domain/commission"
	"booking-ledger/internal/domain/wallet"
)

// GetWalletRequest ウォレット取得リクエスト
type GetWalletRequest struct {
	UserID string
}

// GetWalletResponse ウォレット取得レスポンス
type GetWalletResponse struct {
	Wallet *wallet.Wallet
}

// GetWalletTransactionsRequest 台帳履歴取得リクエスト
type GetWalletTransactionsRequest struct {
	UserID          string
	Limit           int
	Offset          int
	TransactionType string // optional: "credit" or "debit"
	Source          string // optional: "referral_bonus", etc.
}

// GetWalletTransactionsResponse 台帳履歴取得レスポンス
type GetWalletTransactionsResponse struct {
	WalletID     string
	Transactions []*wallet.Transaction
	Total        int
	Limit        int
	Offset       int
}

// GetBookingRequest 予約取得リクエスト
type GetBookingRequest struct {
	OrderRef string
}

// GetBookingResponse 予約取得レスポンス
type GetBookingResponse struct {
	Booking    *booking.Booking
	Commission *commission.Commission // 未記録の場合はnil
}
