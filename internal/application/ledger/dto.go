package ledger

import "booking-ledger/internal/domain/wallet"

// CreditRequest 入金リクエスト
type CreditRequest struct {
	WalletID    string
	Amount      int64
	Source      wallet.Source
	ReferralID  string // optional
	BookingID   string // optional
	Description string
}

// CreditResponse 入金結果
type CreditResponse struct {
	TransactionID string
	WalletID      string
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
}
