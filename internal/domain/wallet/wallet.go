package wallet

import (
	"regexp"
	"time"
)

const (
	// MaxAmount 1取引あたりの最大金額 (10兆)
	MaxAmount = 10_000_000_000_000
)

// 外部の認証基盤が発行するID（auth0|xxx, google-oauth2|xxx など）をそのまま受け入れる
// 制御文字と空白のみ拒否し、長さはuser_id列（VARCHAR(255)）に合わせる
var userIDRegex = regexp.MustCompile(`^[^\p{Cc}\p{Z}]{1,255}$`)

// Wallet ユーザーごとのウォレット
type Wallet struct {
	walletID      string
	userID        string
	balance       int64
	totalCredited int64 // 入金額の累計（単調増加）
	createdAt     time.Time
	updatedAt     time.Time
}

// NewWallet 残高0の新しいウォレットを作成
func NewWallet(walletID, userID string) (*Wallet, error) {
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	now := time.Now()
	return &Wallet{
		walletID:  walletID,
		userID:    userID,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructWallet 永続化層からウォレットを復元
func ReconstructWallet(walletID, userID string, balance, totalCredited int64, createdAt, updatedAt time.Time) *Wallet {
	return &Wallet{
		walletID:      walletID,
		userID:        userID,
		balance:       balance,
		totalCredited: totalCredited,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// WalletID ウォレットIDを返す
func (w *Wallet) WalletID() string {
	return w.walletID
}

// UserID ユーザーIDを返す
func (w *Wallet) UserID() string {
	return w.userID
}

// Balance 残高を返す
func (w *Wallet) Balance() int64 {
	return w.balance
}

// TotalCredited 入金累計を返す
func (w *Wallet) TotalCredited() int64 {
	return w.totalCredited
}

// CreatedAt 作成日時を返す
func (w *Wallet) CreatedAt() time.Time {
	return w.createdAt
}

// UpdatedAt 更新日時を返す
func (w *Wallet) UpdatedAt() time.Time {
	return w.updatedAt
}

// Credit 入金し、台帳エントリを返す
func (w *Wallet) Credit(transactionID string, amount int64, source Source, refs References, description string) (*Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if source == "" {
		return nil, ErrInvalidSource
	}
	if w.balance+amount > MaxAmount {
		return nil, ErrAmountTooLarge
	}

	before := w.balance
	w.balance += amount
	w.totalCredited += amount
	w.updatedAt = time.Now()

	return newTransaction(transactionID, w.walletID, TransactionTypeCredit, amount, before, w.balance, source, refs, description, w.updatedAt), nil
}

// Debit 出金し、台帳エントリを返す。残高を負にはしない
func (w *Wallet) Debit(transactionID string, amount int64, source Source, refs References, description string) (*Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if source == "" {
		return nil, ErrInvalidSource
	}
	if w.balance < amount {
		return nil, ErrInsufficientBalance
	}

	before := w.balance
	w.balance -= amount
	w.updatedAt = time.Now()

	return newTransaction(transactionID, w.walletID, TransactionTypeDebit, amount, before, w.balance, source, refs, description, w.updatedAt), nil
}

func validateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	return nil
}
