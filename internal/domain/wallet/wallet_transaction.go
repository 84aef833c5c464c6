package wallet

import (
	"time"
)

// References 取引に紐づく参照
type References struct {
	ReferralID *string
	BookingID  *string
}

// Transaction 追記専用の台帳エントリ
type Transaction struct {
	transactionID   string
	walletID        string
	transactionType TransactionType
	amount          int64
	balanceBefore   int64
	balanceAfter    int64
	source          Source
	referralID      *string
	bookingID       *string
	description     string
	createdAt       time.Time
}

func newTransaction(
	transactionID string,
	walletID string,
	transactionType TransactionType,
	amount int64,
	balanceBefore int64,
	balanceAfter int64,
	source Source,
	refs References,
	description string,
	createdAt time.Time,
) *Transaction {
	return &Transaction{
		transactionID:   transactionID,
		walletID:        walletID,
		transactionType: transactionType,
		amount:          amount,
		balanceBefore:   balanceBefore,
		balanceAfter:    balanceAfter,
		source:          source,
		referralID:      refs.ReferralID,
		bookingID:       refs.BookingID,
		description:     description,
		createdAt:       createdAt,
	}
}

// ReconstructTransaction 永続化層から台帳エントリを復元
func ReconstructTransaction(
	transactionID string,
	walletID string,
	transactionType TransactionType,
	amount int64,
	balanceBefore int64,
	balanceAfter int64,
	source Source,
	refs References,
	description string,
	createdAt time.Time,
) *Transaction {
	return newTransaction(transactionID, walletID, transactionType, amount, balanceBefore, balanceAfter, source, refs, description, createdAt)
}

// TransactionID 取引IDを返す
func (t *Transaction) TransactionID() string {
	return t.transactionID
}

// WalletID ウォレットIDを返す
func (t *Transaction) WalletID() string {
	return t.walletID
}

// TransactionType 取引タイプを返す
func (t *Transaction) TransactionType() TransactionType {
	return t.transactionType
}

// Amount 金額を返す
func (t *Transaction) Amount() int64 {
	return t.amount
}

// BalanceBefore 取引前の残高を返す
func (t *Transaction) BalanceBefore() int64 {
	return t.balanceBefore
}

// BalanceAfter 取引後の残高を返す
func (t *Transaction) BalanceAfter() int64 {
	return t.balanceAfter
}

// Source 取引元を返す
func (t *Transaction) Source() Source {
	return t.source
}

// ReferralID 紹介IDを返す
func (t *Transaction) ReferralID() *string {
	return t.referralID
}

// BookingID 予約IDを返す
func (t *Transaction) BookingID() *string {
	return t.bookingID
}

// Description 説明を返す
func (t *Transaction) Description() string {
	return t.description
}

// CreatedAt 作成日時を返す
func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

// SignedAmount 残高への影響額（出金は負）を返す
func (t *Transaction) SignedAmount() int64 {
	if t.transactionType == TransactionTypeDebit {
		return -t.amount
	}
	return t.amount
}
