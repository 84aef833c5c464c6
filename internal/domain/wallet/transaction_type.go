package wallet

import (
	"fmt"
)

// TransactionType ウォレット取引タイプを表す値オブジェクト
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit" // 入金
	TransactionTypeDebit  TransactionType = "debit"  // 出金
)

// NewTransactionType 新しいTransactionTypeを作成
func NewTransactionType(s string) (TransactionType, error) {
	switch s {
	case "credit", "debit":
		return TransactionType(s), nil
	default:
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
}

// String 文字列表現を返す
func (tt TransactionType) String() string {
	return string(tt)
}

// Valid 有効なトランザクションタイプかどうかを返す
func (tt TransactionType) Valid() bool {
	return tt == TransactionTypeCredit || tt == TransactionTypeDebit
}

// Source 取引元
type Source string

const (
	SourceReferralBonus Source = "referral_bonus" // 紹介報酬
	SourceWelcomeBonus  Source = "welcome_bonus"  // 登録ボーナス
	SourceAdjustment    Source = "adjustment"     // 手動調整
)

// String 文字列表現を返す
func (s Source) String() string {
	return string(s)
}
