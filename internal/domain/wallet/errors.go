package wallet

import "errors"

var (
	// ErrWalletNotFound ウォレットが見つからないエラー
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrInvalidAmount 金額が無効（0以下）
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAmountTooLarge 金額が大きすぎる
	ErrAmountTooLarge = errors.New("amount too large")
	// ErrInsufficientBalance 残高不足
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidSource 取引元が無効
	ErrInvalidSource = errors.New("invalid transaction source")
)
