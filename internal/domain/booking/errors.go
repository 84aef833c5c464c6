package booking

import "errors"

var (
	// ErrBookingNotFound 予約が見つからないエラー
	ErrBookingNotFound = errors.New("booking not found")
	// ErrInvalidTransition 許可されていないステータス遷移
	ErrInvalidTransition = errors.New("invalid booking status transition")
	// ErrInvalidBooking 無効な予約
	ErrInvalidBooking = errors.New("invalid booking")
)
