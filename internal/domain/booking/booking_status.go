package booking

import (
	"fmt"
)

// BookingStatus 予約ステータスを表す値オブジェクト
type BookingStatus string

const (
	BookingStatusPending BookingStatus = "pending" // 決済待ち
	BookingStatusPaid    BookingStatus = "paid"    // 決済済み
	BookingStatusFailed  BookingStatus = "failed"  // 決済失敗
)

// NewBookingStatus 文字列からBookingStatusを作成
func NewBookingStatus(s string) (BookingStatus, error) {
	switch s {
	case "pending", "paid", "failed":
		return BookingStatus(s), nil
	default:
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
}

// String 文字列表現を返す
func (s BookingStatus) String() string {
	return string(s)
}

// Valid 有効なステータスかどうかを返す
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusPaid, BookingStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal このパイプラインにおける終端状態かどうかを返す
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusPaid || s == BookingStatusFailed
}

// CanTransitionTo 指定ステータスへ遷移可能かどうかを返す
// 同一ステータスへの遷移は再配信による no-op として許可する
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}
	return s == BookingStatusPending && next.IsTerminal()
}
