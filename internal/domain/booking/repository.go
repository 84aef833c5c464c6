package booking

import (
	"context"
	"time"
)

// BookingRepository 予約リポジトリインターフェース
type BookingRepository interface {
	// FindByID 予約IDで予約を取得
	FindByID(ctx context.Context, bookingID string) (*Booking, error)

	// FindByOrderRef ゲートウェイのオーダー参照で予約を取得
	FindByOrderRef(ctx context.Context, orderRef string) (*Booking, error)

	// MarkPaidIfPending pendingの場合のみpaidへ更新する（CAS）。更新した場合はtrueを返す
	MarkPaidIfPending(ctx context.Context, orderRef, paymentRef string, paidAt time.Time) (bool, error)

	// MarkFailedIfPending pendingの場合のみfailedへ更新する（CAS）。更新した場合はtrueを返す
	MarkFailedIfPending(ctx context.Context, orderRef string, failedAt time.Time) (bool, error)
}
