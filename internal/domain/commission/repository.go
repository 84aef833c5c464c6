package commission

import (
	"context"
)

// CommissionRepository 手数料リポジトリインターフェース
type CommissionRepository interface {
	// CreateIfAbsent booking_idの一意制約を利用して挿入する。挿入した場合はtrue、既に存在した場合はfalse
	CreateIfAbsent(ctx context.Context, c *Commission) (bool, error)

	// FindByBookingID 予約IDで手数料を取得
	FindByBookingID(ctx context.Context, bookingID string) (*Commission, error)
}
