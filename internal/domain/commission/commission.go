package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionStatus 手数料ステータス
type CommissionStatus string

const (
	CommissionStatusCollected CommissionStatus = "collected" // 徴収済み
)

// String 文字列表現を返す
func (s CommissionStatus) String() string {
	return string(s)
}

// Commission 決済済み予約1件につき1レコードの手数料エンティティ
// 作成後は更新しない
type Commission struct {
	commissionID       string
	bookingID          string
	grossAmount        int64
	hostShare          int64
	platformCommission int64
	commissionRate     decimal.Decimal
	taxOnCommission    int64
	netCommission      int64
	paymentRef         string
	status             CommissionStatus
	createdAt          time.Time
}

// NewCommission 計算結果から手数料エンティティを作成
func NewCommission(commissionID, bookingID, paymentRef string, rate decimal.Decimal, b Breakdown) *Commission {
	return &Commission{
		commissionID:       commissionID,
		bookingID:          bookingID,
		grossAmount:        b.GrossAmount,
		hostShare:          b.HostShare,
		platformCommission: b.PlatformCommission,
		commissionRate:     rate,
		taxOnCommission:    b.TaxOnCommission,
		netCommission:      b.NetCommission,
		paymentRef:         paymentRef,
		status:             CommissionStatusCollected,
		createdAt:          time.Now(),
	}
}

// ReconstructCommission 永続化層から手数料を復元
func ReconstructCommission(
	commissionID string,
	bookingID string,
	grossAmount int64,
	hostShare int64,
	platformCommission int64,
	commissionRate decimal.Decimal,
	taxOnCommission int64,
	netCommission int64,
	paymentRef string,
	status CommissionStatus,
	createdAt time.Time,
) *Commission {
	return &Commission{
		commissionID:       commissionID,
		bookingID:          bookingID,
		grossAmount:        grossAmount,
		hostShare:          hostShare,
		platformCommission: platformCommission,
		commissionRate:     commissionRate,
		taxOnCommission:    taxOnCommission,
		netCommission:      netCommission,
		paymentRef:         paymentRef,
		status:             status,
		createdAt:          createdAt,
	}
}

func (c *Commission) CommissionID() string            { return c.commissionID }
func (c *Commission) BookingID() string               { return c.bookingID }
func (c *Commission) GrossAmount() int64              { return c.grossAmount }
func (c *Commission) HostShare() int64                { return c.hostShare }
func (c *Commission) PlatformCommission() int64       { return c.platformCommission }
func (c *Commission) CommissionRate() decimal.Decimal { return c.commissionRate }
func (c *Commission) TaxOnCommission() int64          { return c.taxOnCommission }
func (c *Commission) NetCommission() int64            { return c.netCommission }
func (c *Commission) PaymentRef() string              { return c.paymentRef }
func (c *Commission) Status() CommissionStatus        { return c.status }
func (c *Commission) CreatedAt() time.Time            { return c.createdAt }
