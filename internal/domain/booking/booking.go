package booking

import (
	"time"
)

// Booking 予約エンティティ（パッケージまたは宿泊の購入）
type Booking struct {
	bookingID  string
	userID     string
	propertyID *string
	packageID  *string
	amount     int64 // 総額（最小通貨単位）
	currency   string
	orderRef   string  // ゲートウェイのオーダー参照
	paymentRef *string // ゲートウェイの決済参照
	status     BookingStatus
	paidAt     *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewBooking 新しいpendingの予約を作成
func NewBooking(bookingID, userID string, amount int64, currency, orderRef string) (*Booking, error) {
	if bookingID == "" || userID == "" || orderRef == "" {
		return nil, ErrInvalidBooking
	}
	if amount <= 0 {
		return nil, ErrInvalidBooking
	}

	now := time.Now()
	return &Booking{
		bookingID: bookingID,
		userID:    userID,
		amount:    amount,
		currency:  currency,
		orderRef:  orderRef,
		status:    BookingStatusPending,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructBooking 永続化層から予約を復元
func ReconstructBooking(
	bookingID string,
	userID string,
	propertyID *string,
	packageID *string,
	amount int64,
	currency string,
	orderRef string,
	paymentRef *string,
	status BookingStatus,
	paidAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		bookingID:  bookingID,
		userID:     userID,
		propertyID: propertyID,
		packageID:  packageID,
		amount:     amount,
		currency:   currency,
		orderRef:   orderRef,
		paymentRef: paymentRef,
		status:     status,
		paidAt:     paidAt,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// BookingID 予約IDを返す
func (b *Booking) BookingID() string {
	return b.bookingID
}

// UserID 予約者のユーザーIDを返す
func (b *Booking) UserID() string {
	return b.userID
}

// PropertyID 物件IDを返す
func (b *Booking) PropertyID() *string {
	return b.propertyID
}

// PackageID パッケージIDを返す
func (b *Booking) PackageID() *string {
	return b.packageID
}

// Amount 総額を返す
func (b *Booking) Amount() int64 {
	return b.amount
}

// Currency 通貨コードを返す
func (b *Booking) Currency() string {
	return b.currency
}

// OrderRef オーダー参照を返す
func (b *Booking) OrderRef() string {
	return b.orderRef
}

// PaymentRef 決済参照を返す
func (b *Booking) PaymentRef() *string {
	return b.paymentRef
}

// Status ステータスを返す
func (b *Booking) Status() BookingStatus {
	return b.status
}

// PaidAt 決済日時を返す
func (b *Booking) PaidAt() *time.Time {
	return b.paidAt
}

// CreatedAt 作成日時を返す
func (b *Booking) CreatedAt() time.Time {
	return b.createdAt
}

// UpdatedAt 更新日時を返す
func (b *Booking) UpdatedAt() time.Time {
	return b.updatedAt
}

// SetPropertyID 物件IDを設定
func (b *Booking) SetPropertyID(id string) {
	b.propertyID = &id
}

// SetPackageID パッケージIDを設定
func (b *Booking) SetPackageID(id string) {
	b.packageID = &id
}

// MarkPaid pending→paidへ遷移する。既にpaidの場合は何もしない
func (b *Booking) MarkPaid(paymentRef string, at time.Time) error {
	if !b.status.CanTransitionTo(BookingStatusPaid) {
		return ErrInvalidTransition
	}
	if b.status == BookingStatusPaid {
		return nil
	}
	b.status = BookingStatusPaid
	b.paymentRef = &paymentRef
	b.paidAt = &at
	b.updatedAt = at
	return nil
}

// MarkFailed pending→failedへ遷移する。既にfailedの場合は何もしない
func (b *Booking) MarkFailed(at time.Time) error {
	if !b.status.CanTransitionTo(BookingStatusFailed) {
		return ErrInvalidTransition
	}
	if b.status == BookingStatusFailed {
		return nil
	}
	b.status = BookingStatusFailed
	b.updatedAt = at
	return nil
}

// IsPending 決済待ちかどうかを返す
func (b *Booking) IsPending() bool {
	return b.status == BookingStatusPending
}

// IsPaid 決済済みかどうかを返す
func (b *Booking) IsPaid() bool {
	return b.status == BookingStatusPaid
}
