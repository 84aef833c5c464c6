package notification

// BookingPaidNotification 予約確定通知の内容
type BookingPaidNotification struct {
	BookingID       string
	UserID          string
	Amount          int64
	Currency        string
	OrderRef        string
	PaymentRef      string
	CustomerEmail   string
	CustomerContact string
}
