package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// EventKind イベント種別
type EventKind string

const (
	EventKindOrderPaid     EventKind = "order.paid"     // 決済完了
	EventKindPaymentFailed EventKind = "payment.failed" // 決済失敗
)

// String 文字列表現を返す
func (k EventKind) String() string {
	return string(k)
}

// Envelope ゲートウェイのイベントエンベロープ
type Envelope struct {
	Event     EventKind `json:"event"`
	AccountID string    `json:"account_id,omitempty"`
	CreatedAt int64     `json:"created_at,omitempty"`
	Payload   Payload   `json:"payload"`
}

// Payload イベントに含まれるエンティティ
type Payload struct {
	Payment *PaymentWrapper `json:"payment,omitempty"`
	Order   *OrderWrapper   `json:"order,omitempty"`
}

// PaymentWrapper 決済エンティティのラッパー
type PaymentWrapper struct {
	Entity PaymentEntity `json:"entity"`
}

// OrderWrapper オーダーエンティティのラッパー
type OrderWrapper struct {
	Entity OrderEntity `json:"entity"`
}

// PaymentEntity 決済エンティティ
type PaymentEntity struct {
	ID       string `json:"id" validate:"required"`
	OrderID  string `json:"order_id" validate:"required"`
	Amount   int64  `json:"amount" validate:"gte=0"`
	Currency string `json:"currency"`
	Status   string `json:"status,omitempty"`
	Method   string `json:"method,omitempty"`
	Email    string `json:"email,omitempty"`
	Contact  string `json:"contact,omitempty"`
}

// OrderEntity オーダーエンティティ
type OrderEntity struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Event 解析済みのイベント
type Event struct {
	Kind    EventKind
	Payment *PaymentEntity // 参照が欠けている場合はnil
}

// Actionable 状態遷移を伴う処理対象かどうかを返す
func (e *Event) Actionable() bool {
	if e.Payment == nil {
		return false
	}
	return e.Kind == EventKindOrderPaid || e.Kind == EventKindPaymentFailed
}

// Key 重複検知用のキーを返す
func (e *Event) Key() string {
	if e.Payment == nil {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s", e.Kind, e.Payment.OrderID, e.Payment.ID)
}

var validate = validator.New()

// ParseEvent 認証済みの生ボディをイベントに変換する
// JSONとして不正な場合のみエラーとし、必須参照の欠落はPaymentをnilとして返す
func ParseEvent(rawBody []byte) (*Event, error) {
	var env Envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}

	event := &Event{Kind: env.Event}
	if env.Payload.Payment == nil {
		return event, nil
	}

	entity := env.Payload.Payment.Entity
	// order.paidではorderエンティティ側にのみIDが入っている場合がある
	if entity.OrderID == "" && env.Payload.Order != nil {
		entity.OrderID = env.Payload.Order.Entity.ID
	}
	if err := validate.Struct(entity); err != nil {
		return event, nil
	}

	event.Payment = &entity
	return event, nil
}
