package service

import (
	"context"
	"errors"
	"time"

	"booking-ledger/internal/domain/booking"
)

// BookingStateMachine 予約ステータスの遷移を担うドメインサービス
// 遷移はすべてリポジトリの条件付き更新で行い、読み取り後の書き込みはしない
type BookingStateMachine struct {
	bookingRepo booking.BookingRepository
	now         func() time.Time
}

// NewBookingStateMachine 新しいBookingStateMachineを作成
func NewBookingStateMachine(bookingRepo booking.BookingRepository) *BookingStateMachine {
	return &BookingStateMachine{
		bookingRepo: bookingRepo,
		now:         time.Now,
	}
}

// Transition 遷移の結果
type Transition struct {
	Booking        *booking.Booking
	Transitioned   bool // この呼び出しで遷移した場合にtrue
	AmountMismatch bool // イベントの金額が予約の総額と一致しない
}

// ApplyPaid pending→paidへ遷移する
// 既にpaidの場合は既存の予約をTransitioned=falseで返す
// failedの予約にはErrInvalidTransitionを返し、状態は変更しない
func (s *BookingStateMachine) ApplyPaid(ctx context.Context, orderRef, paymentRef string, amount int64) (*Transition, error) {
	b, transitioned, err := s.applyPaid(ctx, orderRef, paymentRef)
	if b == nil {
		return nil, err
	}
	return &Transition{
		Booking:        b,
		Transitioned:   transitioned,
		AmountMismatch: amount > 0 && amount != b.Amount(),
	}, err
}

func (s *BookingStateMachine) applyPaid(ctx context.Context, orderRef, paymentRef string) (*booking.Booking, bool, error) {
	if orderRef == "" {
		return nil, false, booking.ErrBookingNotFound
	}

	transitioned, err := s.bookingRepo.MarkPaidIfPending(ctx, orderRef, paymentRef, s.now())
	if err != nil {
		return nil, false, err
	}

	b, err := s.bookingRepo.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, false, err
	}

	if transitioned {
		return b, true, nil
	}

	switch b.Status() {
	case booking.BookingStatusPaid:
		return b, false, nil
	case booking.BookingStatusFailed:
		return b, false, booking.ErrInvalidTransition
	default:
		// CASが失敗したのにpendingのままということは起きないはず
		return b, false, errors.New("booking remained pending after conditional update")
	}
}

// ApplyFailed pending→failedへ遷移する。paidの予約には触れない
func (s *BookingStateMachine) ApplyFailed(ctx context.Context, orderRef string) (*Transition, error) {
	if orderRef == "" {
		return nil, booking.ErrBookingNotFound
	}

	transitioned, err := s.bookingRepo.MarkFailedIfPending(ctx, orderRef, s.now())
	if err != nil {
		return nil, err
	}

	b, err := s.bookingRepo.FindByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}

	return &Transition{Booking: b, Transitioned: transitioned}, nil
}
