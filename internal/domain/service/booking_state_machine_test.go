package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"booking-ledger/internal/domain/booking"
)

// MockBookingRepository モック予約リポジトリ
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) FindByID(ctx context.Context, bookingID string) (*booking.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByOrderRef(ctx context.Context, orderRef string) (*booking.Booking, error) {
	args := m.Called(ctx, orderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) MarkPaidIfPending(ctx context.Context, orderRef, paymentRef string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, orderRef, paymentRef, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) MarkFailedIfPending(ctx context.Context, orderRef string, failedAt time.Time) (bool, error) {
	args := m.Called(ctx, orderRef, failedAt)
	return args.Bool(0), args.Error(1)
}

func bookingWithStatus(status booking.BookingStatus) *booking.Booking {
	now := time.Now()
	var paymentRef *string
	var paidAt *time.Time
	if status == booking.BookingStatusPaid {
		ref := "pay_first"
		paymentRef = &ref
		paidAt = &now
	}
	return booking.ReconstructBooking("bk_1", "user_1", nil, nil, 5000, "INR", "order_1", paymentRef, status, paidAt, now, now)
}

func TestBookingStateMachine_ApplyPaid(t *testing.T) {
	tests := []struct {
		name             string
		orderRef         string
		amount           int64
		setupMocks       func(*MockBookingRepository)
		wantErr          error
		wantAnyErr       bool
		wantTransitioned bool
		wantMismatch     bool
		wantNilResult    bool
	}{
		{
			name:     "正常系: pendingからpaidへ遷移",
			orderRef: "order_1",
			amount:   5000,
			setupMocks: func(m *MockBookingRepository) {
				m.On("MarkPaidIfPending", mock.Anything, "order_1", "pay_1", mock.Anything).Return(true, nil)
				m.On("FindByOrderRef", mock.Anything, "order_1").Return(bookingWithStatus(booking.BookingStatusPaid), nil)
			},
			wantTransitioned: true,
		},
		{
			name:     "正常系: 既にpaidなら何もしない",
			orderRef: "order_1",
			amount:   5000,
			setupMocks: func(m *MockBookingRepository) {
				m.On("MarkPaidIfPending", mock.Anything, "order_1", "pay_1", mock.Anything).Return(false, nil)
				m.On("FindByOrderRef", mock.Anything, "order_1").Return(bookingWithStatus(booking.BookingStatusPaid), nil)
			},
		},
		{
			name:     "正常系: 金額不一致を検知",
			orderRef: "order_1",
			amount:   4999,
			setupMocks: func(m *MockBookingRepository) {
				m.On("MarkPaidIfPending", mock.Anything, "order_1", "pay_1", mock.Anything).Return(true, nil)
				m.On("FindByOrderRef", mock.Anything, "order_1").Return(bookingWithStatus(booking.BookingStatusPaid), nil)
			},
			wantTransitioned: true,
			wantMismatch:     true,
		},
		{
			name:     "異常系: failedの予約はpaidにしない",
			orderRef: "order_1",
			amount:   5000,
			setupMocks: func(m *MockBookingRepository) {
				m.On("MarkPaidIfPending", mock.Anything, "order_1", "pay_1", mock.Anything).Return(false, nil)
				m.On("FindByOrderRef", mock.Anything, "order_1").Return(bookingWithStatus(booking.BookingStatusFailed), nil)
			},
			wantErr: booking.ErrInvalidTransition,
		},
		{
			name:     "異常系: 予約が存在しない",
			orderRef: "order_missing",
			amount:   5000,
			setupMocks: func(m *MockBookingRepository) {
				m.On("MarkPaidIfPending", mock.Anything, "order_missing", "pay_1", mock.Anything).Return(false, nil)
				m.On("FindByOrderRef", mock.Anything, "order_missing").Return(nil, booking.ErrBookingNotFound)
			},
			wantErr:       booking.ErrBookingNotFound,
			wantNilResult: true,
		},
		{
			name:          "異常系: オーダー参照が空",
			orderRef:      "",
			setupMocks:    func(m *MockBookingRepository) {},
			wantErr:       booking.ErrBookingNotFound,
			wantNilResult: true,
		},
		{
			name:     "異常系: 更新エラー",
			orderRef: "order_1",
			setupMocks: func(m *MockBookingRepository) {
				m.On("MarkPaidIfPending", mock.Anything, "order_1", "pay_1", mock.Anything).Return(false, errors.New("database error"))
			},
			wantAnyErr:    true,
			wantNilResult: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockBookingRepository)
			tt.setupMocks(mockRepo)

			sm := NewBookingStateMachine(mockRepo)
			got, err := sm.ApplyPaid(context.Background(), tt.orderRef, "pay_1", tt.amount)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAnyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
			}

			if tt.wantNilResult {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, tt.wantTransitioned, got.Transitioned)
				assert.Equal(t, tt.wantMismatch, got.AmountMismatch)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestBookingStateMachine_ApplyFailed(t *testing.T) {
	tests := []struct {
		name             string
		setupMocks       func(*MockBookingRepository)
		wantStatus       booking.BookingStatus
		wantTransitioned bool
		wantErr          error
	}{
		{
			name: "正常系: pendingからfailedへ遷移",
			setupMocks: func(m *MockBookingRepository) {
				m.On("MarkFailedIfPending", mock.Anything, "order_1", mock.Anything).Return(true, nil)
				m.On("FindByOrderRef", mock.Anything, "order_1").Return(bookingWithStatus(booking.BookingStatusFailed), nil)
			},
			wantStatus:       booking.BookingStatusFailed,
			wantTransitioned: true,
		},
		{
			name: "正常系: paidの予約は変更しない",
			setupMocks: func(m *MockBookingRepository) {
				m.On("MarkFailedIfPending", mock.Anything, "order_1", mock.Anything).Return(false, nil)
				m.On("FindByOrderRef", mock.Anything, "order_1").Return(bookingWithStatus(booking.BookingStatusPaid), nil)
			},
			wantStatus: booking.BookingStatusPaid,
		},
		{
			name: "異常系: 予約が存在しない",
			setupMocks: func(m *MockBookingRepository) {
				m.On("MarkFailedIfPending", mock.Anything, "order_1", mock.Anything).Return(false, nil)
				m.On("FindByOrderRef", mock.Anything, "order_1").Return(nil, booking.ErrBookingNotFound)
			},
			wantErr: booking.ErrBookingNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockBookingRepository)
			tt.setupMocks(mockRepo)

			sm := NewBookingStateMachine(mockRepo)
			got, err := sm.ApplyFailed(context.Background(), "order_1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Booking.Status())
			assert.Equal(t, tt.wantTransitioned, got.Transitioned)
			mockRepo.AssertExpectations(t)
		})
	}
}

// casBookingRepository 条件付き更新を再現するインメモリ予約リポジトリ
type casBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*booking.Booking
}

func (r *casBookingRepository) FindByID(ctx context.Context, bookingID string) (*booking.Booking, error) {
	return nil, booking.ErrBookingNotFound
}

func (r *casBookingRepository) FindByOrderRef(ctx context.Context, orderRef string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[orderRef]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *casBookingRepository) MarkPaidIfPending(ctx context.Context, orderRef, paymentRef string, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[orderRef]
	if !ok || !b.IsPending() {
		return false, nil
	}
	return true, b.MarkPaid(paymentRef, paidAt)
}

func (r *casBookingRepository) MarkFailedIfPending(ctx context.Context, orderRef string, failedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[orderRef]
	if !ok || !b.IsPending() {
		return false, nil
	}
	return true, b.MarkFailed(failedAt)
}

func TestBookingStateMachine_ConcurrentDelivery(t *testing.T) {
	b, err := booking.NewBooking("bk_1", "user_1", 5000, "INR", "order_1")
	require.NoError(t, err)
	repo := &casBookingRepository{bookings: map[string]*booking.Booking{"order_1": b}}
	sm := NewBookingStateMachine(repo)

	const deliveries = 20
	var transitions atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var result *Transition
			var err error
			if i%4 == 3 {
				result, err = sm.ApplyFailed(context.Background(), "order_1")
			} else {
				result, err = sm.ApplyPaid(context.Background(), "order_1", "pay_1", 5000)
			}
			if err == nil && result.Transitioned {
				transitions.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), transitions.Load())
	final, err := repo.FindByOrderRef(context.Background(), "order_1")
	require.NoError(t, err)
	assert.True(t, final.Status().IsTerminal())

	// 終端状態になった後の再配信では何も変わらない
	paidAtBefore := final.PaidAt()
	_, _ = sm.ApplyPaid(context.Background(), "order_1", "pay_2", 5000)
	_, _ = sm.ApplyFailed(context.Background(), "order_1")
	again, err := repo.FindByOrderRef(context.Background(), "order_1")
	require.NoError(t, err)
	assert.Equal(t, final.Status(), again.Status())
	assert.Equal(t, paidAtBefore, again.PaidAt())
	if again.IsPaid() {
		assert.Equal(t, "pay_1", *again.PaymentRef())
	}
}
