package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"booking-ledger/internal/domain/booking"
	"booking-ledger/internal/domain/commission"
	"booking-ledger/internal/domain/wallet"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

// MockWalletRepository モックウォレットリポジトリ
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) CreateIfAbsent(ctx context.Context, w *wallet.Wallet) (bool, error) {
	args := m.Called(ctx, w)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletRepository) FindByUserID(ctx context.Context, userID string) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) FindByIDForUpdate(ctx context.Context, walletID string) (*wallet.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, w *wallet.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWalletRepository) SaveTransaction(ctx context.Context, t *wallet.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockWalletRepository) FindTransactionsByWalletID(ctx context.Context, walletID string, limit, offset int) ([]*wallet.Transaction, error) {
	args := m.Called(ctx, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wallet.Transaction), args.Error(1)
}

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

// MockCommissionRepository モック手数料リポジトリ
type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) CreateIfAbsent(ctx context.Context, c *commission.Commission) (bool, error) {
	args := m.Called(ctx, c)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommissionRepository) FindByBookingID(ctx context.Context, bookingID string) (*commission.Commission, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Commission), args.Error(1)
}

type mocks struct {
	wallets     *MockWalletRepository
	bookings    *MockBookingRepository
	commissions *MockCommissionRepository
}

func newTestService(t *testing.T) (*HistoryApplicationService, *mocks) {
	t.Helper()
	tracer := otel.Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	m := &mocks{
		wallets:     new(MockWalletRepository),
		bookings:    new(MockBookingRepository),
		commissions: new(MockCommissionRepository),
	}
	return NewHistoryApplicationService(m.wallets, m.bookings, m.commissions, logger, metrics), m
}

func testTransactions() []*wallet.Transaction {
	now := time.Now()
	ref := "ref1"
	return []*wallet.Transaction{
		wallet.ReconstructTransaction("txn2", "wallet1", wallet.TransactionTypeDebit, 20, 150, 130, wallet.SourceAdjustment, wallet.References{}, "", now),
		wallet.ReconstructTransaction("txn1", "wallet1", wallet.TransactionTypeCredit, 150, 0, 150, wallet.SourceReferralBonus, wallet.References{ReferralID: &ref}, "", now.Add(-time.Minute)),
	}
}

func TestHistoryApplicationService_GetWallet(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mocks)
		wantErr    error
	}{
		{
			name: "正常系: ウォレットを取得",
			setupMocks: func(m *mocks) {
				w := wallet.ReconstructWallet("wallet1", "user1", 150, 150, time.Now(), time.Now())
				m.wallets.On("FindByUserID", mock.Anything, "user1").Return(w, nil)
			},
		},
		{
			name: "異常系: ウォレットが存在しない",
			setupMocks: func(m *mocks) {
				m.wallets.On("FindByUserID", mock.Anything, "user1").Return(nil, wallet.ErrWalletNotFound)
			},
			wantErr: wallet.ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newTestService(t)
			tt.setupMocks(m)

			resp, err := service.GetWallet(context.Background(), &GetWalletRequest{UserID: "user1"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(150), resp.Wallet.Balance())
			}
			m.wallets.AssertExpectations(t)
		})
	}
}

func TestHistoryApplicationService_GetWalletTransactions(t *testing.T) {
	tests := []struct {
		name       string
		req        *GetWalletTransactionsRequest
		setupMocks func(*mocks)
		wantIDs    []string
		wantLimit  int
		wantErr    bool
	}{
		{
			name: "正常系: デフォルトのページング",
			req:  &GetWalletTransactionsRequest{UserID: "user1"},
			setupMocks: func(m *mocks) {
				w := wallet.ReconstructWallet("wallet1", "user1", 130, 150, time.Now(), time.Now())
				m.wallets.On("FindByUserID", mock.Anything, "user1").Return(w, nil)
				m.wallets.On("FindTransactionsByWalletID", mock.Anything, "wallet1", 50, 0).Return(testTransactions(), nil)
			},
			wantIDs:   []string{"txn2", "txn1"},
			wantLimit: 50,
		},
		{
			name: "正常系: 上限を超えるlimitは100に丸める",
			req:  &GetWalletTransactionsRequest{UserID: "user1", Limit: 1000, Offset: -5},
			setupMocks: func(m *mocks) {
				w := wallet.ReconstructWallet("wallet1", "user1", 130, 150, time.Now(), time.Now())
				m.wallets.On("FindByUserID", mock.Anything, "user1").Return(w, nil)
				m.wallets.On("FindTransactionsByWalletID", mock.Anything, "wallet1", 100, 0).Return(testTransactions(), nil)
			},
			wantIDs:   []string{"txn2", "txn1"},
			wantLimit: 100,
		},
		{
			name: "正常系: 取引タイプでフィルタ",
			req:  &GetWalletTransactionsRequest{UserID: "user1", TransactionType: "credit"},
			setupMocks: func(m *mocks) {
				w := wallet.ReconstructWallet("wallet1", "user1", 130, 150, time.Now(), time.Now())
				m.wallets.On("FindByUserID", mock.Anything, "user1").Return(w, nil)
				m.wallets.On("FindTransactionsByWalletID", mock.Anything, "wallet1", 50, 0).Return(testTransactions(), nil)
			},
			wantIDs:   []string{"txn1"},
			wantLimit: 50,
		},
		{
			name: "正常系: 取引元でフィルタ",
			req:  &GetWalletTransactionsRequest{UserID: "user1", Source: "adjustment"},
			setupMocks: func(m *mocks) {
				w := wallet.ReconstructWallet("wallet1", "user1", 130, 150, time.Now(), time.Now())
				m.wallets.On("FindByUserID", mock.Anything, "user1").Return(w, nil)
				m.wallets.On("FindTransactionsByWalletID", mock.Anything, "wallet1", 50, 0).Return(testTransactions(), nil)
			},
			wantIDs:   []string{"txn2"},
			wantLimit: 50,
		},
		{
			name: "異常系: ウォレットが存在しない",
			req:  &GetWalletTransactionsRequest{UserID: "user1"},
			setupMocks: func(m *mocks) {
				m.wallets.On("FindByUserID", mock.Anything, "user1").Return(nil, wallet.ErrWalletNotFound)
			},
			wantErr: true,
		},
		{
			name: "異常系: 取得エラー",
			req:  &GetWalletTransactionsRequest{UserID: "user1"},
			setupMocks: func(m *mocks) {
				w := wallet.ReconstructWallet("wallet1", "user1", 130, 150, time.Now(), time.Now())
				m.wallets.On("FindByUserID", mock.Anything, "user1").Return(w, nil)
				m.wallets.On("FindTransactionsByWalletID", mock.Anything, "wallet1", 50, 0).Return(nil, errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newTestService(t)
			tt.setupMocks(m)

			resp, err := service.GetWalletTransactions(context.Background(), tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, resp)
				return
			}
			require.NoError(t, err)

			ids := make([]string, 0, len(resp.Transactions))
			for _, txn := range resp.Transactions {
				ids = append(ids, txn.TransactionID())
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantLimit, resp.Limit)
			assert.Equal(t, "wallet1", resp.WalletID)
			assert.GreaterOrEqual(t, resp.Offset, 0)
			m.wallets.AssertExpectations(t)
		})
	}
}

func TestHistoryApplicationService_GetBooking(t *testing.T) {
	b, err := booking.NewBooking("booking1", "user1", 5000, "INR", "order_1")
	require.NoError(t, err)
	fee := commission.NewCommission("c1", "booking1", "pay_1", decimal.NewFromInt(20), commission.Breakdown{
		GrossAmount:        5000,
		HostShare:          4000,
		PlatformCommission: 1000,
		TaxOnCommission:    180,
		NetCommission:      820,
	})

	tests := []struct {
		name           string
		setupMocks     func(*mocks)
		wantCommission bool
		wantErr        error
	}{
		{
			name: "正常系: 手数料あり",
			setupMocks: func(m *mocks) {
				m.bookings.On("FindByOrderRef", mock.Anything, "order_1").Return(b, nil)
				m.commissions.On("FindByBookingID", mock.Anything, "booking1").Return(fee, nil)
			},
			wantCommission: true,
		},
		{
			name: "正常系: 手数料未記録",
			setupMocks: func(m *mocks) {
				m.bookings.On("FindByOrderRef", mock.Anything, "order_1").Return(b, nil)
				m.commissions.On("FindByBookingID", mock.Anything, "booking1").Return(nil, commission.ErrCommissionNotFound)
			},
		},
		{
			name: "異常系: 予約が存在しない",
			setupMocks: func(m *mocks) {
				m.bookings.On("FindByOrderRef", mock.Anything, "order_1").Return(nil, booking.ErrBookingNotFound)
			},
			wantErr: booking.ErrBookingNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newTestService(t)
			tt.setupMocks(m)

			resp, err := service.GetBooking(context.Background(), &GetBookingRequest{OrderRef: "order_1"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "booking1", resp.Booking.BookingID())
			assert.Equal(t, tt.wantCommission, resp.Commission != nil)
			m.bookings.AssertExpectations(t)
			m.commissions.AssertExpectations(t)
		})
	}
}
