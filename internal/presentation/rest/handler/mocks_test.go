package handler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	historyapp "booking-ledger/internal/application/history"
	webhookapp "booking-ledger/internal/application/webhook"
	"booking-ledger/internal/domain/booking"
	"booking-ledger/internal/domain/commission"
	"booking-ledger/internal/domain/wallet"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
	restmiddleware "booking-ledger/internal/presentation/rest/middleware"
)

// MockWebhookProcessor モックWebhook処理サービス
type MockWebhookProcessor struct {
	mock.Mock
}

func (m *MockWebhookProcessor) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*webhookapp.HandleResult, error) {
	args := m.Called(ctx, rawBody, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhookapp.HandleResult), args.Error(1)
}

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

type historyMocks struct {
	wallets     *MockWalletRepository
	bookings    *MockBookingRepository
	commissions *MockCommissionRepository
}

// newTestLogger テスト用のロガーとメトリクスを作成
func newTestLogger(t *testing.T) (*otelinfra.Logger, *otelinfra.Metrics) {
	t.Helper()
	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
	logger.SetOutput(io.Discard)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)
	return logger, metrics
}

// newHistoryService モックリポジトリで参照サービスを作成
func newHistoryService(t *testing.T) (*historyapp.HistoryApplicationService, *historyMocks) {
	t.Helper()
	logger, metrics := newTestLogger(t)
	m := &historyMocks{
		wallets:     new(MockWalletRepository),
		bookings:    new(MockBookingRepository),
		commissions: new(MockCommissionRepository),
	}
	return historyapp.NewHistoryApplicationService(m.wallets, m.bookings, m.commissions, logger, metrics), m
}

// serve エラーハンドリングミドルウェア越しにハンドラーを実行
func serve(t *testing.T, c echo.Context, h echo.HandlerFunc) {
	t.Helper()
	logger, _ := newTestLogger(t)
	err := restmiddleware.ErrorHandlerMiddleware(logger)(h)(c)
	require.NoError(t, err)
}
