package history

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"booking-ledger/internal/domain/booking"
	"booking-ledger/internal/domain/commission"
	"booking-ledger/internal/domain/wallet"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// HistoryApplicationService ウォレットと予約の参照アプリケーションサービス
type HistoryApplicationService struct {
	walletRepo     wallet.WalletRepository
	bookingRepo    booking.BookingRepository
	commissionRepo commission.CommissionRepository
	logger         *otelinfra.Logger
	metrics        *otelinfra.Metrics
	tracer         trace.Tracer
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(
	walletRepo wallet.WalletRepository,
	bookingRepo booking.BookingRepository,
	commissionRepo commission.CommissionRepository,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *HistoryApplicationService {
	return &HistoryApplicationService{
		walletRepo:     walletRepo,
		bookingRepo:    bookingRepo,
		commissionRepo: commissionRepo,
		logger:         logger,
		metrics:        metrics,
		tracer:         otel.Tracer("history-service"),
	}
}

// GetWallet ユーザーのウォレットを取得
func (s *HistoryApplicationService) GetWallet(ctx context.Context, req *GetWalletRequest) (*GetWalletResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetWallet")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", req.UserID))

	w, err := s.walletRepo.FindByUserID(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if !errors.Is(err, wallet.ErrWalletNotFound) {
			s.logger.Error(ctx, "Failed to get wallet", err, map[string]interface{}{
				"user_id": req.UserID,
			})
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &GetWalletResponse{Wallet: w}, nil
}

// GetWalletTransactions ユーザーの台帳履歴を新しい順に取得
func (s *HistoryApplicationService) GetWalletTransactions(ctx context.Context, req *GetWalletTransactionsRequest) (*GetWalletTransactionsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetWalletTransactions")
	defer span.End()

	// バリデーション
	if req.Limit <= 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > maxLimit {
		req.Limit = maxLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int("limit", req.Limit),
		attribute.Int("offset", req.Offset),
	)

	s.logger.Debug(ctx, "Getting wallet transactions", map[string]interface{}{
		"user_id":          req.UserID,
		"limit":            req.Limit,
		"offset":           req.Offset,
		"transaction_type": req.TransactionType,
		"source":           req.Source,
	})

	w, err := s.walletRepo.FindByUserID(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	transactions, err := s.walletRepo.FindTransactionsByWalletID(ctx, w.WalletID(), req.Limit, req.Offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to get wallet transactions", err, map[string]interface{}{
			"user_id":   req.UserID,
			"wallet_id": w.WalletID(),
		})
		return nil, fmt.Errorf("failed to get wallet transactions: %w", err)
	}

	// フィルタリング
	filtered := make([]*wallet.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		if req.TransactionType != "" {
			transactionType, err := wallet.NewTransactionType(req.TransactionType)
			if err == nil && txn.TransactionType() != transactionType {
				continue
			}
		}
		if req.Source != "" && txn.Source().String() != req.Source {
			continue
		}
		filtered = append(filtered, txn)
	}

	return &GetWalletTransactionsResponse{
		WalletID:     w.WalletID(),
		Transactions: filtered,
		Total:        len(filtered), // TODO: COUNT(*)で総件数を返す
		Limit:        req.Limit,
		Offset:       req.Offset,
	}, nil
}

// GetBooking オーダー参照で予約と手数料を取得
func (s *HistoryApplicationService) GetBooking(ctx context.Context, req *GetBookingRequest) (*GetBookingResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetBooking")
	defer span.End()

	span.SetAttributes(attribute.String("order_ref", req.OrderRef))

	b, err := s.bookingRepo.FindByOrderRef(ctx, req.OrderRef)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	resp := &GetBookingResponse{Booking: b}
	c, err := s.commissionRepo.FindByBookingID(ctx, b.BookingID())
	switch {
	case err == nil:
		resp.Commission = c
	case errors.Is(err, commission.ErrCommissionNotFound):
	default:
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}

	return resp, nil
}
