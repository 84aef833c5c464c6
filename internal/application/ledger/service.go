package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"booking-ledger/internal/domain/transaction"
	"booking-ledger/internal/domain/wallet"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

// LedgerApplicationService ウォレット台帳アプリケーションサービス
type LedgerApplicationService struct {
	walletRepo wallet.WalletRepository
	txManager  transaction.TransactionManager
	logger     *otelinfra.Logger
	metrics    *otelinfra.Metrics
	tracer     trace.Tracer
	newID      func() string
}

// NewLedgerApplicationService 新しいLedgerApplicationServiceを作成
func NewLedgerApplicationService(
	walletRepo wallet.WalletRepository,
	txManager transaction.TransactionManager,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *LedgerApplicationService {
	return &LedgerApplicationService{
		walletRepo: walletRepo,
		txManager:  txManager,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer("ledger-service"),
		newID:      uuid.NewString,
	}
}

// EnsureWallet ウォレットを取得し、なければ残高0で作成する
// 戻り値のboolはこの呼び出しで作成した場合にtrue
func (s *LedgerApplicationService) EnsureWallet(ctx context.Context, userID string) (*wallet.Wallet, bool, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.EnsureWallet")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	candidate, err := wallet.NewWallet(s.newID(), userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, false, err
	}

	created, err := s.walletRepo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, false, fmt.Errorf("failed to create wallet: %w", err)
	}

	w, err := s.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, false, fmt.Errorf("failed to find wallet: %w", err)
	}

	if created {
		walletID := w.WalletID()
		transaction.AfterCommit(ctx, func() {
			s.logger.Info(ctx, "Wallet created", map[string]interface{}{
				"user_id":   userID,
				"wallet_id": walletID,
			})
		})
	}

	span.SetAttributes(
		attribute.String("wallet_id", w.WalletID()),
		attribute.Bool("created", created),
	)
	return w, created, nil
}

// Credit ウォレットの行ロックを取得して入金し、台帳エントリを追記する
func (s *LedgerApplicationService) Credit(ctx context.Context, req *CreditRequest) (*CreditResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.Credit")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", req.WalletID),
		attribute.Int64("amount", req.Amount),
		attribute.String("source", req.Source.String()),
	)

	if req.Amount <= 0 {
		err := fmt.Errorf("%w: %d", wallet.ErrInvalidAmount, req.Amount)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	refs := wallet.References{}
	if req.ReferralID != "" {
		referralID := req.ReferralID
		refs.ReferralID = &referralID
	}
	if req.BookingID != "" {
		bookingID := req.BookingID
		refs.BookingID = &bookingID
	}

	var resp *CreditResponse
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		w, err := s.walletRepo.FindByIDForUpdate(ctx, req.WalletID)
		if err != nil {
			return fmt.Errorf("failed to lock wallet: %w", err)
		}

		txn, err := w.Credit(s.newID(), req.Amount, req.Source, refs, req.Description)
		if err != nil {
			return err
		}

		if err := s.walletRepo.SaveTransaction(ctx, txn); err != nil {
			return fmt.Errorf("failed to save wallet transaction: %w", err)
		}
		if err := s.walletRepo.UpdateBalance(ctx, w); err != nil {
			return fmt.Errorf("failed to update wallet balance: %w", err)
		}

		resp = &CreditResponse{
			TransactionID: txn.TransactionID(),
			WalletID:      w.WalletID(),
			Amount:        txn.Amount(),
			BalanceBefore: txn.BalanceBefore(),
			BalanceAfter:  txn.BalanceAfter(),
		}
		credited := *resp
		// 外側のトランザクションに合流している場合はそのコミット後に記録する
		transaction.AfterCommit(ctx, func() {
			s.metrics.RecordWalletCredit(ctx, req.Source.String(), credited.Amount)
			s.logger.Info(ctx, "Wallet credited", map[string]interface{}{
				"wallet_id":      credited.WalletID,
				"transaction_id": credited.TransactionID,
				"amount":         credited.Amount,
				"balance_after":  credited.BalanceAfter,
				"source":         req.Source.String(),
			})
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to credit wallet", err, map[string]interface{}{
			"wallet_id": req.WalletID,
			"amount":    req.Amount,
			"source":    req.Source.String(),
		})
		return nil, err
	}

	return resp, nil
}
