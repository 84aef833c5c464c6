package referral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"booking-ledger/internal/application/ledger"
	"booking-ledger/internal/domain/referral"
	"booking-ledger/internal/domain/transaction"
	"booking-ledger/internal/domain/wallet"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

// WalletLedger 紹介報酬が利用するウォレット操作
type WalletLedger interface {
	EnsureWallet(ctx context.Context, userID string) (*wallet.Wallet, bool, error)
	Credit(ctx context.Context, req *ledger.CreditRequest) (*ledger.CreditResponse, error)
}

// RewardApplicationService 紹介報酬アプリケーションサービス
type RewardApplicationService struct {
	referralRepo referral.ReferralRepository
	ledger       WalletLedger
	txManager    transaction.TransactionManager
	logger       *otelinfra.Logger
	metrics      *otelinfra.Metrics
	tracer       trace.Tracer
	now          func() time.Time
}

// NewRewardApplicationService 新しいRewardApplicationServiceを作成
func NewRewardApplicationService(
	referralRepo referral.ReferralRepository,
	ledger WalletLedger,
	txManager transaction.TransactionManager,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *RewardApplicationService {
	return &RewardApplicationService{
		referralRepo: referralRepo,
		ledger:       ledger,
		txManager:    txManager,
		logger:       logger,
		metrics:      metrics,
		tracer:       otel.Tracer("referral-service"),
		now:          time.Now,
	}
}

// RewardOnFirstWallet 被紹介者のウォレットが初めて作成されたときに紹介報酬を付与する
// signed_upの紹介がなければ何もしない（nil, nil）
// ステータス更新と両者への入金は同じトランザクションで行う
func (s *RewardApplicationService) RewardOnFirstWallet(ctx context.Context, userID, bookingID string) (*RewardResult, error) {
	ctx, span := s.tracer.Start(ctx, "RewardApplicationService.RewardOnFirstWallet")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("booking_id", bookingID),
	)

	var result *RewardResult
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		ref, err := s.referralRepo.FindSignedUpByReferredUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, referral.ErrReferralNotFound) {
				return nil
			}
			return fmt.Errorf("failed to find referral: %w", err)
		}

		flipped, err := s.referralRepo.MarkRewardedIfSignedUp(ctx, ref.ReferralID(), bookingID, s.now())
		if err != nil {
			return fmt.Errorf("failed to mark referral rewarded: %w", err)
		}
		if !flipped {
			// 並行する配信が先に付与した
			return nil
		}

		result = &RewardResult{
			ReferralID:     ref.ReferralID(),
			ReferrerID:     ref.ReferrerID(),
			ReferredUserID: ref.ReferredUserID(),
			BookingID:      bookingID,
			ReferrerReward: ref.ReferrerReward(),
			ReferredReward: ref.ReferredReward(),
		}

		walletID, balance, err := s.creditUser(ctx, ref.ReferredUserID(), ref.ReferredReward(), ref.ReferralID(), bookingID, "referral bonus (referred)")
		if err != nil {
			return err
		}
		result.ReferredWalletID, result.ReferredBalanceNow = walletID, balance

		walletID, balance, err = s.creditUser(ctx, ref.ReferrerID(), ref.ReferrerReward(), ref.ReferralID(), bookingID, "referral bonus (referrer)")
		if err != nil {
			return err
		}
		result.ReferrerWalletID, result.ReferrerBalanceNow = walletID, balance

		rewarded := *result
		transaction.AfterCommit(ctx, func() {
			s.metrics.RecordReferralReward(ctx)
			s.logger.Info(ctx, "Referral rewarded", map[string]interface{}{
				"referral_id":     rewarded.ReferralID,
				"referrer_id":     rewarded.ReferrerID,
				"referred_user":   rewarded.ReferredUserID,
				"booking_id":      bookingID,
				"referrer_reward": rewarded.ReferrerReward,
				"referred_reward": rewarded.ReferredReward,
			})
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to reward referral", err, map[string]interface{}{
			"user_id":    userID,
			"booking_id": bookingID,
		})
		return nil, err
	}

	if result == nil {
		span.SetAttributes(attribute.Bool("rewarded", false))
		return nil, nil
	}

	span.SetAttributes(
		attribute.Bool("rewarded", true),
		attribute.String("referral_id", result.ReferralID),
	)
	return result, nil
}

// creditUser ウォレットを用意して報酬を入金する。報酬0の場合は入金しない
func (s *RewardApplicationService) creditUser(ctx context.Context, userID string, amount int64, referralID, bookingID, description string) (string, int64, error) {
	w, _, err := s.ledger.EnsureWallet(ctx, userID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to ensure wallet for %s: %w", userID, err)
	}
	if amount <= 0 {
		return w.WalletID(), w.Balance(), nil
	}

	resp, err := s.ledger.Credit(ctx, &ledger.CreditRequest{
		WalletID:    w.WalletID(),
		Amount:      amount,
		Source:      wallet.SourceReferralBonus,
		ReferralID:  referralID,
		BookingID:   bookingID,
		Description: description,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to credit referral bonus to %s: %w", userID, err)
	}
	return resp.WalletID, resp.BalanceAfter, nil
}
