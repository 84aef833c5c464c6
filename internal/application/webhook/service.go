package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"booking-ledger/internal/application/notification"
	"booking-ledger/internal/application/referral"
	"booking-ledger/internal/domain/booking"
	"booking-ledger/internal/domain/commission"
	"booking-ledger/internal/domain/service"
	"booking-ledger/internal/domain/transaction"
	"booking-ledger/internal/domain/wallet"
	"booking-ledger/internal/domain/webhook"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

// WalletProvisioner 予約ユーザーのウォレットを用意する
type WalletProvisioner interface {
	EnsureWallet(ctx context.Context, userID string) (*wallet.Wallet, bool, error)
}

// ReferralRewarder 初回ウォレット作成時の紹介報酬
type ReferralRewarder interface {
	RewardOnFirstWallet(ctx context.Context, userID, bookingID string) (*referral.RewardResult, error)
}

// BookingNotifier 予約確定通知（非同期）
type BookingNotifier interface {
	NotifyBookingPaid(ctx context.Context, n notification.BookingPaidNotification)
}

// WebhookApplicationService 決済ゲートウェイWebhookアプリケーションサービス
type WebhookApplicationService struct {
	verifier       *webhook.Verifier
	stateMachine   *service.BookingStateMachine
	calculator     *commission.Calculator
	commissionRepo commission.CommissionRepository
	wallets        WalletProvisioner
	rewarder       ReferralRewarder
	notifier       BookingNotifier
	replayCache    ReplayCache
	txManager      transaction.TransactionManager
	logger         *otelinfra.Logger
	metrics        *otelinfra.Metrics
	tracer         trace.Tracer
	newID          func() string
}

// NewWebhookApplicationService 新しいWebhookApplicationServiceを作成
// replayCacheがnilの場合はキャッシュなしで動作する
func NewWebhookApplicationService(
	verifier *webhook.Verifier,
	stateMachine *service.BookingStateMachine,
	calculator *commission.Calculator,
	commissionRepo commission.CommissionRepository,
	wallets WalletProvisioner,
	rewarder ReferralRewarder,
	notifier BookingNotifier,
	replayCache ReplayCache,
	txManager transaction.TransactionManager,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *WebhookApplicationService {
	if replayCache == nil {
		replayCache = NopReplayCache{}
	}
	return &WebhookApplicationService{
		verifier:       verifier,
		stateMachine:   stateMachine,
		calculator:     calculator,
		commissionRepo: commissionRepo,
		wallets:        wallets,
		rewarder:       rewarder,
		notifier:       notifier,
		replayCache:    replayCache,
		txManager:      txManager,
		logger:         logger,
		metrics:        metrics,
		tracer:         otel.Tracer("webhook-service"),
		newID:          uuid.NewString,
	}
}

// HandleWebhook 署名を検証し、イベント種別に応じて処理する
// 戻り値のエラーは署名不正・ペイロード不正・設定不備・一時的なストア障害のみ
func (s *WebhookApplicationService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (*HandleResult, error) {
	ctx, span := s.tracer.Start(ctx, "WebhookApplicationService.HandleWebhook")
	defer span.End()

	if err := s.verifier.Verify(rawBody, signature); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.metrics.RecordWebhookEvent(ctx, "unknown", "unauthenticated")
		if errors.Is(err, webhook.ErrConfiguration) {
			s.logger.Error(ctx, "Webhook secret is not configured", err, nil)
		} else {
			s.logger.Warn(ctx, "Webhook signature rejected", map[string]interface{}{
				"body_bytes": len(rawBody),
			})
		}
		return nil, err
	}

	event, err := webhook.ParseEvent(rawBody)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.metrics.RecordWebhookEvent(ctx, "unknown", "invalid")
		s.logger.Warn(ctx, "Webhook payload rejected", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	span.SetAttributes(attribute.String("event", event.Kind.String()))
	result := &HandleResult{Event: event.Kind.String()}

	if !event.Actionable() {
		result.Outcome = OutcomeIgnored
		s.finish(ctx, span, event, result)
		return result, nil
	}

	span.SetAttributes(
		attribute.String("order_ref", event.Payment.OrderID),
		attribute.String("payment_ref", event.Payment.ID),
	)

	seen, err := s.replayCache.Seen(ctx, event.Key())
	if err != nil {
		// キャッシュ障害時はDBの冪等性に任せて処理を続ける
		s.logger.Warn(ctx, "Replay cache unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if seen {
		result.Outcome = OutcomeDuplicate
		s.finish(ctx, span, event, result)
		return result, nil
	}

	switch event.Kind {
	case webhook.EventKindOrderPaid:
		err = s.handlePaid(ctx, event.Payment, result)
	case webhook.EventKindPaymentFailed:
		err = s.handleFailed(ctx, event.Payment, result)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.metrics.RecordWebhookEvent(ctx, event.Kind.String(), "error")
		s.logger.Error(ctx, "Failed to process webhook", err, map[string]interface{}{
			"event":       event.Kind.String(),
			"order_ref":   event.Payment.OrderID,
			"payment_ref": event.Payment.ID,
		})
		return nil, err
	}

	switch result.Outcome {
	case OutcomeProcessed, OutcomeAlreadyProcessed, OutcomeRejected:
		if err := s.replayCache.Remember(ctx, event.Key()); err != nil {
			s.logger.Warn(ctx, "Failed to remember processed event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.finish(ctx, span, event, result)
	return result, nil
}

func (s *WebhookApplicationService) finish(ctx context.Context, span trace.Span, event *webhook.Event, result *HandleResult) {
	span.SetAttributes(attribute.String("outcome", result.Outcome.String()))
	s.metrics.RecordWebhookEvent(ctx, event.Kind.String(), result.Outcome.String())

	fields := map[string]interface{}{
		"event":   event.Kind.String(),
		"outcome": result.Outcome.String(),
	}
	if event.Payment != nil {
		fields["order_ref"] = event.Payment.OrderID
		fields["payment_ref"] = event.Payment.ID
	}
	if result.BookingID != "" {
		fields["booking_id"] = result.BookingID
	}
	s.logger.Info(ctx, "Webhook handled", fields)
}

// handlePaid 予約確定・手数料記録・ウォレット作成・紹介報酬を1つのトランザクションで行う
// 後続処理はこの配信で予約が遷移した場合のみ実行する
func (s *WebhookApplicationService) handlePaid(ctx context.Context, p *webhook.PaymentEntity, result *HandleResult) error {
	var (
		tr  *service.Transition
		fee *commission.Commission
	)
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		t, err := s.stateMachine.ApplyPaid(ctx, p.OrderID, p.ID, p.Amount)
		tr = t
		if err != nil {
			return err
		}
		if !t.Transitioned {
			return nil
		}

		fee, err = s.recordCommission(ctx, t.Booking, p.ID)
		if err != nil {
			return err
		}

		_, created, err := s.wallets.EnsureWallet(ctx, t.Booking.UserID())
		if err != nil {
			return fmt.Errorf("failed to ensure wallet: %w", err)
		}
		if created {
			if _, err := s.rewarder.RewardOnFirstWallet(ctx, t.Booking.UserID(), t.Booking.BookingID()); err != nil {
				return fmt.Errorf("failed to reward referral: %w", err)
			}
		}
		return nil
	})

	if tr != nil {
		result.BookingID = tr.Booking.BookingID()
		if tr.AmountMismatch {
			s.logger.Warn(ctx, "Payment amount differs from booking total", map[string]interface{}{
				"booking_id":     tr.Booking.BookingID(),
				"booking_amount": tr.Booking.Amount(),
				"payment_amount": p.Amount,
			})
		}
	}

	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		result.Outcome = OutcomeBookingNotFound
		s.logger.Warn(ctx, "Booking not found for payment", map[string]interface{}{
			"order_ref":   p.OrderID,
			"payment_ref": p.ID,
		})
		return nil
	case errors.Is(err, booking.ErrInvalidTransition):
		result.Outcome = OutcomeRejected
		s.logger.Warn(ctx, "Paid event for failed booking ignored", map[string]interface{}{
			"order_ref":   p.OrderID,
			"payment_ref": p.ID,
		})
		return nil
	case err != nil:
		return err
	}

	if !tr.Transitioned {
		result.Outcome = OutcomeAlreadyProcessed
		return nil
	}

	result.Outcome = OutcomeProcessed
	s.metrics.RecordBookingTransition(ctx, booking.BookingStatusPaid.String())
	if fee != nil {
		s.metrics.RecordCommission(ctx, tr.Booking.Currency(), fee.PlatformCommission())
	}

	if s.notifier != nil {
		s.notifier.NotifyBookingPaid(ctx, notification.BookingPaidNotification{
			BookingID:       tr.Booking.BookingID(),
			UserID:          tr.Booking.UserID(),
			Amount:          tr.Booking.Amount(),
			Currency:        tr.Booking.Currency(),
			OrderRef:        tr.Booking.OrderRef(),
			PaymentRef:      p.ID,
			CustomerEmail:   p.Email,
			CustomerContact: p.Contact,
		})
	}
	return nil
}

// recordCommission 予約総額から手数料を計算して記録する。既に記録済みなら何もしない
func (s *WebhookApplicationService) recordCommission(ctx context.Context, b *booking.Booking, paymentRef string) (*commission.Commission, error) {
	breakdown, err := s.calculator.Calculate(b.Amount())
	if err != nil {
		return nil, fmt.Errorf("failed to calculate commission: %w", err)
	}

	c := commission.NewCommission(s.newID(), b.BookingID(), paymentRef, s.calculator.CommissionRate(), breakdown)
	created, err := s.commissionRepo.CreateIfAbsent(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to record commission: %w", err)
	}
	if !created {
		s.logger.Info(ctx, "Commission already recorded", map[string]interface{}{
			"booking_id": b.BookingID(),
		})
		return nil, nil
	}
	return c, nil
}

// handleFailed pending→failedへ遷移する。paidの予約には触れない
func (s *WebhookApplicationService) handleFailed(ctx context.Context, p *webhook.PaymentEntity, result *HandleResult) error {
	tr, err := s.stateMachine.ApplyFailed(ctx, p.OrderID)
	if errors.Is(err, booking.ErrBookingNotFound) {
		result.Outcome = OutcomeBookingNotFound
		s.logger.Warn(ctx, "Booking not found for failed payment", map[string]interface{}{
			"order_ref":   p.OrderID,
			"payment_ref": p.ID,
		})
		return nil
	}
	if err != nil {
		return err
	}

	result.BookingID = tr.Booking.BookingID()
	if !tr.Transitioned {
		result.Outcome = OutcomeAlreadyProcessed
		if tr.Booking.IsPaid() {
			s.logger.Info(ctx, "Failure event for paid booking ignored", map[string]interface{}{
				"booking_id": tr.Booking.BookingID(),
			})
		}
		return nil
	}

	result.Outcome = OutcomeProcessed
	s.metrics.RecordBookingTransition(ctx, booking.BookingStatusFailed.String())
	return nil
}
