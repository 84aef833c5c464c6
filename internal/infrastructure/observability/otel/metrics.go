package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 受信したWebhookイベント数（種別・結果別）
	WebhookEventCount metric.Int64Counter

	// 予約ステータス遷移数
	BookingTransitionCount metric.Int64Counter

	// 計上した手数料の合計（最小通貨単位）
	CommissionAmount metric.Int64Counter

	// ウォレットへの入金額（最小通貨単位）
	WalletCreditAmount metric.Int64Counter

	// 紹介報酬の付与件数
	ReferralRewardCount metric.Int64Counter

	// 通知の失敗件数
	NotificationFailureCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー数
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	webhookEventCount, err := meter.Int64Counter(
		"webhook_events_total",
		metric.WithDescription("Total number of payment webhook events"),
	)
	if err != nil {
		return nil, err
	}

	bookingTransitionCount, err := meter.Int64Counter(
		"booking_transitions_total",
		metric.WithDescription("Total number of booking status transitions"),
	)
	if err != nil {
		return nil, err
	}

	commissionAmount, err := meter.Int64Counter(
		"commission_amount_total",
		metric.WithDescription("Platform commission recorded in minor currency units"),
	)
	if err != nil {
		return nil, err
	}

	walletCreditAmount, err := meter.Int64Counter(
		"wallet_credit_amount_total",
		metric.WithDescription("Amount credited to wallets in minor currency units"),
	)
	if err != nil {
		return nil, err
	}

	referralRewardCount, err := meter.Int64Counter(
		"referral_rewards_total",
		metric.WithDescription("Total number of referrals rewarded"),
	)
	if err != nil {
		return nil, err
	}

	notificationFailureCount, err := meter.Int64Counter(
		"notification_failures_total",
		metric.WithDescription("Total number of failed notifications"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		WebhookEventCount:        webhookEventCount,
		BookingTransitionCount:   bookingTransitionCount,
		CommissionAmount:         commissionAmount,
		WalletCreditAmount:       walletCreditAmount,
		ReferralRewardCount:      referralRewardCount,
		NotificationFailureCount: notificationFailureCount,
		RequestCount:             requestCount,
		ResponseTime:             responseTime,
		ErrorCount:               errorCount,
	}, nil
}

// RecordWebhookEvent Webhookイベントを記録
func (m *Metrics) RecordWebhookEvent(ctx context.Context, eventKind, outcome string) {
	m.WebhookEventCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("event", eventKind),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordBookingTransition 予約ステータス遷移を記録
func (m *Metrics) RecordBookingTransition(ctx context.Context, status string) {
	m.BookingTransitionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("status", status),
		),
	)
}

// RecordCommission 手数料を記録
func (m *Metrics) RecordCommission(ctx context.Context, currency string, platformCommission int64) {
	m.CommissionAmount.Add(ctx, platformCommission,
		metric.WithAttributes(
			attribute.String("currency", currency),
		),
	)
}

// RecordWalletCredit ウォレットへの入金を記録
func (m *Metrics) RecordWalletCredit(ctx context.Context, source string, amount int64) {
	m.WalletCreditAmount.Add(ctx, amount,
		metric.WithAttributes(
			attribute.String("source", source),
		),
	)
}

// RecordReferralReward 紹介報酬の付与を記録
func (m *Metrics) RecordReferralReward(ctx context.Context) {
	m.ReferralRewardCount.Add(ctx, 1)
}

// RecordNotificationFailure 通知の失敗を記録
func (m *Metrics) RecordNotificationFailure(ctx context.Context, channel string) {
	m.NotificationFailureCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("channel", channel),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
