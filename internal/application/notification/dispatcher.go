package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
)

// Notifier 通知チャネル
type Notifier interface {
	// Channel チャネル名（メトリクスとログに使う）
	Channel() string
	// NotifyBookingPaid 予約確定を通知する
	NotifyBookingPaid(ctx context.Context, n BookingPaidNotification) error
}

// Dispatcher 予約確定通知を各チャネルへ非同期に送る
// 失敗はログとメトリクスに残すだけで呼び出し元には返さない
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
	wg        sync.WaitGroup
}

// NewDispatcher 新しいDispatcherを作成
func NewDispatcher(notifiers []Notifier, timeout time.Duration, logger *otelinfra.Logger, metrics *otelinfra.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   timeout,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("notification-dispatcher"),
	}
}

// NotifyBookingPaid 全チャネルへの送信を開始してすぐに戻る
// 送信はリクエストのキャンセルから切り離されたコンテキストで行う
func (d *Dispatcher) NotifyBookingPaid(ctx context.Context, n BookingPaidNotification) {
	if len(d.notifiers) == 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	for _, notifier := range d.notifiers {
		d.wg.Add(1)
		go func(notifier Notifier) {
			defer d.wg.Done()
			d.send(detached, notifier, n)
		}(notifier)
	}
}

func (d *Dispatcher) send(ctx context.Context, notifier Notifier, n BookingPaidNotification) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	ctx, span := d.tracer.Start(ctx, "Dispatcher.NotifyBookingPaid")
	defer span.End()

	span.SetAttributes(
		attribute.String("channel", notifier.Channel()),
		attribute.String("booking_id", n.BookingID),
	)

	defer func() {
		if r := recover(); r != nil {
			d.metrics.RecordNotificationFailure(ctx, notifier.Channel())
			d.logger.Warn(ctx, "Notifier panicked", map[string]interface{}{
				"channel":    notifier.Channel(),
				"booking_id": n.BookingID,
				"panic":      fmt.Sprint(r),
			})
		}
	}()

	if err := notifier.NotifyBookingPaid(ctx, n); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		d.metrics.RecordNotificationFailure(ctx, notifier.Channel())
		d.logger.Error(ctx, "Failed to send booking notification", err, map[string]interface{}{
			"channel":    notifier.Channel(),
			"booking_id": n.BookingID,
		})
		return
	}

	d.logger.Debug(ctx, "Booking notification sent", map[string]interface{}{
		"channel":    notifier.Channel(),
		"booking_id": n.BookingID,
	})
}

// Wait 送信中の通知がすべて終わるまで待つ（シャットダウン時とテストで使う）
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
