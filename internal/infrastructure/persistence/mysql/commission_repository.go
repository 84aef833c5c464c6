package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"booking-ledger/internal/domain/commission"
)

// CommissionRepository MySQL実装のCommissionRepository
type CommissionRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewCommissionRepository 新しいCommissionRepositoryを作成
func NewCommissionRepository(db *DB) *CommissionRepository {
	return &CommissionRepository{
		db:     db,
		tracer: otel.Tracer("commission-repository"),
	}
}

// CreateIfAbsent booking_idの一意キーを使って挿入する
// 既に同じ予約の手数料がある場合は何も更新せずfalseを返す（重複以外のエラーはそのまま返す）
func (r *CommissionRepository) CreateIfAbsent(ctx context.Context, c *commission.Commission) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "CommissionRepository.CreateIfAbsent")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.booking_id", c.BookingID()),
		attribute.Int64("db.gross_amount", c.GrossAmount()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "commissions"),
	)

	query := `
		INSERT INTO commissions (
			commission_id, booking_id, payment_ref, gross_amount, host_share, platform_commission,
			commission_rate, tax_on_commission, net_commission, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE booking_id = booking_id
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		c.CommissionID(),
		c.BookingID(),
		c.PaymentRef(),
		c.GrossAmount(),
		c.HostShare(),
		c.PlatformCommission(),
		c.CommissionRate().String(),
		c.TaxOnCommission(),
		c.NetCommission(),
		c.Status().String(),
		c.CreatedAt(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to insert commission: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	created := rowsAffected == 1
	span.SetAttributes(attribute.Bool("db.created", created))
	span.SetStatus(otelcodes.Ok, "commission recorded")
	return created, nil
}

// FindByBookingID 予約IDで手数料を取得
func (r *CommissionRepository) FindByBookingID(ctx context.Context, bookingID string) (*commission.Commission, error) {
	ctx, span := r.tracer.Start(ctx, "CommissionRepository.FindByBookingID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.booking_id", bookingID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "commissions"),
	)

	query := `
		SELECT commission_id, booking_id, payment_ref, gross_amount, host_share, platform_commission,
			commission_rate, tax_on_commission, net_commission, status, created_at
		FROM commissions
		WHERE booking_id = ?
	`

	var (
		commissionID, dbBookingID, paymentRef, rate, status string
		gross, host, platform, tax, net                     int64
		createdAt                                           time.Time
	)

	err := r.db.conn(ctx).QueryRowContext(ctx, query, bookingID).Scan(
		&commissionID,
		&dbBookingID,
		&paymentRef,
		&gross,
		&host,
		&platform,
		&rate,
		&tax,
		&net,
		&status,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "commission not found")
		return nil, commission.ErrCommissionNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find commission: %w", err)
	}

	commissionRate, err := decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid commission rate: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "commission found")
	return commission.ReconstructCommission(
		commissionID,
		dbBookingID,
		gross,
		host,
		platform,
		commissionRate,
		tax,
		net,
		paymentRef,
		commission.CommissionStatus(status),
		createdAt,
	), nil
}
