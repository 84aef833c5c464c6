package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"booking-ledger/internal/domain/booking"
)

// BookingRepository MySQL実装のBookingRepository
type BookingRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewBookingRepository 新しいBookingRepositoryを作成
func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{
		db:     db,
		tracer: otel.Tracer("booking-repository"),
	}
}

const bookingColumns = `booking_id, user_id, property_id, package_id, amount, currency, order_ref,
		payment_ref, status, paid_at, created_at, updated_at`

// FindByID 予約IDで予約を取得
func (r *BookingRepository) FindByID(ctx context.Context, bookingID string) (*booking.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "BookingRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.booking_id", bookingID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "bookings"),
	)

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ?`
	b, err := scanBooking(r.db.conn(ctx).QueryRowContext(ctx, query, bookingID))
	return r.finishFind(span, b, err)
}

// FindByOrderRef ゲートウェイのオーダー参照で予約を取得
func (r *BookingRepository) FindByOrderRef(ctx context.Context, orderRef string) (*booking.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "BookingRepository.FindByOrderRef")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_ref", orderRef),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "bookings"),
	)

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE order_ref = ?`
	b, err := scanBooking(r.db.conn(ctx).QueryRowContext(ctx, query, orderRef))
	return r.finishFind(span, b, err)
}

func (r *BookingRepository) finishFind(span trace.Span, b *booking.Booking, err error) (*booking.Booking, error) {
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "booking not found")
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	span.SetAttributes(attribute.String("db.status", b.Status().String()))
	span.SetStatus(otelcodes.Ok, "booking found")
	return b, nil
}

// MarkPaidIfPending pendingの場合のみpaidへ更新する
func (r *BookingRepository) MarkPaidIfPending(ctx context.Context, orderRef, paymentRef string, paidAt time.Time) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "BookingRepository.MarkPaidIfPending")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_ref", orderRef),
		attribute.String("db.payment_ref", paymentRef),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "bookings"),
	)

	query := `
		UPDATE bookings
		SET status = 'paid', payment_ref = ?, paid_at = ?, updated_at = ?
		WHERE order_ref = ? AND status = 'pending'
	`

	return r.execTransition(ctx, span, query, paymentRef, paidAt, paidAt, orderRef)
}

// MarkFailedIfPending pendingの場合のみfailedへ更新する
func (r *BookingRepository) MarkFailedIfPending(ctx context.Context, orderRef string, failedAt time.Time) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "BookingRepository.MarkFailedIfPending")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.order_ref", orderRef),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "bookings"),
	)

	query := `
		UPDATE bookings
		SET status = 'failed', updated_at = ?
		WHERE order_ref = ? AND status = 'pending'
	`

	return r.execTransition(ctx, span, query, failedAt, orderRef)
}

func (r *BookingRepository) execTransition(ctx context.Context, span trace.Span, query string, args ...interface{}) (bool, error) {
	result, err := r.db.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "booking status updated")
	return rowsAffected == 1, nil
}

func scanBooking(row *sql.Row) (*booking.Booking, error) {
	var (
		bookingID, userID, currency, orderRef, status string
		propertyID, packageID, paymentRef             sql.NullString
		amount                                        int64
		paidAt                                        sql.NullTime
		createdAt, updatedAt                          time.Time
	)

	if err := row.Scan(
		&bookingID,
		&userID,
		&propertyID,
		&packageID,
		&amount,
		&currency,
		&orderRef,
		&paymentRef,
		&status,
		&paidAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	bookingStatus, err := booking.NewBookingStatus(status)
	if err != nil {
		return nil, fmt.Errorf("invalid booking status: %w", err)
	}

	return booking.ReconstructBooking(
		bookingID,
		userID,
		nullStringPtr(propertyID),
		nullStringPtr(packageID),
		amount,
		currency,
		orderRef,
		nullStringPtr(paymentRef),
		bookingStatus,
		nullTimePtr(paidAt),
		createdAt,
		updatedAt,
	), nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func ptrToNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
