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

	"booking-ledger/internal/domain/referral"
)

// ReferralRepository MySQL実装のReferralRepository
type ReferralRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewReferralRepository 新しいReferralRepositoryを作成
func NewReferralRepository(db *DB) *ReferralRepository {
	return &ReferralRepository{
		db:     db,
		tracer: otel.Tracer("referral-repository"),
	}
}

// FindSignedUpByReferredUserID 被紹介者のsigned_upの紹介を取得
func (r *ReferralRepository) FindSignedUpByReferredUserID(ctx context.Context, referredUserID string) (*referral.Referral, error) {
	ctx, span := r.tracer.Start(ctx, "ReferralRepository.FindSignedUpByReferredUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.referred_user_id", referredUserID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "referrals"),
	)

	query := `
		SELECT referral_id, referrer_id, referred_user_id, referrer_reward, referred_reward, status,
			first_booking_id, referrer_rewarded_at, referred_rewarded_at, created_at, updated_at
		FROM referrals
		WHERE referred_user_id = ? AND status = 'signed_up'
	`

	var (
		referralID, referrerID, dbReferredUserID, status string
		referrerReward, referredReward                   int64
		firstBookingID                                   sql.NullString
		referrerRewardedAt, referredRewardedAt           sql.NullTime
		createdAt, updatedAt                             time.Time
	)

	err := r.db.conn(ctx).QueryRowContext(ctx, query, referredUserID).Scan(
		&referralID,
		&referrerID,
		&dbReferredUserID,
		&referrerReward,
		&referredReward,
		&status,
		&firstBookingID,
		&referrerRewardedAt,
		&referredRewardedAt,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "referral not found")
		return nil, referral.ErrReferralNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find referral: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "referral found")
	return referral.ReconstructReferral(
		referralID,
		referrerID,
		dbReferredUserID,
		referrerReward,
		referredReward,
		referral.ReferralStatus(status),
		nullStringPtr(firstBookingID),
		nullTimePtr(referrerRewardedAt),
		nullTimePtr(referredRewardedAt),
		createdAt,
		updatedAt,
	), nil
}

// MarkRewardedIfSignedUp signed_upの場合のみrewardedへ更新する。更新した場合はtrue
func (r *ReferralRepository) MarkRewardedIfSignedUp(ctx context.Context, referralID, bookingID string, at time.Time) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "ReferralRepository.MarkRewardedIfSignedUp")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.referral_id", referralID),
		attribute.String("db.booking_id", bookingID),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "referrals"),
	)

	query := `
		UPDATE referrals
		SET status = 'rewarded', first_booking_id = ?, referrer_rewarded_at = ?, referred_rewarded_at = ?, updated_at = ?
		WHERE referral_id = ? AND status = 'signed_up'
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, bookingID, at, at, at, referralID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to mark referral rewarded: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "referral status updated")
	return rowsAffected == 1, nil
}
