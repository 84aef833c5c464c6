package referral

import (
	"time"
)

// ReferralStatus 紹介ステータス
type ReferralStatus string

const (
	ReferralStatusSignedUp ReferralStatus = "signed_up" // 被紹介者が登録済み
	ReferralStatusRewarded ReferralStatus = "rewarded"  // 報酬付与済み
)

// String 文字列表現を返す
func (s ReferralStatus) String() string {
	return string(s)
}

// Referral 紹介者と被紹介者の関係
type Referral struct {
	referralID         string
	referrerID         string
	referredUserID     string
	referrerReward     int64
	referredReward     int64
	status             ReferralStatus
	firstBookingID     *string
	referrerRewardedAt *time.Time
	referredRewardedAt *time.Time
	createdAt          time.Time
	updatedAt          time.Time
}

// NewReferral signed_upの紹介を作成
func NewReferral(referralID, referrerID, referredUserID string, referrerReward, referredReward int64) *Referral {
	now := time.Now()
	return &Referral{
		referralID:     referralID,
		referrerID:     referrerID,
		referredUserID: referredUserID,
		referrerReward: referrerReward,
		referredReward: referredReward,
		status:         ReferralStatusSignedUp,
		createdAt:      now,
		updatedAt:      now,
	}
}

// ReconstructReferral 永続化層から紹介を復元
func ReconstructReferral(
	referralID string,
	referrerID string,
	referredUserID string,
	referrerReward int64,
	referredReward int64,
	status ReferralStatus,
	firstBookingID *string,
	referrerRewardedAt *time.Time,
	referredRewardedAt *time.Time,
	createdAt time.Time,
	updatedAt time.Time,
) *Referral {
	return &Referral{
		referralID:         referralID,
		referrerID:         referrerID,
		referredUserID:     referredUserID,
		referrerReward:     referrerReward,
		referredReward:     referredReward,
		status:             status,
		firstBookingID:     firstBookingID,
		referrerRewardedAt: referrerRewardedAt,
		referredRewardedAt: referredRewardedAt,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

func (r *Referral) ReferralID() string             { return r.referralID }
func (r *Referral) ReferrerID() string             { return r.referrerID }
func (r *Referral) ReferredUserID() string         { return r.referredUserID }
func (r *Referral) ReferrerReward() int64          { return r.referrerReward }
func (r *Referral) ReferredReward() int64          { return r.referredReward }
func (r *Referral) Status() ReferralStatus         { return r.status }
func (r *Referral) FirstBookingID() *string        { return r.firstBookingID }
func (r *Referral) ReferrerRewardedAt() *time.Time { return r.referrerRewardedAt }
func (r *Referral) ReferredRewardedAt() *time.Time { return r.referredRewardedAt }
func (r *Referral) CreatedAt() time.Time           { return r.createdAt }
func (r *Referral) UpdatedAt() time.Time           { return r.updatedAt }

// IsSignedUp 報酬未付与かどうかを返す
func (r *Referral) IsSignedUp() bool {
	return r.status == ReferralStatusSignedUp
}

// MarkRewarded signed_up→rewardedへ遷移し、初回予約IDと付与日時を記録する
func (r *Referral) MarkRewarded(bookingID string, at time.Time) error {
	if r.status != ReferralStatusSignedUp {
		return ErrAlreadyRewarded
	}
	r.status = ReferralStatusRewarded
	r.firstBookingID = &bookingID
	r.referrerRewardedAt = &at
	r.referredRewardedAt = &at
	r.updatedAt = at
	return nil
}
