package referral

import (
	"context"
	"time"
)

// ReferralRepository 紹介リポジトリインターフェース
type ReferralRepository interface {
	// FindSignedUpByReferredUserID 被紹介者のsigned_upの紹介を取得
	FindSignedUpByReferredUserID(ctx context.Context, referredUserID string) (*Referral, error)

	// MarkRewardedIfSignedUp signed_upの場合のみrewardedへ更新する（CAS）。更新した場合はtrue
	MarkRewardedIfSignedUp(ctx context.Context, referralID, bookingID string, at time.Time) (bool, error)
}
