package referral

import "errors"

var (
	// ErrReferralNotFound 紹介が見つからない
	ErrReferralNotFound = errors.New("referral not found")
	// ErrAlreadyRewarded 既に報酬付与済み
	ErrAlreadyRewarded = errors.New("referral already rewarded")
)
