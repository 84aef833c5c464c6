package referral

// RewardResult 紹介報酬の付与結果
type RewardResult struct {
	ReferralID         string
	ReferrerID         string
	ReferredUserID     string
	BookingID          string
	ReferrerReward     int64
	ReferredReward     int64
	ReferrerWalletID   string
	ReferredWalletID   string
	ReferrerBalanceNow int64
	ReferredBalanceNow int64
}
