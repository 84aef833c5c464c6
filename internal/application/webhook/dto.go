package webhook

// Outcome Webhook処理の結果
type Outcome string

const (
	OutcomeProcessed        Outcome = "processed"         // この配信で状態が遷移した
	OutcomeAlreadyProcessed Outcome = "already_processed" // 既に遷移済み（再配信）
	OutcomeDuplicate        Outcome = "duplicate"         // リプレイキャッシュで検知した再配信
	OutcomeIgnored          Outcome = "ignored"           // 対象外のイベント
	OutcomeBookingNotFound  Outcome = "booking_not_found" // 該当する予約がない
	OutcomeRejected         Outcome = "rejected"          // 許可されない遷移
)

// String 文字列表現を返す
func (o Outcome) String() string {
	return string(o)
}

// HandleResult Webhook処理結果
type HandleResult struct {
	Event     string
	Outcome   Outcome
	BookingID string // 予約が特定できた場合のみ
}
