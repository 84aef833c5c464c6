package webhook

import "context"

// ReplayCache 処理済みイベントのキャッシュ
type ReplayCache interface {
	Seen(ctx context.Context, eventKey string) (bool, error)
	Remember(ctx context.Context, eventKey string) error
}

// NopReplayCache 何も記憶しないReplayCache（Redis無効時）
type NopReplayCache struct{}

// Seen 常にfalse
func (NopReplayCache) Seen(ctx context.Context, eventKey string) (bool, error) {
	return false, nil
}

// Remember 何もしない
func (NopReplayCache) Remember(ctx context.Context, eventKey string) error {
	return nil
}
