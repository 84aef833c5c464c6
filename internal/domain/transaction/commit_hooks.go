package transaction

import (
	"context"
	"sync"
)

type commitHooksKey struct{}

// CommitHooks コミット後に実行する処理の登録先
type CommitHooks struct {
	mu  sync.Mutex
	fns []func()
}

// WithCommitHooks フックの登録先をコンテキストに付与する（TransactionManager実装用）
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	hooks := &CommitHooks{}
	return context.WithValue(ctx, commitHooksKey{}, hooks), hooks
}

// AfterCommit 最も外側のトランザクションのコミット後にfnを実行する
// ロールバックされた場合は実行しない。トランザクション外では即座に実行する
func AfterCommit(ctx context.Context, fn func()) {
	hooks, ok := ctx.Value(commitHooksKey{}).(*CommitHooks)
	if !ok {
		fn()
		return
	}
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	hooks.fns = append(hooks.fns, fn)
}

// Run 登録順に実行する
func (h *CommitHooks) Run() {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
