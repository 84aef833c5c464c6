package transaction

import (
	"context"
)

// TransactionManager トランザクション管理インターフェース
type TransactionManager interface {
	// WithTransaction トランザクション内で関数を実行
	// fnに渡されるコンテキストを使ったリポジトリ操作は同一トランザクションに参加する
	// 既にトランザクション中のコンテキストで呼ばれた場合は外側のトランザクションに合流する
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
