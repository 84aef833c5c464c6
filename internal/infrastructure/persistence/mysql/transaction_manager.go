package mysql

import (
	"context"
	"fmt"

	"booking-ledger/internal/domain/transaction"
)

// TransactionManager トランザクション管理を提供
type TransactionManager struct {
	db *DB
}

// NewTransactionManager 新しいトランザクションマネージャーを作成
func NewTransactionManager(db *DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// WithTransaction トランザクション内で関数を実行
// 既にトランザクション中であれば新たに開始せず、そのまま合流する
// AfterCommitで登録された処理はコミット成功後にのみ実行する
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	ctx, hooks := transaction.WithCommitHooks(ctx)
	if err := tm.run(ctx, fn); err != nil {
		return err
	}
	hooks.Run()
	return nil
}

func (tm *TransactionManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	err = fn(contextWithTx(ctx, tx))
	return err
}
