package wallet

import (
	"context"
)

// WalletRepository ウォレットリポジトリインターフェース
type WalletRepository interface {
	// CreateIfAbsent user_idの一意制約を利用して作成する。作成した場合はtrue
	CreateIfAbsent(ctx context.Context, w *Wallet) (bool, error)

	// FindByUserID ユーザーIDでウォレットを取得
	FindByUserID(ctx context.Context, userID string) (*Wallet, error)

	// FindByIDForUpdate 行ロックを取得してウォレットを取得（トランザクション内で使用）
	FindByIDForUpdate(ctx context.Context, walletID string) (*Wallet, error)

	// UpdateBalance 残高と入金累計を更新
	UpdateBalance(ctx context.Context, w *Wallet) error

	// SaveTransaction 台帳エントリを追記
	SaveTransaction(ctx context.Context, t *Transaction) error

	// FindTransactionsByWalletID 台帳エントリ一覧を新しい順に取得（ページネーション対応）
	FindTransactionsByWalletID(ctx context.Context, walletID string, limit, offset int) ([]*Transaction, error)
}
