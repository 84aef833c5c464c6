package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"booking-ledger/internal/domain/wallet"
)

// ErrNoTransaction トランザクション外で行ロックを取得しようとした
var ErrNoTransaction = errors.New("row lock requires an active transaction")

// WalletRepository MySQL実装のWalletRepository
type WalletRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewWalletRepository 新しいWalletRepositoryを作成
func NewWalletRepository(db *DB) *WalletRepository {
	return &WalletRepository{
		db:     db,
		tracer: otel.Tracer("wallet-repository"),
	}
}

// CreateIfAbsent user_idの一意キーを使って作成する。作成した場合はtrue
// 既存の行は更新しない（影響行数0）。重複以外のエラーはそのまま返す
func (r *WalletRepository) CreateIfAbsent(ctx context.Context, w *wallet.Wallet) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.CreateIfAbsent")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", w.UserID()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		INSERT INTO wallets (wallet_id, user_id, balance, total_credited, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE user_id = user_id
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		w.WalletID(),
		w.UserID(),
		w.Balance(),
		w.TotalCredited(),
		w.CreatedAt(),
		w.UpdatedAt(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to create wallet: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	created := rowsAffected == 1
	span.SetAttributes(attribute.Bool("db.created", created))
	span.SetStatus(otelcodes.Ok, "wallet ensured")
	return created, nil
}

// FindByUserID ユーザーIDでウォレットを取得
func (r *WalletRepository) FindByUserID(ctx context.Context, userID string) (*wallet.Wallet, error) {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		SELECT wallet_id, user_id, balance, total_credited, created_at, updated_at
		FROM wallets
		WHERE user_id = ?
	`

	return r.findOne(ctx, span, query, userID)
}

// FindByIDForUpdate 行ロックを取得してウォレットを取得する
func (r *WalletRepository) FindByIDForUpdate(ctx context.Context, walletID string) (*wallet.Wallet, error) {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.FindByIDForUpdate")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.wallet_id", walletID),
		attribute.String("db.operation", "SELECT FOR UPDATE"),
		attribute.String("db.table", "wallets"),
	)

	if txFromContext(ctx) == nil {
		span.RecordError(ErrNoTransaction)
		span.SetStatus(otelcodes.Error, ErrNoTransaction.Error())
		return nil, ErrNoTransaction
	}

	query := `
		SELECT wallet_id, user_id, balance, total_credited, created_at, updated_at
		FROM wallets
		WHERE wallet_id = ?
		FOR UPDATE
	`

	return r.findOne(ctx, span, query, walletID)
}

func (r *WalletRepository) findOne(ctx context.Context, span trace.Span, query string, arg string) (*wallet.Wallet, error) {
	var (
		walletID, userID       string
		balance, totalCredited int64
		createdAt, updatedAt   time.Time
	)

	err := r.db.conn(ctx).QueryRowContext(ctx, query, arg).Scan(
		&walletID,
		&userID,
		&balance,
		&totalCredited,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "wallet not found")
		return nil, wallet.ErrWalletNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.balance", balance))
	span.SetStatus(otelcodes.Ok, "wallet found")
	return wallet.ReconstructWallet(walletID, userID, balance, totalCredited, createdAt, updatedAt), nil
}

// UpdateBalance 残高と入金累計を更新
func (r *WalletRepository) UpdateBalance(ctx context.Context, w *wallet.Wallet) error {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.UpdateBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.wallet_id", w.WalletID()),
		attribute.Int64("db.balance", w.Balance()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		UPDATE wallets
		SET balance = ?, total_credited = ?, updated_at = ?
		WHERE wallet_id = ?
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		w.Balance(),
		w.TotalCredited(),
		w.UpdatedAt(),
		w.WalletID(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Error, wallet.ErrWalletNotFound.Error())
		return wallet.ErrWalletNotFound
	}

	span.SetStatus(otelcodes.Ok, "wallet balance updated")
	return nil
}

// SaveTransaction 台帳エントリを追記
func (r *WalletRepository) SaveTransaction(ctx context.Context, t *wallet.Transaction) error {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.SaveTransaction")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.transaction_id", t.TransactionID()),
		attribute.String("db.wallet_id", t.WalletID()),
		attribute.String("db.transaction_type", t.TransactionType().String()),
		attribute.Int64("db.amount", t.Amount()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "wallet_transactions"),
	)

	query := `
		INSERT INTO wallet_transactions (
			transaction_id, wallet_id, type, amount, balance_before, balance_after,
			source, referral_id, booking_id, description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		t.TransactionID(),
		t.WalletID(),
		t.TransactionType().String(),
		t.Amount(),
		t.BalanceBefore(),
		t.BalanceAfter(),
		t.Source().String(),
		ptrToNullString(t.ReferralID()),
		ptrToNullString(t.BookingID()),
		t.Description(),
		t.CreatedAt(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save wallet transaction: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "wallet transaction saved")
	return nil
}

// FindTransactionsByWalletID 台帳エントリ一覧を新しい順に取得
func (r *WalletRepository) FindTransactionsByWalletID(ctx context.Context, walletID string, limit, offset int) ([]*wallet.Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.FindTransactionsByWalletID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.wallet_id", walletID),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "wallet_transactions"),
	)

	query := `
		SELECT transaction_id, wallet_id, type, amount, balance_before, balance_after,
			source, referral_id, booking_id, description, created_at
		FROM wallet_transactions
		WHERE wallet_id = ?
		ORDER BY created_at DESC, transaction_id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, walletID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query wallet transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*wallet.Transaction
	for rows.Next() {
		var (
			transactionID, dbWalletID, txType, source, description string
			amount, balanceBefore, balanceAfter                    int64
			referralID, bookingID                                  sql.NullString
			createdAt                                              time.Time
		)
		if err := rows.Scan(
			&transactionID,
			&dbWalletID,
			&txType,
			&amount,
			&balanceBefore,
			&balanceAfter,
			&source,
			&referralID,
			&bookingID,
			&description,
			&createdAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}

		transactionType, err := wallet.NewTransactionType(txType)
		if err != nil {
			return nil, fmt.Errorf("invalid transaction type: %w", err)
		}

		transactions = append(transactions, wallet.ReconstructTransaction(
			transactionID,
			dbWalletID,
			transactionType,
			amount,
			balanceBefore,
			balanceAfter,
			wallet.Source(source),
			wallet.References{
				ReferralID: nullStringPtr(referralID),
				BookingID:  nullStringPtr(bookingID),
			},
			description,
			createdAt,
		))
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate wallet transactions: %w", err)
	}

	span.SetAttributes(attribute.Int("db.count", len(transactions)))
	span.SetStatus(otelcodes.Ok, "wallet transactions found")
	return transactions, nil
}
