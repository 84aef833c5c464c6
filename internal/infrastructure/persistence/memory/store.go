// Package memory はMySQLと同じ条件付き更新・一意制約・行ロックの意味論を持つインメモリ実装
// アプリケーション層のテストとローカル検証に使う
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"booking-ledger/internal/domain/booking"
	"booking-ledger/internal/domain/commission"
	"booking-ledger/internal/domain/referral"
	"booking-ledger/internal/domain/transaction"
	"booking-ledger/internal/domain/wallet"
)

// Store 全リポジトリが共有するデータ
type Store struct {
	mu   sync.Mutex // データ保護
	txMu sync.Mutex // トランザクションの直列化（行ロックの代わり）

	bookings     map[string]booking.Booking       // order_ref -> booking
	commissions  map[string]commission.Commission // booking_id -> commission
	wallets      map[string]wallet.Wallet         // wallet_id -> wallet
	walletByUser map[string]string                // user_id -> wallet_id
	transactions []wallet.Transaction
	referrals    map[string]referral.Referral // referral_id -> referral
}

// NewStore 空のStoreを作成
func NewStore() *Store {
	return &Store{
		bookings:     make(map[string]booking.Booking),
		commissions:  make(map[string]commission.Commission),
		wallets:      make(map[string]wallet.Wallet),
		walletByUser: make(map[string]string),
		referrals:    make(map[string]referral.Referral),
	}
}

type snapshot struct {
	bookings     map[string]booking.Booking
	commissions  map[string]commission.Commission
	wallets      map[string]wallet.Wallet
	walletByUser map[string]string
	transactions []wallet.Transaction
	referrals    map[string]referral.Referral
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		bookings:     copyMap(s.bookings),
		commissions:  copyMap(s.commissions),
		wallets:      copyMap(s.wallets),
		walletByUser: copyMap(s.walletByUser),
		transactions: append([]wallet.Transaction(nil), s.transactions...),
		referrals:    copyMap(s.referrals),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = snap.bookings
	s.commissions = snap.commissions
	s.wallets = snap.wallets
	s.walletByUser = snap.walletByUser
	s.transactions = snap.transactions
	s.referrals = snap.referrals
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// AddBooking 予約を登録
func (s *Store) AddBooking(b *booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.OrderRef()] = *b
}

// AddReferral 紹介を登録
func (s *Store) AddReferral(r *referral.Referral) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referrals[r.ReferralID()] = *r
}

// CommissionCount 記録された手数料の件数
func (s *Store) CommissionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.commissions)
}

// Referral 紹介を取得
func (s *Store) Referral(referralID string) (*referral.Referral, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[referralID]
	if !ok {
		return nil, false
	}
	return &r, true
}

// TransactionsOf ウォレットの台帳エントリを古い順に取得
func (s *Store) TransactionsOf(walletID string) []*wallet.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*wallet.Transaction
	for i := range s.transactions {
		if s.transactions[i].WalletID() == walletID {
			t := s.transactions[i]
			out = append(out, &t)
		}
	}
	return out
}

type txKey struct{}

// TransactionManager インメモリのトランザクション管理
// トランザクションは1つずつ実行され、エラー時は開始時点の状態に戻す
type TransactionManager struct {
	store *Store
}

// NewTransactionManager 新しいTransactionManagerを作成
func NewTransactionManager(store *Store) *TransactionManager {
	return &TransactionManager{store: store}
}

// WithTransaction トランザクション内で関数を実行
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTransaction(ctx) {
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
	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	snap := tm.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			tm.store.restore(snap)
			panic(p)
		}
		if err != nil {
			tm.store.restore(snap)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, true))
}

func inTransaction(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// BookingRepository インメモリのBookingRepository
type BookingRepository struct {
	store *Store
}

// NewBookingRepository 新しいBookingRepositoryを作成
func NewBookingRepository(store *Store) *BookingRepository {
	return &BookingRepository{store: store}
}

// FindByID 予約IDで予約を取得
func (r *BookingRepository) FindByID(ctx context.Context, bookingID string) (*booking.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.bookings {
		if b.BookingID() == bookingID {
			return &b, nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

// FindByOrderRef オーダー参照で予約を取得
func (r *BookingRepository) FindByOrderRef(ctx context.Context, orderRef string) (*booking.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[orderRef]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return &b, nil
}

// MarkPaidIfPending pendingの場合のみpaidへ更新する
func (r *BookingRepository) MarkPaidIfPending(ctx context.Context, orderRef, paymentRef string, paidAt time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[orderRef]
	if !ok || !b.IsPending() {
		return false, nil
	}
	if err := b.MarkPaid(paymentRef, paidAt); err != nil {
		return false, err
	}
	r.store.bookings[orderRef] = b
	return true, nil
}

// MarkFailedIfPending pendingの場合のみfailedへ更新する
func (r *BookingRepository) MarkFailedIfPending(ctx context.Context, orderRef string, failedAt time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.bookings[orderRef]
	if !ok || !b.IsPending() {
		return false, nil
	}
	if err := b.MarkFailed(failedAt); err != nil {
		return false, err
	}
	r.store.bookings[orderRef] = b
	return true, nil
}

// CommissionRepository インメモリのCommissionRepository
type CommissionRepository struct {
	store *Store
}

// NewCommissionRepository 新しいCommissionRepositoryを作成
func NewCommissionRepository(store *Store) *CommissionRepository {
	return &CommissionRepository{store: store}
}

// CreateIfAbsent booking_idが未登録の場合のみ挿入する
func (r *CommissionRepository) CreateIfAbsent(ctx context.Context, c *commission.Commission) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.commissions[c.BookingID()]; exists {
		return false, nil
	}
	r.store.commissions[c.BookingID()] = *c
	return true, nil
}

// FindByBookingID 予約IDで手数料を取得
func (r *CommissionRepository) FindByBookingID(ctx context.Context, bookingID string) (*commission.Commission, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.commissions[bookingID]
	if !ok {
		return nil, commission.ErrCommissionNotFound
	}
	return &c, nil
}

// WalletRepository インメモリのWalletRepository
type WalletRepository struct {
	store *Store
}

// NewWalletRepository 新しいWalletRepositoryを作成
func NewWalletRepository(store *Store) *WalletRepository {
	return &WalletRepository{store: store}
}

// CreateIfAbsent user_idが未登録の場合のみ作成する
func (r *WalletRepository) CreateIfAbsent(ctx context.Context, w *wallet.Wallet) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.walletByUser[w.UserID()]; exists {
		return false, nil
	}
	r.store.wallets[w.WalletID()] = *w
	r.store.walletByUser[w.UserID()] = w.WalletID()
	return true, nil
}

// FindByUserID ユーザーIDでウォレットを取得
func (r *WalletRepository) FindByUserID(ctx context.Context, userID string) (*wallet.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	walletID, ok := r.store.walletByUser[userID]
	if !ok {
		return nil, wallet.ErrWalletNotFound
	}
	w := r.store.wallets[walletID]
	return &w, nil
}

// FindByIDForUpdate ウォレットを取得する（トランザクションの直列化で排他される）
func (r *WalletRepository) FindByIDForUpdate(ctx context.Context, walletID string) (*wallet.Wallet, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w, ok := r.store.wallets[walletID]
	if !ok {
		return nil, wallet.ErrWalletNotFound
	}
	return &w, nil
}

// UpdateBalance 残高と入金累計を更新
func (r *WalletRepository) UpdateBalance(ctx context.Context, w *wallet.Wallet) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.wallets[w.WalletID()]; !ok {
		return wallet.ErrWalletNotFound
	}
	r.store.wallets[w.WalletID()] = *w
	return nil
}

// SaveTransaction 台帳エントリを追記
func (r *WalletRepository) SaveTransaction(ctx context.Context, t *wallet.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.transactions = append(r.store.transactions, *t)
	return nil
}

// FindTransactionsByWalletID 台帳エントリを新しい順に取得
func (r *WalletRepository) FindTransactionsByWalletID(ctx context.Context, walletID string, limit, offset int) ([]*wallet.Transaction, error) {
	all := r.store.TransactionsOf(walletID)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt().After(all[j].CreatedAt()) })
	if offset >= len(all) {
		return []*wallet.Transaction{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// ReferralRepository インメモリのReferralRepository
type ReferralRepository struct {
	store *Store
}

// NewReferralRepository 新しいReferralRepositoryを作成
func NewReferralRepository(store *Store) *ReferralRepository {
	return &ReferralRepository{store: store}
}

// FindSignedUpByReferredUserID 被紹介者のsigned_upの紹介を取得
func (r *ReferralRepository) FindSignedUpByReferredUserID(ctx context.Context, referredUserID string) (*referral.Referral, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, ref := range r.store.referrals {
		if ref.ReferredUserID() == referredUserID && ref.IsSignedUp() {
			return &ref, nil
		}
	}
	return nil, referral.ErrReferralNotFound
}

// MarkRewardedIfSignedUp signed_upの場合のみrewardedへ更新する
func (r *ReferralRepository) MarkRewardedIfSignedUp(ctx context.Context, referralID, bookingID string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ref, ok := r.store.referrals[referralID]
	if !ok || !ref.IsSignedUp() {
		return false, nil
	}
	if err := ref.MarkRewarded(bookingID, at); err != nil {
		return false, err
	}
	r.store.referrals[referralID] = ref
	return true, nil
}
