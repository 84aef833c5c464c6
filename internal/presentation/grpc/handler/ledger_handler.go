package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	historyapp "booking-ledger/internal/application/history"
	"booking-ledger/internal/domain/booking"
	"booking-ledger/internal/domain/commission"
	"booking-ledger/internal/domain/wallet"
	"booking-ledger/internal/presentation/grpc/pb"
)

// recentTransactionsLimit ListWalletTransactionsで返す件数
const recentTransactionsLimit = 20

// LedgerHandler gRPC台帳参照ハンドラー
type LedgerHandler struct {
	pb.UnimplementedLedgerServiceServer
	historyService *historyapp.HistoryApplicationService
}

// NewLedgerHandler 新しいLedgerHandlerを作成
func NewLedgerHandler(historyService *historyapp.HistoryApplicationService) *LedgerHandler {
	return &LedgerHandler{
		historyService: historyService,
	}
}

// GetBooking 予約取得
func (h *LedgerHandler) GetBooking(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "order_ref is required")
	}

	resp, err := h.historyService.GetBooking(ctx, &historyapp.GetBookingRequest{OrderRef: req.GetValue()})
	if err != nil {
		return nil, h.handleError(err)
	}

	b := resp.Booking
	fields := map[string]interface{}{
		"booking_id": b.BookingID(),
		"user_id":    b.UserID(),
		"order_ref":  b.OrderRef(),
		"amount":     strconv.FormatInt(b.Amount(), 10),
		"currency":   b.Currency(),
		"status":     b.Status().String(),
	}
	if ref := b.PaymentRef(); ref != nil {
		fields["payment_ref"] = *ref
	}
	if paidAt := b.PaidAt(); paidAt != nil {
		fields["paid_at"] = paidAt.UTC().Format(time.RFC3339)
	}
	if c := resp.Commission; c != nil {
		fields["commission"] = map[string]interface{}{
			"commission_id":       c.CommissionID(),
			"gross_amount":        strconv.FormatInt(c.GrossAmount(), 10),
			"host_share":          strconv.FormatInt(c.HostShare(), 10),
			"platform_commission": strconv.FormatInt(c.PlatformCommission(), 10),
			"commission_rate":     c.CommissionRate().String(),
			"tax_on_commission":   strconv.FormatInt(c.TaxOnCommission(), 10),
			"net_commission":      strconv.FormatInt(c.NetCommission(), 10),
			"status":              c.Status().String(),
		}
	}

	return toStruct(fields)
}

// GetWallet ウォレット取得
func (h *LedgerHandler) GetWallet(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	resp, err := h.historyService.GetWallet(ctx, &historyapp.GetWalletRequest{UserID: req.GetValue()})
	if err != nil {
		return nil, h.handleError(err)
	}

	w := resp.Wallet
	return toStruct(map[string]interface{}{
		"wallet_id":      w.WalletID(),
		"user_id":        w.UserID(),
		"balance":        strconv.FormatInt(w.Balance(), 10),
		"total_credited": strconv.FormatInt(w.TotalCredited(), 10),
		"updated_at":     w.UpdatedAt().UTC().Format(time.RFC3339),
	})
}

// ListWalletTransactions 直近の台帳エントリ取得
func (h *LedgerHandler) ListWalletTransactions(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	resp, err := h.historyService.GetWalletTransactions(ctx, &historyapp.GetWalletTransactionsRequest{
		UserID: req.GetValue(),
		Limit:  recentTransactionsLimit,
	})
	if err != nil {
		return nil, h.handleError(err)
	}

	items := make([]interface{}, len(resp.Transactions))
	for i, txn := range resp.Transactions {
		item := map[string]interface{}{
			"transaction_id":   txn.TransactionID(),
			"transaction_type": txn.TransactionType().String(),
			"amount":           strconv.FormatInt(txn.Amount(), 10),
			"balance_after":    strconv.FormatInt(txn.BalanceAfter(), 10),
			"source":           txn.Source().String(),
			"created_at":       txn.CreatedAt().UTC().Format(time.RFC3339),
		}
		if id := txn.ReferralID(); id != nil {
			item["referral_id"] = *id
		}
		if id := txn.BookingID(); id != nil {
			item["booking_id"] = *id
		}
		items[i] = item
	}

	return toStruct(map[string]interface{}{
		"wallet_id":    resp.WalletID,
		"transactions": items,
	})
}

func toStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return s, nil
}

// handleError ドメインエラーをgRPCステータスに変換
func (h *LedgerHandler) handleError(err error) error {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, wallet.ErrWalletNotFound),
		errors.Is(err, commission.ErrCommissionNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, wallet.ErrInvalidUserID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	// gRPCステータスエラーの場合はそのまま返す
	if _, ok := status.FromError(err); ok {
		return err
	}

	return status.Error(codes.Internal, "internal server error")
}
