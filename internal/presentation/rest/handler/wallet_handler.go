package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	historyapp "booking-ledger/internal/application/history"
	restmiddleware "booking-ledger/internal/presentation/rest/middleware"
)

// WalletHandler ウォレット参照ハンドラー
type WalletHandler struct {
	historyService *historyapp.HistoryApplicationService
}

// NewWalletHandler 新しいWalletHandlerを作成
func NewWalletHandler(historyService *historyapp.HistoryApplicationService) *WalletHandler {
	return &WalletHandler{
		historyService: historyService,
	}
}

// GetMyWallet 自分のウォレット取得ハンドラー（ユーザーAPI用）
// @Summary ウォレットを取得
// @Tags wallet
// @Produce json
// @Security Bearer
// @Success 200 {object} WalletResponse "取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 404 {object} ErrorResponse "ウォレットなし"
// @Router /me/wallet [get]
func (h *WalletHandler) GetMyWallet(c echo.Context) error {
	userID, err := tokenUserID(c)
	if err != nil {
		return err
	}
	return h.getWallet(c, userID)
}

// GetWalletAdmin ウォレット取得ハンドラー（管理API用）
// @Summary ウォレットを取得（管理API）
// @Tags admin
// @Produce json
// @Param user_id path string true "ユーザーID" example(user_a)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} WalletResponse "取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 404 {object} ErrorResponse "ウォレットなし"
// @Router /admin/users/{user_id}/wallet [get]
func (h *WalletHandler) GetWalletAdmin(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	return h.getWallet(c, userID)
}

// GetMyTransactions 自分の台帳履歴取得ハンドラー（ユーザーAPI用）
// @Summary 台帳履歴を取得
// @Description 新しい順に返します。ページネーションとフィルタリングに対応しています
// @Tags wallet
// @Produce json
// @Security Bearer
// @Param limit query int false "取得件数（デフォルト: 50, 最大: 100)" default(50)
// @Param offset query int false "オフセット（デフォルト: 0)" default(0)
// @Param transaction_type query string false "credit/debitでフィルタ"
// @Param source query string false "入金元でフィルタ" example(referral_bonus)
// @Success 200 {object} WalletTransactionsResponse "取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /me/wallet/transactions [get]
func (h *WalletHandler) GetMyTransactions(c echo.Context) error {
	userID, err := tokenUserID(c)
	if err != nil {
		return err
	}
	return h.getTransactions(c, userID)
}

// GetTransactionsAdmin 台帳履歴取得ハンドラー（管理API用）
// @Summary 台帳履歴を取得（管理API）
// @Tags admin
// @Produce json
// @Param user_id path string true "ユーザーID" example(user_a)
// @Param X-API-Key header string true "APIキー"
// @Param limit query int false "取得件数（デフォルト: 50, 最大: 100)" default(50)
// @Param offset query int false "オフセット（デフォルト: 0)" default(0)
// @Param transaction_type query string false "credit/debitでフィルタ"
// @Param source query string false "入金元でフィルタ"
// @Success 200 {object} WalletTransactionsResponse "取得成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Router /admin/users/{user_id}/wallet/transactions [get]
func (h *WalletHandler) GetTransactionsAdmin(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	return h.getTransactions(c, userID)
}

// tokenUserID 認証ミドルウェアが設定したuser_idを取得
func tokenUserID(c echo.Context) (string, error) {
	userID, ok := c.Get(restmiddleware.ContextKeyUserID).(string)
	if !ok || userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}
	return userID, nil
}

func (h *WalletHandler) getWallet(c echo.Context, userID string) error {
	resp, err := h.historyService.GetWallet(c.Request().Context(), &historyapp.GetWalletRequest{UserID: userID})
	if err != nil {
		return err
	}

	w := resp.Wallet
	return c.JSON(http.StatusOK, WalletResponse{
		WalletID:      w.WalletID(),
		UserID:        w.UserID(),
		Balance:       strconv.FormatInt(w.Balance(), 10),
		TotalCredited: strconv.FormatInt(w.TotalCredited(), 10),
		UpdatedAt:     w.UpdatedAt().UTC().Format(timeLayout),
	})
}

func (h *WalletHandler) getTransactions(c echo.Context, userID string) error {
	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit parameter")
		}
	}

	offset := 0
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		var err error
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset parameter")
		}
	}

	req := &historyapp.GetWalletTransactionsRequest{
		UserID:          userID,
		Limit:           limit,
		Offset:          offset,
		TransactionType: c.QueryParam("transaction_type"),
		Source:          c.QueryParam("source"),
	}

	resp, err := h.historyService.GetWalletTransactions(c.Request().Context(), req)
	if err != nil {
		return err
	}

	items := make([]WalletTransactionItem, len(resp.Transactions))
	for i, txn := range resp.Transactions {
		items[i] = WalletTransactionItem{
			TransactionID:   txn.TransactionID(),
			TransactionType: txn.TransactionType().String(),
			Amount:          strconv.FormatInt(txn.Amount(), 10),
			BalanceBefore:   strconv.FormatInt(txn.BalanceBefore(), 10),
			BalanceAfter:    strconv.FormatInt(txn.BalanceAfter(), 10),
			Source:          txn.Source().String(),
			ReferralID:      txn.ReferralID(),
			BookingID:       txn.BookingID(),
			Description:     txn.Description(),
			CreatedAt:       txn.CreatedAt().UTC().Format(timeLayout),
		}
	}

	return c.JSON(http.StatusOK, WalletTransactionsResponse{
		WalletID:     resp.WalletID,
		Transactions: items,
		Total:        resp.Total,
		Limit:        resp.Limit,
		Offset:       resp.Offset,
	})
}
