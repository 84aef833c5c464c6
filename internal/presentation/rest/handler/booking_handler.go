package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	historyapp "booking-ledger/internal/application/history"
)

// BookingHandler 予約参照ハンドラー（管理API）
type BookingHandler struct {
	historyService *historyapp.HistoryApplicationService
}

// NewBookingHandler 新しいBookingHandlerを作成
func NewBookingHandler(historyService *historyapp.HistoryApplicationService) *BookingHandler {
	return &BookingHandler{
		historyService: historyService,
	}
}

// GetBooking 予約取得ハンドラー
// @Summary オーダー参照で予約と手数料を取得（管理API）
// @Tags admin
// @Produce json
// @Param order_ref path string true "ゲートウェイのオーダー参照" example(order_abc)
// @Param X-API-Key header string true "APIキー"
// @Success 200 {object} BookingResponse "取得成功"
// @Failure 401 {object} ErrorResponse "認証エラー"
// @Failure 404 {object} ErrorResponse "予約なし"
// @Router /admin/bookings/{order_ref} [get]
func (h *BookingHandler) GetBooking(c echo.Context) error {
	orderRef := c.Param("order_ref")
	if orderRef == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order_ref is required")
	}

	resp, err := h.historyService.GetBooking(c.Request().Context(), &historyapp.GetBookingRequest{OrderRef: orderRef})
	if err != nil {
		return err
	}

	b := resp.Booking
	out := BookingResponse{
		BookingID:  b.BookingID(),
		UserID:     b.UserID(),
		OrderRef:   b.OrderRef(),
		PaymentRef: b.PaymentRef(),
		Amount:     strconv.FormatInt(b.Amount(), 10),
		Currency:   b.Currency(),
		Status:     b.Status().String(),
	}
	if paidAt := b.PaidAt(); paidAt != nil {
		s := paidAt.UTC().Format(timeLayout)
		out.PaidAt = &s
	}
	if cm := resp.Commission; cm != nil {
		out.Commission = &CommissionItem{
			CommissionID:       cm.CommissionID(),
			GrossAmount:        strconv.FormatInt(cm.GrossAmount(), 10),
			HostShare:          strconv.FormatInt(cm.HostShare(), 10),
			PlatformCommission: strconv.FormatInt(cm.PlatformCommission(), 10),
			CommissionRate:     cm.CommissionRate().String(),
			TaxOnCommission:    strconv.FormatInt(cm.TaxOnCommission(), 10),
			NetCommission:      strconv.FormatInt(cm.NetCommission(), 10),
			Status:             cm.Status().String(),
		}
	}

	return c.JSON(http.StatusOK, out)
}
