package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	historyapp "booking-ledger/internal/application/history"
	"booking-ledger/internal/infrastructure/config"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
	"booking-ledger/internal/presentation/rest/handler"
	restmiddleware "booking-ledger/internal/presentation/rest/middleware"
)

// HealthChecker 依存先の疎通確認
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Router REST APIルーター
type Router struct {
	echo           *echo.Echo
	webhookHandler *handler.WebhookHandler
	walletHandler  *handler.WalletHandler
	bookingHandler *handler.BookingHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	webhookService handler.WebhookProcessor,
	historyService *historyapp.HistoryApplicationService,
	health HealthChecker,
) (*Router, error) {
	if webhookService == nil || historyService == nil {
		return nil, errors.New("rest: services are required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// エラーはErrorHandlerMiddlewareでJSONに変換済み。ミドルウェアより前で失敗したものだけここで返す
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			code = httpErr.Code
		}
		_ = c.JSON(code, restmiddleware.ErrorResponse{
			Error:   http.StatusText(code),
			Message: http.StatusText(code),
		})
	}

	setupMiddleware(e, logger, metrics)

	webhookHandler := handler.NewWebhookHandler(webhookService, &cfg.Webhook)
	walletHandler := handler.NewWalletHandler(historyService)
	bookingHandler := handler.NewBookingHandler(historyService)

	setupRoutes(e, cfg, logger, health, webhookHandler, walletHandler, bookingHandler)

	SetupSwagger(e)

	return &Router{
		echo:           e,
		webhookHandler: webhookHandler,
		walletHandler:  walletHandler,
		bookingHandler: bookingHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
// 先に登録したものが外側になる。ErrorHandlerMiddlewareは最も内側に置き、外側のログとメトリクスに最終ステータスを見せる
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-API-Key"},
	}))

	e.Use(middleware.RequestID())
	e.Use(restmiddleware.TracingMiddleware())
	e.Use(restmiddleware.LoggingMiddleware(logger))
	e.Use(restmiddleware.MetricsMiddleware(metrics))
	e.Use(restmiddleware.SecurityHeadersMiddleware())
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	health HealthChecker,
	webhookHandler *handler.WebhookHandler,
	walletHandler *handler.WalletHandler,
	bookingHandler *handler.BookingHandler,
) {
	api := e.Group("/api/v1")

	// ゲートウェイからの呼び出しは署名で認証する
	api.POST("/webhooks/payment", webhookHandler.HandlePayment)

	userGroup := api.Group("/me", restmiddleware.AuthMiddleware(&cfg.JWT, logger))
	userGroup.GET("/wallet", walletHandler.GetMyWallet)
	userGroup.GET("/wallet/transactions", walletHandler.GetMyTransactions)

	adminGroup := api.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))
	adminGroup.GET("/users/:user_id/wallet", walletHandler.GetWalletAdmin)
	adminGroup.GET("/users/:user_id/wallet/transactions", walletHandler.GetTransactionsAdmin)
	adminGroup.GET("/bookings/:order_ref", bookingHandler.GetBooking)

	e.GET("/health", func(c echo.Context) error {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				logger.Error(ctx, "Health check failed", err, nil)
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Handler テストや組み込み用のhttp.Handlerを返す
func (r *Router) Handler() http.Handler {
	return r.echo
}

// Start サーバーを起動（Shutdownで停止した場合はnilを返す）
func (r *Router) Start(address string) error {
	if err := r.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest server: %w", err)
	}
	return nil
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
