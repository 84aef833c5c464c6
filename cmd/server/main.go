package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	historyapp "booking-ledger/internal/application/history"
	"booking-ledger/internal/application/ledger"
	"booking-ledger/internal/application/notification"
	"booking-ledger/internal/application/referral"
	webhookapp "booking-ledger/internal/application/webhook"
	"booking-ledger/internal/domain/commission"
	"booking-ledger/internal/domain/service"
	"booking-ledger/internal/domain/webhook"
	"booking-ledger/internal/infrastructure/cache"
	"booking-ledger/internal/infrastructure/config"
	notifyinfra "booking-ledger/internal/infrastructure/notification"
	otelinfra "booking-ledger/internal/infrastructure/observability/otel"
	"booking-ledger/internal/infrastructure/persistence/mysql"
	grpcserver "booking-ledger/internal/presentation/grpc"
	"booking-ledger/internal/presentation/rest"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	tracer := otelinfra.Tracer(cfg.OpenTelemetry.ServiceName)
	logger := otelinfra.NewLogger(tracer)
	logger.SetLevel(otelinfra.ParseLogLevel(cfg.LogLevel))
	logger.SetServiceName(cfg.OpenTelemetry.ServiceName)
	metrics, err := otelinfra.NewMetrics(cfg.OpenTelemetry.ServiceName)
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	ctx := context.Background()

	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// リポジトリの初期化
	bookingRepo := mysql.NewBookingRepository(db)
	commissionRepo := mysql.NewCommissionRepository(db)
	walletRepo := mysql.NewWalletRepository(db)
	referralRepo := mysql.NewReferralRepository(db)
	txManager := mysql.NewTransactionManager(db)

	// ドメインサービスの初期化
	verifier, err := webhook.NewVerifier(cfg.Webhook.Secret)
	if err != nil {
		log.Fatalf("Failed to create webhook verifier: %v", err)
	}
	calculator, err := commission.NewCalculator(cfg.Commission.Rate, cfg.Commission.TaxRate)
	if err != nil {
		log.Fatalf("Failed to create commission calculator: %v", err)
	}
	stateMachine := service.NewBookingStateMachine(bookingRepo)

	// 通知チャネル
	var notifiers []notification.Notifier
	if cfg.Notification.Enabled {
		if cfg.Notification.SMTPEnabled() {
			smtpClient, err := notifyinfra.NewSMTPClient(cfg.Notification.SMTP)
			if err != nil {
				log.Fatalf("Failed to create SMTP client: %v", err)
			}
			notifiers = append(notifiers, notifyinfra.NewEmailNotifier(smtpClient, cfg.Notification.SMTP.From, cfg.Notification.AdminEmails))
		}
		if cfg.Notification.WhatsApp.Enabled {
			notifiers = append(notifiers, notifyinfra.NewWhatsAppNotifier(
				cfg.Notification.WhatsApp.Endpoint,
				cfg.Notification.WhatsApp.Token,
				cfg.Notification.Timeout,
			))
		}
	}
	dispatcher := notification.NewDispatcher(notifiers, cfg.Notification.Timeout, logger, metrics)

	// 再配信の早期検知（無効時は予約のCASのみで冪等性を担保する）
	var replayCache webhookapp.ReplayCache = webhookapp.NopReplayCache{}
	if cfg.Redis.Enabled {
		redisClient := cache.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn(ctx, "Redis is unreachable; replay cache will fail open", map[string]interface{}{
				"address": cfg.Redis.Address(),
				"error":   err.Error(),
			})
		}
		replayCache = cache.NewRedisReplayCache(redisClient, "webhook:seen:", cfg.Redis.ReplayTTL)
	}

	// アプリケーションサービスの初期化
	ledgerAppService := ledger.NewLedgerApplicationService(walletRepo, txManager, logger, metrics)
	rewardAppService := referral.NewRewardApplicationService(referralRepo, ledgerAppService, txManager, logger, metrics)
	webhookAppService := webhookapp.NewWebhookApplicationService(
		verifier,
		stateMachine,
		calculator,
		commissionRepo,
		ledgerAppService,
		rewardAppService,
		dispatcher,
		replayCache,
		txManager,
		logger,
		metrics,
	)
	historyAppService := historyapp.NewHistoryApplicationService(walletRepo, bookingRepo, commissionRepo, logger, metrics)

	router, err := rest.NewRouter(cfg, logger, metrics, webhookAppService, historyAppService, db)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	grpcSrv, err := grpcserver.NewServer(cfg, logger, metrics, historyAppService)
	if err != nil {
		log.Fatalf("Failed to create gRPC server: %v", err)
	}

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 2)
	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{
			"address":     address,
			"environment": cfg.Environment,
		})
		if err := router.Start(address); err != nil {
			serverErr <- err
		}
	}()
	go func() {
		if err := grpcSrv.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		logger.Info(ctx, "Shutting down servers", map[string]interface{}{"signal": sig.String()})
	case err := <-serverErr:
		logger.Error(ctx, "Server error, shutting down", err, nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// 新規受信を止めてから送信中の通知を待つ
	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down REST API server", err, nil)
	}
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down gRPC server", err, nil)
	}

	notified := make(chan struct{})
	go func() {
		dispatcher.Wait()
		close(notified)
	}()
	select {
	case <-notified:
	case <-shutdownCtx.Done():
		logger.Warn(shutdownCtx, "Pending notifications abandoned at shutdown", nil)
	}

	logger.Info(context.Background(), "Servers stopped", nil)
}
