// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photoframe-saas/internal/config"
	pg "photoframe-saas/internal/infra/db/postgres"
	"photoframe-saas/internal/infra/logging"
	"photoframe-saas/internal/infra/metrics"
	payAdapters "photoframe-saas/internal/infra/payment"
	red "photoframe-saas/internal/infra/redis"
	"photoframe-saas/internal/infra/sched"
	"photoframe-saas/internal/infra/web"
	"photoframe-saas/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (bypass webhook signature checks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled: webhook signature verification is OFF")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	campaignRepo := pg.NewCampaignRepo(pool)
	couponRepo := pg.NewCouponRepoCacheDecorator(pg.NewCouponRepo(pool), redisClient, cfg.Redis.TTL)
	counterRepo := pg.NewInvoiceCounterRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	auditRepo := pg.NewAuditRepo(pool)
	expiryLogRepo := pg.NewExpiryLogRepo(pool)

	// ---- Gateway ----
	gateway := payAdapters.NewCashfreeGateway(cfg.Gateway.AppID, cfg.Gateway.SecretKey, cfg.Gateway.Sandbox, cfg.Gateway.Timeout)

	// ---- Use cases ----
	audit := usecase.NewAuditRecorder(auditRepo, logger)
	couponUC := usecase.NewCouponUseCase(couponRepo, audit, logger)
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, campaignRepo, couponRepo, couponUC, gateway, audit, tm, logger)
	activationUC := usecase.NewActivationUseCase(paymentRepo, campaignRepo, userRepo, audit, tm, logger)
	invoiceUC := usecase.NewInvoiceUseCase(paymentRepo, counterRepo, tm, logger)
	webhookUC := usecase.NewWebhookUseCase(paymentRepo, activationUC, paymentUC, logger)
	expiryUC := usecase.NewExpiryUseCase(campaignRepo, expiryLogRepo, tm, cfg.Sweeper.BatchSize, logger)

	// ---- HTTP API ----
	srv := web.NewServer(cfg, paymentUC, activationUC, couponUC, invoiceUC, webhookUC, userRepo, logger)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", apiServer.Addr).Msg("api listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api server stopped")
		}
	}()

	// ---- Metrics endpoint ----
	metrics.MustRegister()
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", metricsServer.Addr).Msg("metrics listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	// ---- Expiry sweeper ----
	sweeper := sched.NewExpirySweeper(cfg.Sweeper.Interval, expiryUC, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
}
