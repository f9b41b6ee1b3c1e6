package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/cardbillhq/cardbill-api/internal/config"
	"github.com/cardbillhq/cardbill-api/internal/handler"
	"github.com/cardbillhq/cardbill-api/internal/logging"
	"github.com/cardbillhq/cardbill-api/internal/middleware"
	"github.com/cardbillhq/cardbill-api/internal/notify"
	"github.com/cardbillhq/cardbill-api/internal/observability"
	"github.com/cardbillhq/cardbill-api/internal/repository"
	"github.com/cardbillhq/cardbill-api/internal/service"
	"github.com/cardbillhq/cardbill-api/internal/service/transaction"
	"github.com/cardbillhq/cardbill-api/internal/vtu"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("cardbill-api", cfg.LogLevel, cfg.AppEnv)
	observability.InitMetrics()

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	eventRepo := repository.NewTransactionEventRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	cryptoRepo := repository.NewCryptoAssetRepository(db)
	giftCardRepo := repository.NewGiftCardRepository(db)
	idemRepo := repository.NewIdempotencyRepository(db)

	var m notify.Mailer
	if cfg.SMTPHost != "" {
		m = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		m = &notify.LogMailer{Logger: logger}
	}

	provider := vtu.NewClient(cfg.VTUProviderURL, cfg.VTUProviderAPIKey, cfg.VTUTimeout)

	txService := transaction.NewService(
		txRepo, userRepo, ledgerRepo, eventRepo, notifRepo,
		cryptoRepo, giftCardRepo, provider, db, cfg,
	)
	userService := service.NewUserService(userRepo, ledgerRepo, m, cfg)
	catalogService := service.NewCatalogService(cryptoRepo, giftCardRepo)

	authHandler := handler.NewAuthHandler(userService)
	walletHandler := handler.NewWalletHandler(userService)
	txHandler := handler.NewTransactionHandler(txService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	adminHandler := handler.NewAdminHandler(txService, userService, catalogService)
	healthHandler := handler.NewHealthHandler(db)

	authOnly := middleware.Auth(cfg.JWTSecret)
	adminOnly := func(h http.Handler) http.Handler {
		return authOnly(middleware.RequireAdmin(h))
	}
	idempotent := func(h http.Handler) http.Handler {
		return authOnly(middleware.Idempotency(idemRepo, cfg.IdempotencyTTL)(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.Handle("GET /metrics", observability.MetricsHandler())

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("POST /api/v1/auth/verify", authOnly(http.HandlerFunc(authHandler.VerifyEmail)))

	mux.Handle("GET /api/v1/users/me", authOnly(http.HandlerFunc(walletHandler.Me)))
	mux.Handle("GET /api/v1/wallet/balance", authOnly(http.HandlerFunc(walletHandler.Balance)))
	mux.Handle("GET /api/v1/wallet/ledger", authOnly(http.HandlerFunc(walletHandler.Ledger)))

	mux.Handle("POST /api/v1/withdrawals", idempotent(http.HandlerFunc(txHandler.CreateWithdrawal)))
	mux.Handle("POST /api/v1/vtu", idempotent(http.HandlerFunc(txHandler.CreateVTU)))
	mux.Handle("POST /api/v1/trades/crypto", idempotent(http.HandlerFunc(txHandler.CreateCryptoTrade)))
	mux.Handle("POST /api/v1/trades/giftcards", idempotent(http.HandlerFunc(txHandler.CreateGiftCardTrade)))
	mux.Handle("GET /api/v1/transactions", authOnly(http.HandlerFunc(txHandler.List)))
	mux.Handle("GET /api/v1/transactions/{id}", authOnly(http.HandlerFunc(txHandler.Get)))
	mux.Handle("POST /api/v1/transactions/{id}/cancel", authOnly(http.HandlerFunc(txHandler.Cancel)))

	mux.Handle("GET /api/v1/assets", authOnly(http.HandlerFunc(catalogHandler.ListAssets)))
	mux.Handle("GET /api/v1/giftcards", authOnly(http.HandlerFunc(catalogHandler.ListGiftCards)))

	mux.Handle("GET /api/v1/admin/transactions", adminOnly(http.HandlerFunc(adminHandler.ListTransactions)))
	mux.Handle("POST /api/v1/admin/transactions/{id}/adjudicate", adminOnly(http.HandlerFunc(adminHandler.Adjudicate)))
	mux.Handle("GET /api/v1/admin/users", adminOnly(http.HandlerFunc(adminHandler.ListUsers)))
	mux.Handle("PATCH /api/v1/admin/users/{id}", adminOnly(http.HandlerFunc(adminHandler.UpdateUser)))
	mux.Handle("GET /api/v1/admin/assets", adminOnly(http.HandlerFunc(adminHandler.ListAllAssets)))
	mux.Handle("POST /api/v1/admin/assets", adminOnly(http.HandlerFunc(adminHandler.CreateAsset)))
	mux.Handle("PUT /api/v1/admin/assets/{id}", adminOnly(http.HandlerFunc(adminHandler.UpdateAsset)))
	mux.Handle("DELETE /api/v1/admin/assets/{id}", adminOnly(http.HandlerFunc(adminHandler.DeactivateAsset)))
	mux.Handle("GET /api/v1/admin/giftcards", adminOnly(http.HandlerFunc(adminHandler.ListAllGiftCards)))
	mux.Handle("POST /api/v1/admin/giftcards", adminOnly(http.HandlerFunc(adminHandler.CreateGiftCard)))
	mux.Handle("PUT /api/v1/admin/giftcards/{id}", adminOnly(http.HandlerFunc(adminHandler.UpdateGiftCard)))
	mux.Handle("DELETE /api/v1/admin/giftcards/{id}", adminOnly(http.HandlerFunc(adminHandler.DeactivateGiftCard)))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := notify.NewDispatcher(notifRepo, userRepo, m, logger, cfg.NotifyInterval)
	go dispatcher.Start(rootCtx)

	go cleanIdempotencyCache(rootCtx, idemRepo, cfg.IdempotencyCleanup, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-rootCtx.Done()

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func cleanIdempotencyCache(ctx context.Context, repo *repository.IdempotencyRepository, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanExpired(ctx)
			if err != nil {
				logger.Error("idempotency cache cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("idempotency cache cleaned", "removed", n)
			}
		}
	}
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var lastErr error
	for i := range 30 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		cancel()
		if err == nil {
			return db, nil
		}
		lastErr = err
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}
	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", lastErr)
}
