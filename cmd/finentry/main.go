package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/finentry/finentry/internal/app"
	"github.com/finentry/finentry/internal/assistant"
	auditlog "github.com/finentry/finentry/internal/audit"
	audithttp "github.com/finentry/finentry/internal/audit/http"
	"github.com/finentry/finentry/internal/auth"
	"github.com/finentry/finentry/internal/delivery"
	"github.com/finentry/finentry/internal/inventory"
	"github.com/finentry/finentry/internal/masterdata"
	"github.com/finentry/finentry/internal/masterdata/companies"
	"github.com/finentry/finentry/internal/observability"
	"github.com/finentry/finentry/internal/platform/cache"
	"github.com/finentry/finentry/internal/platform/db"
	"github.com/finentry/finentry/internal/reports"
	"github.com/finentry/finentry/internal/shared"
	"github.com/finentry/finentry/internal/transactions"
	"github.com/finentry/finentry/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, db.Options{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sealer, err := assistant.NewSealer(cfg.SecretKey)
	if err != nil {
		logger.Error("init secret sealer", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	audit := shared.NewAuditLogger(pool)
	idempotency := shared.NewIdempotencyStore(pool)
	directory := companies.NewService(companies.NewRepository(pool))

	txOpts := []transactions.Option{transactions.WithMetrics(metrics), transactions.WithLogger(logger)}
	deliveryOpts := []delivery.Option{delivery.WithLogger(logger)}
	if cfg.InvoiceLockEnabled {
		redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		locker := transactions.NewRedisLocker(redisClient, cfg.InvoiceLockTTL, cfg.InvoiceLockTTL)
		txOpts = append(txOpts, transactions.WithLocker(locker))
		deliveryOpts = append(deliveryOpts, delivery.WithLocker(locker))
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(logger, auth.NewService(auth.NewRepository(pool), tokens))

	txService := transactions.NewService(transactions.NewRepository(pool), audit, txOpts...)
	txHandler := transactions.NewHandler(logger, txService, idempotency)

	inventoryHandler := inventory.NewHandler(logger, inventory.NewService(inventory.NewRepository(pool), audit))
	deliveryHandler := delivery.NewHandler(logger, delivery.NewService(delivery.NewRepository(pool), audit, deliveryOpts...))

	reportsRepo := reports.NewRepository(pool)
	reportsHandler := reports.NewHandler(logger, reports.NewService(reportsRepo))

	assistantService := assistant.NewService(
		assistant.NewRepository(pool),
		reportsRepo,
		directory,
		sealer,
		assistant.HTTPCompleters(cfg.AIHTTPTimeout),
		assistant.WithLogger(logger),
	)
	assistantHandler := assistant.NewHandler(logger, assistantService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger).WithEnqueuer(jobClient)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		Auth:                auth.Middleware{Tokens: tokens, Logger: logger},
		Directory:           directory,
		Metrics:             metrics,
		AuthHandler:         authHandler,
		TransactionsHandler: txHandler,
		MasterDataHandler:   masterdata.NewHandler(logger, pool),
		CompaniesHandler:    companies.NewHandler(logger, directory),
		InventoryHandler:    inventoryHandler,
		DeliveryHandler:     deliveryHandler,
		ReportsHandler:      reportsHandler,
		AssistantHandler:    assistantHandler,
		AuditHandler:        audithttp.NewHandler(logger, auditlog.NewService(auditlog.NewRepository(pool))),
		JobHandler:          jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
