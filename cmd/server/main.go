package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/reconledger/internal/adapter/http"
	"github.com/iho/reconledger/internal/adapter/http/handler"
	postgresRepo "github.com/iho/reconledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/reconledger/internal/adapter/repository/redis"
	"github.com/iho/reconledger/internal/infrastructure/config"
	"github.com/iho/reconledger/internal/infrastructure/eventpublisher"
	"github.com/iho/reconledger/internal/infrastructure/extraction"
	"github.com/iho/reconledger/internal/infrastructure/jobs"
	"github.com/iho/reconledger/internal/infrastructure/logger"
	"github.com/iho/reconledger/internal/infrastructure/metrics"
	"github.com/iho/reconledger/internal/infrastructure/postgres"
	"github.com/iho/reconledger/internal/infrastructure/redis"
	"github.com/iho/reconledger/internal/reconciliation"
	"github.com/iho/reconledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "reconledger-server"})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	matchConfig, err := cfg.MatchConfig()
	if err != nil {
		return err
	}

	appMetrics := metrics.New()

	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
			return err
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
		Metrics:     appMetrics,
		Logger:      appLogger,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, appMetrics)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	redisOpt, err := asynqRedisOpt(cfg.RedisURL)
	if err != nil {
		return err
	}
	jobClient := jobs.NewClient(redisOpt)
	defer jobClient.Close()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	instrumentRepo := postgresRepo.NewInstrumentRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerTransactionRepository(pool)
	reportRepo := postgresRepo.NewReportRepository(pool)
	snapshotRepo := postgresRepo.NewSnapshotRepository(pool)
	resolutionRepo := postgresRepo.NewResolutionRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger, cfg.DatabaseRetries)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize use cases
	instrumentUC := usecase.NewInstrumentUseCase(txManager, instrumentRepo, idGen)
	ledgerUC := usecase.NewLedgerUseCase(txManager, instrumentRepo, ledgerRepo, snapshotRepo, outboxRepo, idGen, appMetrics, appLogger)
	patrimonyUC := usecase.NewPatrimonyUseCase(txManager, instrumentRepo, ledgerRepo, snapshotRepo, outboxRepo, idGen, appMetrics, appLogger)
	reconUC := usecase.NewReconciliationUseCase(usecase.ReconciliationDeps{
		TxManager:      txManager,
		InstrumentRepo: instrumentRepo,
		LedgerRepo:     ledgerRepo,
		ReportRepo:     reportRepo,
		SnapshotRepo:   snapshotRepo,
		ResolutionRepo: resolutionRepo,
		OutboxRepo:     outboxRepo,
		IDGen:          idGen,
		Retrier:        retrier,
		Locker:         redisRepo.NewRunLocker(redisClient),
		Cache:          redisRepo.NewReportCache(redisClient),
		Extractor:      extraction.NewReader(),
		Engine:         reconciliation.NewEngine(matchConfig, nil),
		Metrics:        appMetrics,
		Logger:         appLogger,
		LockTTL:        cfg.RunLockTTL,
		CacheTTL:       cfg.ReportCacheTTL,
	})

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ReconciliationHandler: handler.NewReconciliationHandler(reconUC, cfg.MaxStatementBytes),
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC),
		InstrumentHandler:     handler.NewInstrumentHandler(instrumentUC),
		PatrimonyHandler:      handler.NewPatrimonyHandler(patrimonyUC),
		HealthHandler: handler.NewHealthHandler(
			handler.Dependency{Name: "postgres", Ping: pool.Ping},
			handler.Dependency{Name: "redis", Ping: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}},
		),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Metrics:          appMetrics,
		MetricsHandler:   promhttp.Handler(),
		Logger:           appLogger,
		RunRateLimit:     cfg.RunRateLimit,
		RunRateWindow:    cfg.RunRateWindow,
		ForceHTTPS:       cfg.ForceHTTPS,
	})

	// Outbox publisher
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewAsynqPublisher(jobClient, eventpublisher.NewLogPublisher(appLogger)),
		Metrics:    appMetrics,
		Logger:     appLogger,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLogger.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	appLogger.Info().Msg("server stopped")
	return nil
}

// asynqRedisOpt converts REDIS_URL into asynq connection options.
func asynqRedisOpt(redisURL string) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL for jobs: %w", err)
	}
	return opt, nil
}
