package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	postgresRepo "github.com/iho/reconledger/internal/adapter/repository/postgres"
	"github.com/iho/reconledger/internal/infrastructure/config"
	"github.com/iho/reconledger/internal/infrastructure/jobs"
	"github.com/iho/reconledger/internal/infrastructure/logger"
	"github.com/iho/reconledger/internal/infrastructure/metrics"
	"github.com/iho/reconledger/internal/infrastructure/postgres"
	"github.com/iho/reconledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "reconledger-worker"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error().Err(err).Msg("worker exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	appMetrics := metrics.New()

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

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis URL: %w", err)
	}

	txManager := postgresRepo.NewTxManager(pool)
	instrumentRepo := postgresRepo.NewInstrumentRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerTransactionRepository(pool)
	snapshotRepo := postgresRepo.NewSnapshotRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	ledgerUC := usecase.NewLedgerUseCase(txManager, instrumentRepo, ledgerRepo, snapshotRepo, outboxRepo, idGen, appMetrics, appLogger)
	patrimonyUC := usecase.NewPatrimonyUseCase(txManager, instrumentRepo, ledgerRepo, snapshotRepo, outboxRepo, idGen, appMetrics, appLogger)

	keywords, categories, err := parseCategoryRules(cfg.CategoryRules)
	if err != nil {
		return err
	}

	categorizeJob := jobs.NewCategorizeJob(jobs.NewKeywordCategorizer(keywords, categories), ledgerUC, appMetrics, appLogger)
	confirmJob := jobs.NewConfirmElapsedJob(ledgerUC, appMetrics, appLogger)
	snapshotJob := jobs.NewPeriodicSnapshotJob(patrimonyUC, appMetrics, appLogger)

	cron, err := cronRegistrations(cfg)
	if err != nil {
		return err
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpt:    redisOpt,
		Concurrency: cfg.WorkerConcurrency,
		Logger:      appLogger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCategorize, Handler: categorizeJob.Handle},
			{Type: jobs.TaskConfirmElapsed, Handler: confirmJob.Handle},
			{Type: jobs.TaskPeriodicSnapshot, Handler: snapshotJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		return fmt.Errorf("init worker: %w", err)
	}

	return worker.Run(ctx)
}

// cronRegistrations builds the confirmation sweep and one periodic snapshot
// entry per configured owner. An empty cron spec disables the entry.
func cronRegistrations(cfg *config.Config) ([]jobs.CronRegistration, error) {
	var cron []jobs.CronRegistration

	if cfg.ConfirmSweepCron != "" {
		task, err := jobs.NewConfirmElapsedTask("", cfg.ConfirmPendingAfter)
		if err != nil {
			return nil, err
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.ConfirmSweepCron, Task: task})
	}

	if cfg.PeriodicSnapshotCron != "" {
		for _, owner := range cfg.SnapshotOwners {
			owner = strings.TrimSpace(owner)
			if owner == "" {
				continue
			}
			task, err := jobs.NewPeriodicSnapshotTask(owner)
			if err != nil {
				return nil, err
			}
			cron = append(cron, jobs.CronRegistration{Spec: cfg.PeriodicSnapshotCron, Task: task})
		}
	}

	return cron, nil
}

// parseCategoryRules splits keyword:category pairs, keeping their order.
func parseCategoryRules(rules []string) ([]string, map[string]string, error) {
	keywords := make([]string, 0, len(rules))
	categories := make(map[string]string, len(rules))
	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		keyword, category, ok := strings.Cut(rule, ":")
		keyword, category = strings.TrimSpace(keyword), strings.TrimSpace(category)
		if !ok || keyword == "" || category == "" {
			return nil, nil, fmt.Errorf("CATEGORY_RULES: invalid rule %q", rule)
		}
		keywords = append(keywords, keyword)
		categories[keyword] = category
	}
	return keywords, categories, nil
}
