// Package main provides the scheduler that materializes recurring event instances on a cron schedule.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"github.com/jnst/event-records/internal/config"
	"github.com/jnst/event-records/internal/logger"
	"github.com/jnst/event-records/internal/metrics"
	"github.com/jnst/event-records/internal/repository"
	"github.com/jnst/event-records/internal/service"
)

const exitCode = 1

// materializer is the part of EventService the job drives.
type materializer interface {
	MaterializeAll(ctx context.Context, until time.Time, batchSize int) (int, error)
}

// materializeJob tops up every active recurring series to now plus horizon.
type materializeJob struct {
	ctx       context.Context
	events    materializer
	horizon   time.Duration
	batchSize int
	now       func() time.Time
}

var _ cron.Job = (*materializeJob)(nil)

func (j *materializeJob) Run() {
	if j.ctx.Err() != nil {
		return
	}

	until := j.now().Add(j.horizon)
	started := time.Now()

	created, err := j.events.MaterializeAll(j.ctx, until, j.batchSize)
	if err != nil {
		slog.Error("materialization run failed", slog.String("error", err.Error()))
		return
	}

	slog.Info("materialization run finished",
		slog.Int("created", created),
		slog.Time("until", until),
		slog.Duration("elapsed", time.Since(started)),
	)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	slog.SetDefault(logger.Setup(cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer dbPool.Close()

	transactionMgr := repository.NewTransactionManagerImpl(dbPool)
	eventRepo := repository.NewAuditedEventRepository(
		repository.NewEventRepositoryImpl(dbPool),
		repository.NewAuditRepositoryImpl(dbPool),
		transactionMgr,
	)
	eventService := service.NewEventServiceImpl(
		eventRepo,
		repository.NewRecurrenceRuleRepositoryImpl(dbPool),
		repository.NewUserRepositoryImpl(dbPool),
		transactionMgr,
		cfg.MaterializeMaxOccurrences,
	)

	job := &materializeJob{
		ctx:       ctx,
		events:    eventService,
		horizon:   cfg.MaterializeHorizon,
		batchSize: cfg.MaterializeBatchSize,
		now:       time.Now,
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddJob(cfg.MaterializeSchedule, job); err != nil {
		slog.Error("invalid materialize schedule",
			slog.String("schedule", cfg.MaterializeSchedule),
			slog.String("error", err.Error()),
		)
		return
	}

	slog.Info("starting materialization scheduler",
		slog.String("service", "scheduler"),
		slog.String("schedule", cfg.MaterializeSchedule),
		slog.Duration("horizon", cfg.MaterializeHorizon),
	)

	go metrics.Serve(ctx, cfg.MetricsAddr)

	job.Run()
	scheduler.Start()

	<-ctx.Done()
	slog.Info("shutdown signal received, waiting for running job")
	<-scheduler.Stop().Done()
	slog.Info("scheduler stopped")
}
