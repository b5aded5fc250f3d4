// Package main provides the audit publisher that relays unpublished audit records to Redis Streams.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jnst/event-records/internal/config"
	"github.com/jnst/event-records/internal/logger"
	"github.com/jnst/event-records/internal/metrics"
	"github.com/jnst/event-records/internal/repository"
	"github.com/jnst/event-records/internal/service"
	"github.com/jnst/event-records/internal/stream"
)

const exitCode = 1

func runPublisherLoop(
	ctx context.Context,
	auditService service.AuditService,
	pollInterval time.Duration,
	batchSize int,
) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("publisher stopped")
			return
		case <-ticker.C:
			published, err := auditService.PublishPending(ctx, batchSize)
			if err != nil {
				slog.Error("error publishing audit records", slog.String("error", err.Error()))
				continue
			}

			if published > 0 {
				slog.Info("published audit records", slog.Int("count", published))
			}
		}
	}
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

	streamClient, err := stream.NewClient(cfg.RedisAddr)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.String("error", err.Error()))
		return
	}
	defer streamClient.Close()

	auditRepo := repository.NewAuditRepositoryImpl(dbPool)
	auditService := service.NewAuditServiceImpl(auditRepo, streamClient, cfg.AuditStreamKey)

	slog.Info("starting audit publisher",
		slog.String("service", "publisher"),
		slog.String("stream", cfg.AuditStreamKey),
		slog.Duration("poll_interval", cfg.PublisherPollInterval),
		slog.Int("batch_size", cfg.PublisherBatchSize),
	)

	go metrics.Serve(ctx, cfg.MetricsAddr)

	runPublisherLoop(ctx, auditService, cfg.PublisherPollInterval, cfg.PublisherBatchSize)
}
