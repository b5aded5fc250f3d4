// Package main provides the HTTP API server for event records.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jnst/event-records/internal/config"
	"github.com/jnst/event-records/internal/db"
	"github.com/jnst/event-records/internal/logger"
	"github.com/jnst/event-records/internal/repository"
	"github.com/jnst/event-records/internal/service"
)

const (
	exitCode          = 1
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

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

	if cfg.Migrate {
		if err := db.Migrate(ctx, dbPool); err != nil {
			slog.Error("failed to apply schema", slog.String("error", err.Error()))
			return
		}
		slog.Info("schema applied")
	}

	transactionMgr := repository.NewTransactionManagerImpl(dbPool)
	eventRepo := repository.NewAuditedEventRepository(
		repository.NewEventRepositoryImpl(dbPool),
		repository.NewAuditRepositoryImpl(dbPool),
		transactionMgr,
	)
	ruleRepo := repository.NewRecurrenceRuleRepositoryImpl(dbPool)
	userRepo := repository.NewUserRepositoryImpl(dbPool)
	eventService := service.NewEventServiceImpl(
		eventRepo,
		ruleRepo,
		userRepo,
		transactionMgr,
		cfg.MaterializeMaxOccurrences,
	)

	userService := service.NewUserServiceImpl(userRepo, repository.NewOrganizationRepositoryImpl(dbPool))

	server := NewAPIServer(eventService, userService, cfg.MaterializeHorizon)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, stopping API server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", slog.String("error", err.Error()))
		}
	}()

	slog.Info("starting API server", slog.String("service", "api"), slog.String("port", cfg.Port))

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to start server", slog.String("error", err.Error()))
		return
	}
}
