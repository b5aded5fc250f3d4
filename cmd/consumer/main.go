// Package main provides the audit stream consumer that writes audit entries to the structured log.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jnst/event-records/internal/config"
	"github.com/jnst/event-records/internal/logger"
	"github.com/jnst/event-records/internal/model"
	"github.com/jnst/event-records/internal/stream"
)

const (
	readCount       = 10
	readBlock       = time.Second
	errorRetryDelay = 1 * time.Second
	exitCode        = 1
)

// streamReader is the subset of the stream client the consumer loop needs.
type streamReader interface {
	ReadGroup(ctx context.Context, key, group, consumer string, count int64, block time.Duration) ([]stream.Message, error)
	Ack(ctx context.Context, key, group, id string) error
}

// AuditHandler processes audit messages read from the stream.
type AuditHandler struct {
	log *slog.Logger
}

// NewAuditHandler creates a handler writing to log.
func NewAuditHandler(log *slog.Logger) *AuditHandler {
	return &AuditHandler{log: log}
}

// Handle decodes one message and writes it as an audit log line.
func (h *AuditHandler) Handle(_ context.Context, msg stream.Message) error {
	record, err := model.ParseAuditMessage(msg.Fields)
	if err != nil {
		return err
	}

	h.log.Info("event audit",
		slog.String("message_id", msg.ID),
		slog.Int64("audit_id", record.ID),
		slog.String("event_id", record.EventID),
		slog.String("operation", string(record.Operation)),
		slog.String("before", string(record.Before)),
		slog.String("after", string(record.After)),
		slog.Time("recorded_at", record.CreatedAt),
	)

	return nil
}

// consumeOnce reads one batch and acknowledges every message that was handled.
// Messages that fail to decode stay pending in the group.
func consumeOnce(ctx context.Context, reader streamReader, handler *AuditHandler, key, group, consumer string) error {
	messages, err := reader.ReadGroup(ctx, key, group, consumer, readCount, readBlock)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		if err := handler.Handle(ctx, msg); err != nil {
			slog.Error("failed to process message",
				slog.String("message_id", msg.ID),
				slog.String("error", err.Error()),
			)

			continue
		}

		if err := reader.Ack(ctx, key, group, msg.ID); err != nil {
			slog.Error("failed to ACK message",
				slog.String("message_id", msg.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

func runConsumerLoop(ctx context.Context, reader streamReader, handler *AuditHandler, key, group, consumer string) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("consumer stopped")
			return
		default:
			if err := consumeOnce(ctx, reader, handler, key, group, consumer); err != nil && ctx.Err() == nil {
				slog.Error("error consuming messages", slog.String("error", err.Error()))
				time.Sleep(errorRetryDelay)
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

	streamClient, err := stream.NewClient(cfg.RedisAddr)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer streamClient.Close()

	if err := streamClient.EnsureGroup(ctx, cfg.AuditStreamKey, cfg.AuditConsumerGroup); err != nil {
		slog.Error("failed to create consumer group", slog.String("error", err.Error()))
		return
	}

	slog.Info("starting audit consumer",
		slog.String("service", "consumer"),
		slog.String("stream", cfg.AuditStreamKey),
		slog.String("group", cfg.AuditConsumerGroup),
		slog.String("consumer", cfg.ConsumerName),
	)

	runConsumerLoop(ctx, streamClient, NewAuditHandler(slog.Default()), cfg.AuditStreamKey, cfg.AuditConsumerGroup, cfg.ConsumerName)
}
