package service

import (
	"context"
	"log/slog"

	"github.com/jnst/event-records/internal/metrics"
	"github.com/jnst/event-records/internal/repository"
)

// AuditServiceImpl implements AuditService by relaying the audit log to a stream.
type AuditServiceImpl struct {
	auditRepo repository.AuditRepository
	publisher StreamPublisher
	streamKey string
}

// NewAuditServiceImpl creates a new AuditService implementation.
func NewAuditServiceImpl(auditRepo repository.AuditRepository, publisher StreamPublisher, streamKey string) AuditService {
	return &AuditServiceImpl{
		auditRepo: auditRepo,
		publisher: publisher,
		streamKey: streamKey,
	}
}

// PublishPending publishes up to limit unpublished audit records in insertion order
// and returns how many were published. A record that fails to publish stays pending
// and is retried on the next call.
func (s *AuditServiceImpl) PublishPending(ctx context.Context, limit int) (int, error) {
	records, err := s.auditRepo.GetUnpublished(ctx, limit)
	if err != nil {
		return 0, err
	}

	published := 0

	for _, record := range records {
		messageID, err := s.publisher.Publish(ctx, s.streamKey, record.StreamFields())
		if err != nil {
			slog.Error("failed to publish audit record",
				slog.Int64("audit_id", record.ID),
				slog.String("error", err.Error()),
			)
			metrics.AuditPublishFailures.Inc()

			continue
		}

		if err := s.auditRepo.MarkAsPublished(ctx, record.ID); err != nil {
			slog.Error("failed to mark audit record as published",
				slog.Int64("audit_id", record.ID),
				slog.String("error", err.Error()),
			)
			metrics.AuditPublishFailures.Inc()

			continue
		}

		published++
		metrics.AuditPublished.Inc()

		slog.Debug("published audit record",
			slog.Int64("audit_id", record.ID),
			slog.String("stream", s.streamKey),
			slog.String("message_id", messageID),
		)
	}

	return published, nil
}
