package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jnst/event-records/internal/db"
	"github.com/jnst/event-records/internal/model"
)

// AuditRepositoryImpl implements AuditRepository using PostgreSQL.
type AuditRepositoryImpl struct {
	db *db.Queries
}

// NewAuditRepositoryImpl creates a new AuditRepository implementation.
func NewAuditRepositoryImpl(pool *pgxpool.Pool) AuditRepository {
	return &AuditRepositoryImpl{db: db.New(pool)}
}

// Append writes an audit record, joining the transaction in ctx if any.
func (r *AuditRepositoryImpl) Append(
	ctx context.Context, params *model.CreateAuditRecordParams,
) (*model.AuditRecord, error) {
	row, err := queriesFor(ctx, r.db).CreateAuditEntry(ctx, &db.CreateAuditEntryParams{
		EventID:   params.EventID,
		Operation: string(params.Operation),
		Before:    params.Before,
		After:     params.After,
	})
	if err != nil {
		return nil, err
	}

	return toModelAuditRecord(&row), nil
}

// GetUnpublished retrieves audit records not yet published to the stream, oldest first.
func (r *AuditRepositoryImpl) GetUnpublished(ctx context.Context, limit int) ([]*model.AuditRecord, error) {
	rows, err := queriesFor(ctx, r.db).GetUnpublishedAuditEntries(ctx, clampInt32(limit))
	if err != nil {
		return nil, err
	}

	records := make([]*model.AuditRecord, len(rows))
	for i := range rows {
		records[i] = toModelAuditRecord(&rows[i])
	}

	return records, nil
}

// MarkAsPublished marks an audit record as published.
func (r *AuditRepositoryImpl) MarkAsPublished(ctx context.Context, id int64) error {
	return queriesFor(ctx, r.db).MarkAuditEntryPublished(ctx, id)
}
