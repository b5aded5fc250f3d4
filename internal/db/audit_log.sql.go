package db

import (
	"context"
)

const createAuditEntry = `-- name: CreateAuditEntry :one
INSERT INTO event_audit_log (event_id, operation, before, after)
VALUES ($1, $2, $3, $4)
RETURNING id, event_id, operation, before, after, created_at, published_at`

type CreateAuditEntryParams struct {
	EventID   string
	Operation string
	Before    []byte
	After     []byte
}

func (q *Queries) CreateAuditEntry(ctx context.Context, arg *CreateAuditEntryParams) (EventAuditLog, error) {
	row := q.db.QueryRow(ctx, createAuditEntry,
		arg.EventID,
		arg.Operation,
		arg.Before,
		arg.After,
	)

	var i EventAuditLog
	err := row.Scan(
		&i.ID,
		&i.EventID,
		&i.Operation,
		&i.Before,
		&i.After,
		&i.CreatedAt,
		&i.PublishedAt,
	)

	return i, err
}

const getUnpublishedAuditEntries = `-- name: GetUnpublishedAuditEntries :many
SELECT id, event_id, operation, before, after, created_at, published_at
FROM event_audit_log
WHERE published_at IS NULL
ORDER BY id
LIMIT $1`

func (q *Queries) GetUnpublishedAuditEntries(ctx context.Context, limit int32) ([]EventAuditLog, error) {
	rows, err := q.db.Query(ctx, getUnpublishedAuditEntries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []EventAuditLog
	for rows.Next() {
		var i EventAuditLog
		if err := rows.Scan(
			&i.ID,
			&i.EventID,
			&i.Operation,
			&i.Before,
			&i.After,
			&i.CreatedAt,
			&i.PublishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

const markAuditEntryPublished = `-- name: MarkAuditEntryPublished :exec
UPDATE event_audit_log
SET published_at = now()
WHERE id = $1`

func (q *Queries) MarkAuditEntryPublished(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, markAuditEntryPublished, id)
	return err
}
