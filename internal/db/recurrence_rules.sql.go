package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createRecurrenceRule = `-- name: CreateRecurrenceRule :one
INSERT INTO recurrence_rules (id, frequency, interval, count, until, weekdays)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, frequency, interval, count, until, weekdays, created_at`

type CreateRecurrenceRuleParams struct {
	ID        string
	Frequency string
	Interval  int32
	Count     pgtype.Int4
	Until     pgtype.Timestamptz
	Weekdays  []string
}

func (q *Queries) CreateRecurrenceRule(ctx context.Context, arg *CreateRecurrenceRuleParams) (RecurrenceRule, error) {
	row := q.db.QueryRow(ctx, createRecurrenceRule,
		arg.ID,
		arg.Frequency,
		arg.Interval,
		arg.Count,
		arg.Until,
		arg.Weekdays,
	)

	var i RecurrenceRule
	err := row.Scan(
		&i.ID,
		&i.Frequency,
		&i.Interval,
		&i.Count,
		&i.Until,
		&i.Weekdays,
		&i.CreatedAt,
	)

	return i, err
}

const getRecurrenceRule = `-- name: GetRecurrenceRule :one
SELECT id, frequency, interval, count, until, weekdays, created_at
FROM recurrence_rules
WHERE id = $1`

func (q *Queries) GetRecurrenceRule(ctx context.Context, id string) (RecurrenceRule, error) {
	row := q.db.QueryRow(ctx, getRecurrenceRule, id)

	var i RecurrenceRule
	err := row.Scan(
		&i.ID,
		&i.Frequency,
		&i.Interval,
		&i.Count,
		&i.Until,
		&i.Weekdays,
		&i.CreatedAt,
	)

	return i, err
}
