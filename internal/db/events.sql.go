package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const eventColumns = `id, title, description, attendees, location, latitude, longitude,
    recurring, is_recurring_event_exception, is_base_recurring_event,
    recurrence_rule_id, base_recurring_event_id, all_day, start_date, end_date,
    start_time, end_time, recurrance, is_public, is_registerable,
    creator_id, admins, organization_id, status, created_at, updated_at`

type EventParams struct {
	ID                        string
	Title                     string
	Description               string
	Attendees                 pgtype.Text
	Location                  pgtype.Text
	Latitude                  pgtype.Float8
	Longitude                 pgtype.Float8
	Recurring                 bool
	IsRecurringEventException bool
	IsBaseRecurringEvent      bool
	RecurrenceRuleID          pgtype.Text
	BaseRecurringEventID      pgtype.Text
	AllDay                    bool
	StartDate                 pgtype.Date
	EndDate                   pgtype.Date
	StartTime                 pgtype.Timestamptz
	EndTime                   pgtype.Timestamptz
	Recurrance                string
	IsPublic                  bool
	IsRegisterable            bool
	CreatorID                 string
	Admins                    []string
	OrganizationID            string
	Status                    string
}

func (p *EventParams) args() []interface{} {
	return []interface{}{
		p.ID,
		p.Title,
		p.Description,
		p.Attendees,
		p.Location,
		p.Latitude,
		p.Longitude,
		p.Recurring,
		p.IsRecurringEventException,
		p.IsBaseRecurringEvent,
		p.RecurrenceRuleID,
		p.BaseRecurringEventID,
		p.AllDay,
		p.StartDate,
		p.EndDate,
		p.StartTime,
		p.EndTime,
		p.Recurrance,
		p.IsPublic,
		p.IsRegisterable,
		p.CreatorID,
		p.Admins,
		p.OrganizationID,
		p.Status,
	}
}

func scanEvent(row pgx.Row) (Event, error) {
	var i Event
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Description,
		&i.Attendees,
		&i.Location,
		&i.Latitude,
		&i.Longitude,
		&i.Recurring,
		&i.IsRecurringEventException,
		&i.IsBaseRecurringEvent,
		&i.RecurrenceRuleID,
		&i.BaseRecurringEventID,
		&i.AllDay,
		&i.StartDate,
		&i.EndDate,
		&i.StartTime,
		&i.EndTime,
		&i.Recurrance,
		&i.IsPublic,
		&i.IsRegisterable,
		&i.CreatorID,
		&i.Admins,
		&i.OrganizationID,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)

	return i, err
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
	defer rows.Close()

	var items []Event
	for rows.Next() {
		i, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

const createEvent = `-- name: CreateEvent :one
INSERT INTO events (
    id, title, description, attendees, location, latitude, longitude,
    recurring, is_recurring_event_exception, is_base_recurring_event,
    recurrence_rule_id, base_recurring_event_id, all_day, start_date, end_date,
    start_time, end_time, recurrance, is_public, is_registerable,
    creator_id, admins, organization_id, status
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
    $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
)
RETURNING ` + eventColumns

func (q *Queries) CreateEvent(ctx context.Context, arg *EventParams) (Event, error) {
	return scanEvent(q.db.QueryRow(ctx, createEvent, arg.args()...))
}

const getEvent = `-- name: GetEvent :one
SELECT ` + eventColumns + `
FROM events
WHERE id = $1`

func (q *Queries) GetEvent(ctx context.Context, id string) (Event, error) {
	return scanEvent(q.db.QueryRow(ctx, getEvent, id))
}

const getEventForUpdate = `-- name: GetEventForUpdate :one
SELECT ` + eventColumns + `
FROM events
WHERE id = $1
FOR UPDATE`

func (q *Queries) GetEventForUpdate(ctx context.Context, id string) (Event, error) {
	return scanEvent(q.db.QueryRow(ctx, getEventForUpdate, id))
}

const updateEvent = `-- name: UpdateEvent :one
UPDATE events SET
    title = $2,
    description = $3,
    attendees = $4,
    location = $5,
    latitude = $6,
    longitude = $7,
    recurring = $8,
    is_recurring_event_exception = $9,
    is_base_recurring_event = $10,
    recurrence_rule_id = $11,
    base_recurring_event_id = $12,
    all_day = $13,
    start_date = $14,
    end_date = $15,
    start_time = $16,
    end_time = $17,
    recurrance = $18,
    is_public = $19,
    is_registerable = $20,
    creator_id = $21,
    admins = $22,
    organization_id = $23,
    status = $24,
    updated_at = now()
WHERE id = $1
RETURNING ` + eventColumns

func (q *Queries) UpdateEvent(ctx context.Context, arg *EventParams) (Event, error) {
	return scanEvent(q.db.QueryRow(ctx, updateEvent, arg.args()...))
}

const softDeleteEvent = `-- name: SoftDeleteEvent :one
UPDATE events SET
    status = 'DELETED',
    updated_at = now()
WHERE id = $1
RETURNING ` + eventColumns

func (q *Queries) SoftDeleteEvent(ctx context.Context, id string) (Event, error) {
	return scanEvent(q.db.QueryRow(ctx, softDeleteEvent, id))
}

const listEventInstances = `-- name: ListEventInstances :many
SELECT ` + eventColumns + `
FROM events
WHERE base_recurring_event_id = $1
ORDER BY start_date, start_time NULLS FIRST, id`

func (q *Queries) ListEventInstances(ctx context.Context, baseRecurringEventID string) ([]Event, error) {
	rows, err := q.db.Query(ctx, listEventInstances, baseRecurringEventID)
	if err != nil {
		return nil, err
	}

	return scanEvents(rows)
}

const listBaseRecurringEvents = `-- name: ListBaseRecurringEvents :many
SELECT ` + eventColumns + `
FROM events
WHERE is_base_recurring_event
    AND base_recurring_event_id IS NULL
    AND status = 'ACTIVE'
    AND id > $1
ORDER BY id
LIMIT $2`

type ListBaseRecurringEventsParams struct {
	AfterID string
	Limit   int32
}

func (q *Queries) ListBaseRecurringEvents(ctx context.Context, arg *ListBaseRecurringEventsParams) ([]Event, error) {
	rows, err := q.db.Query(ctx, listBaseRecurringEvents, arg.AfterID, arg.Limit)
	if err != nil {
		return nil, err
	}

	return scanEvents(rows)
}
