package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jnst/event-records/internal/db"
	"github.com/jnst/event-records/internal/model"
)

// EventRepositoryImpl implements EventRepository using PostgreSQL.
type EventRepositoryImpl struct {
	db *db.Queries
}

// NewEventRepositoryImpl creates a new EventRepository implementation.
func NewEventRepositoryImpl(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{db: db.New(pool)}
}

// Create inserts a validated event.
func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	row, err := queriesFor(ctx, r.db).CreateEvent(ctx, toEventParams(event))
	if err != nil {
		return nil, translateError(err, model.ErrEventNotFound)
	}

	return toModelEvent(&row), nil
}

// GetByID retrieves an event by ID.
func (r *EventRepositoryImpl) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row, err := queriesFor(ctx, r.db).GetEvent(ctx, id)
	if err != nil {
		return nil, translateError(err, model.ErrEventNotFound)
	}

	return toModelEvent(&row), nil
}

// GetForUpdate retrieves an event by ID and locks the row for the current transaction.
func (r *EventRepositoryImpl) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	row, err := queriesFor(ctx, r.db).GetEventForUpdate(ctx, id)
	if err != nil {
		return nil, translateError(err, model.ErrEventNotFound)
	}

	return toModelEvent(&row), nil
}

// Update overwrites every mutable column and refreshes updated_at.
func (r *EventRepositoryImpl) Update(ctx context.Context, event *model.Event) (*model.Event, error) {
	row, err := queriesFor(ctx, r.db).UpdateEvent(ctx, toEventParams(event))
	if err != nil {
		return nil, translateError(err, model.ErrEventNotFound)
	}

	return toModelEvent(&row), nil
}

// Delete moves an event to DELETED.
func (r *EventRepositoryImpl) Delete(ctx context.Context, id string) (*model.Event, error) {
	row, err := queriesFor(ctx, r.db).SoftDeleteEvent(ctx, id)
	if err != nil {
		return nil, translateError(err, model.ErrEventNotFound)
	}

	return toModelEvent(&row), nil
}

// ListInstances retrieves every instance and exception generated from a base event.
func (r *EventRepositoryImpl) ListInstances(ctx context.Context, baseID string) ([]*model.Event, error) {
	rows, err := queriesFor(ctx, r.db).ListEventInstances(ctx, baseID)
	if err != nil {
		return nil, err
	}

	return toModelEvents(rows), nil
}

// ListBaseRecurring retrieves one page of active base recurring events.
func (r *EventRepositoryImpl) ListBaseRecurring(ctx context.Context, afterID string, limit int) ([]*model.Event, error) {
	rows, err := queriesFor(ctx, r.db).ListBaseRecurringEvents(ctx, &db.ListBaseRecurringEventsParams{
		AfterID: afterID,
		Limit:   clampInt32(limit),
	})
	if err != nil {
		return nil, err
	}

	return toModelEvents(rows), nil
}
