package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jnst/event-records/internal/db"
	"github.com/jnst/event-records/internal/model"
)

// RecurrenceRuleRepositoryImpl implements RecurrenceRuleRepository using PostgreSQL.
type RecurrenceRuleRepositoryImpl struct {
	db *db.Queries
}

// NewRecurrenceRuleRepositoryImpl creates a new RecurrenceRuleRepository implementation.
func NewRecurrenceRuleRepositoryImpl(pool *pgxpool.Pool) RecurrenceRuleRepository {
	return &RecurrenceRuleRepositoryImpl{db: db.New(pool)}
}

// Create inserts a recurrence rule.
func (r *RecurrenceRuleRepositoryImpl) Create(
	ctx context.Context, rule *model.RecurrenceRule,
) (*model.RecurrenceRule, error) {
	params := &db.CreateRecurrenceRuleParams{
		ID:        rule.ID,
		Frequency: string(rule.Frequency),
		Interval:  clampInt32(max(rule.Interval, 1)),
		Until:     timestamptzOf(rule.Until),
		Weekdays:  rule.Weekdays,
	}
	if rule.Count != nil {
		params.Count = pgtype.Int4{Int32: clampInt32(*rule.Count), Valid: true}
	}
	if params.Weekdays == nil {
		params.Weekdays = []string{}
	}

	row, err := queriesFor(ctx, r.db).CreateRecurrenceRule(ctx, params)
	if err != nil {
		return nil, translateError(err, model.ErrRecurrenceRuleNotFound)
	}

	return toModelRecurrenceRule(&row), nil
}

// GetByID retrieves a recurrence rule by ID.
func (r *RecurrenceRuleRepositoryImpl) GetByID(ctx context.Context, id string) (*model.RecurrenceRule, error) {
	row, err := queriesFor(ctx, r.db).GetRecurrenceRule(ctx, id)
	if err != nil {
		return nil, translateError(err, model.ErrRecurrenceRuleNotFound)
	}

	return toModelRecurrenceRule(&row), nil
}
