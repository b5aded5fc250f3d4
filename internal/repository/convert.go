package repository

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jnst/event-records/internal/db"
	"github.com/jnst/event-records/internal/model"
)

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

// translateError maps driver errors onto model errors; notFound is used for pgx.ErrNoRows.
func translateError(err error, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolation:
			return fmt.Errorf("%w: %s", model.ErrReferenceNotFound, pgErr.ConstraintName)
		case uniqueViolation:
			return fmt.Errorf("%w: %s", model.ErrAlreadyExists, pgErr.ConstraintName)
		}
	}

	return err
}

// clampInt32 bounds a page size to the int32 range the queries take.
func clampInt32(n int) int32 {
	return int32(min(max(n, 0), math.MaxInt32))
}

func toEventParams(e *model.Event) *db.EventParams {
	admins := e.Admins
	if admins == nil {
		admins = []string{}
	}

	return &db.EventParams{
		ID:                        e.ID,
		Title:                     e.Title,
		Description:               e.Description,
		Attendees:                 textOf(e.Attendees),
		Location:                  textOf(e.Location),
		Latitude:                  float8Of(e.Latitude),
		Longitude:                 float8Of(e.Longitude),
		Recurring:                 e.Recurring,
		IsRecurringEventException: e.IsRecurringEventException,
		IsBaseRecurringEvent:      e.IsBaseRecurringEvent,
		RecurrenceRuleID:          textOf(e.RecurrenceRuleID),
		BaseRecurringEventID:      textOf(e.BaseRecurringEventID),
		AllDay:                    e.AllDay,
		StartDate:                 pgtype.Date{Time: e.StartDate.Time(), Valid: true},
		EndDate:                   dateOf(e.EndDate),
		StartTime:                 timestamptzOf(e.StartTime),
		EndTime:                   timestamptzOf(e.EndTime),
		Recurrance:                string(e.Recurrance),
		IsPublic:                  e.IsPublic,
		IsRegisterable:            e.IsRegisterable,
		CreatorID:                 e.CreatorID,
		Admins:                    admins,
		OrganizationID:            e.Organization,
		Status:                    string(e.Status),
	}
}

func toModelEvent(row *db.Event) *model.Event {
	admins := row.Admins
	if admins == nil {
		admins = []string{}
	}

	return &model.Event{
		ID:                        row.ID,
		Title:                     row.Title,
		Description:               row.Description,
		Attendees:                 stringPtr(row.Attendees),
		Location:                  stringPtr(row.Location),
		Latitude:                  floatPtr(row.Latitude),
		Longitude:                 floatPtr(row.Longitude),
		Recurring:                 row.Recurring,
		IsRecurringEventException: row.IsRecurringEventException,
		IsBaseRecurringEvent:      row.IsBaseRecurringEvent,
		RecurrenceRuleID:          stringPtr(row.RecurrenceRuleID),
		BaseRecurringEventID:      stringPtr(row.BaseRecurringEventID),
		AllDay:                    row.AllDay,
		StartDate:                 model.DateOf(row.StartDate.Time),
		EndDate:                   datePtr(row.EndDate),
		StartTime:                 timePtr(row.StartTime),
		EndTime:                   timePtr(row.EndTime),
		Recurrance:                model.Recurrance(row.Recurrance),
		IsPublic:                  row.IsPublic,
		IsRegisterable:            row.IsRegisterable,
		CreatorID:                 row.CreatorID,
		Admins:                    admins,
		Organization:              row.OrganizationID,
		Status:                    model.Status(row.Status),
		CreatedAt:                 row.CreatedAt.Time,
		UpdatedAt:                 row.UpdatedAt.Time,
	}
}

func toModelEvents(rows []db.Event) []*model.Event {
	events := make([]*model.Event, len(rows))
	for i := range rows {
		events[i] = toModelEvent(&rows[i])
	}

	return events
}

func toModelRecurrenceRule(row *db.RecurrenceRule) *model.RecurrenceRule {
	rule := &model.RecurrenceRule{
		ID:        row.ID,
		Frequency: model.Frequency(row.Frequency),
		Interval:  int(row.Interval),
		Until:     timePtr(row.Until),
		Weekdays:  row.Weekdays,
		CreatedAt: row.CreatedAt.Time,
	}
	if row.Count.Valid {
		count := int(row.Count.Int32)
		rule.Count = &count
	}
	if rule.Weekdays == nil {
		rule.Weekdays = []string{}
	}

	return rule
}

func toModelAuditRecord(row *db.EventAuditLog) *model.AuditRecord {
	return &model.AuditRecord{
		ID:          row.ID,
		EventID:     row.EventID,
		Operation:   model.AuditOperation(row.Operation),
		Before:      row.Before,
		After:       row.After,
		CreatedAt:   row.CreatedAt.Time,
		PublishedAt: timePtr(row.PublishedAt),
	}
}

func textOf(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}

	return pgtype.Text{String: *s, Valid: true}
}

func float8Of(f *float64) pgtype.Float8 {
	if f == nil {
		return pgtype.Float8{}
	}

	return pgtype.Float8{Float64: *f, Valid: true}
}

func dateOf(d *model.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}

	return pgtype.Date{Time: d.Time(), Valid: true}
}

func timestamptzOf(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}

	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func stringPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}

	return &t.String
}

func floatPtr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}

	return &f.Float64
}

func datePtr(d pgtype.Date) *model.Date {
	if !d.Valid {
		return nil
	}

	date := model.DateOf(d.Time)

	return &date
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}

	return &t.Time
}

func toModelUser(row *db.User) *model.User {
	return &model.User{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.Time}
}

func toModelOrganization(row *db.Organization) *model.Organization {
	return &model.Organization{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.Time}
}
