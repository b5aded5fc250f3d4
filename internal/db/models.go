package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Event struct {
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
	CreatedAt                 pgtype.Timestamptz
	UpdatedAt                 pgtype.Timestamptz
}

type RecurrenceRule struct {
	ID        string
	Frequency string
	Interval  int32
	Count     pgtype.Int4
	Until     pgtype.Timestamptz
	Weekdays  []string
	CreatedAt pgtype.Timestamptz
}

type EventAuditLog struct {
	ID          int64
	EventID     string
	Operation   string
	Before      []byte
	After       []byte
	CreatedAt   pgtype.Timestamptz
	PublishedAt pgtype.Timestamptz
}

type User struct {
	ID        string
	Name      string
	CreatedAt pgtype.Timestamptz
}

type Organization struct {
	ID        string
	Name      string
	CreatedAt pgtype.Timestamptz
}
