// Package model defines domain models and data structures.
package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Status represents the lifecycle state of an event. Any state may move to any other.
type Status string

const (
	// StatusActive is the initial state of every event.
	StatusActive Status = "ACTIVE"
	// StatusBlocked hides an event without deleting it.
	StatusBlocked Status = "BLOCKED"
	// StatusDeleted marks a soft-deleted event.
	StatusDeleted Status = "DELETED"
)

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusDeleted:
		return true
	}

	return false
}

// Recurrance is the repeat frequency of a recurring event.
type Recurrance string

const (
	RecurranceOnce    Recurrance = "ONCE"
	RecurranceDaily   Recurrance = "DAILY"
	RecurranceWeekly  Recurrance = "WEEKLY"
	RecurranceMonthly Recurrance = "MONTHLY"
	RecurranceYearly  Recurrance = "YEARLY"
)

// EventKind classifies an event within the recurring identity model.
type EventKind string

const (
	KindSingle    EventKind = "single"
	KindBase      EventKind = "base"
	KindInstance  EventKind = "instance"
	KindException EventKind = "exception"
)

const dateLayout = "2006-01-02"

// Date is a calendar day in UTC without a clock component.
type Date time.Time

// NewDate returns the given day.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err == nil {
		return DateOf(t), nil
	}

	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}

	return DateOf(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Time(d)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date(d.Time().AddDate(0, 0, n))
}

// Equal reports whether both dates name the same day.
func (d Date) Equal(other Date) bool {
	return d.Time().Equal(other.Time())
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// MarshalJSON encodes the date as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "2006-01-02" or an RFC 3339 timestamp.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// Event represents a scheduled occurrence, or a recurring-series template, visible to an organization.
type Event struct {
	ID                        string     `json:"id"`
	Title                     string     `json:"title"`
	Description               string     `json:"description"`
	Attendees                 *string    `json:"attendees,omitempty"`
	Location                  *string    `json:"location,omitempty"`
	Latitude                  *float64   `json:"latitude,omitempty"`
	Longitude                 *float64   `json:"longitude,omitempty"`
	Recurring                 bool       `json:"recurring"`
	IsRecurringEventException bool       `json:"isRecurringEventException"`
	IsBaseRecurringEvent      bool       `json:"isBaseRecurringEvent"`
	RecurrenceRuleID          *string    `json:"recurrenceRuleId,omitempty"`
	BaseRecurringEventID      *string    `json:"baseRecurringEventId,omitempty"`
	AllDay                    bool       `json:"allDay"`
	StartDate                 Date       `json:"startDate"`
	EndDate                   *Date      `json:"endDate,omitempty"`
	StartTime                 *time.Time `json:"startTime,omitempty"`
	EndTime                   *time.Time `json:"endTime,omitempty"`
	Recurrance                Recurrance `json:"recurrance"`
	IsPublic                  bool       `json:"isPublic"`
	IsRegisterable            bool       `json:"isRegisterable"`
	CreatorID                 string     `json:"creatorId"`
	Admins                    []string   `json:"admins"`
	Organization              string     `json:"organization"`
	Status                    Status     `json:"status"`
	CreatedAt                 time.Time  `json:"createdAt"`
	UpdatedAt                 time.Time  `json:"updatedAt"`
}

// Kind places the event in the base / instance / exception hierarchy.
func (e *Event) Kind() EventKind {
	switch {
	case e.BaseRecurringEventID != nil && e.IsRecurringEventException:
		return KindException
	case e.BaseRecurringEventID != nil:
		return KindInstance
	case e.IsBaseRecurringEvent:
		return KindBase
	default:
		return KindSingle
	}
}

// Start is the first instant of the event: StartTime for timed events, midnight of StartDate otherwise.
func (e *Event) Start() time.Time {
	if !e.AllDay && e.StartTime != nil {
		return *e.StartTime
	}

	return e.StartDate.Time()
}

// Candidate converts the event back into a fully populated candidate, the base for patches.
func (e *Event) Candidate() *EventCandidate {
	recurring := e.Recurring
	exception := e.IsRecurringEventException
	base := e.IsBaseRecurringEvent
	allDay := e.AllDay
	startDate := e.StartDate
	recurrance := e.Recurrance
	isPublic := e.IsPublic
	registerable := e.IsRegisterable
	title := e.Title
	description := e.Description
	creator := e.CreatorID
	organization := e.Organization
	status := e.Status

	return &EventCandidate{
		Title:                     &title,
		Description:               &description,
		Attendees:                 clonePtr(e.Attendees),
		Location:                  clonePtr(e.Location),
		Latitude:                  clonePtr(e.Latitude),
		Longitude:                 clonePtr(e.Longitude),
		Recurring:                 &recurring,
		IsRecurringEventException: &exception,
		IsBaseRecurringEvent:      &base,
		RecurrenceRuleID:          clonePtr(e.RecurrenceRuleID),
		BaseRecurringEventID:      clonePtr(e.BaseRecurringEventID),
		AllDay:                    &allDay,
		StartDate:                 &startDate,
		EndDate:                   clonePtr(e.EndDate),
		StartTime:                 clonePtr(e.StartTime),
		EndTime:                   clonePtr(e.EndTime),
		Recurrance:                &recurrance,
		IsPublic:                  &isPublic,
		IsRegisterable:            &registerable,
		CreatorID:                 &creator,
		Admins:                    slices.Clone(e.Admins),
		Organization:              &organization,
		Status:                    &status,
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}
