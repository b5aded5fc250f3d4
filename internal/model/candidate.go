package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// EventCandidate holds proposed field values for an event. A nil field is absent.
type EventCandidate struct {
	Title                     *string     `json:"title,omitempty"                     validate:"required,min=1"`
	Description               *string     `json:"description,omitempty"               validate:"required,min=1"`
	Attendees                 *string     `json:"attendees,omitempty"`
	Location                  *string     `json:"location,omitempty"`
	Latitude                  *float64    `json:"latitude,omitempty"`
	Longitude                 *float64    `json:"longitude,omitempty"`
	Recurring                 *bool       `json:"recurring,omitempty"                 validate:"required"`
	IsRecurringEventException *bool       `json:"isRecurringEventException,omitempty" validate:"required"`
	IsBaseRecurringEvent      *bool       `json:"isBaseRecurringEvent,omitempty"      validate:"required"`
	RecurrenceRuleID          *string     `json:"recurrenceRuleId,omitempty"          validate:"omitempty,ref"`
	BaseRecurringEventID      *string     `json:"baseRecurringEventId,omitempty"      validate:"omitempty,ref"`
	AllDay                    *bool       `json:"allDay,omitempty"                    validate:"required"`
	StartDate                 *Date       `json:"startDate,omitempty"                 validate:"required"`
	EndDate                   *Date       `json:"endDate,omitempty"`
	StartTime                 *time.Time  `json:"startTime,omitempty"`
	EndTime                   *time.Time  `json:"endTime,omitempty"`
	Recurrance                *Recurrance `json:"recurrance,omitempty"                validate:"omitempty,oneof=ONCE DAILY WEEKLY MONTHLY YEARLY"`
	IsPublic                  *bool       `json:"isPublic,omitempty"                  validate:"required"`
	IsRegisterable            *bool       `json:"isRegisterable,omitempty"            validate:"required"`
	CreatorID                 *string     `json:"creatorId,omitempty"                 validate:"required,min=1,ref"`
	Admins                    []string    `json:"admins,omitempty"                    validate:"dive,required,ref"`
	Organization              *string     `json:"organization,omitempty"              validate:"required,min=1,ref"`
	Status                    *Status     `json:"status,omitempty"                    validate:"required,oneof=ACTIVE BLOCKED DELETED"`
}

type candidateField struct {
	name string
	dst  any
}

// fields lists every decodable field in declaration order.
func (c *EventCandidate) fields() []candidateField {
	return []candidateField{
		{"title", &c.Title},
		{"description", &c.Description},
		{"attendees", &c.Attendees},
		{"location", &c.Location},
		{"latitude", &c.Latitude},
		{"longitude", &c.Longitude},
		{"recurring", &c.Recurring},
		{"isRecurringEventException", &c.IsRecurringEventException},
		{"isBaseRecurringEvent", &c.IsBaseRecurringEvent},
		{"recurrenceRuleId", &c.RecurrenceRuleID},
		{"baseRecurringEventId", &c.BaseRecurringEventID},
		{"allDay", &c.AllDay},
		{"startDate", &c.StartDate},
		{"endDate", &c.EndDate},
		{"startTime", &c.StartTime},
		{"endTime", &c.EndTime},
		{"recurrance", &c.Recurrance},
		{"isPublic", &c.IsPublic},
		{"isRegisterable", &c.IsRegisterable},
		{"creatorId", &c.CreatorID},
		{"admins", &c.Admins},
		{"organization", &c.Organization},
		{"status", &c.Status},
	}
}

// ParseCandidate decodes a JSON object of field values. Unknown fields are ignored
// and null is treated as absent. A value of the wrong type yields a *ValidationError
// wrapping ErrInvalidFieldType.
func ParseCandidate(data []byte) (*EventCandidate, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode event candidate: %w", err)
	}

	c := &EventCandidate{}
	for _, f := range c.fields() {
		msg, ok := raw[f.name]
		if !ok || string(msg) == "null" {
			continue
		}

		if err := json.Unmarshal(msg, f.dst); err != nil {
			return nil, &ValidationError{Field: f.name, Err: ErrInvalidFieldType}
		}
	}

	return c, nil
}

// CandidateFromMap builds a candidate from a field name to value mapping.
func CandidateFromMap(values map[string]any) (*EventCandidate, error) {
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event candidate: %w", err)
	}

	return ParseCandidate(data)
}

// Merge returns a copy of c with every non-nil field of patch applied on top.
func (c *EventCandidate) Merge(patch *EventCandidate) *EventCandidate {
	merged := c.clone()
	if patch == nil {
		return merged
	}

	overlay(&merged.Title, patch.Title)
	overlay(&merged.Description, patch.Description)
	overlay(&merged.Attendees, patch.Attendees)
	overlay(&merged.Location, patch.Location)
	overlay(&merged.Latitude, patch.Latitude)
	overlay(&merged.Longitude, patch.Longitude)
	overlay(&merged.Recurring, patch.Recurring)
	overlay(&merged.IsRecurringEventException, patch.IsRecurringEventException)
	overlay(&merged.IsBaseRecurringEvent, patch.IsBaseRecurringEvent)
	overlay(&merged.RecurrenceRuleID, patch.RecurrenceRuleID)
	overlay(&merged.BaseRecurringEventID, patch.BaseRecurringEventID)
	overlay(&merged.AllDay, patch.AllDay)
	overlay(&merged.StartDate, patch.StartDate)
	overlay(&merged.EndDate, patch.EndDate)
	overlay(&merged.StartTime, patch.StartTime)
	overlay(&merged.EndTime, patch.EndTime)
	overlay(&merged.Recurrance, patch.Recurrance)
	overlay(&merged.IsPublic, patch.IsPublic)
	overlay(&merged.IsRegisterable, patch.IsRegisterable)
	overlay(&merged.CreatorID, patch.CreatorID)
	overlay(&merged.Organization, patch.Organization)
	overlay(&merged.Status, patch.Status)

	if patch.Admins != nil {
		merged.Admins = slices.Clone(patch.Admins)
	}

	return merged
}

func (c *EventCandidate) clone() *EventCandidate {
	if c == nil {
		return &EventCandidate{}
	}

	cp := *c
	cp.Admins = slices.Clone(c.Admins)

	return &cp
}

// withDefaults fills the fields that have schema defaults. Recurrance only
// defaults to ONCE for non-recurring events; a recurring event must name it.
func (c *EventCandidate) withDefaults() *EventCandidate {
	d := c.clone()

	defaultTo(&d.Recurring, false)
	defaultTo(&d.IsRecurringEventException, false)
	defaultTo(&d.IsBaseRecurringEvent, false)
	defaultTo(&d.Status, StatusActive)

	if !*d.Recurring {
		defaultTo(&d.Recurrance, RecurranceOnce)
	}

	return d
}

// event converts a defaulted, validated candidate into an Event.
func (c *EventCandidate) event() *Event {
	admins := slices.Clone(c.Admins)
	if admins == nil {
		admins = []string{}
	}

	return &Event{
		Title:                     *c.Title,
		Description:               *c.Description,
		Attendees:                 clonePtr(c.Attendees),
		Location:                  clonePtr(c.Location),
		Latitude:                  clonePtr(c.Latitude),
		Longitude:                 clonePtr(c.Longitude),
		Recurring:                 *c.Recurring,
		IsRecurringEventException: *c.IsRecurringEventException,
		IsBaseRecurringEvent:      *c.IsBaseRecurringEvent,
		RecurrenceRuleID:          clonePtr(c.RecurrenceRuleID),
		BaseRecurringEventID:      clonePtr(c.BaseRecurringEventID),
		AllDay:                    *c.AllDay,
		StartDate:                 *c.StartDate,
		EndDate:                   clonePtr(c.EndDate),
		StartTime:                 clonePtr(c.StartTime),
		EndTime:                   clonePtr(c.EndTime),
		Recurrance:                *c.Recurrance,
		IsPublic:                  *c.IsPublic,
		IsRegisterable:            *c.IsRegisterable,
		CreatorID:                 *c.CreatorID,
		Admins:                    admins,
		Organization:              *c.Organization,
		Status:                    *c.Status,
	}
}

func overlay[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func defaultTo[T any](dst **T, v T) {
	if *dst == nil {
		*dst = &v
	}
}
