package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency is the repeat unit of a recurrence rule.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

var rruleFrequencies = map[Frequency]rrule.Frequency{
	FrequencyDaily:   rrule.DAILY,
	FrequencyWeekly:  rrule.WEEKLY,
	FrequencyMonthly: rrule.MONTHLY,
	FrequencyYearly:  rrule.YEARLY,
}

var rruleWeekdays = map[string]rrule.Weekday{
	"MO": rrule.MO,
	"TU": rrule.TU,
	"WE": rrule.WE,
	"TH": rrule.TH,
	"FR": rrule.FR,
	"SA": rrule.SA,
	"SU": rrule.SU,
}

// RecurrenceRule represents the repeat pattern referenced by an event's recurrenceRuleId.
type RecurrenceRule struct {
	ID        string     `json:"id"`
	Frequency Frequency  `json:"frequency"`
	Interval  int        `json:"interval"`
	Count     *int       `json:"count,omitempty"`
	Until     *time.Time `json:"until,omitempty"`
	Weekdays  []string   `json:"weekdays"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CreateRecurrenceRuleParams represents parameters for creating a new recurrence rule.
type CreateRecurrenceRuleParams struct {
	Frequency Frequency  `json:"frequency" validate:"required,oneof=DAILY WEEKLY MONTHLY YEARLY"`
	Interval  int        `json:"interval"  validate:"min=0,max=1000"`
	Count     *int       `json:"count"     validate:"omitempty,min=1,max=10000"`
	Until     *time.Time `json:"until"`
	Weekdays  []string   `json:"weekdays"  validate:"dive,oneof=MO TU WE TH FR SA SU"`
}

// Validate validates the create recurrence rule parameters.
func (p *CreateRecurrenceRuleParams) Validate() error {
	return RegisterSchema().ValidateRecurrenceRule(p)
}

// RuleForRecurrance derives a plain rule from an event's recurrance value.
// ONCE has no rule.
func RuleForRecurrance(r Recurrance) (*RecurrenceRule, bool) {
	switch r {
	case RecurranceDaily:
		return &RecurrenceRule{Frequency: FrequencyDaily, Interval: 1}, true
	case RecurranceWeekly:
		return &RecurrenceRule{Frequency: FrequencyWeekly, Interval: 1}, true
	case RecurranceMonthly:
		return &RecurrenceRule{Frequency: FrequencyMonthly, Interval: 1}, true
	case RecurranceYearly:
		return &RecurrenceRule{Frequency: FrequencyYearly, Interval: 1}, true
	default:
		return nil, false
	}
}

// RRule builds the RFC 5545 rule anchored at dtstart.
func (r *RecurrenceRule) RRule(dtstart time.Time) (*rrule.RRule, error) {
	freq, ok := rruleFrequencies[r.Frequency]
	if !ok {
		return nil, fmt.Errorf("unsupported frequency %q", r.Frequency)
	}

	opt := rrule.ROption{
		Freq:     freq,
		Interval: max(r.Interval, 1),
		Dtstart:  dtstart,
	}
	if r.Count != nil {
		opt.Count = *r.Count
	}
	if r.Until != nil {
		opt.Until = *r.Until
	}
	for _, day := range r.Weekdays {
		wd, ok := rruleWeekdays[day]
		if !ok {
			return nil, fmt.Errorf("unsupported weekday %q", day)
		}
		opt.Byweekday = append(opt.Byweekday, wd)
	}

	return rrule.NewRRule(opt)
}

// Occurrences lists the starts produced by the rule in [from, until], at most limit of them.
// The second result reports whether the list was truncated.
func (r *RecurrenceRule) Occurrences(dtstart, from, until time.Time, limit int) ([]time.Time, bool, error) {
	rule, err := r.RRule(dtstart)
	if err != nil {
		return nil, false, err
	}

	starts := rule.Between(from, until, true)
	if limit > 0 && len(starts) > limit {
		return starts[:limit], true, nil
	}

	return starts, false, nil
}

// NewInstance derives the generated instance of a base recurring event that starts at occurrence.
// Dates and times shift by the same offset so the instance keeps the base's duration.
func (e *Event) NewInstance(id string, occurrence time.Time) *Event {
	inst := *e
	inst.ID = id
	inst.IsBaseRecurringEvent = false
	inst.IsRecurringEventException = false
	inst.BaseRecurringEventID = clonePtr(&e.ID)
	inst.Attendees = clonePtr(e.Attendees)
	inst.Location = clonePtr(e.Location)
	inst.Latitude = clonePtr(e.Latitude)
	inst.Longitude = clonePtr(e.Longitude)
	inst.RecurrenceRuleID = clonePtr(e.RecurrenceRuleID)
	inst.Admins = slices.Clone(e.Admins)
	inst.Status = StatusActive
	inst.CreatedAt = time.Time{}
	inst.UpdatedAt = time.Time{}

	inst.StartDate = DateOf(occurrence)
	dayShift := int(inst.StartDate.Time().Sub(e.StartDate.Time()).Hours() / 24)

	if e.EndDate != nil {
		end := e.EndDate.AddDays(dayShift)
		inst.EndDate = &end
	}

	if e.StartTime != nil {
		start := occurrence
		inst.StartTime = &start

		if e.EndTime != nil {
			end := occurrence.Add(e.EndTime.Sub(*e.StartTime))
			inst.EndTime = &end
		}
	} else {
		inst.EndTime = clonePtr(e.EndTime)
	}

	return &inst
}

// CheckInstanceOf verifies that instance may hang off base: the base must be a
// base recurring event that is not itself an instance, and the instance must
// point at it without claiming to be a base.
func CheckInstanceOf(instance, base *Event) error {
	if !base.IsBaseRecurringEvent {
		return fmt.Errorf("%w: event %s is not a base recurring event", ErrInvalidHierarchy, base.ID)
	}

	if base.BaseRecurringEventID != nil {
		return fmt.Errorf("%w: event %s is itself an instance", ErrInvalidHierarchy, base.ID)
	}

	if instance.BaseRecurringEventID == nil || *instance.BaseRecurringEventID != base.ID {
		return fmt.Errorf("%w: instance does not reference base %s", ErrInvalidHierarchy, base.ID)
	}

	if instance.IsBaseRecurringEvent {
		return fmt.Errorf("%w: an instance cannot be a base recurring event", ErrInvalidHierarchy)
	}

	return nil
}
