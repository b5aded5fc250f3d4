package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jnst/event-records/internal/metrics"
	"github.com/jnst/event-records/internal/model"
	"github.com/jnst/event-records/internal/repository"
)

// EventServiceImpl implements EventService for event record business logic.
type EventServiceImpl struct {
	eventRepo      repository.EventRepository
	ruleRepo       repository.RecurrenceRuleRepository
	userRepo       repository.UserRepository
	transactionMgr repository.TransactionManager
	schema         *model.Schema
	maxOccurrences int
	newID          func() string
}

// NewEventServiceImpl creates a new EventService implementation.
// eventRepo is expected to be audited; every mutation goes through it.
func NewEventServiceImpl(
	eventRepo repository.EventRepository,
	ruleRepo repository.RecurrenceRuleRepository,
	userRepo repository.UserRepository,
	transactionMgr repository.TransactionManager,
	maxOccurrences int,
) EventService {
	return &EventServiceImpl{
		eventRepo:      eventRepo,
		ruleRepo:       ruleRepo,
		userRepo:       userRepo,
		transactionMgr: transactionMgr,
		schema:         model.RegisterSchema(),
		maxOccurrences: maxOccurrences,
		newID:          uuid.NewString,
	}
}

// CreateEvent validates the candidate and stores it as a new event.
func (s *EventServiceImpl) CreateEvent(ctx context.Context, candidate *model.EventCandidate) (*model.Event, error) {
	event, err := s.schema.ValidateEvent(candidate)
	if err != nil {
		return nil, err
	}

	event.ID = s.newID()

	if err := s.checkHierarchy(ctx, event); err != nil {
		return nil, err
	}

	if err := s.checkAdmins(ctx, event); err != nil {
		return nil, err
	}

	created, err := s.eventRepo.Create(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return created, nil
}

// GetEvent retrieves an event by ID.
func (s *EventServiceImpl) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// UpdateEvent merges patch onto the stored event and revalidates the whole record.
// The stored row stays locked from the read until the write.
func (s *EventServiceImpl) UpdateEvent(ctx context.Context, id string, patch *model.EventCandidate) (*model.Event, error) {
	return s.modify(ctx, id, func(existing *model.Event) (*model.EventCandidate, error) {
		return existing.Candidate().Merge(patch), nil
	})
}

// DeleteEvent soft-deletes an event.
func (s *EventServiceImpl) DeleteEvent(ctx context.Context, id string) (*model.Event, error) {
	return s.eventRepo.Delete(ctx, id)
}

// SetStatus moves the event to status. Any transition between the three statuses is allowed.
func (s *EventServiceImpl) SetStatus(ctx context.Context, id string, status model.Status) (*model.Event, error) {
	if !status.Valid() {
		return nil, &model.ValidationError{Field: "status", Err: model.ErrInvalidEnumValue}
	}

	return s.UpdateEvent(ctx, id, &model.EventCandidate{Status: &status})
}

// CreateRecurrenceRule validates and stores a recurrence rule.
func (s *EventServiceImpl) CreateRecurrenceRule(
	ctx context.Context,
	params *model.CreateRecurrenceRuleParams,
) (*model.RecurrenceRule, error) {
	if err := s.schema.ValidateRecurrenceRule(params); err != nil {
		return nil, err
	}

	rule := &model.RecurrenceRule{
		ID:        s.newID(),
		Frequency: params.Frequency,
		Interval:  max(params.Interval, 1),
		Count:     params.Count,
		Until:     params.Until,
		Weekdays:  params.Weekdays,
	}

	created, err := s.ruleRepo.Create(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("failed to create recurrence rule: %w", err)
	}

	return created, nil
}

// ListInstances lists the generated instances and exceptions of a base recurring event.
func (s *EventServiceImpl) ListInstances(ctx context.Context, baseID string) ([]*model.Event, error) {
	if _, err := s.eventRepo.GetByID(ctx, baseID); err != nil {
		return nil, err
	}

	return s.eventRepo.ListInstances(ctx, baseID)
}

// MaterializeInstances creates the instances of a base recurring event that start
// on or before until. Dates that already have an instance, including deleted ones
// and exceptions, are skipped, so repeated runs are idempotent.
func (s *EventServiceImpl) MaterializeInstances(
	ctx context.Context,
	baseID string,
	until time.Time,
) ([]*model.Event, error) {
	base, err := s.eventRepo.GetByID(ctx, baseID)
	if err != nil {
		return nil, err
	}

	if base.Kind() != model.KindBase {
		return nil, fmt.Errorf("%w: event %s is not a base recurring event", model.ErrInvalidHierarchy, base.ID)
	}

	if base.Status != model.StatusActive {
		return nil, nil
	}

	rule, ok, err := s.ruleFor(ctx, base)
	if err != nil || !ok {
		return nil, err
	}

	existing, err := s.eventRepo.ListInstances(ctx, base.ID)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(existing))
	for _, inst := range existing {
		taken[inst.StartDate.String()] = struct{}{}
	}

	starts, _, err := rule.Occurrences(base.Start(), base.Start(), until, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to expand recurrence for event %s: %w", base.ID, err)
	}

	// The cap applies to new instances only, so a long series keeps advancing.
	pending := slices.DeleteFunc(starts, func(start time.Time) bool {
		_, ok := taken[model.DateOf(start).String()]
		return ok
	})

	if s.maxOccurrences > 0 && len(pending) > s.maxOccurrences {
		slog.Warn("recurrence expansion truncated",
			slog.String("event_id", base.ID),
			slog.Int("max_occurrences", s.maxOccurrences),
			slog.Int("remaining", len(pending)-s.maxOccurrences),
		)
		pending = pending[:s.maxOccurrences]
	}

	var created []*model.Event

	for _, start := range pending {
		inst := base.NewInstance(s.newID(), start)
		if _, err := s.schema.ValidateEvent(inst.Candidate()); err != nil {
			return created, fmt.Errorf("generated instance of %s is invalid: %w", base.ID, err)
		}

		stored, err := s.eventRepo.Create(ctx, inst)
		if err != nil {
			return created, fmt.Errorf("failed to create instance of %s: %w", base.ID, err)
		}

		created = append(created, stored)
		metrics.InstancesMaterialized.Inc()
	}

	return created, nil
}

// MaterializeAll runs MaterializeInstances for every active base recurring event,
// reading the bases in pages of batchSize. A failing event is logged and skipped.
func (s *EventServiceImpl) MaterializeAll(ctx context.Context, until time.Time, batchSize int) (int, error) {
	batchSize = max(batchSize, 1)
	total := 0
	afterID := ""

	for {
		bases, err := s.eventRepo.ListBaseRecurring(ctx, afterID, batchSize)
		if err != nil {
			return total, err
		}

		for _, base := range bases {
			if err := ctx.Err(); err != nil {
				return total, err
			}

			total += s.materializeLogged(ctx, base.ID, until)
		}

		if len(bases) < batchSize {
			return total, nil
		}

		afterID = bases[len(bases)-1].ID
	}
}

func (s *EventServiceImpl) materializeLogged(ctx context.Context, baseID string, until time.Time) int {
	created, err := s.MaterializeInstances(ctx, baseID, until)
	if err != nil {
		slog.Error("failed to materialize instances",
			slog.String("event_id", baseID),
			slog.String("error", err.Error()),
		)

		return len(created)
	}

	if len(created) > 0 {
		slog.Info("materialized instances",
			slog.String("event_id", baseID),
			slog.Int("count", len(created)),
		)
	}

	return len(created)
}

// ModifyInstance applies patch to one instance of a recurring series and marks it
// as an exception. The instance stays attached to its base.
func (s *EventServiceImpl) ModifyInstance(
	ctx context.Context,
	instanceID string,
	patch *model.EventCandidate,
) (*model.Event, error) {
	return s.modify(ctx, instanceID, func(existing *model.Event) (*model.EventCandidate, error) {
		if existing.BaseRecurringEventID == nil {
			return nil, fmt.Errorf("%w: event %s is not a recurring instance", model.ErrInvalidHierarchy, existing.ID)
		}

		merged := existing.Candidate().Merge(patch)
		exception := true
		notBase := false
		merged.IsRecurringEventException = &exception
		merged.IsBaseRecurringEvent = &notBase
		merged.BaseRecurringEventID = existing.Candidate().BaseRecurringEventID

		return merged, nil
	})
}

// modify locks the stored event, derives its new state with change and saves it
// in one transaction, so concurrent patches to the same event serialize.
func (s *EventServiceImpl) modify(
	ctx context.Context,
	id string,
	change func(existing *model.Event) (*model.EventCandidate, error),
) (*model.Event, error) {
	var updated *model.Event

	err := s.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.eventRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		candidate, err := change(existing)
		if err != nil {
			return err
		}

		updated, err = s.save(ctx, existing, candidate)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// save validates candidate as the new state of existing and writes it.
func (s *EventServiceImpl) save(
	ctx context.Context,
	existing *model.Event,
	candidate *model.EventCandidate,
) (*model.Event, error) {
	event, err := s.schema.ValidateEvent(candidate)
	if err != nil {
		return nil, err
	}

	event.ID = existing.ID
	event.CreatedAt = existing.CreatedAt

	if err := s.checkHierarchy(ctx, event); err != nil {
		return nil, err
	}

	if err := s.checkInstancesKeepBase(ctx, existing, event); err != nil {
		return nil, err
	}

	if err := s.checkAdmins(ctx, event); err != nil {
		return nil, err
	}

	updated, err := s.eventRepo.Update(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return updated, nil
}

// checkHierarchy verifies the base an instance points at.
func (s *EventServiceImpl) checkHierarchy(ctx context.Context, event *model.Event) error {
	if event.BaseRecurringEventID == nil {
		return nil
	}

	if *event.BaseRecurringEventID == event.ID {
		return fmt.Errorf("%w: event %s cannot be its own base", model.ErrInvalidHierarchy, event.ID)
	}

	base, err := s.eventRepo.GetByID(ctx, *event.BaseRecurringEventID)
	if errors.Is(err, model.ErrEventNotFound) {
		return fmt.Errorf("%w: base event %s", model.ErrReferenceNotFound, *event.BaseRecurringEventID)
	}
	if err != nil {
		return fmt.Errorf("failed to load base event: %w", err)
	}

	return model.CheckInstanceOf(event, base)
}

// checkInstancesKeepBase rejects a change that would leave existing instances
// pointing at an event that is no longer a top-level base.
func (s *EventServiceImpl) checkInstancesKeepBase(ctx context.Context, existing, event *model.Event) error {
	if existing.Kind() != model.KindBase {
		return nil
	}

	if event.IsBaseRecurringEvent && event.BaseRecurringEventID == nil {
		return nil
	}

	instances, err := s.eventRepo.ListInstances(ctx, existing.ID)
	if err != nil {
		return err
	}

	if len(instances) > 0 {
		return fmt.Errorf("%w: event %s still has %d instances", model.ErrInvalidHierarchy, existing.ID, len(instances))
	}

	return nil
}

// checkAdmins verifies that every admin names an existing user.
func (s *EventServiceImpl) checkAdmins(ctx context.Context, event *model.Event) error {
	for _, id := range event.Admins {
		_, err := s.userRepo.GetByID(ctx, id)
		if errors.Is(err, model.ErrUserNotFound) {
			return fmt.Errorf("%w: admin %s", model.ErrReferenceNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to load admin: %w", err)
		}
	}

	return nil
}

func (s *EventServiceImpl) ruleFor(ctx context.Context, base *model.Event) (*model.RecurrenceRule, bool, error) {
	if base.RecurrenceRuleID != nil {
		rule, err := s.ruleRepo.GetByID(ctx, *base.RecurrenceRuleID)
		if err != nil {
			return nil, false, err
		}

		return rule, true, nil
	}

	rule, ok := model.RuleForRecurrance(base.Recurrance)

	return rule, ok, nil
}
