package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/event-records/internal/model"
)

func requireValidationError(t *testing.T, err error, field string, kind error) {
	t.Helper()

	var vErr *model.ValidationError
	require.True(t, errors.As(err, &vErr), "expected *model.ValidationError, got %v", err)
	assert.Equal(t, field, vErr.Field)
	assert.ErrorIs(t, err, kind)
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	svc, events, _ := newTestEventService(t)

	created, err := svc.CreateEvent(ctx, candidate(t, nil))
	require.NoError(t, err)

	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, model.StatusActive, created.Status)
	assert.Equal(t, model.RecurranceOnce, created.Recurrance)
	assert.Equal(t, model.KindSingle, created.Kind())
	assert.Contains(t, events.events, "id-1")
}

func TestCreateEventRejectsInvalidCandidate(t *testing.T) {
	ctx := context.Background()
	svc, events, _ := newTestEventService(t)

	_, err := svc.CreateEvent(ctx, candidate(t, map[string]any{"allDay": false}))
	requireValidationError(t, err, "startTime", model.ErrConditionalRequirementUnmet)
	assert.Empty(t, events.events)
}

func TestCreateEventChecksBase(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)

	single, err := svc.CreateEvent(ctx, candidate(t, nil))
	require.NoError(t, err)
	base, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)

	tests := []struct {
		name   string
		baseID string
		want   error
	}{
		{name: "instance of a base", baseID: base.ID},
		{name: "instance of a single event", baseID: single.ID, want: model.ErrInvalidHierarchy},
		{name: "unknown base", baseID: "nope", want: model.ErrReferenceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidate(t, map[string]any{
				"recurring":            true,
				"recurrance":           "WEEKLY",
				"baseRecurringEventId": tt.baseID,
			})

			created, err := svc.CreateEvent(ctx, c)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, model.KindInstance, created.Kind())
		})
	}
}

func TestUpdateEventMergesAndRevalidates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)

	created, err := svc.CreateEvent(ctx, candidate(t, map[string]any{"location": "Room 1"}))
	require.NoError(t, err)

	updated, err := svc.UpdateEvent(ctx, created.ID, candidate(t, map[string]any{"title": "Retro"}))
	require.NoError(t, err)
	assert.Equal(t, "Retro", updated.Title)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Room 1", *updated.Location)

	allDay := false
	_, err = svc.UpdateEvent(ctx, created.ID, &model.EventCandidate{AllDay: &allDay})
	requireValidationError(t, err, "startTime", model.ErrConditionalRequirementUnmet)

	stored, err := svc.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.AllDay)

	_, err = svc.UpdateEvent(ctx, "missing", &model.EventCandidate{})
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestSetStatusAllowsAnyTransition(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)

	created, err := svc.CreateEvent(ctx, candidate(t, nil))
	require.NoError(t, err)

	for _, status := range []model.Status{model.StatusBlocked, model.StatusActive, model.StatusDeleted, model.StatusActive} {
		updated, err := svc.SetStatus(ctx, created.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}

	_, err = svc.SetStatus(ctx, created.ID, "ARCHIVED")
	requireValidationError(t, err, "status", model.ErrInvalidEnumValue)
}

func TestDeleteEventIsSoft(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)

	created, err := svc.CreateEvent(ctx, candidate(t, nil))
	require.NoError(t, err)

	deleted, err := svc.DeleteEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeleted, deleted.Status)

	stored, err := svc.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeleted, stored.Status)
}

func TestCreateRecurrenceRule(t *testing.T) {
	ctx := context.Background()
	svc, _, rules := newTestEventService(t)

	rule, err := svc.CreateRecurrenceRule(ctx, &model.CreateRecurrenceRuleParams{
		Frequency: model.FrequencyWeekly,
		Weekdays:  []string{"MO", "TH"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rule.Interval)
	assert.Contains(t, rules.rules, rule.ID)

	_, err = svc.CreateRecurrenceRule(ctx, &model.CreateRecurrenceRuleParams{Frequency: "HOURLY"})
	requireValidationError(t, err, "frequency", model.ErrInvalidEnumValue)
}

func TestMaterializeInstancesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)

	base, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)

	until := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)

	created, err := svc.MaterializeInstances(ctx, base.ID, until)
	require.NoError(t, err)
	require.Len(t, created, 4)

	var dates []string
	for _, inst := range created {
		dates = append(dates, inst.StartDate.String())
		assert.Equal(t, model.KindInstance, inst.Kind())
		assert.Equal(t, base.ID, *inst.BaseRecurringEventID)
	}
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22"}, dates)

	_, err = svc.DeleteEvent(ctx, created[1].ID)
	require.NoError(t, err)

	again, err := svc.MaterializeInstances(ctx, base.ID, until)
	require.NoError(t, err)
	assert.Empty(t, again)

	later, err := svc.MaterializeInstances(ctx, base.ID, until.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, "2024-01-29", later[0].StartDate.String())
}

func TestMaterializeInstancesUsesStoredRule(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)

	count := 3
	rule, err := svc.CreateRecurrenceRule(ctx, &model.CreateRecurrenceRuleParams{
		Frequency: model.FrequencyDaily,
		Interval:  2,
		Count:     &count,
	})
	require.NoError(t, err)

	c := weeklyBaseCandidate(t)
	c.RecurrenceRuleID = &rule.ID
	base, err := svc.CreateEvent(ctx, c)
	require.NoError(t, err)

	created, err := svc.MaterializeInstances(ctx, base.ID, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.Equal(t, "2024-01-05", created[2].StartDate.String())
}

func TestMaterializeInstancesGuards(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)
	until := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	single, err := svc.CreateEvent(ctx, candidate(t, nil))
	require.NoError(t, err)
	_, err = svc.MaterializeInstances(ctx, single.ID, until)
	assert.ErrorIs(t, err, model.ErrInvalidHierarchy)

	base, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, base.ID, model.StatusBlocked)
	require.NoError(t, err)

	created, err := svc.MaterializeInstances(ctx, base.ID, until)
	require.NoError(t, err)
	assert.Empty(t, created)

	_, err = svc.MaterializeInstances(ctx, "missing", until)
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestMaterializeInstancesCapsOccurrences(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)
	svc.maxOccurrences = 2

	base, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)

	created, err := svc.MaterializeInstances(ctx, base.ID, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestMaterializeAll(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)

	_, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)
	_, err = svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)
	_, err = svc.CreateEvent(ctx, candidate(t, nil))
	require.NoError(t, err)

	total, err := svc.MaterializeAll(ctx, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), 10)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}

func TestModifyInstanceMarksException(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)

	base, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)

	created, err := svc.MaterializeInstances(ctx, base.ID, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, created, 2)

	title := "Standup (moved room)"
	elsewhere := "id-99"
	modified, err := svc.ModifyInstance(ctx, created[1].ID, &model.EventCandidate{
		Title:                &title,
		BaseRecurringEventID: &elsewhere,
	})
	require.NoError(t, err)

	assert.Equal(t, title, modified.Title)
	assert.Equal(t, model.KindException, modified.Kind())
	assert.Equal(t, base.ID, *modified.BaseRecurringEventID)

	storedBase, err := svc.GetEvent(ctx, base.ID)
	require.NoError(t, err)
	assert.Equal(t, "Standup", storedBase.Title)

	instances, err := svc.ListInstances(ctx, base.ID)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, model.KindInstance, instances[0].Kind())
	assert.Equal(t, model.KindException, instances[1].Kind())

	_, err = svc.ModifyInstance(ctx, base.ID, &model.EventCandidate{Title: &title})
	assert.ErrorIs(t, err, model.ErrInvalidHierarchy)
}

func TestUpdateEventKeepsSeriesHierarchy(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)

	withInstances, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)
	other, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)
	empty, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)

	created, err := svc.MaterializeInstances(ctx, withInstances.ID, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, created, 3)

	notBase := false
	tests := []struct {
		name  string
		patch *model.EventCandidate
	}{
		{name: "demote", patch: &model.EventCandidate{IsBaseRecurringEvent: &notBase}},
		{name: "move under another base", patch: &model.EventCandidate{
			IsBaseRecurringEvent: &notBase,
			BaseRecurringEventID: &other.ID,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateEvent(ctx, withInstances.ID, tt.patch)
			assert.ErrorIs(t, err, model.ErrInvalidHierarchy)

			stored, err := svc.GetEvent(ctx, withInstances.ID)
			require.NoError(t, err)
			assert.Equal(t, model.KindBase, stored.Kind())
		})
	}

	demoted, err := svc.UpdateEvent(ctx, empty.ID, &model.EventCandidate{IsBaseRecurringEvent: &notBase})
	require.NoError(t, err)
	assert.Equal(t, model.KindSingle, demoted.Kind())

	title := "Renamed series"
	renamed, err := svc.UpdateEvent(ctx, withInstances.ID, &model.EventCandidate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, renamed.Title)
}

func TestEventAdminsMustExist(t *testing.T) {
	ctx := context.Background()
	svc, events, _ := newTestEventService(t)

	_, err := svc.CreateEvent(ctx, candidate(t, map[string]any{"admins": []string{"u2", "ghost-user"}}))
	assert.ErrorIs(t, err, model.ErrReferenceNotFound)
	assert.Empty(t, events.events)

	created, err := svc.CreateEvent(ctx, candidate(t, map[string]any{"admins": []string{"u2"}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, created.Admins)

	_, err = svc.UpdateEvent(ctx, created.ID, &model.EventCandidate{Admins: []string{"u1", "ghost-user"}})
	assert.ErrorIs(t, err, model.ErrReferenceNotFound)

	stored, err := svc.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, stored.Admins)
}

func TestMaterializeInstancesAdvancesPastCap(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)
	svc.maxOccurrences = 10

	base, err := svc.CreateEvent(ctx, candidate(t, map[string]any{
		"recurring":            true,
		"isBaseRecurringEvent": true,
		"recurrance":           "DAILY",
	}))
	require.NoError(t, err)

	until := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	first, err := svc.MaterializeInstances(ctx, base.ID, until)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, "2024-01-10", first[9].StartDate.String())

	second, err := svc.MaterializeInstances(ctx, base.ID, until)
	require.NoError(t, err)
	require.Len(t, second, 10)
	assert.Equal(t, "2024-01-11", second[0].StartDate.String())
	assert.Equal(t, "2024-01-20", second[9].StartDate.String())

	third, err := svc.MaterializeInstances(ctx, base.ID, until)
	require.NoError(t, err)
	require.Len(t, third, 10)

	last, err := svc.MaterializeInstances(ctx, base.ID, until)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "2024-01-31", last[0].StartDate.String())
}

func TestMaterializeAllPagesThroughBases(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestEventService(t)

	var bases []*model.Event
	for range 3 {
		base, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
		require.NoError(t, err)
		bases = append(bases, base)
	}

	total, err := svc.MaterializeAll(ctx, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), 2)
	require.NoError(t, err)
	assert.Equal(t, 6, total)

	for _, base := range bases {
		instances, err := svc.ListInstances(ctx, base.ID)
		require.NoError(t, err)
		assert.Len(t, instances, 2, base.ID)
	}
}

func TestUpdatesReadStoredEventUnderLock(t *testing.T) {
	ctx := context.Background()
	svc, events, _ := newTestEventService(t)

	base, err := svc.CreateEvent(ctx, weeklyBaseCandidate(t))
	require.NoError(t, err)
	created, err := svc.MaterializeInstances(ctx, base.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, created, 1)

	title := "Moved"
	_, err = svc.UpdateEvent(ctx, base.ID, &model.EventCandidate{Title: &title})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, base.ID, model.StatusBlocked)
	require.NoError(t, err)
	_, err = svc.ModifyInstance(ctx, created[0].ID, &model.EventCandidate{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, []bool{true, true, true}, events.lockedInTx)
}
