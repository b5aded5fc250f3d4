package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jnst/event-records/internal/model"
)

type memoryEventRepository struct {
	events map[string]*model.Event
	// lockedInTx records, per GetForUpdate call, whether it ran inside a transaction.
	lockedInTx []bool
}

func newMemoryEventRepository() *memoryEventRepository {
	return &memoryEventRepository{events: make(map[string]*model.Event)}
}

func (m *memoryEventRepository) Create(_ context.Context, e *model.Event) (*model.Event, error) {
	if _, ok := m.events[e.ID]; ok {
		return nil, fmt.Errorf("duplicate id %s", e.ID)
	}
	cp := *e
	m.events[e.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memoryEventRepository) GetByID(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memoryEventRepository) GetForUpdate(ctx context.Context, id string) (*model.Event, error) {
	_, inTx := ctx.Value(txMarker{}).(bool)
	m.lockedInTx = append(m.lockedInTx, inTx)
	return m.GetByID(ctx, id)
}

func (m *memoryEventRepository) Update(_ context.Context, e *model.Event) (*model.Event, error) {
	if _, ok := m.events[e.ID]; !ok {
		return nil, model.ErrEventNotFound
	}
	cp := *e
	m.events[e.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memoryEventRepository) Delete(_ context.Context, id string) (*model.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, model.ErrEventNotFound
	}
	e.Status = model.StatusDeleted
	cp := *e
	return &cp, nil
}

func (m *memoryEventRepository) ListInstances(_ context.Context, baseID string) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range m.events {
		if e.BaseRecurringEventID != nil && *e.BaseRecurringEventID == baseID {
			cp := *e
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *model.Event) int {
		return strings.Compare(a.StartDate.String(), b.StartDate.String())
	})
	return out, nil
}

func (m *memoryEventRepository) ListBaseRecurring(_ context.Context, afterID string, limit int) ([]*model.Event, error) {
	var out []*model.Event
	for _, id := range slices.Sorted(maps.Keys(m.events)) {
		e := m.events[id]
		if id > afterID && e.Kind() == model.KindBase && e.Status == model.StatusActive && len(out) < limit {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memoryRuleRepository struct {
	rules map[string]*model.RecurrenceRule
}

func newMemoryRuleRepository() *memoryRuleRepository {
	return &memoryRuleRepository{rules: make(map[string]*model.RecurrenceRule)}
}

func (m *memoryRuleRepository) Create(_ context.Context, r *model.RecurrenceRule) (*model.RecurrenceRule, error) {
	cp := *r
	m.rules[r.ID] = &cp
	return &cp, nil
}

func (m *memoryRuleRepository) GetByID(_ context.Context, id string) (*model.RecurrenceRule, error) {
	r, ok := m.rules[id]
	if !ok {
		return nil, model.ErrRecurrenceRuleNotFound
	}
	cp := *r
	return &cp, nil
}

type memoryAuditRepository struct {
	pending   []*model.AuditRecord
	published []int64
}

func (m *memoryAuditRepository) Append(_ context.Context, p *model.CreateAuditRecordParams) (*model.AuditRecord, error) {
	r := &model.AuditRecord{ID: int64(len(m.pending) + 1), EventID: p.EventID, Operation: p.Operation, Before: p.Before, After: p.After}
	m.pending = append(m.pending, r)
	return r, nil
}

func (m *memoryAuditRepository) GetUnpublished(_ context.Context, limit int) ([]*model.AuditRecord, error) {
	var out []*model.AuditRecord
	for _, r := range m.pending {
		if r.PublishedAt == nil && !slices.Contains(m.published, r.ID) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryAuditRepository) MarkAsPublished(_ context.Context, id int64) error {
	m.published = append(m.published, id)
	return nil
}

type fakePublisher struct {
	messages []map[string]string
	failOn   string
}

func (f *fakePublisher) Publish(_ context.Context, stream string, fields map[string]string) (string, error) {
	if fields[model.AuditFieldID] == f.failOn {
		return "", errors.New("connection reset")
	}
	f.messages = append(f.messages, fields)
	return fmt.Sprintf("%s-%d", stream, len(f.messages)), nil
}

type txMarker struct{}

// markingTransactionManager runs fn directly and marks its context as transactional.
type markingTransactionManager struct{}

func (markingTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(context.WithValue(ctx, txMarker{}, true))
}

// knownUsers holds the user ids test candidates may reference.
func knownUsers() *memoryUserRepository {
	return &memoryUserRepository{users: map[string]*model.User{
		"u1": {ID: "u1", Name: "Ada"},
		"u2": {ID: "u2", Name: "Grace"},
	}}
}

func newTestEventService(t *testing.T) (*EventServiceImpl, *memoryEventRepository, *memoryRuleRepository) {
	t.Helper()

	events := newMemoryEventRepository()
	rules := newMemoryRuleRepository()

	svc, ok := NewEventServiceImpl(events, rules, knownUsers(), markingTransactionManager{}, 100).(*EventServiceImpl)
	require.True(t, ok)

	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}

	return svc, events, rules
}

func candidate(t *testing.T, overrides map[string]any) *model.EventCandidate {
	t.Helper()

	fields := map[string]any{
		"title":          "Standup",
		"description":    "daily sync",
		"allDay":         true,
		"startDate":      "2024-01-01",
		"isPublic":       true,
		"isRegisterable": false,
		"creatorId":      "u1",
		"organization":   "o1",
	}
	maps.Copy(fields, overrides)

	c, err := model.CandidateFromMap(fields)
	require.NoError(t, err)

	return c
}

func weeklyBaseCandidate(t *testing.T) *model.EventCandidate {
	t.Helper()

	return candidate(t, map[string]any{
		"recurring":            true,
		"isBaseRecurringEvent": true,
		"recurrance":           "WEEKLY",
	})
}
