package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/event-records/internal/metrics"
	"github.com/jnst/event-records/internal/model"
	"github.com/jnst/event-records/internal/repository"
)

type passthroughTransactionManager struct{}

func (passthroughTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestPublishPending(t *testing.T) {
	ctx := context.Background()
	audit := &memoryAuditRepository{}
	events := repository.NewAuditedEventRepository(newMemoryEventRepository(), audit, passthroughTransactionManager{})

	svc, ok := NewEventServiceImpl(events, newMemoryRuleRepository(), knownUsers(), passthroughTransactionManager{}, 10).(*EventServiceImpl)
	require.True(t, ok)

	created, err := svc.CreateEvent(ctx, candidate(t, nil))
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, created.ID, model.StatusBlocked)
	require.NoError(t, err)
	_, err = svc.DeleteEvent(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, audit.pending, 3)

	publishedBefore := testutil.ToFloat64(metrics.AuditPublished)
	failuresBefore := testutil.ToFloat64(metrics.AuditPublishFailures)

	publisher := &fakePublisher{failOn: "2"}
	auditSvc := NewAuditServiceImpl(audit, publisher, "events:audit")

	published, err := auditSvc.PublishPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.Equal(t, []int64{1, 3}, audit.published)
	assert.InDelta(t, publishedBefore+2, testutil.ToFloat64(metrics.AuditPublished), 0)
	assert.InDelta(t, failuresBefore+1, testutil.ToFloat64(metrics.AuditPublishFailures), 0)

	require.Len(t, publisher.messages, 2)
	first, err := model.ParseAuditMessage(publisher.messages[0])
	require.NoError(t, err)
	assert.Equal(t, created.ID, first.EventID)
	assert.Equal(t, model.AuditOperationCreate, first.Operation)

	last, err := model.ParseAuditMessage(publisher.messages[1])
	require.NoError(t, err)
	assert.Equal(t, model.AuditOperationDelete, last.Operation)

	publisher.failOn = ""
	published, err = auditSvc.PublishPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Equal(t, []int64{1, 3, 2}, audit.published)
}
