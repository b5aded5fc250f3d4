package repository

import (
	"context"
	"fmt"

	"github.com/jnst/event-records/internal/model"
)

// AuditedEventRepository wraps an EventRepository so that every create, update
// and delete is recorded in the audit log within the mutation's transaction.
// Reads pass straight through to the wrapped repository.
type AuditedEventRepository struct {
	EventRepository

	auditRepo      AuditRepository
	transactionMgr TransactionManager
}

// NewAuditedEventRepository decorates next with audit logging.
func NewAuditedEventRepository(
	next EventRepository,
	auditRepo AuditRepository,
	transactionMgr TransactionManager,
) EventRepository {
	return &AuditedEventRepository{
		EventRepository: next,
		auditRepo:       auditRepo,
		transactionMgr:  transactionMgr,
	}
}

// Create inserts the event and records a create entry.
func (r *AuditedEventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	var created *model.Event

	err := r.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = r.EventRepository.Create(ctx, event)
		if err != nil {
			return err
		}

		return r.record(ctx, model.AuditOperationCreate, nil, created)
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Update overwrites the event and records its before and after state.
func (r *AuditedEventRepository) Update(ctx context.Context, event *model.Event) (*model.Event, error) {
	var updated *model.Event

	err := r.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		before, err := r.EventRepository.GetByID(ctx, event.ID)
		if err != nil {
			return err
		}

		updated, err = r.EventRepository.Update(ctx, event)
		if err != nil {
			return err
		}

		return r.record(ctx, model.AuditOperationUpdate, before, updated)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete soft-deletes the event and records its before and after state.
func (r *AuditedEventRepository) Delete(ctx context.Context, id string) (*model.Event, error) {
	var deleted *model.Event

	err := r.transactionMgr.WithTransaction(ctx, func(ctx context.Context) error {
		before, err := r.EventRepository.GetByID(ctx, id)
		if err != nil {
			return err
		}

		deleted, err = r.EventRepository.Delete(ctx, id)
		if err != nil {
			return err
		}

		return r.record(ctx, model.AuditOperationDelete, before, deleted)
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

func (r *AuditedEventRepository) record(ctx context.Context, op model.AuditOperation, before, after *model.Event) error {
	params, err := model.NewAuditRecordParams(op, before, after)
	if err != nil {
		return err
	}

	if _, err := r.auditRepo.Append(ctx, params); err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	return nil
}
