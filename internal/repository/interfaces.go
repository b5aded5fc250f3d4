// Package repository provides data access interfaces and implementations.
package repository

import (
	"context"

	"github.com/jnst/event-records/internal/model"
)

// EventRepository defines methods for event data access.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	// GetForUpdate reads the event and locks its row until the transaction in ctx ends.
	GetForUpdate(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) (*model.Event, error)
	// Delete soft-deletes the event by moving it to DELETED.
	Delete(ctx context.Context, id string) (*model.Event, error)
	ListInstances(ctx context.Context, baseID string) ([]*model.Event, error)
	// ListBaseRecurring returns up to limit active base events with an ID above afterID, in ID order.
	ListBaseRecurring(ctx context.Context, afterID string, limit int) ([]*model.Event, error)
}

// RecurrenceRuleRepository defines methods for recurrence rule data access.
type RecurrenceRuleRepository interface {
	Create(ctx context.Context, rule *model.RecurrenceRule) (*model.RecurrenceRule, error)
	GetByID(ctx context.Context, id string) (*model.RecurrenceRule, error)
}

// AuditRepository defines methods for audit log data access.
type AuditRepository interface {
	Append(ctx context.Context, params *model.CreateAuditRecordParams) (*model.AuditRecord, error)
	GetUnpublished(ctx context.Context, limit int) ([]*model.AuditRecord, error)
	MarkAsPublished(ctx context.Context, id int64) error
}

// UserRepository defines methods for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// OrganizationRepository defines methods for organization data access.
type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) (*model.Organization, error)
	GetByID(ctx context.Context, id string) (*model.Organization, error)
}

// TransactionManager defines methods for database transaction management.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
