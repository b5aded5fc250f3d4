// Package service provides business logic layer implementations.
package service

import (
	"context"
	"time"

	"github.com/jnst/event-records/internal/model"
)

// EventService defines business logic methods for event records.
type EventService interface {
	CreateEvent(ctx context.Context, candidate *model.EventCandidate) (*model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	// UpdateEvent applies patch on top of the stored event and revalidates the result.
	UpdateEvent(ctx context.Context, id string, patch *model.EventCandidate) (*model.Event, error)
	DeleteEvent(ctx context.Context, id string) (*model.Event, error)
	SetStatus(ctx context.Context, id string, status model.Status) (*model.Event, error)

	CreateRecurrenceRule(ctx context.Context, params *model.CreateRecurrenceRuleParams) (*model.RecurrenceRule, error)
	ListInstances(ctx context.Context, baseID string) ([]*model.Event, error)
	MaterializeInstances(ctx context.Context, baseID string, until time.Time) ([]*model.Event, error)
	// MaterializeAll materializes every active base recurring event, reading batchSize bases at a time.
	MaterializeAll(ctx context.Context, until time.Time, batchSize int) (int, error)
	ModifyInstance(ctx context.Context, instanceID string, patch *model.EventCandidate) (*model.Event, error)
}

// UserService defines business logic methods for the users and organizations events refer to.
type UserService interface {
	CreateUser(ctx context.Context, params *model.CreateUserParams) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	CreateOrganization(ctx context.Context, params *model.CreateOrganizationParams) (*model.Organization, error)
	GetOrganization(ctx context.Context, id string) (*model.Organization, error)
}

// AuditService defines business logic methods for audit log publication.
type AuditService interface {
	PublishPending(ctx context.Context, limit int) (int, error)
}

// StreamPublisher appends a message to a named stream and returns its stream ID.
type StreamPublisher interface {
	Publish(ctx context.Context, stream string, fields map[string]string) (string, error)
}
