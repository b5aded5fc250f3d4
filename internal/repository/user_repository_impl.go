package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jnst/event-records/internal/db"
	"github.com/jnst/event-records/internal/model"
)

// UserRepositoryImpl implements UserRepository using PostgreSQL.
type UserRepositoryImpl struct {
	db *db.Queries
}

// NewUserRepositoryImpl creates a new UserRepository implementation.
func NewUserRepositoryImpl(pool *pgxpool.Pool) UserRepository {
	return &UserRepositoryImpl{db: db.New(pool)}
}

// Create creates a new user.
func (r *UserRepositoryImpl) Create(ctx context.Context, user *model.User) (*model.User, error) {
	row, err := queriesFor(ctx, r.db).CreateUser(ctx, &db.CreateUserParams{ID: user.ID, Name: user.Name})
	if err != nil {
		return nil, translateError(err, model.ErrUserNotFound)
	}

	return toModelUser(&row), nil
}

// GetByID retrieves a user by ID.
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id string) (*model.User, error) {
	row, err := queriesFor(ctx, r.db).GetUser(ctx, id)
	if err != nil {
		return nil, translateError(err, model.ErrUserNotFound)
	}

	return toModelUser(&row), nil
}

// OrganizationRepositoryImpl implements OrganizationRepository using PostgreSQL.
type OrganizationRepositoryImpl struct {
	db *db.Queries
}

// NewOrganizationRepositoryImpl creates a new OrganizationRepository implementation.
func NewOrganizationRepositoryImpl(pool *pgxpool.Pool) OrganizationRepository {
	return &OrganizationRepositoryImpl{db: db.New(pool)}
}

// Create creates a new organization.
func (r *OrganizationRepositoryImpl) Create(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	row, err := queriesFor(ctx, r.db).CreateOrganization(ctx, &db.CreateOrganizationParams{ID: org.ID, Name: org.Name})
	if err != nil {
		return nil, translateError(err, model.ErrOrganizationNotFound)
	}

	return toModelOrganization(&row), nil
}

// GetByID retrieves an organization by ID.
func (r *OrganizationRepositoryImpl) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	row, err := queriesFor(ctx, r.db).GetOrganization(ctx, id)
	if err != nil {
		return nil, translateError(err, model.ErrOrganizationNotFound)
	}

	return toModelOrganization(&row), nil
}
