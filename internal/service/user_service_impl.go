package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jnst/event-records/internal/model"
	"github.com/jnst/event-records/internal/repository"
)

// UserServiceImpl implements UserService.
type UserServiceImpl struct {
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
	newID    func() string
}

// NewUserServiceImpl creates a new UserService implementation.
func NewUserServiceImpl(userRepo repository.UserRepository, orgRepo repository.OrganizationRepository) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
		orgRepo:  orgRepo,
		newID:    uuid.NewString,
	}
}

// CreateUser registers a user, generating an ID when none is given.
func (s *UserServiceImpl) CreateUser(ctx context.Context, params *model.CreateUserParams) (*model.User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	user := &model.User{ID: params.ID, Name: params.Name}
	if user.ID == "" {
		user.ID = s.newID()
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

// GetUser retrieves a user by ID.
func (s *UserServiceImpl) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// CreateOrganization registers an organization, generating an ID when none is given.
func (s *UserServiceImpl) CreateOrganization(
	ctx context.Context,
	params *model.CreateOrganizationParams,
) (*model.Organization, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	org := &model.Organization{ID: params.ID, Name: params.Name}
	if org.ID == "" {
		org.ID = s.newID()
	}

	created, err := s.orgRepo.Create(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return created, nil
}

// GetOrganization retrieves an organization by ID.
func (s *UserServiceImpl) GetOrganization(ctx context.Context, id string) (*model.Organization, error) {
	return s.orgRepo.GetByID(ctx, id)
}
