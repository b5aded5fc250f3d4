package model

import "time"

// User is a person that can create or administer events.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Organization owns events.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateUserParams represents parameters for registering a user. An empty ID is generated.
type CreateUserParams struct {
	ID   string `json:"id"   validate:"omitempty,ref"`
	Name string `json:"name" validate:"required"`
}

// Validate validates the create user parameters.
func (p *CreateUserParams) Validate() error {
	return RegisterSchema().validateStruct(p)
}

// CreateOrganizationParams represents parameters for registering an organization. An empty ID is generated.
type CreateOrganizationParams struct {
	ID   string `json:"id"   validate:"omitempty,ref"`
	Name string `json:"name" validate:"required"`
}

// Validate validates the create organization parameters.
func (p *CreateOrganizationParams) Validate() error {
	return RegisterSchema().validateStruct(p)
}
