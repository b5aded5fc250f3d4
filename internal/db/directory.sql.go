package db

import (
	"context"
)

const createUser = `-- name: CreateUser :one
INSERT INTO users (id, name)
VALUES ($1, $2)
RETURNING id, name, created_at`

type CreateUserParams struct {
	ID   string
	Name string
}

func (q *Queries) CreateUser(ctx context.Context, arg *CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.ID, arg.Name)

	var i User
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)

	return i, err
}

const getUser = `-- name: GetUser :one
SELECT id, name, created_at
FROM users
WHERE id = $1`

func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRow(ctx, getUser, id)

	var i User
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)

	return i, err
}

const createOrganization = `-- name: CreateOrganization :one
INSERT INTO organizations (id, name)
VALUES ($1, $2)
RETURNING id, name, created_at`

type CreateOrganizationParams struct {
	ID   string
	Name string
}

func (q *Queries) CreateOrganization(ctx context.Context, arg *CreateOrganizationParams) (Organization, error) {
	row := q.db.QueryRow(ctx, createOrganization, arg.ID, arg.Name)

	var i Organization
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)

	return i, err
}

const getOrganization = `-- name: GetOrganization :one
SELECT id, name, created_at
FROM organizations
WHERE id = $1`

func (q *Queries) GetOrganization(ctx context.Context, id string) (Organization, error) {
	row := q.db.QueryRow(ctx, getOrganization, id)

	var i Organization
	err := row.Scan(&i.ID, &i.Name, &i.CreatedAt)

	return i, err
}
