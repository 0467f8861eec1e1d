package database

import (
	"context"

	"github.com/google/uuid"
)

const getUserByUsername = `
SELECT id, username, password FROM users WHERE username = $1
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByUsername, username).Scan(&u.ID, &u.Username, &u.Password)
	return u, err
}

const getUserByID = `
SELECT id, username, password FROM users WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByID, id).Scan(&u.ID, &u.Username, &u.Password)
	return u, err
}

const createUser = `
INSERT INTO users (username, password)
VALUES ($1, $2)
RETURNING id, username, password
`

type CreateUserParams struct {
	Username string
	Password string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, createUser, arg.Username, arg.Password).Scan(&u.ID, &u.Username, &u.Password)
	return u, err
}
