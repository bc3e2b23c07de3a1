package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trackroom/internal/domain/user"
	apperrors "trackroom/pkg/errors"
)

const errUserNotFound = "user not found"

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, input user.CreateUserInput) (*user.User, error) {
	query := `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id, username, password_hash, created_at
	`

	u := &user.User{}
	err := r.db.Pool.QueryRow(ctx, query, input.Username, input.PasswordHash).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, &apperrors.AppError{Code: "CONFLICT", Message: "username already taken", Err: apperrors.ErrConflict}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = $1
	`

	u := &user.User{}
	err := r.db.Pool.QueryRow(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}
