package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/docket/docket/internal/model"
)

const userColumns = `id::text, login, password, roles, token, until`

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, login, password, roles, token, until)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Login,
		user.PasswordHash,
		pq.Array(user.Roles),
		user.Token,
		user.TokenUntil,
	)

	if err != nil {
		if isUniqueViolation(err) {
			if constraintName(err) == "users_token_unique" {
				return ErrTokenExists
			}
			return ErrLoginExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id::text = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetUserByLogin retrieves a user by login.
func (r *Repository) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by login: %w", err)
	}

	return user, nil
}

// GetUserByToken retrieves the user holding token, regardless of expiry.
func (r *Repository) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE token = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by token: %w", err)
	}

	return user, nil
}

// UpdateUserToken replaces the user's token and expiry in one write.
func (r *Repository) UpdateUserToken(ctx context.Context, userID, token string, until time.Time) error {
	query := `
		UPDATE users
		SET token = $2, until = $3
		WHERE id::text = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, token, until)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTokenExists
		}
		return fmt.Errorf("failed to update user token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeleteUser removes a user. Their documents are removed by cascade.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Login,
		&user.PasswordHash,
		&user.Roles,
		&user.Token,
		&user.TokenUntil,
	)
	return &user, err
}
