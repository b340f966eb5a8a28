package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/repository"
)

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	row := userRow{
		ID:       user.ID,
		Login:    user.Login,
		Password: user.PasswordHash,
		Roles:    strings.Join(user.Roles, ","),
		Token:    user.Token,
		Until:    utcPtr(user.TokenUntil),
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users.token") {
				return repository.ErrTokenExists
			}
			return repository.ErrLoginExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

// GetUserByLogin retrieves a user by login.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	return s.findUser(ctx, "login = ?", login)
}

// GetUserByToken retrieves the user holding token, regardless of expiry.
func (s *Store) GetUserByToken(ctx context.Context, token string) (*model.User, error) {
	return s.findUser(ctx, "token = ?", token)
}

// UpdateUserToken replaces the user's token and expiry in one write.
func (s *Store) UpdateUserToken(ctx context.Context, userID, token string, until time.Time) error {
	result := s.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ?", userID).
		Updates(map[string]any{"token": token, "until": until.UTC()})
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return repository.ErrTokenExists
		}
		return fmt.Errorf("failed to update user token: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// DeleteUser removes a user. Their documents are removed by cascade.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&userRow{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

func (s *Store) findUser(ctx context.Context, cond string, arg any) (*model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where(cond, arg).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return row.toModel(), nil
}

func (r *userRow) toModel() *model.User {
	u := &model.User{
		ID:           r.ID,
		Login:        r.Login,
		PasswordHash: r.Password,
		Roles:        []string{},
		Token:        r.Token,
		TokenUntil:   r.Until,
	}
	if r.Roles != "" {
		u.Roles = strings.Split(r.Roles, ",")
	}
	return u
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
