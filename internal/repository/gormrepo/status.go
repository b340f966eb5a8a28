package gormrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/repository"
)

// GetStatusByTitle looks up a status row by its unique title.
func (s *Store) GetStatusByTitle(ctx context.Context, title string) (*model.Status, error) {
	var row statusRow
	if err := s.db.WithContext(ctx).Where("title = ?", title).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrStatusNotFound
		}
		return nil, fmt.Errorf("failed to get status by title: %w", err)
	}

	return &model.Status{ID: row.ID, Title: row.Title}, nil
}

// DeleteStatus removes a status row; referencing documents keep a null status.
func (s *Store) DeleteStatus(ctx context.Context, title string) error {
	result := s.db.WithContext(ctx).Delete(&statusRow{}, "title = ?", title)
	if result.Error != nil {
		return fmt.Errorf("failed to delete status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrStatusNotFound
	}
	return nil
}
