package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/docket/docket/internal/model"
)

// GetStatusByTitle looks up a status row by its unique title.
func (r *Repository) GetStatusByTitle(ctx context.Context, title string) (*model.Status, error) {
	query := `SELECT id::text, title FROM statuses WHERE title = $1`

	var status model.Status
	err := r.pool.QueryRow(ctx, query, title).Scan(&status.ID, &status.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusNotFound
		}
		return nil, fmt.Errorf("failed to get status by title: %w", err)
	}

	return &status, nil
}
