package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/docket/docket/internal/model"
)

const documentSelect = `
	SELECT d.id, d.user_id::text, d.status_id::text, COALESCE(s.title, ''), d.payload,
	       d.created_at, d.modified_at, d.version
	FROM documents d
	LEFT JOIN statuses s ON s.id = d.status_id
`

// CreateDocument inserts a new document. Version starts at 1.
func (r *Repository) CreateDocument(ctx context.Context, doc *model.Document) error {
	payload, err := doc.Payload.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `
		INSERT INTO documents (id, user_id, status_id, payload, created_at, modified_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, 1)
	`

	_, err = r.pool.Exec(ctx, query,
		doc.ID,
		doc.UserID,
		nullable(doc.StatusID),
		payload,
		doc.CreatedAt,
		doc.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	doc.Version = 1
	return nil
}

// GetDocumentByID retrieves a document snapshot with its status title.
func (r *Repository) GetDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	query := documentSelect + `WHERE d.id = $1`

	doc, err := scanDocument(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document by ID: %w", err)
	}

	return doc, nil
}

// UpdateDocument writes status, payload and modified time guarded by the version
// the caller read. A lost race returns ErrVersionConflict.
func (r *Repository) UpdateDocument(ctx context.Context, doc model.Document) (*model.Document, error) {
	payload, err := doc.Payload.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `
		UPDATE documents
		SET status_id = $3, payload = $4, modified_at = $5, version = version + 1
		WHERE id = $1 AND version = $2
	`

	result, err := r.pool.Exec(ctx, query,
		doc.ID,
		doc.Version,
		nullable(doc.StatusID),
		payload,
		doc.ModifiedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, doc.ID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check document: %w", err)
		}
		if !exists {
			return nil, ErrDocumentNotFound
		}
		return nil, ErrVersionConflict
	}

	return r.GetDocumentByID(ctx, doc.ID)
}

// ListDocuments returns one page of documents visible under filter, newest first,
// and the total number of visible documents.
func (r *Repository) ListDocuments(ctx context.Context, filter DocumentFilter, offset, limit int) ([]*model.Document, int64, error) {
	where := `WHERE (d.user_id::text = $1 OR s.title = 'published')`

	var total int64
	countQuery := `SELECT COUNT(*) FROM documents d LEFT JOIN statuses s ON s.id = d.status_id ` + where
	if err := r.pool.QueryRow(ctx, countQuery, filter.ViewerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	query := documentSelect + where + `
		ORDER BY d.created_at DESC, d.id DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, filter.ViewerID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*model.Document, 0, limit)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, total, nil
}

// scanDocument scans a single row into a Document model.
func scanDocument(row pgx.Row) (*model.Document, error) {
	var (
		doc      model.Document
		statusID *string
		payload  []byte
	)
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&statusID,
		&doc.Status,
		&payload,
		&doc.CreatedAt,
		&doc.ModifiedAt,
		&doc.Version,
	)
	if err != nil {
		return nil, err
	}

	if statusID != nil {
		doc.StatusID = *statusID
	}
	if doc.Payload, err = model.ParsePayload(payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	return &doc, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
