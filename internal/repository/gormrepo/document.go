package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/repository"
)

const documentColumns = `d.id, d.user_id, d.status_id, s.title AS status_title, d.payload,
	d.created_at, d.modified_at, d.version`

// CreateDocument inserts a new document. Version starts at 1.
func (s *Store) CreateDocument(ctx context.Context, doc *model.Document) error {
	payload, err := doc.Payload.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	row := documentRow{
		ID:         doc.ID,
		UserID:     doc.UserID,
		StatusID:   nullable(doc.StatusID),
		Payload:    string(payload),
		CreatedAt:  doc.CreatedAt.UTC(),
		ModifiedAt: doc.ModifiedAt.UTC(),
		Version:    1,
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	doc.Version = 1
	return nil
}

// GetDocumentByID retrieves a document snapshot with its status title.
func (s *Store) GetDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	var views []documentView
	err := s.joined(ctx).
		Select(documentColumns).
		Where("d.id = ?", id).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get document by ID: %w", err)
	}
	if len(views) == 0 {
		return nil, repository.ErrDocumentNotFound
	}

	return views[0].toModel()
}

// UpdateDocument writes status, payload and modified time guarded by the version
// the caller read. A lost race returns repository.ErrVersionConflict.
func (s *Store) UpdateDocument(ctx context.Context, doc model.Document) (*model.Document, error) {
	payload, err := doc.Payload.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&documentRow{}).
		Where("id = ? AND version = ?", doc.ID, doc.Version).
		Updates(map[string]any{
			"status_id":   nullable(doc.StatusID),
			"payload":     string(payload),
			"modified_at": doc.ModifiedAt.UTC(),
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update document: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&documentRow{}).Where("id = ?", doc.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check document: %w", err)
		}
		if count == 0 {
			return nil, repository.ErrDocumentNotFound
		}
		return nil, repository.ErrVersionConflict
	}

	return s.GetDocumentByID(ctx, doc.ID)
}

// ListDocuments returns one page of documents visible under filter, newest first,
// and the total number of visible documents.
func (s *Store) ListDocuments(ctx context.Context, filter repository.DocumentFilter, offset, limit int) ([]*model.Document, int64, error) {
	visible := func() *gorm.DB {
		return s.joined(ctx).Where("d.user_id = ? OR s.title = ?", filter.ViewerID, model.StatusPublished)
	}

	var total int64
	if err := visible().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	var views []documentView
	err := visible().
		Select(documentColumns).
		Order("d.created_at DESC, d.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&views).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]*model.Document, 0, len(views))
	for i := range views {
		doc, err := views[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}

	return docs, total, nil
}

func (s *Store) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("documents AS d").
		Joins("LEFT JOIN statuses s ON s.id = d.status_id")
}

func (v *documentView) toModel() (*model.Document, error) {
	payload, err := model.ParsePayload([]byte(v.Payload))
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	doc := &model.Document{
		ID:         v.ID,
		UserID:     v.UserID,
		Payload:    payload,
		CreatedAt:  v.CreatedAt,
		ModifiedAt: v.ModifiedAt,
		Version:    v.Version,
	}
	if v.StatusID != nil {
		doc.StatusID = *v.StatusID
	}
	if v.StatusTitle != nil {
		doc.Status = *v.StatusTitle
	}
	return doc, nil
}
