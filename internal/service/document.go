package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/docket/docket/internal/metrics"
	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/payload"
	"github.com/docket/docket/internal/repository"
)

// Paging holds the listing page size limits.
type Paging struct {
	DefaultPerPage int
	MaxPerPage     int
}

// DefaultPaging is used when no limits are configured.
var DefaultPaging = Paging{DefaultPerPage: 20, MaxPerPage: 100}

// DocumentService handles the document lifecycle.
type DocumentService struct {
	store   DocumentStore
	paging  Paging
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(store DocumentStore, paging Paging, recorder metrics.Recorder, logger *slog.Logger) *DocumentService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if paging.DefaultPerPage <= 0 {
		paging.DefaultPerPage = DefaultPaging.DefaultPerPage
	}
	if paging.MaxPerPage <= 0 {
		paging.MaxPerPage = DefaultPaging.MaxPerPage
	}
	return &DocumentService{
		store:   store,
		paging:  paging,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *DocumentService) WithClock(now func() time.Time) *DocumentService {
	s.now = now
	return s
}

// Create creates an empty draft owned by the caller.
func (s *DocumentService) Create(ctx context.Context, identity *model.AuthContext) (*model.Document, error) {
	now := s.now()
	if err := requireIdentity(identity, now); err != nil {
		return nil, err
	}

	draft, err := s.status(ctx, model.StatusDraft)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		ID:         ulid.Make().String(),
		UserID:     identity.UserID,
		StatusID:   draft.ID,
		Status:     draft.Title,
		Payload:    model.Payload{},
		CreatedAt:  now.UTC(),
		ModifiedAt: now.UTC(),
	}

	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.metrics.IncDocumentCreated()
	return doc, nil
}

// Edit merge-patches the payload of a draft owned by the caller.
func (s *DocumentService) Edit(ctx context.Context, identity *model.AuthContext, id string, patch model.Payload) (*model.Document, error) {
	now := s.now()
	if err := requireIdentity(identity, now); err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, ErrPayloadRequired
	}

	doc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckEdit(doc, identity.UserID); err != nil {
		if errors.Is(err, ErrUnknownStatus) {
			s.logger.Error("document_without_status", "document_id", doc.ID)
		}
		return nil, err
	}

	doc.Payload = payload.Merge(doc.Payload, patch)
	doc.ModifiedAt = now.UTC()

	updated, err := s.update(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.metrics.IncDocumentEdited()
	return updated, nil
}

// Publish moves a document owned by the caller to published.
func (s *DocumentService) Publish(ctx context.Context, identity *model.AuthContext, id string) (*model.Document, error) {
	now := s.now()
	if err := requireIdentity(identity, now); err != nil {
		return nil, err
	}

	doc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckPublish(doc, identity.UserID); err != nil {
		return nil, err
	}

	published, err := s.status(ctx, model.StatusPublished)
	if err != nil {
		return nil, err
	}

	doc.StatusID = published.ID
	doc.Status = published.Title
	doc.ModifiedAt = now.UTC()

	updated, err := s.update(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.metrics.IncDocumentPublished()
	return updated, nil
}

// Get returns a document visible to the caller. identity may be nil.
func (s *DocumentService) Get(ctx context.Context, identity *model.AuthContext, id string) (*model.Document, error) {
	doc, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckRead(doc, viewerID(identity)); err != nil {
		return nil, err
	}
	return doc, nil
}

// ListInput defines input for listing documents. Zero values select defaults.
type ListInput struct {
	Page    int
	PerPage int
}

// DocumentPage is one page of a listing.
type DocumentPage struct {
	Documents []*model.Document
	Page      int
	PerPage   int
	Total     int // number of pages
}

// List returns a page of documents visible to the caller, newest first.
func (s *DocumentService) List(ctx context.Context, identity *model.AuthContext, input ListInput) (*DocumentPage, error) {
	page, perPage := input.Page, input.PerPage
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = s.paging.DefaultPerPage
	}
	if page < 0 || perPage < 0 {
		return nil, ErrInvalidPagination
	}
	perPage = min(perPage, s.paging.MaxPerPage)

	if page-1 > math.MaxInt32/perPage {
		return nil, ErrPageOutOfRange
	}

	filter := repository.DocumentFilter{ViewerID: viewerID(identity)}
	docs, count, err := s.store.ListDocuments(ctx, filter, (page-1)*perPage, perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	total := max(1, int((count+int64(perPage)-1)/int64(perPage)))
	if page > total {
		return nil, ErrPageOutOfRange
	}

	return &DocumentPage{
		Documents: docs,
		Page:      page,
		PerPage:   perPage,
		Total:     total,
	}, nil
}

func (s *DocumentService) get(ctx context.Context, id string) (*model.Document, error) {
	doc, err := s.store.GetDocumentByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) update(ctx context.Context, doc *model.Document) (*model.Document, error) {
	updated, err := s.store.UpdateDocument(ctx, *doc)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			s.metrics.IncEditConflict()
			return nil, ErrEditConflict
		case errors.Is(err, repository.ErrDocumentNotFound):
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *DocumentService) status(ctx context.Context, title string) (*model.Status, error) {
	status, err := s.store.GetStatusByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, repository.ErrStatusNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrStatusNotFound, title)
		}
		return nil, err
	}
	return status, nil
}

func viewerID(identity *model.AuthContext) string {
	if identity == nil {
		return ""
	}
	return identity.UserID
}
