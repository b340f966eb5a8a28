// Package service provides the document lifecycle and authentication logic.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/repository"
)

// Service errors.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("user is not the owner of the document")
	ErrAlreadyPublished  = errors.New("the document has already been published")
	ErrPayloadRequired   = errors.New("there is no payload")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrStatusNotFound    = errors.New("status not found")
	ErrUnknownStatus     = errors.New("document has no known status")
	ErrEditConflict      = errors.New("document was modified concurrently")
	ErrPageOutOfRange    = errors.New("page is out of range")
	ErrInvalidPagination = errors.New("page and perPage must be positive integers")
	ErrLoginNotFound     = errors.New("there is no login")
	ErrInvalidPassword   = errors.New("invalid password")
)

// UserStore is the user persistence the services depend on.
type UserStore interface {
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	GetUserByToken(ctx context.Context, token string) (*model.User, error)
	UpdateUserToken(ctx context.Context, userID, token string, until time.Time) error
}

// DocumentStore is the document and status persistence the services depend on.
type DocumentStore interface {
	GetStatusByTitle(ctx context.Context, title string) (*model.Status, error)
	CreateDocument(ctx context.Context, doc *model.Document) error
	GetDocumentByID(ctx context.Context, id string) (*model.Document, error)
	UpdateDocument(ctx context.Context, doc model.Document) (*model.Document, error)
	ListDocuments(ctx context.Context, filter repository.DocumentFilter, offset, limit int) ([]*model.Document, int64, error)
}

// IdentityCache caches resolved token identities keyed by token hash.
type IdentityCache interface {
	GetIdentity(ctx context.Context, tokenHash string) (*model.AuthContext, error)
	SetIdentity(ctx context.Context, tokenHash string, identity *model.AuthContext, ttl time.Duration) error
	DeleteIdentity(ctx context.Context, tokenHash string) error
}

// requireIdentity rejects anonymous and expired callers.
func requireIdentity(identity *model.AuthContext, now time.Time) error {
	if identity == nil || identity.Expired(now) {
		return ErrUnauthorized
	}
	return nil
}
