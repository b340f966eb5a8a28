// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"
	"time"

	"github.com/docket/docket/internal/model"
)

// TimeLayout is ISO 8601 with a numeric zone offset, e.g. 2024-06-21T09:39:38+0200.
const TimeLayout = "2006-01-02T15:04:05-0700"

// DocumentResponse represents a document in API responses.
type DocumentResponse struct {
	ID       string        `json:"id"`
	Status   string        `json:"status"`
	Payload  model.Payload `json:"payload"`
	CreateAt string        `json:"createAt"`
	ModifyAt string        `json:"modifyAt"`
}

// DocumentEnvelope wraps a single document.
type DocumentEnvelope struct {
	Document *DocumentResponse `json:"document"`
}

// DocumentListResponse is one page of documents.
type DocumentListResponse struct {
	Document   []*DocumentResponse `json:"document"`
	Pagination Pagination          `json:"pagination"`
}

// Pagination describes the returned page. Total is the number of pages.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Total   int `json:"total"`
}

// EditDocumentRequest is the body of a document edit.
type EditDocumentRequest struct {
	Document *struct {
		Payload json.RawMessage `json:"payload"`
	} `json:"document"`
}

// LoginRequest is the body of a login. Login is a pointer so an absent field
// can be told apart from an empty one.
type LoginRequest struct {
	Login    *string `json:"login"`
	Password string  `json:"password,omitempty"`
}

// LoginResponse carries an issued token. Until is the expiry in epoch seconds.
type LoginResponse struct {
	User  string `json:"user"`
	Token string `json:"token"`
	Until int64  `json:"until"`
}

// ErrorResponse represents an API error. Code mirrors the HTTP status.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ToDocumentResponse converts a Document to its response view in loc.
func ToDocumentResponse(doc *model.Document, loc *time.Location) *DocumentResponse {
	p := doc.Payload
	if p == nil {
		p = model.Payload{}
	}
	return &DocumentResponse{
		ID:       doc.ID,
		Status:   doc.Status,
		Payload:  p,
		CreateAt: doc.CreatedAt.In(loc).Format(TimeLayout),
		ModifyAt: doc.ModifiedAt.In(loc).Format(TimeLayout),
	}
}

// ToDocumentListResponse converts a page of documents.
func ToDocumentListResponse(docs []*model.Document, page, perPage, total int, loc *time.Location) *DocumentListResponse {
	out := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, ToDocumentResponse(d, loc))
	}
	return &DocumentListResponse{
		Document: out,
		Pagination: Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
		},
	}
}

// ToLoginResponse converts an issued token.
func ToLoginResponse(login, token string, until time.Time) *LoginResponse {
	return &LoginResponse{
		User:  login,
		Token: token,
		Until: until.Unix(),
	}
}
