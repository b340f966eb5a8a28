package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docket/docket/internal/auth"
	"github.com/docket/docket/internal/handler/dto"
	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/service"
)

// DocumentHandler handles HTTP requests for document operations.
type DocumentHandler struct {
	svc    *service.DocumentService
	loc    *time.Location
	logger *slog.Logger
}

// NewDocumentHandler creates a new DocumentHandler. Timestamps are rendered in loc.
func NewDocumentHandler(svc *service.DocumentService, loc *time.Location, logger *slog.Logger) *DocumentHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DocumentHandler{
		svc:    svc,
		loc:    loc,
		logger: logger,
	}
}

// Create handles POST /api/v1/document.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := auth.AuthFromContext(r.Context())

	doc, err := h.svc.Create(r.Context(), identity)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("document_created",
		"document_id", doc.ID,
		"user_id", identity.UserID,
	)

	h.writeDocument(w, doc)
}

// Edit handles PATCH /api/v1/document/{id}.
func (h *DocumentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	identity := auth.AuthFromContext(r.Context())
	id := chi.URLParam(r, "id")

	patch, ok := decodeEditPayload(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msgNoPayload)
		return
	}

	doc, err := h.svc.Edit(r.Context(), identity, id, patch)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("document_edited",
		"document_id", doc.ID,
		"version", doc.Version,
	)

	h.writeDocument(w, doc)
}

// Publish handles POST /api/v1/document/{id}/publish.
func (h *DocumentHandler) Publish(w http.ResponseWriter, r *http.Request) {
	identity := auth.AuthFromContext(r.Context())

	doc, err := h.svc.Publish(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("document_published", "document_id", doc.ID)

	h.writeDocument(w, doc)
}

// Get handles GET /api/v1/document/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Get(r.Context(), auth.AuthFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.writeDocument(w, doc)
}

// List handles GET /api/v1/document?page&perPage.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, ok := parsePositive(query.Get("page"))
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrInvalidPagination)
		return
	}
	perPage, ok := parsePositive(query.Get("perPage"))
	if !ok {
		handleServiceError(w, r, h.logger, service.ErrInvalidPagination)
		return
	}

	result, err := h.svc.List(r.Context(), auth.AuthFromContext(r.Context()), service.ListInput{
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDocumentListResponse(
		result.Documents, result.Page, result.PerPage, result.Total, h.loc,
	))
}

func (h *DocumentHandler) writeDocument(w http.ResponseWriter, doc *model.Document) {
	writeJSON(w, http.StatusOK, dto.DocumentEnvelope{
		Document: dto.ToDocumentResponse(doc, h.loc),
	})
}

// decodeEditPayload extracts document.payload from the request body. Anything
// other than a JSON object under that key is reported as missing.
func decodeEditPayload(r *http.Request) (model.Payload, bool) {
	var req dto.EditDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, false
	}
	if req.Document == nil || len(req.Document.Payload) == 0 {
		return nil, false
	}

	var patch map[string]any
	if err := json.Unmarshal(req.Document.Payload, &patch); err != nil || patch == nil {
		return nil, false
	}
	return model.Payload(patch), true
}

// parsePositive parses an optional query integer. Absent yields 0.
func parsePositive(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
