package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/docket/docket/internal/service"
)

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidPassword):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "User is not the owner of the document")
	case errors.Is(err, service.ErrAlreadyPublished):
		writeError(w, http.StatusBadRequest, "The document had already been published")
	case errors.Is(err, service.ErrPayloadRequired):
		writeError(w, http.StatusBadRequest, msgNoPayload)
	case errors.Is(err, service.ErrInvalidPagination):
		writeError(w, http.StatusBadRequest, "Page and perPage must be positive integers")
	case errors.Is(err, service.ErrDocumentNotFound):
		writeError(w, http.StatusNotFound, "Not Found")
	case errors.Is(err, service.ErrPageOutOfRange):
		writeError(w, http.StatusNotFound, "Page is out of range")
	case errors.Is(err, service.ErrStatusNotFound):
		logger.Error("status_missing", "error", err.Error())
		writeError(w, http.StatusNotFound, "Status has not been found")
	case errors.Is(err, service.ErrLoginNotFound):
		writeError(w, http.StatusNotFound, msgNoLogin)
	case errors.Is(err, service.ErrEditConflict):
		writeError(w, http.StatusInternalServerError, "The document was modified concurrently")
	default:
		logger.Error("request_failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

const (
	msgNoPayload = "There is no a payload"
	msgNoLogin   = "There is no login"
)
