package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/docket/docket/internal/handler/dto"
	"github.com/docket/docket/internal/service"
)

// AuthHandler handles login.
type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger,
	}
}

// Login handles POST /api/v1/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Login == nil {
		writeError(w, http.StatusNotFound, msgNoLogin)
		return
	}

	result, err := h.svc.Login(r.Context(), *req.Login, req.Password)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("login_succeeded", "login", result.Login)

	writeJSON(w, http.StatusOK, dto.ToLoginResponse(result.Login, result.Token, result.Until))
}
