package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cobaltlane/sentinel/internal/auth/service"
	"github.com/cobaltlane/sentinel/pkg/httpx"
	"github.com/cobaltlane/sentinel/pkg/slogx"
)

const minPasswordLength = 8

// PasswordHandler serves PUT /v1/sessions/password. A successful change
// invalidates every live session, this one included.
type PasswordHandler struct {
	SessionService *service.SessionService
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principalID := httpx.PrincipalIDFromContext(ctx)
	if principalID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req passwordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "current_password and new_password are required")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		httpx.WriteError(w, http.StatusBadRequest, "new password must be at least 8 characters")
		return
	}

	err := h.SessionService.ChangePassword(ctx, principalID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordIncorrect):
			httpx.WriteError(w, http.StatusForbidden, "current password is incorrect")
		case errors.Is(err, service.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "principal not found")
		default:
			log.Error("password change failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "password changed, all sessions invalidated",
	})
}
