package http

import (
	"net/http"

	"github.com/cobaltlane/sentinel/internal/auth/domain"
	"github.com/cobaltlane/sentinel/internal/auth/service"
	"github.com/cobaltlane/sentinel/pkg/httpx"
	"github.com/cobaltlane/sentinel/pkg/slogx"
)

// SessionsHandler serves GET /v1/sessions, listing the caller's bounded
// access-token history, oldest first.
type SessionsHandler struct {
	SessionService *service.SessionService
}

type sessionsResponse struct {
	Sessions []domain.SessionView `json:"sessions"`
}

func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principalID := httpx.PrincipalIDFromContext(ctx)
	if principalID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	views, err := h.SessionService.Sessions(ctx, principalID)
	if err != nil {
		log.Error("session listing failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionsResponse{Sessions: views})
}
