package http

import (
	"net/http"

	"github.com/cobaltlane/sentinel/internal/auth/service"
	"github.com/cobaltlane/sentinel/pkg/httpx"
	"github.com/cobaltlane/sentinel/pkg/slogx"
)

// LogoutHandler serves POST /v1/sessions/logout. Requires authentication; the
// principal comes from the access token, never from the body.
type LogoutHandler struct {
	SessionService *service.SessionService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	principalID := httpx.PrincipalIDFromContext(ctx)
	if principalID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.SessionService.Logout(ctx, principalID); err != nil {
		log.Error("logout failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
