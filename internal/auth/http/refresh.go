package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cobaltlane/sentinel/internal/auth/service"
	"github.com/cobaltlane/sentinel/pkg/httpx"
	"github.com/cobaltlane/sentinel/pkg/slogx"
)

// RefreshHandler serves POST /v1/sessions/refresh.
type RefreshHandler struct {
	SessionService *service.SessionService
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := h.SessionService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefresh):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, service.ErrRefreshExpired):
			httpx.WriteError(w, http.StatusUnauthorized, "refresh token expired")
		default:
			log.Error("refresh failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}
