package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cobaltlane/sentinel/internal/auth/service"
	"github.com/cobaltlane/sentinel/pkg/httpx"
	"github.com/cobaltlane/sentinel/pkg/slogx"
)

// LoginHandler serves POST /v1/sessions/login.
type LoginHandler struct {
	SessionService *service.SessionService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	device := service.DeviceContext{
		UserAgent: r.UserAgent(),
		IPAddress: httpx.IPKeyExtractor(r),
	}

	result, err := h.SessionService.Login(ctx, req.Email, req.Password, device)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, service.ErrAccountLocked):
			// No unlock timestamp in the response; don't hand an attacker a
			// schedule.
			httpx.WriteError(w, http.StatusLocked, "account temporarily locked, try again later")
		case errors.Is(err, service.ErrAccountDeactivated):
			httpx.WriteError(w, http.StatusForbidden, "account deactivated")
		default:
			log.Error("login failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}
