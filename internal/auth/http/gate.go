package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cobaltlane/sentinel/internal/auth/service"
	"github.com/cobaltlane/sentinel/pkg/httpx"
	"github.com/cobaltlane/sentinel/pkg/slogx"
)

// GateHandler serves the passcode-protected gate endpoints.
type GateHandler struct {
	GateService *service.GateService
}

type toggleRequest struct {
	Code         string `json:"code"`
	SharedSecret string `json:"shared_secret"`
}

type gateStatusResponse struct {
	Gate    string `json:"gate"`
	Enabled bool   `json:"enabled"`
}

// HandleRequestCode serves POST /v1/gates/{gate}/code. Idempotent while a
// valid code is outstanding: callers observe the same code until it expires
// or is consumed.
func (h *GateHandler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	gateID := r.PathValue("gate")
	if gateID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "gate is required")
		return
	}

	result, err := h.GateService.RequestCode(ctx, gateID)
	if err != nil {
		log.Error("gate code request failed", "err", err, "gate_id", gateID)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

// HandleToggle serves POST /v1/gates/{gate}/toggle.
func (h *GateHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	gateID := r.PathValue("gate")
	if gateID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "gate is required")
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" || req.SharedSecret == "" {
		httpx.WriteError(w, http.StatusBadRequest, "code and shared_secret are required")
		return
	}

	result, err := h.GateService.Toggle(ctx, gateID, req.Code, req.SharedSecret)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSharedSecret):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid shared secret")
		case errors.Is(err, service.ErrInvalidOrExpiredCode):
			httpx.WriteError(w, http.StatusBadRequest, "invalid or expired code")
		default:
			log.Error("gate toggle failed", "err", err, "gate_id", gateID)
			httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, result)
}

// HandleStatus serves GET /v1/gates/{gate}.
func (h *GateHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	gateID := r.PathValue("gate")
	if gateID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "gate is required")
		return
	}

	enabled, err := h.GateService.IsEnabled(ctx, gateID)
	if err != nil {
		log.Error("gate status failed", "err", err, "gate_id", gateID)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, gateStatusResponse{Gate: gateID, Enabled: enabled})
}
