package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tapline-games/miniapp-notify/internal/logging"
	"github.com/tapline-games/miniapp-notify/internal/metrics"
	"github.com/tapline-games/miniapp-notify/internal/models"
	"github.com/tapline-games/miniapp-notify/internal/service"
)

type NotifyHandler struct {
	service *service.NotifyService
	logger  *logging.Logger
}

func NewNotifyHandler(svc *service.NotifyService, logger *logging.Logger) *NotifyHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &NotifyHandler{
		service: svc,
		logger:  logger,
	}
}

// Notify handles POST /api/telegram. A malformed body is treated as an empty
// request and falls to the text gate, mirroring the endpoint's contract that
// the only 4xx cause is missing text.
func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req models.NotifyRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	resp, err := h.service.Notify(r.Context(), &req)
	switch {
	case errors.Is(err, service.ErrTextRequired):
		h.writeError(w, http.StatusBadRequest, service.ErrTextRequired.Error())
	case errors.Is(err, service.ErrConfigMissing):
		h.logger.ErrorContext(r.Context(), "bot credential or operator chat not configured")
		h.writeError(w, http.StatusInternalServerError, service.ErrConfigMissing.Error())
	case err != nil:
		h.logger.ErrorContext(r.Context(), "notify failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal_error")
	default:
		h.writeJSON(w, http.StatusOK, resp)
	}
}

// Health handles liveness checks.
func (h *NotifyHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles readiness checks. The service keeps no connections open
// between requests, so readiness equals liveness.
func (h *NotifyHandler) Ready(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *NotifyHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	metrics.RequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *NotifyHandler) writeError(w http.ResponseWriter, status int, code string) {
	h.writeJSON(w, status, models.ErrorResponse{OK: false, Error: code})
}
