package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tapline-games/miniapp-notify/internal/handlers"
	"github.com/tapline-games/miniapp-notify/internal/middleware"
)

// NewRouter constructs a ServeMux with the notify API routes registered.
func NewRouter(h *handlers.NotifyHandler) http.Handler {
	mux := http.NewServeMux()

	// Notification endpoint called by the mini-app page
	mux.HandleFunc("POST /api/telegram", h.Notify)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
