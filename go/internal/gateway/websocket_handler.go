package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/events"
)

// EventTypeDashboardState is sent once to each display right after it connects
const EventTypeDashboardState events.EventType = "DashboardState"

// WebSocketHandler handles WebSocket upgrade requests from dashboard displays
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	controller        WindowController
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, controller WindowController) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		controller:        controller,
	}
}

// HandleDashboardConnection upgrades the request and greets the display with the current state.
// The state is read once the display is registered, so no later update is missed.
func (h *WebSocketHandler) HandleDashboardConnection(w http.ResponseWriter, r *http.Request) {
	// Upgrade writes its own error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r, h.greeting); err != nil {
		log.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("failed to upgrade WebSocket connection")
	}
}

func (h *WebSocketHandler) greeting() *events.Event {
	greeting, err := events.NewEvent(EventTypeDashboardState, h.controller.State(), time.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to build dashboard state greeting")
		return nil
	}
	return greeting
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/dashboard", h.HandleDashboardConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
