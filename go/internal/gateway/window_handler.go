package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/dashboard"
	"github.com/mcdev12/rankboard/go/internal/models"
)

// WindowController is the operator-facing side of the dashboard
type WindowController interface {
	ApplyWindow(date, start, end string) (models.TimeWindow, error)
	Reset()
	State() dashboard.State
}

// ApplyWindowRequest is the body of POST /api/window
type ApplyWindowRequest struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ErrorResponse is the body of every 4xx reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// WindowHandler handles the operator commands
type WindowHandler struct {
	controller WindowController
}

func NewWindowHandler(controller WindowController) *WindowHandler {
	return &WindowHandler{controller: controller}
}

// HandleApplyWindow handles POST /api/window
func (h *WindowHandler) HandleApplyWindow(w http.ResponseWriter, r *http.Request) {
	var req ApplyWindowRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	window, err := h.controller.ApplyWindow(req.Date, req.Start, req.End)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrMissingInput) ||
			errors.Is(err, models.ErrMalformedInput) ||
			errors.Is(err, models.ErrInvalidWindow) {
			status = http.StatusBadRequest
		} else if errors.Is(err, dashboard.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		log.Warn().
			Err(err).
			Str("date", req.Date).
			Str("start", req.Start).
			Str("end", req.End).
			Msg("rejected window")
		writeJSON(w, status, ErrorResponse{Error: err.Error()})
		return
	}

	log.Info().Str("window", window.String()).Msg("window applied by operator")
	w.WriteHeader(http.StatusNoContent)
}

// HandleResetWindow handles DELETE /api/window
func (h *WindowHandler) HandleResetWindow(w http.ResponseWriter, r *http.Request) {
	h.controller.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetState handles GET /api/state
func (h *WindowHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.State())
}

func (h *WindowHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/window", h.HandleApplyWindow)
	mux.HandleFunc("DELETE /api/window", h.HandleResetWindow)
	mux.HandleFunc("GET /api/state", h.HandleGetState)
}
