package rankingapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/clients/ranking_api_client"
	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/sources/base"
)

// Handler serves per-game leaderboards over HTTP in the format the remote source consumes
type Handler struct {
	source base.RankingSource
	games  map[int]models.GameID
}

// NewHandler answers requests for the given game codes from source
func NewHandler(source base.RankingSource, codes map[models.GameID]int) *Handler {
	games := make(map[int]models.GameID, len(codes))
	for game, code := range codes {
		games[code] = game
	}
	return &Handler{source: source, games: games}
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleGetRanking handles GET /api/ranking?code=&start=&end=
func (h *Handler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	code, err := strconv.Atoi(q.Get(ranking_api_client.CodeParam))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "code must be an integer"})
		return
	}
	start, err := time.Parse(time.RFC3339, q.Get(ranking_api_client.StartParam))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "start must be an RFC3339 timestamp"})
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get(ranking_api_client.EndParam))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "end must be an RFC3339 timestamp"})
		return
	}
	window, err := models.NewTimeWindow(start, end)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	game, ok := h.games[code]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown game code " + strconv.Itoa(code)})
		return
	}

	entries, err := h.source.Fetch(r.Context(), game, window)
	if err != nil {
		log.Error().Err(err).Int("code", code).Str("window", window.String()).Msg("ranking lookup failed")
		status := http.StatusBadGateway
		if errors.Is(err, base.ErrSourceTimeout) {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, errorResponse{Error: "ranking source unavailable"})
		return
	}
	if entries == nil {
		entries = []models.RankEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+ranking_api_client.RankingEndpoint, h.HandleGetRanking)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
