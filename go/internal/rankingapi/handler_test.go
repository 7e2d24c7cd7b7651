package rankingapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/rankboard/go/clients/ranking_api_client"
	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/sources/base"
	"github.com/mcdev12/rankboard/go/internal/sources/mock"
	"github.com/mcdev12/rankboard/go/internal/sources/remote"
)

var (
	windowStart = time.Date(2025, 11, 4, 10, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2025, 11, 4, 11, 0, 0, 0, time.UTC)
)

func newServer(t *testing.T, source base.RankingSource) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(source, models.DefaultGameCodes).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, server *httptest.Server, code, start, end string) *http.Response {
	t.Helper()
	q := url.Values{}
	q.Set("code", code)
	q.Set("start", start)
	q.Set("end", end)
	resp, err := http.Get(server.URL + "/api/ranking?" + q.Encode())
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleGetRanking_StatusCodes(t *testing.T) {
	failing := base.SourceFunc(func(context.Context, models.GameID, models.TimeWindow) ([]models.RankEntry, error) {
		return nil, fmt.Errorf("%w: connection refused", base.ErrSourceUnavailable)
	})
	slow := base.SourceFunc(func(context.Context, models.GameID, models.TimeWindow) ([]models.RankEntry, error) {
		return nil, base.ErrSourceTimeout
	})
	ok := mock.NewSource(models.DefaultGameCodes, mock.DefaultTable())

	start, end := windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339)

	cases := []struct {
		name       string
		source     base.RankingSource
		code       string
		start, end string
		want       int
	}{
		{"ok", ok, "10102", start, end, http.StatusOK},
		{"bad code", ok, "abc", start, end, http.StatusBadRequest},
		{"bad start", ok, "10102", "yesterday", end, http.StatusBadRequest},
		{"missing end", ok, "10102", start, "", http.StatusBadRequest},
		{"inverted window", ok, "10102", end, start, http.StatusBadRequest},
		{"unknown code", ok, "99999", start, end, http.StatusNotFound},
		{"source down", failing, "10102", start, end, http.StatusBadGateway},
		{"source timeout", slow, "10102", start, end, http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := get(t, newServer(t, tc.source), tc.code, tc.start, tc.end)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestHandleGetRanking_RoundTripsThroughRemoteSource(t *testing.T) {
	table := mock.DefaultTable()
	server := newServer(t, mock.NewSource(models.DefaultGameCodes, table))

	client := ranking_api_client.NewRankingApiClient(server.URL)
	source := remote.NewSource(client, models.DefaultGameCodes)

	window, err := models.NewTimeWindow(windowStart, windowEnd)
	require.NoError(t, err)

	for _, game := range models.DefaultGames {
		entries, err := source.Fetch(context.Background(), game, window)
		require.NoError(t, err)
		assert.Equal(t, table[models.DefaultGameCodes[game]], entries)
	}
}

func TestHandleGetRanking_EmptyListIsArray(t *testing.T) {
	empty := base.SourceFunc(func(context.Context, models.GameID, models.TimeWindow) ([]models.RankEntry, error) {
		return nil, nil
	})
	resp := get(t, newServer(t, empty), "30102", windowStart.Format(time.RFC3339), windowEnd.Format(time.RFC3339))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	buf := make([]byte, 16)
	n, _ := resp.Body.Read(buf)
	assert.Equal(t, "[]\n", string(buf[:n]))
}
