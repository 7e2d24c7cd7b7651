package ranking_api_client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/mcdev12/rankboard/go/clients"
	"github.com/mcdev12/rankboard/go/internal/models"
)

type RankingApiClient struct {
	*clients.BaseClient
}

func NewRankingApiClient(baseURL string) *RankingApiClient {
	client := &RankingApiClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader(AcceptHeader, JSONMimeType)

	return client
}

// GetRanking fetches the leaderboard for a game code between start and end
func (c *RankingApiClient) GetRanking(ctx context.Context, code int, start, end time.Time) ([]models.RankEntry, error) {
	q := url.Values{}
	q.Set(CodeParam, strconv.Itoa(code))
	q.Set(StartParam, start.UTC().Format(time.RFC3339))
	q.Set(EndParam, end.UTC().Format(time.RFC3339))

	body, err := c.Get(ctx, RankingEndpoint+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to get ranking: %w", err)
	}

	var entries []models.RankEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	return entries, nil
}
