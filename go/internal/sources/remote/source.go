package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/clients/ranking_api_client"
	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/sources/base"
)

const (
	// SourceKey is the registry key of the HTTP-backed source
	SourceKey = "remote"

	// Settings
	URLSetting     = "url"
	TimeoutSetting = "timeout"

	defaultURL     = "http://localhost:3000"
	defaultTimeout = 10 * time.Second
)

func init() {
	if err := base.RegisterSource(SourceKey, func(cfg base.Config) (base.RankingSource, error) {
		timeout, err := time.ParseDuration(cfg.Setting(TimeoutSetting, defaultTimeout.String()))
		if err != nil {
			return nil, fmt.Errorf("invalid %s setting: %w", TimeoutSetting, err)
		}
		client := ranking_api_client.NewRankingApiClient(cfg.Setting(URLSetting, defaultURL))
		client.SetTimeout(timeout)
		return NewSource(client, cfg.Codes), nil
	}); err != nil {
		panic(fmt.Sprintf("register remote source: %v", err))
	}
}

// RankingClient is what the source needs from the ranking API client
type RankingClient interface {
	GetRanking(ctx context.Context, code int, start, end time.Time) ([]models.RankEntry, error)
}

// Source fetches leaderboards from a ranking API over HTTP
type Source struct {
	client RankingClient
	codes  map[models.GameID]int
}

func NewSource(client RankingClient, codes map[models.GameID]int) *Source {
	return &Source{client: client, codes: codes}
}

// Fetch maps the game to its code and queries the API for the window.
// Deadline and network timeouts surface as ErrSourceTimeout, anything else as ErrSourceUnavailable.
func (s *Source) Fetch(ctx context.Context, game models.GameID, window models.TimeWindow) ([]models.RankEntry, error) {
	code, err := base.CodeFor(s.codes, game)
	if err != nil {
		return nil, err
	}

	entries, err := s.client.GetRanking(ctx, code, window.Start(), window.End())
	if err != nil {
		log.Warn().
			Err(err).
			Str("game", string(game)).
			Int("code", code).
			Msg("remote ranking fetch failed")
		return nil, classify(err)
	}

	return entries, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", base.ErrSourceTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", base.ErrSourceTimeout, err)
	}
	return fmt.Errorf("%w: %v", base.ErrSourceUnavailable, err)
}
