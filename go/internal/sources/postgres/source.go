package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/dbconfig"
	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/sources/base"
)

const (
	// SourceKey is the registry key of the database-backed source
	SourceKey = "postgres"

	// Settings
	DSNSetting   = "dsn"
	LimitSetting = "limit"

	defaultLimit = 100
)

// topScoresQuery returns each participant's best score for a game code inside [start, end)
const topScoresQuery = `
SELECT nickname, MAX(score) AS top
FROM game_scores
WHERE game_code = $1
  AND played_at >= $2
  AND played_at < $3
GROUP BY nickname
ORDER BY top DESC, MIN(played_at) ASC
LIMIT $4`

func init() {
	if err := base.RegisterSource(SourceKey, func(cfg base.Config) (base.RankingSource, error) {
		limit, err := strconv.Atoi(cfg.Setting(LimitSetting, strconv.Itoa(defaultLimit)))
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("invalid %s setting %q", LimitSetting, cfg.Settings[LimitSetting])
		}
		dsn := cfg.Setting(DSNSetting, dbconfig.NewConfigFromEnv().DSN())
		pool, err := NewPool(context.Background(), dsn)
		if err != nil {
			return nil, err
		}
		return NewSource(pool, cfg.Codes, limit), nil
	}); err != nil {
		panic(fmt.Sprintf("register postgres source: %v", err))
	}
}

// NewPool parses dsn and creates a lazily connecting pool
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	return pool, nil
}

// Querier is the subset of pgxpool.Pool the source uses
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source reads leaderboards from the game_scores table
type Source struct {
	db    Querier
	codes map[models.GameID]int
	limit int
}

func NewSource(db Querier, codes map[models.GameID]int, limit int) *Source {
	return &Source{db: db, codes: codes, limit: limit}
}

// Fetch returns the best score of every participant who played the game inside the window
func (s *Source) Fetch(ctx context.Context, game models.GameID, window models.TimeWindow) ([]models.RankEntry, error) {
	code, err := base.CodeFor(s.codes, game)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, topScoresQuery, code, window.Start(), window.End(), s.limit)
	if err != nil {
		return nil, classify(game, err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RankEntry, error) {
		var e models.RankEntry
		err := row.Scan(&e.Participant, &e.TopScore)
		return e, err
	})
	if err != nil {
		return nil, classify(game, err)
	}

	return entries, nil
}

// Ping checks the database when the source owns a pool
func (s *Source) Ping(ctx context.Context) error {
	if pool, ok := s.db.(*pgxpool.Pool); ok {
		return pool.Ping(ctx)
	}
	return nil
}

// Close releases the underlying pool when the source owns one
func (s *Source) Close() {
	if pool, ok := s.db.(*pgxpool.Pool); ok {
		pool.Close()
	}
}

func classify(game models.GameID, err error) error {
	log.Warn().Err(err).Str("game", string(game)).Msg("postgres ranking query failed")
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", base.ErrSourceTimeout, err)
	}
	return fmt.Errorf("%w: %v", base.ErrSourceUnavailable, err)
}
