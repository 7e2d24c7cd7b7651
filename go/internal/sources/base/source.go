package base

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mcdev12/rankboard/go/internal/models"
)

var (
	// ErrSourceUnavailable is returned when a source cannot produce a ranking (transport or backend failure)
	ErrSourceUnavailable = errors.New("ranking source unavailable")
	// ErrSourceTimeout is returned when a source did not answer before the fetch deadline
	ErrSourceTimeout = errors.New("ranking source timed out")
	// ErrUnknownGame is returned when a game has no configured code
	ErrUnknownGame = errors.New("unknown game")
)

// RankingSource returns a game's leaderboard for a time window, already sorted by
// descending top score. Failures wrap ErrSourceUnavailable or ErrSourceTimeout.
type RankingSource interface {
	Fetch(ctx context.Context, game models.GameID, window models.TimeWindow) ([]models.RankEntry, error)
}

// Config is what a source factory receives: the game code table plus
// source-specific settings from the sources section of the config file
type Config struct {
	Codes    map[models.GameID]int
	Settings map[string]string
}

// Setting returns a source setting or fallback when unset
func (c Config) Setting(key, fallback string) string {
	if v, ok := c.Settings[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Factory builds a source from its config
type Factory func(cfg Config) (RankingSource, error)

var (
	registry   = make(map[string]Factory)
	registryMu sync.RWMutex
)

// RegisterSource adds a source factory under a key.
// It should be called from each source package's init() function.
func RegisterSource(key string, factory Factory) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if key == "" {
		return fmt.Errorf("source key cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("source factory for %q is nil", key)
	}
	if _, exists := registry[key]; exists {
		return fmt.Errorf("source already registered for key %q", key)
	}
	registry[key] = factory
	return nil
}

// NewSource builds the source registered under key
func NewSource(key string, cfg Config) (RankingSource, error) {
	registryMu.RLock()
	factory, exists := registry[key]
	registryMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("no ranking source registered for key %q", key)
	}
	src, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build source %q: %w", key, err)
	}
	return src, nil
}

// RegisteredSources lists registered keys in sorted order
func RegisteredSources() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CodeFor resolves the numeric code a source expects for game
func CodeFor(codes map[models.GameID]int, game models.GameID) (int, error) {
	code, ok := codes[game]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownGame, game)
	}
	return code, nil
}

// SourceFunc adapts a plain function to RankingSource
type SourceFunc func(ctx context.Context, game models.GameID, window models.TimeWindow) ([]models.RankEntry, error)

func (f SourceFunc) Fetch(ctx context.Context, game models.GameID, window models.TimeWindow) ([]models.RankEntry, error) {
	return f(ctx, game, window)
}
