package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/rankboard/go/internal/dashboard"
	"github.com/mcdev12/rankboard/go/internal/events"
	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/refresh"
	"github.com/mcdev12/rankboard/go/internal/sources/mock"
	"github.com/mcdev12/rankboard/go/internal/sources/remote"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	LogLevel string       `yaml:"log_level"`
	Location string       `yaml:"location"`
	Games    []GameConfig `yaml:"games"`

	Countdown struct {
		Anchor string `yaml:"anchor"`
	} `yaml:"countdown"`

	Refresh struct {
		Interval     time.Duration `yaml:"interval"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		StaleAfter   time.Duration `yaml:"stale_after"`
	} `yaml:"refresh"`

	Source SourceConfig `yaml:"source"`

	// RankingAPI serves /api/ranking from its own source so remote sources have something to call
	RankingAPI struct {
		Enabled bool         `yaml:"enabled"`
		Source  SourceConfig `yaml:"source"`
	} `yaml:"ranking_api"`

	Sinks struct {
		Log bool `yaml:"log"`
	} `yaml:"sinks"`

	NATS struct {
		Enabled       bool          `yaml:"enabled"`
		URL           string        `yaml:"url"`
		Stream        string        `yaml:"stream"`
		SubjectPrefix string        `yaml:"subject_prefix"`
		MaxAge        time.Duration `yaml:"max_age"`
	} `yaml:"nats"`

	// InitialWindow, when set, is applied at startup
	InitialWindow *WindowConfig `yaml:"initial_window"`
}

type GameConfig struct {
	ID   string `yaml:"id"`
	Code int    `yaml:"code"`
}

type SourceConfig struct {
	Type     string            `yaml:"type"`
	Settings map[string]string `yaml:"settings"`
}

type WindowConfig struct {
	Date  string `yaml:"date"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.LogLevel = zerolog.LevelInfoValue
	cfg.Location = "Local"
	for _, game := range models.DefaultGames {
		cfg.Games = append(cfg.Games, GameConfig{ID: string(game), Code: models.DefaultGameCodes[game]})
	}
	cfg.Countdown.Anchor = string(dashboard.AnchorDuration)
	cfg.Refresh.Interval = refresh.DefaultInterval
	cfg.Refresh.FetchTimeout = refresh.DefaultFetchTimeout
	cfg.Refresh.StaleAfter = time.Minute
	cfg.Source.Type = mock.SourceKey
	cfg.RankingAPI.Source.Type = mock.SourceKey
	cfg.Sinks.Log = true

	js := events.DefaultJetStreamConfig()
	cfg.NATS.URL = js.URL
	cfg.NATS.Stream = js.StreamName
	cfg.NATS.SubjectPrefix = js.SubjectPrefix
	cfg.NATS.MaxAge = js.MaxAge
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadConfig reads path over the defaults; keys missing from the file keep their default
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// applyEnv lets the environment override the deployment-specific settings
func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.NATS.Enabled = getEnvAsBool("NATS_ENABLED", cfg.NATS.Enabled)
	if url := os.Getenv("RANKING_API_URL"); url != "" {
		if cfg.Source.Settings == nil {
			cfg.Source.Settings = make(map[string]string)
		}
		cfg.Source.Settings[remote.URLSetting] = url
	}
}

// resolved holds the validated, typed form of the game and location settings
type resolved struct {
	games    []models.GameID
	codes    map[models.GameID]int
	location *time.Location
	anchor   dashboard.Anchor
	level    zerolog.Level
}

func (c *Config) resolve() (*resolved, error) {
	if len(c.Games) == 0 {
		return nil, fmt.Errorf("at least one game must be configured")
	}

	r := &resolved{codes: make(map[models.GameID]int, len(c.Games))}
	for _, g := range c.Games {
		id, err := models.ParseGameID(g.ID)
		if err != nil {
			return nil, err
		}
		if _, dup := r.codes[id]; dup {
			return nil, fmt.Errorf("game %s configured twice", id)
		}
		if g.Code <= 0 {
			return nil, fmt.Errorf("game %s: code must be positive, got %d", id, g.Code)
		}
		r.games = append(r.games, id)
		r.codes[id] = g.Code
	}

	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", c.Location, err)
	}
	r.location = loc

	switch anchor := dashboard.Anchor(c.Countdown.Anchor); anchor {
	case dashboard.AnchorDuration, dashboard.AnchorNow:
		r.anchor = anchor
	default:
		return nil, fmt.Errorf("invalid countdown anchor %q", c.Countdown.Anchor)
	}

	if c.Refresh.Interval <= 0 || c.Refresh.FetchTimeout <= 0 {
		return nil, fmt.Errorf("refresh interval and fetch timeout must be positive")
	}

	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	r.level = level

	return r, nil
}
