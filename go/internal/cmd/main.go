package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := loadConfig(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
		}
		log.Warn().Str("path", configPath).Msg("config file not found, using defaults")
		cfg = defaultConfig()
	}
	applyEnv(cfg)

	r, err := cfg.resolve()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(r.level)

	if err := run(cfg, r); err != nil {
		log.Fatal().Err(err).Msg("rankboard failed")
	}
	log.Info().Msg("rankboard shutdown complete")
}

func run(cfg *Config, r *resolved) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := setupServices(ctx, cfg, r)
	if err != nil {
		return err
	}
	defer services.Close()

	server := setupServer(cfg, services)

	log.Info().
		Str("port", cfg.Server.Port).
		Str("source", cfg.Source.Type).
		Str("location", r.location.String()).
		Int("games", len(r.games)).
		Bool("nats", cfg.NATS.Enabled).
		Bool("ranking_api", cfg.RankingAPI.Enabled).
		Msg("starting rankboard")

	if w := cfg.InitialWindow; w != nil {
		if _, err := services.Dashboard.ApplyWindow(w.Date, w.Start, w.End); err != nil {
			return fmt.Errorf("initial window: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		services.Gateway.Start(gctx)
		return nil
	})

	if services.Publisher != nil {
		g.Go(func() error {
			services.Publisher.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
