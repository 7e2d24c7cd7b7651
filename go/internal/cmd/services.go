package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/dashboard"
	"github.com/mcdev12/rankboard/go/internal/events"
	"github.com/mcdev12/rankboard/go/internal/gateway"
	"github.com/mcdev12/rankboard/go/internal/health"
	"github.com/mcdev12/rankboard/go/internal/rankingapi"
	"github.com/mcdev12/rankboard/go/internal/refresh"
	"github.com/mcdev12/rankboard/go/internal/sources/base"

	// Ranking sources register themselves with the base registry
	_ "github.com/mcdev12/rankboard/go/internal/sources/mock"
	_ "github.com/mcdev12/rankboard/go/internal/sources/postgres"
	_ "github.com/mcdev12/rankboard/go/internal/sources/remote"
)

type Services struct {
	Dashboard  *dashboard.Dashboard
	Gateway    *gateway.Service
	Publisher  *events.JetStreamPublisher
	RankingAPI *rankingapi.Handler
	Health     *health.Checker
	Metrics    *health.PrometheusExporter

	closers []func()
}

func setupServices(ctx context.Context, cfg *Config, r *resolved) (*Services, error) {
	// Wire up dependency chain
	// Source → Dashboard → Sinks (gateway, log, JetStream) → HTTP handlers
	s := &Services{}

	source, err := newSource(cfg.Source, r)
	if err != nil {
		return nil, err
	}
	s.addCloser(source)

	s.Dashboard = dashboard.New(ctx, dashboard.Config{
		Games:    r.games,
		Codes:    r.codes,
		Location: r.location,
		Anchor:   r.anchor,
		Refresh: refresh.Config{
			Interval:     cfg.Refresh.Interval,
			FetchTimeout: cfg.Refresh.FetchTimeout,
			Metrics:      refresh.LogMetricsCollector{},
		},
	}, source)
	s.closers = append(s.closers, s.Dashboard.Close)

	// Gateway
	s.Gateway = gateway.NewService(gateway.DefaultConfig(), s.Dashboard)
	s.Dashboard.AddSink(s.Gateway.Sink())

	if cfg.Sinks.Log {
		s.Dashboard.AddSink(dashboard.LogSink{})
	}

	// JetStream
	healthOpts := []health.Option{
		health.WithDisplays(func() int { return s.Gateway.GetStats().TotalConnections }),
	}
	if pinger, ok := source.(health.Pinger); ok {
		healthOpts = append(healthOpts, health.WithDatabase(pinger))
	}
	if cfg.NATS.Enabled {
		jsCfg := events.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		jsCfg.StreamName = cfg.NATS.Stream
		jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		jsCfg.MaxAge = cfg.NATS.MaxAge

		publisher, err := events.NewJetStreamPublisher(jsCfg)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
		}
		s.Publisher = publisher
		s.closers = append(s.closers, func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("failed to drain NATS connection")
			}
		})
		s.Dashboard.AddSink(events.NewSink(publisher, nil))
		healthOpts = append(healthOpts, health.WithNATS(publisher.Conn()))

		log.Info().
			Str("url", jsCfg.URL).
			Str("stream", jsCfg.StreamName).
			Msg("publishing dashboard events to JetStream")
	}

	// Ranking API
	if cfg.RankingAPI.Enabled {
		apiSource, err := newSource(cfg.RankingAPI.Source, r)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("ranking api: %w", err)
		}
		s.addCloser(apiSource)
		s.RankingAPI = rankingapi.NewHandler(apiSource, r.codes)
		if pinger, ok := apiSource.(health.Pinger); ok {
			healthOpts = append(healthOpts, health.WithDatabase(pinger))
		}
	}

	s.Health = health.NewChecker(s.Dashboard, cfg.Refresh.StaleAfter, healthOpts...)
	s.Metrics = health.NewPrometheusExporter(s.Health)

	return s, nil
}

func newSource(sc SourceConfig, r *resolved) (base.RankingSource, error) {
	source, err := base.NewSource(sc.Type, base.Config{Codes: r.codes, Settings: sc.Settings})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s source: %w", sc.Type, err)
	}
	log.Info().Str("source", sc.Type).Msg("ranking source ready")
	return source, nil
}

func (s *Services) addCloser(v any) {
	if c, ok := v.(interface{ Close() }); ok {
		s.closers = append(s.closers, c.Close)
	}
}

// Close releases everything in reverse setup order
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
