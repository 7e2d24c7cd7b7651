package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/ranking"
	"github.com/mcdev12/rankboard/go/internal/sources/base"
)

const (
	// DefaultInterval is the time between two refresh cycles
	DefaultInterval = 5 * time.Second
	// DefaultFetchTimeout bounds one cycle's fetches
	DefaultFetchTimeout = 3 * time.Second
)

// Config holds the refresh scheduler settings
type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Codes        map[models.GameID]int
	Clock        clockwork.Clock
	Metrics      MetricsCollector
}

// Stats summarizes the cycles run since the scheduler was created
type Stats struct {
	Succeeded   uint64    `json:"succeeded"`
	Failed      uint64    `json:"failed"`
	LastSuccess time.Time `json:"last_success"`
	LastError   string    `json:"last_error,omitempty"`

	// FailingSince is when the current run of failed cycles began; zero after a success
	FailingSince time.Time `json:"failing_since,omitzero"`
}

// Scheduler runs one fetch-aggregate-publish cycle immediately and then on every interval
type Scheduler struct {
	cfg     Config
	publish func(models.Snapshot)

	mu     sync.Mutex
	cancel context.CancelFunc
	stats  Stats
}

// NewScheduler creates a stopped scheduler. publish receives every successful cycle's snapshot.
func NewScheduler(cfg Config, publish func(models.Snapshot)) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Codes == nil {
		cfg.Codes = models.DefaultGameCodes
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NoOpMetricsCollector{}
	}
	if publish == nil {
		publish = func(models.Snapshot) {}
	}
	return &Scheduler{cfg: cfg, publish: publish}
}

// Start cancels any previous schedule, then runs a cycle for window right away and one per
// interval until Stop. Fetches run under ctx, so Stop never aborts a cycle already in flight.
func (s *Scheduler) Start(ctx context.Context, window models.TimeWindow, source base.RankingSource, games []models.GameID) {
	games = append([]models.GameID(nil), games...)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	ticker := s.cfg.Clock.NewTicker(s.cfg.Interval)
	s.mu.Unlock()

	log.Info().
		Str("window", window.String()).
		Int("games", len(games)).
		Dur("interval", s.cfg.Interval).
		Msg("ranking refresh started")

	go s.run(loopCtx, context.WithoutCancel(ctx), ticker, window, source, games)
}

// Stop cancels future cycles. It is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		log.Debug().Msg("ranking refresh stopped")
	}
}

// Stats returns a copy of the cycle counters
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Scheduler) run(loopCtx, cycleCtx context.Context, ticker clockwork.Ticker, window models.TimeWindow, source base.RankingSource, games []models.GameID) {
	defer ticker.Stop()

	for {
		if loopCtx.Err() != nil {
			return
		}
		s.cycle(cycleCtx, window, source, games)

		select {
		case <-loopCtx.Done():
			return
		case <-ticker.Chan():
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context, window models.TimeWindow, source base.RankingSource, games []models.GameID) {
	started := s.cfg.Clock.Now()
	snap, err := s.RunCycle(ctx, window, source, games)
	s.cfg.Metrics.RecordCycle(err == nil, s.cfg.Clock.Since(started))

	s.mu.Lock()
	if err != nil {
		s.stats.Failed++
		s.stats.LastError = err.Error()
		if s.stats.FailingSince.IsZero() {
			s.stats.FailingSince = started
		}
	} else {
		s.stats.Succeeded++
		s.stats.LastSuccess = snap.PublishedAt
		s.stats.FailingSince = time.Time{}
	}
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("window", window.String()).Msg("refresh cycle failed, keeping previous rankings")
		return
	}
	s.publish(snap)
}

// RunCycle fetches every game, in the given order, and builds the snapshot. Any failed
// fetch fails the whole cycle; partial results are never aggregated.
func (s *Scheduler) RunCycle(ctx context.Context, window models.TimeWindow, source base.RankingSource, games []models.GameID) (models.Snapshot, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	lists := make([]models.GameList, len(games))
	g, gctx := errgroup.WithContext(fetchCtx)
	for i, game := range games {
		g.Go(func() error {
			started := s.cfg.Clock.Now()
			entries, err := source.Fetch(gctx, game, window)
			s.cfg.Metrics.RecordFetch(game, err == nil, s.cfg.Clock.Since(started))
			if err != nil {
				return fmt.Errorf("fetch game %s: %w", game, err)
			}
			lists[i] = models.GameList{Game: game, Entries: entries}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Snapshot{}, err
	}

	return models.Snapshot{
		WindowStart: window.Start(),
		WindowEnd:   window.End(),
		Games:       ranking.Rankings(lists, s.cfg.Codes),
		Combined:    ranking.Aggregate(lists),
		PublishedAt: s.cfg.Clock.Now(),
	}, nil
}
