package dashboard

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/countdown"
	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/refresh"
	"github.com/mcdev12/rankboard/go/internal/sources/base"
)

// ErrClosed is returned for window changes after Close
var ErrClosed = errors.New("dashboard closed")

// Anchor selects the value a countdown starts from
type Anchor string

const (
	// AnchorDuration starts the countdown at the full window length
	AnchorDuration Anchor = "duration"
	// AnchorNow starts the countdown at the seconds left until the window ends
	AnchorNow Anchor = "now"
)

// Config holds the dashboard settings
type Config struct {
	Games    []models.GameID
	Codes    map[models.GameID]int
	Location *time.Location
	Clock    clockwork.Clock
	Anchor   Anchor
	Refresh  refresh.Config
}

// State is a point-in-time view of the dashboard
type State struct {
	Active      bool             `json:"active"`
	WindowStart *time.Time       `json:"window_start,omitempty"`
	WindowEnd   *time.Time       `json:"window_end,omitempty"`
	Countdown   *countdown.State `json:"countdown,omitempty"`
	Rankings    *models.Snapshot `json:"rankings,omitempty"`
	Refresh     refresh.Stats    `json:"refresh"`
}

// Dashboard owns the active window and the countdown and refresh schedulers serving it.
// Applying a window replaces both schedulers; anything they emit after being replaced
// is discarded.
type Dashboard struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config
	source base.RankingSource

	// applyMu serializes window changes and guards closed; mu guards the fields below it
	applyMu sync.Mutex
	closed  bool

	mu        sync.Mutex
	sinks     []Sink
	gen       uint64
	window    models.TimeWindow
	countdown *countdown.Scheduler
	refresher *refresh.Scheduler
	lastTick  *countdown.State
	lastSnap  *models.Snapshot
}

// New creates an idle dashboard. The schedulers it starts live until Close or ctx is done.
func New(ctx context.Context, cfg Config, source base.RankingSource, sinks ...Sink) *Dashboard {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if len(cfg.Games) == 0 {
		cfg.Games = models.DefaultGames
	}
	if cfg.Codes == nil {
		cfg.Codes = models.DefaultGameCodes
	}
	if cfg.Anchor == "" {
		cfg.Anchor = AnchorDuration
	}
	cfg.Refresh.Codes = cfg.Codes
	cfg.Refresh.Clock = cfg.Clock

	ctx, cancel := context.WithCancel(ctx)
	return &Dashboard{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		source: source,
		sinks:  sinks,
	}
}

// AddSink registers another receiver for dashboard updates
func (d *Dashboard) AddSink(sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, sink)
}

// ApplyWindow parses date and clock inputs in the configured location and applies the
// resulting window. Invalid input is rejected before anything changes.
func (d *Dashboard) ApplyWindow(date, start, end string) (models.TimeWindow, error) {
	window, err := models.ParseWindow(date, start, end, d.cfg.Location)
	if err != nil {
		return models.TimeWindow{}, err
	}
	if err := d.Apply(window); err != nil {
		return models.TimeWindow{}, err
	}
	return window, nil
}

// Apply makes window the active window, restarting the countdown and the refresh loop
func (d *Dashboard) Apply(window models.TimeWindow) error {
	d.applyMu.Lock()
	defer d.applyMu.Unlock()
	if d.closed {
		return ErrClosed
	}

	d.mu.Lock()
	d.stopLocked()
	d.gen++
	gen := d.gen
	d.window = window
	cd := countdown.NewScheduler(d.cfg.Clock, func(st countdown.State) { d.onCountdown(gen, st) })
	rf := refresh.NewScheduler(d.cfg.Refresh, func(snap models.Snapshot) { d.onRankings(gen, snap) })
	d.countdown = cd
	d.refresher = rf
	sinks := slices.Clone(d.sinks)
	d.mu.Unlock()

	log.Info().
		Uint64("generation", gen).
		Str("window", window.String()).
		Msg("applying window")

	for _, s := range sinks {
		s.WindowApplied(window)
	}

	cd.Start(d.initialSeconds(window))
	rf.Start(d.ctx, window, d.source, d.cfg.Games)
	return nil
}

// Reset stops both schedulers and clears the active window. It does nothing after Close.
func (d *Dashboard) Reset() {
	d.applyMu.Lock()
	defer d.applyMu.Unlock()
	if d.closed {
		return
	}

	d.mu.Lock()
	d.stopLocked()
	d.gen++
	d.window = models.TimeWindow{}
	sinks := slices.Clone(d.sinks)
	d.mu.Unlock()

	log.Info().Msg("window reset")
	for _, s := range sinks {
		s.WindowReset()
	}
}

// State returns the active window with the latest countdown and rankings
func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.window.IsZero() {
		return State{}
	}
	start, end := d.window.Start(), d.window.End()
	st := State{
		Active:      true,
		WindowStart: &start,
		WindowEnd:   &end,
		Countdown:   d.lastTick,
		Rankings:    d.lastSnap,
	}
	if d.refresher != nil {
		st.Refresh = d.refresher.Stats()
	}
	return st
}

// Window returns the active window; the zero window when none is applied
func (d *Dashboard) Window() models.TimeWindow {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.window
}

// Close stops the schedulers and clears the window. Later applies fail with ErrClosed.
func (d *Dashboard) Close() {
	d.applyMu.Lock()
	defer d.applyMu.Unlock()
	if d.closed {
		return
	}
	d.closed = true

	d.mu.Lock()
	d.stopLocked()
	d.gen++
	d.window = models.TimeWindow{}
	d.mu.Unlock()
	d.cancel()
}

func (d *Dashboard) initialSeconds(window models.TimeWindow) int {
	if d.cfg.Anchor == AnchorNow {
		return max(window.RemainingSeconds(d.cfg.Clock.Now()), 0)
	}
	return window.DurationSeconds()
}

func (d *Dashboard) stopLocked() {
	if d.countdown != nil {
		d.countdown.Stop()
		d.countdown = nil
	}
	if d.refresher != nil {
		d.refresher.Stop()
		d.refresher = nil
	}
	d.lastTick = nil
	d.lastSnap = nil
}

func (d *Dashboard) onCountdown(gen uint64, st countdown.State) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.lastTick = &st
	sinks := slices.Clone(d.sinks)
	d.mu.Unlock()

	for _, s := range sinks {
		s.CountdownUpdated(st)
	}
}

func (d *Dashboard) onRankings(gen uint64, snap models.Snapshot) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		log.Debug().Uint64("generation", gen).Msg("discarding rankings from a replaced window")
		return
	}
	d.lastSnap = &snap
	sinks := slices.Clone(d.sinks)
	d.mu.Unlock()

	for _, s := range sinks {
		s.RankingsPublished(snap)
	}
}
