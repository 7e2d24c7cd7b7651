package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/dashboard"
)

type Status struct {
	Healthy           bool      `json:"healthy"`
	WindowActive      bool      `json:"window_active"`
	LastRefresh       time.Time `json:"last_refresh,omitzero"`
	RefreshSucceeded  uint64    `json:"refresh_succeeded"`
	RefreshFailed     uint64    `json:"refresh_failed"`
	DatabaseConnected *bool     `json:"database_connected,omitempty"`
	NATSConnected     *bool     `json:"nats_connected,omitempty"`
	Displays          int       `json:"displays"`
	Errors            []string  `json:"errors"`
}

// Pinger is anything that can check its backing store
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker reports whether a message broker connection is up
type ConnChecker interface {
	IsConnected() bool
}

// StateProvider exposes the dashboard state
type StateProvider interface {
	State() dashboard.State
}

// DisplayCounter reports how many displays are connected
type DisplayCounter func() int

type Checker struct {
	state     StateProvider
	db        Pinger
	nats      ConnChecker
	displays  DisplayCounter
	clock     clockwork.Clock
	threshold time.Duration // How long without a successful refresh before unhealthy
}

type Option func(*Checker)

func WithDatabase(db Pinger) Option { return func(c *Checker) { c.db = db } }
func WithNATS(nc ConnChecker) Option { return func(c *Checker) { c.nats = nc } }
func WithDisplays(fn DisplayCounter) Option { return func(c *Checker) { c.displays = fn } }
func WithClock(clock clockwork.Clock) Option { return func(c *Checker) { c.clock = clock } }

func NewChecker(state StateProvider, threshold time.Duration, opts ...Option) *Checker {
	c := &Checker{
		state:     state,
		clock:     clockwork.NewRealClock(),
		threshold: threshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checker) Check(ctx context.Context) Status {
	status := Status{
		Healthy: true,
		Errors:  []string{},
	}

	st := c.state.State()
	status.WindowActive = st.Active
	status.LastRefresh = st.Refresh.LastSuccess
	status.RefreshSucceeded = st.Refresh.Succeeded
	status.RefreshFailed = st.Refresh.Failed

	if c.db != nil {
		connected := true
		if err := c.db.Ping(ctx); err != nil {
			connected = false
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		}
		status.DatabaseConnected = &connected
	}

	if c.nats != nil {
		connected := c.nats.IsConnected()
		if !connected {
			status.Healthy = false
			status.Errors = append(status.Errors, "NATS disconnected")
		}
		status.NATSConnected = &connected
	}

	if c.displays != nil {
		status.Displays = c.displays()
	}

	// A failing source only matters once refreshes have been failing for a while
	if failing := st.Refresh.FailingSince; st.Active && !failing.IsZero() && c.threshold > 0 {
		if since := c.clock.Since(failing); since > c.threshold {
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("refresh failing for %s: %s", since, st.Refresh.LastError))
		}
	}

	return status
}

func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := c.Check(ctx)

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to encode health status")
	}
}

// PrometheusExporter renders the health status in the Prometheus text format
type PrometheusExporter struct {
	checker *Checker
}

func NewPrometheusExporter(checker *Checker) *PrometheusExporter {
	return &PrometheusExporter{checker: checker}
}

func (e *PrometheusExporter) Export(ctx context.Context) string {
	status := e.checker.Check(ctx)

	return fmt.Sprintf(`# HELP rankboard_healthy Whether the dashboard is healthy
# TYPE rankboard_healthy gauge
rankboard_healthy %d

# HELP rankboard_window_active Whether a window is applied
# TYPE rankboard_window_active gauge
rankboard_window_active %d

# HELP rankboard_refresh_succeeded_total Refresh cycles that published rankings for the current window
# TYPE rankboard_refresh_succeeded_total counter
rankboard_refresh_succeeded_total %d

# HELP rankboard_refresh_failed_total Refresh cycles skipped because a fetch failed
# TYPE rankboard_refresh_failed_total counter
rankboard_refresh_failed_total %d

# HELP rankboard_displays Connected dashboard displays
# TYPE rankboard_displays gauge
rankboard_displays %d
`,
		boolGauge(status.Healthy),
		boolGauge(status.WindowActive),
		status.RefreshSucceeded,
		status.RefreshFailed,
		status.Displays,
	)
}

func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if _, err := w.Write([]byte(e.Export(r.Context()))); err != nil {
		log.Error().Err(err).Msg("failed to write metrics")
	}
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}
