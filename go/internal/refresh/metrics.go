package refresh

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/models"
)

// MetricsCollector defines the interface for collecting refresh metrics
type MetricsCollector interface {
	RecordFetch(game models.GameID, success bool, duration time.Duration)
	RecordCycle(success bool, duration time.Duration)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordFetch(game models.GameID, success bool, duration time.Duration) {}
func (NoOpMetricsCollector) RecordCycle(success bool, duration time.Duration)                     {}

// LogMetricsCollector reports every measurement as a debug log line
type LogMetricsCollector struct{}

func (LogMetricsCollector) RecordFetch(game models.GameID, success bool, duration time.Duration) {
	log.Debug().
		Str("game", string(game)).
		Bool("success", success).
		Dur("duration", duration).
		Msg("ranking fetch")
}

func (LogMetricsCollector) RecordCycle(success bool, duration time.Duration) {
	log.Debug().
		Bool("success", success).
		Dur("duration", duration).
		Msg("refresh cycle")
}
