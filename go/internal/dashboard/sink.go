package dashboard

import (
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/countdown"
	"github.com/mcdev12/rankboard/go/internal/models"
)

// Sink receives dashboard updates. Implementations must not block for long:
// they are called from the countdown and refresh goroutines.
type Sink interface {
	WindowApplied(window models.TimeWindow)
	CountdownUpdated(state countdown.State)
	RankingsPublished(snap models.Snapshot)
	WindowReset()
}

// LogSink writes dashboard updates to the global logger
type LogSink struct{}

func (LogSink) WindowApplied(window models.TimeWindow) {
	log.Info().
		Time("start", window.Start()).
		Time("end", window.End()).
		Int("duration_sec", window.DurationSeconds()).
		Msg("window applied")
}

func (LogSink) CountdownUpdated(state countdown.State) {
	if !state.Running {
		log.Info().Msg("countdown finished")
		return
	}
	log.Debug().Str("remaining", state.Display).Msg("countdown tick")
}

func (LogSink) RankingsPublished(snap models.Snapshot) {
	ev := log.Info().Int("games", len(snap.Games)).Int("participants", len(snap.Combined))
	if len(snap.Combined) > 0 {
		ev = ev.Str("leader", snap.Combined[0].Participant).Int("leader_points", snap.Combined[0].TotalPoints)
	}
	ev.Msg("rankings published")
}

func (LogSink) WindowReset() {
	log.Info().Msg("window reset")
}
