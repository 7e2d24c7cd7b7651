package events

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/rankboard/go/internal/countdown"
	"github.com/mcdev12/rankboard/go/internal/models"
)

// Emitter delivers envelopes somewhere (WebSocket clients, a JetStream subject)
type Emitter interface {
	Emit(event *Event)
}

// Sink turns dashboard updates into envelopes and hands them to an Emitter
type Sink struct {
	emitter Emitter
	clock   clockwork.Clock
}

func NewSink(emitter Emitter, clock clockwork.Clock) *Sink {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sink{emitter: emitter, clock: clock}
}

func (s *Sink) WindowApplied(window models.TimeWindow) {
	s.emit(EventTypeWindowApplied, WindowAppliedPayload{
		Start:       window.Start(),
		End:         window.End(),
		DurationSec: window.DurationSeconds(),
	})
}

func (s *Sink) CountdownUpdated(state countdown.State) {
	s.emit(EventTypeCountdownTick, TickPayload(state))
}

func (s *Sink) RankingsPublished(snap models.Snapshot) {
	s.emit(EventTypeRankingsPublished, snap)
}

func (s *Sink) WindowReset() {
	s.emit(EventTypeWindowReset, WindowResetPayload{ResetAt: s.clock.Now().UTC()})
}

func (s *Sink) emit(eventType EventType, payload any) {
	event, err := NewEvent(eventType, payload, s.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to build event")
		return
	}
	s.emitter.Emit(event)
}

// TickPayload converts a countdown state to its wire form
func TickPayload(state countdown.State) CountdownTickPayload {
	return CountdownTickPayload{
		RemainingSec: state.Remaining,
		Display:      state.Display,
		Percent:      state.Percent,
		Offset:       state.Offset,
		Running:      state.Running,
	}
}
