package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// TickInterval is how often the countdown decrements
const TickInterval = time.Second

// Scheduler drives a once-per-second countdown from an initial value down to the terminal
// state at -1. It owns exactly one ticker; starting again replaces it.
type Scheduler struct {
	clock clockwork.Clock
	emit  func(State)

	mu        sync.Mutex
	gen       uint64
	remaining int
	running   bool
	cancel    context.CancelFunc
}

// NewScheduler creates a stopped scheduler. emit is called for every state, never concurrently
// with itself for the same run.
func NewScheduler(clock clockwork.Clock, emit func(State)) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if emit == nil {
		emit = func(State) {}
	}
	return &Scheduler{clock: clock, emit: emit, remaining: -1}
}

// Start cancels any running countdown, emits initialSeconds immediately and then
// emits once per tick until the terminal state has been emitted. A negative
// initialSeconds is already terminal: it is emitted once as -1 and no ticker starts.
func (s *Scheduler) Start(initialSeconds int) {
	s.mu.Lock()
	s.stopLocked()
	s.gen++
	gen := s.gen
	if initialSeconds < 0 {
		s.remaining = -1
		s.running = false
		s.mu.Unlock()

		log.Debug().Int("initial_seconds", initialSeconds).Uint64("gen", gen).Msg("countdown already finished")
		s.emit(NewState(-1))
		return
	}
	s.remaining = initialSeconds
	s.running = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	ticker := s.clock.NewTicker(TickInterval)
	s.mu.Unlock()

	log.Debug().Int("initial_seconds", initialSeconds).Uint64("gen", gen).Msg("countdown started")

	s.emit(NewState(initialSeconds))
	go s.run(ctx, gen, ticker)
}

// Stop cancels the countdown immediately. Calling it on a stopped scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Remaining reports the current counter; -1 once the terminal state was reached
func (s *Scheduler) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Running reports whether a countdown is ticking
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	s.running = false
	s.gen++
}

func (s *Scheduler) run(ctx context.Context, gen uint64, ticker clockwork.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}

		state, ok := s.tick(gen)
		if !ok {
			return
		}
		s.emit(state)
		if !state.Running {
			log.Debug().Uint64("gen", gen).Msg("countdown finished")
			return
		}
	}
}

// tick decrements the counter for run gen. Reaching a negative value ends the run;
// the terminal state is still returned so it is emitted once.
func (s *Scheduler) tick(gen uint64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return State{}, false
	}
	s.remaining--
	if s.remaining < 0 {
		s.stopLocked()
	}
	return NewState(s.remaining), true
}
