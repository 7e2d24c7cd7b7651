package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/sources/base"
)

// scriptedSource answers from fixed lists and fails a game on chosen cycles (1-based)
type scriptedSource struct {
	mu     sync.Mutex
	calls  map[models.GameID]int
	lists  map[models.GameID][]models.RankEntry
	failOn map[models.GameID]map[int]error
}

func newScriptedSource() *scriptedSource {
	return &scriptedSource{
		calls: make(map[models.GameID]int),
		lists: map[models.GameID][]models.RankEntry{
			models.GameA: {{Participant: "Nero", TopScore: 500}},
			models.GameB: {{Participant: "BlueFox", TopScore: 600}},
			models.GameC: nil,
		},
		failOn: make(map[models.GameID]map[int]error),
	}
}

func (s *scriptedSource) fail(game models.GameID, call int, err error) {
	if s.failOn[game] == nil {
		s.failOn[game] = make(map[int]error)
	}
	s.failOn[game][call] = err
}

func (s *scriptedSource) Fetch(ctx context.Context, game models.GameID, window models.TimeWindow) ([]models.RankEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[game]++
	if err := s.failOn[game][s.calls[game]]; err != nil {
		return nil, err
	}
	return s.lists[game], nil
}

func (s *scriptedSource) callCount(game models.GameID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[game]
}

type countingMetrics struct {
	mu      sync.Mutex
	ok, bad int
	fetches int
}

func (m *countingMetrics) RecordFetch(models.GameID, bool, time.Duration) {
	m.mu.Lock()
	m.fetches++
	m.mu.Unlock()
}

func (m *countingMetrics) RecordCycle(success bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.ok++
	} else {
		m.bad++
	}
}

func testWindow(t *testing.T) models.TimeWindow {
	t.Helper()
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	w, err := models.NewTimeWindow(start, start.Add(time.Hour))
	require.NoError(t, err)
	return w
}

func nextSnapshot(t *testing.T, ch <-chan models.Snapshot) models.Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return models.Snapshot{}
	}
}

func requireNoSnapshot(t *testing.T, ch <-chan models.Snapshot) {
	t.Helper()
	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot: %+v", snap)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitTicker(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
}

func TestScheduler_PublishesImmediatelyThenEveryInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	snaps := make(chan models.Snapshot, 8)
	s := NewScheduler(Config{Clock: clock}, func(snap models.Snapshot) { snaps <- snap })
	t.Cleanup(s.Stop)
	src := newScriptedSource()
	w := testWindow(t)

	s.Start(context.Background(), w, src, models.DefaultGames)

	first := nextSnapshot(t, snaps)
	require.Equal(t, w.Start(), first.WindowStart)
	require.Len(t, first.Games, 3)
	require.Equal(t, models.GameA, first.Games[0].Game)
	require.Equal(t, 10102, first.Games[0].Code)
	require.Equal(t, "Nero", first.Combined[0].Participant)
	require.Equal(t, "BlueFox", first.Combined[1].Participant)

	waitTicker(t, clock)
	clock.Advance(DefaultInterval - time.Millisecond)
	requireNoSnapshot(t, snaps)
	clock.Advance(time.Millisecond)
	nextSnapshot(t, snaps)
	require.Equal(t, 2, src.callCount(models.GameC))
}

func TestScheduler_FailedFetchSkipsWholeCycle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	snaps := make(chan models.Snapshot, 8)
	metrics := &countingMetrics{}
	s := NewScheduler(Config{Clock: clock, Metrics: metrics}, func(snap models.Snapshot) { snaps <- snap })
	t.Cleanup(s.Stop)
	src := newScriptedSource()
	src.fail(models.GameB, 2, fmt.Errorf("%w: connection refused", base.ErrSourceUnavailable))

	s.Start(context.Background(), testWindow(t), src, models.DefaultGames)
	nextSnapshot(t, snaps)

	waitTicker(t, clock)
	clock.Advance(DefaultInterval)
	requireNoSnapshot(t, snaps)
	require.Eventually(t, func() bool { return s.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
	require.Contains(t, s.Stats().LastError, "fetch game B")
	require.Equal(t, clock.Now(), s.Stats().FailingSince)

	clock.Advance(DefaultInterval)
	nextSnapshot(t, snaps)
	require.Eventually(t, func() bool { return s.Stats().Succeeded == 2 }, time.Second, 5*time.Millisecond)
	require.True(t, s.Stats().FailingSince.IsZero())

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	require.Equal(t, 2, metrics.ok)
	require.Equal(t, 1, metrics.bad)
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	snaps := make(chan models.Snapshot, 8)
	s := NewScheduler(Config{Clock: clock}, func(snap models.Snapshot) { snaps <- snap })

	s.Stop()
	s.Start(context.Background(), testWindow(t), newScriptedSource(), models.DefaultGames)
	nextSnapshot(t, snaps)
	s.Stop()
	s.Stop()

	clock.Advance(DefaultInterval)
	clock.Advance(DefaultInterval)
	requireNoSnapshot(t, snaps)
}

func TestScheduler_StopDoesNotAbortInFlightCycle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	snaps := make(chan models.Snapshot, 8)
	s := NewScheduler(Config{Clock: clock}, func(snap models.Snapshot) { snaps <- snap })

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	src := base.SourceFunc(func(ctx context.Context, game models.GameID, w models.TimeWindow) ([]models.RankEntry, error) {
		once.Do(func() { close(entered) })
		select {
		case <-release:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	s.Start(context.Background(), testWindow(t), src, []models.GameID{models.GameA})
	<-entered
	s.Stop()
	close(release)

	snap := nextSnapshot(t, snaps)
	require.Len(t, snap.Games, 1)
	requireNoSnapshot(t, snaps)
}

func TestRunCycle_FetchTimeout(t *testing.T) {
	s := NewScheduler(Config{FetchTimeout: 20 * time.Millisecond}, nil)
	src := base.SourceFunc(func(ctx context.Context, game models.GameID, w models.TimeWindow) ([]models.RankEntry, error) {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %v", base.ErrSourceTimeout, ctx.Err())
	})

	_, err := s.RunCycle(context.Background(), testWindow(t), src, models.DefaultGames)
	require.ErrorIs(t, err, base.ErrSourceTimeout)
}

func TestRunCycle_KeepsConfiguredGameOrder(t *testing.T) {
	s := NewScheduler(Config{}, nil)
	src := newScriptedSource()
	order := []models.GameID{models.GameC, models.GameB, models.GameA}

	snap, err := s.RunCycle(context.Background(), testWindow(t), src, order)
	require.NoError(t, err)
	require.Equal(t, models.GameC, snap.Games[0].Game)
	require.Equal(t, models.GameA, snap.Games[2].Game)
	// BlueFox is seen first when B precedes A, so it wins the tie
	require.Equal(t, "BlueFox", snap.Combined[0].Participant)
	require.Equal(t, "Nero", snap.Combined[1].Participant)
}

func TestRunCycle_PropagatesSourceError(t *testing.T) {
	s := NewScheduler(Config{}, nil)
	src := newScriptedSource()
	boom := errors.New("boom")
	src.fail(models.GameA, 1, boom)

	_, err := s.RunCycle(context.Background(), testWindow(t), src, models.DefaultGames)
	require.ErrorIs(t, err, boom)
}

func TestScheduler_FailingSinceMarksFirstFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(Config{Clock: clock}, nil)
	t.Cleanup(s.Stop)
	src := newScriptedSource()
	src.fail(models.GameA, 1, base.ErrSourceTimeout)
	src.fail(models.GameA, 2, base.ErrSourceTimeout)

	startedAt := clock.Now()
	s.Start(context.Background(), testWindow(t), src, models.DefaultGames)
	require.Eventually(t, func() bool { return s.Stats().Failed == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, s.Stats().LastSuccess.IsZero())
	require.Equal(t, startedAt, s.Stats().FailingSince)

	waitTicker(t, clock)
	clock.Advance(DefaultInterval)
	require.Eventually(t, func() bool { return s.Stats().Failed == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, startedAt, s.Stats().FailingSince)
}
