package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/rankboard/go/internal/countdown"
	"github.com/mcdev12/rankboard/go/internal/models"
	"github.com/mcdev12/rankboard/go/internal/sources/base"
	"github.com/mcdev12/rankboard/go/internal/sources/mock"
)

type recordingSink struct {
	mu      sync.Mutex
	applied []models.TimeWindow
	ticks   []countdown.State
	snaps   []models.Snapshot
	resets  int
}

func (r *recordingSink) WindowApplied(w models.TimeWindow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, w)
}

func (r *recordingSink) CountdownUpdated(st countdown.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, st)
}

func (r *recordingSink) RankingsPublished(snap models.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recordingSink) WindowReset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

func (r *recordingSink) tickCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticks)
}

func (r *recordingSink) snapCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recordingSink) lastTick() countdown.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks[len(r.ticks)-1]
}

func newTestDashboard(t *testing.T, source base.RankingSource) (*Dashboard, *recordingSink, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 4, 9, 0, 0, 0, time.UTC))
	sink := &recordingSink{}
	d := New(context.Background(), Config{Location: time.UTC, Clock: clock}, source, sink)
	t.Cleanup(d.Close)
	return d, sink, clock
}

func mockSource() base.RankingSource {
	return mock.NewSource(models.DefaultGameCodes, mock.DefaultTable())
}

func TestApplyWindow_StartsCountdownAndRefresh(t *testing.T) {
	d, sink, _ := newTestDashboard(t, mockSource())

	w, err := d.ApplyWindow("2025-11-04", "10:00", "11:00")
	require.NoError(t, err)
	assert.Equal(t, 3600, w.DurationSeconds())

	require.Len(t, sink.applied, 1)
	require.GreaterOrEqual(t, sink.tickCount(), 1)
	first := sink.ticks[0]
	assert.Equal(t, 3600, first.Remaining)
	assert.Equal(t, "01:00:00", first.Display)

	require.Eventually(t, func() bool { return sink.snapCount() == 1 }, time.Second, 5*time.Millisecond)
	snap := sink.snaps[0]
	assert.Equal(t, w.Start(), snap.WindowStart)
	require.NotEmpty(t, snap.Combined)
	assert.Equal(t, "BlueFox", snap.Combined[0].Participant)

	st := d.State()
	assert.True(t, st.Active)
	require.NotNil(t, st.Rankings)
	require.NotNil(t, st.Countdown)
	assert.Equal(t, w.End(), *st.WindowEnd)
}

func TestApplyWindow_CountsDownOnTicks(t *testing.T) {
	d, sink, clock := newTestDashboard(t, mockSource())

	_, err := d.ApplyWindow("2025-11-04", "10:00", "10:01")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 2))

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return sink.tickCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 59, sink.lastTick().Remaining)
	assert.Equal(t, "00:00:59", sink.lastTick().Display)
}

func TestApplyWindow_RejectsWithoutSideEffects(t *testing.T) {
	d, sink, _ := newTestDashboard(t, mockSource())

	cases := []struct {
		name             string
		date, start, end string
		want             error
	}{
		{"missing date", "", "10:00", "11:00", models.ErrMissingInput},
		{"missing end", "2025-11-04", "10:00", " ", models.ErrMissingInput},
		{"malformed clock", "2025-11-04", "ten", "11:00", models.ErrMalformedInput},
		{"end before start", "2025-11-04", "11:00", "10:00", models.ErrInvalidWindow},
		{"empty window", "2025-11-04", "10:00", "10:00", models.ErrInvalidWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.ApplyWindow(tc.date, tc.start, tc.end)
			require.ErrorIs(t, err, tc.want)
		})
	}

	assert.False(t, d.State().Active)
	assert.Empty(t, sink.applied)
	assert.Zero(t, sink.tickCount())
}

func TestApplyWindow_RejectionKeepsActiveWindow(t *testing.T) {
	d, sink, _ := newTestDashboard(t, mockSource())

	w, err := d.ApplyWindow("2025-11-04", "10:00", "11:00")
	require.NoError(t, err)

	_, err = d.ApplyWindow("2025-11-04", "12:00", "11:00")
	require.ErrorIs(t, err, models.ErrInvalidWindow)

	assert.True(t, d.Window().Equal(w))
	assert.Len(t, sink.applied, 1)
}

func TestApply_DiscardsResultsFromReplacedWindow(t *testing.T) {
	first, err := models.NewTimeWindow(
		time.Date(2025, 11, 4, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 4, 11, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	second, err := models.NewTimeWindow(
		time.Date(2025, 11, 4, 12, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 4, 12, 30, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	release := make(chan struct{})
	var entered, returned sync.WaitGroup
	entered.Add(len(models.DefaultGames))
	returned.Add(len(models.DefaultGames))
	inner := mockSource()
	source := base.SourceFunc(func(ctx context.Context, game models.GameID, w models.TimeWindow) ([]models.RankEntry, error) {
		if w.Equal(first) {
			defer returned.Done()
			entered.Done()
			<-release
		}
		return inner.Fetch(ctx, game, w)
	})

	d, sink, _ := newTestDashboard(t, source)
	require.NoError(t, d.Apply(first))
	entered.Wait()
	require.NoError(t, d.Apply(second))

	require.Eventually(t, func() bool { return sink.snapCount() == 1 }, time.Second, 5*time.Millisecond)

	close(release)
	returned.Wait()

	assert.Never(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		for _, s := range sink.snaps {
			if s.WindowStart.Equal(first.Start()) {
				return true
			}
		}
		return false
	}, 100*time.Millisecond, 5*time.Millisecond)

	st := d.State()
	require.NotNil(t, st.Rankings)
	assert.Equal(t, second.Start(), st.Rankings.WindowStart)

	// Countdown restarted at the new window's length
	assert.Equal(t, 1800, sink.lastTick().Remaining)
}

func TestReset_StopsEverything(t *testing.T) {
	d, sink, clock := newTestDashboard(t, mockSource())

	_, err := d.ApplyWindow("2025-11-04", "10:00", "11:00")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sink.snapCount() == 1 }, time.Second, 5*time.Millisecond)

	d.Reset()
	assert.False(t, d.State().Active)
	assert.True(t, d.Window().IsZero())
	assert.Equal(t, 1, sink.resets)

	ticks, snaps := sink.tickCount(), sink.snapCount()
	clock.Advance(10 * time.Second)
	assert.Never(t, func() bool {
		return sink.tickCount() != ticks || sink.snapCount() != snaps
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestAnchorNow_StartsFromRemaining(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 11, 4, 10, 15, 0, 0, time.UTC))
	sink := &recordingSink{}
	d := New(context.Background(), Config{Location: time.UTC, Clock: clock, Anchor: AnchorNow}, mockSource(), sink)
	defer d.Close()

	_, err := d.ApplyWindow("2025-11-04", "10:00", "11:00")
	require.NoError(t, err)
	assert.Equal(t, 45*60, sink.ticks[0].Remaining)

	_, err = d.ApplyWindow("2025-11-04", "08:00", "09:00")
	require.NoError(t, err)
	assert.Equal(t, 0, sink.lastTick().Remaining)
}

func TestAddSink(t *testing.T) {
	d, _, _ := newTestDashboard(t, mockSource())
	extra := &recordingSink{}
	d.AddSink(extra)

	_, err := d.ApplyWindow("2025-11-04", "10:00", "11:00")
	require.NoError(t, err)
	assert.Len(t, extra.applied, 1)
	assert.Equal(t, 1, extra.tickCount())
}

func TestClose_RejectsLaterWindows(t *testing.T) {
	d, sink, clock := newTestDashboard(t, mockSource())

	_, err := d.ApplyWindow("2025-11-04", "10:00", "11:00")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sink.snapCount() == 1 }, time.Second, 5*time.Millisecond)

	d.Close()
	d.Close()
	assert.False(t, d.State().Active)

	_, err = d.ApplyWindow("2025-11-04", "12:00", "13:00")
	require.ErrorIs(t, err, ErrClosed)
	d.Reset()

	ticks, snaps := sink.tickCount(), sink.snapCount()
	clock.Advance(10 * time.Second)
	assert.Never(t, func() bool {
		return sink.tickCount() != ticks || sink.snapCount() != snaps
	}, 50*time.Millisecond, 5*time.Millisecond)
	assert.False(t, d.State().Active)
	assert.Len(t, sink.applied, 1)
	assert.Zero(t, sink.resets)
}
