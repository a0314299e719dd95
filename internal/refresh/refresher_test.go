package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjellrichard/bygolf-portal/internal/models"
	"github.com/kjellrichard/bygolf-portal/internal/view"
)

type fakeFetcher struct {
	mu       sync.Mutex
	calls    int
	bookings []models.Booking
	err      error
	windows  [][2]time.Time
}

func (f *fakeFetcher) FetchBookings(_ context.Context, _ string, start, end time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.windows = append(f.windows, [2]time.Time{start, end})
	return f.bookings, f.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) set(bookings []models.Booking, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = bookings
	f.err = err
}

func newTestRefresher(fetcher *fakeFetcher, cfg Config) (*Refresher, *view.State) {
	state := view.NewState(view.ModeDay, time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local))
	r := New(cfg, state, fetcher, func() string { return "bearer-token" }, zerolog.Nop())
	return r, state
}

func TestRefreshNowReplacesBookings(t *testing.T) {
	fetcher := &fakeFetcher{bookings: []models.Booking{{ID: 1}, {ID: 2}}}
	r, state := newTestRefresher(fetcher, DefaultConfig())

	require.NoError(t, r.RefreshNow(context.Background()))

	snap := state.Snapshot()
	assert.Len(t, snap.Bookings, 2)
	assert.False(t, snap.Loading, "loading flag must be cleared afterwards")
	assert.NoError(t, snap.LastErr)

	// The fetch uses the state's resolved window.
	require.Len(t, fetcher.windows, 1)
	rng := state.Range()
	assert.True(t, fetcher.windows[0][0].Equal(rng.FetchStart))
	assert.True(t, fetcher.windows[0][1].Equal(rng.FetchEnd))
}

func TestRefreshNowKeepsBookingsOnError(t *testing.T) {
	fetcher := &fakeFetcher{bookings: []models.Booking{{ID: 1}}}
	r, state := newTestRefresher(fetcher, DefaultConfig())

	require.NoError(t, r.RefreshNow(context.Background()))
	require.Len(t, state.Snapshot().Bookings, 1)

	fetchErr := errors.New("upstream down")
	fetcher.set(nil, fetchErr)
	err := r.RefreshNow(context.Background())
	require.ErrorIs(t, err, fetchErr)

	snap := state.Snapshot()
	assert.Len(t, snap.Bookings, 1, "failed refresh must keep last known bookings")
	assert.Error(t, snap.LastErr)
}

func TestRefreshSkippedWithoutToken(t *testing.T) {
	fetcher := &fakeFetcher{}
	state := view.NewState(view.ModeDay, time.Now())
	r := New(DefaultConfig(), state, fetcher, func() string { return "" }, zerolog.Nop())

	require.NoError(t, r.RefreshNow(context.Background()))
	assert.Zero(t, fetcher.callCount(), "no fetch without a credential")
}

func TestSilentIntervalDrivesFetches(t *testing.T) {
	fetcher := &fakeFetcher{}
	r, _ := newTestRefresher(fetcher, Config{
		SilentInterval: 20 * time.Millisecond,
		MarkerInterval: time.Hour,
		FetchTimeout:   time.Second,
	})

	r.Start()
	defer r.Stop()

	assert.Eventually(t, func() bool { return fetcher.callCount() >= 2 },
		2*time.Second, 5*time.Millisecond, "interval ticks should keep fetching")
}

func TestWakeTriggersImmediateRefresh(t *testing.T) {
	fetcher := &fakeFetcher{}
	r, _ := newTestRefresher(fetcher, Config{
		SilentInterval: time.Hour, // only wakes can trigger fetches
		MarkerInterval: time.Hour,
		FetchTimeout:   time.Second,
	})

	var markerCalls int
	var markerMu sync.Mutex
	r.SetOnMarker(func(time.Time) {
		markerMu.Lock()
		markerCalls++
		markerMu.Unlock()
	})

	r.Start()
	defer r.Stop()

	r.Wake("focus")

	assert.Eventually(t, func() bool { return fetcher.callCount() == 1 },
		2*time.Second, 5*time.Millisecond)
	markerMu.Lock()
	assert.GreaterOrEqual(t, markerCalls, 1, "a wake also refreshes the time marker")
	markerMu.Unlock()
}

func TestWakesCoalesce(t *testing.T) {
	fetcher := &fakeFetcher{}
	r, _ := newTestRefresher(fetcher, Config{
		SilentInterval: time.Hour,
		MarkerInterval: time.Hour,
		FetchTimeout:   time.Second,
	})

	// Queue wakes before the loop starts; only one can be buffered.
	for i := 0; i < 10; i++ {
		r.Wake("visibility")
	}

	r.Start()
	defer r.Stop()

	assert.Eventually(t, func() bool { return fetcher.callCount() >= 1 },
		2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, fetcher.callCount(), "burst of wakes coalesces into one refresh")
}

func TestRescheduleRestartsSilentCadence(t *testing.T) {
	fetcher := &fakeFetcher{}
	r, _ := newTestRefresher(fetcher, Config{
		SilentInterval: 500 * time.Millisecond,
		MarkerInterval: time.Hour,
		FetchTimeout:   time.Second,
	})

	r.Start()
	defer r.Stop()

	// Part-way through the interval the window changes; the pending
	// tick phased off the old window must not fire.
	time.Sleep(350 * time.Millisecond)
	r.Reschedule()

	time.Sleep(250 * time.Millisecond)
	assert.Zero(t, fetcher.callCount(), "old ticker phase fired after a reschedule")

	// The cadence continues a full interval after the reschedule.
	assert.Eventually(t, func() bool { return fetcher.callCount() >= 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestRescheduleRestartsMarkerCadence(t *testing.T) {
	fetcher := &fakeFetcher{}
	r, _ := newTestRefresher(fetcher, Config{
		SilentInterval: time.Hour,
		MarkerInterval: 500 * time.Millisecond,
		FetchTimeout:   time.Second,
	})

	var mu sync.Mutex
	ticks := 0
	r.SetOnMarker(func(time.Time) {
		mu.Lock()
		ticks++
		mu.Unlock()
	})

	r.Start()
	defer r.Stop()

	time.Sleep(350 * time.Millisecond)
	r.Reschedule()

	time.Sleep(250 * time.Millisecond)
	mu.Lock()
	assert.Zero(t, ticks, "old marker phase fired after a reschedule")
	mu.Unlock()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMarkerLoopTicks(t *testing.T) {
	fetcher := &fakeFetcher{}
	r, _ := newTestRefresher(fetcher, Config{
		SilentInterval: time.Hour,
		MarkerInterval: 15 * time.Millisecond,
		FetchTimeout:   time.Second,
	})

	var mu sync.Mutex
	ticks := 0
	r.SetOnMarker(func(now time.Time) {
		mu.Lock()
		ticks++
		mu.Unlock()
		assert.False(t, now.IsZero())
	})

	r.Start()
	defer r.Stop()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStopTearsDownAndIsIdempotent(t *testing.T) {
	fetcher := &fakeFetcher{}
	r, _ := newTestRefresher(fetcher, Config{
		SilentInterval: 10 * time.Millisecond,
		MarkerInterval: 10 * time.Millisecond,
		FetchTimeout:   time.Second,
	})

	r.Start()
	assert.Eventually(t, func() bool { return fetcher.callCount() >= 1 },
		2*time.Second, 5*time.Millisecond)

	r.Stop()
	r.Stop() // second stop is a no-op

	after := fetcher.callCount()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, fetcher.callCount(), "no fetches after Stop")
}

func TestRefresherRestarts(t *testing.T) {
	fetcher := &fakeFetcher{}
	r, _ := newTestRefresher(fetcher, Config{
		SilentInterval: time.Hour,
		MarkerInterval: time.Hour,
		FetchTimeout:   time.Second,
	})

	r.Start()
	r.Stop()

	// A credential change stops and restarts the loops.
	r.Start()
	defer r.Stop()
	r.Wake("token_change")

	assert.Eventually(t, func() bool { return fetcher.callCount() >= 1 },
		2*time.Second, 5*time.Millisecond)
}
