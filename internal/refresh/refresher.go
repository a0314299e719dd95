// Package refresh drives the calendar's background update cadences:
// a silent booking re-fetch every 30 seconds and a current-time marker
// recompute every 60 seconds, both also woken by host events (window
// focus, visibility regained). Teardown is guaranteed; Stop leaves no
// running goroutines or tickers behind.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kjellrichard/bygolf-portal/internal/metrics"
	"github.com/kjellrichard/bygolf-portal/internal/models"
	"github.com/kjellrichard/bygolf-portal/internal/view"
)

// Fetcher is the booking fetch capability the refresher depends on.
type Fetcher interface {
	FetchBookings(ctx context.Context, bearer string, start, end time.Time) ([]models.Booking, error)
}

// TokenSource returns the current bearer credential, or "" when the
// host has none yet.
type TokenSource func() string

// Config holds the two refresh cadences.
type Config struct {
	// SilentInterval is how often bookings are silently re-fetched.
	SilentInterval time.Duration
	// MarkerInterval is how often the current-time marker is recomputed.
	MarkerInterval time.Duration
	// FetchTimeout bounds one whole window fetch.
	FetchTimeout time.Duration
}

// DefaultConfig returns the cadences the calendar UI historically used.
func DefaultConfig() Config {
	return Config{
		SilentInterval: 30 * time.Second,
		MarkerInterval: time.Minute,
		FetchTimeout:   time.Minute,
	}
}

// Refresher owns the periodic refresh loops for one view state.
type Refresher struct {
	cfg     Config
	state   *view.State
	fetcher Fetcher
	tokens  TokenSource
	logger  zerolog.Logger

	// onMarker is invoked on every marker tick and wake with the
	// current instant; the host recomputes marker geometry from it.
	onMarker func(now time.Time)

	wakeCh            chan string
	rescheduleRefresh chan struct{}
	rescheduleMarker  chan struct{}
	stopCh            chan struct{}
	wg                sync.WaitGroup
	mu                sync.Mutex
	running           bool
}

// New creates a refresher for the given state and fetcher.
func New(cfg Config, state *view.State, fetcher Fetcher, tokens TokenSource, logger zerolog.Logger) *Refresher {
	if cfg.SilentInterval <= 0 {
		cfg.SilentInterval = DefaultConfig().SilentInterval
	}
	if cfg.MarkerInterval <= 0 {
		cfg.MarkerInterval = DefaultConfig().MarkerInterval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}
	return &Refresher{
		cfg:     cfg,
		state:   state,
		fetcher: fetcher,
		tokens:  tokens,
		logger:  logger,
		wakeCh:            make(chan string, 1),
		rescheduleRefresh: make(chan struct{}, 1),
		rescheduleMarker:  make(chan struct{}, 1),
		stopCh:            make(chan struct{}),
	}
}

// SetOnMarker registers the marker-tick callback. Must be called
// before Start.
func (r *Refresher) SetOnMarker(fn func(now time.Time)) {
	r.onMarker = fn
}

// Start launches the refresh and marker loops.
func (r *Refresher) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	// Recreated so a refresher can be restarted after a credential or
	// window change tore it down.
	r.stopCh = make(chan struct{})
	stop := r.stopCh
	r.mu.Unlock()

	r.wg.Add(2)
	go r.refreshLoop(stop)
	go r.markerLoop(stop)

	r.logger.Info().
		Dur("silent_interval", r.cfg.SilentInterval).
		Dur("marker_interval", r.cfg.MarkerInterval).
		Msg("refresh loops started")
}

// Stop tears both loops down and waits until they have exited.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info().Msg("refresh loops stopped")
}

// Wake requests an out-of-band silent refresh, as on window focus or
// visibility regained. Concurrent wakes coalesce: a wake arriving while
// one is already queued is dropped, so redundant triggers never pile up.
func (r *Refresher) Wake(trigger string) {
	// Focus and visibility also refresh the marker immediately.
	if r.onMarker != nil {
		r.onMarker(time.Now())
	}
	select {
	case r.wakeCh <- trigger:
	default:
	}
}

// Reschedule restarts both cadences from now, as when the display
// window changes: the next silent refresh and the next marker tick
// each happen a full period from now, so a stale tick phased off the
// old window never fires right after the change.
func (r *Refresher) Reschedule() {
	select {
	case r.rescheduleRefresh <- struct{}{}:
	default:
	}
	select {
	case r.rescheduleMarker <- struct{}{}:
	default:
	}
}

// RefreshNow runs a foreground (non-silent) refresh: the loading flag
// toggles and the error, if any, is returned to the caller. Used by
// the manual reload action.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	r.state.SetLoading(true)
	defer r.state.SetLoading(false)
	return r.refresh(ctx, "manual")
}

func (r *Refresher) refreshLoop(stop <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.SilentInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.silentRefresh("interval")
		case trigger := <-r.wakeCh:
			r.silentRefresh(trigger)
			// A wake counts as a refresh; restart the cadence from it.
			ticker.Reset(r.cfg.SilentInterval)
		case <-r.rescheduleRefresh:
			ticker.Reset(r.cfg.SilentInterval)
		}
	}
}

func (r *Refresher) markerLoop(stop <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.MarkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if r.onMarker != nil {
				r.onMarker(time.Now())
			}
		case <-r.rescheduleMarker:
			ticker.Reset(r.cfg.MarkerInterval)
		}
	}
}

func (r *Refresher) silentRefresh(trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.FetchTimeout)
	defer cancel()

	if err := r.refresh(ctx, trigger); err != nil {
		r.logger.Warn().Err(err).Str("trigger", trigger).Msg("silent refresh failed; keeping last known bookings")
	}
}

// refresh runs one fetch cycle and swaps the result into the state
// wholesale. Overlapping cycles are not cancelled; the later response
// wins because the booking set is replaced, never merged.
func (r *Refresher) refresh(ctx context.Context, trigger string) error {
	bearer := r.tokens()
	if bearer == "" {
		metrics.IncRefresh(trigger, "no_token")
		return nil
	}

	cycle := uuid.NewString()
	rng := r.state.Range()

	bookings, err := r.fetcher.FetchBookings(ctx, bearer, rng.FetchStart, rng.FetchEnd)
	r.state.ApplyResult(bookings, err)

	if err != nil {
		metrics.IncRefresh(trigger, "error")
		return err
	}

	metrics.IncRefresh(trigger, "ok")
	metrics.SetVisibleBookings(len(bookings))
	r.logger.Debug().
		Str("cycle", cycle).
		Str("trigger", trigger).
		Time("fetch_start", rng.FetchStart).
		Time("fetch_end", rng.FetchEnd).
		Int("bookings", len(bookings)).
		Msg("refresh cycle complete")
	return nil
}
