package view

import (
	"sync"
	"time"

	"github.com/kjellrichard/bygolf-portal/internal/models"
)

// State is the single source of truth for what the calendar shows.
// Every derived structure (ranges, buckets, geometry) is recomputed
// from a Snapshot; nothing is patched incrementally.
type State struct {
	mu sync.Mutex

	mode        Mode
	anchor      time.Time
	endOverride time.Time

	bookings   []models.Booking
	bayOptions map[int64]string

	loading   bool
	lastErr   error
	updatedAt time.Time
}

// Snapshot is an immutable copy of the view state.
type Snapshot struct {
	Mode        Mode
	Anchor      time.Time
	EndOverride time.Time
	Bookings    []models.Booking
	BayOptions  map[int64]string
	Loading     bool
	LastErr     error
	UpdatedAt   time.Time
}

// NewState creates a view state anchored on the given date.
func NewState(mode Mode, anchor time.Time) *State {
	return &State{
		mode:        mode,
		anchor:      anchor,
		endOverride: ComputedEnd(mode, anchor),
		bayOptions:  map[int64]string{},
	}
}

// Snapshot returns a copy safe to derive from without holding locks.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings := make([]models.Booking, len(s.bookings))
	copy(bookings, s.bookings)
	options := make(map[int64]string, len(s.bayOptions))
	for id, name := range s.bayOptions {
		options[id] = name
	}

	return Snapshot{
		Mode:        s.mode,
		Anchor:      s.anchor,
		EndOverride: s.endOverride,
		Bookings:    bookings,
		BayOptions:  options,
		Loading:     s.loading,
		LastErr:     s.lastErr,
		UpdatedAt:   s.updatedAt,
	}
}

// Range resolves the current fetch/display window.
func (s *State) Range() Range {
	s.mu.Lock()
	mode, anchor, end := s.mode, s.anchor, s.endOverride
	s.mu.Unlock()
	return ResolveRange(mode, anchor, end)
}

// SetMode switches the view mode and resets the end-date override to
// the mode's natural end, mirroring the calendar mode buttons.
func (s *State) SetMode(mode Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.endOverride = ComputedEnd(mode, s.anchor)
}

// SetAnchor moves the anchor date and recomputes the end override for
// the current mode.
func (s *State) SetAnchor(anchor time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchor = anchor
	s.endOverride = ComputedEnd(s.mode, anchor)
}

// SetEndOverride records an explicit end date. ResolveRange ignores it
// unless it widens the window.
func (s *State) SetEndOverride(end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endOverride = end
}

// StepDay moves the anchor by delta days.
func (s *State) StepDay(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anchor = s.anchor.AddDate(0, 0, delta)
	s.endOverride = ComputedEnd(s.mode, s.anchor)
}

// SetLoading toggles the visible loading flag. Silent refreshes never
// touch it.
func (s *State) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// SetBayOptions replaces the resource-option lookup table.
func (s *State) SetBayOptions(options []models.BayOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bayOptions = models.BayOptionNames(options)
}

// ApplyResult swaps in the outcome of a refresh cycle. On success the
// booking set is replaced wholesale. On failure the last-known-good
// set is retained so a transient blip never flashes the calendar
// empty; only the error flag changes.
func (s *State) ApplyResult(bookings []models.Booking, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.lastErr = err
		return
	}
	s.bookings = bookings
	s.lastErr = nil
	s.updatedAt = time.Now()
}

// Err returns the error from the most recent failed refresh, if the
// latest refresh failed.
func (s *State) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
