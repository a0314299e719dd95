// Package web exposes the calendar derivation pipeline over a small
// JSON API so any UI host can re-render on its own cadence without
// re-deriving business rules.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kjellrichard/bygolf-portal/internal/bookingapi"
	"github.com/kjellrichard/bygolf-portal/internal/dateutil"
	"github.com/kjellrichard/bygolf-portal/internal/export"
	"github.com/kjellrichard/bygolf-portal/internal/grid"
	"github.com/kjellrichard/bygolf-portal/internal/models"
	"github.com/kjellrichard/bygolf-portal/internal/refresh"
	"github.com/kjellrichard/bygolf-portal/internal/store"
	"github.com/kjellrichard/bygolf-portal/internal/token"
	"github.com/kjellrichard/bygolf-portal/internal/view"
)

// Server hosts the calendar JSON API.
type Server struct {
	state     *view.State
	refresher *refresh.Refresher
	settings  *store.Store
	creds     *store.Credentials
	logger    zerolog.Logger
	server    *http.Server

	// now is swappable for tests of the time marker.
	now func() time.Time
}

// New wires the API routes.
func New(listen string, state *view.State, refresher *refresh.Refresher, settings *store.Store, creds *store.Credentials, logger zerolog.Logger) *Server {
	s := &Server{
		state:     state,
		refresher: refresher,
		settings:  settings,
		creds:     creds,
		logger:    logger,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/calendar", s.handleCalendar)
	mux.HandleFunc("/api/reload", s.handleReload)
	mux.HandleFunc("/api/wake", s.handleWake)
	mux.HandleFunc("/api/token", s.handleToken)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.server = &http.Server{Addr: listen, Handler: mux}
	return s
}

// Handler returns the route handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe runs the API server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// BlockView is a booking block annotated with its bay-option label.
type BlockView struct {
	grid.Block
	Option string `json:"option,omitempty"`
}

// HourCell is one hour row of a bay column.
type HourCell struct {
	Hour   int         `json:"hour"`
	Blocks []BlockView `json:"blocks,omitempty"`
}

// BayColumn is one bay's stack of hour rows for a day.
type BayColumn struct {
	Bay   string     `json:"bay"`
	Hours []HourCell `json:"hours"`
}

// DayView is one displayed day with its stats, geometry and marker.
type DayView struct {
	Date    string     `json:"date"`
	Weekday string     `json:"weekday"`
	Stats   grid.Stats `json:"stats"`
	Bays    []BayColumn `json:"bays"`
	// Marker is the current-time offset in pixels, present only for
	// today while the current hour is within the visible rows.
	Marker *float64 `json:"marker,omitempty"`
}

// CalendarResponse is the full renderable calendar window.
type CalendarResponse struct {
	Mode       view.Mode `json:"mode"`
	FetchStart time.Time `json:"fetchStart"`
	FetchEnd   time.Time `json:"fetchEnd"`
	Hours      []int     `json:"hours"`
	RowHeight  float64   `json:"rowHeight"`
	Days       []DayView `json:"days"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Loading    bool      `json:"loading"`
	Error      string    `json:"error,omitempty"`
}

// handleCalendar returns the computed calendar window.
// GET /api/calendar?mode=day|3days|week&date=YYYY-MM-DD&end=YYYY-MM-DD
// When view parameters are present the view state is updated first and
// the window re-fetched in the foreground, like the calendar controls.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	changed, err := s.applyViewParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if changed {
		// A window change restarts both cadences; the old window's
		// ticker phase must not produce a tick right after it.
		s.refresher.Reschedule()
		if err := s.refresher.RefreshNow(r.Context()); err != nil {
			s.writeFetchError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, s.buildCalendar())
}

// applyViewParams mutates the view state from query parameters.
// Returns whether the display window changed.
func (s *Server) applyViewParams(r *http.Request) (bool, error) {
	q := r.URL.Query()
	before := s.state.Range()

	if v := q.Get("mode"); v != "" {
		mode, err := view.ParseMode(v)
		if err != nil {
			return false, err
		}
		s.state.SetMode(mode)
	}
	if v := q.Get("date"); v != "" {
		anchor, err := time.ParseInLocation(dateutil.DayKeyFormat, v, time.Local)
		if err != nil {
			return false, fmt.Errorf("invalid date format; expected YYYY-MM-DD")
		}
		s.state.SetAnchor(anchor)
	}
	if v := q.Get("end"); v != "" {
		end, err := time.ParseInLocation(dateutil.DayKeyFormat, v, time.Local)
		if err != nil {
			return false, fmt.Errorf("invalid end format; expected YYYY-MM-DD")
		}
		s.state.SetEndOverride(end)
	}

	after := s.state.Range()
	changed := !after.FetchStart.Equal(before.FetchStart) || !after.FetchEnd.Equal(before.FetchEnd)
	return changed, nil
}

func (s *Server) buildCalendar() CalendarResponse {
	snap := s.state.Snapshot()
	rng := view.ResolveRange(snap.Mode, snap.Anchor, snap.EndOverride)
	buckets := grid.Bucket(snap.Bookings, rng.DisplayDays)
	stats := grid.DayStatsRange(snap.Bookings, rng.DisplayDays)
	now := s.now()

	resp := CalendarResponse{
		Mode:       snap.Mode,
		FetchStart: rng.FetchStart,
		FetchEnd:   rng.FetchEnd,
		Hours:      grid.Hours(),
		RowHeight:  grid.DefaultRowHeight,
		UpdatedAt:  snap.UpdatedAt,
		Loading:    snap.Loading,
	}
	if snap.LastErr != nil {
		resp.Error = snap.LastErr.Error()
	}

	for _, day := range rng.DisplayDays {
		key := dateutil.DayKey(day)
		dayView := DayView{
			Date:    key,
			Weekday: day.Weekday().String(),
			Stats:   stats[key],
		}
		if offset, ok := grid.CurrentMarkerOffset(day, now, grid.DefaultRowHeight); ok {
			dayView.Marker = &offset
		}

		for _, bay := range models.BayRefs {
			column := BayColumn{Bay: bay}
			for _, hour := range grid.Hours() {
				cell := HourCell{Hour: hour}
				for _, block := range grid.LayoutCell(buckets[key][bay], day, hour) {
					cell.Blocks = append(cell.Blocks, BlockView{
						Block:  block,
						Option: snap.BayOptions[block.Booking.BayOptionID],
					})
				}
				column.Hours = append(column.Hours, cell)
			}
			dayView.Bays = append(dayView.Bays, column)
		}
		resp.Days = append(resp.Days, dayView)
	}
	return resp
}

// handleReload triggers a foreground refresh. POST /api/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	if err := s.refresher.RefreshNow(r.Context()); err != nil {
		s.writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleWake maps host focus/visibility events onto a silent refresh.
// POST /api/wake?trigger=focus|visibility
func (s *Server) handleWake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}
	trigger := r.URL.Query().Get("trigger")
	if trigger == "" {
		trigger = "focus"
	}
	s.refresher.Wake(trigger)
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "scheduled"})
}

type tokenRequest struct {
	Token string `json:"token"`
}

// handleToken manages the bearer credential.
// PUT /api/token sets it; DELETE /api/token clears it.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut:
		var req tokenRequest
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if token.IsExpired(req.Token) {
			writeError(w, http.StatusBadRequest, "token is empty or already expired")
			return
		}
		if err := s.settings.SaveToken(r.Context(), req.Token); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to persist token")
			return
		}
		s.creds.Set(req.Token)
		// Credential change restarts the refresh cadences.
		s.refresher.Stop()
		s.refresher.Start()
		s.refresher.Wake("token_change")
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})

	case http.MethodDelete:
		if err := s.settings.ClearToken(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to clear token")
			return
		}
		s.creds.Set("")
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use PUT or DELETE")
	}
}

// handleExport streams the current window as an XLSX report.
// GET /api/export
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap := s.state.Snapshot()
	rng := view.ResolveRange(snap.Mode, snap.Anchor, snap.EndOverride)
	win := export.Window{
		Days:       rng.DisplayDays,
		Buckets:    grid.Bucket(snap.Bookings, rng.DisplayDays),
		Stats:      grid.DayStatsRange(snap.Bookings, rng.DisplayDays),
		BayOptions: snap.BayOptions,
	}

	filename := fmt.Sprintf("calendar_%s_%s.xlsx",
		dateutil.DayKey(rng.FetchStart), dateutil.DayKey(rng.FetchEnd))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.Write(w, win); err != nil {
		s.logger.Error().Err(err).Msg("export failed")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// writeFetchError maps the fetch error taxonomy onto HTTP statuses.
func (s *Server) writeFetchError(w http.ResponseWriter, err error) {
	var authErr *bookingapi.AuthError
	if errors.As(err, &authErr) {
		writeError(w, http.StatusUnauthorized, "credential rejected; set a new token")
		return
	}
	var malformed *bookingapi.MalformedResponseError
	if errors.As(err, &malformed) {
		writeError(w, http.StatusBadGateway, "upstream returned a malformed payload")
		return
	}
	writeError(w, http.StatusBadGateway, "failed to fetch bookings")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
