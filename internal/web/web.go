package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/robfig/cron/v3"

	"schedcal/internal/config"
	appLog "schedcal/internal/log"
	"schedcal/internal/model"
	"schedcal/internal/schedule"
)

const (
	responseCacheTTL  = 5 * time.Minute
	responseCacheSize = 1_000
	shutdownTimeout   = 5 * time.Second
)

// EventLoader supplies the flat event list. A non-nil error with a non-nil
// slice means a partial load.
type EventLoader interface {
	Load(ctx context.Context) ([]model.Event, error)
}

// Server exposes day summaries and weekly activity as JSON for the
// calendar views, side panel and heatmap.
type Server struct {
	cfg    *config.Config
	loc    *time.Location
	loader EventLoader
	mux    *http.ServeMux

	// Current event snapshot, replaced wholesale by Refresh. gen is bumped
	// with every swap and prefixes cache keys.
	eventsMu sync.RWMutex
	events   []model.Event
	gen      uint64

	// Computed responses keyed by endpoint and date. Cleared on Refresh.
	cache *otter.Cache[string, any]

	now func() time.Time
}

// NewServer constructs a new Server. Call Refresh before serving to load
// the first snapshot.
func NewServer(cfg *config.Config, loader EventLoader) *Server {
	s := &Server{
		cfg:    cfg,
		loc:    cfg.Location(),
		loader: loader,
		mux:    http.NewServeMux(),
		events: []model.Event{},
		cache: otter.Must(&otter.Options[string, any]{
			MaximumSize:      responseCacheSize,
			ExpiryCalculator: otter.ExpiryWriting[string, any](responseCacheTTL),
		}),
		now: time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("GET /api/week", s.handleWeek)
}

// Refresh reloads all event sources and swaps in the new snapshot. On a
// partial load the partial events are still used; a failed load that
// produced no events keeps the previous snapshot.
func (s *Server) Refresh(ctx context.Context) error {
	events, err := s.loader.Load(ctx)
	if events == nil || (err != nil && len(events) == 0) {
		if err == nil {
			err = errors.New("loader returned no events")
		}
		appLog.Error("refresh failed; keeping previous snapshot", err)
		return err
	}

	s.eventsMu.Lock()
	s.events = events
	s.gen++
	s.eventsMu.Unlock()
	s.cache.InvalidateAll()

	if err != nil {
		appLog.Error("refresh completed with source errors", err, "event_count", len(events))
		return err
	}
	appLog.Info("refresh completed", "event_count", len(events))
	return nil
}

func (s *Server) snapshot() ([]model.Event, uint64) {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return s.events, s.gen
}

// Run loads the first snapshot, schedules periodic refreshes with
// cfg.RefreshCron and serves HTTP on cfg.Listen until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		appLog.Error("initial refresh incomplete", err)
	}

	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.cfg.RefreshCron, func() {
		_ = s.Refresh(ctx)
	}); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "refresh", s.cfg.RefreshCron)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// dayResponse is the JSON response shape for /api/day.
type dayResponse struct {
	model.DayScheduleSummary
	WorkingHours model.WorkingHours `json:"workingHours"`
	BusyLabel    string             `json:"busyLabel"`
	FreeLabel    string             `json:"freeLabel"`
}

// weekResponse is the JSON response shape for /api/week.
type weekResponse struct {
	WeekStart string                `json:"weekStart"`
	Days      []model.DailyActivity `json:"days"`
	LeastBusy *model.DailyActivity  `json:"leastBusy,omitempty"`
	Heatmap   []model.HeatmapRow    `json:"heatmap"`
}

// handleDay returns the schedule summary for one date.
//
// GET /api/day?date=YYYY-MM-DD (default: today in the configured timezone)
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.parseDateParam(w, r)
	if !ok {
		return
	}
	events, gen := s.snapshot()
	key := fmt.Sprintf("%d:day:%s", gen, schedule.DateKey(date))
	if v, ok := s.cache.GetIfPresent(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	sum, err := schedule.GenerateDayScheduleSummary(events, date, s.cfg.WorkingHours)
	if err != nil {
		appLog.Error("api day: summary failed", err, "date", schedule.DateKey(date))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := dayResponse{
		DayScheduleSummary: sum,
		WorkingHours:       s.cfg.WorkingHours,
		BusyLabel:          schedule.FormatMinutesToHourMinute(sum.TotalBusyMinutes),
		FreeLabel:          schedule.FormatMinutesToHourMinute(sum.TotalFreeMinutes),
	}
	s.cache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleWeek returns busyness per day, the least-busy day and the heatmap
// grid for the Monday-start week containing date.
//
// GET /api/week?date=YYYY-MM-DD (default: today in the configured timezone)
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	date, ok := s.parseDateParam(w, r)
	if !ok {
		return
	}
	weekStart := schedule.DateKey(schedule.WeekStart(date))
	events, gen := s.snapshot()
	key := fmt.Sprintf("%d:week:%s", gen, weekStart)
	if v, ok := s.cache.GetIfPresent(key); ok {
		writeJSON(w, http.StatusOK, v)
		return
	}

	days, err := schedule.CalculateWeeklyActivity(events, date)
	if err != nil {
		appLog.Error("api week: activity failed", err, "week_start", weekStart)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	heatmap, err := schedule.WeeklyHeatmap(events, date, s.cfg.HeatmapHours)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := weekResponse{WeekStart: weekStart, Days: days, Heatmap: heatmap}
	if least, ok := schedule.LeastBusyDay(days); ok {
		resp.LeastBusy = &least
	}
	s.cache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) parseDateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return s.now().In(s.loc), true
	}
	d, err := schedule.ParseDate(raw, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
