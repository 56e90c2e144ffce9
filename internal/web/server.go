// internal/web/server.go
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/colebrumley/flapboard/internal/render"
	"github.com/colebrumley/flapboard/internal/store"
)

// Engine is the scheduler surface the API needs for immediate sends.
type Engine interface {
	SendText(ctx context.Context, text string) error
	SendType(ctx context.Context, t store.ContentType) error
	Execute(ctx context.Context, sched store.Schedule) error
}

// Board is the display surface the API needs directly.
type Board interface {
	Clear(ctx context.Context) error
	Current(ctx context.Context) (render.Grid, error)
	TestConnection(ctx context.Context) bool
}

// Server exposes the HTTP API for managing schedules, countdowns,
// flights, and pushing content to the board.
type Server struct {
	store  *store.Store
	engine Engine
	board  Board
	logger *slog.Logger
	addr   string
}

// New creates the API server.
func New(addr string, st *store.Store, engine Engine, board Board, logger *slog.Logger) *Server {
	return &Server{
		store:  st,
		engine: engine,
		board:  board,
		logger: logger,
		addr:   addr,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/message", s.handleSendMessage)
		r.Post("/message/{type}", s.handleSendType)
		r.Get("/message", s.handleCurrentMessage)
		r.Post("/clear", s.handleClear)
		r.Post("/webhook", s.handleWebhook)
		r.Get("/logs", s.handleLogs)

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", s.handleListSchedules)
			r.Post("/", s.handleSaveSchedule)
			r.Get("/{id}", s.handleGetSchedule)
			r.Put("/{id}", s.handleSaveSchedule)
			r.Delete("/{id}", s.handleDeleteSchedule)
			r.Post("/{id}/run", s.handleRunSchedule)
		})

		r.Route("/countdowns", func(r chi.Router) {
			r.Get("/", s.handleListCountdowns)
			r.Post("/", s.handleSaveCountdown)
			r.Delete("/{id}", s.handleDeleteCountdown)
		})

		r.Route("/flights", func(r chi.Router) {
			r.Get("/", s.handleListFlights)
			r.Post("/", s.handleSaveFlight)
			r.Delete("/{id}", s.handleDeleteFlight)
		})
	})

	return r
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.store.Schedules(false)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	enabled := 0
	for _, sched := range schedules {
		if sched.Enabled {
			enabled++
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"board_connected":   s.board.TestConnection(r.Context()),
		"schedules":         len(schedules),
		"schedules_enabled": enabled,
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("text is required"))
		return
	}

	if err := s.engine.SendText(r.Context(), req.Text); err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleSendType(w http.ResponseWriter, r *http.Request) {
	t := store.ContentType(chi.URLParam(r, "type"))
	if !t.Valid() || t == store.TypeText {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown content type %q", t))
		return
	}

	if err := s.engine.SendType(r.Context(), t); err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "type": string(t)})
}

func (s *Server) handleCurrentMessage(w http.ResponseWriter, r *http.Request) {
	grid, err := s.board.Current(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"message": grid.Slices()})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.board.Clear(r.Context()); err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleWebhook accepts simple automation pushes from services like
// IFTTT: a push type plus an optional text payload.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	var err error
	switch req.Type {
	case "text":
		if req.Text == "" {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("text is required for type %q", req.Type))
			return
		}
		err = s.engine.SendText(r.Context(), req.Text)
	case "weather":
		err = s.engine.SendType(r.Context(), store.TypeWeather)
	case "stocks":
		err = s.engine.SendType(r.Context(), store.TypeStocks)
	case "clear":
		err = s.board.Clear(r.Context())
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown webhook type %q", req.Type))
		return
	}

	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "type": req.Type})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	entries, err := s.store.MessageLog(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []store.LogEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.store.Schedules(false)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if schedules == nil {
		schedules = []store.Schedule{}
	}
	s.writeJSON(w, http.StatusOK, schedules)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}
	sched, err := s.store.Schedule(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if sched == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("schedule %d not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	var sched store.Schedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id"))
			return
		}
		sched.ID = parsed
	}

	if sched.Name == "" || sched.CronExpr == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("name and cron are required"))
		return
	}
	if !sched.Type.Valid() {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown content type %q", sched.Type))
		return
	}

	id, err := s.store.SaveSchedule(&sched)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	sched.ID = id
	s.writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}
	deleted, err := s.store.DeleteSchedule(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("schedule %d not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleRunSchedule fires a schedule immediately without waiting for
// its cron window.
func (s *Server) handleRunSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}
	sched, err := s.store.Schedule(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if sched == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("schedule %d not found", id))
		return
	}

	if err := s.engine.Execute(r.Context(), *sched); err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) handleListCountdowns(w http.ResponseWriter, r *http.Request) {
	countdowns, err := s.store.Countdowns(false, true)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if countdowns == nil {
		countdowns = []store.Countdown{}
	}
	s.writeJSON(w, http.StatusOK, countdowns)
}

func (s *Server) handleSaveCountdown(w http.ResponseWriter, r *http.Request) {
	var c store.Countdown
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if c.Name == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}
	if _, err := time.Parse("2006-01-02", c.TargetDate); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("target_date must be YYYY-MM-DD"))
		return
	}

	id, err := s.store.SaveCountdown(&c)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	c.ID = id
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCountdown(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}
	deleted, err := s.store.DeleteCountdown(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("countdown %d not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := s.store.Flights(false)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if flights == nil {
		flights = []store.Flight{}
	}
	s.writeJSON(w, http.StatusOK, flights)
}

func (s *Server) handleSaveFlight(w http.ResponseWriter, r *http.Request) {
	var f store.Flight
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}
	if f.Number == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("flight number is required"))
		return
	}
	if f.Date == "" {
		f.Date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", f.Date); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("date must be YYYY-MM-DD"))
		return
	}

	id, err := s.store.SaveFlight(&f)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	f.ID = id
	s.writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeleteFlight(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return
	}
	deleted, err := s.store.DeleteFlight(id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("flight %d not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
