// internal/scheduler/engine.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/colebrumley/flapboard/internal/logging"
	"github.com/colebrumley/flapboard/internal/metrics"
	"github.com/colebrumley/flapboard/internal/provider"
	"github.com/colebrumley/flapboard/internal/render"
	"github.com/colebrumley/flapboard/internal/store"
	"github.com/robfig/cron/v3"
)

// neverFired anchors the cron due check for schedules that have not run
// yet, so a freshly created schedule fires on the next pass.
var neverFired = time.Date(2000, 1, 1, 0, 0, 0, 0, time.Local)

// Store is the persistence surface the engine needs.
type Store interface {
	Schedules(enabledOnly bool) ([]store.Schedule, error)
	MarkFired(id int64, at time.Time) error
	LogMessage(msgType store.ContentType, content string, success bool) error
	FlightsForDate(date string) ([]store.Flight, error)
}

// Transport sends rendered frames to the display.
type Transport interface {
	Send(ctx context.Context, g render.Grid) error
}

// LineSource produces board lines for one content type.
type LineSource interface {
	Lines(ctx context.Context) ([]string, error)
}

// FlightSource is the flight provider surface the watcher needs.
type FlightSource interface {
	Fetch(ctx context.Context, f store.Flight) (*provider.FlightStatus, error)
	FormatForBoard(fs *provider.FlightStatus) []string
	Lines(ctx context.Context) ([]string, error)
}

// Providers bundles the content sources the engine dispatches to. A nil
// field means that content type is not configured.
type Providers struct {
	Weather    LineSource
	Stocks     LineSource
	Calendar   LineSource
	News       LineSource
	Countdowns LineSource
	Flights    FlightSource
}

// Engine runs the due-check loop for scheduled messages and the status
// watcher loop for tracked flights.
type Engine struct {
	store     Store
	board     Transport
	providers Providers
	logger    *slog.Logger

	checkInterval  time.Duration
	flightInterval time.Duration
	now            func() time.Time

	mu           sync.Mutex
	flightStates map[string]string // flight key -> last observed status
}

// UpdateProviders swaps the content sources, used when the config file
// changes while the daemon is running.
func (e *Engine) UpdateProviders(p Providers) {
	e.mu.Lock()
	e.providers = p
	e.mu.Unlock()
	e.logger.Info("content providers reloaded")
}

func (e *Engine) currentProviders() Providers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.providers
}

// New creates an engine. Intervals of zero fall back to one minute for
// schedule checks and ten minutes for flight polling.
func New(st Store, board Transport, providers Providers, logger *slog.Logger, checkInterval, flightInterval time.Duration) *Engine {
	if checkInterval <= 0 {
		checkInterval = time.Minute
	}
	if flightInterval <= 0 {
		flightInterval = 10 * time.Minute
	}
	return &Engine{
		store:          st,
		board:          board,
		providers:      providers,
		logger:         logger,
		checkInterval:  checkInterval,
		flightInterval: flightInterval,
		now:            time.Now,
		flightStates:   make(map[string]string),
	}
}

// Run starts both loops and blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("scheduler started",
		"check_interval", e.checkInterval,
		"flight_interval", e.flightInterval,
	)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		e.scheduleLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.flightLoop(ctx)
	}()

	wg.Wait()
	e.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (e *Engine) scheduleLoop(ctx context.Context) {
	ticker := time.NewTicker(e.checkInterval)
	defer ticker.Stop()

	e.checkSchedules(ctx)
	for {
		select {
		case <-ticker.C:
			e.checkSchedules(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) flightLoop(ctx context.Context) {
	ticker := time.NewTicker(e.flightInterval)
	defer ticker.Stop()

	e.checkFlights(ctx)
	for {
		select {
		case <-ticker.C:
			e.checkFlights(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// checkSchedules runs one due-check pass over all enabled schedules.
// A failure in one schedule never blocks the rest of the pass.
func (e *Engine) checkSchedules(ctx context.Context) {
	timer := time.Now()
	defer func() {
		metrics.SchedulePassDuration.Observe(time.Since(timer).Seconds())
	}()

	schedules, err := e.store.Schedules(true)
	if err != nil {
		e.logger.Error("loading schedules", "error", err)
		return
	}

	now := e.now()
	for _, sched := range schedules {
		if ctx.Err() != nil {
			return
		}
		if !e.due(sched, now) {
			continue
		}

		logger := logging.WithSchedule(e.logger, sched.Name)
		logger.Info("schedule due", "type", sched.Type, "cron", sched.CronExpr)

		if err := e.Execute(ctx, sched); err != nil {
			logger.Error("schedule execution failed", "error", err)
		}
	}
}

// due reports whether a schedule's next fire time, anchored at its last
// run, has arrived. Invalid cron expressions are logged and skipped.
func (e *Engine) due(sched store.Schedule, now time.Time) bool {
	spec, err := cron.ParseStandard(sched.CronExpr)
	if err != nil {
		logging.WithSchedule(e.logger, sched.Name).Warn("invalid cron expression, skipping",
			"cron", sched.CronExpr, "error", err)
		return false
	}

	anchor := neverFired
	if sched.LastRun != nil {
		anchor = *sched.LastRun
	}
	return !spec.Next(anchor).After(now)
}

// Execute renders and sends one schedule's content, logs the attempt,
// and advances last_run only when the send succeeded. A failed send
// leaves last_run untouched so the next pass retries.
func (e *Engine) Execute(ctx context.Context, sched store.Schedule) error {
	grid, content, err := e.renderSchedule(ctx, sched)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(string(sched.Type)).Inc()
		if logErr := e.store.LogMessage(sched.Type, err.Error(), false); logErr != nil {
			e.logger.Warn("recording message log", "error", logErr)
		}
		return err
	}

	sendErr := e.send(ctx, sched.Type, grid)
	if logErr := e.store.LogMessage(sched.Type, content, sendErr == nil); logErr != nil {
		e.logger.Warn("recording message log", "error", logErr)
	}
	if sendErr != nil {
		return fmt.Errorf("sending to board: %w", sendErr)
	}

	if err := e.store.MarkFired(sched.ID, e.now()); err != nil {
		return fmt.Errorf("marking schedule fired: %w", err)
	}
	return nil
}

// renderSchedule produces the frame and the loggable content for one
// schedule.
func (e *Engine) renderSchedule(ctx context.Context, sched store.Schedule) (render.Grid, string, error) {
	if sched.Type == store.TypeText {
		return render.RenderMessage(sched.Content, true), sched.Content, nil
	}

	lines, err := e.linesFor(ctx, sched.Type)
	if err != nil {
		return render.Grid{}, "", fmt.Errorf("fetching %s content: %w", sched.Type, err)
	}
	return render.RenderLines(lines, true), strings.Join(lines, "\n"), nil
}

// linesFor dispatches a dynamic content type to its provider.
func (e *Engine) linesFor(ctx context.Context, t store.ContentType) ([]string, error) {
	providers := e.currentProviders()

	var src LineSource
	switch t {
	case store.TypeWeather:
		src = providers.Weather
	case store.TypeStocks:
		src = providers.Stocks
	case store.TypeCalendar:
		src = providers.Calendar
	case store.TypeNews:
		src = providers.News
	case store.TypeCountdowns:
		src = providers.Countdowns
	case store.TypeFlights:
		if providers.Flights == nil {
			return nil, fmt.Errorf("flight provider not configured")
		}
		return providers.Flights.Lines(ctx)
	default:
		return nil, fmt.Errorf("unknown content type %q", t)
	}

	if src == nil {
		return nil, fmt.Errorf("%s provider not configured", t)
	}
	return src.Lines(ctx)
}

// SendText renders arbitrary text and sends it immediately, outside any
// schedule.
func (e *Engine) SendText(ctx context.Context, text string) error {
	grid := render.RenderMessage(text, true)
	sendErr := e.send(ctx, store.TypeText, grid)
	if logErr := e.store.LogMessage(store.TypeText, text, sendErr == nil); logErr != nil {
		e.logger.Warn("recording message log", "error", logErr)
	}
	return sendErr
}

// SendType fetches one content type's current lines and sends them
// immediately.
func (e *Engine) SendType(ctx context.Context, t store.ContentType) error {
	lines, err := e.linesFor(ctx, t)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(string(t)).Inc()
		if logErr := e.store.LogMessage(t, err.Error(), false); logErr != nil {
			e.logger.Warn("recording message log", "error", logErr)
		}
		return err
	}

	grid := render.RenderLines(lines, true)
	sendErr := e.send(ctx, t, grid)
	if logErr := e.store.LogMessage(t, strings.Join(lines, "\n"), sendErr == nil); logErr != nil {
		e.logger.Warn("recording message log", "error", logErr)
	}
	return sendErr
}

func (e *Engine) send(ctx context.Context, t store.ContentType, grid render.Grid) error {
	timer := time.Now()
	err := e.board.Send(ctx, grid)
	metrics.BoardSendDuration.Observe(time.Since(timer).Seconds())
	metrics.ObserveSend(string(t), err == nil)
	return err
}

// checkFlights polls today's tracked flights and pushes a status frame
// whenever a flight is first observed or its status changed. Flights
// whose last known status is terminal are not polled again.
func (e *Engine) checkFlights(ctx context.Context) {
	flightSrc := e.currentProviders().Flights
	if flightSrc == nil {
		return
	}

	flights, err := e.store.FlightsForDate(e.now().Format("2006-01-02"))
	if err != nil {
		e.logger.Error("loading tracked flights", "error", err)
		return
	}

	for _, f := range flights {
		if ctx.Err() != nil {
			return
		}

		key := f.Key()
		e.mu.Lock()
		last, seen := e.flightStates[key]
		e.mu.Unlock()
		if seen && provider.TerminalStatus(last) {
			continue
		}

		fs, err := flightSrc.Fetch(ctx, f)
		if err != nil {
			metrics.ProviderErrors.WithLabelValues(string(store.TypeFlights)).Inc()
			e.logger.Warn("flight status fetch failed", "flight", f.Number, "error", err)
			continue
		}

		if seen && last == fs.Status {
			continue
		}

		e.logger.Info("flight status update",
			"flight", fs.Number,
			"status", fs.Status,
			"previous", last,
		)

		lines := flightSrc.FormatForBoard(fs)
		grid := render.RenderLines(lines, true)
		sendErr := e.send(ctx, store.TypeFlights, grid)
		if logErr := e.store.LogMessage(store.TypeFlights, strings.Join(lines, "\n"), sendErr == nil); logErr != nil {
			e.logger.Warn("recording message log", "error", logErr)
		}
		if sendErr != nil {
			e.logger.Error("sending flight update", "flight", fs.Number, "error", sendErr)
		}

		// Record the observation even when the send failed so a flaky
		// board does not replay the same status forever.
		e.mu.Lock()
		e.flightStates[key] = fs.Status
		e.mu.Unlock()
	}
}
