// internal/daemon/daemon.go
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/colebrumley/flapboard/internal/board"
	"github.com/colebrumley/flapboard/internal/config"
	"github.com/colebrumley/flapboard/internal/logging"
	"github.com/colebrumley/flapboard/internal/metrics"
	"github.com/colebrumley/flapboard/internal/provider"
	"github.com/colebrumley/flapboard/internal/scheduler"
	"github.com/colebrumley/flapboard/internal/store"
	"github.com/colebrumley/flapboard/internal/web"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
)

var registerMetricsOnce sync.Once

// Daemon wires the store, board client, content providers, scheduler,
// and HTTP API together.
type Daemon struct {
	configPath string
	config     *config.Config
	logger     *slog.Logger
	store      *store.Store
	board      *board.Client
	engine     *scheduler.Engine
}

// New creates a daemon that reads its configuration from configPath.
func New(configPath string) *Daemon {
	return &Daemon{configPath: configPath}
}

// Run starts the daemon and blocks until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.setup(); err != nil {
		return err
	}
	defer d.store.Close()

	registerMetricsOnce.Do(func() {
		metrics.MustRegister(prometheus.DefaultRegisterer)
	})

	if !d.board.TestConnection(ctx) {
		d.logger.Warn("board is not reachable, sends will fail until it comes back",
			"url", d.config.Board.LocalURL)
	}

	webServer := web.New(d.webAddr(), d.store, d.engine, d.board, d.logger)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := d.engine.Run(ctx); err != nil && err != context.Canceled {
			d.logger.Error("scheduler error", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := webServer.Run(ctx); err != nil && err != context.Canceled {
			d.logger.Error("HTTP server error", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		d.watchConfig(ctx)
	}()

	d.logger.Info("daemon started", "config", d.configPath)
	wg.Wait()
	d.logger.Info("daemon stopped")
	return nil
}

// setup loads configuration and opens every downstream dependency.
func (d *Daemon) setup() error {
	cfg, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	d.config = cfg
	d.logger = logging.NewLogger(cfg.Logging.Format, cfg.Logging.Level, os.Stdout)

	st, err := store.Open(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	d.store = st

	seeded, err := st.SeedDefaults()
	if err != nil {
		d.logger.Warn("seeding default schedules", "error", err)
	} else if len(seeded) > 0 {
		d.logger.Info("seeded default schedules", "names", seeded)
	}

	client, err := board.New(cfg.Board.LocalURL, cfg.Board.LocalKey,
		time.Duration(cfg.Board.TimeoutSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("creating board client: %w", err)
	}
	d.board = client

	d.engine = scheduler.New(st, client, d.buildProviders(cfg), d.logger,
		time.Duration(cfg.Scheduler.CheckIntervalSeconds)*time.Second,
		time.Duration(cfg.Scheduler.FlightIntervalMinutes)*time.Minute)
	return nil
}

// buildProviders constructs content sources from config. Providers
// whose keys are missing stay nil and their content types report as
// unconfigured when dispatched.
func (d *Daemon) buildProviders(cfg *config.Config) scheduler.Providers {
	p := scheduler.Providers{
		Countdowns: provider.NewCountdowns(d.store),
	}
	if cfg.Weather.APIKey != "" {
		p.Weather = provider.NewWeather(cfg.Weather.APIKey, cfg.Weather.Location)
	}
	if len(cfg.Stocks.Symbols) > 0 {
		p.Stocks = provider.NewStocks(cfg.Stocks.Symbols)
	}
	if cfg.Calendar.URL != "" {
		p.Calendar = provider.NewCalendar(cfg.Calendar.URL)
	}
	if cfg.News.APIKey != "" {
		p.News = provider.NewNews(cfg.News.APIKey)
	}
	if cfg.Flights.APIKey != "" {
		p.Flights = provider.NewFlights(cfg.Flights.APIKey, d.store)
	}
	return p
}

func (d *Daemon) webAddr() string {
	return fmt.Sprintf("%s:%d", d.config.Web.Host, d.config.Web.Port)
}

// watchConfig reloads provider settings when the config file changes.
// Board, database, and listen settings need a restart; only content
// provider keys take effect live.
func (d *Daemon) watchConfig(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.logger.Error("could not create config watcher", "error", err)
		return
	}
	defer watcher.Close()

	// Watch the directory: editors replace the file on save, which
	// drops a watch on the file itself.
	dir := filepath.Dir(d.configPath)
	if err := watcher.Add(dir); err != nil {
		d.logger.Error("could not watch config directory", "error", err, "dir", dir)
		return
	}

	d.logger.Info("config watcher started", "path", d.configPath)

	var debounceTimer *time.Timer
	debounceCh := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(d.configPath) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(time.Second, func() {
				select {
				case debounceCh <- struct{}{}:
				default:
				}
			})

		case <-debounceCh:
			d.reloadConfig()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.logger.Error("config watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

// RunSchedule loads configuration, fires one schedule immediately, and
// exits. Used by the CLI.
func (d *Daemon) RunSchedule(ctx context.Context, id int64) error {
	if err := d.setup(); err != nil {
		return err
	}
	defer d.store.Close()

	sched, err := d.store.Schedule(id)
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}
	if sched == nil {
		return fmt.Errorf("schedule %d not found", id)
	}
	return d.engine.Execute(ctx, *sched)
}

func (d *Daemon) reloadConfig() {
	cfg, err := config.Load(d.configPath)
	if err != nil {
		d.logger.Error("config reload failed, keeping previous settings", "error", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		d.logger.Error("reloaded config invalid, keeping previous settings", "error", err)
		return
	}

	prev := d.config
	if cfg.Board != prev.Board || cfg.DB != prev.DB || cfg.Web != prev.Web || cfg.Logging != prev.Logging {
		d.logger.Warn("board, database, web, or logging settings changed, restart to apply them")
	}

	d.config = cfg
	d.engine.UpdateProviders(d.buildProviders(cfg))
	d.logger.Info("config reloaded")
}
