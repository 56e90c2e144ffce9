// internal/config/loader.go
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies environment
// overrides, then fills defaults. A missing file is not an error: a
// fully env-driven deployment carries no config file at all.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Validate checks the settings without which the daemon cannot operate.
func (c *Config) Validate() error {
	if c.Board.LocalURL == "" {
		return fmt.Errorf("board local_url is required (VESTABOARD_LOCAL_URL)")
	}
	if c.Board.LocalKey == "" {
		return fmt.Errorf("board local_key is required (VESTABOARD_LOCAL_KEY)")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Board.TimeoutSeconds <= 0 {
		cfg.Board.TimeoutSeconds = 10
	}
	if cfg.Weather.Location == "" {
		cfg.Weather.Location = "Seattle,WA,US"
	}
	if len(cfg.Stocks.Symbols) == 0 {
		cfg.Stocks.Symbols = []string{"SPY", "QQQ"}
	}
	if cfg.Web.Host == "" {
		cfg.Web.Host = "0.0.0.0"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Scheduler.CheckIntervalSeconds <= 0 {
		cfg.Scheduler.CheckIntervalSeconds = 60
	}
	if cfg.Scheduler.FlightIntervalMinutes <= 0 {
		cfg.Scheduler.FlightIntervalMinutes = 10
	}
	if cfg.DB.Path == "" {
		cfg.DB.Path = "data/flapboard.db"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
