// internal/config/types.go
package config

// Config is the full daemon configuration. Values come from the YAML
// file, then environment variables override individual fields.
type Config struct {
	Board     BoardConfig     `yaml:"board"`
	Weather   WeatherConfig   `yaml:"weather"`
	Stocks    StocksConfig    `yaml:"stocks"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	News      NewsConfig      `yaml:"news"`
	Flights   FlightsConfig   `yaml:"flights"`
	Web       WebConfig       `yaml:"web"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	DB        DBConfig        `yaml:"db"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type BoardConfig struct {
	LocalURL       string `yaml:"local_url" envconfig:"VESTABOARD_LOCAL_URL"`
	LocalKey       string `yaml:"local_key" envconfig:"VESTABOARD_LOCAL_KEY"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"VESTABOARD_TIMEOUT_SECONDS"`
}

type WeatherConfig struct {
	APIKey   string `yaml:"api_key" envconfig:"OPENWEATHER_API_KEY"`
	Location string `yaml:"location" envconfig:"WEATHER_LOCATION"`
}

type StocksConfig struct {
	Symbols []string `yaml:"symbols" envconfig:"STOCK_SYMBOLS"`
}

type CalendarConfig struct {
	URL string `yaml:"url" envconfig:"CALENDAR_URL"`
}

type NewsConfig struct {
	APIKey string `yaml:"api_key" envconfig:"NEWS_API_KEY"`
}

type FlightsConfig struct {
	APIKey string `yaml:"api_key" envconfig:"AVIATIONSTACK_API_KEY"`
}

type WebConfig struct {
	Host string `yaml:"host" envconfig:"WEB_HOST"`
	Port int    `yaml:"port" envconfig:"WEB_PORT"`
}

type SchedulerConfig struct {
	CheckIntervalSeconds  int `yaml:"check_interval_seconds" envconfig:"CHECK_INTERVAL_SECONDS"`
	FlightIntervalMinutes int `yaml:"flight_interval_minutes" envconfig:"FLIGHT_INTERVAL_MINUTES"`
}

type DBConfig struct {
	Path string `yaml:"path" envconfig:"DB_PATH"`
}

type LoggingConfig struct {
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
}
