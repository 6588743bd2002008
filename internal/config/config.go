package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"nexusflow/internal/analyzer"
	"nexusflow/internal/logging"
	"nexusflow/internal/watchlist"
	"nexusflow/pkg/model"
)

// Config represents the application configuration
type Config struct {
	API       APIConfig       `yaml:"api"`
	Engine    EngineConfig    `yaml:"engine"`
	Data      DataConfig      `yaml:"data"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Web       WebConfig       `yaml:"web"`
	Log       LogConfig       `yaml:"log"`
}

// APIConfig holds API provider configurations
type APIConfig struct {
	Finnhub ProviderConfig `yaml:"finnhub"`
	Yahoo   ProviderConfig `yaml:"yahoo"`
}

// ProviderConfig holds individual provider settings
type ProviderConfig struct {
	Key       string `yaml:"key"`
	RateLimit int    `yaml:"rate_limit"` // requests per minute
}

// EngineConfig holds signal engine settings
type EngineConfig struct {
	PressureWindow   int     `yaml:"pressure_window"`
	Weighting        string  `yaml:"weighting"` // range or volume
	Neighborhood     int     `yaml:"neighborhood"`
	MaxLevelsPerSide int     `yaml:"max_levels_per_side"`
	Horizon          int     `yaml:"horizon"`
	MAPeriod         int     `yaml:"ma_period"`
	DirectionSource  string  `yaml:"direction_source"` // ma or projection
	FlatTolerancePct float64 `yaml:"flat_tolerance_pct"`
	SlopeTolerance   float64 `yaml:"slope_tolerance"`
	HighThreshold    float64 `yaml:"high_threshold"`
}

// DataConfig selects the candle series that is analyzed
type DataConfig struct {
	Interval string        `yaml:"interval"`
	Bars     int           `yaml:"bars"`
	CacheTTL time.Duration `yaml:"cache_ttl"` // 0 keeps series until the next refresh
}

// ScannerConfig holds scanner settings
type ScannerConfig struct {
	Workers      int           `yaml:"workers"`
	Timeout      time.Duration `yaml:"timeout"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// WatchlistConfig holds the watchlist file and its initial symbols
type WatchlistConfig struct {
	File     string   `yaml:"file"`
	Defaults []string `yaml:"defaults"`
}

// RefreshConfig holds the background refresh schedule
type RefreshConfig struct {
	Schedule string `yaml:"schedule"` // cron spec, e.g. "@every 15m"
}

// WebConfig holds HTTP server settings
type WebConfig struct {
	Port int `yaml:"port"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	p := analyzer.DefaultParams()
	return &Config{
		API: APIConfig{
			Finnhub: ProviderConfig{RateLimit: 60},
			Yahoo:   ProviderConfig{RateLimit: 30},
		},
		Engine: EngineConfig{
			PressureWindow:   p.PressureWindow,
			Weighting:        string(p.Weighting),
			Neighborhood:     p.Neighborhood,
			MaxLevelsPerSide: p.MaxLevelsPerSide,
			Horizon:          p.Horizon,
			MAPeriod:         p.MAPeriod,
			DirectionSource:  string(p.DirectionSource),
			FlatTolerancePct: p.FlatTolerancePct,
			SlopeTolerance:   p.SlopeTolerance,
			HighThreshold:    p.HighThreshold,
		},
		Data: DataConfig{
			Interval: string(model.Interval1d),
			Bars:     60,
			CacheTTL: time.Hour,
		},
		Scanner: ScannerConfig{
			Workers:      4,
			Timeout:      2 * time.Minute,
			FetchTimeout: 30 * time.Second,
		},
		Watchlist: WatchlistConfig{
			File:     "watchlist.yaml",
			Defaults: append([]string(nil), watchlist.FavoriteSymbols...),
		},
		Refresh: RefreshConfig{Schedule: "@every 15m"},
		Web:     WebConfig{Port: 8080},
		Log:     LogConfig{Level: "info"},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		c.API.Finnhub.Key = key
	}
	if file := os.Getenv("NEXUSFLOW_WATCHLIST"); file != "" {
		c.Watchlist.File = file
	}
	if level := os.Getenv("NEXUSFLOW_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// EngineParams maps the engine section onto analyzer parameters
func (c *Config) EngineParams() analyzer.Params {
	return analyzer.Params{
		PressureWindow:   c.Engine.PressureWindow,
		Weighting:        analyzer.Weighting(c.Engine.Weighting),
		Neighborhood:     c.Engine.Neighborhood,
		MaxLevelsPerSide: c.Engine.MaxLevelsPerSide,
		Horizon:          c.Engine.Horizon,
		MAPeriod:         c.Engine.MAPeriod,
		DirectionSource:  analyzer.DirectionSource(c.Engine.DirectionSource),
		FlatTolerancePct: c.Engine.FlatTolerancePct,
		SlopeTolerance:   c.Engine.SlopeTolerance,
		HighThreshold:    c.Engine.HighThreshold,
	}
}

// Interval returns the parsed data interval
func (c *Config) Interval() (model.Interval, error) {
	return model.ParseInterval(c.Data.Interval)
}

// Validate checks if the configuration is valid, reporting every problem
func (c *Config) Validate() error {
	errs := c.EngineParams().Validate()

	if _, err := c.Interval(); err != nil {
		errs = errors.Join(errs, err)
	}
	if c.Data.Bars < 2 {
		errs = errors.Join(errs, fmt.Errorf("data.bars must be at least 2, got %d", c.Data.Bars))
	}
	if c.Data.CacheTTL < 0 {
		errs = errors.Join(errs, fmt.Errorf("data.cache_ttl must not be negative"))
	}
	if c.Scanner.Workers < 1 {
		errs = errors.Join(errs, fmt.Errorf("scanner.workers must be at least 1"))
	}
	if c.Scanner.Timeout <= 0 || c.Scanner.FetchTimeout <= 0 {
		errs = errors.Join(errs, fmt.Errorf("scanner timeouts must be positive"))
	}
	if c.API.Yahoo.RateLimit < 1 || (c.API.Finnhub.Key != "" && c.API.Finnhub.RateLimit < 1) {
		errs = errors.Join(errs, fmt.Errorf("provider rate limits must be at least 1 per minute"))
	}
	for _, sym := range c.Watchlist.Defaults {
		if _, err := watchlist.Normalize(sym); err != nil {
			errs = errors.Join(errs, fmt.Errorf("watchlist.defaults: %w", err))
		}
	}
	if c.Refresh.Schedule != "" {
		if _, err := cron.ParseStandard(c.Refresh.Schedule); err != nil {
			errs = errors.Join(errs, fmt.Errorf("refresh.schedule: %w", err))
		}
	}
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		errs = errors.Join(errs, fmt.Errorf("web.port must be in 1-65535, got %d", c.Web.Port))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}
