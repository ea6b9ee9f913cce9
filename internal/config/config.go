// Package config provides configuration management for the dashboard core.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/Raghuak/algo-trading-ui/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Feed    FeedConfig    `mapstructure:"feed"`
	Risk    RiskConfig    `mapstructure:"risk"`
	Buffers BufferConfig  `mapstructure:"buffers"`
	Publish PublishConfig `mapstructure:"publish"`
}

// FeedConfig holds stream transport configuration.
type FeedConfig struct {
	// Endpoint is the websocket URL of the live feed. Empty means the
	// synthetic backend is used.
	Endpoint string `mapstructure:"endpoint"`
	// Synthetic forces the synthetic backend even when an endpoint is
	// configured.
	Synthetic bool `mapstructure:"synthetic"`
	// Instruments is the fixed instrument set.
	Instruments []string `mapstructure:"instruments"`
	// BasePrices seeds the synthetic random walk per instrument.
	BasePrices map[string]float64 `mapstructure:"base_prices"`
	// HeartbeatInterval is the keep-alive period while connected.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// RiskConfig holds risk threshold configuration.
type RiskConfig struct {
	DailyLossLimit    float64 `mapstructure:"daily_loss_limit"`
	MarginWarnPercent float64 `mapstructure:"margin_warn_percent"`
}

// BufferConfig holds history buffer capacities.
type BufferConfig struct {
	Signals int `mapstructure:"signals"`
	Trades  int `mapstructure:"trades"`
	Logs    int `mapstructure:"logs"`
}

// PublishConfig holds publication throttle configuration.
type PublishConfig struct {
	// RatePerSecond bounds snapshot publications; 4 means one publish
	// per 250ms at most.
	RatePerSecond int `mapstructure:"rate_per_second"`
}

// Interval returns the minimum gap between publications.
func (p PublishConfig) Interval() time.Duration {
	rate := p.RatePerSecond
	if rate <= 0 {
		rate = 4
	}
	return time.Second / time.Duration(rate)
}

// Instruments returns the configured instrument set as typed values.
func (f FeedConfig) InstrumentSet() []models.Instrument {
	if len(f.Instruments) == 0 {
		return models.DefaultInstruments
	}
	out := make([]models.Instrument, 0, len(f.Instruments))
	for _, name := range f.Instruments {
		out = append(out, models.Instrument(name))
	}
	return out
}

// UseSynthetic reports whether the synthetic backend should run.
func (f FeedConfig) UseSynthetic() bool {
	return f.Synthetic || f.Endpoint == ""
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/algo-trading-ui"
	}
	return filepath.Join(home, ".config", "algo-trading-ui")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Feed: FeedConfig{
			Instruments: []string{string(models.Nifty), string(models.BankNifty)},
			BasePrices: map[string]float64{
				string(models.Nifty):     22450,
				string(models.BankNifty): 48200,
			},
			HeartbeatInterval: 15 * time.Second,
		},
		Risk: RiskConfig{
			DailyLossLimit:    25000,
			MarginWarnPercent: 90,
		},
		Buffers: BufferConfig{
			Signals: 500,
			Trades:  1000,
			Logs:    200,
		},
		Publish: PublishConfig{
			RatePerSecond: 4,
		},
	}
}

// Load loads configuration from the specified directory, falling back
// to defaults when no config file exists. If configDir is empty, the
// default config directory is used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	def := Default()
	v.SetDefault("feed.endpoint", "")
	v.SetDefault("feed.synthetic", false)
	v.SetDefault("feed.instruments", def.Feed.Instruments)
	v.SetDefault("feed.base_prices", def.Feed.BasePrices)
	v.SetDefault("feed.heartbeat_interval", def.Feed.HeartbeatInterval)
	v.SetDefault("risk.daily_loss_limit", def.Risk.DailyLossLimit)
	v.SetDefault("risk.margin_warn_percent", def.Risk.MarginWarnPercent)
	v.SetDefault("buffers.signals", def.Buffers.Signals)
	v.SetDefault("buffers.trades", def.Buffers.Trades)
	v.SetDefault("buffers.logs", def.Buffers.Logs)
	v.SetDefault("publish.rate_per_second", def.Publish.RatePerSecond)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DASHBOARD_FEED_ENDPOINT"); v != "" {
		cfg.Feed.Endpoint = v
	}
	if v := os.Getenv("DASHBOARD_FEED_SYNTHETIC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Feed.Synthetic = b
		}
	}
	if v := os.Getenv("DASHBOARD_DAILY_LOSS_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.DailyLossLimit = f
		}
	}
	if v := os.Getenv("DASHBOARD_MARGIN_WARN_PERCENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.MarginWarnPercent = f
		}
	}
}

// Validate validates the configuration. Invalid thresholds fail fast
// at startup rather than being recovered silently.
func (c *Config) Validate() error {
	if c.Risk.DailyLossLimit <= 0 {
		return fmt.Errorf("daily_loss_limit must be positive, got %v", c.Risk.DailyLossLimit)
	}
	if c.Risk.MarginWarnPercent <= 0 || c.Risk.MarginWarnPercent > 100 {
		return fmt.Errorf("margin_warn_percent must be in (0, 100], got %v", c.Risk.MarginWarnPercent)
	}
	if c.Buffers.Signals < 1 || c.Buffers.Trades < 1 || c.Buffers.Logs < 1 {
		return fmt.Errorf("buffer capacities must be at least 1")
	}
	if c.Publish.RatePerSecond < 1 || c.Publish.RatePerSecond > 1000 {
		return fmt.Errorf("publish rate_per_second must be in [1, 1000], got %d", c.Publish.RatePerSecond)
	}
	if len(c.Feed.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	return nil
}
