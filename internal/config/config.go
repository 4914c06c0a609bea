// Package config loads the engine's runtime configuration: per-venue rate
// limits, strategy parameters, risk rule limits, and loop shutdown behavior.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the full configuration tree consumed by the core, per the
// table in SPEC_FULL.md §7.
type Config struct {
	PerVenue struct {
		RateLimit struct {
			RPS   float64 `mapstructure:"rps"`
			Burst int     `mapstructure:"burst"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"per_venue"`

	Strategy struct {
		CooldownMs int64 `mapstructure:"cooldown_ms"`

		MM struct {
			SpreadBps           float64 `mapstructure:"spread_bps"`
			MinSpreadBps        float64 `mapstructure:"min_spread_bps"`
			MaxSpreadBps        float64 `mapstructure:"max_spread_bps"`
			OrderSize           string  `mapstructure:"order_size"`
			MaxPosition         string  `mapstructure:"max_position"`
			TargetInventoryRatio float64 `mapstructure:"target_inventory_ratio"`
			RefreshSeconds      int64   `mapstructure:"refresh_seconds"`
			Levels              int     `mapstructure:"levels"`
			SkewCoeff           float64 `mapstructure:"skew_coeff"`
			TickSize            string  `mapstructure:"tick_size"`
		} `mapstructure:"mm"`

		Arb struct {
			MinProfitBps      float64 `mapstructure:"min_profit_bps"`
			OrderSize         string  `mapstructure:"order_size"`
			MaxPosition       string  `mapstructure:"max_position"`
			ExecutionTimeoutMs int64  `mapstructure:"execution_timeout_ms"`
			MaxBookAgeMs      int64   `mapstructure:"max_book_age_ms"`
		} `mapstructure:"arb"`
	} `mapstructure:"strategy"`

	Risk struct {
		MaxOrderSize    string  `mapstructure:"max_order_size"`
		MaxOrderValue   string  `mapstructure:"max_order_value"`
		MaxPosition     string  `mapstructure:"max_position"`
		MinBalanceFloor string  `mapstructure:"min_balance_floor"`
		DailyLossLimit  string  `mapstructure:"daily_loss_limit"`
		RateOfChangeBps float64 `mapstructure:"rate_of_change_bps"`
		RateOfChangeWindowMs int64 `mapstructure:"rate_of_change_window_ms"`
	} `mapstructure:"risk"`

	KillSwitch struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"killswitch"`

	Loop struct {
		GraceShutdownMs int64 `mapstructure:"grace_shutdown_ms"`
	} `mapstructure:"loop"`

	Monitoring struct {
		LogLevel     string `mapstructure:"log_level"`
		MetricsAddr  string `mapstructure:"metrics_addr"`
	} `mapstructure:"monitoring"`

	Runtime struct {
		GC GCConfig `mapstructure:"gc"`
	} `mapstructure:"runtime"`
}

// CooldownDuration returns the configured signal cooldown as a duration.
func (c *Config) CooldownDuration() time.Duration {
	return time.Duration(c.Strategy.CooldownMs) * time.Millisecond
}

// GraceShutdown returns the configured drain timeout as a duration.
func (c *Config) GraceShutdown() time.Duration {
	return time.Duration(c.Loop.GraceShutdownMs) * time.Millisecond
}

// Load reads config.yaml from the configPath directory (or from ".",
// "./config" and "/etc/hftcore" when configPath is empty), keeping the
// in-code defaults when no file is found. HFTCORE_-prefixed environment
// variables are consulted through viper.AutomaticEnv, which covers only
// keys present in the loaded file; no key replacer is set, so a nested
// key's variable name keeps its dots. Unlike the single-process singleton
// this replaces, Load returns
// a fresh *Config on every call so multiple engines can run side by side in
// tests.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/hftcore")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("HFTCORE")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.PerVenue.RateLimit.RPS = 20
	cfg.PerVenue.RateLimit.Burst = 40

	cfg.Strategy.CooldownMs = 50

	cfg.Strategy.MM.SpreadBps = 10
	cfg.Strategy.MM.MinSpreadBps = 2
	cfg.Strategy.MM.MaxSpreadBps = 100
	cfg.Strategy.MM.OrderSize = "0.01"
	cfg.Strategy.MM.MaxPosition = "1"
	cfg.Strategy.MM.TargetInventoryRatio = 0.5
	cfg.Strategy.MM.RefreshSeconds = 5
	cfg.Strategy.MM.Levels = 1
	cfg.Strategy.MM.SkewCoeff = 0.5
	cfg.Strategy.MM.TickSize = "0.01"

	cfg.Strategy.Arb.MinProfitBps = 5
	cfg.Strategy.Arb.OrderSize = "0.1"
	cfg.Strategy.Arb.MaxPosition = "1"
	cfg.Strategy.Arb.ExecutionTimeoutMs = 5000
	cfg.Strategy.Arb.MaxBookAgeMs = 2000

	cfg.Risk.MaxOrderSize = "10"
	cfg.Risk.MaxOrderValue = "10000"
	cfg.Risk.MaxPosition = "10"
	cfg.Risk.MinBalanceFloor = "0"
	cfg.Risk.DailyLossLimit = "1000"
	cfg.Risk.RateOfChangeBps = 500
	cfg.Risk.RateOfChangeWindowMs = 1000

	cfg.KillSwitch.Enabled = false

	cfg.Loop.GraceShutdownMs = 2000

	cfg.Monitoring.LogLevel = "info"
	cfg.Monitoring.MetricsAddr = ":9090"

	cfg.Runtime.GC.GCPercent = 200
	cfg.Runtime.GC.SoftMemoryLimitBytes = 0
	cfg.Runtime.GC.MonitorIntervalMs = 0
}

// NewLogger builds the zap logger selected by cfg.Monitoring.LogLevel.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	switch cfg.Monitoring.LogLevel {
	case "debug":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}
