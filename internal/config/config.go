// Package config provides configuration management for the analytics engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Trading TradingConfig `mapstructure:"trading"`
	Log     LogConfig     `mapstructure:"log"`
}

// EngineConfig holds metrics and sampling configuration.
type EngineConfig struct {
	SupportResistanceK      int     `mapstructure:"support_resistance_k"`
	SnapshotMinGapSeconds   int     `mapstructure:"snapshot_min_gap_seconds"`
	CrossoverThresholdRatio float64 `mapstructure:"crossover_threshold_ratio"`
	PCRRule                 string  `mapstructure:"pcr_rule"` // "simple-threshold", "price-and-delta-oi"
	PollIntervalSeconds     int     `mapstructure:"poll_interval_seconds"`
	Symbols                 []string `mapstructure:"symbols"`
}

// TradingConfig holds paper-trading ledger configuration.
type TradingConfig struct {
	Account         string  `mapstructure:"account"`
	StartingBalance float64 `mapstructure:"starting_balance"`
	AllowShort      bool    `mapstructure:"allow_short"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// PCR rule names recognized by the signal engine.
const (
	PCRRuleSimpleThreshold = "simple-threshold"
	PCRRulePriceAndDeltaOI = "price-and-delta-oi"
)

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/optionchain-trader"
	}
	return filepath.Join(home, ".config", "optionchain-trader")
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			SupportResistanceK:      3,
			SnapshotMinGapSeconds:   60,
			CrossoverThresholdRatio: 0.1,
			PCRRule:                 PCRRulePriceAndDeltaOI,
			PollIntervalSeconds:     60,
			Symbols:                 []string{"NIFTY", "BANKNIFTY"},
		},
		Trading: TradingConfig{
			Account:         "default",
			StartingBalance: 1000000, // 10 lakhs
			AllowShort:      true,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// No config file yet, write the template so defaults are discoverable.
		if err := writeTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
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

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("engine.support_resistance_k", d.Engine.SupportResistanceK)
	v.SetDefault("engine.snapshot_min_gap_seconds", d.Engine.SnapshotMinGapSeconds)
	v.SetDefault("engine.crossover_threshold_ratio", d.Engine.CrossoverThresholdRatio)
	v.SetDefault("engine.pcr_rule", d.Engine.PCRRule)
	v.SetDefault("engine.poll_interval_seconds", d.Engine.PollIntervalSeconds)
	v.SetDefault("engine.symbols", d.Engine.Symbols)
	v.SetDefault("trading.account", d.Trading.Account)
	v.SetDefault("trading.starting_balance", d.Trading.StartingBalance)
	v.SetDefault("trading.allow_short", d.Trading.AllowShort)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("log.file", d.Log.File)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPTIONCHAIN_ACCOUNT"); v != "" {
		cfg.Trading.Account = v
	}
	if v := os.Getenv("OPTIONCHAIN_PCR_RULE"); v != "" {
		cfg.Engine.PCRRule = v
	}
	if v := os.Getenv("OPTIONCHAIN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.SupportResistanceK <= 0 {
		return fmt.Errorf("support_resistance_k must be positive")
	}
	if c.Engine.SnapshotMinGapSeconds < 0 {
		return fmt.Errorf("snapshot_min_gap_seconds must be non-negative")
	}
	if c.Engine.CrossoverThresholdRatio < 0 || c.Engine.CrossoverThresholdRatio >= 1 {
		return fmt.Errorf("crossover_threshold_ratio must be in [0, 1)")
	}
	if c.Engine.PCRRule != PCRRuleSimpleThreshold && c.Engine.PCRRule != PCRRulePriceAndDeltaOI {
		return fmt.Errorf("invalid pcr_rule: %s (must be %q or %q)",
			c.Engine.PCRRule, PCRRuleSimpleThreshold, PCRRulePriceAndDeltaOI)
	}
	if c.Engine.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll_interval_seconds must be positive")
	}
	if c.Trading.Account == "" {
		return fmt.Errorf("trading account must not be empty")
	}
	if c.Trading.StartingBalance < 0 {
		return fmt.Errorf("starting_balance must be non-negative")
	}
	return nil
}

func writeTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}

const configTemplate = `# optionchain-trader configuration

[engine]
# Number of strikes reported as support/resistance levels.
support_resistance_k = 3
# Minimum gap between stored intraday OI samples.
snapshot_min_gap_seconds = 60
# Threshold for the near-crossover OI ratio detector.
crossover_threshold_ratio = 0.1
# Signal strategy: "simple-threshold" or "price-and-delta-oi".
pcr_rule = "price-and-delta-oi"
poll_interval_seconds = 60
symbols = ["NIFTY", "BANKNIFTY"]

[trading]
account = "default"
starting_balance = 1000000.0
# When false, SELL trades that would exceed the net long position are rejected.
allow_short = true

[log]
level = "info"
console = true
file = true
`
