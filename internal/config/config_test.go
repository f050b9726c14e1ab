package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Engine.PCRRule != PCRRulePriceAndDeltaOI {
		t.Errorf("default pcr_rule = %s", cfg.Engine.PCRRule)
	}
	if cfg.Engine.SupportResistanceK != 3 {
		t.Errorf("default support_resistance_k = %d", cfg.Engine.SupportResistanceK)
	}
	if cfg.Engine.SnapshotMinGapSeconds != 60 {
		t.Errorf("default snapshot_min_gap_seconds = %d", cfg.Engine.SnapshotMinGapSeconds)
	}
	if cfg.Trading.StartingBalance != 1000000 {
		t.Errorf("default starting_balance = %v", cfg.Trading.StartingBalance)
	}
	if !cfg.Trading.AllowShort {
		t.Error("allow_short should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadWritesTemplate(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.PCRRule != PCRRulePriceAndDeltaOI {
		t.Errorf("loaded pcr_rule = %s", cfg.Engine.PCRRule)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("template config.toml not written: %v", err)
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[engine]
pcr_rule = "simple-threshold"
support_resistance_k = 5

[trading]
account = "demo"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.PCRRule != PCRRuleSimpleThreshold {
		t.Errorf("pcr_rule = %s, want simple-threshold", cfg.Engine.PCRRule)
	}
	if cfg.Engine.SupportResistanceK != 5 {
		t.Errorf("support_resistance_k = %d, want 5", cfg.Engine.SupportResistanceK)
	}
	if cfg.Trading.Account != "demo" {
		t.Errorf("account = %s, want demo", cfg.Trading.Account)
	}
	// Untouched keys keep defaults.
	if cfg.Engine.PollIntervalSeconds != 60 {
		t.Errorf("poll_interval_seconds = %d, want default 60", cfg.Engine.PollIntervalSeconds)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPTIONCHAIN_ACCOUNT", "env-acct")
	t.Setenv("OPTIONCHAIN_PCR_RULE", PCRRuleSimpleThreshold)

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Trading.Account != "env-acct" {
		t.Errorf("account = %s, want env override", cfg.Trading.Account)
	}
	if cfg.Engine.PCRRule != PCRRuleSimpleThreshold {
		t.Errorf("pcr_rule = %s, want env override", cfg.Engine.PCRRule)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero k", func(c *Config) { c.Engine.SupportResistanceK = 0 }},
		{"negative gap", func(c *Config) { c.Engine.SnapshotMinGapSeconds = -1 }},
		{"threshold too large", func(c *Config) { c.Engine.CrossoverThresholdRatio = 1.0 }},
		{"unknown rule", func(c *Config) { c.Engine.PCRRule = "sideways-only" }},
		{"zero poll interval", func(c *Config) { c.Engine.PollIntervalSeconds = 0 }},
		{"empty account", func(c *Config) { c.Trading.Account = "" }},
		{"negative balance", func(c *Config) { c.Trading.StartingBalance = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}
