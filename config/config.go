// Package config loads and validates replay run configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Config is the complete configuration for one replay run.
type Config struct {
	Data     DataConfig     `json:"data" yaml:"data"`
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger"`
	Parallel ParallelConfig `json:"parallel,omitempty" yaml:"parallel,omitempty"`
}

// DataConfig tells the loader where the bars come from.
type DataConfig struct {
	Path  string `json:"path" yaml:"path"`                   // CSV or SQLite file
	Start string `json:"start,omitempty" yaml:"start,omitempty"` // YYYY-MM-DD, empty = earliest
	End   string `json:"end,omitempty" yaml:"end,omitempty"`     // YYYY-MM-DD, empty = latest
}

// AccountConfig contains portfolio initialization parameters.
type AccountConfig struct {
	InitialCash   float64 `json:"initial_cash" yaml:"initial_cash"`
	BrokerageRate float64 `json:"brokerage_rate" yaml:"brokerage_rate"`
	FlatFee       float64 `json:"flat_fee" yaml:"flat_fee"`
}

// StrategyConfig names the strategy and carries its tunables.
type StrategyConfig struct {
	Name       string  `json:"name" yaml:"name"`
	Fast       int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow       int     `json:"slow,omitempty" yaml:"slow,omitempty"`
	StopPct    float64 `json:"stop_pct,omitempty" yaml:"stop_pct,omitempty"`
	RiskReward float64 `json:"risk_reward,omitempty" yaml:"risk_reward,omitempty"`
	Quantity   float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Lookback   int     `json:"lookback,omitempty" yaml:"lookback,omitempty"`
}

// LedgerConfig selects trade persistence sinks. Empty paths disable a sink.
type LedgerConfig struct {
	TradesCSV string `json:"trades_csv,omitempty" yaml:"trades_csv,omitempty"`
	JournalDB string `json:"journal_db,omitempty" yaml:"journal_db,omitempty"`
}

// ParallelConfig controls the symbol-sharded fan-out. Workers <= 1 runs a
// single session.
type ParallelConfig struct {
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file, YAML by extension, otherwise
// indented JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration before a run starts.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	if _, err := c.StartDate(); err != nil {
		return err
	}
	end, err := c.EndDate()
	if err != nil {
		return err
	}
	if start, _ := c.StartDate(); !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("data.end %s is before data.start %s", c.Data.End, c.Data.Start)
	}
	if c.Account.InitialCash <= 0 {
		return fmt.Errorf("account.initial_cash must be positive")
	}
	if c.Account.BrokerageRate < 0 || c.Account.BrokerageRate >= 1 {
		return fmt.Errorf("account.brokerage_rate must be in [0,1)")
	}
	if c.Account.FlatFee < 0 {
		return fmt.Errorf("account.flat_fee must not be negative")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Parallel.Workers < 0 {
		return fmt.Errorf("parallel.workers must not be negative")
	}
	return nil
}

// StartDate parses the configured start date; zero time when unset.
func (c *Config) StartDate() (time.Time, error) {
	return parseDate("data.start", c.Data.Start)
}

// EndDate parses the configured end date; zero time when unset.
func (c *Config) EndDate() (time.Time, error) {
	return parseDate("data.end", c.Data.End)
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: bad date %q (want YYYY-MM-DD)", field, value)
	}
	return t, nil
}

// Default returns a configuration with sensible defaults: the reference
// brokerage profile and the EMA crossover strategy.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialCash:   100_000,
			BrokerageRate: 0.0005,
			FlatFee:       15.93,
		},
		Strategy: StrategyConfig{
			Name:       "ema-cross",
			Fast:       5,
			Slow:       20,
			StopPct:    0.02,
			RiskReward: 2.0,
			Quantity:   1,
			Lookback:   5,
		},
		Ledger: LedgerConfig{
			TradesCSV: "./tradebook.csv",
		},
	}
}
