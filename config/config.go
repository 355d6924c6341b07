package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/fees"
	"github.com/rustyeddy/backtester/market"
)

// Config represents the complete backtester configuration
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Fees     FeesConfig     `json:"fees" yaml:"fees"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Currency    string  `json:"currency" yaml:"currency"`
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
}

// BacktestConfig contains the per-run defaults
type BacktestConfig struct {
	Symbol       string  `json:"symbol" yaml:"symbol"`
	Strategy     string  `json:"strategy" yaml:"strategy"`
	Resolution   string  `json:"resolution" yaml:"resolution"`
	SlippageRate float64 `json:"slippage_rate,omitempty" yaml:"slippage_rate,omitempty"`
	Start        string  `json:"start" yaml:"start"` // RFC3339
	End          string  `json:"end" yaml:"end"`     // RFC3339
}

// FeesConfig defines the fee schedule. Rates are strings so they parse as
// exact decimals, not floats.
type FeesConfig struct {
	Components []FeeComponentConfig `json:"components" yaml:"components"`
	Exempt     []string             `json:"exempt,omitempty" yaml:"exempt,omitempty"`
}

// FeeComponentConfig is one named fee in the schedule
type FeeComponentConfig struct {
	Name       string `json:"name" yaml:"name"`
	Rate       string `json:"rate" yaml:"rate"`
	Minimum    string `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Decimals   int32  `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	SellOnly   bool   `json:"sell_only,omitempty" yaml:"sell_only,omitempty"`
	CeilToUnit bool   `json:"ceil_to_unit,omitempty" yaml:"ceil_to_unit,omitempty"`
	Exemptible bool   `json:"exemptible,omitempty" yaml:"exemptible,omitempty"`
}

// DataConfig selects the historical-data backend
type DataConfig struct {
	Backend string `json:"backend" yaml:"backend"` // "csv", "sqlite", or "parquet"
	Path    string `json:"path" yaml:"path"`
}

// LoggingConfig contains logging parameters
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
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

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.InitialCash <= 0 {
		return fmt.Errorf("account.initial_cash must be positive")
	}
	if c.Backtest.Symbol == "" {
		return fmt.Errorf("backtest.symbol is required")
	}
	if c.Backtest.Strategy == "" {
		return fmt.Errorf("backtest.strategy is required")
	}
	if market.Resolution(c.Backtest.Resolution).Duration() == 0 {
		return fmt.Errorf("unknown backtest.resolution: %s", c.Backtest.Resolution)
	}
	if c.Backtest.SlippageRate < 0 || c.Backtest.SlippageRate >= 1 {
		return fmt.Errorf("backtest.slippage_rate must be in [0, 1)")
	}
	if _, _, err := c.Window(); err != nil {
		return err
	}
	if len(c.Fees.Components) == 0 {
		return fmt.Errorf("fees.components must not be empty")
	}
	for _, fc := range c.Fees.Components {
		if fc.Name == "" {
			return fmt.Errorf("fee component name is required")
		}
		rate, err := decimal.NewFromString(fc.Rate)
		if err != nil {
			return fmt.Errorf("fee component %s: bad rate %q", fc.Name, fc.Rate)
		}
		if rate.Sign() < 0 {
			return fmt.Errorf("fee component %s: rate must not be negative", fc.Name)
		}
		if fc.Minimum != "" {
			if _, err := decimal.NewFromString(fc.Minimum); err != nil {
				return fmt.Errorf("fee component %s: bad minimum %q", fc.Name, fc.Minimum)
			}
		}
	}
	switch c.Data.Backend {
	case "csv", "sqlite", "parquet":
	default:
		return fmt.Errorf("data.backend must be 'csv', 'sqlite', or 'parquet'")
	}
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	return nil
}

// Window parses the configured start/end into a time range.
func (c *Config) Window() (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, c.Backtest.Start)
	if err != nil {
		return start, end, fmt.Errorf("backtest.start: %w", err)
	}
	end, err = time.Parse(time.RFC3339, c.Backtest.End)
	if err != nil {
		return start, end, fmt.Errorf("backtest.end: %w", err)
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("backtest.start must be before backtest.end")
	}
	return start, end, nil
}

// Schedule builds the fee schedule from the validated config.
func (c *Config) Schedule() (*fees.Schedule, error) {
	components := make([]fees.Component, 0, len(c.Fees.Components))
	for _, fc := range c.Fees.Components {
		rate, err := decimal.NewFromString(fc.Rate)
		if err != nil {
			return nil, fmt.Errorf("fee component %s: bad rate %q", fc.Name, fc.Rate)
		}
		min := decimal.Zero
		if fc.Minimum != "" {
			min, err = decimal.NewFromString(fc.Minimum)
			if err != nil {
				return nil, fmt.Errorf("fee component %s: bad minimum %q", fc.Name, fc.Minimum)
			}
		}
		components = append(components, fees.Component{
			Name:       fc.Name,
			Rate:       rate,
			Minimum:    min,
			Decimals:   fc.Decimals,
			SellOnly:   fc.SellOnly,
			CeilToUnit: fc.CeilToUnit,
			Exemptible: fc.Exemptible,
		})
	}
	return fees.NewSchedule(components, c.Fees.Exempt), nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	components := make([]FeeComponentConfig, 0, 3)
	for _, fc := range fees.DefaultComponents() {
		cc := FeeComponentConfig{
			Name:       fc.Name,
			Rate:       fc.Rate.String(),
			Decimals:   fc.Decimals,
			SellOnly:   fc.SellOnly,
			CeilToUnit: fc.CeilToUnit,
			Exemptible: fc.Exemptible,
		}
		if fc.Minimum.Sign() > 0 {
			cc.Minimum = fc.Minimum.String()
		}
		components = append(components, cc)
	}

	return &Config{
		Account: AccountConfig{
			Currency:    "USD",
			InitialCash: 100000,
		},
		Backtest: BacktestConfig{
			Symbol:     "2330",
			Strategy:   "ma-cross",
			Resolution: string(market.Day1),
			Start:      "2024-01-01T00:00:00Z",
			End:        "2025-01-01T00:00:00Z",
		},
		Fees: FeesConfig{
			Components: components,
		},
		Data: DataConfig{
			Backend: "csv",
			Path:    "./bars.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
