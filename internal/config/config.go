// Package config loads the monitor configuration from YAML with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/superself/amazon-monitor/internal/models"
)

// Config holds all configuration for one batch run.
type Config struct {
	Credentials  string            `yaml:"credentials"`
	UpdateOffset int               `yaml:"update_offset"`
	InputDir     string            `yaml:"input_dir"`
	Spreadsheets SpreadsheetConfig `yaml:"spreadsheets"`
	Helium       HeliumConfig      `yaml:"helium"`
	Ranges       RangesConfig      `yaml:"ranges"`
}

// SpreadsheetConfig holds the registry spreadsheet key plus one key per region.
type SpreadsheetConfig struct {
	Products string `yaml:"products"`
	UK       string `yaml:"uk"`
	US       string `yaml:"us"`
	FR       string `yaml:"fr"`
	IT       string `yaml:"it"`
	ES       string `yaml:"es"`
	DE       string `yaml:"de"`
}

// ByRegion returns the spreadsheet key for a region.
func (c SpreadsheetConfig) ByRegion(region models.Region) string {
	switch region {
	case models.RegionUK:
		return c.UK
	case models.RegionUS:
		return c.US
	case models.RegionFR:
		return c.FR
	case models.RegionIT:
		return c.IT
	case models.RegionES:
		return c.ES
	case models.RegionDE:
		return c.DE
	}
	return ""
}

// HeliumConfig holds Helium 10 (Pacvue) API configuration.
type HeliumConfig struct {
	AccountID      int    `yaml:"account_id"`
	AuthToken      string `yaml:"auth_token"`
	PacvueToken    string `yaml:"pacvue_token"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Concurrency    int    `yaml:"concurrency"`
}

// Timeout returns the configured per-request timeout as a duration.
func (c HeliumConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ColumnPair is an inclusive start/end column span within a product sheet.
type ColumnPair struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// SellerboardRanges holds the write spans for the two Sellerboard snapshots.
// The historical span is one column wider: it carries the legacy margin formula.
type SellerboardRanges struct {
	Current    ColumnPair `yaml:"current"`
	Historical ColumnPair `yaml:"historical"`
}

// BusinessRanges holds the Business Report sheet layout: the append span
// on the region-level sheet, the per-product historical units column, and
// the region-level sheet titles.
type BusinessRanges struct {
	Current          ColumnPair        `yaml:"current"`
	HistoricalColumn string            `yaml:"historical_column"`
	Titles           map[string]string `yaml:"titles"`
}

// TitleByRegion returns the region-level Business sheet title.
func (b BusinessRanges) TitleByRegion(region models.Region) string {
	if t, ok := b.Titles[string(region)]; ok {
		return t
	}
	return "Business " + string(region)
}

// RangesConfig describes where each metric group lands in the sheets.
type RangesConfig struct {
	Sellerboard SellerboardRanges `yaml:"sellerboard"`
	Sns         ColumnPair        `yaml:"sns"`
	Campaigns   ColumnPair        `yaml:"campaigns"`
	Business    BusinessRanges    `yaml:"business"`
	HeliumStart string            `yaml:"helium_start"`
}

// Load reads and parses the configuration file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Defaults
	if cfg.UpdateOffset == 0 {
		cfg.UpdateOffset = 3
	}
	if cfg.Helium.BaseURL == "" {
		cfg.Helium.BaseURL = "https://h10api.pacvue.com"
	}
	if cfg.Helium.TimeoutSeconds == 0 {
		cfg.Helium.TimeoutSeconds = 30
	}
	if cfg.Helium.Concurrency == 0 {
		cfg.Helium.Concurrency = 10
	}
	if cfg.Ranges.Sellerboard.Current.Start == "" {
		cfg.Ranges.Sellerboard.Current = ColumnPair{Start: "AI", End: "AJ"}
	}
	if cfg.Ranges.Sellerboard.Historical.Start == "" {
		cfg.Ranges.Sellerboard.Historical = ColumnPair{Start: "AI", End: "AK"}
	}
	if cfg.Ranges.Sns.Start == "" {
		cfg.Ranges.Sns = ColumnPair{Start: "AL", End: "AM"}
	}
	if cfg.Ranges.Campaigns.Start == "" {
		cfg.Ranges.Campaigns = ColumnPair{Start: "AB", End: "AG"}
	}
	if cfg.Ranges.Business.Current.Start == "" {
		cfg.Ranges.Business.Current = ColumnPair{Start: "A", End: "J"}
	}
	if cfg.Ranges.Business.HistoricalColumn == "" {
		cfg.Ranges.Business.HistoricalColumn = "F"
	}
	if cfg.Ranges.HeliumStart == "" {
		cfg.Ranges.HeliumStart = "AN"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars on the scheduler host.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.Credentials = v
	}
	if v := os.Getenv("HELIUM_AUTH_TOKEN"); v != "" {
		cfg.Helium.AuthToken = v
	}
	if v := os.Getenv("HELIUM_PACVUE_TOKEN"); v != "" {
		cfg.Helium.PacvueToken = v
	}
	if v := os.Getenv("HELIUM_ACCOUNT_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("HELIUM_ACCOUNT_ID: %w", err)
		}
		cfg.Helium.AccountID = id
	}
	if v := os.Getenv("MONITOR_INPUT_DIR"); v != "" {
		cfg.InputDir = v
	}

	return cfg, nil
}
