// Package config handles lifedesk configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/logging"
)

// Environment overrides
const (
	EnvDataDir      = "LIFEDESK_DATA_DIR"
	EnvLogLevel     = "LIFEDESK_LOG_LEVEL"
	EnvGoogleID     = "GOOGLE_CLIENT_ID"
	EnvGoogleSecret = "GOOGLE_CLIENT_SECRET"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Server
	Server ServerConfig `json:"server" yaml:"server"`

	// Storage
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Calendar views
	Calendar CalendarConfig `json:"calendar" yaml:"calendar"`

	// Recurring expenses
	Expenses ExpenseConfig `json:"expenses" yaml:"expenses"`

	// Google Calendar import
	Google GoogleConfig `json:"google" yaml:"google"`

	LogLevel string `json:"log_level" yaml:"log_level"`
}

// ServerConfig for HTTP server
type ServerConfig struct {
	Port int    `json:"port" yaml:"port"`
	Host string `json:"host" yaml:"host"`
}

// DatabaseConfig selects the SQLite driver.
type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"` // "sqlite" (pure Go) or "sqlite3" (cgo)
}

// CalendarConfig holds view settings shared by every calendar surface.
type CalendarConfig struct {
	DefaultView       string           `json:"default_view" yaml:"default_view"`
	DayStartHour      int              `json:"day_start_hour" yaml:"day_start_hour"`
	DayEndHour        int              `json:"day_end_hour" yaml:"day_end_hour"`
	QuarterHourPx     float64          `json:"quarter_hour_px" yaml:"quarter_hour_px"`
	NowRefreshSeconds int              `json:"now_refresh_seconds" yaml:"now_refresh_seconds"`
	Filters           calendar.Filters `json:"filters" yaml:"filters"`
}

// ExpenseConfig controls recurring expense materialization.
type ExpenseConfig struct {
	HorizonMonths   int    `json:"horizon_months" yaml:"horizon_months"`
	MaterializeCron string `json:"materialize_cron" yaml:"materialize_cron"`
}

// GoogleConfig for Google Calendar import. Credentials come from the
// environment and are never written to disk.
type GoogleConfig struct {
	ClientID     string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	CalendarID   string `json:"calendar_id" yaml:"calendar_id"`
	ImportDays   int    `json:"import_days" yaml:"import_days"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()
	grid := calendar.DefaultGrid()

	return &Config{
		DataDir: filepath.Join(home, ".lifedesk"),
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Calendar: CalendarConfig{
			DefaultView:       string(calendar.GranularityWeek),
			DayStartHour:      grid.StartHour,
			DayEndHour:        grid.EndHour,
			QuarterHourPx:     grid.QuarterHourPx,
			NowRefreshSeconds: int(calendar.DefaultNowRefresh / time.Second),
			Filters:           calendar.DefaultFilters(),
		},
		Expenses: ExpenseConfig{
			HorizonMonths:   12,
			MaterializeCron: "0 */6 * * *",
		},
		Google: GoogleConfig{
			ClientID:     os.Getenv(EnvGoogleID),
			ClientSecret: os.Getenv(EnvGoogleSecret),
			CalendarID:   "primary",
			ImportDays:   30,
		},
		LogLevel: "info",
	}
}

// Path returns the default config file location inside the data directory.
func (c *Config) Path() string {
	return filepath.Join(c.DataDir, "config.json")
}

// DatabasePath returns the SQLite file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "lifedesk.db")
}

// Load loads config from file, falling back to defaults. Files ending in
// .yaml or .yml are read as YAML, anything else as JSON.
func Load(path string) (*Config, error) {
	cfg := Default()
	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.DataDir = dir
	}

	if path == "" {
		path = cfg.Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			cfg.Normalize()
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.Normalize()
	return cfg, nil
}

// applyEnv lets the environment override file settings.
func (c *Config) applyEnv() {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = dir
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	if id := os.Getenv(EnvGoogleID); id != "" {
		c.Google.ClientID = id
	}
	if secret := os.Getenv(EnvGoogleSecret); secret != "" {
		c.Google.ClientSecret = secret
	}
}

// Normalize replaces invalid values with defaults so partially filled or
// hand-edited files still behave.
func (c *Config) Normalize() {
	def := Default()

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	switch c.Database.Driver {
	case "sqlite", "sqlite3":
	default:
		c.Database.Driver = def.Database.Driver
	}

	if _, err := calendar.ParseGranularity(c.Calendar.DefaultView); err != nil {
		c.Calendar.DefaultView = def.Calendar.DefaultView
	}
	grid := c.Calendar.Grid()
	c.Calendar.DayStartHour = grid.StartHour
	c.Calendar.DayEndHour = grid.EndHour
	c.Calendar.QuarterHourPx = grid.QuarterHourPx
	if c.Calendar.NowRefreshSeconds <= 0 || c.Calendar.NowRefreshSeconds >= 60 {
		c.Calendar.NowRefreshSeconds = def.Calendar.NowRefreshSeconds
	}

	if c.Expenses.HorizonMonths <= 0 {
		c.Expenses.HorizonMonths = def.Expenses.HorizonMonths
	}
	if c.Google.CalendarID == "" {
		c.Google.CalendarID = def.Google.CalendarID
	}
	if c.Google.ImportDays <= 0 {
		c.Google.ImportDays = def.Google.ImportDays
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		c.LogLevel = def.LogLevel
	}
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = c.Path()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	// Don't save credentials to file
	safeCfg := *c
	safeCfg.Google.ClientID = ""
	safeCfg.Google.ClientSecret = ""

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(safeCfg)
	} else {
		data, err = json.MarshalIndent(safeCfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Grid returns the time grid described by the calendar settings.
func (c CalendarConfig) Grid() calendar.Grid {
	return calendar.Grid{
		StartHour:     c.DayStartHour,
		EndHour:       c.DayEndHour,
		QuarterHourPx: c.QuarterHourPx,
	}.Normalize()
}

// View returns the configured default granularity.
func (c CalendarConfig) View() calendar.Granularity {
	g, err := calendar.ParseGranularity(c.DefaultView)
	if err != nil {
		return calendar.GranularityWeek
	}
	return g
}

// NowRefresh returns the now-indicator refresh interval.
func (c CalendarConfig) NowRefresh() time.Duration {
	return time.Duration(c.NowRefreshSeconds) * time.Second
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
