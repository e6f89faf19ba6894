package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quantumlife/lifedesk/internal/calendar"
)

// clearEnv removes environment overrides for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDataDir, EnvLogLevel, EnvGoogleID, EnvGoogleSecret} {
		t.Setenv(key, "")
	}
}

// =============================================================================
// Default Config Tests
// =============================================================================

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}

	// Verify Server defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "localhost")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "sqlite")
	}

	// Verify Calendar defaults
	if cfg.Calendar.DefaultView != "week" {
		t.Errorf("Calendar.DefaultView = %q, want %q", cfg.Calendar.DefaultView, "week")
	}
	if cfg.Calendar.DayStartHour != 0 || cfg.Calendar.DayEndHour != 24 {
		t.Errorf("Calendar hours = %d..%d, want 0..24", cfg.Calendar.DayStartHour, cfg.Calendar.DayEndHour)
	}
	if cfg.Calendar.QuarterHourPx != 12 {
		t.Errorf("Calendar.QuarterHourPx = %v, want 12", cfg.Calendar.QuarterHourPx)
	}
	if cfg.Calendar.NowRefreshSeconds != 30 {
		t.Errorf("Calendar.NowRefreshSeconds = %d, want 30", cfg.Calendar.NowRefreshSeconds)
	}
	if cfg.Calendar.Filters != calendar.DefaultFilters() {
		t.Errorf("Calendar.Filters = %+v, want defaults", cfg.Calendar.Filters)
	}

	if cfg.Expenses.HorizonMonths != 12 {
		t.Errorf("Expenses.HorizonMonths = %d, want 12", cfg.Expenses.HorizonMonths)
	}
	if cfg.Google.CalendarID != "primary" {
		t.Errorf("Google.CalendarID = %q, want %q", cfg.Google.CalendarID, "primary")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestDefault_DataDir(t *testing.T) {
	cfg := Default()

	if !filepath.IsAbs(cfg.DataDir) {
		t.Error("DataDir should be an absolute path")
	}
	if filepath.Base(cfg.DataDir) != ".lifedesk" {
		t.Errorf("DataDir should end with .lifedesk, got %q", filepath.Base(cfg.DataDir))
	}
	if cfg.DatabasePath() != filepath.Join(cfg.DataDir, "lifedesk.db") {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
}

func TestDefault_GoogleCredentialsFromEnv(t *testing.T) {
	t.Setenv(EnvGoogleID, "client-123")
	t.Setenv(EnvGoogleSecret, "secret-456")

	cfg := Default()

	if cfg.Google.ClientID != "client-123" {
		t.Errorf("Google.ClientID = %q, want %q", cfg.Google.ClientID, "client-123")
	}
	if cfg.Google.ClientSecret != "secret-456" {
		t.Errorf("Google.ClientSecret = %q, want %q", cfg.Google.ClientSecret, "secret-456")
	}
}

// =============================================================================
// Load Config Tests
// =============================================================================

func TestLoad_NonExistentFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("/non/existent/path/config.json")

	if err != nil {
		t.Fatalf("Load() error = %v, want nil for non-existent file", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestLoad_EmptyPathUsesDataDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)

	os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"server":{"port":9191}}`), 0600)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
}

func TestLoad_JSON(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.json")

	data := `{
		"data_dir": "/srv/lifedesk",
		"server": {"port": 9000, "host": "0.0.0.0"},
		"database": {"driver": "sqlite3"},
		"calendar": {
			"default_view": "month",
			"day_start_hour": 7,
			"day_end_hour": 22,
			"quarter_hour_px": 16,
			"now_refresh_seconds": 15,
			"filters": {"show_notes": true, "show_expenses": true, "show_income": false, "hide_completed": true}
		},
		"expenses": {"horizon_months": 6, "materialize_cron": "@hourly"},
		"log_level": "debug"
	}`
	if err := os.WriteFile(configPath, []byte(data), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != "/srv/lifedesk" {
		t.Errorf("DataDir = %q, want /srv/lifedesk", cfg.DataDir)
	}
	if cfg.Database.Driver != "sqlite3" {
		t.Errorf("Database.Driver = %q, want sqlite3", cfg.Database.Driver)
	}
	if cfg.Calendar.View() != calendar.GranularityMonth {
		t.Errorf("Calendar.View() = %v, want month", cfg.Calendar.View())
	}
	grid := cfg.Calendar.Grid()
	if grid.StartHour != 7 || grid.EndHour != 22 || grid.QuarterHourPx != 16 {
		t.Errorf("Calendar.Grid() = %+v, want 7..22 at 16px", grid)
	}
	if cfg.Calendar.NowRefresh() != 15*time.Second {
		t.Errorf("Calendar.NowRefresh() = %v, want 15s", cfg.Calendar.NowRefresh())
	}
	if cfg.Calendar.Filters.ShowIncome || !cfg.Calendar.Filters.HideCompleted {
		t.Errorf("Calendar.Filters = %+v", cfg.Calendar.Filters)
	}
	if cfg.Expenses.HorizonMonths != 6 || cfg.Expenses.MaterializeCron != "@hourly" {
		t.Errorf("Expenses = %+v", cfg.Expenses)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	data := `
server:
  port: 7070
calendar:
  default_view: day
  day_start_hour: 6
  filters:
    show_notes: false
    show_expenses: true
    show_income: true
`
	os.WriteFile(configPath, []byte(data), 0600)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	// Unset keys keep their defaults
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want localhost", cfg.Server.Host)
	}
	if cfg.Calendar.View() != calendar.GranularityDay {
		t.Errorf("Calendar.View() = %v, want day", cfg.Calendar.View())
	}
	if cfg.Calendar.DayStartHour != 6 || cfg.Calendar.DayEndHour != 24 {
		t.Errorf("Calendar hours = %d..%d, want 6..24", cfg.Calendar.DayStartHour, cfg.Calendar.DayEndHour)
	}
	if cfg.Calendar.Filters.ShowNotes {
		t.Error("Calendar.Filters.ShowNotes should be false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(configPath, []byte(`{"data_dir": "/from/file", "log_level": "warn"}`), 0600)

	t.Setenv(EnvDataDir, "/from/env")
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/from/env" {
		t.Errorf("DataDir = %q, want /from/env", cfg.DataDir)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", cfg.LogLevel)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(configPath, []byte(`{invalid json}`), 0600)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should return error for invalid JSON")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	os.WriteFile(configPath, []byte("server: [unclosed"), 0600)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should return error for invalid YAML")
	}
}

func TestLoad_ReadPermissionError(t *testing.T) {
	if os.Getenv("OS") == "Windows_NT" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}

	configPath := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(configPath, []byte(`{"server":{"port":8080}}`), 0644)

	os.Chmod(configPath, 0000)
	defer os.Chmod(configPath, 0644)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should return error for unreadable file")
	}
}

// =============================================================================
// Normalize Tests
// =============================================================================

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		check  func(t *testing.T, c *Config)
	}{
		{
			name:   "unknown view",
			mutate: func(c *Config) { c.Calendar.DefaultView = "year" },
			check: func(t *testing.T, c *Config) {
				if c.Calendar.DefaultView != "week" {
					t.Errorf("DefaultView = %q, want week", c.Calendar.DefaultView)
				}
			},
		},
		{
			name:   "start hour out of range",
			mutate: func(c *Config) { c.Calendar.DayStartHour = 25 },
			check: func(t *testing.T, c *Config) {
				if c.Calendar.DayStartHour != 0 {
					t.Errorf("DayStartHour = %d, want 0", c.Calendar.DayStartHour)
				}
			},
		},
		{
			name:   "end before start",
			mutate: func(c *Config) { c.Calendar.DayStartHour, c.Calendar.DayEndHour = 10, 8 },
			check: func(t *testing.T, c *Config) {
				if c.Calendar.DayEndHour != 24 {
					t.Errorf("DayEndHour = %d, want 24", c.Calendar.DayEndHour)
				}
			},
		},
		{
			name:   "non-positive px",
			mutate: func(c *Config) { c.Calendar.QuarterHourPx = -3 },
			check: func(t *testing.T, c *Config) {
				if c.Calendar.QuarterHourPx != 12 {
					t.Errorf("QuarterHourPx = %v, want 12", c.Calendar.QuarterHourPx)
				}
			},
		},
		{
			name:   "refresh of a minute",
			mutate: func(c *Config) { c.Calendar.NowRefreshSeconds = 60 },
			check: func(t *testing.T, c *Config) {
				if c.Calendar.NowRefreshSeconds != 30 {
					t.Errorf("NowRefreshSeconds = %d, want 30", c.Calendar.NowRefreshSeconds)
				}
			},
		},
		{
			name:   "unknown driver",
			mutate: func(c *Config) { c.Database.Driver = "postgres" },
			check: func(t *testing.T, c *Config) {
				if c.Database.Driver != "sqlite" {
					t.Errorf("Database.Driver = %q, want sqlite", c.Database.Driver)
				}
			},
		},
		{
			name:   "zero horizon",
			mutate: func(c *Config) { c.Expenses.HorizonMonths = 0 },
			check: func(t *testing.T, c *Config) {
				if c.Expenses.HorizonMonths != 12 {
					t.Errorf("HorizonMonths = %d, want 12", c.Expenses.HorizonMonths)
				}
			},
		},
		{
			name:   "bad port and log level",
			mutate: func(c *Config) { c.Server.Port = 70000; c.LogLevel = "loud" },
			check: func(t *testing.T, c *Config) {
				if c.Server.Port != 8080 {
					t.Errorf("Server.Port = %d, want 8080", c.Server.Port)
				}
				if c.LogLevel != "info" {
					t.Errorf("LogLevel = %q, want info", c.LogLevel)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			cfg.Normalize()
			tt.check(t, cfg)
		})
	}
}

// =============================================================================
// Save Config Tests
// =============================================================================

func TestSave_CreatesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "subdir", "config.json")

	cfg := Default()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Save() did not create file")
	}
}

func TestSave_DoesNotSaveCredentials(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Google.ClientID = "client-should-not-be-saved"
	cfg.Google.ClientSecret = "secret-should-not-be-saved"
	cfg.Save(configPath)

	data, _ := os.ReadFile(configPath)
	if strings.Contains(string(data), "should-not-be-saved") {
		t.Error("Save() should not write Google credentials to file")
	}
	if cfg.Google.ClientSecret != "secret-should-not-be-saved" {
		t.Error("Save() should not modify the original config")
	}
}

func TestSave_FilePermissions(t *testing.T) {
	if os.Getenv("OS") == "Windows_NT" {
		t.Skip("Skipping permission test on Windows")
	}

	configPath := filepath.Join(t.TempDir(), "config.json")
	Default().Save(configPath)

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestSave_PrettyPrintsJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	Default().Save(configPath)

	data, _ := os.ReadFile(configPath)
	if !strings.Contains(string(data), "\n  ") {
		t.Error("Save() should produce indented JSON")
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Errorf("saved file is not valid JSON: %v", err)
	}
}

func TestLoadAndSave_RoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			configPath := filepath.Join(t.TempDir(), name)

			original := Default()
			original.Server.Port = 9999
			original.Calendar.DefaultView = "day"
			original.Calendar.Filters.HideCompleted = true
			original.Expenses.MaterializeCron = "30 2 * * *"

			if err := original.Save(configPath); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			loaded, err := Load(configPath)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if loaded.Server.Port != 9999 {
				t.Errorf("Server.Port = %d, want 9999", loaded.Server.Port)
			}
			if loaded.Calendar.DefaultView != "day" {
				t.Errorf("Calendar.DefaultView = %q, want day", loaded.Calendar.DefaultView)
			}
			if !loaded.Calendar.Filters.HideCompleted {
				t.Error("Calendar.Filters.HideCompleted should survive a round trip")
			}
			if loaded.Expenses.MaterializeCron != "30 2 * * *" {
				t.Errorf("Expenses.MaterializeCron = %q", loaded.Expenses.MaterializeCron)
			}
		})
	}
}

// =============================================================================
// Benchmark Tests
// =============================================================================

func BenchmarkDefault(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Default()
	}
}

func BenchmarkLoad_ExistingFile(b *testing.B) {
	configPath := filepath.Join(b.TempDir(), "config.json")
	Default().Save(configPath)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Load(configPath)
	}
}
