// lifedesk CLI - notes, bills and income on one calendar.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quantumlife/lifedesk/internal/agenda"
	"github.com/quantumlife/lifedesk/internal/config"
	"github.com/quantumlife/lifedesk/internal/logging"
	"github.com/quantumlife/lifedesk/internal/storage"
)

var (
	// Global flags
	configPath string
	dataDir    string
	logLevel   string

	// Version
	version = "0.1.0"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lifedesk",
		Short: "lifedesk - your notes, bills and income on one calendar",
		Long: `lifedesk keeps notes with reminders, expenses and income entries
in a local SQLite database and shows them together as a calendar.

Run 'lifedesk serve' for the HTTP API and live calendar, or use the
agenda and record commands straight from the terminal.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (.json, .yaml or .yml)")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides config)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(serveCmd())
	root.AddCommand(agendaCmd())
	root.AddCommand(noteCmd())
	root.AddCommand(expenseCmd())
	root.AddCommand(incomeCmd())
	root.AddCommand(categoryCmd())
	root.AddCommand(summaryCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(importCmd())
	root.AddCommand(versionCmd())

	return root
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" && dataDir != "" {
		path = filepath.Join(dataDir, "config.json")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	cfg.Normalize()

	level, _ := logging.ParseLevel(cfg.LogLevel)
	logging.SetLevel(level)
	return cfg, nil
}

// openDB opens and migrates the configured database.
func openDB(cfg *config.Config) (*storage.DB, error) {
	db, err := storage.Open(storage.Config{
		Path:   cfg.DatabasePath(),
		Driver: cfg.Database.Driver,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

// withDB loads config, opens the database and runs fn.
func withDB(fn func(cfg *config.Config, db *storage.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, db)
}

func materializerConfig(cfg *config.Config) agenda.MaterializerConfig {
	mc := agenda.DefaultMaterializerConfig()
	mc.HorizonMonths = cfg.Expenses.HorizonMonths
	return mc
}

func agendaService(db *storage.DB) *agenda.Service {
	return agenda.NewService(agenda.Sources{
		Notes:      storage.NewNoteStore(db),
		Expenses:   storage.NewExpenseStore(db),
		Income:     storage.NewIncomeStore(db),
		Categories: storage.NewCategoryStore(db),
	})
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lifedesk v%s\n", version)
		},
	}
}
