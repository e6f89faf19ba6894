package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantumlife/lifedesk/internal/api"
	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/config"
	"github.com/quantumlife/lifedesk/internal/logging"
	"github.com/quantumlife/lifedesk/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, live calendar and expense materializer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "HTTP listen host")
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	return cmd
}

func runServe(cfg *config.Config) error {
	fmt.Println("🚀 Starting lifedesk...")

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Current-time line for the day and week views
	nowIndicator := calendar.NewNowIndicator(calendar.SystemClock{}, cfg.Calendar.NowRefresh())
	nowIndicator.Start(ctx)

	server := api.New(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		DB:           db,
		Materializer: materializerConfig(cfg),
		NowIndicator: nowIndicator,
		Grid:         cfg.Calendar.Grid(),
		DefaultView:  cfg.Calendar.View(),
		Filters:      cfg.Calendar.Filters,
	})

	// Recurring expenses are materialized at startup and on the cron schedule
	sched := scheduler.NewScheduler(scheduler.DefaultConfig())
	job := scheduler.CronJob("materialize-expenses", "Materialize recurring expenses",
		cfg.Expenses.MaterializeCron, server.Materialize)
	job.RunOnStart = true
	if err := sched.Register(job); err != nil {
		return fmt.Errorf("failed to schedule materializer: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	fmt.Printf("⏰ Materializing recurring expenses on %q\n", cfg.Expenses.MaterializeCron)

	// Handle shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		fmt.Println("\n🛑 Shutting down...")
		sched.Stop()
		nowIndicator.Stop()

		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := server.Stop(shutdownCtx); err != nil {
			logging.Warn("server shutdown: %v", err)
		}
		cancel()
	}()

	// Start server (blocks)
	fmt.Printf("🌐 Calendar API on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	return server.Start(ctx)
}
