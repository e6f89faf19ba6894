package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/config"
	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/export"
	"github.com/quantumlife/lifedesk/internal/finance"
	"github.com/quantumlife/lifedesk/internal/gcal"
	"github.com/quantumlife/lifedesk/internal/storage"
)

const authTimeout = 5 * time.Minute

// ============================================================================
// Export
// ============================================================================

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the calendar",
	}

	var (
		from string
		to   string
		out  string
	)
	ics := &cobra.Command{
		Use:     "ics",
		Short:   "Write calendar events as an iCalendar file",
		Example: `  lifedesk export ics --from 2024-03-01 --to 2024-03-31 --out march.ics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *storage.DB) error {
				start, end, err := exportRange(from, to, time.Now())
				if err != nil {
					return err
				}
				events, err := agendaService(db).Events(cmd.Context(), start, end, cfg.Calendar.Filters)
				if err != nil {
					return err
				}

				var w io.Writer = cmd.OutOrStdout()
				if out != "" {
					f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				if err := export.WriteICS(w, events, export.DefaultProdID); err != nil {
					return err
				}
				if out != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "✅ Exported %d events to %s\n", len(events), out)
				}
				return nil
			})
		},
	}
	ics.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default start of this month)")
	ics.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default end of the --from month)")
	ics.Flags().StringVar(&out, "out", "", "output file (default stdout)")

	cmd.AddCommand(ics)
	return cmd
}

// exportRange resolves the export day range. Without flags it covers the
// current month.
func exportRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	start := calendar.AnchorFor(calendar.GranularityMonth, now)
	if from != "" {
		d, err := core.ParseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = d
	}
	_, end := finance.MonthRange(start)
	if to != "" {
		d, err := core.ParseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = d
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --to is before --from", core.ErrInvalidInput)
	}
	return start, end, nil
}

// ============================================================================
// Import
// ============================================================================

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import events from other calendars",
	}

	var (
		days       int
		calendarID string
	)
	google := &cobra.Command{
		Use:   "google",
		Short: "Import Google Calendar events as notes with reminders",
		Long: `Imports upcoming Google Calendar events as notes with reminders.

The first run opens the OAuth consent flow in your browser. The resulting
token is encrypted with your passphrase and stored in the data directory.
Importing again updates notes instead of duplicating them.

Requires GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *storage.DB) error {
				if cmd.Flags().Changed("days") {
					cfg.Google.ImportDays = days
				}
				if calendarID != "" {
					cfg.Google.CalendarID = calendarID
				}
				return runGoogleImport(cmd.Context(), cmd.OutOrStdout(), cfg, db)
			})
		},
	}
	google.Flags().IntVar(&days, "days", 30, "number of days ahead to import")
	google.Flags().StringVar(&calendarID, "calendar", "", "calendar id (default from config)")

	cmd.AddCommand(google)
	return cmd
}

func runGoogleImport(ctx context.Context, out io.Writer, cfg *config.Config, db *storage.DB) error {
	oauthCfg := gcal.ReadOnlyOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret)
	if err := oauthCfg.Validate(); err != nil {
		return err
	}
	oauth := gcal.NewOAuthClient(oauthCfg)

	passphrase, err := readPassphrase(out, "Token passphrase: ")
	if err != nil {
		return err
	}

	tokenPath := filepath.Join(cfg.DataDir, gcal.TokenFile)
	token, err := gcal.LoadToken(tokenPath, passphrase)
	if errors.Is(err, core.ErrNotConfigured) {
		token, err = oauth.Authorize(ctx, out, authTimeout)
		if err != nil {
			return err
		}
		if err := gcal.SaveToken(tokenPath, token, passphrase); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		fmt.Fprintln(out, "🔐 Token encrypted and saved.")
	} else if err != nil {
		return err
	}

	client, err := gcal.NewClient(ctx, oauth, token)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "⏳ Importing %d days from %s...\n", cfg.Google.ImportDays, cfg.Google.CalendarID)
	res, err := gcal.NewImporter(storage.NewNoteStore(db)).
		Sync(ctx, client, cfg.Google.CalendarID, cfg.Google.ImportDays, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✅ %d created, %d updated, %d unchanged\n", res.Created, res.Updated, res.Unchanged)
	return nil
}

func readPassphrase(out io.Writer, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: a terminal is required to read the passphrase", core.ErrNotConfigured)
	}
	fmt.Fprint(out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("%w: passphrase", core.ErrMissingRequired)
	}
	return string(b), nil
}
