package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/config"
	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/storage"
)

const defaultWidth = 80

func agendaCmd() *cobra.Command {
	var (
		view          string
		date          string
		noNotes       bool
		noExpenses    bool
		noIncome      bool
		hideCompleted bool
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print the calendar for a day, week or month",
		Example: `  lifedesk agenda
  lifedesk agenda --view month --date 2024-03-01
  lifedesk agenda --view day --no-income`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *storage.DB) error {
				g := cfg.Calendar.View()
				if view != "" {
					parsed, err := calendar.ParseGranularity(view)
					if err != nil {
						return err
					}
					g = parsed
				}

				now := time.Now()
				day := now
				if date != "" {
					d, err := core.ParseDate(date)
					if err != nil {
						return err
					}
					day = d
				}

				f := cfg.Calendar.Filters
				if cmd.Flags().Changed("no-notes") {
					f.ShowNotes = !noNotes
				}
				if cmd.Flags().Changed("no-expenses") {
					f.ShowExpenses = !noExpenses
				}
				if cmd.Flags().Changed("no-income") {
					f.ShowIncome = !noIncome
				}
				if cmd.Flags().Changed("hide-completed") {
					f.HideCompleted = hideCompleted
				}

				state := calendar.NewNavigationState(day, g)
				from, to := state.VisibleRange()
				events, err := agendaService(db).Events(cmd.Context(), from, to, f)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				renderAgenda(out, agendaPage{
					Title:  state.Title(),
					From:   from,
					To:     to,
					Today:  now,
					Events: events,
					Width:  terminalWidth(out),
				})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&view, "view", "", "day, week or month (default from config)")
	cmd.Flags().StringVar(&date, "date", "", "date to show, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&noNotes, "no-notes", false, "hide notes")
	cmd.Flags().BoolVar(&noExpenses, "no-expenses", false, "hide expenses")
	cmd.Flags().BoolVar(&noIncome, "no-income", false, "hide income")
	cmd.Flags().BoolVar(&hideCompleted, "hide-completed", false, "hide paid expenses")
	return cmd
}

// terminalWidth returns the width of w when it is a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// agendaPage is one rendered agenda listing.
type agendaPage struct {
	Title  string
	From   time.Time
	To     time.Time
	Today  time.Time
	Events []calendar.CalendarEvent
	Width  int
}

// renderAgenda prints events grouped by day. Days without events are
// skipped; each event shows its time (or "all day") and a color swatch.
func renderAgenda(w io.Writer, page agendaPage) {
	r := lipgloss.NewRenderer(w)
	titleStyle := r.NewStyle().Bold(true).Underline(true)
	dayStyle := r.NewStyle().Bold(true)
	todayStyle := dayStyle.Foreground(lipgloss.Color("#e11d48"))
	timeStyle := r.NewStyle().Faint(true).Width(8)
	paidStyle := r.NewStyle().Strikethrough(true).Faint(true)

	fmt.Fprintln(w, titleStyle.Render(page.Title))

	width := page.Width
	if width <= 0 {
		width = defaultWidth
	}

	shown := 0
	for day := calendar.Midnight(page.From); !day.After(page.To); day = day.AddDate(0, 0, 1) {
		split := calendar.SplitEventsByTime(calendar.EventsOnDate(page.Events, day))
		if len(split.AllDay)+len(split.Timed) == 0 {
			continue
		}

		style := dayStyle
		if calendar.SameDay(day, page.Today) {
			style = todayStyle
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, style.Render(day.Format("Mon Jan 2")))

		for _, ev := range append(split.AllDay, split.Timed...) {
			when := "all day"
			if ev.Time != nil {
				when = ev.Time.String()
			}
			swatch := r.NewStyle().Foreground(lipgloss.Color(ev.Color)).Render("●")
			title := truncate(ev.Title, width-14)
			if ev.Paid() {
				title = paidStyle.Render(title)
			}
			fmt.Fprintf(w, "  %s %s %s\n", timeStyle.Render(when), swatch, title)
			shown++
		}
	}

	if shown == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Nothing scheduled.")
	}
}

func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-1])) + "…"
}
