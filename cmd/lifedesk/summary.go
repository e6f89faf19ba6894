package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/quantumlife/lifedesk/internal/config"
	"github.com/quantumlife/lifedesk/internal/finance"
	"github.com/quantumlife/lifedesk/internal/storage"
)

func summaryCmd() *cobra.Command {
	var (
		from string
		to   string
		days int
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show spending, earnings and upcoming bills",
		Example: `  lifedesk summary
  lifedesk summary --from 2024-03-01 --days 14`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *storage.DB) error {
				now := time.Now()
				start, end, err := exportRange(from, to, now)
				if err != nil {
					return err
				}

				svc := finance.NewService(storage.NewExpenseStore(db), storage.NewIncomeStore(db))
				summary, err := svc.Summary(cmd.Context(), start, end)
				if err != nil {
					return err
				}
				bills, err := svc.Bills(cmd.Context(), now, days)
				if err != nil {
					return err
				}

				renderSummary(cmd.OutOrStdout(), summary, bills)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD (default start of this month)")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD (default end of the --from month)")
	cmd.Flags().IntVar(&days, "days", 7, "bill look-ahead in days")
	return cmd
}

func renderSummary(w io.Writer, s finance.Summary, bills []finance.Bill) {
	r := lipgloss.NewRenderer(w)
	titleStyle := r.NewStyle().Bold(true).Underline(true)
	labelStyle := r.NewStyle().Faint(true).Width(12)
	overdueStyle := r.NewStyle().Foreground(lipgloss.Color("#e11d48"))

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s - %s", s.From.Format("Jan 2"), s.To.Format("Jan 2, 2006"))))
	fmt.Fprintln(w)

	line := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(label), value)
	}
	line("Spent", fmt.Sprintf("%s (%s paid, %s unpaid)", s.TotalExpenses.StringFixed(2), s.Paid.StringFixed(2), s.Unpaid.StringFixed(2)))
	line("Earned", s.TotalIncome.StringFixed(2))
	line("Net", s.Net.StringFixed(2))
	line("Per day", s.DailyAverage.StringFixed(2))
	if s.HourlyRate != nil {
		line("Hourly", fmt.Sprintf("%s (%dh %dm worked)", s.HourlyRate.StringFixed(2), s.MinutesWorked/60, s.MinutesWorked%60))
	}

	if len(s.ByCategory) > 0 {
		fmt.Fprintln(w)
		for _, c := range s.ByCategory {
			line(c.Category, fmt.Sprintf("%s (%d)", c.Amount.StringFixed(2), c.Count))
		}
	}

	fmt.Fprintln(w)
	if len(bills) == 0 {
		fmt.Fprintln(w, "  No bills due.")
		return
	}
	for _, b := range bills {
		when := b.When()
		if b.Overdue() {
			when = overdueStyle.Render(when)
		}
		fmt.Fprintf(w, "  💳 %s %s - %s\n", b.Name, b.Amount.StringFixed(2), when)
	}
}
