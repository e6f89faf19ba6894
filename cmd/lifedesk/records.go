package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/quantumlife/lifedesk/internal/agenda"
	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/config"
	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/storage"
)

// ============================================================================
// Notes
// ============================================================================

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage notes and reminders",
	}
	cmd.AddCommand(noteAddCmd())
	cmd.AddCommand(noteListCmd())
	return cmd
}

func noteAddCmd() *cobra.Command {
	var (
		content string
		remind  string
		at      string
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a note, optionally with a reminder",
		Example: `  lifedesk note add "Call mom" --remind 2024-03-15 --at 18:30
  lifedesk note add "Passport renewal" --remind 2024-06-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reminder, err := parseReminder(remind, at)
			if err != nil {
				return err
			}
			note := &core.Note{
				Title:    strings.TrimSpace(args[0]),
				Content:  content,
				Tags:     tags,
				Reminder: reminder,
			}
			if err := agenda.ValidateNote(note); err != nil {
				return err
			}

			return withDB(func(cfg *config.Config, db *storage.DB) error {
				if err := storage.NewNoteStore(db).Create(cmd.Context(), note); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Note %s created\n", note.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "note body")
	cmd.Flags().StringVar(&remind, "remind", "", "reminder date, YYYY-MM-DD")
	cmd.Flags().StringVar(&at, "at", "", "reminder time, HH:MM (omit for an all-day reminder)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	return cmd
}

// parseReminder builds a reminder from CLI flags; an empty date means none.
func parseReminder(date, at string) (*core.Reminder, error) {
	if date == "" {
		if at != "" {
			return nil, fmt.Errorf("%w: --at needs --remind", core.ErrInvalidInput)
		}
		return nil, nil
	}
	day, err := core.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if at == "" {
		return &core.Reminder{DateTime: day}, nil
	}
	t, err := time.Parse("15:04", at)
	if err != nil {
		return nil, fmt.Errorf("%w: time %q, want HH:MM", core.ErrInvalidInput, at)
	}
	return &core.Reminder{
		DateTime: time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.Local),
		HasTime:  true,
	}, nil
}

func noteListCmd() *cobra.Command {
	var archived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *storage.DB) error {
				notes, err := storage.NewNoteStore(db).List(cmd.Context(), archived)
				if err != nil {
					return err
				}
				if len(notes) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No notes yet. Add one with 'lifedesk note add'.")
					return nil
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tREMINDER")
				for _, n := range notes {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", n.ID, n.Title, formatReminder(n.Reminder))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&archived, "archived", false, "include archived notes")
	return cmd
}

func formatReminder(r *core.Reminder) string {
	if r.IsZero() {
		return "-"
	}
	if r.HasTime {
		return r.DateTime.Format("2006-01-02 15:04")
	}
	return r.DateTime.Format(core.DateLayout)
}

// ============================================================================
// Expenses
// ============================================================================

func expenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Manage expenses and recurring bills",
	}
	cmd.AddCommand(expenseAddCmd())
	cmd.AddCommand(expensePayCmd())
	return cmd
}

func expenseAddCmd() *cobra.Command {
	var (
		amount   string
		due      string
		category string
		recur    string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an expense or a recurring bill",
		Example: `  lifedesk expense add Rent --amount 900 --due 2024-03-01 --recur FREQ=MONTHLY
  lifedesk expense add "Car repair" --amount 340.50 --due 2024-03-20 --category car`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("%w: amount %q", core.ErrInvalidInput, amount)
			}
			e := &core.Expense{
				Name:       strings.TrimSpace(args[0]),
				Amount:     amt,
				Category:   strings.TrimSpace(category),
				Recurrence: strings.TrimSpace(recur),
			}
			if due != "" {
				d, err := core.ParseDate(due)
				if err != nil {
					return err
				}
				e.DueDate = &d
			}
			if err := agenda.ValidateExpense(e); err != nil {
				return err
			}

			return withDB(func(cfg *config.Config, db *storage.DB) error {
				store := storage.NewExpenseStore(db)
				if err := store.Create(cmd.Context(), e); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !e.IsTemplate() {
					fmt.Fprintf(out, "✅ Expense %s created\n", e.ID)
					return nil
				}

				n, err := agenda.NewMaterializer(store, materializerConfig(cfg)).Template(cmd.Context(), *e, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ Recurring expense %s created, %d occurrences scheduled\n", e.ID, n)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "0", "amount, e.g. 12.50")
	cmd.Flags().StringVar(&due, "due", "", "due date (first due date for recurring bills), YYYY-MM-DD")
	cmd.Flags().StringVar(&category, "category", "", "category name")
	cmd.Flags().StringVar(&recur, "recur", "", "RRULE body, e.g. FREQ=MONTHLY;BYMONTHDAY=1")
	cmd.MarkFlagRequired("due")
	return cmd
}

func expensePayCmd() *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "pay <id>",
		Short: "Mark an expense paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *storage.DB) error {
				id := core.ExpenseID(args[0])
				if err := storage.NewExpenseStore(db).SetPaid(cmd.Context(), id, !undo); err != nil {
					return err
				}
				state := "paid"
				if undo {
					state = "unpaid"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Expense %s marked %s\n", id, state)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "mark unpaid instead")
	return cmd
}

// ============================================================================
// Income
// ============================================================================

func incomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Manage income entries",
	}
	cmd.AddCommand(incomeAddCmd())
	return cmd
}

func incomeAddCmd() *cobra.Command {
	var (
		date        string
		hours       int
		minutes     int
		description string
	)

	cmd := &cobra.Command{
		Use:     "add <amount>",
		Short:   "Record income for a day",
		Example: `  lifedesk income add 250 --date 2024-03-13 --hours 8 --minutes 30`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("%w: amount %q", core.ErrInvalidInput, args[0])
			}
			entry := &core.IncomeEntry{Amount: amt, Description: description}

			entry.Date = calendar.Midnight(time.Now())
			if date != "" {
				if entry.Date, err = core.ParseDate(date); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("hours") {
				entry.Hours = &hours
			}
			if cmd.Flags().Changed("minutes") {
				entry.Minutes = &minutes
			}
			if err := agenda.ValidateIncome(entry); err != nil {
				return err
			}

			return withDB(func(cfg *config.Config, db *storage.DB) error {
				if err := storage.NewIncomeStore(db).Create(cmd.Context(), entry); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Income %s recorded for %s\n", entry.ID, entry.Date.Format(core.DateLayout))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date earned, YYYY-MM-DD (default today)")
	cmd.Flags().IntVar(&hours, "hours", 0, "hours worked")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "minutes worked")
	cmd.Flags().StringVar(&description, "desc", "", "description")
	return cmd
}

// ============================================================================
// Categories
// ============================================================================

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage expense categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "set <name> <#rrggbb>",
		Short:   "Create or recolor a category",
		Example: `  lifedesk category set housing "#3b82f6"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := core.Category{Name: strings.TrimSpace(args[0]), Color: args[1]}
			if err := agenda.ValidateCategory(cat); err != nil {
				return err
			}
			return withDB(func(cfg *config.Config, db *storage.DB) error {
				if err := storage.NewCategoryStore(db).Upsert(cmd.Context(), cat); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Category %s set to %s\n", cat.Name, cat.Color)
				return nil
			})
		},
	})
	return cmd
}
