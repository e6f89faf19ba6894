package calendar

import (
	"sort"
	"strings"

	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/logging"
)

// Inputs are the records the aggregator reads. Expenses must already be
// expanded into one record per due date; recurring templates are ignored.
type Inputs struct {
	Notes          []core.Note
	Expenses       []core.Expense
	Income         []core.IncomeEntry
	CategoryColors map[string]string // category name -> hex color
}

// Aggregate merges notes with reminders, expenses and income entries into a
// single event list. Malformed records are skipped without error. The result
// is sorted by date, all-day events first, then by time and id.
func Aggregate(in Inputs, f Filters) []CalendarEvent {
	events := make([]CalendarEvent, 0, len(in.Notes)+len(in.Expenses)+len(in.Income))

	if f.ShowNotes {
		for i := range in.Notes {
			if ev, ok := noteEvent(&in.Notes[i]); ok {
				events = append(events, ev)
			}
		}
	}

	if f.ShowExpenses {
		for i := range in.Expenses {
			exp := &in.Expenses[i]
			if f.HideCompleted && exp.IsPaid {
				continue
			}
			if ev, ok := expenseEvent(exp, in.CategoryColors); ok {
				events = append(events, ev)
			}
		}
	}

	if f.ShowIncome {
		for i := range in.Income {
			if ev, ok := incomeEvent(&in.Income[i]); ok {
				events = append(events, ev)
			}
		}
	}

	SortEvents(events)
	return events
}

// SortEvents orders events by date, all-day before timed, then time and id.
func SortEvents(events []CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.IsAllDay() != b.IsAllDay() {
			return a.IsAllDay()
		}
		if a.Time != nil && b.Time != nil && a.Time.Minutes() != b.Time.Minutes() {
			return a.Time.Minutes() < b.Time.Minutes()
		}
		return a.ID < b.ID
	})
}

// EventID builds the deterministic event id for a source record.
func EventID(src Source, recordID string) string {
	return string(src) + ":" + recordID
}

func noteEvent(n *core.Note) (CalendarEvent, bool) {
	if n.Reminder == nil {
		return CalendarEvent{}, false
	}
	if n.Reminder.IsZero() {
		skipped(SourceNote, string(n.ID), "reminder has no date")
		return CalendarEvent{}, false
	}

	at := n.Reminder.DateTime
	title := strings.TrimSpace(n.Title)
	if title == "" {
		title = "Untitled note"
	}

	tags := append([]string{}, n.Tags...)
	ev := CalendarEvent{
		ID:    EventID(SourceNote, string(n.ID)),
		Title: title,
		Date:  Midnight(at),
		Type:  SourceNote,
		Color: DefaultNoteColor,
		Note:  &NotePayload{ID: string(n.ID), Content: n.Content, Tags: tags},
	}
	if n.Reminder.HasTime {
		tod := TimeOf(at)
		ev.Time = &tod
	}
	return ev, true
}

func expenseEvent(e *core.Expense, colors map[string]string) (CalendarEvent, bool) {
	if e.IsTemplate() {
		return CalendarEvent{}, false
	}
	if e.DueDate == nil || e.DueDate.IsZero() {
		skipped(SourceExpense, string(e.ID), "missing due date")
		return CalendarEvent{}, false
	}

	color := DefaultExpenseColor
	if c, ok := colors[e.Category]; ok && e.Category != "" && c != "" {
		color = c
	}

	return CalendarEvent{
		ID:    EventID(SourceExpense, string(e.ID)),
		Title: e.Name,
		Date:  Midnight(*e.DueDate),
		Type:  SourceExpense,
		Color: color,
		Expense: &ExpensePayload{
			ID:          string(e.ID),
			Amount:      e.Amount,
			Category:    e.Category,
			IsRecurring: e.IsRecurring || e.ParentExpenseID != "",
			IsPaid:      e.IsPaid,
		},
	}, true
}

func incomeEvent(in *core.IncomeEntry) (CalendarEvent, bool) {
	if in.Date.IsZero() {
		skipped(SourceIncome, string(in.ID), "missing date")
		return CalendarEvent{}, false
	}

	title := "Income " + in.Amount.StringFixed(2)
	if worked := in.WorkedTime(); worked != "" {
		title += " (" + worked + ")"
	}

	return CalendarEvent{
		ID:    EventID(SourceIncome, string(in.ID)),
		Title: title,
		Date:  Midnight(in.Date),
		Type:  SourceIncome,
		Color: DefaultIncomeColor,
		Income: &IncomePayload{
			ID:          string(in.ID),
			Amount:      in.Amount,
			Hours:       copyInt(in.Hours),
			Minutes:     copyInt(in.Minutes),
			Description: in.Description,
		},
	}, true
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func skipped(src Source, id, reason string) {
	logging.WithFields(map[string]interface{}{
		"source": src,
		"id":     id,
	}).Debug("skipping record: %s", reason)
}
