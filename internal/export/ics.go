// Package export writes calendar events in external formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/quantumlife/lifedesk/internal/calendar"
)

// DefaultProdID identifies lifedesk in exported calendars.
const DefaultProdID = "-//lifedesk//calendar//EN"

// slot is the duration given to timed events, one grid row.
const slot = 15 * time.Minute

// WriteICS writes events as an iCalendar document with one VEVENT each.
// All-day events are written as DATE values; timed events span one quarter
// hour. Event ids become UIDs so re-exports replace earlier imports.
func WriteICS(w io.Writer, events []calendar.CalendarEvent, prodID string) error {
	if prodID == "" {
		prodID = DefaultProdID
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	stamp := time.Now().UTC()
	for _, ev := range events {
		addEvent(cal, ev, stamp)
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("serialize calendar: %w", err)
	}
	return nil
}

func addEvent(cal *ical.Calendar, ev calendar.CalendarEvent, stamp time.Time) {
	ve := cal.AddEvent(ev.ID)
	ve.SetDtStampTime(stamp)
	ve.SetSummary(ev.Title)

	if ev.Time == nil {
		ve.SetAllDayStartAt(ev.Date)
		ve.SetAllDayEndAt(ev.Date.AddDate(0, 0, 1))
	} else {
		start := ev.Start()
		ve.SetStartAt(start)
		ve.SetEndAt(start.Add(slot))
	}

	ve.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(ev.Type)))
	if ev.Color != "" {
		ve.SetProperty(ical.ComponentProperty("COLOR"), ev.Color)
	}
	if desc := describe(ev); desc != "" {
		ve.SetDescription(desc)
	}
}

func describe(ev calendar.CalendarEvent) string {
	var parts []string
	switch {
	case ev.Note != nil:
		if ev.Note.Content != "" {
			parts = append(parts, ev.Note.Content)
		}
		if len(ev.Note.Tags) > 0 {
			parts = append(parts, "Tags: "+strings.Join(ev.Note.Tags, ", "))
		}
	case ev.Expense != nil:
		parts = append(parts, "Amount: "+ev.Expense.Amount.StringFixed(2))
		if ev.Expense.Category != "" {
			parts = append(parts, "Category: "+ev.Expense.Category)
		}
		if ev.Expense.IsPaid {
			parts = append(parts, "Paid")
		} else {
			parts = append(parts, "Unpaid")
		}
	case ev.Income != nil:
		parts = append(parts, "Amount: "+ev.Income.Amount.StringFixed(2))
		if ev.Income.Description != "" {
			parts = append(parts, ev.Income.Description)
		}
	}
	return strings.Join(parts, "\n")
}
