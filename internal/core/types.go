// Package core defines the fundamental types for lifedesk.
// Notes, expenses and income entries are the records the calendar is built from.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string as local midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// -----------------------------------------------------------------------------
// NOTE - Free-form notes, optionally carrying a reminder
// -----------------------------------------------------------------------------

// NoteID is a type-safe identifier for notes
type NoteID string

// Note is a user note. Only notes with a reminder appear on the calendar.
type Note struct {
	ID        NoteID    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Archived  bool      `json:"archived"`
	Reminder  *Reminder `json:"reminder,omitempty"`
	SourceRef string    `json:"source_ref,omitempty"` // e.g. gcal:<event id> for imported notes
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Reminder attaches a calendar date to a note.
// When HasTime is false only the date part of DateTime is meaningful.
type Reminder struct {
	DateTime      time.Time              `json:"date_time"`
	HasTime       bool                   `json:"has_time"`
	Notifications []ReminderNotification `json:"notifications,omitempty"`
}

// ReminderNotification describes how to be alerted ahead of a reminder.
type ReminderNotification struct {
	OffsetMinutes int    `json:"offset_minutes"`
	Channel       string `json:"channel"` // popup, email
}

// IsZero reports whether the reminder lacks a usable date.
func (r *Reminder) IsZero() bool {
	return r == nil || r.DateTime.IsZero()
}

// -----------------------------------------------------------------------------
// EXPENSE - Bills and payments, one record per due date
// -----------------------------------------------------------------------------

// ExpenseID is a type-safe identifier for expenses
type ExpenseID string

// Expense is a single payable occurrence, or a recurring template when
// Recurrence is set. Templates never reach the calendar directly; their
// occurrences are materialized as separate records with ParentExpenseID set.
type Expense struct {
	ID              ExpenseID       `json:"id"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category,omitempty"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	IsPaid          bool            `json:"is_paid"`
	IsRecurring     bool            `json:"is_recurring"`
	ParentExpenseID ExpenseID       `json:"parent_expense_id,omitempty"`
	Recurrence      string          `json:"recurrence,omitempty"` // RRULE body, templates only
	CreatedAt       time.Time       `json:"created_at"`
}

// IsTemplate reports whether the expense is a recurring template.
func (e *Expense) IsTemplate() bool {
	return e.Recurrence != "" && e.ParentExpenseID == ""
}

// -----------------------------------------------------------------------------
// INCOME - Earnings entries
// -----------------------------------------------------------------------------

// IncomeID is a type-safe identifier for income entries
type IncomeID string

// IncomeEntry records money earned on a day, optionally with time worked.
type IncomeEntry struct {
	ID          IncomeID        `json:"id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Hours       *int            `json:"hours,omitempty"`
	Minutes     *int            `json:"minutes,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WorkedTime formats the worked duration, or "" when none was recorded.
func (i *IncomeEntry) WorkedTime() string {
	if i.Hours == nil && i.Minutes == nil {
		return ""
	}
	h, m := 0, 0
	if i.Hours != nil {
		h = *i.Hours
	}
	if i.Minutes != nil {
		m = *i.Minutes
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// -----------------------------------------------------------------------------
// CATEGORY - Expense categories and their display colors
// -----------------------------------------------------------------------------

// Category maps an expense category to a hex color.
type Category struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}
