// Package calendar turns notes, expenses and income into calendar events and
// holds the navigation, grid and current-time state the calendar views share.
package calendar

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which kind of record produced an event.
type Source string

const (
	SourceNote    Source = "note"
	SourceExpense Source = "expense"
	SourceIncome  Source = "income"
)

// Display colors
const (
	DefaultNoteColor    = "#3b82f6"
	DefaultExpenseColor = "#ef4444"
	DefaultIncomeColor  = "#22c55e"
)

// TimeOfDay is a wall-clock time within a day.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// TimeOf extracts the wall-clock time of t.
func TimeOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns t placed on the given day.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// CalendarEvent is the uniform, render-ready representation of a record.
// An event is all-day exactly when Time is nil. Exactly one of Note, Expense
// or Income is set, matching Type.
type CalendarEvent struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Date  time.Time  `json:"date"` // local midnight
	Time  *TimeOfDay `json:"time,omitempty"`
	Type  Source     `json:"type"`
	Color string     `json:"color"`

	Note    *NotePayload    `json:"note,omitempty"`
	Expense *ExpensePayload `json:"expense,omitempty"`
	Income  *IncomePayload  `json:"income,omitempty"`
}

// NotePayload carries the note fields a renderer displays.
type NotePayload struct {
	ID      string   `json:"id"`
	Content string   `json:"content,omitempty"`
	Tags    []string `json:"tags"`
}

// ExpensePayload carries the expense fields a renderer displays.
type ExpensePayload struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	IsRecurring bool            `json:"is_recurring"`
	IsPaid      bool            `json:"is_paid"`
}

// IncomePayload carries the income fields a renderer displays.
type IncomePayload struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Hours       *int            `json:"hours,omitempty"`
	Minutes     *int            `json:"minutes,omitempty"`
	Description string          `json:"description,omitempty"`
}

// IsAllDay reports whether the event has no time of day.
func (e CalendarEvent) IsAllDay() bool {
	return e.Time == nil
}

// Paid reports whether the event is a paid expense.
func (e CalendarEvent) Paid() bool {
	return e.Expense != nil && e.Expense.IsPaid
}

// SourceID returns the id of the record behind the event.
func (e CalendarEvent) SourceID() string {
	switch {
	case e.Note != nil:
		return e.Note.ID
	case e.Expense != nil:
		return e.Expense.ID
	case e.Income != nil:
		return e.Income.ID
	}
	return ""
}

// Start returns the event's start instant; midnight for all-day events.
func (e CalendarEvent) Start() time.Time {
	if e.Time == nil {
		return e.Date
	}
	return e.Time.On(e.Date)
}

// Filters are view-level toggles applied during aggregation.
type Filters struct {
	ShowNotes     bool `json:"show_notes" yaml:"show_notes"`
	ShowExpenses  bool `json:"show_expenses" yaml:"show_expenses"`
	ShowIncome    bool `json:"show_income" yaml:"show_income"`
	HideCompleted bool `json:"hide_completed" yaml:"hide_completed"`
}

// DefaultFilters shows every source and keeps paid expenses visible.
func DefaultFilters() Filters {
	return Filters{
		ShowNotes:    true,
		ShowExpenses: true,
		ShowIncome:   true,
	}
}
