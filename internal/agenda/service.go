// Package agenda composes stored records into calendar events and views.
package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/core"
)

// NoteSource provides notes whose reminders fall within a day range.
type NoteSource interface {
	ListWithReminders(ctx context.Context, from, to time.Time) ([]core.Note, error)
}

// ExpenseSource provides payable expenses due within a day range.
type ExpenseSource interface {
	ListOccurrences(ctx context.Context, from, to time.Time) ([]core.Expense, error)
}

// IncomeSource provides income entries dated within a day range.
type IncomeSource interface {
	List(ctx context.Context, from, to time.Time) ([]core.IncomeEntry, error)
}

// CategorySource provides the category color lookup.
type CategorySource interface {
	Colors(ctx context.Context) (map[string]string, error)
}

// Sources bundles the record collaborators a Service reads from.
type Sources struct {
	Notes      NoteSource
	Expenses   ExpenseSource
	Income     IncomeSource
	Categories CategorySource
}

// Service builds calendar events from the record sources. It keeps no
// cache: every call reads the sources and aggregates again.
type Service struct {
	src Sources
	now func() time.Time
}

// NewService creates a new agenda service
func NewService(src Sources) *Service {
	return &Service{src: src, now: time.Now}
}

// Events returns the aggregated events for the inclusive day range
// [from, to] that pass filters. Sources hidden by filters are not read.
func (s *Service) Events(ctx context.Context, from, to time.Time, f calendar.Filters) ([]calendar.CalendarEvent, error) {
	from, to = calendar.Midnight(from), calendar.Midnight(to)
	if to.Before(from) {
		from, to = to, from
	}

	in, err := s.load(ctx, from, to, f)
	if err != nil {
		return nil, err
	}
	return calendar.EventsInRange(calendar.Aggregate(in, f), from, to), nil
}

// Day returns the events of a single day, split into all-day and timed.
func (s *Service) Day(ctx context.Context, date time.Time, f calendar.Filters) (calendar.Split, error) {
	events, err := s.Events(ctx, date, date, f)
	if err != nil {
		return calendar.Split{}, err
	}
	return calendar.SplitEventsByTime(events), nil
}

// View builds the render-ready layout for a navigation state.
func (s *Service) View(ctx context.Context, state calendar.NavigationState, f calendar.Filters, grid calendar.Grid) (calendar.View, error) {
	from, to := state.VisibleRange()
	events, err := s.Events(ctx, from, to, f)
	if err != nil {
		return calendar.View{}, err
	}
	return calendar.BuildView(state, events, grid, s.now()), nil
}

func (s *Service) load(ctx context.Context, from, to time.Time, f calendar.Filters) (calendar.Inputs, error) {
	var in calendar.Inputs
	var err error

	if f.ShowNotes && s.src.Notes != nil {
		if in.Notes, err = s.src.Notes.ListWithReminders(ctx, from, to); err != nil {
			return in, fmt.Errorf("load notes: %w", err)
		}
	}
	if f.ShowExpenses && s.src.Expenses != nil {
		if in.Expenses, err = s.src.Expenses.ListOccurrences(ctx, from, to); err != nil {
			return in, fmt.Errorf("load expenses: %w", err)
		}
		if s.src.Categories != nil {
			if in.CategoryColors, err = s.src.Categories.Colors(ctx); err != nil {
				return in, fmt.Errorf("load categories: %w", err)
			}
		}
	}
	if f.ShowIncome && s.src.Income != nil {
		if in.Income, err = s.src.Income.List(ctx, from, to); err != nil {
			return in, fmt.Errorf("load income: %w", err)
		}
	}
	return in, nil
}
