package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/core"
)

// OverdueLookbackDays bounds how far back unpaid bills are reported.
const OverdueLookbackDays = 90

// ExpenseSource provides payable expenses due within a day range.
type ExpenseSource interface {
	ListOccurrences(ctx context.Context, from, to time.Time) ([]core.Expense, error)
}

// IncomeSource provides income entries dated within a day range.
type IncomeSource interface {
	List(ctx context.Context, from, to time.Time) ([]core.IncomeEntry, error)
}

// Service reads records and builds summaries and bill lists.
type Service struct {
	expenses ExpenseSource
	income   IncomeSource
}

// NewService creates a new finance service
func NewService(expenses ExpenseSource, income IncomeSource) *Service {
	return &Service{expenses: expenses, income: income}
}

// Summary totals the records within [from, to].
func (s *Service) Summary(ctx context.Context, from, to time.Time) (Summary, error) {
	from, to = calendar.Midnight(from), calendar.Midnight(to)
	if to.Before(from) {
		from, to = to, from
	}

	expenses, err := s.expenses.ListOccurrences(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("load expenses: %w", err)
	}
	income, err := s.income.List(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("load income: %w", err)
	}
	return Summarize(from, to, expenses, income), nil
}

// Bills returns the unpaid bills due within days of now, plus those
// overdue by at most OverdueLookbackDays.
func (s *Service) Bills(ctx context.Context, now time.Time, days int) ([]Bill, error) {
	if days < 0 {
		days = 0
	}
	today := calendar.Midnight(now)
	expenses, err := s.expenses.ListOccurrences(ctx, today.AddDate(0, 0, -OverdueLookbackDays), today.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return UpcomingBills(expenses, now, days), nil
}

// MonthRange returns the first and last day of the month containing day.
func MonthRange(day time.Time) (time.Time, time.Time) {
	first := calendar.AnchorFor(calendar.GranularityMonth, day)
	return first, first.AddDate(0, 1, -1)
}
