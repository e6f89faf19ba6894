// Package finance totals expenses and income and lists upcoming bills.
package finance

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/core"
)

// Uncategorized groups expenses without a category.
const Uncategorized = "uncategorized"

// Summary holds spending and earnings for a day range
type Summary struct {
	From          time.Time        `json:"from"`
	To            time.Time        `json:"to"`
	TotalExpenses decimal.Decimal  `json:"total_expenses"`
	Paid          decimal.Decimal  `json:"paid"`
	Unpaid        decimal.Decimal  `json:"unpaid"`
	TotalIncome   decimal.Decimal  `json:"total_income"`
	Net           decimal.Decimal  `json:"net"`
	DailyAverage  decimal.Decimal  `json:"daily_average"` // expenses per day in range
	MinutesWorked int              `json:"minutes_worked"`
	HourlyRate    *decimal.Decimal `json:"hourly_rate,omitempty"`
	ByCategory    []CategorySpend  `json:"by_category"`
	Expenses      int              `json:"expenses"`
	IncomeEntries int              `json:"income_entries"`
}

// CategorySpend tracks spending per category
type CategorySpend struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
}

// Summarize totals the expenses and income dated within [from, to].
// Templates and records without a date are ignored.
func Summarize(from, to time.Time, expenses []core.Expense, income []core.IncomeEntry) Summary {
	from, to = calendar.Midnight(from), calendar.Midnight(to)
	if to.Before(from) {
		from, to = to, from
	}
	s := Summary{From: from, To: to, ByCategory: []CategorySpend{}}

	byCategory := make(map[string]*CategorySpend)
	for i := range expenses {
		e := &expenses[i]
		if e.IsTemplate() || e.DueDate == nil || !inRange(*e.DueDate, from, to) {
			continue
		}
		s.Expenses++
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
		if e.IsPaid {
			s.Paid = s.Paid.Add(e.Amount)
		} else {
			s.Unpaid = s.Unpaid.Add(e.Amount)
		}

		name := strings.TrimSpace(e.Category)
		if name == "" {
			name = Uncategorized
		}
		cs, ok := byCategory[name]
		if !ok {
			cs = &CategorySpend{Category: name}
			byCategory[name] = cs
		}
		cs.Amount = cs.Amount.Add(e.Amount)
		cs.Count++
	}

	for i := range income {
		entry := &income[i]
		if entry.Date.IsZero() || !inRange(entry.Date, from, to) {
			continue
		}
		s.IncomeEntries++
		s.TotalIncome = s.TotalIncome.Add(entry.Amount)
		if entry.Hours != nil {
			s.MinutesWorked += *entry.Hours * 60
		}
		if entry.Minutes != nil {
			s.MinutesWorked += *entry.Minutes
		}
	}

	s.Net = s.TotalIncome.Sub(s.TotalExpenses)

	days := daysBetween(from, to) + 1
	s.DailyAverage = s.TotalExpenses.Div(decimal.NewFromInt(int64(days))).Round(2)

	if s.MinutesWorked > 0 {
		rate := s.TotalIncome.Mul(decimal.NewFromInt(60)).Div(decimal.NewFromInt(int64(s.MinutesWorked))).Round(2)
		s.HourlyRate = &rate
	}

	for _, cs := range byCategory {
		s.ByCategory = append(s.ByCategory, *cs)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		if c := s.ByCategory[i].Amount.Cmp(s.ByCategory[j].Amount); c != 0 {
			return c > 0
		}
		return s.ByCategory[i].Category < s.ByCategory[j].Category
	})

	return s
}

func inRange(t, from, to time.Time) bool {
	d := calendar.Midnight(t)
	return !d.Before(from) && !d.After(to)
}

// daysBetween counts calendar days from a to b, ignoring DST shifts.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
