package finance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantumlife/lifedesk/internal/core"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func ptr(i int) *int { return &i }

func expense(name, category string, amount int64, due time.Time, paid bool) core.Expense {
	return core.Expense{
		ID:       core.ExpenseID(name),
		Name:     name,
		Amount:   decimal.NewFromInt(amount),
		Category: category,
		DueDate:  &due,
		IsPaid:   paid,
	}
}

// =============================================================================
// Summarize Tests
// =============================================================================

func TestSummarize(t *testing.T) {
	from, to := day(2024, 3, 1), day(2024, 3, 31)
	expenses := []core.Expense{
		expense("rent", "housing", 900, day(2024, 3, 1), true),
		expense("power", "housing", 60, day(2024, 3, 20), false),
		expense("lunch", "", 15, day(2024, 3, 5), false),
		expense("april", "housing", 900, day(2024, 4, 1), false),
		{ID: "tmpl", Name: "template", Amount: decimal.NewFromInt(50), Recurrence: "FREQ=MONTHLY"},
		{ID: "nodate", Name: "no date", Amount: decimal.NewFromInt(5)},
	}
	income := []core.IncomeEntry{
		{Date: day(2024, 3, 4), Amount: decimal.NewFromInt(400), Hours: ptr(8)},
		{Date: day(2024, 3, 5), Amount: decimal.NewFromInt(200), Hours: ptr(3), Minutes: ptr(30), Description: "evening"},
		{Date: day(2024, 2, 28), Amount: decimal.NewFromInt(999)},
		{Amount: decimal.NewFromInt(1)},
	}

	s := Summarize(from, to, expenses, income)

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"TotalExpenses", s.TotalExpenses, "975"},
		{"Paid", s.Paid, "900"},
		{"Unpaid", s.Unpaid, "75"},
		{"TotalIncome", s.TotalIncome, "600"},
		{"Net", s.Net, "-375"},
		{"DailyAverage", s.DailyAverage, "31.45"},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("%s = %v, want %s", c.name, c.got, c.want)
		}
	}

	if s.Expenses != 3 || s.IncomeEntries != 2 {
		t.Errorf("counts = %d, %d, want 3, 2", s.Expenses, s.IncomeEntries)
	}
	if s.MinutesWorked != 690 {
		t.Errorf("MinutesWorked = %d, want 690", s.MinutesWorked)
	}
	if s.HourlyRate == nil || !s.HourlyRate.Equal(decimal.RequireFromString("52.17")) {
		t.Errorf("HourlyRate = %v, want 52.17", s.HourlyRate)
	}

	if len(s.ByCategory) != 2 {
		t.Fatalf("ByCategory = %+v, want 2 entries", s.ByCategory)
	}
	if s.ByCategory[0].Category != "housing" || s.ByCategory[0].Count != 2 {
		t.Errorf("ByCategory[0] = %+v, want housing x2", s.ByCategory[0])
	}
	if s.ByCategory[1].Category != Uncategorized {
		t.Errorf("ByCategory[1] = %+v, want %s", s.ByCategory[1], Uncategorized)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(day(2024, 3, 10), day(2024, 3, 4), nil, nil)

	if !s.From.Equal(day(2024, 3, 4)) || !s.To.Equal(day(2024, 3, 10)) {
		t.Errorf("range = %v..%v, want swapped bounds", s.From, s.To)
	}
	if !s.Net.IsZero() || !s.DailyAverage.IsZero() {
		t.Errorf("Net = %v, DailyAverage = %v, want zero", s.Net, s.DailyAverage)
	}
	if s.HourlyRate != nil {
		t.Errorf("HourlyRate = %v, want nil without time worked", s.HourlyRate)
	}
	if s.ByCategory == nil {
		t.Error("ByCategory should be empty, not nil")
	}
}

// =============================================================================
// Bill Tests
// =============================================================================

func TestUpcomingBills(t *testing.T) {
	now := time.Date(2024, 3, 14, 18, 0, 0, 0, time.Local)
	expenses := []core.Expense{
		expense("water", "utilities", 40, day(2024, 3, 16), false),
		expense("rent", "housing", 900, day(2024, 3, 14), true),
		expense("phone", "utilities", 30, day(2024, 3, 10), false),
		expense("card", "", 120, day(2024, 3, 14), false),
		expense("gym", "", 25, day(2024, 3, 30), false),
	}

	bills := UpcomingBills(expenses, now, 7)

	want := []struct {
		name string
		days int
		when string
	}{
		{"phone", -4, "4 days overdue"},
		{"card", 0, "today"},
		{"water", 2, "in 2 days"},
	}
	if len(bills) != len(want) {
		t.Fatalf("got %d bills, want %d: %+v", len(bills), len(want), bills)
	}
	for i, w := range want {
		if bills[i].Name != w.name || bills[i].DaysUntil != w.days {
			t.Errorf("bills[%d] = %s %d, want %s %d", i, bills[i].Name, bills[i].DaysUntil, w.name, w.days)
		}
		if got := bills[i].When(); got != w.when {
			t.Errorf("bills[%d].When() = %q, want %q", i, got, w.when)
		}
	}
	if !bills[0].Overdue() || bills[1].Overdue() {
		t.Error("only the phone bill should be overdue")
	}
}

func TestBill_When(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "today"},
		{1, "tomorrow"},
		{5, "in 5 days"},
		{-1, "1 day overdue"},
		{-12, "12 days overdue"},
	}
	for _, tt := range tests {
		if got := (Bill{DaysUntil: tt.days}).When(); got != tt.want {
			t.Errorf("When(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

// =============================================================================
// Service Tests
// =============================================================================

type stubExpenses struct {
	items    []core.Expense
	from, to time.Time
}

func (s *stubExpenses) ListOccurrences(_ context.Context, from, to time.Time) ([]core.Expense, error) {
	s.from, s.to = from, to
	return s.items, nil
}

type stubIncome struct{ items []core.IncomeEntry }

func (s *stubIncome) List(_ context.Context, _, _ time.Time) ([]core.IncomeEntry, error) {
	return s.items, nil
}

func TestService_Bills_Window(t *testing.T) {
	exp := &stubExpenses{}
	svc := NewService(exp, &stubIncome{})

	now := time.Date(2024, 3, 14, 9, 0, 0, 0, time.Local)
	if _, err := svc.Bills(context.Background(), now, 7); err != nil {
		t.Fatalf("Bills: %v", err)
	}
	if !exp.from.Equal(day(2024, 3, 14).AddDate(0, 0, -OverdueLookbackDays)) {
		t.Errorf("from = %v, want %d days back", exp.from, OverdueLookbackDays)
	}
	if !exp.to.Equal(day(2024, 3, 21)) {
		t.Errorf("to = %v, want 2024-03-21", exp.to)
	}
}

func TestService_Summary(t *testing.T) {
	exp := &stubExpenses{items: []core.Expense{expense("rent", "housing", 900, day(2024, 3, 1), false)}}
	svc := NewService(exp, &stubIncome{items: []core.IncomeEntry{{Date: day(2024, 3, 2), Amount: decimal.NewFromInt(1000)}}})

	s, err := svc.Summary(context.Background(), day(2024, 3, 1), day(2024, 3, 31))
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !s.Net.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Net = %v, want 100", s.Net)
	}
}

func TestMonthRange(t *testing.T) {
	first, last := MonthRange(time.Date(2024, 2, 14, 13, 0, 0, 0, time.Local))
	if !first.Equal(day(2024, 2, 1)) || !last.Equal(day(2024, 2, 29)) {
		t.Errorf("MonthRange = %v..%v, want Feb 1..Feb 29", first, last)
	}
}
