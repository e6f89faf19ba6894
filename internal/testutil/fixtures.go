package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/storage"
)

// TimedNote returns a note reminding at a date and time.
func TimedNote(title string, at time.Time) *core.Note {
	return &core.Note{Title: title, Reminder: &core.Reminder{DateTime: at, HasTime: true}}
}

// DateNote returns a note with a date-only reminder.
func DateNote(title string, day time.Time) *core.Note {
	return &core.Note{Title: title, Reminder: &core.Reminder{DateTime: day}}
}

// Expense returns a one-off expense due on day.
func Expense(id, name string, amount int64, day time.Time) *core.Expense {
	return &core.Expense{
		ID:      core.ExpenseID(id),
		Name:    name,
		Amount:  decimal.NewFromInt(amount),
		DueDate: &day,
	}
}

// Income returns an income entry for day.
func Income(amount int64, day time.Time) *core.IncomeEntry {
	return &core.IncomeEntry{Date: day, Amount: decimal.NewFromInt(amount)}
}

// Fixtures holds records to seed into a database.
type Fixtures struct {
	Notes      []*core.Note
	Expenses   []*core.Expense
	Income     []*core.IncomeEntry
	Categories []core.Category
}

// Seed stores every fixture, failing the test on the first error.
func Seed(t *testing.T, db *storage.DB, f Fixtures) {
	t.Helper()
	ctx := TestContext(t)

	notes := storage.NewNoteStore(db)
	for _, n := range f.Notes {
		if err := notes.Create(ctx, n); err != nil {
			t.Fatalf("seed note %q: %v", n.Title, err)
		}
	}
	expenses := storage.NewExpenseStore(db)
	for _, e := range f.Expenses {
		if err := expenses.Create(ctx, e); err != nil {
			t.Fatalf("seed expense %q: %v", e.Name, err)
		}
	}
	income := storage.NewIncomeStore(db)
	for _, i := range f.Income {
		if err := income.Create(ctx, i); err != nil {
			t.Fatalf("seed income: %v", err)
		}
	}
	categories := storage.NewCategoryStore(db)
	for _, c := range f.Categories {
		if err := categories.Upsert(ctx, c); err != nil {
			t.Fatalf("seed category %q: %v", c.Name, err)
		}
	}
}
