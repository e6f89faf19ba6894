package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/core"
)

// Bill is an unpaid expense that is due soon or overdue.
type Bill struct {
	ExpenseID core.ExpenseID  `json:"expense_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category,omitempty"`
	DueDate   time.Time       `json:"due_date"`
	DaysUntil int             `json:"days_until"` // negative when overdue
}

// Overdue reports whether the due date has passed.
func (b Bill) Overdue() bool {
	return b.DaysUntil < 0
}

// When describes the due date relative to today.
func (b Bill) When() string {
	switch {
	case b.DaysUntil == 0:
		return "today"
	case b.DaysUntil == 1:
		return "tomorrow"
	case b.DaysUntil == -1:
		return "1 day overdue"
	case b.DaysUntil < 0:
		return fmt.Sprintf("%d days overdue", -b.DaysUntil)
	default:
		return fmt.Sprintf("in %d days", b.DaysUntil)
	}
}

// UpcomingBills returns the unpaid expenses due on or before today+days,
// overdue ones included, ordered by due date then name.
func UpcomingBills(expenses []core.Expense, now time.Time, days int) []Bill {
	today := calendar.Midnight(now)
	last := today.AddDate(0, 0, days)

	bills := []Bill{}
	for _, e := range expenses {
		if e.IsPaid || e.IsTemplate() || e.DueDate == nil {
			continue
		}
		due := calendar.Midnight(*e.DueDate)
		if due.After(last) {
			continue
		}
		bills = append(bills, Bill{
			ExpenseID: e.ID,
			Name:      e.Name,
			Amount:    e.Amount,
			Category:  e.Category,
			DueDate:   due,
			DaysUntil: daysBetween(today, due),
		})
	}

	sort.Slice(bills, func(i, j int) bool {
		if !bills[i].DueDate.Equal(bills[j].DueDate) {
			return bills[i].DueDate.Before(bills[j].DueDate)
		}
		return bills[i].Name < bills[j].Name
	})
	return bills
}
