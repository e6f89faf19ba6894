package agenda

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/recurrence"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateNote checks a note before it is stored.
func ValidateNote(n *core.Note) error {
	if strings.TrimSpace(n.Title) == "" && strings.TrimSpace(n.Content) == "" {
		return fmt.Errorf("%w: note needs a title or content", core.ErrMissingRequired)
	}
	if n.Reminder != nil && n.Reminder.DateTime.IsZero() {
		return fmt.Errorf("%w: reminder has no date", core.ErrInvalidInput)
	}
	return nil
}

// ValidateExpense checks an expense or recurring template before it is
// stored. Recurrence rules must parse.
func ValidateExpense(e *core.Expense) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: expense name", core.ErrMissingRequired)
	}
	if e.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", core.ErrInvalidInput)
	}
	if e.DueDate == nil || e.DueDate.IsZero() {
		return fmt.Errorf("%w: due date", core.ErrMissingRequired)
	}
	if e.Recurrence != "" {
		if err := recurrence.Validate(e.Recurrence); err != nil {
			return err
		}
		e.IsRecurring = true
	}
	return nil
}

// ValidateIncome checks an income entry before it is stored.
func ValidateIncome(i *core.IncomeEntry) error {
	if i.Date.IsZero() {
		return fmt.Errorf("%w: income date", core.ErrMissingRequired)
	}
	if i.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", core.ErrInvalidInput)
	}
	if i.Hours != nil && *i.Hours < 0 {
		return fmt.Errorf("%w: hours must not be negative", core.ErrInvalidInput)
	}
	if i.Minutes != nil && (*i.Minutes < 0 || *i.Minutes > 59) {
		return fmt.Errorf("%w: minutes must be within 0..59", core.ErrInvalidInput)
	}
	return nil
}

// ValidateCategory checks a category name and its #rrggbb color.
func ValidateCategory(c core.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name", core.ErrMissingRequired)
	}
	if !hexColor.MatchString(c.Color) {
		return fmt.Errorf("%w: color %q is not #rrggbb", core.ErrInvalidInput, c.Color)
	}
	return nil
}
