// Package recurrence expands recurring expense templates into dated
// occurrences, one expense record per due date.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/logging"
)

// DefaultMaxOccurrences caps a single template's expansion.
const DefaultMaxOccurrences = 500

// Options bounds an expansion. From and To are inclusive days.
type Options struct {
	From time.Time
	To   time.Time
	Max  int
}

// Result is the output of ExpandExpense.
type Result struct {
	Occurrences []core.Expense
	Truncated   bool
}

// OccurrenceID derives the stable id of a template's occurrence on due.
// Re-expanding the same range yields the same ids, so inserts are idempotent.
func OccurrenceID(templateID core.ExpenseID, due time.Time) core.ExpenseID {
	return core.ExpenseID(fmt.Sprintf("%s@%s", templateID, due.Format("20060102")))
}

// Validate checks that rule is a parseable RRULE body.
func Validate(rule string) error {
	_, err := parse(rule, time.Now())
	return err
}

func parse(rule string, dtstart time.Time) (*rrule.RRule, error) {
	body := strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	if body == "" {
		return nil, fmt.Errorf("%w: empty rule", core.ErrInvalidRecurrence)
	}
	r, err := rrule.StrToRRule(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidRecurrence, err)
	}
	r.DTStart(dtstart)
	return r, nil
}

// ExpandExpense returns the template's occurrences due within opts.
// The template's due date is DTSTART. Occurrences are unpaid and carry the
// template's name, amount and category.
func ExpandExpense(tpl core.Expense, opts Options) (Result, error) {
	var res Result

	if !tpl.IsTemplate() {
		return res, core.ErrNotATemplate
	}
	if tpl.DueDate == nil || tpl.DueDate.IsZero() {
		return res, fmt.Errorf("%w: template %s has no due date", core.ErrMissingRequired, tpl.ID)
	}
	if opts.To.Before(opts.From) {
		return res, errors.New("expand: range end is before range start")
	}
	if opts.Max <= 0 {
		opts.Max = DefaultMaxOccurrences
	}

	start := midnight(*tpl.DueDate)
	r, err := parse(tpl.Recurrence, start)
	if err != nil {
		return res, err
	}

	loc := start.Location()
	from := midnight(opts.From.In(loc))
	to := midnight(opts.To.In(loc)).AddDate(0, 0, 1).Add(-time.Nanosecond)

	times := r.Between(from, to, true)
	if len(times) > opts.Max {
		times = times[:opts.Max]
		res.Truncated = true
		logging.WithFields(map[string]interface{}{
			"template": tpl.ID,
			"cap":      opts.Max,
		}).Warn("recurrence expansion truncated")
	}

	res.Occurrences = make([]core.Expense, 0, len(times))
	for _, t := range times {
		due := midnight(t)
		res.Occurrences = append(res.Occurrences, core.Expense{
			ID:              OccurrenceID(tpl.ID, due),
			Name:            tpl.Name,
			Amount:          tpl.Amount,
			Category:        tpl.Category,
			DueDate:         &due,
			IsRecurring:     true,
			ParentExpenseID: tpl.ID,
		})
	}
	return res, nil
}

// NextDue returns the first occurrence on or after day, if any.
func NextDue(tpl core.Expense, day time.Time) (time.Time, bool) {
	if !tpl.IsTemplate() || tpl.DueDate == nil {
		return time.Time{}, false
	}
	start := midnight(*tpl.DueDate)
	r, err := parse(tpl.Recurrence, start)
	if err != nil {
		return time.Time{}, false
	}
	next := r.After(midnight(day.In(start.Location())), true)
	if next.IsZero() {
		return time.Time{}, false
	}
	return midnight(next), true
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
