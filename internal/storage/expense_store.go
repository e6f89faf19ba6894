package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantumlife/lifedesk/internal/core"
)

// ExpenseStore handles expense persistence
type ExpenseStore struct {
	db *DB
}

// NewExpenseStore creates a new expense store
func NewExpenseStore(db *DB) *ExpenseStore {
	return &ExpenseStore{db: db}
}

const expenseColumns = `
	id, name, amount, category, due_date, is_paid, is_recurring,
	parent_expense_id, recurrence, created_at`

const insertExpense = `
	INSERT %s INTO expenses (
		id, name, amount, category, due_date, is_paid, is_recurring,
		parent_expense_id, recurrence, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Create inserts an expense or recurring template, assigning an id when empty.
func (s *ExpenseStore) Create(ctx context.Context, e *core.Expense) error {
	if e.ID == "" {
		e.ID = core.ExpenseID(uuid.New().String())
	}
	e.CreatedAt = time.Now().UTC()

	_, err := s.db.conn.ExecContext(ctx, fmt.Sprintf(insertExpense, ""), expenseArgs(e)...)
	return uniqueViolation(err)
}

// InsertOccurrences stores materialized occurrences, skipping any that
// already exist. It returns how many were new.
func (s *ExpenseStore) InsertOccurrences(ctx context.Context, occurrences []core.Expense) (int, error) {
	inserted := 0
	err := s.db.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(insertExpense, "OR IGNORE"))
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for i := range occurrences {
			occ := occurrences[i]
			occ.CreatedAt = now
			res, err := stmt.ExecContext(ctx, expenseArgs(&occ)...)
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Get returns an expense by id
func (s *ExpenseStore) Get(ctx context.Context, id core.ExpenseID) (*core.Expense, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrExpenseNotFound
	}
	return e, err
}

// ListOccurrences returns payable expenses (one-time records and
// materialized occurrences) due within [from, to].
func (s *ExpenseStore) ListOccurrences(ctx context.Context, from, to time.Time) ([]core.Expense, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE recurrence = '' AND due_date BETWEEN ? AND ?
		ORDER BY due_date, name
	`, from.Format(core.DateLayout), to.Format(core.DateLayout))
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// ListTemplates returns every recurring template.
func (s *ExpenseStore) ListTemplates(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE recurrence != '' AND parent_expense_id IS NULL
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	return collectExpenses(rows)
}

// SetPaid marks an expense paid or unpaid.
func (s *ExpenseStore) SetPaid(ctx context.Context, id core.ExpenseID, paid bool) error {
	res, err := s.db.conn.ExecContext(ctx, `UPDATE expenses SET is_paid = ? WHERE id = ?`, paid, id)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrExpenseNotFound)
}

// Delete removes an expense. Deleting a template removes its occurrences.
func (s *ExpenseStore) Delete(ctx context.Context, id core.ExpenseID) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrExpenseNotFound)
}

func expenseArgs(e *core.Expense) []interface{} {
	parent := sql.NullString{String: string(e.ParentExpenseID), Valid: e.ParentExpenseID != ""}
	return []interface{}{
		e.ID, e.Name, e.Amount.String(), e.Category, dateValue(e.DueDate),
		e.IsPaid, e.IsRecurring, parent, e.Recurrence, e.CreatedAt,
	}
}

func scanExpense(row rowScanner) (*core.Expense, error) {
	e := &core.Expense{}
	var dueDate, parent sql.NullString

	err := row.Scan(
		&e.ID, &e.Name, &e.Amount, &e.Category, &dueDate, &e.IsPaid, &e.IsRecurring,
		&parent, &e.Recurrence, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if due := parseDateColumn(dueDate); !due.IsZero() {
		e.DueDate = &due
	}
	e.ParentExpenseID = core.ExpenseID(parent.String)
	return e, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
