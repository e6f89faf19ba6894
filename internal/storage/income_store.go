package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/quantumlife/lifedesk/internal/core"
)

// IncomeStore handles income persistence
type IncomeStore struct {
	db *DB
}

// NewIncomeStore creates a new income store
func NewIncomeStore(db *DB) *IncomeStore {
	return &IncomeStore{db: db}
}

const incomeColumns = `id, date, amount, hours, minutes, description, created_at`

// Create inserts an income entry, assigning an id when empty.
func (s *IncomeStore) Create(ctx context.Context, entry *core.IncomeEntry) error {
	if entry.ID == "" {
		entry.ID = core.IncomeID(uuid.New().String())
	}
	entry.CreatedAt = time.Now().UTC()

	var date *time.Time
	if !entry.Date.IsZero() {
		date = &entry.Date
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO income (`+incomeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, dateValue(date), entry.Amount.String(),
		nullInt(entry.Hours), nullInt(entry.Minutes), entry.Description, entry.CreatedAt)
	return err
}

// Get returns an income entry by id
func (s *IncomeStore) Get(ctx context.Context, id core.IncomeID) (*core.IncomeEntry, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+incomeColumns+` FROM income WHERE id = ?`, id)
	entry, err := scanIncome(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrIncomeNotFound
	}
	return entry, err
}

// List returns entries dated within [from, to], oldest first.
func (s *IncomeStore) List(ctx context.Context, from, to time.Time) ([]core.IncomeEntry, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT `+incomeColumns+` FROM income
		WHERE date BETWEEN ? AND ?
		ORDER BY date, created_at
	`, from.Format(core.DateLayout), to.Format(core.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.IncomeEntry
	for rows.Next() {
		entry, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
	return out, rows.Err()
}

// Delete removes an income entry
func (s *IncomeStore) Delete(ctx context.Context, id core.IncomeID) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM income WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrIncomeNotFound)
}

func scanIncome(row rowScanner) (*core.IncomeEntry, error) {
	entry := &core.IncomeEntry{}
	var date sql.NullString
	var hours, minutes sql.NullInt64

	err := row.Scan(&entry.ID, &date, &entry.Amount, &hours, &minutes, &entry.Description, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	entry.Date = parseDateColumn(date)
	entry.Hours = intFromNull(hours)
	entry.Minutes = intFromNull(minutes)
	return entry, nil
}
