package storage

import (
	"context"

	"github.com/quantumlife/lifedesk/internal/core"
)

// CategoryStore handles expense category colors
type CategoryStore struct {
	db *DB
}

// NewCategoryStore creates a new category store
func NewCategoryStore(db *DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// Upsert creates a category or replaces its color.
func (s *CategoryStore) Upsert(ctx context.Context, c core.Category) error {
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO categories (name, color) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET color = excluded.color
	`, c.Name, c.Color)
	return err
}

// Delete removes a category
func (s *CategoryStore) Delete(ctx context.Context, name string) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrRecordNotFound)
}

// List returns all categories by name
func (s *CategoryStore) List(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT name, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.Name, &c.Color); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Colors returns the category name to color lookup used by the aggregator.
func (s *CategoryStore) Colors(ctx context.Context) (map[string]string, error) {
	cats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	colors := make(map[string]string, len(cats))
	for _, c := range cats {
		colors[c.Name] = c.Color
	}
	return colors, nil
}
