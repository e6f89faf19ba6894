package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/logging"
	"github.com/quantumlife/lifedesk/internal/recurrence"
)

// TemplateStore lists recurring templates and stores their occurrences.
type TemplateStore interface {
	ListTemplates(ctx context.Context) ([]core.Expense, error)
	InsertOccurrences(ctx context.Context, occurrences []core.Expense) (int, error)
}

// MaterializerConfig configures occurrence materialization
type MaterializerConfig struct {
	HorizonMonths  int // How far ahead of now occurrences are stored
	LookbackMonths int // How far behind now occurrences are stored
	MaxPerTemplate int // Expansion cap per template and run
}

// DefaultMaterializerConfig returns sensible defaults
func DefaultMaterializerConfig() MaterializerConfig {
	return MaterializerConfig{
		HorizonMonths:  12,
		LookbackMonths: 1,
		MaxPerTemplate: recurrence.DefaultMaxOccurrences,
	}
}

// Materializer expands recurring expense templates into stored occurrences
// so the aggregator only ever sees concrete, dated expenses.
type Materializer struct {
	store  TemplateStore
	config MaterializerConfig
}

// NewMaterializer creates a new materializer
func NewMaterializer(store TemplateStore, cfg MaterializerConfig) *Materializer {
	def := DefaultMaterializerConfig()
	if cfg.HorizonMonths <= 0 {
		cfg.HorizonMonths = def.HorizonMonths
	}
	if cfg.LookbackMonths < 0 {
		cfg.LookbackMonths = def.LookbackMonths
	}
	if cfg.MaxPerTemplate <= 0 {
		cfg.MaxPerTemplate = def.MaxPerTemplate
	}
	return &Materializer{store: store, config: cfg}
}

// Window returns the day range materialized for now.
func (m *Materializer) Window(now time.Time) (time.Time, time.Time) {
	today := calendar.Midnight(now)
	return today.AddDate(0, -m.config.LookbackMonths, 0), today.AddDate(0, m.config.HorizonMonths, 0)
}

// Run expands every template over the window around now and inserts the
// occurrences that are not stored yet. Templates with an unusable rule are
// logged and skipped. It returns the number of new occurrences.
func (m *Materializer) Run(ctx context.Context, now time.Time) (int, error) {
	templates, err := m.store.ListTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list templates: %w", err)
	}

	total := 0
	for _, tpl := range templates {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := m.Template(ctx, tpl, now)
		if err != nil {
			logging.WithFields(map[string]interface{}{
				"template": tpl.ID,
				"error":    err,
			}).Warn("skipping recurring expense")
			continue
		}
		total += n
	}

	if total > 0 {
		logging.WithField("count", total).Info("materialized recurring expenses")
	}
	return total, nil
}

// Template materializes a single template over the window around now.
func (m *Materializer) Template(ctx context.Context, tpl core.Expense, now time.Time) (int, error) {
	from, to := m.Window(now)
	res, err := recurrence.ExpandExpense(tpl, recurrence.Options{
		From: from,
		To:   to,
		Max:  m.config.MaxPerTemplate,
	})
	if err != nil {
		return 0, err
	}
	if len(res.Occurrences) == 0 {
		return 0, nil
	}
	return m.store.InsertOccurrences(ctx, res.Occurrences)
}
