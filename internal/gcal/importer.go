package gcal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/logging"
)

// SourcePrefix marks notes imported from Google Calendar.
const SourcePrefix = "gcal:"

// ImportTag is added to every imported note.
const ImportTag = "google"

// NoteStore is the persistence the importer writes to.
type NoteStore interface {
	GetBySourceRef(ctx context.Context, ref string) (*core.Note, error)
	Create(ctx context.Context, note *core.Note) error
	Update(ctx context.Context, note *core.Note) error
}

// EventLister lists remote events; *Client implements it.
type EventLister interface {
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error)
}

// ImportResult counts what an import did.
type ImportResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Importer turns remote events into notes with reminders. Each note is keyed
// by its event id, so importing again updates instead of duplicating.
type Importer struct {
	notes NoteStore
}

// NewImporter creates an importer writing to notes.
func NewImporter(notes NoteStore) *Importer {
	return &Importer{notes: notes}
}

// Sync imports the events of calendarID for the days [today, today+days).
func (im *Importer) Sync(ctx context.Context, src EventLister, calendarID string, days int, now time.Time) (ImportResult, error) {
	from := calendar.Midnight(now)
	events, err := src.ListEvents(ctx, calendarID, from, from.AddDate(0, 0, days))
	if err != nil {
		return ImportResult{}, err
	}
	return im.Import(ctx, events)
}

// Import upserts a note for every event.
func (im *Importer) Import(ctx context.Context, events []Event) (ImportResult, error) {
	var res ImportResult

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		ref := SourcePrefix + ev.ID
		incoming := noteFromEvent(ev)

		existing, err := im.notes.GetBySourceRef(ctx, ref)
		switch {
		case errors.Is(err, core.ErrNoteNotFound):
			incoming.SourceRef = ref
			if err := im.notes.Create(ctx, incoming); err != nil {
				return res, fmt.Errorf("create note for %s: %w", ref, err)
			}
			res.Created++
		case err != nil:
			return res, fmt.Errorf("lookup %s: %w", ref, err)
		case sameContent(existing, incoming):
			res.Unchanged++
		default:
			existing.Title = incoming.Title
			existing.Content = incoming.Content
			existing.Reminder = incoming.Reminder
			if err := im.notes.Update(ctx, existing); err != nil {
				return res, fmt.Errorf("update note for %s: %w", ref, err)
			}
			res.Updated++
		}
	}

	logging.WithFields(map[string]interface{}{
		"created":   res.Created,
		"updated":   res.Updated,
		"unchanged": res.Unchanged,
	}).Info("imported Google Calendar events")
	return res, nil
}

// noteFromEvent maps an event to a note. All-day events become date-only
// reminders; timed events remind at their start.
func noteFromEvent(ev Event) *core.Note {
	var content []string
	if ev.Description != "" {
		content = append(content, ev.Description)
	}
	if ev.Location != "" {
		content = append(content, "Location: "+ev.Location)
	}

	rem := &core.Reminder{DateTime: ev.Start, HasTime: !ev.AllDay}
	if ev.AllDay {
		rem.DateTime = calendar.Midnight(ev.Start)
	}
	for _, r := range ev.Reminders {
		rem.Notifications = append(rem.Notifications, core.ReminderNotification{
			OffsetMinutes: r.Minutes,
			Channel:       r.Method,
		})
	}

	return &core.Note{
		Title:    strings.TrimSpace(ev.Summary),
		Content:  strings.Join(content, "\n\n"),
		Tags:     []string{ImportTag},
		Reminder: rem,
	}
}

func sameContent(a, b *core.Note) bool {
	if a.Title != b.Title || a.Content != b.Content {
		return false
	}
	if a.Reminder.IsZero() || b.Reminder.IsZero() {
		return a.Reminder.IsZero() == b.Reminder.IsZero()
	}
	return a.Reminder.DateTime.Equal(b.Reminder.DateTime) && a.Reminder.HasTime == b.Reminder.HasTime
}
