package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/quantumlife/lifedesk/internal/core"
)

// NoteStore handles note persistence
type NoteStore struct {
	db *DB
}

// NewNoteStore creates a new note store
func NewNoteStore(db *DB) *NoteStore {
	return &NoteStore{db: db}
}

const noteColumns = `
	id, title, content, tags, archived,
	reminder_at, reminder_has_time, reminder_notifications,
	source_ref, created_at, updated_at`

// Create inserts a note, assigning an id when empty.
func (s *NoteStore) Create(ctx context.Context, note *core.Note) error {
	if note.ID == "" {
		note.ID = core.NoteID(uuid.New().String())
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	args := noteArgs(note)
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO notes (
			id, title, content, tags, archived,
			reminder_at, reminder_date, reminder_has_time, reminder_notifications,
			source_ref, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, append([]interface{}{note.ID}, append(args, note.CreatedAt, note.UpdatedAt)...)...)
	return uniqueViolation(err)
}

// Update rewrites every mutable field of a note.
func (s *NoteStore) Update(ctx context.Context, note *core.Note) error {
	note.UpdatedAt = time.Now().UTC()

	args := noteArgs(note)
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE notes SET
			title = ?, content = ?, tags = ?, archived = ?,
			reminder_at = ?, reminder_date = ?, reminder_has_time = ?, reminder_notifications = ?,
			source_ref = ?, updated_at = ?
		WHERE id = ?
	`, append(args, note.UpdatedAt, note.ID)...)
	if err != nil {
		return uniqueViolation(err)
	}
	return expectOne(res, core.ErrNoteNotFound)
}

// Get returns a note by id
func (s *NoteStore) Get(ctx context.Context, id core.NoteID) (*core.Note, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNoteNotFound
	}
	return note, err
}

// GetBySourceRef returns the note imported from an external reference.
func (s *NoteStore) GetBySourceRef(ctx context.Context, ref string) (*core.Note, error) {
	row := s.db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE source_ref = ?`, ref)
	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrNoteNotFound
	}
	return note, err
}

// List returns notes, newest first.
func (s *NoteStore) List(ctx context.Context, includeArchived bool) ([]core.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows)
}

// ListWithReminders returns notes whose reminder falls on a day in [from, to].
func (s *NoteStore) ListWithReminders(ctx context.Context, from, to time.Time) ([]core.Note, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE reminder_date BETWEEN ? AND ?
		ORDER BY reminder_at
	`, from.Format(core.DateLayout), to.Format(core.DateLayout))
	if err != nil {
		return nil, err
	}
	return collectNotes(rows)
}

// SetArchived archives or restores a note.
func (s *NoteStore) SetArchived(ctx context.Context, id core.NoteID, archived bool) error {
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE notes SET archived = ?, updated_at = ? WHERE id = ?`,
		archived, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrNoteNotFound)
}

// Delete removes a note
func (s *NoteStore) Delete(ctx context.Context, id core.NoteID) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res, core.ErrNoteNotFound)
}

// noteArgs returns the mutable columns in table order, excluding id and timestamps.
func noteArgs(note *core.Note) []interface{} {
	tags, _ := json.Marshal(nonNil(note.Tags))

	var reminderAt, reminderDate sql.NullString
	hasTime := false
	notifications := []byte("[]")
	if !note.Reminder.IsZero() {
		at := note.Reminder.DateTime
		reminderAt = sql.NullString{String: at.Format(time.RFC3339), Valid: true}
		reminderDate = sql.NullString{String: at.In(time.Local).Format(core.DateLayout), Valid: true}
		hasTime = note.Reminder.HasTime
		if len(note.Reminder.Notifications) > 0 {
			notifications, _ = json.Marshal(note.Reminder.Notifications)
		}
	}

	sourceRef := sql.NullString{String: note.SourceRef, Valid: note.SourceRef != ""}

	return []interface{}{
		note.Title, note.Content, string(tags), note.Archived,
		reminderAt, reminderDate, hasTime, string(notifications),
		sourceRef,
	}
}

func scanNote(row rowScanner) (*core.Note, error) {
	note := &core.Note{}
	var tags, notifications string
	var reminderAt, sourceRef sql.NullString
	var hasTime bool

	err := row.Scan(
		&note.ID, &note.Title, &note.Content, &tags, &note.Archived,
		&reminderAt, &hasTime, &notifications,
		&sourceRef, &note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	json.Unmarshal([]byte(tags), &note.Tags)
	note.SourceRef = sourceRef.String

	if reminderAt.Valid {
		// An unparseable timestamp leaves a zero reminder for the
		// aggregator to skip.
		at, _ := time.Parse(time.RFC3339, reminderAt.String)
		if !at.IsZero() {
			at = at.In(time.Local)
		}
		note.Reminder = &core.Reminder{DateTime: at, HasTime: hasTime}
		json.Unmarshal([]byte(notifications), &note.Reminder.Notifications)
	}

	return note, nil
}

func collectNotes(rows *sql.Rows) ([]core.Note, error) {
	defer rows.Close()

	var notes []core.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	return notes, rows.Err()
}
