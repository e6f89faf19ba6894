package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/quantumlife/lifedesk/internal/agenda"
	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/logging"
)

// --- Notes ---

type reminderRequest struct {
	Date          string                      `json:"date"`
	Time          string                      `json:"time,omitempty"` // HH:MM, empty for date-only
	Notifications []core.ReminderNotification `json:"notifications,omitempty"`
}

type noteRequest struct {
	Title    string           `json:"title"`
	Content  string           `json:"content"`
	Tags     []string         `json:"tags"`
	Reminder *reminderRequest `json:"reminder"`
}

// toReminder converts a request reminder into a local date-time.
func (rr *reminderRequest) toReminder() (*core.Reminder, error) {
	if rr == nil {
		return nil, nil
	}
	day, err := core.ParseDate(rr.Date)
	if err != nil {
		return nil, err
	}
	rem := &core.Reminder{DateTime: day, Notifications: rr.Notifications}
	if rr.Time != "" {
		t, err := time.Parse("15:04", rr.Time)
		if err != nil {
			return nil, fmt.Errorf("%w: reminder time %q, want HH:MM", core.ErrInvalidInput, rr.Time)
		}
		rem.DateTime = time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
		rem.HasTime = true
	}
	return rem, nil
}

func (s *Server) handleGetNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := s.noteStore.List(r.Context(), r.URL.Query().Get("archived") == "true")
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if notes == nil {
		notes = []core.Note{}
	}
	s.respondJSON(w, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	reminder, err := req.Reminder.toReminder()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	note := &core.Note{
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Tags:     req.Tags,
		Reminder: reminder,
	}
	if err := agenda.ValidateNote(note); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := s.noteStore.Create(r.Context(), note); err != nil {
		s.respondErr(w, err)
		return
	}

	s.Broadcast("calendar.changed", map[string]string{"note": string(note.ID)})
	s.respondJSON(w, http.StatusCreated, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id := core.NoteID(chi.URLParam(r, "id"))
	if err := s.noteStore.Delete(r.Context(), id); err != nil {
		s.respondErr(w, err)
		return
	}
	s.Broadcast("calendar.changed", map[string]string{"note": string(id)})
	w.WriteHeader(http.StatusNoContent)
}

// --- Expenses ---

type expenseRequest struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	DueDate    string          `json:"due_date"`
	Recurrence string          `json:"recurrence"`
}

func (s *Server) handleGetExpenses(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	from, to, err := s.rangeParams(r, snap.From, snap.To)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	var expenses []core.Expense
	if r.URL.Query().Get("templates") == "true" {
		expenses, err = s.expenseStore.ListTemplates(r.Context())
	} else {
		expenses, err = s.expenseStore.ListOccurrences(r.Context(), from, to)
	}
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	s.respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	e := &core.Expense{
		Name:       strings.TrimSpace(req.Name),
		Amount:     req.Amount,
		Category:   strings.TrimSpace(req.Category),
		Recurrence: strings.TrimSpace(req.Recurrence),
	}
	if req.DueDate != "" {
		due, err := core.ParseDate(req.DueDate)
		if err != nil {
			s.respondErr(w, err)
			return
		}
		e.DueDate = &due
	}
	if err := agenda.ValidateExpense(e); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := s.expenseStore.Create(r.Context(), e); err != nil {
		s.respondErr(w, err)
		return
	}

	resp := map[string]interface{}{"expense": e}
	if e.IsTemplate() {
		n, err := s.materializer.Template(r.Context(), *e, s.now())
		if err != nil {
			logging.WithField("template", e.ID).Warn("materialize new template: %v", err)
		}
		resp["materialized"] = n
	}

	s.Broadcast("calendar.changed", map[string]string{"expense": string(e.ID)})
	s.respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleSetPaid(w http.ResponseWriter, r *http.Request) {
	id := core.ExpenseID(chi.URLParam(r, "id"))
	req := struct {
		Paid *bool `json:"paid"`
	}{}
	if r.ContentLength != 0 {
		if err := s.decode(r, &req); err != nil {
			s.respondErr(w, err)
			return
		}
	}
	paid := true
	if req.Paid != nil {
		paid = *req.Paid
	}

	if err := s.expenseStore.SetPaid(r.Context(), id, paid); err != nil {
		s.respondErr(w, err)
		return
	}
	e, err := s.expenseStore.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	s.Broadcast("calendar.changed", map[string]string{"expense": string(id)})
	s.respondJSON(w, http.StatusOK, e)
}

// --- Income ---

type incomeRequest struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Hours       *int            `json:"hours"`
	Minutes     *int            `json:"minutes"`
	Description string          `json:"description"`
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	from, to, err := s.rangeParams(r, snap.From, snap.To)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	entries, err := s.incomeStore.List(r.Context(), from, to)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if entries == nil {
		entries = []core.IncomeEntry{}
	}
	s.respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	entry := &core.IncomeEntry{
		Amount:      req.Amount,
		Hours:       req.Hours,
		Minutes:     req.Minutes,
		Description: req.Description,
	}
	if req.Date != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			s.respondErr(w, err)
			return
		}
		entry.Date = d
	}
	if err := agenda.ValidateIncome(entry); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := s.incomeStore.Create(r.Context(), entry); err != nil {
		s.respondErr(w, err)
		return
	}

	s.Broadcast("calendar.changed", map[string]string{"income": string(entry.ID)})
	s.respondJSON(w, http.StatusCreated, entry)
}

// --- Categories ---

func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categoryStore.List(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	s.respondJSON(w, http.StatusOK, cats)
}

func (s *Server) handlePutCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Color string `json:"color"`
	}
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	cat := core.Category{Name: chi.URLParam(r, "name"), Color: req.Color}
	if err := agenda.ValidateCategory(cat); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := s.categoryStore.Upsert(r.Context(), cat); err != nil {
		s.respondErr(w, err)
		return
	}

	s.Broadcast("calendar.changed", map[string]string{"category": cat.Name})
	s.respondJSON(w, http.StatusOK, cat)
}
