package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/export"
)

// --- Calendar session handlers ---

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleSwitchGranularity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Granularity string `json:"granularity"`
	}
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	g, err := calendar.ParseGranularity(req.Granularity)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.publishState(w, s.session.SwitchGranularity(g))
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	dir, err := calendar.ParseDirection(req.Direction)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.publishState(w, s.session.Step(dir))
}

func (s *Server) handleJumpToToday(w http.ResponseWriter, r *http.Request) {
	s.publishState(w, s.session.JumpToToday(s.now()))
}

func (s *Server) handleDrillDown(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := s.decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.publishState(w, s.session.DrillDown(date))
}

func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.session.Snapshot().Filters)
}

func (s *Server) handleUpdateFilters(w http.ResponseWriter, r *http.Request) {
	var f calendar.Filters
	if err := s.decode(r, &f); err != nil {
		s.respondErr(w, err)
		return
	}
	s.publishState(w, s.session.SetFilters(f))
}

// publishState answers with the new state. Websocket clients already got it
// from the session's change hook.
func (s *Server) publishState(w http.ResponseWriter, st SessionState) {
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	view, err := s.agenda.View(r.Context(), snap.State, snap.Filters, s.grid)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetDay(w http.ResponseWriter, r *http.Request) {
	date, err := core.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	split, err := s.agenda.Day(r.Context(), date, s.session.Snapshot().Filters)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":    date.Format(core.DateLayout),
		"all_day": nonNilEvents(split.AllDay),
		"timed":   nonNilEvents(split.Timed),
	})
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	from, to, err := s.rangeParams(r, snap.From, snap.To)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	events, err := s.agenda.Events(r.Context(), from, to, snap.Filters)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteICS(&buf, events, ""); err != nil {
		s.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="lifedesk.ics"`)
	w.Write(buf.Bytes())
}

// rangeParams reads optional from/to query dates, defaulting to the given range.
func (s *Server) rangeParams(r *http.Request, defFrom, defTo time.Time) (time.Time, time.Time, error) {
	from, to := defFrom, defTo
	if v := r.URL.Query().Get("from"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return from, to, err
		}
		from = d
	}
	if v := r.URL.Query().Get("to"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return from, to, err
		}
		to = d
	}
	return from, to, nil
}

func nonNilEvents(events []calendar.CalendarEvent) []calendar.CalendarEvent {
	if events == nil {
		return []calendar.CalendarEvent{}
	}
	return events
}
