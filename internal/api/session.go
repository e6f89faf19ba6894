package api

import (
	"sync"
	"time"

	"github.com/quantumlife/lifedesk/internal/calendar"
)

// Session is the single in-process calendar position shared by every
// client. Each transition replaces the whole state under the lock, so
// readers never observe a focus day from one state with the anchor of
// another.
type Session struct {
	mu       sync.RWMutex
	state    calendar.NavigationState
	filters  calendar.Filters
	version  uint64
	onChange func(SessionState)
}

// SessionState is a consistent snapshot of a Session.
type SessionState struct {
	Version uint64                   `json:"version"` // increases with every change
	State   calendar.NavigationState `json:"state"`
	Title   string                   `json:"title"`
	From    time.Time                `json:"from"`
	To      time.Time                `json:"to"`
	Filters calendar.Filters         `json:"filters"`
}

// NewSession creates a session at the given state.
func NewSession(state calendar.NavigationState, filters calendar.Filters) *Session {
	return &Session{state: state, filters: filters}
}

// OnChange registers fn to receive every new snapshot. fn runs under the
// session lock, so it sees changes in order and must not block or call
// back into the session.
func (s *Session) OnChange(fn func(SessionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Snapshot returns the current state.
func (s *Session) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Session) snapshot() SessionState {
	from, to := s.state.VisibleRange()
	return SessionState{
		Version: s.version,
		State:   s.state,
		Title:   s.state.Title(),
		From:    from,
		To:      to,
		Filters: s.filters,
	}
}

// apply runs a transition and returns the resulting snapshot.
func (s *Session) apply(fn func(calendar.NavigationState) calendar.NavigationState) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.changed()
}

// changed bumps the version and notifies the listener. Callers hold mu.
func (s *Session) changed() SessionState {
	s.version++
	st := s.snapshot()
	if s.onChange != nil {
		s.onChange(st)
	}
	return st
}

// SwitchGranularity changes the view span.
func (s *Session) SwitchGranularity(g calendar.Granularity) SessionState {
	return s.apply(func(st calendar.NavigationState) calendar.NavigationState {
		return st.SwitchGranularity(g)
	})
}

// Step moves one view unit.
func (s *Session) Step(dir calendar.Direction) SessionState {
	return s.apply(func(st calendar.NavigationState) calendar.NavigationState {
		return st.Step(dir)
	})
}

// JumpToToday focuses today.
func (s *Session) JumpToToday(now time.Time) SessionState {
	return s.apply(func(st calendar.NavigationState) calendar.NavigationState {
		return st.JumpToToday(now)
	})
}

// DrillDown opens the day view of date.
func (s *Session) DrillDown(date time.Time) SessionState {
	return s.apply(func(st calendar.NavigationState) calendar.NavigationState {
		return st.DrillDown(date)
	})
}

// SetFilters replaces the view filters.
func (s *Session) SetFilters(f calendar.Filters) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
	return s.changed()
}
