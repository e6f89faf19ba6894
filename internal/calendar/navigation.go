package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/quantumlife/lifedesk/internal/core"
)

// Granularity is the span a calendar view covers.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// ParseGranularity parses "day", "week" or "month" (case-insensitive).
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidGranularity, s)
	}
	return g, nil
}

// Direction moves a view backwards or forwards by one unit.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// ParseDirection accepts prev/previous/back and next/forward.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prev", "previous", "back":
		return Prev, nil
	case "next", "forward":
		return Next, nil
	}
	return 0, fmt.Errorf("%w: %q", core.ErrInvalidDirection, s)
}

func (d Direction) String() string {
	if d < 0 {
		return "prev"
	}
	return "next"
}

// AnchorFor returns the normalized start of the unit containing d:
// midnight for day, the Monday on or before d for week, the 1st for month.
// Unknown granularities are treated as day.
func AnchorFor(g Granularity, d time.Time) time.Time {
	day := Midnight(d)
	switch g {
	case GranularityWeek:
		// Monday = 0 ... Sunday = 6
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
	default:
		return day
	}
}

// StepAnchor moves anchor one unit in dir using calendar arithmetic.
// The anchor is normalized first, so a month step from Jan 31 lands on Feb 1.
func StepAnchor(g Granularity, anchor time.Time, dir Direction) time.Time {
	step := 1
	if dir < 0 {
		step = -1
	}

	a := AnchorFor(g, anchor)
	switch g {
	case GranularityWeek:
		return a.AddDate(0, 0, 7*step)
	case GranularityMonth:
		return a.AddDate(0, step, 0)
	default:
		return a.AddDate(0, 0, step)
	}
}

// NavigationState is the calendar's current position. Values are immutable;
// every transition returns a new state.
//
// Invariants: Anchor == AnchorFor(Granularity, FocusDay) after any transition,
// and FocusDay is always a midnight.
type NavigationState struct {
	FocusDay    time.Time   `json:"focus_day"`
	Granularity Granularity `json:"granularity"`
	Anchor      time.Time   `json:"anchor"`
}

// NewNavigationState starts a view on today.
func NewNavigationState(today time.Time, g Granularity) NavigationState {
	if !g.Valid() {
		g = GranularityWeek
	}
	return NavigationState{
		FocusDay:    Midnight(today),
		Granularity: g,
		Anchor:      AnchorFor(g, today),
	}
}

// SwitchGranularity changes the view span while keeping the focus day.
// An unknown granularity leaves the state unchanged.
func (s NavigationState) SwitchGranularity(g Granularity) NavigationState {
	if !g.Valid() {
		return s
	}
	s.Granularity = g
	s.Anchor = AnchorFor(g, s.FocusDay)
	return s
}

// MoveTo places the view on newAnchor; the focus day follows it.
func (s NavigationState) MoveTo(newAnchor time.Time) NavigationState {
	s.Anchor = AnchorFor(s.Granularity, newAnchor)
	s.FocusDay = Midnight(newAnchor)
	return s
}

// Step moves one unit backwards or forwards.
func (s NavigationState) Step(dir Direction) NavigationState {
	return s.MoveTo(StepAnchor(s.Granularity, s.Anchor, dir))
}

// JumpToToday moves to the unit containing now and focuses its anchor.
func (s NavigationState) JumpToToday(now time.Time) NavigationState {
	a := AnchorFor(s.Granularity, now)
	s.Anchor = a
	s.FocusDay = a
	return s
}

// DrillDown opens the day view for date.
func (s NavigationState) DrillDown(date time.Time) NavigationState {
	day := Midnight(date)
	return NavigationState{
		FocusDay:    day,
		Granularity: GranularityDay,
		Anchor:      day,
	}
}

// VisibleRange returns the first and last day a view shows. Month views cover
// whole Monday-started weeks, so they may include days of adjacent months.
func VisibleRange(g Granularity, anchor time.Time) (time.Time, time.Time) {
	a := AnchorFor(g, anchor)
	switch g {
	case GranularityWeek:
		return a, a.AddDate(0, 0, 6)
	case GranularityMonth:
		first := AnchorFor(GranularityWeek, a)
		last := a.AddDate(0, 1, -1)
		last = AnchorFor(GranularityWeek, last).AddDate(0, 0, 6)
		return first, last
	default:
		return a, a
	}
}

// VisibleRange returns the days shown by the current view.
func (s NavigationState) VisibleRange() (time.Time, time.Time) {
	return VisibleRange(s.Granularity, s.Anchor)
}

// Title is the heading for the current view.
func (s NavigationState) Title() string {
	switch s.Granularity {
	case GranularityMonth:
		return s.Anchor.Format("January 2006")
	case GranularityWeek:
		end := s.Anchor.AddDate(0, 0, 6)
		if s.Anchor.Year() != end.Year() {
			return s.Anchor.Format("Jan 2, 2006") + " - " + end.Format("Jan 2, 2006")
		}
		return s.Anchor.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
	default:
		return s.Anchor.Format("Monday, January 2, 2006")
	}
}
