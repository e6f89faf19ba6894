package calendar

import "time"

// Midnight returns the start of t's day in t's location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EventsOnDate returns the events whose date is the same local day as date,
// preserving input order.
func EventsOnDate(events []CalendarEvent, date time.Time) []CalendarEvent {
	var out []CalendarEvent
	for _, ev := range events {
		if SameDay(ev.Date, date) {
			out = append(out, ev)
		}
	}
	return out
}

// EventsInRange returns events dated within [from, to], both days inclusive.
func EventsInRange(events []CalendarEvent, from, to time.Time) []CalendarEvent {
	start, end := Midnight(from), Midnight(to)
	var out []CalendarEvent
	for _, ev := range events {
		d := Midnight(ev.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Split separates all-day events from timed ones.
type Split struct {
	AllDay []CalendarEvent `json:"all_day"`
	Timed  []CalendarEvent `json:"timed"`
}

// SplitEventsByTime partitions events into all-day (no time) and timed
// lists, preserving relative order within each.
func SplitEventsByTime(events []CalendarEvent) Split {
	var s Split
	for _, ev := range events {
		if ev.Time == nil {
			s.AllDay = append(s.AllDay, ev)
		} else {
			s.Timed = append(s.Timed, ev)
		}
	}
	return s
}
