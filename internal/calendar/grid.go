package calendar

import "time"

// Grid defaults
const (
	DefaultQuarterHourPx = 12.0
	DefaultStartHour     = 0
	DefaultEndHour       = 24
)

// Grid describes the vertical time axis shared by the day and week views.
// Both views and the now-line must position with the same Grid value.
type Grid struct {
	StartHour     int     `json:"start_hour"`
	EndHour       int     `json:"end_hour"`
	QuarterHourPx float64 `json:"quarter_hour_px"`
}

// DefaultGrid spans the whole day at 12px per quarter hour.
func DefaultGrid() Grid {
	return Grid{
		StartHour:     DefaultStartHour,
		EndHour:       DefaultEndHour,
		QuarterHourPx: DefaultQuarterHourPx,
	}
}

// Normalize clamps out-of-range values back to defaults.
func (g Grid) Normalize() Grid {
	if g.StartHour < 0 || g.StartHour > 23 {
		g.StartHour = DefaultStartHour
	}
	if g.EndHour <= g.StartHour || g.EndHour > 24 {
		g.EndHour = DefaultEndHour
	}
	if g.QuarterHourPx <= 0 {
		g.QuarterHourPx = DefaultQuarterHourPx
	}
	return g
}

// PxAt converts a wall-clock time to a vertical offset:
// ((hour - anchorHour)*60 + minute) / 15 * quarterHourPx.
func PxAt(hour, minute, anchorHour int, quarterHourPx float64) float64 {
	return float64((hour-anchorHour)*60+minute) * quarterHourPx / 15
}

// PxAt positions a time of day on this grid.
func (g Grid) PxAt(t TimeOfDay) float64 {
	return PxAt(t.Hour, t.Minute, g.StartHour, g.QuarterHourPx)
}

// PxAtTime positions the wall-clock part of t on this grid.
func (g Grid) PxAtTime(t time.Time) float64 {
	return g.PxAt(TimeOf(t))
}

// Slots is the number of quarter-hour rows.
func (g Grid) Slots() int {
	return (g.EndHour - g.StartHour) * 4
}

// Height is the total pixel height of the grid.
func (g Grid) Height() float64 {
	return float64(g.Slots()) * g.QuarterHourPx
}

// Contains reports whether t falls inside the displayed hours.
func (g Grid) Contains(t TimeOfDay) bool {
	m := t.Minutes()
	return m >= g.StartHour*60 && m < g.EndHour*60
}
