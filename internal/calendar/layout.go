package calendar

import "time"

// PositionedEvent is a timed event placed on a Grid.
type PositionedEvent struct {
	CalendarEvent
	Top     float64 `json:"top"`
	Height  float64 `json:"height"`
	InRange bool    `json:"in_range"` // false when outside the grid's hours
}

// DayColumn is one day of a day or week view.
type DayColumn struct {
	Date    time.Time         `json:"date"`
	IsToday bool              `json:"is_today"`
	IsFocus bool              `json:"is_focus"`
	AllDay  []CalendarEvent   `json:"all_day"`
	Timed   []PositionedEvent `json:"timed"`
}

// MonthCell is one day of the month grid.
type MonthCell struct {
	Date    time.Time       `json:"date"`
	InMonth bool            `json:"in_month"`
	IsToday bool            `json:"is_today"`
	IsFocus bool            `json:"is_focus"`
	Events  []CalendarEvent `json:"events"`
}

// View is a render-ready layout of the current navigation state.
type View struct {
	Granularity Granularity   `json:"granularity"`
	Anchor      time.Time     `json:"anchor"`
	FocusDay    time.Time     `json:"focus_day"`
	Title       string        `json:"title"`
	From        time.Time     `json:"from"`
	To          time.Time     `json:"to"`
	Grid        *Grid         `json:"grid,omitempty"`
	Columns     []DayColumn   `json:"columns,omitempty"`
	Weeks       [][]MonthCell `json:"weeks,omitempty"`
}

// BuildView lays out events for the state. Day and week views are positioned
// with grid; the month view ignores it.
func BuildView(s NavigationState, events []CalendarEvent, grid Grid, today time.Time) View {
	from, to := s.VisibleRange()
	v := View{
		Granularity: s.Granularity,
		Anchor:      s.Anchor,
		FocusDay:    s.FocusDay,
		Title:       s.Title(),
		From:        from,
		To:          to,
	}

	inView := EventsInRange(events, from, to)

	if s.Granularity == GranularityMonth {
		v.Weeks = buildMonth(s, inView, from, to, today)
		return v
	}

	g := grid.Normalize()
	v.Grid = &g
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		v.Columns = append(v.Columns, buildColumn(d, s.FocusDay, inView, g, today))
	}
	return v
}

func buildColumn(day, focus time.Time, events []CalendarEvent, g Grid, today time.Time) DayColumn {
	split := SplitEventsByTime(EventsOnDate(events, day))
	col := DayColumn{
		Date:    day,
		IsToday: SameDay(day, today),
		IsFocus: SameDay(day, focus),
		AllDay:  split.AllDay,
	}
	for _, ev := range split.Timed {
		col.Timed = append(col.Timed, PositionedEvent{
			CalendarEvent: ev,
			Top:           g.PxAt(*ev.Time),
			Height:        g.QuarterHourPx,
			InRange:       g.Contains(*ev.Time),
		})
	}
	return col
}

func buildMonth(s NavigationState, events []CalendarEvent, from, to, today time.Time) [][]MonthCell {
	var weeks [][]MonthCell
	var week []MonthCell
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		week = append(week, MonthCell{
			Date:    d,
			InMonth: d.Month() == s.Anchor.Month() && d.Year() == s.Anchor.Year(),
			IsToday: SameDay(d, today),
			IsFocus: SameDay(d, s.FocusDay),
			Events:  EventsOnDate(events, d),
		})
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = nil
		}
	}
	return weeks
}
