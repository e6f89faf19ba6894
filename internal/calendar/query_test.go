package calendar

import (
	"testing"
	"time"
)

func TestMidnight(t *testing.T) {
	got := Midnight(at(2024, 6, 12, 23, 59))
	if !got.Equal(day(2024, 6, 12)) {
		t.Errorf("Midnight() = %v, want 2024-06-12 00:00", got)
	}
}

func TestSameDay(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{"same instant", day(2024, 6, 12), day(2024, 6, 12), true},
		{"different times", at(2024, 6, 12, 0, 1), at(2024, 6, 12, 23, 59), true},
		{"adjacent days", at(2024, 6, 12, 23, 59), day(2024, 6, 13), false},
		{"same day other month", day(2024, 5, 12), day(2024, 6, 12), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameDay(tt.a, tt.b); got != tt.want {
				t.Errorf("SameDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventsOnDate(t *testing.T) {
	events := Aggregate(fixtureInputs(), DefaultFilters())

	got := EventsOnDate(events, at(2024, 6, 12, 18, 0))
	want := []string{"expense:e2", "income:i1", "note:n1"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}

	if empty := EventsOnDate(events, day(2024, 7, 1)); len(empty) != 0 {
		t.Errorf("len = %d, want 0 for a day without events", len(empty))
	}
}

func TestEventsOnDate_SubsetProperty(t *testing.T) {
	events := Aggregate(fixtureInputs(), DefaultFilters())
	all := idsOf(events)

	for d := day(2024, 5, 30); d.Before(day(2024, 6, 20)); d = d.AddDate(0, 0, 1) {
		for _, ev := range EventsOnDate(events, d) {
			if !all[ev.ID] {
				t.Errorf("%s not in input", ev.ID)
			}
			if !SameDay(ev.Date, d) {
				t.Errorf("%s dated %v returned for %v", ev.ID, ev.Date, d)
			}
		}
	}
}

func TestSplitEventsByTime(t *testing.T) {
	events := EventsOnDate(Aggregate(fixtureInputs(), DefaultFilters()), day(2024, 6, 12))

	split := SplitEventsByTime(events)
	if len(split.AllDay)+len(split.Timed) != len(events) {
		t.Fatalf("split sizes %d+%d != %d", len(split.AllDay), len(split.Timed), len(events))
	}
	if len(split.Timed) != 1 || split.Timed[0].ID != "note:n1" {
		t.Errorf("Timed = %+v, want only note:n1", split.Timed)
	}
	if len(split.AllDay) != 2 || split.AllDay[0].ID != "expense:e2" || split.AllDay[1].ID != "income:i1" {
		t.Errorf("AllDay = %+v, want expense:e2, income:i1 in order", split.AllDay)
	}
}

func TestSplitEventsByTime_PreservesOrder(t *testing.T) {
	events := []CalendarEvent{
		{ID: "c"},
		{ID: "b", Time: &TimeOfDay{Hour: 9}},
		{ID: "a"},
		{ID: "d", Time: &TimeOfDay{Hour: 8}},
	}

	split := SplitEventsByTime(events)
	if split.AllDay[0].ID != "c" || split.AllDay[1].ID != "a" {
		t.Errorf("AllDay order = %v, %v", split.AllDay[0].ID, split.AllDay[1].ID)
	}
	if split.Timed[0].ID != "b" || split.Timed[1].ID != "d" {
		t.Errorf("Timed order = %v, %v", split.Timed[0].ID, split.Timed[1].ID)
	}
}

func TestSplitEventsByTime_ZeroValueIsAllDay(t *testing.T) {
	ev := CalendarEvent{ID: "x", Date: day(2024, 6, 12)}

	split := SplitEventsByTime([]CalendarEvent{ev})
	if len(split.AllDay) != 1 || len(split.Timed) != 0 {
		t.Errorf("all-day=%d timed=%d, want 1 and 0", len(split.AllDay), len(split.Timed))
	}
}

func TestEventsInRange(t *testing.T) {
	events := Aggregate(fixtureInputs(), DefaultFilters())

	got := EventsInRange(events, day(2024, 6, 10), at(2024, 6, 14, 8, 0))
	if len(got) != 4 {
		t.Errorf("len = %d, want 4 (range is day-inclusive)", len(got))
	}
}
