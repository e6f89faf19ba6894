package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/core"
	"github.com/quantumlife/lifedesk/internal/finance"
)

// run executes the CLI against a fresh data directory.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--data-dir", dir, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// ============================================================================
// Command Tests
// ============================================================================

func TestCLI_Version(t *testing.T) {
	out, err := run(t, t.TempDir(), "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("output %q should contain %s", out, version)
	}
}

func TestCLI_RecordsAndAgenda(t *testing.T) {
	dir := t.TempDir()

	steps := [][]string{
		{"note", "add", "Dentist", "--remind", "2024-03-14", "--at", "09:30"},
		{"expense", "add", "Rent", "--amount", "900", "--due", "2024-03-14", "--category", "housing"},
		{"income", "add", "250", "--date", "2024-03-12", "--hours", "8", "--minutes", "30"},
		{"category", "set", "housing", "#3b82f6"},
	}
	for _, args := range steps {
		if out, err := run(t, dir, args...); err != nil {
			t.Fatalf("%v: %v (%s)", args, err, out)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "lifedesk.db")); err != nil {
		t.Errorf("database not created in data dir: %v", err)
	}

	out, err := run(t, dir, "agenda", "--view", "week", "--date", "2024-03-14")
	if err != nil {
		t.Fatalf("agenda: %v", err)
	}
	for _, want := range []string{"Mar 11 - Mar 17, 2024", "Tue Mar 12", "Income 250.00 (8h 30m)", "Thu Mar 14", "09:30", "Dentist", "Rent"} {
		if !strings.Contains(out, want) {
			t.Errorf("agenda missing %q:\n%s", want, out)
		}
	}

	out, _ = run(t, dir, "agenda", "--view", "week", "--date", "2024-03-14", "--no-notes", "--no-income")
	if strings.Contains(out, "Dentist") || strings.Contains(out, "Income") {
		t.Errorf("filtered agenda shows hidden sources:\n%s", out)
	}

	out, _ = run(t, dir, "note", "list")
	if !strings.Contains(out, "2024-03-14 09:30") {
		t.Errorf("note list missing reminder:\n%s", out)
	}
}

func TestCLI_RecurringExpenseAndExport(t *testing.T) {
	dir := t.TempDir()

	due := calendar.Midnight(time.Now()).Format(core.DateLayout)
	out, err := run(t, dir, "expense", "add", "Gym", "--amount", "30", "--due", due, "--recur", "FREQ=WEEKLY")
	if err != nil {
		t.Fatalf("expense add: %v (%s)", err, out)
	}
	if !strings.Contains(out, "occurrences scheduled") {
		t.Errorf("output = %q", out)
	}

	path := filepath.Join(dir, "out.ics")
	if _, err := run(t, dir, "export", "ics", "--from", due, "--to", due, "--out", path); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if strings.Count(string(data), "BEGIN:VEVENT") != 1 || !strings.Contains(string(data), "SUMMARY:Gym") {
		t.Errorf("export = %s", data)
	}
}

func TestCLI_Summary(t *testing.T) {
	dir := t.TempDir()

	steps := [][]string{
		{"expense", "add", "Rent", "--amount", "900", "--due", "2024-03-14", "--category", "housing"},
		{"income", "add", "250", "--date", "2024-03-12", "--hours", "8", "--minutes", "30"},
	}
	for _, args := range steps {
		if out, err := run(t, dir, args...); err != nil {
			t.Fatalf("%v: %v (%s)", args, err, out)
		}
	}

	out, err := run(t, dir, "summary", "--from", "2024-03-01")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{
		"Mar 1 - Mar 31, 2024",
		"900.00 (0.00 paid, 900.00 unpaid)",
		"250.00",
		"-650.00",
		"29.41 (8h 30m worked)",
		"housing",
		"No bills due.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_InvalidInput(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"bad view", []string{"agenda", "--view", "year"}, core.ErrInvalidGranularity},
		{"bad date", []string{"agenda", "--date", "14/03/2024"}, core.ErrInvalidDate},
		{"empty note", []string{"note", "add", " "}, core.ErrMissingRequired},
		{"time without date", []string{"note", "add", "x", "--at", "10:00"}, core.ErrInvalidInput},
		{"bad amount", []string{"income", "add", "lots"}, core.ErrInvalidInput},
		{"bad rule", []string{"expense", "add", "X", "--due", "2024-01-01", "--recur", "FREQ=SOMETIMES"}, core.ErrInvalidRecurrence},
		{"bad color", []string{"category", "set", "food", "red"}, core.ErrInvalidInput},
		{"unknown expense", []string{"expense", "pay", "nope"}, core.ErrExpenseNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, dir, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

// ============================================================================
// Helper Tests
// ============================================================================

func TestParseReminder(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		at      string
		want    *core.Reminder
		wantErr bool
	}{
		{"none", "", "", nil, false},
		{"date only", "2024-03-14", "", &core.Reminder{DateTime: time.Date(2024, 3, 14, 0, 0, 0, 0, time.Local)}, false},
		{"timed", "2024-03-14", "18:45", &core.Reminder{DateTime: time.Date(2024, 3, 14, 18, 45, 0, 0, time.Local), HasTime: true}, false},
		{"bad time", "2024-03-14", "6pm", nil, true},
		{"time only", "", "18:45", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReminder(tt.date, tt.at)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want == nil {
				if got != nil {
					t.Errorf("got %+v, want nil", got)
				}
				return
			}
			if !got.DateTime.Equal(tt.want.DateTime) || got.HasTime != tt.want.HasTime {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExportRange(t *testing.T) {
	now := time.Date(2024, 2, 14, 10, 0, 0, 0, time.Local)
	d := func(m time.Month, day int) time.Time { return time.Date(2024, m, day, 0, 0, 0, 0, time.Local) }

	tests := []struct {
		name     string
		from, to string
		start    time.Time
		end      time.Time
		wantErr  bool
	}{
		{"defaults", "", "", d(2, 1), d(2, 29), false},
		{"from only", "2024-03-10", "", d(3, 10), d(3, 31), false},
		{"both", "2024-03-10", "2024-03-12", d(3, 10), d(3, 12), false},
		{"reversed", "2024-03-10", "2024-03-01", time.Time{}, time.Time{}, true},
		{"bad", "March", "", time.Time{}, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := exportRange(tt.from, tt.to, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !start.Equal(tt.start) || !end.Equal(tt.end) {
				t.Errorf("range = %v..%v, want %v..%v", start, end, tt.start, tt.end)
			}
		})
	}
}

func TestRenderAgenda_Empty(t *testing.T) {
	var buf bytes.Buffer
	day := time.Date(2024, 3, 14, 0, 0, 0, 0, time.Local)
	renderAgenda(&buf, agendaPage{Title: "Thursday, March 14, 2024", From: day, To: day, Today: day})

	if !strings.Contains(buf.String(), "Nothing scheduled.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestRenderAgenda_Order(t *testing.T) {
	var buf bytes.Buffer
	day := time.Date(2024, 3, 14, 0, 0, 0, 0, time.Local)
	events := []calendar.CalendarEvent{
		{ID: "note:2", Title: "Late", Date: day, Time: &calendar.TimeOfDay{Hour: 17}, Type: calendar.SourceNote},
		{ID: "note:1", Title: "Early", Date: day, Time: &calendar.TimeOfDay{Hour: 8, Minute: 15}, Type: calendar.SourceNote},
		{ID: "expense:1", Title: "Rent", Date: day, Type: calendar.SourceExpense, Expense: &calendar.ExpensePayload{ID: "1"}},
	}
	renderAgenda(&buf, agendaPage{Title: "t", From: day, To: day, Today: day, Events: events, Width: 80})

	out := buf.String()
	rent, early, late := strings.Index(out, "Rent"), strings.Index(out, "Early"), strings.Index(out, "Late")
	if !(rent < early && early < late) {
		t.Errorf("want all-day first then by time:\n%s", out)
	}
	if !strings.Contains(out, "08:15") || !strings.Contains(out, "all day") {
		t.Errorf("missing time labels:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"a long title here", 8, "a long…"},
		{"abcdef", 1, "abc…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestRenderSummary_Bills(t *testing.T) {
	var buf bytes.Buffer
	bills := []finance.Bill{
		{Name: "Phone", Amount: decimal.NewFromInt(30), DaysUntil: -2},
		{Name: "Water", Amount: decimal.NewFromInt(40), DaysUntil: 1},
	}
	s := finance.Summarize(time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), time.Date(2024, 3, 31, 0, 0, 0, 0, time.Local), nil, nil)
	renderSummary(&buf, s, bills)

	out := buf.String()
	if !strings.Contains(out, "Phone 30.00 - 2 days overdue") {
		t.Errorf("missing overdue bill:\n%s", out)
	}
	if !strings.Contains(out, "Water 40.00 - tomorrow") {
		t.Errorf("missing upcoming bill:\n%s", out)
	}
	if strings.Contains(out, "Hourly") {
		t.Error("hourly rate shown without time worked")
	}
}
