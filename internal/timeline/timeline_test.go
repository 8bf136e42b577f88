package timeline

import (
	"testing"
	"time"

	"github.com/runwayhq/runway/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday maps to itself", date(2024, time.January, 15), date(2024, time.January, 15)},
		{"wednesday maps back", date(2024, time.January, 17), date(2024, time.January, 15)},
		{"sunday maps back six days", date(2024, time.January, 21), date(2024, time.January, 15)},
		{"time of day ignored", time.Date(2024, time.January, 17, 23, 59, 0, 0, time.UTC), date(2024, time.January, 15)},
		{"year boundary", date(2025, time.January, 1), date(2024, time.December, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStart(tt.in); !got.Equal(tt.want) {
				t.Errorf("WeekStart(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestWeekNumber(t *testing.T) {
	anchor := date(2024, time.January, 15) // a Monday

	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{"same day", anchor, 0},
		{"same week sunday", date(2024, time.January, 21), 0},
		{"next monday", date(2024, time.January, 22), 1},
		{"four weeks out", date(2024, time.February, 14), 4},
		{"previous sunday", date(2024, time.January, 14), -1},
		{"two weeks back", date(2024, time.January, 3), -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekNumber(anchor, tt.t); got != tt.want {
				t.Errorf("WeekNumber = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWeekNumberAnchorInsideWeek(t *testing.T) {
	// Anchoring mid-week must give the same numbering as anchoring on
	// that week's Monday.
	monday := date(2024, time.January, 15)
	thursday := date(2024, time.January, 18)
	target := date(2024, time.February, 2)

	if a, b := WeekNumber(monday, target), WeekNumber(thursday, target); a != b {
		t.Errorf("numbering differs by anchor day within week: %d vs %d", a, b)
	}
}

func TestGenerateFixed13(t *testing.T) {
	now := time.Date(2024, time.January, 17, 9, 30, 0, 0, time.UTC) // Wednesday
	shells := Fixed13(now)

	if len(shells) != 13 {
		t.Fatalf("len = %d, want 13", len(shells))
	}
	if shells[0].Number != 0 || shells[12].Number != 12 {
		t.Errorf("numbers run %d..%d, want 0..12", shells[0].Number, shells[12].Number)
	}
	if !shells[0].Start.Equal(date(2024, time.January, 15)) {
		t.Errorf("week 0 starts %s, want Monday Jan 15", shells[0].Start)
	}
	if shells[0].Status != domain.WeekCurrent {
		t.Errorf("week 0 status = %s, want current", shells[0].Status)
	}
	for _, s := range shells[1:] {
		if s.Status != domain.WeekFuture {
			t.Errorf("week %d status = %s, want future", s.Number, s.Status)
		}
	}
}

func TestGenerateContiguousAndInclusive(t *testing.T) {
	now := date(2024, time.January, 17)
	shells := Generate(now, now, Window{Past: 2, Future: 3})

	if len(shells) != 6 {
		t.Fatalf("len = %d, want 6", len(shells))
	}
	for i, s := range shells {
		if s.End.Sub(s.Start) != 7*24*time.Hour-time.Nanosecond {
			t.Errorf("week %d spans %s", s.Number, s.End.Sub(s.Start))
		}
		if i > 0 {
			prev := shells[i-1]
			if !s.Start.Equal(prev.Start.AddDate(0, 0, 7)) {
				t.Errorf("gap between week %d and %d", prev.Number, s.Number)
			}
		}
	}
}

func TestGenerateStatuses(t *testing.T) {
	now := date(2024, time.January, 17)
	shells := Generate(now, now, Window{Past: 2, Future: 2})

	want := []domain.WeekStatus{
		domain.WeekPast, domain.WeekPast,
		domain.WeekCurrent,
		domain.WeekFuture, domain.WeekFuture,
	}
	for i, s := range shells {
		if s.Status != want[i] {
			t.Errorf("shell %d (week %d) status = %s, want %s", i, s.Number, s.Status, want[i])
		}
	}
}

// Regenerating a week after time has advanced past its Sunday flips it
// from current to past; the boundaries never move.
func TestStatusFlipsAsClockAdvances(t *testing.T) {
	anchor := date(2024, time.January, 15)

	before := Generate(anchor, date(2024, time.January, 17), Window{Past: 0, Future: 1})
	after := Generate(anchor, date(2024, time.January, 24), Window{Past: 1, Future: 0})

	if before[0].Status != domain.WeekCurrent {
		t.Fatalf("week 0 before: %s", before[0].Status)
	}
	if after[0].Status != domain.WeekPast {
		t.Fatalf("week 0 after: %s", after[0].Status)
	}
	if !before[0].Start.Equal(after[0].Start) || !before[0].End.Equal(after[0].End) {
		t.Error("week 0 boundaries moved between generations")
	}
}

func TestCovering(t *testing.T) {
	now := date(2024, time.January, 15)
	shells := Fixed13(now)

	s, ok := Covering(shells, date(2024, time.January, 21))
	if !ok || s.Number != 0 {
		t.Errorf("Jan 21 -> week %d ok=%v, want week 0", s.Number, ok)
	}
	s, ok = Covering(shells, date(2024, time.February, 8))
	if !ok || s.Number != 3 {
		t.Errorf("Feb 8 -> week %d ok=%v, want week 3", s.Number, ok)
	}
	if _, ok := Covering(shells, date(2023, time.December, 1)); ok {
		t.Error("date before the window should not be covered")
	}
	if _, ok := Covering(shells, date(2024, time.June, 1)); ok {
		t.Error("date after the window should not be covered")
	}
}
