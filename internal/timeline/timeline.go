// Package timeline generates the rolling week axis the forecast hangs
// off: Monday-aligned week shells numbered relative to an anchor week,
// with past/current/future status derived from the clock. Everything
// here is stateless and deterministic for a given anchor and now.
package timeline

import (
	"time"

	"github.com/runwayhq/runway/internal/domain"
)

// WeekShell is one slot on the timeline before any money is bucketed
// into it. End is inclusive: the last representable instant of the
// week's Sunday.
type WeekShell struct {
	Number int
	Start  time.Time
	End    time.Time
	Status domain.WeekStatus
}

// Window describes how far the timeline reaches around the current
// week. Past counts completed weeks before the current one, Future
// counts weeks after it. The current week is always included.
type Window struct {
	Past   int
	Future int
}

// FixedWindow is the default dashboard view: the current week plus
// twelve ahead, nothing behind.
var FixedWindow = Window{Past: 0, Future: 12}

// WeekStart returns the Monday 00:00 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	// time.Weekday puts Sunday at 0; shift so Monday is 0.
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// WeekNumber returns the week index of t relative to the anchor's
// week. The anchor's own week is 0; earlier weeks are negative.
func WeekNumber(anchor, t time.Time) int {
	days := int(WeekStart(t).Sub(WeekStart(anchor)).Hours() / 24)
	if days < 0 {
		// Go truncates toward zero; week boundaries need floor.
		return (days - 6) / 7
	}
	return days / 7
}

// Generate builds the shells for the window around now, numbered
// relative to the anchor. Weeks run Monday through Sunday; a week is
// past once its Sunday has fully elapsed, current while now falls
// inside it, future before it starts.
func Generate(anchor, now time.Time, window Window) []WeekShell {
	current := WeekNumber(anchor, now)
	shells := make([]WeekShell, 0, window.Past+window.Future+1)

	for n := current - window.Past; n <= current+window.Future; n++ {
		start := WeekStart(anchor).AddDate(0, 0, n*7)
		end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)

		status := domain.WeekCurrent
		switch {
		case n < current:
			status = domain.WeekPast
		case n > current:
			status = domain.WeekFuture
		}

		shells = append(shells, WeekShell{
			Number: n,
			Start:  start,
			End:    end,
			Status: status,
		})
	}
	return shells
}

// Fixed13 generates the standard 13-week view anchored and timed at
// the same instant, so the current week is week 0.
func Fixed13(now time.Time) []WeekShell {
	return Generate(now, now, FixedWindow)
}

// Covering reports the shell containing t, or false when t falls
// outside the generated window.
func Covering(shells []WeekShell, t time.Time) (WeekShell, bool) {
	start := WeekStart(t)
	for _, s := range shells {
		if s.Start.Equal(start) {
			return s, true
		}
	}
	return WeekShell{}, false
}
