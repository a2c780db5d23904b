package incident

import (
	"fmt"
	"time"
)

// DateFormat is the calendar date layout understood by the API and the CLI.
const DateFormat = "2006-01-02"

// Window is a range of calendar days. The API treats End as exclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow covers today only.
func DefaultWindow(now time.Time) Window {
	today := truncateDay(now)
	return Window{Start: today, End: today.AddDate(0, 0, 1)}
}

// ParseWindow builds a window from up to two YYYY-MM-DD arguments. A missing
// start means today; a missing end means tomorrow.
func ParseWindow(args []string, now time.Time) (Window, error) {
	w := DefaultWindow(now)
	if len(args) > 2 {
		return Window{}, fmt.Errorf("expected at most 2 dates, got %d", len(args))
	}

	if len(args) > 0 {
		start, err := time.Parse(DateFormat, args[0])
		if err != nil {
			return Window{}, fmt.Errorf("parsing start date: %w", err)
		}
		w.Start = start
	}

	if len(args) > 1 {
		end, err := time.Parse(DateFormat, args[1])
		if err != nil {
			return Window{}, fmt.Errorf("parsing end date: %w", err)
		}
		w.End = end
	}

	if w.End.Before(w.Start) {
		return Window{}, fmt.Errorf("end date %s is before start date %s", w.End.Format(DateFormat), w.Start.Format(DateFormat))
	}

	return w, nil
}

func (w Window) Since() string {
	return w.Start.Format(DateFormat)
}

func (w Window) Until() string {
	return w.End.Format(DateFormat)
}

func (w Window) String() string {
	return fmt.Sprintf("%s 00:00:00 - %s 00:00:00", w.Since(), w.Until())
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
