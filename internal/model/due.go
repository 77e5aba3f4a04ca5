package model

import (
	"strings"
	"time"

	"github.com/dori/duelist/internal/taskerr"
)

// Input layouts for split due date/time entry
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// CombineDue merges separate date and time input into one due timestamp in loc.
// Both empty means no deadline. A date without a time falls at 23:59 that day;
// a time without a date is rejected.
func CombineDue(date, clock string, loc *time.Location) (*time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if loc == nil {
		loc = time.Local
	}

	if date == "" {
		if clock != "" {
			return nil, taskerr.Invalid("due_date", "a due time needs a due date")
		}
		return nil, nil
	}

	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return nil, taskerr.Invalid("due_date", "expected YYYY-MM-DD, got %q", date)
	}

	hour, minute := 23, 59
	if clock != "" {
		hm, err := time.Parse(TimeLayout, clock)
		if err != nil {
			return nil, taskerr.Invalid("due_time", "expected HH:MM, got %q", clock)
		}
		hour, minute = hm.Hour(), hm.Minute()
	}

	due := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	return &due, nil
}
