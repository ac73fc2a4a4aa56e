package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/calebsw/pilltrack/internal/errs"
)

// ScheduleEntry binds a medicine to a time window on one day of the week.
// Start and End are times of day in "HH:MM" form; the window covers
// [Start, End) with End strictly after Start.
type ScheduleEntry struct {
	Day    string `json:"day"`
	Window string `json:"window"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// ValidWindows are the allowed time window names.
var ValidWindows = map[string]bool{
	"morning":   true,
	"afternoon": true,
	"evening":   true,
	"night":     true,
	"anytime":   true,
}

// ValidDays are the allowed day-of-week codes.
var ValidDays = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true,
	"fri": true, "sat": true, "sun": true,
}

// WindowDefaults are fallback start/end times for each named window,
// used when a schedule is created without explicit times.
var WindowDefaults = map[string][2]string{
	"morning":   {"06:00", "10:00"},
	"afternoon": {"12:00", "15:00"},
	"evening":   {"17:00", "20:00"},
	"night":     {"20:00", "23:00"},
	"anytime":   {"00:00", "23:59"},
}

// DayCode converts a time.Weekday to the three-letter code used in schedules.
func DayCode(d time.Weekday) string {
	return strings.ToLower(d.String()[:3])
}

// MinuteOfDay parses an "HH:MM" time of day into minutes since midnight.
func MinuteOfDay(s string) (int, error) {
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (use HH:MM)", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Contains reports whether a minute of day falls inside the entry's window,
// widened by slack minutes on both sides. The interval is half-open:
// start is inclusive, end is exclusive.
func (e ScheduleEntry) Contains(minute, slack int) bool {
	start, err := MinuteOfDay(e.Start)
	if err != nil {
		return false
	}
	end, err := MinuteOfDay(e.End)
	if err != nil {
		return false
	}
	return minute >= start-slack && minute < end+slack
}

// EntriesForDay returns the medicine's schedule entries for a weekday code.
// Inactive medicines have no due entries.
func (m *Medicine) EntriesForDay(day string) []ScheduleEntry {
	if !m.Active {
		return nil
	}
	var out []ScheduleEntry
	for _, e := range m.Schedule {
		if e.Day == day {
			out = append(out, e)
		}
	}
	return out
}

// ValidateSchedule checks a full schedule for unknown names, malformed or
// inverted times, and duplicate (day, window) pairs.
func ValidateSchedule(entries []ScheduleEntry) error {
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if !ValidDays[e.Day] {
			return fmt.Errorf("%w: schedule[%d].day: unknown day %q", errs.ErrValidation, i, e.Day)
		}
		if !ValidWindows[e.Window] {
			return fmt.Errorf("%w: schedule[%d].window: unknown window %q", errs.ErrValidation, i, e.Window)
		}
		start, err := MinuteOfDay(e.Start)
		if err != nil {
			return fmt.Errorf("%w: schedule[%d].start: %v", errs.ErrValidation, i, err)
		}
		end, err := MinuteOfDay(e.End)
		if err != nil {
			return fmt.Errorf("%w: schedule[%d].end: %v", errs.ErrValidation, i, err)
		}
		if end <= start {
			return fmt.Errorf("%w: schedule[%d]: window end %q must be after start %q",
				errs.ErrValidation, i, e.End, e.Start)
		}
		key := e.Day + "/" + e.Window
		if seen[key] {
			return fmt.Errorf("%w: schedule[%d]: duplicate entry for %s", errs.ErrValidation, i, key)
		}
		seen[key] = true
	}
	return nil
}
