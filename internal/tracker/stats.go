package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/calebsw/pilltrack/internal/errs"
	"github.com/calebsw/pilltrack/internal/model"
)

// DailyStats summarizes adherence for one calendar date. Recomputed on
// every call, never stored.
type DailyStats struct {
	Date     string  `json:"date"`
	TotalDue int     `json:"total_due"`
	Taken    int     `json:"taken"`
	Skipped  int     `json:"skipped"`
	Pending  int     `json:"pending"`
	Rate     float64 `json:"rate"`
}

// Period describes an inclusive date range.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// OverallStats aggregates adherence across a period. Rate is the ratio of
// all taken events to all due events, not the mean of daily rates.
type OverallStats struct {
	TotalDue int     `json:"total_due"`
	Taken    int     `json:"taken"`
	Skipped  int     `json:"skipped"`
	Rate     float64 `json:"rate"`
}

// PeriodStats is the per-day breakdown plus the overall aggregate.
type PeriodStats struct {
	Period  Period       `json:"period"`
	Overall OverallStats `json:"overall"`
	PerDay  []DailyStats `json:"per_day"`
}

// DailyStats computes adherence for one date, optionally restricted to one
// medicine. TotalDue counts schedule entries applicable to the date's
// weekday across active medicines; a day with nothing due has rate 0.
func (t *Tracker) DailyStats(ctx context.Context, date time.Time, medicineID string) (*DailyStats, error) {
	if date.IsZero() {
		date = t.now()
	}
	day := model.DayCode(date.Weekday())
	dateStr := date.Format(model.DateFormat)

	due, err := t.store.DueCount(ctx, day, medicineID)
	if err != nil {
		return nil, err
	}
	counts, err := t.store.TrackingCounts(ctx, dateStr, medicineID)
	if err != nil {
		return nil, err
	}

	pending := due - counts.Taken - counts.Skipped
	if pending < 0 {
		pending = 0
	}
	var rate float64
	if due > 0 {
		rate = float64(counts.Taken) / float64(due)
	}

	return &DailyStats{
		Date:     dateStr,
		TotalDue: due,
		Taken:    counts.Taken,
		Skipped:  counts.Skipped,
		Pending:  pending,
		Rate:     rate,
	}, nil
}

// PeriodStats iterates each calendar day in the inclusive range, reusing
// the daily computation. The overall rate is sum(taken)/sum(due) across the
// range, which differs from the mean of daily rates when due-counts vary.
func (t *Tracker) PeriodStats(ctx context.Context, start, end time.Time, medicineID string) (*PeriodStats, error) {
	start = midnight(start)
	end = midnight(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date: must not precede start_date", errs.ErrValidation)
	}

	ps := &PeriodStats{
		Period: Period{
			Start: start.Format(model.DateFormat),
			End:   end.Format(model.DateFormat),
		},
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		ds, err := t.DailyStats(ctx, d, medicineID)
		if err != nil {
			return nil, err
		}
		ps.PerDay = append(ps.PerDay, *ds)
		ps.Overall.TotalDue += ds.TotalDue
		ps.Overall.Taken += ds.Taken
		ps.Overall.Skipped += ds.Skipped
		ps.Period.Days++
	}

	if ps.Overall.TotalDue > 0 {
		ps.Overall.Rate = float64(ps.Overall.Taken) / float64(ps.Overall.TotalDue)
	}
	return ps, nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
