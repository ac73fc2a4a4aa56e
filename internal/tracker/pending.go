package tracker

import (
	"context"
	"time"

	"github.com/calebsw/pilltrack/internal/model"
)

// PendingDose is a (medicine, window) pair currently awaiting action.
type PendingDose struct {
	MedicineID     string `json:"medicine_id"`
	Name           string `json:"name"`
	Dosage         string `json:"dosage"`
	WithFood       bool   `json:"with_food"`
	Window         string `json:"window"`
	Start          string `json:"start"`
	End            string `json:"end"`
	PillsRemaining int    `json:"pills_remaining"`
	LowStock       bool   `json:"low_stock"`
}

// Pending lists medicines due and unresolved at the given time, ordered by
// window start then medicine name. A window covers [start, end); a medicine
// with overlapping windows yields one entry per window. A zero time means
// now.
func (t *Tracker) Pending(ctx context.Context, now time.Time) ([]PendingDose, error) {
	if now.IsZero() {
		now = t.now()
	}

	day := model.DayCode(now.Weekday())
	date := now.Format(model.DateFormat)
	candidates, err := t.store.PendingCandidates(ctx, day, date)
	if err != nil {
		return nil, err
	}

	minute := now.Hour()*60 + now.Minute()
	slack := int(t.cfg.ReminderSlack.Minutes())

	// Candidates arrive ordered by window start then name; the in-window
	// filter keeps that order.
	out := make([]PendingDose, 0, len(candidates))
	for _, c := range candidates {
		if !c.Entry.Contains(minute, slack) {
			continue
		}
		out = append(out, PendingDose{
			MedicineID:     c.Medicine.ID,
			Name:           c.Medicine.Name,
			Dosage:         c.Medicine.Dosage,
			WithFood:       c.Medicine.WithFood,
			Window:         c.Entry.Window,
			Start:          c.Entry.Start,
			End:            c.Entry.End,
			PillsRemaining: c.Medicine.PillsRemaining,
			LowStock:       c.Medicine.LowStock(),
		})
	}
	return out, nil
}
