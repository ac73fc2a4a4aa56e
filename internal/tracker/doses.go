package tracker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calebsw/pilltrack/internal/errs"
	"github.com/calebsw/pilltrack/internal/model"
	"github.com/calebsw/pilltrack/internal/store"
)

// BatchResult is the per-medicine outcome of a batch mark operation.
type BatchResult struct {
	MedicineID     string `json:"medicine_id"`
	Success        bool   `json:"success"`
	PillsRemaining int    `json:"pills_remaining,omitempty"`
	LowStock       bool   `json:"low_stock,omitempty"`
	Error          string `json:"error,omitempty"`
}

// MarkTaken records a taken dose for the medicine's slot at the given time.
// A zero time means now; a zero quantity means the medicine's pills-per-dose;
// an empty window is resolved from the schedule.
func (t *Tracker) MarkTaken(ctx context.Context, id, window string, at time.Time, quantity int) (*store.MarkResult, error) {
	if at.IsZero() {
		at = t.now()
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", errs.ErrValidation)
	}

	med, err := t.store.GetMedicine(ctx, id)
	if err != nil {
		return nil, err
	}
	if !med.Active {
		return nil, fmt.Errorf("medicine %s is inactive: %w", id, errs.ErrNotFound)
	}
	window, err = t.resolveWindow(med, window, at)
	if err != nil {
		return nil, err
	}

	return t.store.MarkTaken(ctx, store.MarkParams{
		MedicineID:  id,
		Window:      window,
		Date:        at.Format(model.DateFormat),
		Timestamp:   at,
		Quantity:    quantity,
		AllowRemark: t.cfg.AllowRemark,
		ClampStock:  t.cfg.ClampStock,
	})
}

// MarkSkipped records a skipped dose with the supplied reason.
func (t *Tracker) MarkSkipped(ctx context.Context, id, window string, at time.Time, reason string) (*store.MarkResult, error) {
	if at.IsZero() {
		at = t.now()
	}
	if reason != "" && !model.ValidSkipReasons[reason] {
		return nil, fmt.Errorf("%w: skip_reason: unknown reason %q", errs.ErrValidation, reason)
	}

	med, err := t.store.GetMedicine(ctx, id)
	if err != nil {
		return nil, err
	}
	if !med.Active {
		return nil, fmt.Errorf("medicine %s is inactive: %w", id, errs.ErrNotFound)
	}
	window, err = t.resolveWindow(med, window, at)
	if err != nil {
		return nil, err
	}

	return t.store.MarkSkipped(ctx, store.MarkParams{
		MedicineID:  id,
		Window:      window,
		Date:        at.Format(model.DateFormat),
		Timestamp:   at,
		Reason:      reason,
		AllowRemark: t.cfg.AllowRemark,
	})
}

// BatchMark applies MarkTaken to each id in its own transaction. One id
// failing neither blocks nor rolls back the others; failures are reported
// per id instead of raised.
func (t *Tracker) BatchMark(ctx context.Context, ids []string, at time.Time) []BatchResult {
	if at.IsZero() {
		at = t.now()
	}

	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		res, err := t.MarkTaken(ctx, id, "", at, 0)
		if err != nil {
			t.log.Warn("batch mark item failed", zap.String("medicine", id), zap.Error(err))
			results = append(results, BatchResult{MedicineID: id, Error: errs.Code(err)})
			continue
		}
		results = append(results, BatchResult{
			MedicineID:     id,
			Success:        true,
			PillsRemaining: res.PillsRemaining,
			LowStock:       res.LowStock,
		})
	}
	return results
}

// resolveWindow picks the tracking window for a dose event. An explicit
// window wins; otherwise the first scheduled window containing the event
// time, then a lone scheduled window for the day, then "anytime" for an
// off-schedule dose.
func (t *Tracker) resolveWindow(med *model.Medicine, window string, at time.Time) (string, error) {
	if window != "" {
		if !model.ValidWindows[window] {
			return "", fmt.Errorf("%w: window: unknown window %q", errs.ErrValidation, window)
		}
		return window, nil
	}

	entries := med.EntriesForDay(model.DayCode(at.Weekday()))
	minute := at.Hour()*60 + at.Minute()
	slack := int(t.cfg.ReminderSlack.Minutes())
	for _, e := range entries {
		if e.Contains(minute, slack) {
			return e.Window, nil
		}
	}
	switch len(entries) {
	case 0:
		return "anytime", nil
	case 1:
		return entries[0].Window, nil
	default:
		return "", fmt.Errorf("%w: window: required when multiple windows are scheduled", errs.ErrValidation)
	}
}
