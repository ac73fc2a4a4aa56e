// Package tracker implements the dose transaction engine, the pending-dose
// resolver and the adherence statistics over the persistence layer.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/calebsw/pilltrack/internal/errs"
	"github.com/calebsw/pilltrack/internal/model"
	"github.com/calebsw/pilltrack/internal/store"
)

// Config carries the engine's policy switches. The zero value is the strict
// default: duplicate marks rejected, stock underflow rejected, no reminder
// slack around schedule windows.
type Config struct {
	// ClampStock floors stock decrements at zero instead of rejecting them.
	ClampStock bool
	// AllowRemark lets a dose event overwrite an already-resolved slot.
	AllowRemark bool
	// ReminderSlack widens schedule windows on both sides for pending checks.
	ReminderSlack time.Duration
	// Now supplies wall-clock time for defaulted timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Tracker is the single write path for adherence events and the read path
// for pending doses and statistics. It holds no state between calls.
type Tracker struct {
	store    store.Store
	cfg      Config
	log      *zap.Logger
	validate *validator.Validate
}

// New constructs a Tracker over the given store.
func New(st store.Store, cfg Config, log *zap.Logger) *Tracker {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		store:    st,
		cfg:      cfg,
		log:      log,
		validate: validator.New(),
	}
}

func (t *Tracker) now() time.Time {
	return t.cfg.Now()
}

// validateMedicine checks struct tags plus schedule rules, surfacing the
// first offending field.
func (t *Tracker) validateMedicine(m *model.Medicine) error {
	if err := t.validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s: failed %q constraint", errs.ErrValidation, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	return model.ValidateSchedule(m.Schedule)
}

// AddMedicine validates and persists a new medicine with its schedule.
func (t *Tracker) AddMedicine(ctx context.Context, m *model.Medicine) error {
	if err := t.validateMedicine(m); err != nil {
		return err
	}
	if err := t.store.CreateMedicine(ctx, m); err != nil {
		return err
	}
	t.log.Info("medicine added", zap.String("id", m.ID), zap.String("name", m.Name))
	return nil
}

// GetMedicine fetches one medicine with its schedule.
func (t *Tracker) GetMedicine(ctx context.Context, id string) (*model.Medicine, error) {
	return t.store.GetMedicine(ctx, id)
}

// ListMedicines lists medicines, active-only unless includeInactive is set.
func (t *Tracker) ListMedicines(ctx context.Context, includeInactive bool) ([]model.Medicine, error) {
	return t.store.ListMedicines(ctx, includeInactive)
}

// UpdateMedicine validates and replaces a medicine wholesale.
func (t *Tracker) UpdateMedicine(ctx context.Context, m *model.Medicine) error {
	if err := t.validateMedicine(m); err != nil {
		return err
	}
	if err := t.store.UpdateMedicine(ctx, m); err != nil {
		return err
	}
	t.log.Info("medicine updated", zap.String("id", m.ID))
	return nil
}

// PatchMedicine validates the merged state, then applies a partial update.
func (t *Tracker) PatchMedicine(ctx context.Context, id string, p store.MedicinePatch) (*model.Medicine, error) {
	cur, err := t.store.GetMedicine(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := *cur
	applyPatch(&merged, p)
	if err := t.validateMedicine(&merged); err != nil {
		return nil, err
	}

	m, err := t.store.PatchMedicine(ctx, id, p)
	if err != nil {
		return nil, err
	}
	t.log.Info("medicine patched", zap.String("id", id))
	return m, nil
}

func applyPatch(m *model.Medicine, p store.MedicinePatch) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.WithFood != nil {
		m.WithFood = *p.WithFood
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if p.PillsRemaining != nil {
		m.PillsRemaining = *p.PillsRemaining
	}
	if p.PillsPerDose != nil {
		m.PillsPerDose = *p.PillsPerDose
	}
	if p.LowStockThreshold != nil {
		m.LowStockThreshold = *p.LowStockThreshold
	}
	if p.Active != nil {
		m.Active = *p.Active
	}
}

// ReplaceSchedule validates and swaps a medicine's schedule.
func (t *Tracker) ReplaceSchedule(ctx context.Context, id string, entries []model.ScheduleEntry) error {
	if err := model.ValidateSchedule(entries); err != nil {
		return err
	}
	if err := t.store.ReplaceSchedule(ctx, id, entries); err != nil {
		return err
	}
	t.log.Info("schedule replaced", zap.String("id", id), zap.Int("entries", len(entries)))
	return nil
}

// DeleteMedicine removes a medicine and, by cascade, its schedule and history.
func (t *Tracker) DeleteMedicine(ctx context.Context, id string) error {
	if err := t.store.DeleteMedicine(ctx, id); err != nil {
		return err
	}
	t.log.Info("medicine deleted", zap.String("id", id))
	return nil
}

// LowStock lists active medicines at or below their threshold.
func (t *Tracker) LowStock(ctx context.Context) ([]model.LowStockItem, error) {
	return t.store.LowStockMedicines(ctx)
}

// History returns tracking records matching the filter.
func (t *Tracker) History(ctx context.Context, p store.HistoryParams) ([]model.TrackingRecord, error) {
	return t.store.History(ctx, p)
}

// LastUpdated exposes the store's last-write timestamp for cache invalidation.
func (t *Tracker) LastUpdated(ctx context.Context) (time.Time, error) {
	return t.store.LastUpdated(ctx)
}
