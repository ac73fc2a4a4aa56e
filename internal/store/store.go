// Package store provides the medicine storage interface and SQLite implementation.
package store

import (
	"context"
	"time"

	"github.com/calebsw/pilltrack/internal/model"
)

// Outcome tags a tracking write as a first write or an overwrite.
type Outcome string

const (
	// OutcomeCreated means the slot had no resolved record before this write.
	OutcomeCreated Outcome = "created"
	// OutcomeUpdated means an existing record was overwritten (remark mode).
	OutcomeUpdated Outcome = "updated"
)

// MarkParams holds parameters for a single dose-event write.
type MarkParams struct {
	MedicineID string
	Window     string
	Date       string // model.DateFormat
	Timestamp  time.Time
	Quantity   int    // taken only; 0 means the medicine's pills-per-dose
	Reason     string // skip only

	// AllowRemark permits overwriting an already-resolved slot.
	AllowRemark bool
	// ClampStock floors the stock decrement at zero instead of rejecting.
	ClampStock bool
}

// MarkResult reports the durable effect of a dose-event write.
type MarkResult struct {
	Outcome        Outcome   `json:"outcome"`
	MedicineID     string    `json:"medicine_id"`
	Window         string    `json:"window"`
	Date           string    `json:"date"`
	PillsRemaining int       `json:"pills_remaining"`
	LowStock       bool      `json:"low_stock"`
	Timestamp      time.Time `json:"timestamp"`
	SkipReason     string    `json:"skip_reason,omitempty"`
}

// PendingCandidate is an unresolved (medicine, schedule entry) pair for one day.
// The time-of-day filter is applied by the caller.
type PendingCandidate struct {
	Medicine model.Medicine
	Entry    model.ScheduleEntry
}

// MedicinePatch holds optional field updates; nil fields are left unchanged.
type MedicinePatch struct {
	Name              *string
	Dosage            *string
	WithFood          *bool
	Notes             *string
	PillsRemaining    *int
	PillsPerDose      *int
	LowStockThreshold *int
	Active            *bool
}

// HistoryParams filters tracking history queries.
type HistoryParams struct {
	MedicineID  string
	StartDate   string
	EndDate     string
	SkippedOnly bool
}

// Counts aggregates tracking rows for one date.
type Counts struct {
	Taken   int
	Skipped int
}

// Store defines the persistence interface beneath the tracking engine.
type Store interface {
	// CreateMedicine inserts a medicine and its schedule in one transaction.
	// Generates an ID when m.ID is empty. Duplicate IDs yield ErrConflict.
	CreateMedicine(ctx context.Context, m *model.Medicine) error

	// GetMedicine fetches one medicine with its schedule entries.
	GetMedicine(ctx context.Context, id string) (*model.Medicine, error)

	// ListMedicines returns medicines ordered by name.
	ListMedicines(ctx context.Context, includeInactive bool) ([]model.Medicine, error)

	// UpdateMedicine replaces a medicine's fields and schedule wholesale.
	UpdateMedicine(ctx context.Context, m *model.Medicine) error

	// PatchMedicine applies a partial update and returns the new state.
	PatchMedicine(ctx context.Context, id string, p MedicinePatch) (*model.Medicine, error)

	// ReplaceSchedule swaps a medicine's schedule entries in one transaction.
	ReplaceSchedule(ctx context.Context, id string, entries []model.ScheduleEntry) error

	// DeleteMedicine removes a medicine, cascading to schedule and tracking.
	DeleteMedicine(ctx context.Context, id string) error

	// LowStockMedicines lists active medicines at or below their threshold.
	LowStockMedicines(ctx context.Context) ([]model.LowStockItem, error)

	// MarkTaken atomically records a taken dose and decrements stock.
	MarkTaken(ctx context.Context, p MarkParams) (*MarkResult, error)

	// MarkSkipped atomically records a skipped dose. Stock is untouched.
	MarkSkipped(ctx context.Context, p MarkParams) (*MarkResult, error)

	// PendingCandidates returns unresolved schedule entries for a weekday/date.
	PendingCandidates(ctx context.Context, day, date string) ([]PendingCandidate, error)

	// History returns tracking records matching the filter, newest first.
	History(ctx context.Context, p HistoryParams) ([]model.TrackingRecord, error)

	// DueCount counts schedule entries applicable to a weekday.
	DueCount(ctx context.Context, day, medicineID string) (int, error)

	// TrackingCounts sums taken/skipped events for a date.
	TrackingCounts(ctx context.Context, date, medicineID string) (Counts, error)

	// LastUpdated returns the metadata last-write timestamp.
	LastUpdated(ctx context.Context) (time.Time, error)

	// Close closes the store.
	Close() error
}
