// Package model defines the core medicine tracking data types.
package model

import "time"

// Timestamp layouts used across the store and CLI.
const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04"
)

// Medicine represents a prescribed item and its stock state.
type Medicine struct {
	ID                string          `json:"id"`
	Name              string          `json:"name" validate:"required,min=1,max=50"`
	Dosage            string          `json:"dosage" validate:"required,min=1,max=20"`
	WithFood          bool            `json:"with_food"`
	Notes             string          `json:"notes,omitempty" validate:"max=100"`
	PillsRemaining    int             `json:"pills_remaining" validate:"min=0,max=1000"`
	PillsPerDose      int             `json:"pills_per_dose" validate:"min=1,max=10"`
	LowStockThreshold int             `json:"low_stock_threshold" validate:"min=0,max=100"`
	Active            bool            `json:"active"`
	Schedule          []ScheduleEntry `json:"schedule,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// LowStock reports whether remaining stock is at or below the threshold.
func (m *Medicine) LowStock() bool {
	return m.PillsRemaining <= m.LowStockThreshold
}

// TrackingRecord is one adherence event for a medicine on a date within a window.
// Absence of a record for a slot means the dose is still pending.
type TrackingRecord struct {
	MedicineID string    `json:"medicine_id"`
	Name       string    `json:"name,omitempty"`
	Dosage     string    `json:"dosage,omitempty"`
	Date       string    `json:"date"`
	Window     string    `json:"window"`
	Taken      bool      `json:"taken"`
	Skipped    bool      `json:"skipped"`
	SkipReason string    `json:"skip_reason,omitempty"`
	PillsTaken int       `json:"pills_taken,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ValidSkipReasons are the allowed reasons for skipping a dose.
var ValidSkipReasons = map[string]bool{
	"Forgot":         true,
	"Side effects":   true,
	"Out of stock":   true,
	"Doctor advised": true,
	"Other":          true,
}

// LowStockItem is a low-stock report row with a rough days-remaining estimate.
type LowStockItem struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Dosage            string  `json:"dosage"`
	PillsRemaining    int     `json:"pills_remaining"`
	PillsPerDose      int     `json:"pills_per_dose"`
	LowStockThreshold int     `json:"low_stock_threshold"`
	DaysRemaining     float64 `json:"days_remaining"`
}
