package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/calebsw/pilltrack/internal/errs"
	"github.com/calebsw/pilltrack/internal/model"
)

const medicineCols = `id, name, dosage, with_food, notes, pills_remaining,
	pills_per_dose, low_stock_threshold, active, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMedicine(row scanner) (model.Medicine, error) {
	var m model.Medicine
	var notes sql.NullString
	var withFood, active int
	var createdAt, updatedAt string

	err := row.Scan(
		&m.ID, &m.Name, &m.Dosage, &withFood, &notes, &m.PillsRemaining,
		&m.PillsPerDose, &m.LowStockThreshold, &active, &createdAt, &updatedAt,
	)
	if err != nil {
		return m, err
	}

	m.WithFood = withFood != 0
	m.Active = active != 0
	if notes.Valid {
		m.Notes = notes.String
	}
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return m, nil
}

func insertEntries(tx *sql.Tx, medicineID string, entries []model.ScheduleEntry) error {
	for _, e := range entries {
		_, err := tx.Exec(
			`INSERT INTO schedule_entries (medicine_id, day, time_window, window_start, window_end)
			 VALUES (?, ?, ?, ?, ?)`,
			medicineID, e.Day, e.Window, e.Start, e.End)
		if err != nil {
			return err
		}
	}
	return nil
}

// CreateMedicine inserts a medicine and its schedule entries in one
// transaction. An empty ID is replaced with a generated one.
func (s *SQLiteStore) CreateMedicine(ctx context.Context, m *model.Medicine) error {
	if m.ID == "" {
		m.ID = s.newID()
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	var notes *string
	if m.Notes != "" {
		notes = &m.Notes
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO medicines (id, name, dosage, with_food, notes, pills_remaining,
			     pills_per_dose, low_stock_threshold, active, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Name, m.Dosage, boolInt(m.WithFood), notes, m.PillsRemaining,
			m.PillsPerDose, m.LowStockThreshold, boolInt(m.Active),
			now.Format(time.RFC3339), now.Format(time.RFC3339))
		if err != nil {
			return s.wrapErr("insert medicine", err)
		}
		if err := insertEntries(tx, m.ID, m.Schedule); err != nil {
			return s.wrapErr("insert schedule", err)
		}
		return touchLastUpdated(tx, now)
	})
}

// GetMedicine fetches one medicine with its schedule entries.
func (s *SQLiteStore) GetMedicine(ctx context.Context, id string) (*model.Medicine, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+medicineCols+` FROM medicines WHERE id = ?`, id)
	m, err := scanMedicine(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("medicine %s: %w", id, errs.ErrNotFound)
		}
		return nil, s.wrapErr("get medicine", err)
	}

	entries, err := s.loadSchedules(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Schedule = entries[id]
	return &m, nil
}

// ListMedicines returns medicines ordered by name, active-only by default.
func (s *SQLiteStore) ListMedicines(ctx context.Context, includeInactive bool) ([]model.Medicine, error) {
	query := `SELECT ` + medicineCols + ` FROM medicines`
	if !includeInactive {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.wrapErr("list medicines", err)
	}
	defer rows.Close()

	var meds []model.Medicine
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, s.wrapErr("scan medicine", err)
		}
		meds = append(meds, m)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrapErr("list medicines", err)
	}

	entries, err := s.loadSchedules(ctx, "")
	if err != nil {
		return nil, err
	}
	for i := range meds {
		meds[i].Schedule = entries[meds[i].ID]
	}
	return meds, nil
}

// loadSchedules loads schedule entries grouped by medicine. An empty id
// loads entries for all medicines.
func (s *SQLiteStore) loadSchedules(ctx context.Context, id string) (map[string][]model.ScheduleEntry, error) {
	query := `SELECT medicine_id, day, time_window, window_start, window_end
	          FROM schedule_entries`
	var args []interface{}
	if id != "" {
		query += ` WHERE medicine_id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY day, window_start`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrapErr("load schedules", err)
	}
	defer rows.Close()

	out := make(map[string][]model.ScheduleEntry)
	for rows.Next() {
		var medID string
		var e model.ScheduleEntry
		if err := rows.Scan(&medID, &e.Day, &e.Window, &e.Start, &e.End); err != nil {
			return nil, s.wrapErr("scan schedule", err)
		}
		out[medID] = append(out[medID], e)
	}
	return out, rows.Err()
}

// UpdateMedicine replaces a medicine's fields and schedule wholesale,
// delete-then-insert, inside one transaction.
func (s *SQLiteStore) UpdateMedicine(ctx context.Context, m *model.Medicine) error {
	now := time.Now().UTC()
	m.UpdatedAt = now

	var notes *string
	if m.Notes != "" {
		notes = &m.Notes
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`UPDATE medicines SET name = ?, dosage = ?, with_food = ?, notes = ?,
			     pills_remaining = ?, pills_per_dose = ?, low_stock_threshold = ?,
			     active = ?, updated_at = ?
			 WHERE id = ?`,
			m.Name, m.Dosage, boolInt(m.WithFood), notes, m.PillsRemaining,
			m.PillsPerDose, m.LowStockThreshold, boolInt(m.Active),
			now.Format(time.RFC3339), m.ID)
		if err != nil {
			return s.wrapErr("update medicine", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("medicine %s: %w", m.ID, errs.ErrNotFound)
		}

		if _, err := tx.Exec(`DELETE FROM schedule_entries WHERE medicine_id = ?`, m.ID); err != nil {
			return s.wrapErr("clear schedule", err)
		}
		if err := insertEntries(tx, m.ID, m.Schedule); err != nil {
			return s.wrapErr("insert schedule", err)
		}
		return touchLastUpdated(tx, now)
	})
}

// PatchMedicine applies a partial update and returns the new state.
func (s *SQLiteStore) PatchMedicine(ctx context.Context, id string, p MedicinePatch) (*model.Medicine, error) {
	now := time.Now().UTC()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT `+medicineCols+` FROM medicines WHERE id = ?`, id)
		m, err := scanMedicine(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("medicine %s: %w", id, errs.ErrNotFound)
			}
			return s.wrapErr("get medicine", err)
		}

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
		if m.PillsRemaining < 0 {
			return fmt.Errorf("%w: pills_remaining must not be negative", errs.ErrValidation)
		}

		var notes *string
		if m.Notes != "" {
			notes = &m.Notes
		}
		_, err = tx.Exec(
			`UPDATE medicines SET name = ?, dosage = ?, with_food = ?, notes = ?,
			     pills_remaining = ?, pills_per_dose = ?, low_stock_threshold = ?,
			     active = ?, updated_at = ?
			 WHERE id = ?`,
			m.Name, m.Dosage, boolInt(m.WithFood), notes, m.PillsRemaining,
			m.PillsPerDose, m.LowStockThreshold, boolInt(m.Active),
			now.Format(time.RFC3339), id)
		if err != nil {
			return s.wrapErr("patch medicine", err)
		}
		return touchLastUpdated(tx, now)
	})
	if err != nil {
		return nil, err
	}
	return s.GetMedicine(ctx, id)
}

// ReplaceSchedule swaps a medicine's schedule entries in one transaction.
func (s *SQLiteStore) ReplaceSchedule(ctx context.Context, id string, entries []model.ScheduleEntry) error {
	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE medicines SET updated_at = ? WHERE id = ?`,
			now.Format(time.RFC3339), id)
		if err != nil {
			return s.wrapErr("touch medicine", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("medicine %s: %w", id, errs.ErrNotFound)
		}
		if _, err := tx.Exec(`DELETE FROM schedule_entries WHERE medicine_id = ?`, id); err != nil {
			return s.wrapErr("clear schedule", err)
		}
		if err := insertEntries(tx, id, entries); err != nil {
			return s.wrapErr("insert schedule", err)
		}
		return touchLastUpdated(tx, now)
	})
}

// DeleteMedicine removes a medicine; schedule entries and tracking records
// go with it via foreign key cascade.
func (s *SQLiteStore) DeleteMedicine(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM medicines WHERE id = ?`, id)
		if err != nil {
			return s.wrapErr("delete medicine", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("medicine %s: %w", id, errs.ErrNotFound)
		}
		return touchLastUpdated(tx, now)
	})
}

// LowStockMedicines lists active medicines at or below their threshold,
// lowest stock first, with a rough days-remaining estimate.
func (s *SQLiteStore) LowStockMedicines(ctx context.Context) ([]model.LowStockItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, dosage, pills_remaining, pills_per_dose, low_stock_threshold,
		       ROUND(CAST(pills_remaining AS REAL) / CAST(pills_per_dose AS REAL), 1)
		FROM medicines
		WHERE active = 1 AND pills_remaining <= low_stock_threshold
		ORDER BY pills_remaining ASC`)
	if err != nil {
		return nil, s.wrapErr("low stock", err)
	}
	defer rows.Close()

	var items []model.LowStockItem
	for rows.Next() {
		var it model.LowStockItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Dosage, &it.PillsRemaining,
			&it.PillsPerDose, &it.LowStockThreshold, &it.DaysRemaining); err != nil {
			return nil, s.wrapErr("scan low stock", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
