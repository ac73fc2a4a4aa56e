package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calebsw/pilltrack/internal/errs"
	"github.com/calebsw/pilltrack/internal/model"
)

// slotState is the current resolution of one (medicine, date, window) slot.
type slotState struct {
	exists  bool
	taken   bool
	skipped bool
}

func slotFor(tx *sql.Tx, p MarkParams) (slotState, error) {
	var st slotState
	var taken, skipped int
	err := tx.QueryRow(
		`SELECT taken, skipped FROM tracking
		 WHERE medicine_id = ? AND date = ? AND time_window = ?`,
		p.MedicineID, p.Date, p.Window).Scan(&taken, &skipped)
	switch {
	case err == nil:
		st.exists = true
		st.taken = taken != 0
		st.skipped = skipped != 0
	case errors.Is(err, sql.ErrNoRows):
		// pending slot
	default:
		return st, err
	}
	return st, nil
}

// medForUpdate loads the stock-relevant medicine fields inside the write
// transaction. Missing and inactive medicines are both reported as not found.
func medForUpdate(tx *sql.Tx, id string) (pillsRemaining, pillsPerDose, threshold int, err error) {
	var active int
	err = tx.QueryRow(
		`SELECT pills_remaining, pills_per_dose, low_stock_threshold, active
		 FROM medicines WHERE id = ?`, id).
		Scan(&pillsRemaining, &pillsPerDose, &threshold, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, 0, fmt.Errorf("medicine %s: %w", id, errs.ErrNotFound)
	}
	if err == nil && active == 0 {
		return 0, 0, 0, fmt.Errorf("medicine %s is inactive: %w", id, errs.ErrNotFound)
	}
	return pillsRemaining, pillsPerDose, threshold, err
}

// MarkTaken records a taken dose, decrements stock and evaluates low stock,
// all in one transaction. An already-resolved slot is rejected with
// ErrConflict unless AllowRemark is set, in which case the record is
// overwritten and the outcome reports it.
func (s *SQLiteStore) MarkTaken(ctx context.Context, p MarkParams) (*MarkResult, error) {
	var res MarkResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		remaining, perDose, threshold, err := medForUpdate(tx, p.MedicineID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return err
			}
			return s.wrapErr("load medicine", err)
		}

		st, err := slotFor(tx, p)
		if err != nil {
			return s.wrapErr("load slot", err)
		}
		if st.exists && (st.taken || st.skipped) && !p.AllowRemark {
			return fmt.Errorf("slot %s/%s/%s already resolved: %w",
				p.MedicineID, p.Date, p.Window, errs.ErrConflict)
		}

		quantity := p.Quantity
		if quantity <= 0 {
			quantity = perDose
		}
		newCount := remaining - quantity
		if newCount < 0 {
			if !p.ClampStock {
				return fmt.Errorf("%w: pills_remaining: taking %d would exceed stock of %d",
					errs.ErrValidation, quantity, remaining)
			}
			newCount = 0
		}

		ts := p.Timestamp.UTC().Format(time.RFC3339)
		_, err = tx.Exec(
			`INSERT INTO tracking (medicine_id, date, time_window, taken, skipped, skip_reason, pills_taken, timestamp)
			 VALUES (?, ?, ?, 1, 0, NULL, ?, ?)
			 ON CONFLICT(medicine_id, date, time_window)
			 DO UPDATE SET taken = 1, skipped = 0, skip_reason = NULL,
			               pills_taken = excluded.pills_taken, timestamp = excluded.timestamp`,
			p.MedicineID, p.Date, p.Window, quantity, ts)
		if err != nil {
			return s.wrapErr("write tracking", err)
		}

		_, err = tx.Exec(
			`UPDATE medicines SET pills_remaining = ?, updated_at = ? WHERE id = ?`,
			newCount, ts, p.MedicineID)
		if err != nil {
			return s.wrapErr("update stock", err)
		}

		res = MarkResult{
			Outcome:        OutcomeCreated,
			MedicineID:     p.MedicineID,
			Window:         p.Window,
			Date:           p.Date,
			PillsRemaining: newCount,
			LowStock:       newCount <= threshold,
			Timestamp:      p.Timestamp.UTC(),
		}
		if st.exists {
			res.Outcome = OutcomeUpdated
		}
		return touchLastUpdated(tx, p.Timestamp.UTC())
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("dose taken",
		zap.String("medicine", p.MedicineID),
		zap.String("window", p.Window),
		zap.Int("pills_remaining", res.PillsRemaining),
		zap.Bool("low_stock", res.LowStock))
	return &res, nil
}

// MarkSkipped records a skipped dose with the supplied reason. Stock is
// untouched. Same existence and duplicate checks as MarkTaken.
func (s *SQLiteStore) MarkSkipped(ctx context.Context, p MarkParams) (*MarkResult, error) {
	var res MarkResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		remaining, _, threshold, err := medForUpdate(tx, p.MedicineID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return err
			}
			return s.wrapErr("load medicine", err)
		}

		st, err := slotFor(tx, p)
		if err != nil {
			return s.wrapErr("load slot", err)
		}
		if st.exists && (st.taken || st.skipped) && !p.AllowRemark {
			return fmt.Errorf("slot %s/%s/%s already resolved: %w",
				p.MedicineID, p.Date, p.Window, errs.ErrConflict)
		}

		var reason *string
		if p.Reason != "" {
			reason = &p.Reason
		}
		ts := p.Timestamp.UTC().Format(time.RFC3339)
		_, err = tx.Exec(
			`INSERT INTO tracking (medicine_id, date, time_window, taken, skipped, skip_reason, pills_taken, timestamp)
			 VALUES (?, ?, ?, 0, 1, ?, 0, ?)
			 ON CONFLICT(medicine_id, date, time_window)
			 DO UPDATE SET taken = 0, skipped = 1, skip_reason = excluded.skip_reason,
			               pills_taken = 0, timestamp = excluded.timestamp`,
			p.MedicineID, p.Date, p.Window, reason, ts)
		if err != nil {
			return s.wrapErr("write tracking", err)
		}

		res = MarkResult{
			Outcome:        OutcomeCreated,
			MedicineID:     p.MedicineID,
			Window:         p.Window,
			Date:           p.Date,
			PillsRemaining: remaining,
			LowStock:       remaining <= threshold,
			Timestamp:      p.Timestamp.UTC(),
			SkipReason:     p.Reason,
		}
		if st.exists {
			res.Outcome = OutcomeUpdated
		}
		return touchLastUpdated(tx, p.Timestamp.UTC())
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("dose skipped",
		zap.String("medicine", p.MedicineID),
		zap.String("window", p.Window),
		zap.String("reason", p.Reason))
	return &res, nil
}

// History returns tracking records matching the filter, newest first.
func (s *SQLiteStore) History(ctx context.Context, p HistoryParams) ([]model.TrackingRecord, error) {
	query := `
	SELECT t.medicine_id, m.name, m.dosage, t.date, t.time_window,
	       t.taken, t.skipped, t.skip_reason, t.pills_taken, t.timestamp
	FROM tracking t
	INNER JOIN medicines m ON t.medicine_id = m.id
	WHERE 1=1`
	var args []interface{}

	if p.MedicineID != "" {
		query += ` AND t.medicine_id = ?`
		args = append(args, p.MedicineID)
	}
	if p.StartDate != "" {
		query += ` AND t.date >= ?`
		args = append(args, p.StartDate)
	}
	if p.EndDate != "" {
		query += ` AND t.date <= ?`
		args = append(args, p.EndDate)
	}
	if p.SkippedOnly {
		query += ` AND t.skipped = 1`
	}
	query += ` ORDER BY t.date DESC, t.timestamp DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.wrapErr("history", err)
	}
	defer rows.Close()

	var records []model.TrackingRecord
	for rows.Next() {
		var r model.TrackingRecord
		var taken, skipped int
		var reason sql.NullString
		var ts string
		if err := rows.Scan(&r.MedicineID, &r.Name, &r.Dosage, &r.Date, &r.Window,
			&taken, &skipped, &reason, &r.PillsTaken, &ts); err != nil {
			return nil, s.wrapErr("scan tracking", err)
		}
		r.Taken = taken != 0
		r.Skipped = skipped != 0
		if reason.Valid {
			r.SkipReason = reason.String
		}
		r.Timestamp, _ = time.Parse(time.RFC3339, ts)
		records = append(records, r)
	}
	return records, rows.Err()
}
