package store

import (
	"context"
	"database/sql"
	"time"
)

// PendingCandidates returns every active (medicine, schedule entry) pair for
// the given weekday whose slot on the given date is still unresolved.
// Ordering is window start ascending, then medicine name ascending, which
// the resolver preserves after the time-of-day filter.
func (s *SQLiteStore) PendingCandidates(ctx context.Context, day, date string) ([]PendingCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.name, m.dosage, m.with_food, m.notes, m.pills_remaining,
		       m.pills_per_dose, m.low_stock_threshold, m.active, m.created_at, m.updated_at,
		       se.day, se.time_window, se.window_start, se.window_end
		FROM medicines m
		INNER JOIN schedule_entries se ON se.medicine_id = m.id
		LEFT JOIN tracking t ON t.medicine_id = m.id
		    AND t.date = ?
		    AND t.time_window = se.time_window
		WHERE m.active = 1
		  AND se.day = ?
		  AND (t.medicine_id IS NULL OR (t.taken = 0 AND t.skipped = 0))
		ORDER BY se.window_start ASC, m.name ASC`, date, day)
	if err != nil {
		return nil, s.wrapErr("pending candidates", err)
	}
	defer rows.Close()

	var out []PendingCandidate
	for rows.Next() {
		var c PendingCandidate
		m, e := &c.Medicine, &c.Entry
		var notes sql.NullString
		var withFood, active int
		var createdAt, updatedAt string
		err := rows.Scan(&m.ID, &m.Name, &m.Dosage, &withFood, &notes, &m.PillsRemaining,
			&m.PillsPerDose, &m.LowStockThreshold, &active, &createdAt, &updatedAt,
			&e.Day, &e.Window, &e.Start, &e.End)
		if err != nil {
			return nil, s.wrapErr("scan candidate", err)
		}
		m.WithFood = withFood != 0
		m.Active = active != 0
		if notes.Valid {
			m.Notes = notes.String
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}
