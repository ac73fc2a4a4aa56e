package store

import (
	"context"
	"database/sql"
	"os"
)

// DueCount counts schedule entries applicable to a weekday across active
// medicines, optionally restricted to one medicine.
func (s *SQLiteStore) DueCount(ctx context.Context, day, medicineID string) (int, error) {
	query := `
	SELECT COUNT(*)
	FROM schedule_entries se
	INNER JOIN medicines m ON m.id = se.medicine_id
	WHERE m.active = 1 AND se.day = ?`
	args := []interface{}{day}
	if medicineID != "" {
		query += ` AND m.id = ?`
		args = append(args, medicineID)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, s.wrapErr("due count", err)
	}
	return n, nil
}

// TrackingCounts sums taken and skipped events for a date across active
// medicines, optionally restricted to one medicine.
func (s *SQLiteStore) TrackingCounts(ctx context.Context, date, medicineID string) (Counts, error) {
	query := `
	SELECT COALESCE(SUM(t.taken), 0), COALESCE(SUM(t.skipped), 0)
	FROM tracking t
	INNER JOIN medicines m ON m.id = t.medicine_id
	WHERE m.active = 1 AND t.date = ?`
	args := []interface{}{date}
	if medicineID != "" {
		query += ` AND t.medicine_id = ?`
		args = append(args, medicineID)
	}

	var c Counts
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&c.Taken, &c.Skipped); err != nil {
		return Counts{}, s.wrapErr("tracking counts", err)
	}
	return c, nil
}

// Stats holds database statistics.
type Stats struct {
	DBPath          string `json:"db_path"`
	DBSizeBytes     int64  `json:"db_size_bytes"`
	SchemaVersion   string `json:"schema_version"`
	LastUpdated     string `json:"last_updated"`
	Medicines       int    `json:"medicines"`
	ActiveMedicines int    `json:"active_medicines"`
	ScheduleEntries int    `json:"schedule_entries"`
	TrackingRecords int    `json:"tracking_records"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM medicines`).Scan(&st.Medicines)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM medicines WHERE active = 1`).Scan(&st.ActiveMedicines)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedule_entries`).Scan(&st.ScheduleEntries)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracking`).Scan(&st.TrackingRecords)
	s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&st.SchemaVersion)

	var last sql.NullString
	s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'last_updated'`).Scan(&last)
	if last.Valid {
		st.LastUpdated = last.String
	}

	return st, nil
}

// Vacuum reclaims space and refreshes the query planner statistics.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return s.wrapErr("vacuum", err)
	}
	if _, err := s.db.ExecContext(ctx, `ANALYZE`); err != nil {
		return s.wrapErr("analyze", err)
	}
	s.log.Info("database optimized")
	return nil
}
