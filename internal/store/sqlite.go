package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	sqlite "modernc.org/sqlite"

	"github.com/calebsw/pilltrack/internal/errs"
	"github.com/calebsw/pilltrack/migrations"
)

// SQLite primary result codes relevant to error mapping.
const (
	codeBusy       = 5
	codeLocked     = 6
	codeConstraint = 19
)

const (
	busyRetries = 3
	busyBackoff = 50 * time.Millisecond
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	log     *zap.Logger
	entropy *rand.Rand
}

var _ Store = (*SQLiteStore)(nil)

// New opens or creates a SQLite database at the given path and applies
// pending migrations. A nil logger disables logging.
func New(dbPath string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite",
		dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		log:     log,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("store opened", zap.String("path", dbPath))
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(s.db, ".")
}

func (s *SQLiteStore) newID() string {
	return "med_" + ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// withTx runs fn inside a transaction, retrying a bounded number of times
// when the database is locked by a concurrent writer.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		if attempt > 0 {
			s.log.Warn("retrying busy transaction", zap.Int("attempt", attempt))
			time.Sleep(time.Duration(attempt) * busyBackoff)
		}
		err = s.runTx(ctx, fn)
		if !errors.Is(err, errs.ErrBusy) {
			return err
		}
	}
	return err
}

func (s *SQLiteStore) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrapErr("begin tx", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return s.wrapErr("commit", err)
	}
	return nil
}

// wrapErr maps driver errors into the store's error taxonomy. Storage-level
// failures are logged with context before being wrapped.
func (s *SQLiteStore) wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case codeBusy, codeLocked:
			return fmt.Errorf("%s: %w", op, errs.ErrBusy)
		case codeConstraint:
			return fmt.Errorf("%s: %w", op, errs.ErrConflict)
		}
	}
	s.log.Error("storage failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %v: %w", op, err, errs.ErrStorage)
}

// touchLastUpdated advances the metadata write timestamp inside tx, so
// callers can cheaply detect external changes.
func touchLastUpdated(tx *sql.Tx, now time.Time) error {
	_, err := tx.Exec(`UPDATE metadata SET value = ? WHERE key = 'last_updated'`,
		now.UTC().Format(time.RFC3339))
	return err
}

// LastUpdated returns the timestamp of the most recent write transaction.
// The zero time means no write has happened yet.
func (s *SQLiteStore) LastUpdated(ctx context.Context) (time.Time, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = 'last_updated'`).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, s.wrapErr("last updated", err)
	}
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last_updated: %w", err)
	}
	return t, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
