// Package store implements schema creation, WAL-mode durability
// pragmas, and the transactional upsert-only write path.
//
// The Transaction helper and testify-driven test style are grounded on
// lxd/db/query/transaction_test.go and lxd/db/node/open_test.go; the
// driver is the same one lxd/db registers for its own node-local
// database, github.com/mattn/go-sqlite3.
package store

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/domi413/typetrace-backend/internal/apperrors"
	"github.com/domi413/typetrace-backend/internal/applog"
	"github.com/domi413/typetrace-backend/internal/keystroke"
	"github.com/domi413/typetrace-backend/internal/paths"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS keystrokes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_code  INTEGER NOT NULL,
	key_name   TEXT    NOT NULL,
	date       TEXT    NOT NULL,
	count      INTEGER NOT NULL DEFAULT 0,
	UNIQUE(scan_code, date)
)`

const upsertSQL = `
INSERT INTO keystrokes (scan_code, key_name, date, count)
VALUES (?, ?, ?, 1)
ON CONFLICT(scan_code, date)
DO UPDATE SET count = count + 1,
              key_name = excluded.key_name`

// pragmas are applied once after opening the database. They trade a small
// durability window on power loss for bounded write latency, which bounds
// the worst-case commit time on the input path.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA cache_size = 10000",
	"PRAGMA temp_store = MEMORY",
}

// Store owns the single-process, single-writer connection to
// TypeTrace.db. This daemon is the only writer; external readers (the
// frontend) may open the file read-only, which WAL mode makes safe.
type Store struct {
	db   *sql.DB
	log  *applog.Logger
	path string
}

// Open resolves path's parent directories, opens (creating if absent) the
// SQLite database at path, applies the durability pragmas, and ensures
// the schema exists. A failure to create the parent directories is the
// apperrors.KindSystem error from paths.EnsureParents; every other
// failure is apperrors.KindStore. All are fatal at startup.
func Open(path string, log *applog.Logger) (*Store, error) {
	if err := paths.EnsureParents(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, apperrors.New(apperrors.KindStore, "open %q: %v", path, err)
	}

	// A single writer, so one connection is both correct and sufficient;
	// it also avoids SQLITE_BUSY from this process racing itself.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log, path: path}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, apperrors.New(apperrors.KindStore, "apply pragma %q: %v", pragma, err)
		}
	}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// createTables executes the schema DDL. Idempotent: running it twice on
// an existing store is a no-op thanks to IF NOT EXISTS.
func (s *Store) createTables() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return apperrors.New(apperrors.KindStore, "create schema: %v", err)
	}
	return nil
}

// Transaction runs fn inside a single sql.Tx, committing on success and
// rolling back on error. Shape grounded on
// lxd/db/query/transaction_test.go's query.Transaction helper.
func Transaction(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}

	return nil
}

// WriteBatch writes events in a single transaction, stepping one
// prepared upsert statement once per event, with per-row failures logged
// and skipped rather than aborting the batch.
func (s *Store) WriteBatch(ctx context.Context, events []keystroke.Event) error {
	if len(events) == 0 {
		return nil
	}

	err := Transaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertSQL)
		if err != nil {
			return errors.Wrap(err, "prepare upsert")
		}
		defer stmt.Close()

		for _, ev := range events {
			if _, err := stmt.ExecContext(ctx, ev.ScanCode, ev.KeyName, ev.Date); err != nil {
				// One malformed event must not cost the whole batch: log and
				// continue.
				s.log.Warnf("store: skipping event scan_code=%d date=%s: %v", ev.ScanCode, ev.Date, err)
				continue
			}
		}

		return nil
	})
	if err != nil {
		return apperrors.New(apperrors.KindStore, "write batch: %v", err)
	}

	return nil
}

// ReadRow returns the persisted row for (scanCode, date), or sql.ErrNoRows
// if none exists yet. Exposed for tests; the daemon itself never reads rows
// back.
func (s *Store) ReadRow(ctx context.Context, scanCode uint16, date string) (keystroke.Row, error) {
	var row keystroke.Row
	err := s.db.QueryRowContext(ctx,
		`SELECT id, scan_code, key_name, date, count FROM keystrokes WHERE scan_code = ? AND date = ?`,
		scanCode, date,
	).Scan(&row.ID, &row.ScanCode, &row.KeyName, &row.Date, &row.Count)
	if err != nil {
		return keystroke.Row{}, err
	}
	return row, nil
}

// Checkpoint issues a WAL checkpoint, truncating the -wal file back into
// the main database. Called once on graceful shutdown so a clean exit
// leaves a single compact file.
func (s *Store) Checkpoint(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
	if err != nil {
		return apperrors.New(apperrors.KindStore, "checkpoint: %v", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the resolved on-disk location of the store.
func (s *Store) Path() string {
	return s.path
}
