// store.go - persistent relational index adapter: MDX_INDEX(text, def)
// over an embedded SQL engine. The engine itself is a black box this
// package merely drives through database/sql; it never touches the
// dictionary's binary format.
//
// (c) Sudhi Herle 2018
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mdict-go/mdx"
)

// Config controls how a Store connects to and maintains its backing file.
// There is no package-level default instance; every Store is created from
// an explicit Config rather than first-touch global state.
type Config struct {
	// PoolSize bounds concurrent connections to the store. Default 10.
	PoolSize int

	// BusyTimeout is how long a blocked statement waits for a lock before
	// surfacing ErrBusy. Default 5s.
	BusyTimeout time.Duration

	// Reindex forces OpenOrBuild to discard and rebuild an existing
	// companion store even if one is already present.
	Reindex bool
}

func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
	return c
}

// Store is a single MDX_INDEX table backed by one SQLite file.
type Store struct {
	path string
	db   *sql.DB
}

// Open opens (creating if absent) the SQLite file at path, applies the
// recommended pragmas and creates MDX_INDEX if it doesn't already exist.
func Open(path string, cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeErr(path, "open", err)
	}
	db.SetMaxOpenConns(cfg.PoolSize)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, storeErr(path, "pragma", err)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS MDX_INDEX (
		text TEXT PRIMARY KEY NOT NULL,
		def  TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storeErr(path, "schema", err)
	}

	return &Store{path: path, db: db}, nil
}

// Close releases the store's connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// BuildResult summarizes a BuildIndex call.
type BuildResult struct {
	RowsInserted int
	Elapsed      time.Duration
}

// BuildIndex inserts every (headword, definition) pair from dict into the
// store in a single transaction, replacing any row with the same headword.
// ctx may be used to cancel a long-running bulk insert; a cancellation
// rolls the whole transaction back, leaving the store exactly as it was
// before BuildIndex was called.
func BuildIndex(ctx context.Context, s *Store, dict *mdx.Dictionary) (BuildResult, error) {
	start := time.Now()

	items, err := dict.Items()
	if err != nil {
		return BuildResult{}, storeErr(s.path, "items", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BuildResult{}, storeErr(s.path, "begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO MDX_INDEX(text, def) VALUES (?, ?)
		ON CONFLICT(text) DO UPDATE SET def = excluded.def`)
	if err != nil {
		return BuildResult{}, storeErr(s.path, "prepare", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx, it.Headword, it.Definition); err != nil {
			return BuildResult{}, storeErr(s.path, "insert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return BuildResult{}, storeErr(s.path, "commit", err)
	}

	return BuildResult{RowsInserted: len(items), Elapsed: time.Since(start)}, nil
}

// OpenOrBuild implements the reindex policy (spec §4.7): if storePath
// already exists and cfg.Reindex is false, it's opened as-is; otherwise any
// stale companion is removed and rebuilt from dict.
func OpenOrBuild(ctx context.Context, storePath string, dict *mdx.Dictionary, cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()

	_, statErr := os.Stat(storePath)
	exists := statErr == nil

	if exists && !cfg.Reindex {
		return Open(storePath, cfg)
	}

	if exists {
		if err := os.Remove(storePath); err != nil {
			return nil, storeErr(storePath, "remove stale", err)
		}
	}

	s, err := Open(storePath, cfg)
	if err != nil {
		return nil, err
	}

	if _, err := BuildIndex(ctx, s, dict); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// Lookup binds headword as a named parameter and returns the first
// matching definition. ok is false with a nil error when the word is
// absent. SQLite lock contention is returned as ErrBusy so a caller can
// decide to retry; any other store failure is returned as a *StoreError.
func (s *Store) Lookup(ctx context.Context, headword string) (def string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT def FROM MDX_INDEX WHERE text = :text`, sql.Named("text", headword))

	switch err := row.Scan(&def); {
	case err == nil:
		return def, true, nil
	case err == sql.ErrNoRows:
		return "", false, nil
	case isBusy(err):
		return "", false, ErrBusy
	default:
		return "", false, storeErr(s.path, "lookup", err)
	}
}

// isBusy reports whether err is SQLite signaling lock contention. Matched
// on the driver's own error text rather than a driver-internal error type,
// so this keeps working across modernc.org/sqlite point releases that
// adjust their exported error shape.
func isBusy(err error) bool {
	return err != nil && strings.Contains(err.Error(), "SQLITE_BUSY")
}
