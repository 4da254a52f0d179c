// Package sqlstore implements storage.Storage on a SQL database.
//
// Two drivers are supported: modernc.org/sqlite for a local database file
// and github.com/go-sql-driver/mysql for a MySQL compatible server (MySQL,
// MariaDB or a Dolt sql-server). Each record is one row; the documents are
// stored as a JSON column and the version column guards every update.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/steveyegge/readiness/internal/debug"
	"github.com/steveyegge/readiness/internal/storage"
	"github.com/steveyegge/readiness/internal/types"
)

// defaultOpenMaxElapsed bounds the retry loop while opening a database.
const defaultOpenMaxElapsed = 15 * time.Second

// Config selects and addresses a database.
type Config struct {
	Backend  string // storage.BackendSQLite or storage.BackendMySQL
	Path     string // SQLite database file
	DSN      string // MySQL data source name
	ReadOnly bool

	// OpenMaxElapsed bounds retries of transient open errors. Zero uses the default.
	OpenMaxElapsed time.Duration
}

// Store is a SQL backed storage.Storage.
type Store struct {
	db      *sql.DB
	backend string
	now     func() time.Time
}

var _ storage.Storage = (*Store)(nil)

// Open connects to the configured database, retrying transient failures
// with exponential backoff, and creates the schema if needed.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Backend {
	case storage.BackendSQLite:
		db, err = openSQLite(cfg)
	case storage.BackendMySQL:
		db, err = openMySQL(cfg)
	default:
		return nil, types.NewValidationError("backend", fmt.Sprintf("unsupported sql backend: %q", cfg.Backend))
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, backend: cfg.Backend, now: time.Now}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = defaultOpenMaxElapsed
	if cfg.OpenMaxElapsed > 0 {
		bo.MaxElapsedTime = cfg.OpenMaxElapsed
	}
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		err := db.PingContext(ctx)
		if err == nil && !cfg.ReadOnly {
			err = s.migrate(ctx)
		}
		if err != nil && isRetryableOpenError(err) {
			debug.Logf("sqlstore: open attempt %d failed, retrying: %v\n", attempt, err)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		_ = db.Close()
		return nil, types.NewPersistenceError("open", err)
	}
	return s, nil
}

func openSQLite(cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, types.NewValidationError("db", "sqlite path is required")
	}
	if !cfg.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, types.NewPersistenceError("open", fmt.Errorf("create db directory: %w", err))
		}
	}
	db, err := sql.Open("sqlite", SQLiteConnString(cfg.Path, cfg.ReadOnly))
	if err != nil {
		return nil, types.NewPersistenceError("open", err)
	}
	// One writer at a time; SQLite serializes anyway and this avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	return db, nil
}

func openMySQL(cfg Config) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, types.NewValidationError("mysql.dsn", "is required")
	}
	mcfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, types.NewValidationError("mysql.dsn", err.Error())
	}
	if mcfg.Timeout == 0 {
		mcfg.Timeout = 5 * time.Second
	}
	connector, err := mysql.NewConnector(mcfg)
	if err != nil {
		return nil, types.NewPersistenceError("open", err)
	}
	db := sql.OpenDB(connector)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// Backend returns the configured backend name.
func (s *Store) Backend() string {
	return s.backend
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectRecord = `SELECT version, status, data, created_at, updated_at FROM projects WHERE id = ?`

func scanRecord(ctx context.Context, q queryer, id string) (*types.ProjectRecord, error) {
	var (
		version            int64
		status, data       string
		createdAt, updated string
	)
	if err := q.QueryRowContext(ctx, selectRecord, id).Scan(&version, &status, &data, &createdAt, &updated); err != nil {
		return nil, err
	}
	rec := &types.ProjectRecord{}
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	rec.ID = id
	rec.Version = version
	rec.Status = types.NormalizeStatus(status)
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updated)
	return rec, nil
}

func (s *Store) Load(ctx context.Context, id string) (*types.ProjectRecord, error) {
	if id == "" {
		return nil, types.NewValidationError("id", "is required")
	}
	rec, err := scanRecord(ctx, s.db, id)
	if err != nil {
		return nil, wrapDBError("load", id, err)
	}
	return rec, nil
}

func (s *Store) Save(ctx context.Context, rec *types.ProjectRecord, fields ...types.Field) (*types.ProjectRecord, error) {
	if err := storage.PrepareSave(rec, fields); err != nil {
		return nil, err
	}

	var next *types.ProjectRecord
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stored, err := scanRecord(ctx, tx, rec.ID)
		if err != nil {
			return err
		}
		if next, err = storage.Merge(stored, rec, fields); err != nil {
			return err
		}
		next.UpdatedAt = s.now().UTC()
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE projects SET version = ?, status = ?, data = ?, updated_at = ? WHERE id = ? AND version = ?`,
			next.Version, string(next.Status), string(data), formatTime(next.UpdatedAt), rec.ID, stored.Version)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n != 1 {
			return types.NewPersistenceError("save",
				fmt.Errorf("%s moved past version %d: %w", rec.ID, stored.Version, types.ErrConflict))
		}
		return nil
	})
	if err != nil {
		return nil, wrapDBError("save", rec.ID, err)
	}
	return next, nil
}

func (s *Store) Create(ctx context.Context, rec *types.ProjectRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	stored := rec.Clone()
	stored.SetDefaults()
	stored.Version = 1
	now := s.now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	data, err := json.Marshal(stored)
	if err != nil {
		return types.NewPersistenceError("create", fmt.Errorf("encode record: %w", err))
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, rec.ID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("project %s: %w", rec.ID, storage.ErrAlreadyExists)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO projects (id, version, status, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			stored.ID, stored.Version, string(stored.Status), string(data),
			formatTime(stored.CreatedAt), formatTime(stored.UpdatedAt))
		return err
	})
	return wrapDBError("create", rec.ID, err)
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM projects ORDER BY id`)
	if err != nil {
		return nil, wrapDBError("list", "projects", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapDBError("list", "projects", err)
		}
		ids = append(ids, id)
	}
	return ids, wrapDBError("list", "projects", rows.Err())
}

// inTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
