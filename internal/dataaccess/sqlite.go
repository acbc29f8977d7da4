package dataaccess

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteBackend is the embedded, single-file control-database backend.
// Connection-per-operation: every call opens a fresh *sql.DB and closes it
// before returning, matching ism/dal/sqlite3_dao.py.
type SQLiteBackend struct {
	cfg Config
}

// NewSQLiteBackend builds a backend bound to cfg.DBPath.
func NewSQLiteBackend(cfg Config) *SQLiteBackend {
	return &SQLiteBackend{cfg: cfg}
}

func (b *SQLiteBackend) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", b.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return db, nil
}

// CreateDatabase materialises the database file and its parent directory.
// Opening a connection is enough to create the file; sqlite3 does the same
// thing implicitly on first open.
func (b *SQLiteBackend) CreateDatabase() error {
	if err := os.MkdirAll(filepath.Dir(b.cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	db, err := b.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Ping()
}

func (b *SQLiteBackend) ExecuteQuery(query string, params ...interface{}) ([]Row, error) {
	db, err := b.open()
	if err != nil {
		return b.handleErr(err)
	}
	defer db.Close()

	rows, err := db.Query(query, params...)
	if err != nil {
		return b.handleErr(fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	return scanRows(rows)
}

func (b *SQLiteBackend) ExecuteStatement(stmt string, params ...interface{}) error {
	db, err := b.open()
	if err != nil {
		_, rerr := b.handleErr(err)
		return rerr
	}
	defer db.Close()

	if _, err := db.Exec(stmt, params...); err != nil {
		_, rerr := b.handleErr(fmt.Errorf("exec: %w", err))
		return rerr
	}
	return nil
}

func (b *SQLiteBackend) PrepareParameterisedStatement(sql string) (string, error) {
	return normalise(sql, '?')
}

func (b *SQLiteBackend) Close() error {
	return nil
}

// handleErr implements the raise_on_sql_error knob: when false (default),
// the error is logged and an empty result is returned so the caller (most
// likely the scheduler's dispatch loop) keeps cycling.
func (b *SQLiteBackend) handleErr(err error) ([]Row, error) {
	if b.cfg.RaiseOnSQLError {
		return nil, err
	}
	if b.cfg.Logger != nil {
		b.cfg.Logger.WithError(err).Warn("sql error swallowed (raise_on_sql_error=false)")
	}
	return []Row{}, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var result []Row
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		result = append(result, Row(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return result, nil
}
