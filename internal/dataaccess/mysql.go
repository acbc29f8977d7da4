package dataaccess

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// toDriverPlaceholders rewrites the "%s" marker back to the "?" marker
// go-sql-driver/mysql actually expects on the wire. The %s form is the
// contract PrepareParameterisedStatement hands back to callers, mirroring
// mysql.connector's pyformat paramstyle; go-sql-driver/mysql itself only
// understands "?" regardless of RDBMS-level paramstyle conventions, so this
// conversion happens once, right at the driver boundary, and is invisible to
// callers.
func toDriverPlaceholders(sql string) string {
	return strings.ReplaceAll(sql, "%s", "?")
}

// MySQLBackend is the networked control-database backend. DDL (database
// creation) opens with (host, user, password); subsequent operations open
// with database=RunDB, matching ism/dal/mysql_dao.py.
type MySQLBackend struct {
	cfg Config
}

// NewMySQLBackend builds a backend bound to cfg.Host/User/Password/RunDB.
func NewMySQLBackend(cfg Config) *MySQLBackend {
	return &MySQLBackend{cfg: cfg}
}

func (b *MySQLBackend) dsn(withDB bool) string {
	db := ""
	if withDB {
		db = b.cfg.RunDB
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", b.cfg.User, b.cfg.Password, b.cfg.Host, db)
}

func (b *MySQLBackend) openServer() (*sql.DB, error) {
	db, err := sql.Open("mysql", b.dsn(false))
	if err != nil {
		return nil, fmt.Errorf("open mysql server connection: %w", err)
	}
	return db, nil
}

func (b *MySQLBackend) openDatabase() (*sql.DB, error) {
	db, err := sql.Open("mysql", b.dsn(true))
	if err != nil {
		return nil, fmt.Errorf("open mysql database connection: %w", err)
	}
	return db, nil
}

// CreateDatabase issues CREATE DATABASE <run_db> against the server.
func (b *MySQLBackend) CreateDatabase() error {
	db, err := b.openServer()
	if err != nil {
		return b.logOrRaise(err)
	}
	defer db.Close()

	stmt := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", b.cfg.RunDB)
	if _, err := db.Exec(stmt); err != nil {
		return b.logOrRaise(fmt.Errorf("create database %s: %w", b.cfg.RunDB, err))
	}
	return nil
}

func (b *MySQLBackend) ExecuteQuery(query string, params ...interface{}) ([]Row, error) {
	db, err := b.openDatabase()
	if err != nil {
		return b.handleErr(err)
	}
	defer db.Close()

	rows, err := db.Query(toDriverPlaceholders(query), params...)
	if err != nil {
		return b.handleErr(fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	return scanRows(rows)
}

func (b *MySQLBackend) ExecuteStatement(stmt string, params ...interface{}) error {
	db, err := b.openDatabase()
	if err != nil {
		return b.logOrRaise(err)
	}
	defer db.Close()

	if _, err := db.Exec(toDriverPlaceholders(stmt), params...); err != nil {
		return b.logOrRaise(fmt.Errorf("exec: %w", err))
	}
	return nil
}

func (b *MySQLBackend) PrepareParameterisedStatement(sql string) (string, error) {
	return normalise(sql, 's')
}

func (b *MySQLBackend) Close() error {
	return nil
}

func (b *MySQLBackend) handleErr(err error) ([]Row, error) {
	if b.cfg.RaiseOnSQLError {
		return nil, err
	}
	if b.cfg.Logger != nil {
		b.cfg.Logger.WithError(err).Warn("sql error swallowed (raise_on_sql_error=false)")
	}
	return []Row{}, nil
}

func (b *MySQLBackend) logOrRaise(err error) error {
	if b.cfg.RaiseOnSQLError {
		return err
	}
	if b.cfg.Logger != nil {
		b.cfg.Logger.WithError(err).Warn("sql error swallowed (raise_on_sql_error=false)")
	}
	return nil
}
