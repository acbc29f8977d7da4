// Package dataaccess implements the portable control-database contract:
// CRUD against the control DB, placeholder normalisation between the two
// supported backends, and connection-per-operation lifecycle management.
//
// Grounded on _examples/original_source/ism/interfaces/dao_interface.py and
// its two implementations (sqlite3_dao.py, mysql_dao.py): each backend opens
// a fresh connection per call and closes it before returning, so no backend
// holds a long-lived session across actions.
package dataaccess

import (
	"strings"

	"github.com/kaliklipper/ism-go/internal/ismerr"
	"github.com/sirupsen/logrus"
)

func ismerrUnrecognisedParam(sql string) error {
	return ismerr.NewUnrecognisedParamChar(sql)
}

// Row is one positional result tuple, mirroring the Python DAO's list-of-
// tuples return shape.
type Row []interface{}

// DataAccess is the portable contract every backend implements.
type DataAccess interface {
	// CreateDatabase materialises the control database for the given config.
	CreateDatabase() error

	// ExecuteQuery runs a read-only statement and returns its rows. Honours
	// RaiseOnSQLError: when false, errors are logged and ([]Row{}, nil) is
	// returned.
	ExecuteQuery(sql string, params ...interface{}) ([]Row, error)

	// ExecuteStatement runs a write statement and commits. Same
	// RaiseOnSQLError behaviour as ExecuteQuery.
	ExecuteStatement(sql string, params ...interface{}) error

	// PrepareParameterisedStatement normalises parameter markers to
	// whichever form this backend requires.
	PrepareParameterisedStatement(sql string) (string, error)

	// Close releases any held connection. Safe to call on a backend that
	// never opened one (connection-per-operation backends are always safe
	// to Close).
	Close() error
}

// Config carries everything a backend needs to open connections. Which
// fields matter depends on the backend (see sqlite.go / mysql.go).
type Config struct {
	// Embedded (sqlite) backend.
	DBPath string

	// Networked (mysql) backend.
	Host     string
	User     string
	Password string
	DBName   string // base name, e.g. "ism"
	RunDB    string // db_name_tag_timestamp, computed by the engine

	RaiseOnSQLError bool
	Logger          *logrus.Logger
}

// placeholderKind identifies which marker style a SQL string uses.
type placeholderKind int

const (
	placeholderNone placeholderKind = iota
	placeholderQuestion
	placeholderPercentS
	placeholderMixed
)

func detectPlaceholder(sql string) placeholderKind {
	hasQ := strings.Contains(sql, "?")
	hasS := strings.Contains(sql, "%s")
	switch {
	case hasQ && hasS:
		return placeholderMixed
	case hasQ:
		return placeholderQuestion
	case hasS:
		return placeholderPercentS
	default:
		return placeholderNone
	}
}

// normalise rewrites sql's placeholders to target ('?' or "%s"). A SQL
// string must contain exactly one recognised marker style: both "mixed" and
// "missing" are rejected with UnrecognisedParameterisationCharacter.
func normalise(sql string, target rune) (string, error) {
	kind := detectPlaceholder(sql)
	switch kind {
	case placeholderMixed, placeholderNone:
		return "", ismerrUnrecognisedParam(sql)
	}

	var from, to string
	switch {
	case kind == placeholderQuestion && target == '?':
		return sql, nil
	case kind == placeholderPercentS && target == 's':
		return sql, nil
	case kind == placeholderQuestion:
		from, to = "?", "%s"
	case kind == placeholderPercentS:
		from, to = "%s", "?"
	}
	return strings.ReplaceAll(sql, from, to), nil
}
