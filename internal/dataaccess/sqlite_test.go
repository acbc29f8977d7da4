package dataaccess

import (
	"path/filepath"
	"testing"
)

func newTestBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "database", "control.db")
	b := NewSQLiteBackend(Config{DBPath: dbPath, RaiseOnSQLError: true})
	if err := b.CreateDatabase(); err != nil {
		t.Fatalf("CreateDatabase failed: %v", err)
	}
	return b
}

func TestSQLiteBackendCRUD(t *testing.T) {
	b := newTestBackend(t)
	defer b.Close()

	if err := b.ExecuteStatement("CREATE TABLE widgets (name TEXT, qty INTEGER)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	insert, err := b.PrepareParameterisedStatement("INSERT INTO widgets (name, qty) VALUES (?, ?)")
	if err != nil {
		t.Fatalf("prepare insert: %v", err)
	}
	if err := b.ExecuteStatement(insert, "bolt", 10); err != nil {
		t.Fatalf("insert: %v", err)
	}

	query, err := b.PrepareParameterisedStatement("SELECT name, qty FROM widgets WHERE name = ?")
	if err != nil {
		t.Fatalf("prepare select: %v", err)
	}
	rows, err := b.ExecuteQuery(query, "bolt")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
}

func TestSQLiteBackendSwallowsErrorsByDefault(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "database", "control.db")
	b := NewSQLiteBackend(Config{DBPath: dbPath, RaiseOnSQLError: false})
	if err := b.CreateDatabase(); err != nil {
		t.Fatalf("CreateDatabase failed: %v", err)
	}
	defer b.Close()

	rows, err := b.ExecuteQuery("SELECT * FROM does_not_exist")
	if err != nil {
		t.Fatalf("expected swallowed error, got %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty result, got %d rows", len(rows))
	}
}

func TestSQLiteBackendRaisesWhenConfigured(t *testing.T) {
	b := newTestBackend(t)
	defer b.Close()

	if _, err := b.ExecuteQuery("SELECT * FROM does_not_exist"); err == nil {
		t.Fatal("expected error with raise_on_sql_error=true")
	}
}
