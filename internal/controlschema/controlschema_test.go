package controlschema

import (
	"path/filepath"
	"testing"

	"github.com/kaliklipper/ism-go/internal/dataaccess"
)

func newTestDAO(t *testing.T) dataaccess.DataAccess {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "database", "control.db")
	dao := dataaccess.NewSQLiteBackend(dataaccess.Config{DBPath: dbPath, RaiseOnSQLError: true})
	if err := dao.CreateDatabase(); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	return dao
}

func TestApplyCreatesCoreSchemaAndSeedsData(t *testing.T) {
	dao := newTestDAO(t)

	if err := Apply(dao, "sqlite3"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	rows, err := dao.ExecuteQuery("SELECT COUNT(*) FROM phases")
	if err != nil {
		t.Fatalf("count phases: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one count row, got %d", len(rows))
	}
	if n, ok := rows[0][0].(int64); !ok || n != 5 {
		t.Fatalf("phases seeded with %v rows, want 5", rows[0][0])
	}

	rows, err = dao.ExecuteQuery("SELECT COUNT(*) FROM actions")
	if err != nil {
		t.Fatalf("count actions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one count row, got %d", len(rows))
	}
	if n, ok := rows[0][0].(int64); !ok || n != 6 {
		t.Fatalf("actions seeded with %v rows, want 6", rows[0][0])
	}
}

func TestApplyRejectsUnknownRDBMS(t *testing.T) {
	dao := newTestDAO(t)

	if err := Apply(dao, "oracle"); err == nil {
		t.Fatal("expected error for unrecognised rdbms key")
	}
}

func TestApplyDocumentAppliesPackSchemaAndData(t *testing.T) {
	dao := newTestDAO(t)
	if err := Apply(dao, "sqlite3"); err != nil {
		t.Fatalf("Apply core schema: %v", err)
	}

	schema := []byte(`{"sqlite3": {"tables": ["CREATE TABLE widgets (name TEXT)"]}}`)
	data := []byte(`{"sqlite3": {"inserts": ["INSERT INTO widgets (name) VALUES ('bolt')"]}}`)

	if err := ApplyDocument(dao, "sqlite3", schema, data); err != nil {
		t.Fatalf("ApplyDocument: %v", err)
	}

	rows, err := dao.ExecuteQuery("SELECT name FROM widgets")
	if err != nil {
		t.Fatalf("query widgets: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 widget row, got %d", len(rows))
	}
}
