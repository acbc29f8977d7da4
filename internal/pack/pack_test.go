package pack

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/kaliklipper/ism-go/internal/action"
	"github.com/kaliklipper/ism-go/internal/dataaccess"
	"github.com/kaliklipper/ism-go/internal/ismerr"
)

func newTestDAO(t *testing.T) dataaccess.DataAccess {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "database", "control.db")
	dao := dataaccess.NewSQLiteBackend(dataaccess.Config{DBPath: dbPath, RaiseOnSQLError: true})
	if err := dao.CreateDatabase(); err != nil {
		t.Fatalf("CreateDatabase: %v", err)
	}
	if err := dao.ExecuteStatement(
		"CREATE TABLE actions (action TEXT PRIMARY KEY, execution_phase TEXT, active INTEGER, payload TEXT)",
	); err != nil {
		t.Fatalf("create actions table: %v", err)
	}
	return dao
}

type stubProvider struct {
	id     string
	schema []byte
	data   []byte
}

func (p *stubProvider) ID() string { return p.id }
func (p *stubProvider) Actions() map[string]Factory {
	return map[string]Factory{
		"ActionXYZ": func(deps action.Base) action.Interface {
			deps.ActionName = "ActionXYZ"
			return action.NewProcessInboundMessages(deps)
		},
	}
}
func (p *stubProvider) Schema() []byte { return p.schema }
func (p *stubProvider) Data() []byte   { return p.data }

// After ImportPack(p), the action appears exactly once in the registry
// and exactly once in the actions table.
func TestImportPackRegistersAndSeeds(t *testing.T) {
	dao := newTestDAO(t)
	registry := NewRegistry()
	loader := NewLoader(registry, dao, "sqlite3", nil)

	p := &stubProvider{
		id: "pack.x",
		data: []byte(`{"sqlite3": {"inserts": [
			"INSERT INTO actions (action, execution_phase, active, payload) VALUES ('ActionXYZ', 'RUNNING', 1, NULL)"
		]}}`),
	}

	if err := loader.ImportPack(p); err != nil {
		t.Fatalf("ImportPack: %v", err)
	}

	names := registry.Names()
	count := 0
	for _, n := range names {
		if n == "ActionXYZ" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("registry contains ActionXYZ %d times, want 1", count)
	}

	query, err := dao.PrepareParameterisedStatement("SELECT execution_phase FROM actions WHERE action = ?")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	rows, err := dao.ExecuteQuery(query, "ActionXYZ")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows for ActionXYZ, want 1", len(rows))
	}

	audit := loader.Audit()
	if len(audit) != 1 || audit[0].PackID != "pack.x" {
		t.Fatalf("unexpected audit trail: %+v", audit)
	}
}

func TestImportPackRejectsEmptyData(t *testing.T) {
	dao := newTestDAO(t)
	loader := NewLoader(NewRegistry(), dao, "sqlite3", nil)

	p := &stubProvider{id: "pack.empty"}
	err := loader.ImportPack(p)
	if !errors.Is(err, ismerr.MalformedActionPack) {
		t.Fatalf("ImportPack(empty data) = %v, want MalformedActionPack", err)
	}
}

func TestImportPackRejectsEmptyID(t *testing.T) {
	dao := newTestDAO(t)
	loader := NewLoader(NewRegistry(), dao, "sqlite3", nil)

	p := &stubProvider{data: []byte(`{"sqlite3": {"inserts": []}}`)}
	err := loader.ImportPack(p)
	if !errors.Is(err, ismerr.MalformedActionPack) {
		t.Fatalf("ImportPack(empty id) = %v, want MalformedActionPack", err)
	}
}

// A pack must not contain nested packs: importing a second pack that claims
// an action name already owned by a different, already-imported pack is
// rejected rather than silently overwriting the registry entry.
func TestImportPackRejectsNestedPackCollision(t *testing.T) {
	dao := newTestDAO(t)
	loader := NewLoader(NewRegistry(), dao, "sqlite3", nil)

	data := []byte(`{"sqlite3": {"inserts": [
		"INSERT INTO actions (action, execution_phase, active, payload) VALUES ('ActionXYZ', 'RUNNING', 1, NULL)"
	]}}`)

	first := &stubProvider{id: "pack.x", data: data}
	if err := loader.ImportPack(first); err != nil {
		t.Fatalf("ImportPack(first): %v", err)
	}

	second := &stubProvider{id: "pack.y", data: data}
	err := loader.ImportPack(second)
	if !errors.Is(err, ismerr.MalformedActionPack) {
		t.Fatalf("ImportPack(colliding pack) = %v, want MalformedActionPack", err)
	}
}
