package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaliklipper/ism-go/internal/ismerr"
)

func writeTestProperties(t *testing.T, rootDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "properties.yaml")
	content := `
database:
  rdbms: sqlite3
  db_name: control.db
  raise_on_sql_error: true
runtime:
  root_dir: ` + rootDir + `
  stamp_format: epoch_milliseconds
  tag: default
logging:
  level: DEBUG
  file: ism.log
  propagate: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write properties: %v", err)
	}
	return path
}

// Boot to running.
func TestEngineBootToRunning(t *testing.T) {
	cfgPath := writeTestProperties(t, t.TempDir())
	eng, err := New(cfgPath, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := eng.Start(false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		phase, err := eng.GetExecutionPhase()
		if err != nil {
			t.Fatalf("GetExecutionPhase: %v", err)
		}
		if phase == "RUNNING" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("engine never reached RUNNING")
}

// Normal shutdown.
func TestEngineNormalShutdown(t *testing.T) {
	cfgPath := writeTestProperties(t, t.TempDir())
	eng, err := New(cfgPath, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Start(false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitForPhase(t, eng, "RUNNING", 2*time.Second)

	activate, err := eng.dao.PrepareParameterisedStatement("UPDATE actions SET active = ? WHERE action = ?")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := eng.dao.ExecuteStatement(activate, true, "NormalShutdown"); err != nil {
		t.Fatalf("activate NormalShutdown: %v", err)
	}

	waitForPhase(t, eng, "STOPPED", 2*time.Second)

	if err := eng.scheduler.Wait(); err != nil {
		t.Fatalf("scheduler exited with error: %v", err)
	}
	if eng.Running() {
		t.Fatal("expected scheduler stopped")
	}
}

// Emergency shutdown preempts After* actions.
func TestEngineEmergencyShutdownPreemptsAfterActions(t *testing.T) {
	cfgPath := writeTestProperties(t, t.TempDir())
	eng, err := New(cfgPath, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Start(false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitForPhase(t, eng, "RUNNING", 2*time.Second)

	insert, err := eng.dao.PrepareParameterisedStatement(
		"INSERT INTO actions (action, execution_phase, active, payload) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		t.Fatalf("prepare insert: %v", err)
	}
	if err := eng.dao.ExecuteStatement(insert, "ActionAfterWork", "NORMAL_SHUTDOWN", true, nil); err != nil {
		t.Fatalf("insert ActionAfterWork: %v", err)
	}

	activate, err := eng.dao.PrepareParameterisedStatement("UPDATE actions SET active = ? WHERE action = ?")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := eng.dao.ExecuteStatement(activate, true, "EmergencyShutdown"); err != nil {
		t.Fatalf("activate EmergencyShutdown: %v", err)
	}

	waitForPhase(t, eng, "EMERGENCY_SHUTDOWN", 2*time.Second)

	if err := eng.scheduler.Wait(); err != nil {
		t.Fatalf("scheduler exited with error: %v", err)
	}
}

// Placeholder mismatch rejects.
func TestEnginePlaceholderMismatchRejects(t *testing.T) {
	cfgPath := writeTestProperties(t, t.TempDir())
	eng, err := New(cfgPath, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = eng.dao.PrepareParameterisedStatement("SELECT 1")
	if !errors.Is(err, ismerr.UnrecognisedParamChar) {
		t.Fatalf("PrepareParameterisedStatement(no markers) = %v, want UnrecognisedParameterisationCharacter", err)
	}
}

func waitForPhase(t *testing.T, eng *Engine, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		phase, err := eng.GetExecutionPhase()
		if err == nil && phase == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("engine never reached phase %q", want)
}
