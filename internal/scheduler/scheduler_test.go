package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/kaliklipper/ism-go/internal/action"
)

type countingAction struct {
	action.Base
	calls  *int
	stopAt int
	sched  *Scheduler
}

func (c *countingAction) Execute() error {
	*c.calls++
	if c.stopAt > 0 && *c.calls >= c.stopAt {
		c.sched.SetRunning(false)
	}
	return nil
}

func TestSchedulerRoundRobinStopsOnRunningFlag(t *testing.T) {
	var callsA, callsB int
	s := New(nil, nil)

	a := &countingAction{Base: action.Base{ActionName: "a"}, calls: &callsA, stopAt: 3, sched: s}
	b := &countingAction{Base: action.Base{ActionName: "b"}, calls: &callsB}
	s.actions = []action.Interface{a, b}

	if err := s.Start(true); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if callsA != 3 {
		t.Fatalf("callsA = %d, want 3", callsA)
	}
	if callsB != 2 && callsB != 3 {
		t.Fatalf("callsB = %d, want 2 or 3 (round robin up to the stop)", callsB)
	}
}

type erroringAction struct {
	action.Base
	err error
}

func (e *erroringAction) Execute() error { return e.err }

func TestSchedulerSurfacesActionError(t *testing.T) {
	wantErr := errors.New("boom")
	s := New([]action.Interface{&erroringAction{Base: action.Base{ActionName: "x"}, err: wantErr}}, nil)

	if err := s.Start(true); !errors.Is(err, wantErr) {
		t.Fatalf("Start() error = %v, want %v", err, wantErr)
	}
	if s.Running() {
		t.Fatal("expected running=false after an action error")
	}
}

func TestSchedulerStopEndsLoop(t *testing.T) {
	var calls int
	noop := &countingAction{Base: action.Base{ActionName: "noop"}, calls: &calls}
	s := New([]action.Interface{noop}, nil)

	if err := s.Start(false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	s.Stop()

	if err := s.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if s.Running() {
		t.Fatal("expected running=false after Stop")
	}
}
