// Package scheduler implements the cyclic dispatch loop: a single
// cooperative dispatcher that invokes a fixed, ordered list of actions
// strictly sequentially, round-robin, forever, until told to stop.
//
// Grounded on _examples/original_source/ism/ISM.py's run() (a stub there:
// "Iterates over the array of imported ism_core_actions and calls each
// one's execute method. Method executes in its own thread.") and on an
// Engine type found elsewhere in the retrieved corpus that owns a
// background goroutine plus a context.CancelFunc for the same "single owned
// execution context" shape.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kaliklipper/ism-go/internal/action"
	"github.com/sirupsen/logrus"
)

// Scheduler holds the ordered action list and dispatches them round-robin on
// a single dedicated goroutine. An action
// that returns an error tears the loop down: the error is captured and
// surfaced through Wait, rather than logged-and-continued. DataAccess
// backends already swallow transient DB faults under raise_on_sql_error=false
// by default; an error reaching the scheduler means a fault that backend
// chose to propagate, or a programming fault within the action itself.
type Scheduler struct {
	mu      sync.RWMutex
	actions []action.Interface
	logger  *logrus.Logger

	running  atomic.Bool
	cancel   context.CancelFunc
	done     chan struct{}
	errOnce  sync.Once
	firstErr atomic.Value // error
}

// New builds a Scheduler dispatching actions in exactly the given order.
func New(actions []action.Interface, logger *logrus.Logger) *Scheduler {
	return &Scheduler{actions: actions, logger: logger}
}

// SetActions replaces the dispatch list. Safe to call before Start, or
// between iterations while the loop is running (e.g. after a pack import
// appends new actions) since the loop re-reads s.actions on every pass.
func (s *Scheduler) SetActions(actions []action.Interface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = actions
}

func (s *Scheduler) actionAt(idx int) (action.Interface, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.actions)
	if n == 0 {
		return nil, 0
	}
	return s.actions[idx%n], n
}

// SetRunning implements action.RunningFlag: core shutdown actions call this
// to request the loop stop after its in-flight iteration.
func (s *Scheduler) SetRunning(running bool) {
	s.running.Store(running)
}

// Running reports whether the dispatch loop is currently active.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Start spawns the dispatch goroutine and returns immediately. If join is
// true, it blocks until the loop exits (via Stop, an action clearing
// running, or an action error) and returns that exit error, if any.
func (s *Scheduler) Start(join bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go s.loop(ctx)

	if join {
		return s.Wait()
	}
	return nil
}

// Stop requests the loop exit after its current iteration completes.
func (s *Scheduler) Stop() {
	s.running.Store(false)
	if s.cancel != nil {
		s.cancel()
	}
}

// Wait blocks until the dispatch loop exits, returning the first error an
// action raised, if any.
func (s *Scheduler) Wait() error {
	if s.done == nil {
		return nil
	}
	<-s.done
	if v := s.firstErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	idx := 0
	for s.running.Load() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		a, n := s.actionAt(idx)
		if n == 0 {
			return
		}

		if err := a.Execute(); err != nil {
			s.errOnce.Do(func() { s.firstErr.Store(err) })
			if s.logger != nil {
				s.logger.WithError(err).WithField("action", a.Name()).Error("action raised, terminating dispatch loop")
			}
			s.running.Store(false)
			return
		}

		idx = (idx + 1) % n
	}
}
