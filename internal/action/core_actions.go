package action

import (
	"strings"
)

// RunningFlag is the minimal surface the shutdown actions need on the
// scheduler: a way to clear the "keep dispatching" flag. Defined here
// (rather than importing package scheduler) to avoid a dependency cycle —
// scheduler imports action, not the other way around.
type RunningFlag interface {
	SetRunning(bool)
}

// ProcessInboundMessages is eligible in RUNNING. It is a dispatch point
// reserved for applications to hook inbound-message handling into; the core
// itself does nothing beyond existing so ConfirmReadyToRun has something to
// activate.
type ProcessInboundMessages struct{ Base }

func NewProcessInboundMessages(b Base) *ProcessInboundMessages {
	b.ActionName = "ProcessInboundMessages"
	return &ProcessInboundMessages{Base: b}
}

func (a *ProcessInboundMessages) Execute() error {
	active, err := a.Active()
	if err != nil || !active {
		return err
	}
	return nil
}

// ConfirmReadyToRun is eligible in STARTING and starts out active. It holds
// the machine in STARTING until every "ActionBefore*" action has finished
// (gone inactive), then transitions to RUNNING.
type ConfirmReadyToRun struct{ Base }

func NewConfirmReadyToRun(b Base) *ConfirmReadyToRun {
	b.ActionName = "ConfirmReadyToRun"
	return &ConfirmReadyToRun{Base: b}
}

func (a *ConfirmReadyToRun) Execute() error {
	active, err := a.Active()
	if err != nil || !active {
		return err
	}

	sql, err := a.DAO.PrepareParameterisedStatement(
		`SELECT action FROM actions WHERE action LIKE 'ActionBefore%' AND active = ?`,
	)
	if err != nil {
		return err
	}
	rows, err := a.DAO.ExecuteQuery(sql, true)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}

	if err := a.SetExecutionPhase(PhaseRunning); err != nil {
		return err
	}
	if err := a.Activate("ProcessInboundMessages"); err != nil {
		return err
	}
	return a.Deactivate("")
}

// ConfirmReadyToStop is eligible in NORMAL_SHUTDOWN. It holds the machine
// there until every "ActionAfter*" action has finished (gone inactive), then
// transitions to STOPPED and clears the scheduler's running flag.
type ConfirmReadyToStop struct {
	Base
	Scheduler RunningFlag
}

func NewConfirmReadyToStop(b Base, scheduler RunningFlag) *ConfirmReadyToStop {
	b.ActionName = "ConfirmReadyToStop"
	return &ConfirmReadyToStop{Base: b, Scheduler: scheduler}
}

func (a *ConfirmReadyToStop) Execute() error {
	active, err := a.Active()
	if err != nil || !active {
		return err
	}

	sql, err := a.DAO.PrepareParameterisedStatement(
		`SELECT action FROM actions WHERE action LIKE 'ActionAfter%' AND active = ?`,
	)
	if err != nil {
		return err
	}
	rows, err := a.DAO.ExecuteQuery(sql, true)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}

	if err := a.SetExecutionPhase(PhaseStopped); err != nil {
		return err
	}
	a.Scheduler.SetRunning(false)
	return a.Deactivate("")
}

// NormalShutdown is eligible in every phase (ALL). Firing it requests a
// graceful stop: transition to NORMAL_SHUTDOWN and hand off to
// ConfirmReadyToStop, which waits for in-flight "After*" work.
type NormalShutdown struct{ Base }

func NewNormalShutdown(b Base) *NormalShutdown {
	b.ActionName = "NormalShutdown"
	return &NormalShutdown{Base: b}
}

func (a *NormalShutdown) Execute() error {
	active, err := a.Active()
	if err != nil || !active {
		return err
	}

	if err := a.SetExecutionPhase(PhaseNormalShutdown); err != nil {
		return err
	}
	if err := a.Activate("ConfirmReadyToStop"); err != nil {
		return err
	}
	return a.Deactivate("")
}

// EmergencyShutdown is eligible in every phase (ALL). Unlike NormalShutdown
// it does not wait on any other action: it clears the scheduler's running
// flag unconditionally, so it always wins a same-cycle race against
// NormalShutdown. No action moves the phase on from EMERGENCY_SHUTDOWN, so
// after an emergency stop the phase stays EMERGENCY_SHUTDOWN.
type EmergencyShutdown struct {
	Base
	Scheduler RunningFlag
}

func NewEmergencyShutdown(b Base, scheduler RunningFlag) *EmergencyShutdown {
	b.ActionName = "EmergencyShutdown"
	return &EmergencyShutdown{Base: b, Scheduler: scheduler}
}

func (a *EmergencyShutdown) Execute() error {
	active, err := a.Active()
	if err != nil || !active {
		return err
	}

	if err := a.SetExecutionPhase(PhaseEmergencyShutdown); err != nil {
		return err
	}
	a.Scheduler.SetRunning(false)
	return a.Deactivate("")
}

// CheckTimers is eligible in every phase (ALL) and runs every cycle. For
// each expired, still-active timer it copies the payload into the target
// action and activates it, marking the timer inactive in the same step so
// it cannot refire.
type CheckTimers struct{ Base }

func NewCheckTimers(b Base) *CheckTimers {
	b.ActionName = "CheckTimers"
	return &CheckTimers{Base: b}
}

func (a *CheckTimers) Execute() error {
	active, err := a.Active()
	if err != nil || !active {
		return err
	}

	selectSQL, err := a.DAO.PrepareParameterisedStatement(
		"SELECT action, payload, expiry FROM timers WHERE active = ?",
	)
	if err != nil {
		return err
	}
	rows, err := a.DAO.ExecuteQuery(selectSQL, true)
	if err != nil {
		return err
	}

	now := EpochMilliseconds()
	for _, row := range rows {
		targetAction := asString(row[0])
		payload := asString(row[1])
		expiry := asInt64(row[2])

		if expiry >= now {
			continue
		}

		if err := a.SetPayload(targetAction, payload); err != nil {
			return err
		}
		if err := a.Activate(targetAction); err != nil {
			return err
		}
		if err := a.deactivateTimer(targetAction, expiry); err != nil {
			return err
		}
	}
	return nil
}

func (a *CheckTimers) deactivateTimer(targetAction string, expiry int64) error {
	sql, err := a.DAO.PrepareParameterisedStatement(
		"UPDATE timers SET active = ? WHERE action = ? AND expiry = ?",
	)
	if err != nil {
		return err
	}
	return a.DAO.ExecuteStatement(sql, false, targetAction, expiry)
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case []byte:
		n, _ := parseInt(string(t))
		return n
	case string:
		n, _ := parseInt(t)
		return n
	default:
		return 0
	}
}

func parseInt(s string) (int64, error) {
	var n int64
	var neg bool
	s = strings.TrimSpace(s)
	for i, r := range s {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int64(r-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}
