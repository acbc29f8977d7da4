// Package action implements the action contract every action inherits
// and the six built-in core actions that drive the phase state machine.
//
// Grounded line-for-line on
// _examples/original_source/ism/core/base_action.py and
// ism/core/action_*.py.
package action

import (
	"fmt"
	"time"

	"github.com/kaliklipper/ism-go/internal/dataaccess"
	"github.com/kaliklipper/ism-go/internal/ismerr"
	"github.com/sirupsen/logrus"
)

// Interface is the single capability every action exposes to the scheduler.
type Interface interface {
	Execute() error
	Name() string
}

// Legal execution phases, a closed set.
const (
	PhaseStarting          = "STARTING"
	PhaseRunning           = "RUNNING"
	PhaseNormalShutdown    = "NORMAL_SHUTDOWN"
	PhaseEmergencyShutdown = "EMERGENCY_SHUTDOWN"
	PhaseStopped           = "STOPPED"
	PhaseAll               = "ALL"
)

var legalPhases = map[string]bool{
	PhaseStarting:          true,
	PhaseRunning:           true,
	PhaseNormalShutdown:    true,
	PhaseEmergencyShutdown: true,
	PhaseStopped:           true,
}

// Base is embedded by every concrete action; it carries the DataAccess
// handle and provides the action helper methods.
type Base struct {
	ActionName string
	DAO        dataaccess.DataAccess
	Logger     *logrus.Logger
}

// Name returns the action's registered identifier.
func (b *Base) Name() string { return b.ActionName }

// Active consults the actions table for (active, execution_phase) keyed on
// this action's name, and the phases table for the current phase. Returns
// true iff active and (phase matches current or is "ALL").
func (b *Base) Active() (bool, error) {
	sql, err := b.DAO.PrepareParameterisedStatement(
		"SELECT active, execution_phase FROM actions WHERE action = ?",
	)
	if err != nil {
		return false, err
	}
	rows, err := b.DAO.ExecuteQuery(sql, b.ActionName)
	if err != nil {
		return false, err
	}

	switch len(rows) {
	case 0:
		return false, ismerr.NewMissingDataInControlDB(b.ActionName)
	case 1:
		// fall through
	default:
		return false, ismerr.NewDuplicateDataInControlDB(b.ActionName)
	}

	active := asBool(rows[0][0])
	phase := asString(rows[0][1])

	current, err := b.currentPhase()
	if err != nil {
		return false, err
	}

	if active && (phase == current || phase == PhaseAll) {
		return true, nil
	}
	return false, nil
}

func (b *Base) currentPhase() (string, error) {
	rows, err := b.DAO.ExecuteQuery("SELECT execution_phase FROM phases WHERE state = 1")
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ismerr.NewExecutionPhaseNotFound()
	}
	return asString(rows[0][0]), nil
}

// Activate sets active=true for the named action.
func (b *Base) Activate(name string) error {
	return b.setActive(name, true)
}

// Deactivate sets active=false for the named action, or this action itself
// when name is empty.
func (b *Base) Deactivate(name string) error {
	if name == "" {
		name = b.ActionName
	}
	return b.setActive(name, false)
}

func (b *Base) setActive(name string, active bool) error {
	sql, err := b.DAO.PrepareParameterisedStatement(
		"UPDATE actions SET active = ? WHERE action = ?",
	)
	if err != nil {
		return err
	}
	return b.DAO.ExecuteStatement(sql, active, name)
}

// GetPayload returns this action's opaque payload string (empty if NULL).
func (b *Base) GetPayload() (string, error) {
	sql, err := b.DAO.PrepareParameterisedStatement(
		"SELECT payload FROM actions WHERE action = ?",
	)
	if err != nil {
		return "", err
	}
	rows, err := b.DAO.ExecuteQuery(sql, b.ActionName)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ismerr.NewMissingDataInControlDB(b.ActionName)
	}
	return asString(rows[0][0]), nil
}

// SetPayload sets action's payload to text.
func (b *Base) SetPayload(actionName, text string) error {
	sql, err := b.DAO.PrepareParameterisedStatement(
		"UPDATE actions SET payload = ? WHERE action = ?",
	)
	if err != nil {
		return err
	}
	return b.DAO.ExecuteStatement(sql, text, actionName)
}

// ClearPayload clears this action's payload.
func (b *Base) ClearPayload() error {
	sql, err := b.DAO.PrepareParameterisedStatement(
		"UPDATE actions SET payload = NULL WHERE action = ?",
	)
	if err != nil {
		return err
	}
	return b.DAO.ExecuteStatement(sql, b.ActionName)
}

// SetExecutionPhase atomically flips exactly one phases row on and all
// others off. Rejects unrecognised phase names.
func (b *Base) SetExecutionPhase(phase string) error {
	if !legalPhases[phase] {
		return ismerr.NewExecutionPhaseUnrecognised(phase)
	}

	// A single UPDATE sets every row at once, so no reader ever sees zero
	// or two rows with state=true.
	flip, err := b.DAO.PrepareParameterisedStatement(
		"UPDATE phases SET state = CASE WHEN execution_phase = ? THEN ? ELSE ? END",
	)
	if err != nil {
		return err
	}
	return b.DAO.ExecuteStatement(flip, phase, true, false)
}

// SetTimer inserts a deferred activation: action fires, carrying payload,
// once expiryMillis has passed (epoch milliseconds).
func (b *Base) SetTimer(targetAction, payload string, expiryMillis int64) error {
	sql, err := b.DAO.PrepareParameterisedStatement(
		"INSERT INTO timers (action, payload, expiry, active) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return err
	}
	return b.DAO.ExecuteStatement(sql, targetAction, payload, expiryMillis, true)
}

// SetTimerExpiry computes an absolute expiry (epoch milliseconds) offset
// from now by exactly one of hours, seconds, or milliseconds.
func SetTimerExpiry(hours, seconds, milliseconds *float64) (int64, error) {
	supplied := 0
	for _, d := range []*float64{hours, seconds, milliseconds} {
		if d != nil {
			supplied++
		}
	}
	if supplied > 1 {
		return 0, fmt.Errorf("exactly one duration expected but got %d", supplied)
	}

	now := time.Now().UnixMilli()
	switch {
	case hours != nil:
		return now + int64(*hours*60*60*1000), nil
	case seconds != nil:
		return now + int64(*seconds*1000), nil
	case milliseconds != nil:
		return now + int64(*milliseconds), nil
	default:
		return 0, fmt.Errorf("duration expected but got none")
	}
}

// EpochMilliseconds returns the current time as epoch milliseconds, the
// same clock CheckTimers compares expiries against.
func EpochMilliseconds() int64 {
	return time.Now().UnixMilli()
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case int:
		return t != 0
	case []byte:
		return len(t) == 1 && (t[0] == '1' || t[0] == 1)
	default:
		return false
	}
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
