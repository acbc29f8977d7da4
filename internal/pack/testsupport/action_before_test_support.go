// Package testsupport is an example action pack: a file-IPC harness that
// lets an external test process drive the state machine without contending
// for the control database directly. Grounded on
// _examples/original_source/ism/tests/support/*.py.
package testsupport

import (
	"os"

	"github.com/kaliklipper/ism-go/internal/action"
)

// ActionBeforeTestSupport is seeded active in STARTING, so its name gates
// ConfirmReadyToRun via the "ActionBefore%" match. It creates the
// inbound/outbound/archive directories the rest of the pack reads and writes,
// then activates the two message-worker actions and deactivates itself.
type ActionBeforeTestSupport struct {
	action.Base
	Inbound  string
	Outbound string
	Archive  string
}

func NewActionBeforeTestSupport(b action.Base, inbound, outbound, archive string) *ActionBeforeTestSupport {
	b.ActionName = "ActionBeforeTestSupport"
	return &ActionBeforeTestSupport{Base: b, Inbound: inbound, Outbound: outbound, Archive: archive}
}

func (a *ActionBeforeTestSupport) Execute() error {
	active, err := a.Active()
	if err != nil || !active {
		return err
	}

	for _, dir := range []string{a.Inbound, a.Outbound, a.Archive} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				if a.Logger != nil {
					a.Logger.WithError(err).WithField("dir", dir).Error("failed to create directory for test support actions")
				}
				return err
			}
		}
	}

	if err := a.Activate("ActionInboundTestMsg"); err != nil {
		return err
	}
	if err := a.Activate("ActionOutboundTestMsg"); err != nil {
		return err
	}
	return a.Deactivate("")
}
