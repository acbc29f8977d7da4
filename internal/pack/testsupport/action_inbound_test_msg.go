package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaliklipper/ism-go/internal/action"
	"github.com/kaliklipper/ism-go/internal/ismerr"
)

// inboundMessage mirrors the JSON shape a test harness drops into the
// inbound directory: {"sender_id": ..., "action": "...", "payload": {...}}.
type inboundMessage struct {
	SenderID int64           `json:"sender_id"`
	Action   string          `json:"action"`
	Payload  json.RawMessage `json:"payload"`
}

// ActionInboundTestMsg drains semaphore-guarded message files out of the
// inbound directory: every "<name>.smp" must have a matching "<name>.json"
// (raises OrphanedSemaphoreFile if not), whose content is recorded into
// test_support_messages_inbound, archived, and used to set the payload and
// activate the named action.
type ActionInboundTestMsg struct {
	action.Base
	Inbound string
	Archive string
}

func NewActionInboundTestMsg(b action.Base, inbound, archive string) *ActionInboundTestMsg {
	b.ActionName = "ActionInboundTestMsg"
	return &ActionInboundTestMsg{Base: b, Inbound: inbound, Archive: archive}
}

func (a *ActionInboundTestMsg) Execute() error {
	active, err := a.Active()
	if err != nil || !active {
		return err
	}

	entries, err := os.ReadDir(a.Inbound)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".smp") {
			continue
		}
		stem := strings.TrimSuffix(name, ".smp")
		msgFile := filepath.Join(a.Inbound, stem+".json")
		if _, err := os.Stat(msgFile); os.IsNotExist(err) {
			return ismerr.NewOrphanedSemaphoreFile(name)
		}

		raw, err := os.ReadFile(msgFile)
		if err != nil {
			return err
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return err
		}

		insert, err := a.DAO.PrepareParameterisedStatement(
			"INSERT INTO test_support_messages_inbound (action, payload) VALUES (?, ?)",
		)
		if err != nil {
			return err
		}
		if err := a.DAO.ExecuteStatement(insert, msg.Action, string(msg.Payload)); err != nil {
			return err
		}

		if err := os.Rename(msgFile, filepath.Join(a.Archive, stem+".json")); err != nil {
			return err
		}
		if err := os.Rename(filepath.Join(a.Inbound, name), filepath.Join(a.Archive, stem+".smp")); err != nil {
			return err
		}

		if err := a.SetPayload(msg.Action, string(msg.Payload)); err != nil {
			return err
		}
		if err := a.Activate(msg.Action); err != nil {
			return err
		}
	}
	return nil
}
