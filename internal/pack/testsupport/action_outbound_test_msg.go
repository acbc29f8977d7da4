package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kaliklipper/ism-go/internal/action"
)

// ActionOutboundTestMsg writes this action's current payload out to the
// outbound directory as "<sender_id>.json", for a test harness to pick up,
// then clears its payload and deactivates.
type ActionOutboundTestMsg struct {
	action.Base
	Outbound string
}

func NewActionOutboundTestMsg(b action.Base, outbound string) *ActionOutboundTestMsg {
	b.ActionName = "ActionOutboundTestMsg"
	return &ActionOutboundTestMsg{Base: b, Outbound: outbound}
}

func (a *ActionOutboundTestMsg) Execute() error {
	active, err := a.Active()
	if err != nil || !active {
		return err
	}

	payloadText, err := a.GetPayload()
	if err != nil {
		return err
	}

	var payload struct {
		SenderID int64 `json:"sender_id"`
	}
	if err := json.Unmarshal([]byte(payloadText), &payload); err != nil {
		return err
	}

	path := filepath.Join(a.Outbound, itoa(payload.SenderID)+".json")
	if err := os.WriteFile(path, []byte(payloadText), 0o644); err != nil {
		return err
	}

	if err := a.ClearPayload(); err != nil {
		return err
	}
	return a.Deactivate("")
}

func itoa(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
