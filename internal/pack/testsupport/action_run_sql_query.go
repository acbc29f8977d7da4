package testsupport

import (
	"encoding/json"

	"github.com/kaliklipper/ism-go/internal/action"
	"github.com/kaliklipper/ism-go/internal/dataaccess"
)

// ActionRunSqlQuery runs an arbitrary diagnostic query on behalf of a test
// harness: the SQL text arrives as this action's payload ({"sql": "...",
// "sender_id": ...}), and the result is handed back to the harness via
// ActionOutboundTestMsg's payload ({"query_result": [...], "sender_id": ...}).
type ActionRunSqlQuery struct{ action.Base }

func NewActionRunSqlQuery(b action.Base) *ActionRunSqlQuery {
	b.ActionName = "ActionRunSqlQuery"
	return &ActionRunSqlQuery{Base: b}
}

func (a *ActionRunSqlQuery) Execute() error {
	active, err := a.Active()
	if err != nil || !active {
		return err
	}

	payloadText, err := a.GetPayload()
	if err != nil {
		return err
	}

	var request struct {
		SQL      string `json:"sql"`
		SenderID int64  `json:"sender_id"`
	}
	if err := json.Unmarshal([]byte(payloadText), &request); err != nil {
		return err
	}
	if request.SQL == "" {
		if a.Logger != nil {
			a.Logger.Error("sql key not found in payload for test action ActionRunSqlQuery")
		}
		return nil
	}

	rows, err := a.DAO.ExecuteQuery(request.SQL)
	if err != nil {
		return err
	}

	outbound := struct {
		QueryResult [][]string `json:"query_result"`
		SenderID    int64      `json:"sender_id"`
	}{
		QueryResult: stringifyRows(rows),
		SenderID:    request.SenderID,
	}
	outboundPayload, err := json.Marshal(outbound)
	if err != nil {
		return err
	}

	if err := a.SetPayload("ActionOutboundTestMsg", string(outboundPayload)); err != nil {
		return err
	}
	if err := a.Activate("ActionOutboundTestMsg"); err != nil {
		return err
	}
	if err := a.ClearPayload(); err != nil {
		return err
	}
	return a.Deactivate("")
}

func stringifyRows(rows []dataaccess.Row) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			switch t := v.(type) {
			case []byte:
				cells[j] = string(t)
			case nil:
				cells[j] = ""
			default:
				cells[j] = jsonStringify(t)
			}
		}
		out[i] = cells
	}
	return out
}

func jsonStringify(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
