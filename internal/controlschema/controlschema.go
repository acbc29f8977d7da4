// Package controlschema bootstraps the three core control-database tables
// (phases, actions, timers) and seeds them. The schema and seed documents
// are embedded JSON, keyed by backend name, mirroring ism/core/schema.json
// and ism/core/data.json from _examples/original_source — there the
// documents were packaged resources loaded via importlib.resources; here
// go:embed is the idiomatic Go equivalent for shipping static data inside a
// module.
package controlschema

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/kaliklipper/ism-go/internal/dataaccess"
)

//go:embed schema.json
var schemaDoc []byte

//go:embed data.json
var dataDoc []byte

type document struct {
	Tables  []string `json:"tables"`
	Inserts []string `json:"inserts"`
}

// Apply runs the schema statements for rdbms, in order, then the seed data
// statements, in order. The engine guarantees this ordering: schema before
// data.
func Apply(dao dataaccess.DataAccess, rdbms string) error {
	var schemas map[string]document
	if err := json.Unmarshal(schemaDoc, &schemas); err != nil {
		return fmt.Errorf("parse embedded schema document: %w", err)
	}
	var datas map[string]document
	if err := json.Unmarshal(dataDoc, &datas); err != nil {
		return fmt.Errorf("parse embedded data document: %w", err)
	}

	schema, ok := schemas[rdbms]
	if !ok {
		return fmt.Errorf("no schema document for rdbms %q", rdbms)
	}
	data, ok := datas[rdbms]
	if !ok {
		return fmt.Errorf("no data document for rdbms %q", rdbms)
	}

	for _, stmt := range schema.Tables {
		if err := dao.ExecuteStatement(stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	for _, stmt := range data.Inserts {
		if err := dao.ExecuteStatement(stmt); err != nil {
			return fmt.Errorf("apply seed statement: %w", err)
		}
	}
	return nil
}

// ApplyDocument runs an action pack's own schema/data JSON documents
// (same shape, keyed by backend) against dao. Used by the pack loader.
func ApplyDocument(dao dataaccess.DataAccess, rdbms string, schemaJSON, dataJSON []byte) error {
	if len(schemaJSON) > 0 {
		var schemas map[string]document
		if err := json.Unmarshal(schemaJSON, &schemas); err != nil {
			return fmt.Errorf("parse pack schema document: %w", err)
		}
		if schema, ok := schemas[rdbms]; ok {
			for _, stmt := range schema.Tables {
				if err := dao.ExecuteStatement(stmt); err != nil {
					return fmt.Errorf("apply pack schema statement: %w", err)
				}
			}
		}
	}

	var datas map[string]document
	if err := json.Unmarshal(dataJSON, &datas); err != nil {
		return fmt.Errorf("parse pack data document: %w", err)
	}
	data, ok := datas[rdbms]
	if !ok {
		return fmt.Errorf("no pack data document for rdbms %q", rdbms)
	}
	for _, stmt := range data.Inserts {
		if err := dao.ExecuteStatement(stmt); err != nil {
			return fmt.Errorf("apply pack seed statement: %w", err)
		}
	}
	return nil
}
