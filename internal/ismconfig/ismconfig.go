// Package ismconfig loads the scheduler's YAML configuration document. It is
// deliberately dumb: it produces a nested Config struct and nothing more —
// every other component (Engine, DataAccess, ismlog) interprets the values
// it carries.
package ismconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Database holds database.* keys.
type Database struct {
	RDBMS           string `yaml:"rdbms"`
	DBName          string `yaml:"db_name"`
	Host            string `yaml:"host"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	RaiseOnSQLError bool   `yaml:"raise_on_sql_error"`
}

// Runtime holds runtime.* keys.
type Runtime struct {
	RootDir      string `yaml:"root_dir"`
	StampFormat  string `yaml:"stamp_format"`
	SysTagFormat string `yaml:"sys_tag_format"`
	Tag          string `yaml:"tag"`
}

// Logging holds logging.* keys.
type Logging struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	Propagate bool   `yaml:"propagate"`
}

// Config is the full parsed properties document.
type Config struct {
	Database Database `yaml:"database"`
	Runtime  Runtime  `yaml:"runtime"`
	Logging  Logging  `yaml:"logging"`

	// Extra carries any top-level section the core doesn't interpret
	// (e.g. test.support.inbound/outbound/archive for the file-IPC pack).
	Extra map[string]interface{} `yaml:",inline"`
}

// Load reads and parses the YAML properties file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read properties file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse properties file: %w", err)
	}
	return &cfg, nil
}

// StringExtra reads a nested value out of Extra, one path segment per
// argument, e.g. StringExtra("test", "support", "inbound").
// Returns "" if any segment is missing or not a string/map.
func (c *Config) StringExtra(path ...string) string {
	var cur interface{} = map[string]interface{}(c.Extra)
	for _, seg := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return ""
		}
		cur, ok = m[seg]
		if !ok {
			return ""
		}
	}
	s, _ := cur.(string)
	return s
}
