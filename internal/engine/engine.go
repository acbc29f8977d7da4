// Package engine implements the facade that wires configuration, logging,
// the control database, and the core actions together and hands the result
// to the scheduler. Grounded on
// _examples/original_source/ism/ISM.py's constructor, which performs the
// same seven construction steps in the same order, and on a NewEngine
// constructor elsewhere in the retrieved corpus for the "one facade owns the
// DB handle and a watch goroutine" shape.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kaliklipper/ism-go/internal/action"
	"github.com/kaliklipper/ism-go/internal/controlschema"
	"github.com/kaliklipper/ism-go/internal/dataaccess"
	"github.com/kaliklipper/ism-go/internal/ismconfig"
	"github.com/kaliklipper/ism-go/internal/ismerr"
	"github.com/kaliklipper/ism-go/internal/ismlog"
	"github.com/kaliklipper/ism-go/internal/pack"
	"github.com/kaliklipper/ism-go/internal/scheduler"
	"github.com/sirupsen/logrus"
)

const (
	rdbmsSQLite3 = "sqlite3"
	rdbmsMySQL   = "mysql"
)

// Engine is the top-level facade: construct one from a configuration file,
// then Start it.
type Engine struct {
	cfg       *ismconfig.Config
	logger    *logrus.Logger
	dao       dataaccess.DataAccess
	registry  *pack.Registry
	loader    *pack.Loader
	scheduler *scheduler.Scheduler
	dbPath    string // sqlite3 only
	runDB     string // mysql only
	watch     *watcher
}

// New builds an Engine from the properties file at configPath, performing
// the seven construction steps in order. tag overrides
// runtime.tag from the file when non-empty (mirrors ISM.py's
// args[0].get('tag', 'default')).
func New(configPath, tag string) (*Engine, error) {
	cfg, err := ismconfig.Load(configPath)
	if err != nil {
		return nil, err
	}
	if tag != "" {
		cfg.Runtime.Tag = tag
	} else if cfg.Runtime.Tag == "" {
		cfg.Runtime.Tag = "default"
	}

	stampFormat := cfg.Runtime.StampFormat
	if stampFormat == "" {
		stampFormat = cfg.Runtime.SysTagFormat
	}
	runTimestamp, err := createRunTimestamp(stampFormat)
	if err != nil {
		return nil, err
	}

	runDir := filepath.Join(cfg.Runtime.RootDir, cfg.Runtime.Tag, runTimestamp)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	logDir := filepath.Join(runDir, "log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	logger, err := ismlog.New(
		filepath.Join(logDir, cfg.Logging.File),
		ismlog.Level(cfg.Logging.Level),
		cfg.Logging.Propagate,
	)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"tag": cfg.Runtime.Tag, "run_timestamp": runTimestamp,
	}).Info("starting run")

	e := &Engine{cfg: cfg, logger: logger, registry: pack.NewRegistry()}

	if err := e.createDatabase(runDir); err != nil {
		return nil, err
	}

	daoCfg := dataaccess.Config{
		DBPath:          e.dbPath,
		Host:            cfg.Database.Host,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		RunDB:           e.runDB,
		RaiseOnSQLError: cfg.Database.RaiseOnSQLError,
		Logger:          logger,
	}
	switch cfg.Database.RDBMS {
	case rdbmsSQLite3:
		e.dao = dataaccess.NewSQLiteBackend(daoCfg)
	case rdbmsMySQL:
		e.dao = dataaccess.NewMySQLBackend(daoCfg)
	}

	if err := e.dao.CreateDatabase(); err != nil {
		return nil, fmt.Errorf("create control database: %w", err)
	}

	if err := controlschema.Apply(e.dao, cfg.Database.RDBMS); err != nil {
		return nil, err
	}

	e.loader = pack.NewLoader(e.registry, e.dao, cfg.Database.RDBMS, logger)
	e.registerCoreActions()

	sched := scheduler.New(nil, logger)
	e.scheduler = sched
	e.rebuildSchedulerActions()

	return e, nil
}

func createRunTimestamp(format string) (string, error) {
	switch format {
	case "epoch_seconds":
		return fmt.Sprintf("%d", time.Now().Unix()), nil
	case "epoch_milliseconds":
		return fmt.Sprintf("%d", time.Now().UnixMilli()), nil
	default:
		return "", ismerr.NewTimestampFormatNotRecognised(format)
	}
}

func (e *Engine) createDatabase(runDir string) error {
	switch e.cfg.Database.RDBMS {
	case rdbmsSQLite3:
		e.dbPath = filepath.Join(runDir, "database", e.cfg.Database.DBName)
	case rdbmsMySQL:
		e.runDB = fmt.Sprintf("%s_%s_%s", e.cfg.Database.DBName, e.cfg.Runtime.Tag, filepath.Base(runDir))
	default:
		return ismerr.NewRDBMSNotRecognised(e.cfg.Database.RDBMS)
	}
	return nil
}

func (e *Engine) newBase(name string) action.Base {
	return action.Base{ActionName: name, DAO: e.dao, Logger: e.logger}
}

func (e *Engine) registerCoreActions() {
	e.registry.Register("ProcessInboundMessages", func(b action.Base) action.Interface {
		return action.NewProcessInboundMessages(b)
	})
	e.registry.Register("ConfirmReadyToRun", func(b action.Base) action.Interface {
		return action.NewConfirmReadyToRun(b)
	})
	e.registry.Register("ConfirmReadyToStop", func(b action.Base) action.Interface {
		return action.NewConfirmReadyToStop(b, e.scheduler)
	})
	e.registry.Register("NormalShutdown", func(b action.Base) action.Interface {
		return action.NewNormalShutdown(b)
	})
	e.registry.Register("EmergencyShutdown", func(b action.Base) action.Interface {
		return action.NewEmergencyShutdown(b, e.scheduler)
	})
	e.registry.Register("CheckTimers", func(b action.Base) action.Interface {
		return action.NewCheckTimers(b)
	})
}

// rebuildSchedulerActions instantiates every registered factory, in
// registration order, and hands the resulting action list to the scheduler.
// Called once at construction and again after every ImportActionPack, since
// importing a pack appends new factories to the registry.
func (e *Engine) rebuildSchedulerActions() {
	built := e.registry.Build(e.newBase(""))
	e.scheduler.SetActions(built)
}

// ImportActionPack registers p's actions and applies its schema/data, then
// rebuilds the scheduler's action list so the new actions participate in
// dispatch.
func (e *Engine) ImportActionPack(p pack.Provider) error {
	if err := e.loader.ImportPack(p); err != nil {
		return err
	}
	e.rebuildSchedulerActions()
	return nil
}

// Start begins dispatch; see scheduler.Scheduler.Start.
func (e *Engine) Start(join bool) error {
	return e.scheduler.Start(join)
}

// Stop requests dispatch end after the in-flight iteration.
func (e *Engine) Stop() {
	e.scheduler.Stop()
}

// Running reports whether the dispatch loop is currently active.
func (e *Engine) Running() bool {
	return e.scheduler.Running()
}

// GetDatabaseName returns the control database's path (sqlite3) or name
// (mysql).
func (e *Engine) GetDatabaseName() string {
	switch e.cfg.Database.RDBMS {
	case rdbmsSQLite3:
		return e.dbPath
	case rdbmsMySQL:
		return e.runDB
	default:
		return ""
	}
}

// GetExecutionPhase returns the current phase name.
func (e *Engine) GetExecutionPhase() (string, error) {
	rows, err := e.dao.ExecuteQuery("SELECT execution_phase FROM phases WHERE state = 1")
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ismerr.NewExecutionPhaseNotFound()
	}
	phase, _ := rows[0][0].(string)
	if phase == "" {
		if b, ok := rows[0][0].([]byte); ok {
			phase = string(b)
		}
	}
	return phase, nil
}

// GetTag returns the current runtime tag.
func (e *Engine) GetTag() string { return e.cfg.Runtime.Tag }

// SetTag overrides the runtime tag for subsequent use.
func (e *Engine) SetTag(tag string) { e.cfg.Runtime.Tag = tag }

// Config exposes the parsed configuration for callers (e.g. the CLI's
// config-watch and test-support pack wiring) that need values the facade
// itself doesn't interpret.
func (e *Engine) Config() *ismconfig.Config { return e.cfg }

// Logger exposes the run's logger.
func (e *Engine) Logger() *logrus.Logger { return e.logger }

// DataAccess exposes the control-database handle, e.g. for diagnostic use
// by an interactive console.
func (e *Engine) DataAccess() dataaccess.DataAccess { return e.dao }
