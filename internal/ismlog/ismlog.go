// Package ismlog wraps logrus the way the original scheduler wraps Python's
// logging module: one logger per run, writing to a file under the run
// directory's log/ folder, with propagation to stdout gated by config.
package ismlog

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level is the closed set of logging levels the configuration's logging.level key accepts.
type Level string

const (
	LevelDebug    Level = "DEBUG"
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

func (l Level) logrusLevel() (logrus.Level, error) {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel, nil
	case LevelInfo:
		return logrus.InfoLevel, nil
	case LevelWarning:
		return logrus.WarnLevel, nil
	case LevelError:
		return logrus.ErrorLevel, nil
	case LevelCritical:
		return logrus.FatalLevel, nil
	default:
		return 0, fmt.Errorf("logging level %q not recognised", l)
	}
}

// New opens logFile for writing and returns a logger at the given level.
// When propagate is false, records are written to the file only; when true
// they are also duplicated to stdout.
func New(logFile string, level Level, propagate bool) (*logrus.Logger, error) {
	lvl, err := level.logrusLevel()
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	var out io.Writer = f
	if propagate {
		out = io.MultiWriter(f, os.Stdout)
	}
	logger.SetOutput(out)

	return logger, nil
}
