package engine

import (
	"context"

	"github.com/fsnotify/fsnotify"
)

// watcher adapts a WatchFile pattern seen elsewhere in the retrieved corpus:
// a background goroutine forwards fsnotify write events on one file to a
// callback, until cancelled.
// The engine itself does not re-read the properties file when it changes;
// what happens on a change is up to the callback.
type watcher struct {
	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
}

// WatchConfig watches configPath for writes and invokes onChange whenever
// one occurs. Returns an error if the watcher can't be established; the
// returned stop func tears the watch down.
func (e *Engine) WatchConfig(configPath string, onChange func()) (stop func(), err error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Write == fsnotify.Write {
					onChange()
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				if e.logger != nil {
					e.logger.WithError(err).Warn("config watcher error")
				}
			}
		}
	}()

	if err := fsw.Add(configPath); err != nil {
		cancel()
		return nil, err
	}

	e.watch = &watcher{fsw: fsw, cancel: cancel}
	return cancel, nil
}
