package logging

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"agendo-api/internal/config"
)

const debounce = 200 * time.Millisecond

// LevelWatcher re-reads log.level from the YAML config whenever the file
// changes and applies it to the running logger.
type LevelWatcher struct {
	path    string
	level   zap.AtomicLevel
	log     *zap.Logger
	watcher *fsnotify.Watcher
}

// NewLevelWatcher watches the directory holding path, since editors and
// config management usually replace the file rather than write it in place.
func NewLevelWatcher(path string, level zap.AtomicLevel, log *zap.Logger) (*LevelWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return &LevelWatcher{path: filepath.Clean(path), level: level, log: log, watcher: w}, nil
}

// Run blocks until ctx is done.
func (lw *LevelWatcher) Run(ctx context.Context) error {
	defer lw.watcher.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-lw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != lw.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			lw.reload()
		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return nil
			}
			lw.log.Warn("config watcher", zap.Error(err))
		}
	}
}

func (lw *LevelWatcher) reload() {
	c, err := config.LoadFile(lw.path)
	if err != nil {
		lw.log.Warn("config reload failed", zap.Error(err))
		return
	}
	var next zapcore.Level
	if err := next.UnmarshalText([]byte(c.Log.Level)); err != nil {
		lw.log.Warn("config reload: bad log level", zap.String("level", c.Log.Level))
		return
	}
	if next == lw.level.Level() {
		return
	}
	lw.level.SetLevel(next)
	lw.log.Info("log level changed", zap.String("level", next.String()))
}
