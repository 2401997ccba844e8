package scripting

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher flags script changes on disk. The frame loop polls Changed and
// reloads the engine itself, so the VM is never touched off the loop.
type Watcher struct {
	watcher *fsnotify.Watcher
	log     *zap.Logger
	changed atomic.Bool
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher watches the script directories below root that exist.
func NewWatcher(root string, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	watched := 0
	for _, sub := range ScriptDirs {
		dir := filepath.Join(root, sub)
		if err := w.Add(dir); err != nil {
			log.Debug("not watching script dir", zap.String("dir", dir), zap.Error(err))
			continue
		}
		watched++
	}
	if watched == 0 {
		if err := w.Add(root); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		log:     log,
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Changed reports whether a script changed since the last call.
func (w *Watcher) Changed() bool {
	return w.changed.Swap(false)
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !isScriptFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < 100*time.Millisecond {
				continue
			}
			last[event.Name] = now
			w.log.Debug("script changed", zap.String("file", event.Name))
			w.changed.Store(true)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("script watcher error", zap.Error(err))
		case <-w.closeCh:
			return
		}
	}
}

func isScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".lua"
}
