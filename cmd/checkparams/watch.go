package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/checkparams/config"
	"github.com/dhamidi/checkparams/preproc"
)

var watchLog = commonlog.GetLogger("checkparams.watch")

// fileWatcher checks a file and everything it includes again whenever one
// of them changes.
type fileWatcher struct {
	path     string
	cfg      *config.Config
	stdout   io.Writer
	stderr   io.Writer
	watcher  *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	debounce time.Duration
}

func watch(ctx context.Context, path string, cfg *config.Config, stdout, stderr io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	w := &fileWatcher{
		path:     path,
		cfg:      cfg,
		stdout:   stdout,
		stderr:   stderr,
		watcher:  watcher,
		files:    map[string]bool{},
		dirs:     map[string]bool{},
		debounce: cfg.Watch.Debounce.Duration,
	}
	if w.debounce <= 0 {
		w.debounce = 250 * time.Millisecond
	}

	w.check()
	return w.run(ctx)
}

func (w *fileWatcher) run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			watchLog.Debugf("%s: %s", event.Name, event.Op)
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true
		case <-timer.C:
			if pending {
				pending = false
				w.check()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (w *fileWatcher) check() {
	watchLog.Infof("checking %s", w.path)
	if _, err := checkFile(w.path, w.cfg, w.stdout, w.stderr); err != nil {
		fmt.Fprintln(w.stderr, err)
	}
	w.refresh()
}

// refresh watches the directories holding the current include set.
func (w *fileWatcher) refresh() {
	files, err := preproc.Includes(w.path, preproc.Params{"version": w.cfg.RubyVersion})
	if err != nil {
		watchLog.Warningf("%s: %v", w.path, err)
		abs, absErr := filepath.Abs(w.path)
		if absErr != nil {
			return
		}
		files = append(files[:0], abs)
		for f := range w.files {
			files = append(files, f)
		}
	}

	w.files = make(map[string]bool, len(files))
	for _, f := range files {
		w.files[f] = true
		dir := filepath.Dir(f)
		if w.dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			watchLog.Warningf("watch %s: %v", dir, err)
			continue
		}
		w.dirs[dir] = true
	}
}
