package indexer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/sgonzalezm/cam-stream/api/internal"
)

// Watcher invalidates the scanner's snapshot cache when the archive changes
// on disk, keeping cached query results near-current. It is only started
// when both the cache and watching are enabled.
type Watcher struct {
	scanner *Scanner
	watcher *fsnotify.Watcher
	log     *internal.Logger
}

func NewWatcher(scanner *Scanner, log *internal.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		scanner: scanner,
		watcher: fw,
		log:     log.Component("watcher"),
	}, nil
}

// Start watches the root and its camera folders and begins processing events.
func (w *Watcher) Start() error {
	root := w.scanner.Root()
	w.log.Info("watching %s", root)

	if err := w.watcher.Add(root); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() && folderRe.MatchString(entry.Name()) {
			if err := w.watcher.Add(filepath.Join(root, entry.Name())); err != nil {
				w.log.Warn("could not watch %s: %v", entry.Name(), err)
			}
		}
	}

	go w.processEvents()
	return nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				w.log.Info("events channel closed")
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.log.Info("errors channel closed")
				return
			}
			w.log.Error("watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)

	// A new camera-day folder needs its own watch before its files show up.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if folderRe.MatchString(name) {
				if err := w.watcher.Add(event.Name); err != nil {
					w.log.Warn("could not watch new folder %s: %v", name, err)
				}
				w.scanner.Invalidate()
			}
			return
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	// A removed or renamed camera-day folder takes all its records with it.
	// The path no longer stats, so match on the name alone.
	if (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) && folderRe.MatchString(name) {
		w.log.Debug("folder gone: %s", event.Name)
		w.scanner.Invalidate()
		return
	}

	if !strings.HasSuffix(strings.ToLower(name), strings.ToLower(w.scanner.cfg.VideoExt)) {
		return
	}

	w.log.Debug("change detected: %s", event.Name)
	w.scanner.Invalidate()
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
