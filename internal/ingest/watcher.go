package ingest

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"coursemind/internal/logging"
)

// Watcher re-ingests course documents as they appear or change in the
// docs folder. Write bursts are debounced per file so a document being
// copied in is only processed once.
type Watcher struct {
	processor *Processor
	dir       string
	watcher   *fsnotify.Watcher
	debounce  time.Duration
}

// NewWatcher creates a folder watcher backed by processor.
func NewWatcher(processor *Processor, dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		processor: processor,
		dir:       dir,
		watcher:   fsw,
		debounce:  500 * time.Millisecond,
	}, nil
}

// Run processes filesystem events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	logging.Ingest("Watching %s for course documents", w.dir)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !SupportedFile(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.Ingest("Watcher error: %v", err)

		case now := <-ticker.C:
			for path, touched := range pending {
				if now.Sub(touched) < w.debounce {
					continue
				}
				delete(pending, path)
				if title, chunks, err := w.processor.AddCourseFile(ctx, path); err != nil {
					logging.Ingest("Failed to ingest %s: %v", path, err)
				} else {
					logging.Ingest("Re-ingested %s (%d chunks)", title, chunks)
				}
			}
		}
	}
}
