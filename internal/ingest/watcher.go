package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay gives the writer time to finish before the file is submitted
const settleDelay = 500 * time.Millisecond

// Watcher monitors a drop folder and submits every recognized artifact as a
// new job.
type Watcher struct {
	inputDir  string
	submitter *Submitter
	logger    *slog.Logger
	watcher   *fsnotify.Watcher
	wg        sync.WaitGroup
}

// NewWatcher creates a Watcher over inputDir
func NewWatcher(inputDir string, submitter *Submitter, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fw.Add(inputDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &Watcher{
		inputDir:  inputDir,
		submitter: submitter,
		logger:    logger,
		watcher:   fw,
	}, nil
}

// Start monitors the drop folder until the context is canceled
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("Drop folder watcher started",
		slog.String("input_dir", w.inputDir),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Waiting for in-flight submissions...")
			w.wg.Wait()
			w.logger.Info("Drop folder watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}

			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") {
				continue
			}

			kind, ok := KindForFile(event.Name)
			if !ok {
				w.logger.Debug("Ignoring unrecognized file",
					slog.String("path", event.Name),
				)
				continue
			}

			w.logger.Info("New artifact detected",
				slog.String("path", event.Name),
				slog.String("kind", kind),
			)

			w.wg.Add(1)
			go func(path, kind, name string) {
				defer w.wg.Done()

				// Small delay to ensure the file is fully written
				time.Sleep(settleDelay)

				sub := Submission{
					Kind:             kind,
					FilePath:         path,
					OriginalFilename: name,
				}
				if _, err := w.submitter.Submit(ctx, sub); err != nil {
					w.logger.Error("Failed to submit dropped file",
						slog.String("path", path),
						slog.String("error", err.Error()),
					)
				}
			}(event.Name, kind, name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Watcher error",
				slog.String("error", err.Error()),
			)
		}
	}
}

// Stop closes the underlying file watcher
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
