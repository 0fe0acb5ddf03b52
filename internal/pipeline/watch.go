package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lehigh-university-libraries/incunabula/internal/discovery"
)

// DefaultSettle is how long the watcher waits for a burst of page writes to
// finish before re-running a volume.
const DefaultSettle = 500 * time.Millisecond

// Watch processes job once, then again whenever a page XML file under its
// input directory is created, written, renamed or removed. Each run's summary
// is passed to onRun. Watch returns when ctx is done.
func (p *Processor) Watch(ctx context.Context, job Job, outputDir string, settle time.Duration, onRun func(Summary)) error {
	dir := watchDir(job.Input)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch input is not a directory: %s", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	slog.Info("Watching for page changes", "dir", dir)

	onRun(p.runJob(ctx, job, outputDir))

	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isPageEvent(event) {
				continue
			}
			slog.Debug("Page changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		case <-timer.C:
			onRun(p.runJob(ctx, job, outputDir))
		}
	}
}

func isPageEvent(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".xml") {
		return false
	}
	if discovery.IsHeadingsOutput(event.Name) {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

func watchDir(input string) string {
	if strings.ContainsAny(input, "*?[") || strings.EqualFold(filepath.Ext(input), ".xml") {
		return filepath.Dir(input)
	}
	return input
}
