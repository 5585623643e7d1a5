package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/dailybrief/internal/recovery"
)

// settleDelay lets an editor or upstream job finish writing before a
// briefing is picked up.
const settleDelay = 300 * time.Millisecond

// BriefingCallback is called with the absolute path of a briefing that was
// created or rewritten in the inbox.
type BriefingCallback func(ctx context.Context, path string)

// Watch watches inboxDir for dated *.md briefings and calls cb once per file
// after writes settle. It returns when ctx is cancelled. Callbacks run on the
// watcher goroutine, one at a time.
func Watch(ctx context.Context, inboxDir string, logger *slog.Logger, cb BriefingCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: new watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(inboxDir); err != nil {
		return fmt.Errorf("catalog: watch %s: %w", inboxDir, err)
	}
	logger.Info("watcher: started", slog.String("inbox", inboxDir))

	pending := make(map[string]struct{})
	timer := time.NewTimer(settleDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			for p := range pending {
				delete(pending, p)
				logger.Debug("watcher: briefing ready", slog.String("path", p))
				cb(ctx, p)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isBriefing(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(settleDelay)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func isBriefing(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
		return false
	}
	_, err := recovery.DateFromName(name)
	return err == nil
}
