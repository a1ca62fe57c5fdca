package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GoSim-25-26J-441/seqcsp/pkg/config"
	"github.com/GoSim-25-26J-441/seqcsp/pkg/logger"
)

// debounce coalesces the bursts of events editors produce on save.
const debounce = 100 * time.Millisecond

// watch regenerates the script once and then on every change of modelPath
// until ctx is done. The parent directory is watched so that editors which
// replace the file on save keep being followed.
func watch(ctx context.Context, modelPath string, cfg *config.Config) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(modelPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	regenerate := func() {
		if err := generateFile(ctx, abs, cfg, false); err != nil {
			logger.Error("generation failed", "model", abs, "error", err)
		}
	}
	regenerate()
	logger.Info("watching model", "model", abs)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isModelChange(ev, abs) {
				continue
			}
			logger.Debug("model changed", "op", ev.Op.String())
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		case <-timer.C:
			regenerate()
		}
	}
}

// isModelChange reports whether ev may have changed the contents of path.
func isModelChange(ev fsnotify.Event, path string) bool {
	if filepath.Clean(ev.Name) != path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
