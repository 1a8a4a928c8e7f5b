package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/google/rune-sub002/internal/rnconfig"
)

// watchAndRecompile implements SPEC_FULL.md §4's -w/--watch supplement:
// re-run the full compile pipeline every time cfg.PackageDir changes,
// until interrupted. The first compile always runs immediately, matching
// a plain (non-watch) invocation's behavior before the watch loop starts.
func watchAndRecompile(cfg *rnconfig.Config, log *rnconfig.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.PackageDir); err != nil {
		return err
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	log.Info("watching %s for changes (ctrl-c to stop)", cfg.PackageDir)
	compileOnce(cfg, log)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Info("change detected: %s", ev.Name)
			compileOnce(cfg, log)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error: %v", err)

		case <-sigc:
			log.Info("stopping watch")
			return nil
		}
	}
}
