package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/objscene/internal/logger"
)

// debounceDelay coalesces the write bursts editors produce when saving.
const debounceDelay = 200 * time.Millisecond

func cmdWatch(args []string) {
	cfg, rest := setup(args)
	defer logger.Sync()
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sceneconv watch <scene> [output]")
		os.Exit(1)
	}

	input := rest[0]
	output := outputPath(input, rest, cfg)

	// Convert once up front so the output exists before the first change.
	if err := convert(input, output, cfg); err != nil {
		logger.Fatal("initial conversion failed", zap.String("input", input), zap.Error(err))
	}
	logger.Info("watching", zap.String("input", input), zap.String("output", output))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Fatal("creating watcher", zap.Error(err))
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors replace files on
	// save, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		logger.Fatal("watching directory", zap.String("dir", filepath.Dir(input)), zap.Error(err))
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	var debounce *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(input) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			if err := convert(input, output, cfg); err != nil {
				logger.Error("re-conversion failed", zap.String("input", input), zap.Error(err))
				continue
			}
			logger.Info("re-converted", zap.String("output", output))

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("watch error", zap.Error(err))

		case sig := <-sigs:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			return
		}
	}
}
