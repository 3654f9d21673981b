package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/milk9111/gridnav/scene"
	"github.com/milk9111/gridnav/sim"
	"github.com/spf13/cobra"
)

var errEmbeddedScene = errors.New("embedded scenes cannot be watched")

func runWatch(cmd *cobra.Command, args []string) error {
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to read --debounce flag: %w", err)
	}

	filename := args[0]
	sc, err := scene.Load(filename)
	if err != nil {
		if errors.Is(err, scene.ErrNotFound) {
			return fmt.Errorf("%w: %s", errEmbeddedScene, filename)
		}
		return err
	}
	s, err := sim.New(sc)
	if err != nil {
		return err
	}
	defer s.Close()

	dirs := []string{sc.Dir()}
	if sc.Script != "" {
		dirs = append(dirs, filepath.Dir(sc.ScriptPath()))
	}
	w, err := scene.NewWatcher(dirs, scene.WithDebounce(debounce))
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", filename, err)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	drainEvents(out, s)
	fmt.Fprintf(out, "watching %s\n", filename)
	return watchLoop(ctx, w, func(path string) {
		if err := reloadScene(s, filename); err != nil {
			slog.Warn("reload failed", slog.String("changed", path), slog.Any("err", err))
			fmt.Fprintf(out, "reload failed: %v\n", err)
			return
		}
		drainEvents(out, s)
	})
}

// watchLoop calls apply once per reported change until ctx ends or the
// watcher closes.
func watchLoop(ctx context.Context, w *scene.Watcher, apply func(path string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			apply(path)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.Any("err", err))
		}
	}
}

// reloadScene rereads filename and swaps it into s. s keeps running the old
// scene when the new one does not load.
func reloadScene(s *sim.Sim, filename string) error {
	sc, err := scene.Load(filename)
	if err != nil {
		return err
	}
	return s.Reload(sc)
}

func drainEvents(w io.Writer, s *sim.Sim) {
	for _, ev := range s.Events() {
		printEvent(w, ev)
	}
}
